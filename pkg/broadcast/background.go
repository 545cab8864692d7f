package broadcast

import (
	"github.com/backkem/crownstone/pkg/crypto/rc5"
)

// Background payload bit widths.
const (
	locationIDBits = 6
	profileIDBits  = 3
	rssiOffsetBits = 4

	// MaxLocationID is the largest location ID that fits the payload.
	MaxLocationID = 1<<locationIDBits - 1

	// MaxProfileID is the largest profile ID that fits the payload.
	MaxProfileID = 1<<profileIDBits - 1
)

// BackgroundPayload is the presence record every broadcast carries, even a
// NoOp. Packed MSB first into 16 bits:
//
//	locationId (6) | profileId (3) | rssiOffset (4) | tapToToggle (1) |
//	ignoreForBehaviour (1) | reserved (1)
type BackgroundPayload struct {
	LocationID         uint8
	ProfileID          uint8
	RSSIOffset         int
	TapToToggle        bool
	IgnoreForBehaviour bool
}

// EncodeRSSIOffset maps an RSSI offset in dB to its 4-bit encoding,
// clamp(offset/2 + 8, 0, 15).
func EncodeRSSIOffset(offset int) uint8 {
	v := offset/2 + 8
	if v < 0 {
		v = 0
	}
	if v > 15 {
		v = 15
	}
	return uint8(v)
}

// DecodeRSSIOffset is the inverse of EncodeRSSIOffset, up to rounding.
func DecodeRSSIOffset(encoded uint8) int {
	return (int(encoded&0x0F) - 8) * 2
}

// Pack packs the payload into 16 bits.
func (p BackgroundPayload) Pack() (uint16, error) {
	if p.LocationID > MaxLocationID || p.ProfileID > MaxProfileID {
		return 0, ErrFieldRange
	}
	v := uint16(p.LocationID) << 10
	v |= uint16(p.ProfileID) << 7
	v |= uint16(EncodeRSSIOffset(p.RSSIOffset)) << 3
	if p.TapToToggle {
		v |= 1 << 2
	}
	if p.IgnoreForBehaviour {
		v |= 1 << 1
	}
	return v, nil
}

// UnpackBackground unpacks a 16-bit background payload. RSSIOffset comes
// back as the decoded dB value.
func UnpackBackground(v uint16) BackgroundPayload {
	return BackgroundPayload{
		LocationID:         uint8(v >> 10 & MaxLocationID),
		ProfileID:          uint8(v >> 7 & MaxProfileID),
		RSSIOffset:         DecodeRSSIOffset(uint8(v >> 3 & 0x0F)),
		TapToToggle:        v&(1<<2) != 0,
		IgnoreForBehaviour: v&(1<<1) != 0,
	}
}

// ValidationWord is the 16-bit time tag in the background block: the
// validation timestamp with a resolution of 128 seconds.
func ValidationWord(validationTimestamp uint32) uint16 {
	return uint16(validationTimestamp >> 7)
}

// EncryptBackground RC5-encrypts the block [validation word, payload]. The
// result's low 16 bits are the first encrypted word.
func EncryptBackground(p BackgroundPayload, validationTimestamp uint32, key *rc5.ExpandedKey) (uint32, error) {
	packed, err := p.Pack()
	if err != nil {
		return 0, err
	}
	block := uint32(ValidationWord(validationTimestamp)) | uint32(packed)<<16
	return key.EncryptUint32(block), nil
}

// DecryptBackground is the inverse of EncryptBackground. It returns the
// payload and the validation word.
func DecryptBackground(encrypted uint32, key *rc5.ExpandedKey) (BackgroundPayload, uint16) {
	block := key.DecryptUint32(encrypted)
	return UnpackBackground(uint16(block >> 16)), uint16(block)
}
