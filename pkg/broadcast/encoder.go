package broadcast

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/backkem/crownstone/pkg/crypto"
	"github.com/backkem/crownstone/pkg/keys"
	"github.com/google/uuid"
)

// AdvertisementUUIDs is the number of service UUIDs in a broadcast.
const AdvertisementUUIDs = 1 + HeaderWords

// Advertisement is what the advertiser publishes for one window.
type Advertisement struct {
	// ServiceUUIDs holds the encrypted command packet followed by the four
	// header words.
	ServiceUUIDs [AdvertisementUUIDs]uuid.UUID

	// Duration is how long to advertise. Set by the scheduler.
	Duration time.Duration
}

// List returns the service UUIDs as a slice.
func (a Advertisement) List() []uuid.UUID {
	out := make([]uuid.UUID, len(a.ServiceUUIDs))
	copy(out, a.ServiceUUIDs[:])
	return out
}

// bluetoothBase is 00000000-0000-1000-8000-00805F9B34FB.
var bluetoothBase = uuid.UUID{
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x10, 0x00,
	0x80, 0x00, 0x00, 0x80, 0x5F, 0x9B, 0x34, 0xFB,
}

// WordUUID places a 16-bit value in the Bluetooth base UUID:
// 0000WWWW-0000-1000-8000-00805F9B34FB.
func WordUUID(w uint16) uuid.UUID {
	u := bluetoothBase
	binary.BigEndian.PutUint16(u[2:4], w)
	return u
}

// UUIDWord extracts the 16-bit value of a base UUID. ok is false for UUIDs
// outside the Bluetooth base.
func UUIDWord(u uuid.UUID) (uint16, bool) {
	w := binary.BigEndian.Uint16(u[2:4])
	return w, WordUUID(w) == u
}

// EncoderConfig configures an Encoder.
type EncoderConfig struct {
	// Keys resolves sphere keys and cached RC5 keys. Required.
	Keys *keys.Store

	// DeviceToken identifies this phone to the stones.
	DeviceToken uint8

	// Background is the presence record sent with every broadcast.
	Background BackgroundPayload

	// Now returns the current time. Default: time.Now.
	Now func() time.Time
}

// Encoder builds broadcast advertisements.
type Encoder struct {
	keys        *keys.Store
	deviceToken uint8
	background  BackgroundPayload
	now         func() time.Time
}

// NewEncoder creates an encoder.
func NewEncoder(config EncoderConfig) *Encoder {
	if config.Now == nil {
		config.Now = time.Now
	}
	return &Encoder{
		keys:        config.Keys,
		deviceToken: config.DeviceToken,
		background:  config.Background,
		now:         config.Now,
	}
}

// Encode builds the advertisement for one command to sphereID. Nothing is
// returned on failure; a partial result must never be advertised.
func (e *Encoder) Encode(sphereID string, typ CommandType, payload []byte) (Advertisement, error) {
	var adv Advertisement
	if len(payload) > MaxPayloadSize {
		return adv, ErrPayloadTooLarge
	}
	if e.keys == nil {
		return adv, ErrNoKey
	}

	sphere, ok := e.keys.Get(sphereID)
	if !ok {
		return adv, fmt.Errorf("%w: %q", ErrUnknownSphere, sphereID)
	}
	level, key, ok := sphere.Keys.HighestAvailable()
	if !ok {
		return adv, fmt.Errorf("%w: %q has no role key", ErrNoKey, sphereID)
	}
	rc5Key, err := e.keys.RC5Key(sphereID)
	if err != nil {
		if errors.Is(err, keys.ErrNoKey) {
			return adv, fmt.Errorf("%w: %q has no localization key", ErrNoKey, sphereID)
		}
		return adv, err
	}

	timestamp := uint32(e.now().Unix())
	background, err := EncryptBackground(e.background, timestamp, rc5Key)
	if err != nil {
		return adv, err
	}

	header := Header{
		Protocol:            ProtocolVersion,
		SphereShortID:       sphere.ShortID,
		AccessLevel:         level.Byte(),
		DeviceToken:         e.deviceToken,
		EncryptedBackground: background,
	}
	words, err := header.Words()
	if err != nil {
		return adv, err
	}
	nonce, err := header.Bytes()
	if err != nil {
		return adv, err
	}

	block, err := CommandPacket{ValidationTimestamp: timestamp, Type: typ, Payload: payload}.Encode()
	if err != nil {
		return adv, err
	}
	ciphertext, err := encryptBlock(key, nonce, block)
	if err != nil {
		return adv, err
	}

	adv.ServiceUUIDs[0] = uuid.UUID(ciphertext)
	for i, w := range words {
		adv.ServiceUUIDs[1+i] = WordUUID(w)
	}
	return adv, nil
}

func encryptBlock(key keys.Key, nonce [HeaderSize]byte, block [PacketSize]byte) ([PacketSize]byte, error) {
	var out [PacketSize]byte
	iv, err := crypto.BuildIVFromNonce(nonce[:])
	if err != nil {
		return out, err
	}
	ct, err := crypto.AESCTRXOR(key[:], iv, block[:])
	if err != nil {
		return out, err
	}
	copy(out[:], ct)
	return out, nil
}

// Parsed is a broadcast split back into its header and encrypted command.
type Parsed struct {
	Header     Header
	Ciphertext [PacketSize]byte
}

// Parse splits received service UUIDs back into header and ciphertext. The
// header UUIDs may appear in any order; the one UUID outside the Bluetooth
// base is the ciphertext.
func Parse(uuids []uuid.UUID) (Parsed, error) {
	var p Parsed
	if len(uuids) != AdvertisementUUIDs {
		return p, fmt.Errorf("%w: %d service UUIDs", ErrBadSequence, len(uuids))
	}
	var words [HeaderWords]uint16
	nWords, nCipher := 0, 0
	for _, u := range uuids {
		if w, ok := UUIDWord(u); ok && nWords < HeaderWords {
			words[nWords] = w
			nWords++
			continue
		}
		p.Ciphertext = u
		nCipher++
	}
	if nWords != HeaderWords || nCipher != 1 {
		return p, ErrBadSequence
	}
	h, err := DecodeHeader(words)
	if err != nil {
		return p, err
	}
	p.Header = h
	return p, nil
}

// Decrypt opens the command packet with the sphere key selected by the
// header's access level.
func (p Parsed) Decrypt(ks keys.KeySet) (CommandPacket, error) {
	key, ok := ks.Key(keys.AccessLevel(p.Header.AccessLevel))
	if !ok {
		return CommandPacket{}, ErrNoKey
	}
	nonce, err := p.Header.Bytes()
	if err != nil {
		return CommandPacket{}, err
	}
	plain, err := encryptBlock(key, nonce, p.Ciphertext)
	if err != nil {
		return CommandPacket{}, err
	}
	return DecodeCommandPacket(plain), nil
}
