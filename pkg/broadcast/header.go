package broadcast

import (
	"encoding/binary"
	"fmt"
)

const (
	// HeaderWords is the number of 16-bit header words.
	HeaderWords = 4

	// HeaderSize is the header size in bytes; it doubles as the AES-CTR
	// nonce of the command packet.
	HeaderSize = 2 * HeaderWords

	// ProtocolVersion is the broadcast protocol version this package emits.
	ProtocolVersion = 1

	maxProtocol    = 1<<3 - 1
	maxAccessLevel = 1<<3 - 1
	maxReserved    = 1<<2 - 1

	fieldMask = 0x3FFF
)

// Header is the metadata spread across the four header words:
//
//	word 0: seq 0 | protocol (3) | sphereShortId (8) | accessLevel (3)
//	word 1: seq 1 | reserved (2) | deviceToken (8) | background[31:28]
//	word 2: seq 2 | background[27:14]
//	word 3: seq 3 | background[13:0]
type Header struct {
	Protocol            uint8
	SphereShortID       uint8
	AccessLevel         uint8
	Reserved            uint8
	DeviceToken         uint8
	EncryptedBackground uint32
}

// Words encodes the header into its four tagged words.
func (h Header) Words() ([HeaderWords]uint16, error) {
	var w [HeaderWords]uint16
	if h.Protocol > maxProtocol || h.AccessLevel > maxAccessLevel || h.Reserved > maxReserved {
		return w, fmt.Errorf("%w: protocol %d, access level %d, reserved %d",
			ErrFieldRange, h.Protocol, h.AccessLevel, h.Reserved)
	}
	bg := h.EncryptedBackground
	w[0] = 0<<14 | uint16(h.Protocol)<<11 | uint16(h.SphereShortID)<<3 | uint16(h.AccessLevel)
	w[1] = 1<<14 | uint16(h.Reserved)<<12 | uint16(h.DeviceToken)<<4 | uint16(bg>>28)
	w[2] = 2<<14 | uint16(bg>>14)&fieldMask
	w[3] = 3<<14 | uint16(bg)&fieldMask
	return w, nil
}

// Bytes returns the words in little-endian order.
func (h Header) Bytes() ([HeaderSize]byte, error) {
	var b [HeaderSize]byte
	w, err := h.Words()
	if err != nil {
		return b, err
	}
	for i, word := range w {
		binary.LittleEndian.PutUint16(b[2*i:], word)
	}
	return b, nil
}

// DecodeHeader parses four header words in any order, using their sequence
// tags to place them.
func DecodeHeader(words [HeaderWords]uint16) (Header, error) {
	var ordered [HeaderWords]uint16
	var seen uint8
	for _, w := range words {
		seq := w >> 14
		if seen&(1<<seq) != 0 {
			return Header{}, ErrBadSequence
		}
		seen |= 1 << seq
		ordered[seq] = w & fieldMask
	}

	w := ordered
	return Header{
		Protocol:      uint8(w[0] >> 11 & maxProtocol),
		SphereShortID: uint8(w[0] >> 3),
		AccessLevel:   uint8(w[0] & maxAccessLevel),
		Reserved:      uint8(w[1] >> 12 & maxReserved),
		DeviceToken:   uint8(w[1] >> 4),
		EncryptedBackground: uint32(w[1]&0x0F)<<28 |
			uint32(w[2])<<14 |
			uint32(w[3]),
	}, nil
}
