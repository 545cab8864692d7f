package broadcast

import (
	"encoding/binary"
	"fmt"
)

const (
	// PacketSize is the size of a command packet: exactly one AES block.
	PacketSize = 16

	// MaxPayloadSize is the command payload capacity.
	MaxPayloadSize = 11

	// MaxSwitchItems is the number of (stone, value) pairs that fit a
	// multi-switch payload next to its count byte.
	MaxSwitchItems = (MaxPayloadSize - 1) / 2

	timestampSize = 4
)

// CommandPacket is the plaintext of the encrypted UUID:
//
//	validationTimestamp (4 LE) | type (1) | payload (11, zero padded)
type CommandPacket struct {
	ValidationTimestamp uint32
	Type                CommandType
	Payload             []byte
}

// Encode serializes the packet into one AES block.
func (p CommandPacket) Encode() ([PacketSize]byte, error) {
	var b [PacketSize]byte
	if len(p.Payload) > MaxPayloadSize {
		return b, ErrPayloadTooLarge
	}
	binary.LittleEndian.PutUint32(b[:], p.ValidationTimestamp)
	b[timestampSize] = uint8(p.Type)
	copy(b[timestampSize+1:], p.Payload)
	return b, nil
}

// DecodeCommandPacket parses a decrypted command block. The payload is
// returned with its zero padding.
func DecodeCommandPacket(b [PacketSize]byte) CommandPacket {
	payload := make([]byte, MaxPayloadSize)
	copy(payload, b[timestampSize+1:])
	return CommandPacket{
		ValidationTimestamp: binary.LittleEndian.Uint32(b[:]),
		Type:                CommandType(b[timestampSize]),
		Payload:             payload,
	}
}

// SwitchItem sets the switch value of one stone. Value 0 is off, 100 is
// fully on.
type SwitchItem struct {
	StoneID uint8
	Value   uint8
}

// EncodeSwitchPayload encodes count (1) followed by (stoneId, value) pairs.
func EncodeSwitchPayload(items []SwitchItem) ([]byte, error) {
	if len(items) > MaxSwitchItems {
		return nil, ErrPayloadTooLarge
	}
	b := make([]byte, 0, 1+2*len(items))
	b = append(b, uint8(len(items)))
	for _, it := range items {
		b = append(b, it.StoneID, it.Value)
	}
	return b, nil
}

// DecodeSwitchPayload is the inverse of EncodeSwitchPayload. Trailing
// padding is ignored.
func DecodeSwitchPayload(b []byte) ([]SwitchItem, error) {
	if len(b) < 1 {
		return nil, fmt.Errorf("%w: empty switch payload", ErrInvalidCommand)
	}
	n := int(b[0])
	if n > MaxSwitchItems || len(b) < 1+2*n {
		return nil, fmt.Errorf("%w: switch count %d", ErrInvalidCommand, n)
	}
	items := make([]SwitchItem, n)
	for i := range items {
		items[i] = SwitchItem{StoneID: b[1+2*i], Value: b[2+2*i]}
	}
	return items, nil
}

// EncodeSetTimePayload encodes a Unix time in seconds (4 LE).
func EncodeSetTimePayload(unix uint32) []byte {
	return binary.LittleEndian.AppendUint32(nil, unix)
}

// EncodeBehaviourSettingsPayload encodes the behaviour mode (4 LE): 1 for
// enabled, 0 for disabled.
func EncodeBehaviourSettingsPayload(enabled bool) []byte {
	var mode uint32
	if enabled {
		mode = 1
	}
	return binary.LittleEndian.AppendUint32(nil, mode)
}
