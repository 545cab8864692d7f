package packet

import "errors"

// Packet layer errors.
var (
	// ErrUndersized is returned when a buffer is shorter than the fixed header.
	ErrUndersized = errors.New("packet: buffer shorter than header")

	// ErrTruncated is returned when a declared length or field runs past the
	// end of the buffer.
	ErrTruncated = errors.New("packet: declared length exceeds buffer")

	// ErrUnknownVariant is returned for an opcode or discriminator outside the
	// known set.
	ErrUnknownVariant = errors.New("packet: unknown variant")

	// ErrPayloadTooLarge is returned when a payload does not fit the 16-bit
	// length field.
	ErrPayloadTooLarge = errors.New("packet: payload exceeds 16-bit length")

	// ErrFieldTooLong is returned when a value does not fit a fixed-width field.
	ErrFieldTooLong = errors.New("packet: value exceeds fixed field width")
)

// Framing constants.
const (
	// StreamHeaderSize is type (1) + opcode (1) + length (2).
	StreamHeaderSize = 4

	// IndexedHeaderSize is type (1) + id (1) + opcode (1) + length (2).
	IndexedHeaderSize = 5

	// MaxPayloadLength is the largest payload a 16-bit length field can declare.
	MaxPayloadLength = 0xFFFF

	// ResultCodeSize is the size of the result code prefix in a result payload.
	ResultCodeSize = 2
)
