package packet

import "encoding/binary"

// Header is the capability set every packet header shape provides.
// Encode and Decode work against this interface only, so a new header shape
// is added by implementing it, without touching the framing code.
type Header interface {
	// HeaderSize returns the encoded size of the header in bytes.
	HeaderSize() int

	// PutHeader writes the header into buf for a payload of payloadLen bytes.
	// buf must be at least HeaderSize() bytes long.
	// Returns the number of bytes written.
	PutHeader(buf []byte, payloadLen int) int

	// ParseHeader reads the header from data. data is at least HeaderSize()
	// bytes long.
	ParseHeader(data []byte) error

	// PayloadLength returns the payload length declared by the last parsed
	// or written header.
	PayloadLength() int
}

// StreamHeader is the generic header: type (1) | opcode (1) | length (2).
type StreamHeader struct {
	Type   uint8
	Opcode Opcode
	Length uint16
}

// HeaderSize implements Header.
func (h *StreamHeader) HeaderSize() int {
	return StreamHeaderSize
}

// PutHeader implements Header.
func (h *StreamHeader) PutHeader(buf []byte, payloadLen int) int {
	h.Length = uint16(payloadLen)
	buf[0] = h.Type
	buf[1] = uint8(h.Opcode)
	binary.LittleEndian.PutUint16(buf[2:], h.Length)
	return StreamHeaderSize
}

// ParseHeader implements Header.
func (h *StreamHeader) ParseHeader(data []byte) error {
	opcode := Opcode(data[1])
	if !opcode.IsValid() {
		return ErrUnknownVariant
	}
	h.Type = data[0]
	h.Opcode = opcode
	h.Length = binary.LittleEndian.Uint16(data[2:])
	return nil
}

// PayloadLength implements Header.
func (h *StreamHeader) PayloadLength() int {
	return int(h.Length)
}

// IndexedHeader addresses an indexed slot of a configuration or state type:
// type (1) | id (1) | opcode (1) | length (2).
type IndexedHeader struct {
	Type   uint8
	ID     uint8
	Opcode Opcode
	Length uint16
}

// HeaderSize implements Header.
func (h *IndexedHeader) HeaderSize() int {
	return IndexedHeaderSize
}

// PutHeader implements Header.
func (h *IndexedHeader) PutHeader(buf []byte, payloadLen int) int {
	h.Length = uint16(payloadLen)
	buf[0] = h.Type
	buf[1] = h.ID
	buf[2] = uint8(h.Opcode)
	binary.LittleEndian.PutUint16(buf[3:], h.Length)
	return IndexedHeaderSize
}

// ParseHeader implements Header.
func (h *IndexedHeader) ParseHeader(data []byte) error {
	opcode := Opcode(data[2])
	if !opcode.IsValid() {
		return ErrUnknownVariant
	}
	h.Type = data[0]
	h.ID = data[1]
	h.Opcode = opcode
	h.Length = binary.LittleEndian.Uint16(data[3:])
	return nil
}

// PayloadLength implements Header.
func (h *IndexedHeader) PayloadLength() int {
	return int(h.Length)
}

// Verify header shapes implement Header.
var (
	_ Header = (*StreamHeader)(nil)
	_ Header = (*IndexedHeader)(nil)
)
