package packet

// Encode serializes header followed by payload.
// The header's length field is set from len(payload).
func Encode(h Header, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayloadLength {
		return nil, ErrPayloadTooLarge
	}
	size := h.HeaderSize()
	buf := make([]byte, size+len(payload))
	offset := h.PutHeader(buf, len(payload))
	copy(buf[offset:], payload)
	return buf, nil
}

// Decode parses a header from data into h and returns a copy of the payload
// it declares. Bytes after the declared payload are ignored; decrypted
// buffers carry zero padding up to the cipher block size.
func Decode(h Header, data []byte) ([]byte, error) {
	size := h.HeaderSize()
	if len(data) < size {
		return nil, ErrUndersized
	}
	if err := h.ParseHeader(data[:size]); err != nil {
		return nil, err
	}
	n := h.PayloadLength()
	if n > len(data)-size {
		return nil, ErrTruncated
	}
	payload := make([]byte, n)
	copy(payload, data[size:size+n])
	return payload, nil
}

// StreamPacket is the generic envelope for every command, state and result
// exchanged over a GATT characteristic, independent of encryption.
type StreamPacket struct {
	Type    uint8
	Opcode  Opcode
	Payload []byte
}

// Encode serializes the stream packet.
func (p *StreamPacket) Encode() ([]byte, error) {
	return Encode(&StreamHeader{Type: p.Type, Opcode: p.Opcode}, p.Payload)
}

// DecodeStreamPacket parses a stream packet.
func DecodeStreamPacket(data []byte) (*StreamPacket, error) {
	var h StreamHeader
	payload, err := Decode(&h, data)
	if err != nil {
		return nil, err
	}
	return &StreamPacket{Type: h.Type, Opcode: h.Opcode, Payload: payload}, nil
}

// IndexedPacket is a stream packet addressing an indexed slot.
type IndexedPacket struct {
	Type    uint8
	ID      uint8
	Opcode  Opcode
	Payload []byte
}

// Encode serializes the indexed packet.
func (p *IndexedPacket) Encode() ([]byte, error) {
	return Encode(&IndexedHeader{Type: p.Type, ID: p.ID, Opcode: p.Opcode}, p.Payload)
}

// DecodeIndexedPacket parses an indexed packet.
func DecodeIndexedPacket(data []byte) (*IndexedPacket, error) {
	var h IndexedHeader
	payload, err := Decode(&h, data)
	if err != nil {
		return nil, err
	}
	return &IndexedPacket{Type: h.Type, ID: h.ID, Opcode: h.Opcode, Payload: payload}, nil
}

// Result splits a result payload into its result code and the remaining data.
func (p *StreamPacket) Result() (ResultCode, []byte, error) {
	r := NewReader(p.Payload)
	code, err := r.Uint16()
	if err != nil {
		return 0, nil, err
	}
	return ResultCode(code), r.Rest(), nil
}

// NewResultPacket builds a result stream packet for the given type.
func NewResultPacket(typ uint8, code ResultCode, data []byte) *StreamPacket {
	w := NewWriter(ResultCodeSize + len(data))
	w.PutUint16(uint16(code))
	w.PutBytes(data)
	return &StreamPacket{Type: typ, Opcode: OpcodeResult, Payload: w.Bytes()}
}
