package packet

import "encoding/binary"

// Reader decodes little-endian fields from a byte buffer.
// Every accessor fails with ErrTruncated instead of panicking when the buffer
// runs out.
type Reader struct {
	data []byte
	off  int
}

// NewReader creates a reader positioned at the start of data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// Offset returns the number of bytes consumed so far.
func (r *Reader) Offset() int {
	return r.off
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.off
}

// Uint8 reads one byte.
func (r *Reader) Uint8() (uint8, error) {
	if r.Remaining() < 1 {
		return 0, ErrTruncated
	}
	v := r.data[r.off]
	r.off++
	return v, nil
}

// Uint16 reads a little-endian 16-bit value.
func (r *Reader) Uint16() (uint16, error) {
	if r.Remaining() < 2 {
		return 0, ErrTruncated
	}
	v := binary.LittleEndian.Uint16(r.data[r.off:])
	r.off += 2
	return v, nil
}

// Uint32 reads a little-endian 32-bit value.
func (r *Reader) Uint32() (uint32, error) {
	if r.Remaining() < 4 {
		return 0, ErrTruncated
	}
	v := binary.LittleEndian.Uint32(r.data[r.off:])
	r.off += 4
	return v, nil
}

// Bytes reads a fixed-length field of n bytes and returns a copy.
func (r *Reader) Bytes(n int) ([]byte, error) {
	if n < 0 || r.Remaining() < n {
		return nil, ErrTruncated
	}
	out := make([]byte, n)
	copy(out, r.data[r.off:r.off+n])
	r.off += n
	return out, nil
}

// LengthPrefixed reads a variable-length field preceded by a one byte length.
func (r *Reader) LengthPrefixed() ([]byte, error) {
	n, err := r.Uint8()
	if err != nil {
		return nil, err
	}
	return r.Bytes(int(n))
}

// Rest returns a copy of all unread bytes and consumes them.
func (r *Reader) Rest() []byte {
	out, _ := r.Bytes(r.Remaining())
	return out
}

// Writer encodes little-endian fields into a growing buffer.
type Writer struct {
	buf []byte
}

// NewWriter creates a writer with the given initial capacity.
func NewWriter(capacity int) *Writer {
	return &Writer{buf: make([]byte, 0, capacity)}
}

// Len returns the number of bytes written.
func (w *Writer) Len() int {
	return len(w.buf)
}

// Bytes returns the written bytes. The slice aliases the writer's buffer.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// PutUint8 appends one byte.
func (w *Writer) PutUint8(v uint8) {
	w.buf = append(w.buf, v)
}

// PutUint16 appends a little-endian 16-bit value.
func (w *Writer) PutUint16(v uint16) {
	w.buf = binary.LittleEndian.AppendUint16(w.buf, v)
}

// PutUint32 appends a little-endian 32-bit value.
func (w *Writer) PutUint32(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

// PutBytes appends b as-is.
func (w *Writer) PutBytes(b []byte) {
	w.buf = append(w.buf, b...)
}

// PutFixed appends b zero-padded to exactly width bytes.
// Returns ErrFieldTooLong if b is wider than the field.
func (w *Writer) PutFixed(b []byte, width int) error {
	if len(b) > width {
		return ErrFieldTooLong
	}
	w.buf = append(w.buf, b...)
	for i := len(b); i < width; i++ {
		w.buf = append(w.buf, 0)
	}
	return nil
}

// PutLengthPrefixed appends a one byte length followed by b.
func (w *Writer) PutLengthPrefixed(b []byte) error {
	if len(b) > 0xFF {
		return ErrFieldTooLong
	}
	w.PutUint8(uint8(len(b)))
	w.PutBytes(b)
	return nil
}
