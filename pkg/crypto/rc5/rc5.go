// Package rc5 implements RC5-16/12/16: RC5 over 16-bit words with 12 rounds
// and a 16-byte key.
//
// A block is two 16-bit words (one 32-bit value). No padding or chaining mode
// is provided; callers encrypt exactly one block at a time.
package rc5

import "encoding/binary"

const (
	// Rounds is the number of RC5 rounds.
	Rounds = 12

	// KeySize is the key length in bytes.
	KeySize = 16

	// SubkeyCount is the number of 16-bit subkeys, 2*(Rounds+1).
	SubkeyCount = 2 * (Rounds + 1)

	// Magic constants for 16-bit words.
	p16 = 0xB7E1
	q16 = 0x9E37

	keyWords = KeySize / 2
)

// ExpandedKey is the subkey table derived from a key. It is a pure function
// of the key and may be cached and shared.
type ExpandedKey [SubkeyCount]uint16

func rotl(x, n uint16) uint16 {
	n &= 15
	return (x << n) | (x >> (16 - n))
}

func rotr(x, n uint16) uint16 {
	n &= 15
	return (x >> n) | (x << (16 - n))
}

// ExpandKey runs the RC5 key schedule for a 16-byte key.
func ExpandKey(key [KeySize]byte) *ExpandedKey {
	var l [keyWords]uint16
	for i := range l {
		l[i] = binary.LittleEndian.Uint16(key[2*i:])
	}

	var s ExpandedKey
	s[0] = p16
	for i := 1; i < SubkeyCount; i++ {
		s[i] = s[i-1] + q16
	}

	var a, b uint16
	var i, j int
	for k := 0; k < 3*SubkeyCount; k++ {
		a = rotl(s[i]+a+b, 3)
		s[i] = a
		b = rotl(l[j]+a+b, a+b)
		l[j] = b
		i = (i + 1) % SubkeyCount
		j = (j + 1) % keyWords
	}
	return &s
}

// EncryptBlock encrypts one two-word block.
func (s *ExpandedKey) EncryptBlock(block [2]uint16) [2]uint16 {
	a := block[0] + s[0]
	b := block[1] + s[1]
	for r := 1; r <= Rounds; r++ {
		a = rotl(a^b, b) + s[2*r]
		b = rotl(b^a, a) + s[2*r+1]
	}
	return [2]uint16{a, b}
}

// DecryptBlock decrypts one two-word block.
func (s *ExpandedKey) DecryptBlock(block [2]uint16) [2]uint16 {
	a, b := block[0], block[1]
	for r := Rounds; r >= 1; r-- {
		b = rotr(b-s[2*r+1], a) ^ a
		a = rotr(a-s[2*r], b) ^ b
	}
	return [2]uint16{a - s[0], b - s[1]}
}

// EncryptUint32 encrypts v as a block whose first word is the low half of v.
func (s *ExpandedKey) EncryptUint32(v uint32) uint32 {
	out := s.EncryptBlock(splitWords(v))
	return joinWords(out)
}

// DecryptUint32 is the inverse of EncryptUint32.
func (s *ExpandedKey) DecryptUint32(v uint32) uint32 {
	out := s.DecryptBlock(splitWords(v))
	return joinWords(out)
}

func splitWords(v uint32) [2]uint16 {
	return [2]uint16{uint16(v), uint16(v >> 16)}
}

func joinWords(w [2]uint16) uint32 {
	return uint32(w[0]) | uint32(w[1])<<16
}
