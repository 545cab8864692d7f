package rc5

import (
	"encoding/hex"
	"testing"
)

func mustKey(t testing.TB, s string) [KeySize]byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != KeySize {
		t.Fatalf("bad key %q", s)
	}
	var k [KeySize]byte
	copy(k[:], b)
	return k
}

func TestExpandKey(t *testing.T) {
	s := ExpandKey(mustKey(t, "000102030405060708090a0b0c0d0e0f"))

	want := map[int]uint16{0: 0x8a07, 1: 0x6e98, 2: 0x585a, 3: 0x8833, 25: 0x2023}
	for i, w := range want {
		if s[i] != w {
			t.Errorf("S[%d] = %#04x, want %#04x", i, s[i], w)
		}
	}
}

// Known answers computed with a reference RC5 implementation that reproduces
// the published RC5-32/12/16 and RC5-16/16/8 vectors, run at w=16 r=12 b=16.
func TestEncryptBlockKnownAnswer(t *testing.T) {
	tests := []struct {
		name string
		key  string
		pt   [2]uint16
		ct   [2]uint16
	}{
		{"zero key zero block", "00000000000000000000000000000000", [2]uint16{0x0000, 0x0000}, [2]uint16{0xb619, 0xbe2a}},
		{"counting key", "000102030405060708090a0b0c0d0e0f", [2]uint16{0x0100, 0x0302}, [2]uint16{0x23d8, 0xa58d}},
		{"counting key mixed block", "000102030405060708090a0b0c0d0e0f", [2]uint16{0x1234, 0xabcd}, [2]uint16{0x7d87, 0x7e04}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := ExpandKey(mustKey(t, tt.key))
			got := s.EncryptBlock(tt.pt)
			if got != tt.ct {
				t.Errorf("EncryptBlock(%04x) = %04x, want %04x", tt.pt, got, tt.ct)
			}
			if back := s.DecryptBlock(got); back != tt.pt {
				t.Errorf("DecryptBlock(%04x) = %04x, want %04x", got, back, tt.pt)
			}
		})
	}
}

func TestRoundtrip(t *testing.T) {
	keys := []string{
		"00000000000000000000000000000000",
		"ffffffffffffffffffffffffffffffff",
		"0123456789abcdef0123456789abcdef",
		"91d546c8e40c6a5e7bd8c42f5bdc18a7",
	}
	values := []uint32{0, 1, 0xFFFF, 0x10000, 0xDEADBEEF, 0xFFFFFFFF, 0x80000001}

	for _, k := range keys {
		s := ExpandKey(mustKey(t, k))
		for _, v := range values {
			enc := s.EncryptUint32(v)
			if dec := s.DecryptUint32(enc); dec != v {
				t.Errorf("key %s: DecryptUint32(EncryptUint32(%#08x)) = %#08x", k, v, dec)
			}
		}
		// Sweep a stride of the 32-bit space.
		for i := uint32(0); i < 4096; i++ {
			v := i * 0x000FEDCB
			if dec := s.DecryptUint32(s.EncryptUint32(v)); dec != v {
				t.Fatalf("key %s: roundtrip failed for %#08x", k, v)
			}
		}
	}
}

func TestUint32WordOrder(t *testing.T) {
	s := ExpandKey(mustKey(t, "000102030405060708090a0b0c0d0e0f"))
	got := s.EncryptUint32(0x03020100)
	if want := uint32(0xa58d23d8); got != want {
		t.Errorf("EncryptUint32(0x03020100) = %#08x, want %#08x", got, want)
	}
}

func BenchmarkExpandKey(b *testing.B) {
	key := mustKey(b, "000102030405060708090a0b0c0d0e0f")
	for i := 0; i < b.N; i++ {
		ExpandKey(key)
	}
}

func BenchmarkEncryptBlock(b *testing.B) {
	s := ExpandKey(mustKey(b, "000102030405060708090a0b0c0d0e0f"))
	block := [2]uint16{0x1234, 0xabcd}
	for i := 0; i < b.N; i++ {
		block = s.EncryptBlock(block)
	}
}
