package crypto

import (
	"bytes"
	"encoding/hex"
	"errors"
	"testing"
)

func TestECBVectors(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		plain string
		enc   string
	}{
		// FIPS-197 Appendix C.1
		{"fips-197", "000102030405060708090a0b0c0d0e0f", "00112233445566778899aabbccddeeff", "69c4e0d86a7b0430d8cdb78070b4c55a"},
		{"session block", "0f0e0d0c0b0a09080706050403020100", "bebafeca0102030405000000000000ff", "53b65c50f8b487fafcf57994e4e33673"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EncryptECB(mustHex(t, tt.plain), mustHex(t, tt.key))
			if err != nil {
				t.Fatalf("EncryptECB() error = %v", err)
			}
			if hex.EncodeToString(got) != tt.enc {
				t.Errorf("EncryptECB() = %x, want %s", got, tt.enc)
			}

			back, err := DecryptECB(got, mustHex(t, tt.key))
			if err != nil {
				t.Fatalf("DecryptECB() error = %v", err)
			}
			if hex.EncodeToString(back) != tt.plain {
				t.Errorf("DecryptECB() = %x, want %s", back, tt.plain)
			}
		})
	}
}

func TestECBNoKeyIsIdentity(t *testing.T) {
	block := mustHex(t, "00112233445566778899aabbccddeeff")
	got, err := DecryptECB(block, nil)
	if err != nil {
		t.Fatalf("DecryptECB() error = %v", err)
	}
	if !bytes.Equal(got, block) {
		t.Errorf("DecryptECB(nil key) = %x, want %x", got, block)
	}
}

func TestECBBadInput(t *testing.T) {
	if _, err := DecryptECB(make([]byte, 15), make([]byte, 16)); !errors.Is(err, ErrBadInput) {
		t.Errorf("short block: error = %v", err)
	}
	if _, err := DecryptECB(make([]byte, 16), make([]byte, 8)); !errors.Is(err, ErrBadInput) {
		t.Errorf("short key: error = %v", err)
	}
}
