package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/backkem/crownstone/pkg/keys"
)

func mustHex(t testing.TB, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad hex %q: %v", s, err)
	}
	return b
}

func keySetWith(level keys.AccessLevel, key []byte) keys.KeySet {
	k, _ := keys.KeyFromBytes(key)
	var c keys.KeySetConfig
	switch level {
	case keys.AccessAdmin:
		c.Admin = &k
	case keys.AccessMember:
		c.Member = &k
	case keys.AccessGuest:
		c.Guest = &k
	}
	return keys.NewKeySet(c)
}

// Vectors cross-checked with openssl enc -aes-128-ctr.
func TestEncryptCTRWithNonceVectors(t *testing.T) {
	tests := []struct {
		name          string
		packetNonce   string
		sessionNonce  string
		validationKey string
		key           string
		payload       string
		level         keys.AccessLevel
		want          string
	}{
		{
			name:          "single block guest",
			packetNonce:   "aabbcc",
			sessionNonce:  "0102030405",
			validationKey: "cafebabe",
			key:           "00000000000000000000000000000000",
			payload:       "1020",
			level:         keys.AccessGuest,
			want:          "aabbcc02" + "2f38b9ba7587aedc8730b2c853790e0f",
		},
		{
			name:          "two blocks admin",
			packetNonce:   "010203",
			sessionNonce:  "0102030405",
			validationKey: "cafebabe",
			key:           "000102030405060708090a0b0c0d0e0f",
			payload:       "0102030405060708090a0b0c0d0e0f101112131415161718191a1b1c",
			level:         keys.AccessAdmin,
			want:          "01020300" + "1ec279eb3c8382b1b456974ce1adcafb8b4c45c2c9c18e4b0490cc49a84dbef9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EncryptCTRWithNonce(
				mustHex(t, tt.packetNonce), mustHex(t, tt.payload),
				mustHex(t, tt.sessionNonce), mustHex(t, tt.validationKey),
				mustHex(t, tt.key), tt.level)
			if err != nil {
				t.Fatalf("EncryptCTRWithNonce() error = %v", err)
			}
			if hex.EncodeToString(got) != tt.want {
				t.Errorf("EncryptCTRWithNonce() = %x, want %s", got, tt.want)
			}

			plain, err := DecryptCTR(got, mustHex(t, tt.sessionNonce), mustHex(t, tt.validationKey),
				keySetWith(tt.level, mustHex(t, tt.key)))
			if err != nil {
				t.Fatalf("DecryptCTR() error = %v", err)
			}
			payload := mustHex(t, tt.payload)
			if !bytes.Equal(plain[:len(payload)], payload) {
				t.Errorf("DecryptCTR() = %x, want prefix %x", plain, payload)
			}
			for _, b := range plain[len(payload):] {
				if b != 0 {
					t.Fatalf("padding not zero: %x", plain)
				}
			}
		})
	}
}

func TestEncryptCTRMatchesStdlib(t *testing.T) {
	key := mustHex(t, "2b7e151628aed2a6abf7158809cf4f3c")
	sessionNonce := mustHex(t, "a1a2a3a4a5")
	vkey := mustHex(t, "01020304")
	packetNonce := mustHex(t, "b1b2b3")
	payload := []byte("hello crownstone")

	got, err := EncryptCTRWithNonce(packetNonce, payload, sessionNonce, vkey, key, keys.AccessMember)
	if err != nil {
		t.Fatalf("EncryptCTRWithNonce() error = %v", err)
	}

	iv := make([]byte, 16)
	copy(iv, packetNonce)
	copy(iv[3:], sessionNonce)
	plain := make([]byte, 32)
	copy(plain, vkey)
	copy(plain[4:], payload)
	block, _ := aes.NewCipher(key)
	want := make([]byte, 32)
	cipher.NewCTR(block, iv).XORKeyStream(want, plain)

	if !bytes.Equal(got[4:], want) {
		t.Errorf("ciphertext = %x, want %x", got[4:], want)
	}
	if got[3] != keys.AccessMember.Byte() {
		t.Errorf("access level byte = %d, want %d", got[3], keys.AccessMember.Byte())
	}
}

func TestCTRRoundtripAllLengths(t *testing.T) {
	key := mustHex(t, "000102030405060708090a0b0c0d0e0f")
	sessionNonce := []byte{1, 2, 3, 4, 5}
	vkey := []byte{0xCA, 0xFE, 0xBA, 0xBE}
	ks := keySetWith(keys.AccessAdmin, key)

	for n := 1; n <= 256; n++ {
		payload := make([]byte, n)
		for i := range payload {
			payload[i] = byte(i*7 + n)
		}

		env, err := EncryptCTR(payload, sessionNonce, vkey, key, keys.AccessAdmin)
		if err != nil {
			t.Fatalf("len %d: EncryptCTR() error = %v", n, err)
		}
		if (len(env)-EnvelopeHeaderSize)%BlockSize != 0 {
			t.Fatalf("len %d: ciphertext not block aligned (%d)", n, len(env))
		}

		plain, err := DecryptCTR(env, sessionNonce, vkey, ks)
		if err != nil {
			t.Fatalf("len %d: DecryptCTR() error = %v", n, err)
		}
		if !bytes.Equal(plain[:n], payload) {
			t.Fatalf("len %d: roundtrip mismatch", n)
		}
	}
}

func TestDecryptCTRValidationMismatch(t *testing.T) {
	key := make([]byte, 16)
	sessionNonce := []byte{1, 2, 3, 4, 5}
	vkey := []byte{0xCA, 0xFE, 0xBA, 0xBE}
	ks := keySetWith(keys.AccessGuest, key)

	env, err := EncryptCTR([]byte{0x10, 0x20}, sessionNonce, vkey, key, keys.AccessGuest)
	if err != nil {
		t.Fatalf("EncryptCTR() error = %v", err)
	}

	for i := 0; i < ValidationKeySize; i++ {
		bad := append([]byte(nil), vkey...)
		bad[i] ^= 0x01
		if _, err := DecryptCTR(env, sessionNonce, bad, ks); !errors.Is(err, ErrValidationMismatch) {
			t.Errorf("byte %d altered: error = %v, want ErrValidationMismatch", i, err)
		}
	}
}

func TestGuestScenario(t *testing.T) {
	sessionNonce := []byte{1, 2, 3, 4, 5}
	vkey := []byte{0xCA, 0xFE, 0xBA, 0xBE}
	key := make([]byte, 16)
	payload := []byte{0x10, 0x20}

	env, err := EncryptCTR(payload, sessionNonce, vkey, key, keys.AccessGuest)
	if err != nil {
		t.Fatalf("EncryptCTR() error = %v", err)
	}

	plain, err := DecryptCTR(env, sessionNonce, vkey, keySetWith(keys.AccessGuest, key))
	if err != nil {
		t.Fatalf("DecryptCTR() error = %v", err)
	}
	if !bytes.Equal(plain[:2], payload) {
		t.Errorf("DecryptCTR() = %x, want 1020...", plain)
	}

	if _, err := DecryptCTR(env, sessionNonce, vkey, keys.KeySet{}); !errors.Is(err, ErrNoKey) {
		t.Errorf("DecryptCTR(empty set) error = %v, want ErrNoKey", err)
	}
}

func TestSetupKeySourceDecrypt(t *testing.T) {
	setup := mustHex(t, "f0e1d2c3b4a5968778695a4b3c2d1e0f")
	sessionNonce := []byte{9, 8, 7, 6, 5}
	vkey := []byte{1, 1, 2, 3}

	env, err := EncryptCTR([]byte{0x42}, sessionNonce, vkey, setup, keys.AccessSetup)
	if err != nil {
		t.Fatalf("EncryptCTR() error = %v", err)
	}
	k, _ := keys.KeyFromBytes(setup)
	if _, err := DecryptCTR(env, sessionNonce, vkey, keys.SetupKeySource{SetupKey: k}); err != nil {
		t.Errorf("DecryptCTR(setup source) error = %v", err)
	}
	if _, err := DecryptCTR(env, sessionNonce, vkey, keySetWith(keys.AccessAdmin, setup)); !errors.Is(err, ErrNoKey) {
		t.Errorf("DecryptCTR(sphere set) error = %v, want ErrNoKey", err)
	}
}

func TestEncryptCTRBadInput(t *testing.T) {
	key := make([]byte, 16)
	nonce := []byte{1, 2, 3, 4, 5}
	vkey := []byte{1, 2, 3, 4}

	tests := []struct {
		name    string
		payload []byte
		nonce   []byte
		vkey    []byte
		key     []byte
	}{
		{"empty payload", nil, nonce, vkey, key},
		{"short session nonce", []byte{1}, nonce[:4], vkey, key},
		{"long validation key", []byte{1}, nonce, append(vkey, 5), key},
		{"short key", []byte{1}, nonce, vkey, key[:15]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EncryptCTR(tt.payload, tt.nonce, tt.vkey, tt.key, keys.AccessAdmin)
			if !errors.Is(err, ErrBadInput) {
				t.Errorf("EncryptCTR() error = %v, want ErrBadInput", err)
			}
		})
	}
}

func TestDecryptCTRBadInput(t *testing.T) {
	nonce := []byte{1, 2, 3, 4, 5}
	vkey := []byte{1, 2, 3, 4}
	ks := keySetWith(keys.AccessAdmin, make([]byte, 16))

	for _, n := range []int{0, 4, 19, 21, 35} {
		if _, err := DecryptCTR(make([]byte, n), nonce, vkey, ks); !errors.Is(err, ErrBadInput) {
			t.Errorf("len %d: error = %v, want ErrBadInput", n, err)
		}
	}
	if _, err := DecryptCTR(make([]byte, 20), nonce[:3], vkey, ks); !errors.Is(err, ErrBadInput) {
		t.Errorf("short session nonce: error = %v, want ErrBadInput", err)
	}
}

func TestEncryptionDisabledPassthrough(t *testing.T) {
	payload := []byte{1, 2, 3}
	got, err := EncryptCTR(payload, nil, nil, nil, keys.AccessEncryptionDisabled)
	if err != nil {
		t.Fatalf("EncryptCTR() error = %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("EncryptCTR() = %x, want %x", got, payload)
	}
	got[0] = 0xFF
	if payload[0] != 1 {
		t.Error("passthrough aliases the input")
	}
}

func TestEncryptCTRFreshNonce(t *testing.T) {
	key := make([]byte, 16)
	nonce := []byte{1, 2, 3, 4, 5}
	vkey := []byte{1, 2, 3, 4}

	a, _ := EncryptCTRFrom(bytes.NewReader([]byte{1, 2, 3}), []byte{7}, nonce, vkey, key, keys.AccessAdmin)
	if !bytes.Equal(a[:3], []byte{1, 2, 3}) {
		t.Errorf("packet nonce = %x, want 010203", a[:3])
	}
	if _, err := EncryptCTRFrom(bytes.NewReader([]byte{1}), []byte{7}, nonce, vkey, key, keys.AccessAdmin); err == nil {
		t.Error("EncryptCTRFrom() with exhausted reader succeeded")
	}
}

func TestBuildIV(t *testing.T) {
	iv, err := BuildIV([]byte{0xAA, 0xBB, 0xCC}, []byte{1, 2, 3, 4, 5})
	if err != nil {
		t.Fatalf("BuildIV() error = %v", err)
	}
	if hex.EncodeToString(iv[:]) != "aabbcc01020304050000000000000000" {
		t.Errorf("BuildIV() = %x", iv)
	}
	if _, err := BuildIV([]byte{1, 2}, []byte{1, 2, 3, 4, 5}); !errors.Is(err, ErrBadInput) {
		t.Errorf("BuildIV(short) error = %v", err)
	}

	iv, err = BuildIVFromNonce([]byte{1, 2, 3, 4, 5, 6, 7, 8})
	if err != nil {
		t.Fatalf("BuildIVFromNonce() error = %v", err)
	}
	if hex.EncodeToString(iv[:]) != "01020304050607080000000000000000" {
		t.Errorf("BuildIVFromNonce() = %x", iv)
	}
	if _, err := BuildIVFromNonce(make([]byte, 17)); !errors.Is(err, ErrBadInput) {
		t.Errorf("BuildIVFromNonce(17) error = %v", err)
	}
}

func BenchmarkEncryptCTR(b *testing.B) {
	key := make([]byte, 16)
	nonce := []byte{1, 2, 3, 4, 5}
	vkey := []byte{1, 2, 3, 4}
	payload := make([]byte, 64)
	for i := 0; i < b.N; i++ {
		_, _ = EncryptCTR(payload, nonce, vkey, key, keys.AccessAdmin)
	}
}
