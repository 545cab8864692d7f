package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/subtle"
	"io"

	"github.com/backkem/crownstone/pkg/keys"
)

// KeySource selects the key for the access level byte of an envelope.
// keys.KeySet and keys.SetupKeySource implement it.
type KeySource interface {
	Key(level keys.AccessLevel) (keys.Key, bool)
}

// AESCTR is an AES-128-CTR cipher bound to one key.
type AESCTR struct {
	block cipher.Block
}

// NewAESCTR creates a cipher. The key must be exactly 16 bytes.
func NewAESCTR(key []byte) (*AESCTR, error) {
	if len(key) != KeySize {
		return nil, ErrBadInput
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return &AESCTR{block: block}, nil
}

// XOR applies the key stream starting at iv to src. Encryption and
// decryption are the same operation.
func (c *AESCTR) XOR(iv [BlockSize]byte, src []byte) []byte {
	dst := make([]byte, len(src))
	if len(src) == 0 {
		return dst
	}
	stream := cipher.NewCTR(c.block, iv[:])
	stream.XORKeyStream(dst, src)
	return dst
}

// AESCTRXOR is a convenience for a single CTR operation with key and iv.
func AESCTRXOR(key []byte, iv [BlockSize]byte, src []byte) ([]byte, error) {
	c, err := NewAESCTR(key)
	if err != nil {
		return nil, err
	}
	return c.XOR(iv, src), nil
}

// EncryptCTR encrypts payload into an envelope using a fresh random packet
// nonce from crypto/rand.
//
// With level EncryptionDisabled the payload is returned unchanged and key,
// sessionNonce and validationKey are ignored.
func EncryptCTR(payload, sessionNonce, validationKey, key []byte, level keys.AccessLevel) ([]byte, error) {
	return EncryptCTRFrom(nil, payload, sessionNonce, validationKey, key, level)
}

// EncryptCTRFrom is EncryptCTR drawing the packet nonce from r.
func EncryptCTRFrom(r io.Reader, payload, sessionNonce, validationKey, key []byte, level keys.AccessLevel) ([]byte, error) {
	if level == keys.AccessEncryptionDisabled {
		return passthrough(payload)
	}
	if err := checkEncryptInput(payload, sessionNonce, validationKey, key); err != nil {
		return nil, err
	}
	nonce, err := NewPacketNonce(r)
	if err != nil {
		return nil, err
	}
	return EncryptCTRWithNonce(nonce, payload, sessionNonce, validationKey, key, level)
}

// EncryptCTRWithNonce encrypts payload with a caller-chosen packet nonce.
// Reusing a packet nonce within a session leaks plaintext; only peripherals
// emulating a device and tests should call this directly.
func EncryptCTRWithNonce(packetNonce, payload, sessionNonce, validationKey, key []byte, level keys.AccessLevel) ([]byte, error) {
	if level == keys.AccessEncryptionDisabled {
		return passthrough(payload)
	}
	if err := checkEncryptInput(payload, sessionNonce, validationKey, key); err != nil {
		return nil, err
	}
	iv, err := BuildIV(packetNonce, sessionNonce)
	if err != nil {
		return nil, err
	}
	c, err := NewAESCTR(key)
	if err != nil {
		return nil, err
	}

	plaintext := make([]byte, paddedLen(ValidationKeySize+len(payload)))
	copy(plaintext, validationKey)
	copy(plaintext[ValidationKeySize:], payload)

	out := make([]byte, 0, EnvelopeHeaderSize+len(plaintext))
	out = append(out, packetNonce...)
	out = append(out, level.Byte())
	out = append(out, c.XOR(iv, plaintext)...)
	return out, nil
}

// DecryptCTR opens an envelope. The key is selected by the envelope's access
// level byte. The returned payload keeps the zero padding of the last block;
// stream packets carry their own length.
func DecryptCTR(envelope, sessionNonce, validationKey []byte, source KeySource) ([]byte, error) {
	if len(envelope) < MinEnvelopeSize || (len(envelope)-EnvelopeHeaderSize)%BlockSize != 0 {
		return nil, ErrBadInput
	}
	if len(validationKey) != ValidationKeySize {
		return nil, ErrBadInput
	}
	iv, err := BuildIV(envelope[:PacketNonceSize], sessionNonce)
	if err != nil {
		return nil, err
	}

	level := keys.AccessLevel(envelope[PacketNonceSize])
	if source == nil {
		return nil, ErrNoKey
	}
	key, ok := source.Key(level)
	if !ok {
		return nil, ErrNoKey
	}
	c, err := NewAESCTR(key[:])
	if err != nil {
		return nil, err
	}

	plaintext := c.XOR(iv, envelope[EnvelopeHeaderSize:])
	if subtle.ConstantTimeCompare(plaintext[:ValidationKeySize], validationKey) != 1 {
		return nil, ErrValidationMismatch
	}
	return plaintext[ValidationKeySize:], nil
}

// EnvelopeAccessLevel returns the access level byte of an envelope.
func EnvelopeAccessLevel(envelope []byte) (keys.AccessLevel, error) {
	if len(envelope) < EnvelopeHeaderSize {
		return keys.AccessUnknown, ErrBadInput
	}
	return keys.AccessLevel(envelope[PacketNonceSize]), nil
}

func checkEncryptInput(payload, sessionNonce, validationKey, key []byte) error {
	if len(payload) == 0 ||
		len(sessionNonce) != SessionNonceSize ||
		len(validationKey) != ValidationKeySize ||
		len(key) != KeySize {
		return ErrBadInput
	}
	return nil
}

func passthrough(payload []byte) ([]byte, error) {
	if len(payload) == 0 {
		return nil, ErrBadInput
	}
	out := make([]byte, len(payload))
	copy(out, payload)
	return out, nil
}

func paddedLen(n int) int {
	if r := n % BlockSize; r != 0 {
		n += BlockSize - r
	}
	return n
}
