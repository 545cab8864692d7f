package crypto

import "errors"

// Sizes of the envelope fields.
const (
	// BlockSize is the AES block size.
	BlockSize = 16

	// KeySize is the AES-128 key size.
	KeySize = 16

	// SessionNonceSize is the size of the per-connection session nonce.
	SessionNonceSize = 5

	// ValidationKeySize is the size of the validation tag prepended to the
	// plaintext.
	ValidationKeySize = 4

	// PacketNonceSize is the size of the per-write random nonce.
	PacketNonceSize = 3

	// AccessLevelSize is the size of the access level byte.
	AccessLevelSize = 1

	// EnvelopeHeaderSize is packet nonce plus access level.
	EnvelopeHeaderSize = PacketNonceSize + AccessLevelSize

	// MinEnvelopeSize is the smallest valid envelope: header plus one block.
	MinEnvelopeSize = EnvelopeHeaderSize + BlockSize
)

// Crypto errors.
var (
	// ErrBadInput is returned for empty payloads, wrongly sized nonces, keys
	// or validation keys, and malformed envelopes.
	ErrBadInput = errors.New("crypto: bad input")

	// ErrNoKey is returned when the access level of an envelope selects a
	// key that is not available.
	ErrNoKey = errors.New("crypto: no key for access level")

	// ErrValidationMismatch is returned when the decrypted validation key
	// does not match the session's validation key.
	ErrValidationMismatch = errors.New("crypto: validation key mismatch")
)
