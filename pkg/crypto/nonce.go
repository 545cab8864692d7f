package crypto

import (
	"crypto/rand"
	"io"
)

// BuildIV builds the AES-CTR initial counter block for connection traffic:
// packetNonce (3) ++ sessionNonce (5), zero-padded to 16 bytes.
func BuildIV(packetNonce, sessionNonce []byte) ([BlockSize]byte, error) {
	var iv [BlockSize]byte
	if len(packetNonce) != PacketNonceSize || len(sessionNonce) != SessionNonceSize {
		return iv, ErrBadInput
	}
	copy(iv[:PacketNonceSize], packetNonce)
	copy(iv[PacketNonceSize:], sessionNonce)
	return iv, nil
}

// BuildIVFromNonce zero-pads an arbitrary nonce of at most 16 bytes into a
// counter block. Broadcasts use their 8-byte header as the nonce.
func BuildIVFromNonce(nonce []byte) ([BlockSize]byte, error) {
	var iv [BlockSize]byte
	if len(nonce) == 0 || len(nonce) > BlockSize {
		return iv, ErrBadInput
	}
	copy(iv[:], nonce)
	return iv, nil
}

// NewPacketNonce draws a fresh packet nonce from r.
// A nil reader uses crypto/rand.
func NewPacketNonce(r io.Reader) ([]byte, error) {
	if r == nil {
		r = rand.Reader
	}
	nonce := make([]byte, PacketNonceSize)
	if _, err := io.ReadFull(r, nonce); err != nil {
		return nil, err
	}
	return nonce, nil
}
