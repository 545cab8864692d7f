package crypto

import "crypto/aes"

// DecryptECB decrypts a single 16-byte block. An empty key means the block
// was sent unencrypted and is returned unchanged; devices in setup mode
// bootstrap this way.
func DecryptECB(block, key []byte) ([]byte, error) {
	return ecb(block, key, false)
}

// EncryptECB encrypts a single 16-byte block, the peripheral side of
// DecryptECB. An empty key returns the block unchanged.
func EncryptECB(block, key []byte) ([]byte, error) {
	return ecb(block, key, true)
}

func ecb(block, key []byte, encrypt bool) ([]byte, error) {
	if len(block) != BlockSize {
		return nil, ErrBadInput
	}
	out := make([]byte, BlockSize)
	if len(key) == 0 {
		copy(out, block)
		return out, nil
	}
	if len(key) != KeySize {
		return nil, ErrBadInput
	}
	c, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	if encrypt {
		c.Encrypt(out, block)
	} else {
		c.Decrypt(out, block)
	}
	return out, nil
}
