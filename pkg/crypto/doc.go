// Package crypto implements the block cipher operations of the Crownstone
// connection protocol.
//
// Connection traffic is AES-128-CTR. Every encrypted write carries an
// envelope:
//
//	packetNonce (3) | accessLevel (1) | ciphertext (N*16)
//
// The counter block is packetNonce ++ sessionNonce, zero-padded to 16 bytes.
// The plaintext is validationKey (4) ++ payload, zero-padded to a multiple of
// the block size. The validation key is checked after decryption and is the
// only integrity check; there is no MAC.
//
// AES-ECB is used for the single-block session handshake.
package crypto
