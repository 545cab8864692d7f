// Package session implements the per-connection security state of a
// Crownstone GATT connection.
//
// Right after connecting, the client reads the session characteristic. In
// normal mode its 16 bytes are AES-ECB encrypted with the guest key and
// start with a fixed magic value; in setup mode the session nonce is sent in
// the clear. The session nonce feeds every AES-CTR counter block for the
// rest of the connection, and its first four bytes serve as the validation
// key.
//
// A device in setup mode additionally exposes an ephemeral setup key. Once
// installed it overrides the sphere keys for encryption and decryption.
package session

import "fmt"

// State is the security state of a connection.
type State int

const (
	// StateNoSession means no session nonce has been read yet. Every
	// encrypted operation fails with ErrNoSession.
	StateNoSession State = iota

	// StateEstablished means the session nonce and validation key are known.
	StateEstablished
)

// String returns a human-readable name for the state.
func (s State) String() string {
	switch s {
	case StateNoSession:
		return "NoSession"
	case StateEstablished:
		return "Established"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}
