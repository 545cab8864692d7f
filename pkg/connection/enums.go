// Package connection drives the encrypted GATT exchange with one connected
// Crownstone: the session handshake on connect, encrypted control writes,
// and requests that wait for a multipart, encrypted result notification.
package connection

// Mode selects how the handshake is performed.
type Mode int

const (
	// ModeNormal reads the session characteristic ECB-encrypted with the
	// guest key.
	ModeNormal Mode = iota

	// ModeSetup reads the session nonce in plaintext and then the
	// ephemeral setup key.
	ModeSetup
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeNormal:
		return "Normal"
	case ModeSetup:
		return "Setup"
	default:
		return "Unknown"
	}
}

// IsValid reports whether m is a defined mode.
func (m Mode) IsValid() bool {
	return m == ModeNormal || m == ModeSetup
}
