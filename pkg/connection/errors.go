package connection

import "errors"

var (
	// ErrNoPeripheral is returned when Config.Peripheral is nil.
	ErrNoPeripheral = errors.New("connection: no peripheral")

	// ErrInvalidMode is returned for an undefined Mode.
	ErrInvalidMode = errors.New("connection: invalid mode")

	// ErrNotConnected is returned when the handshake has not completed.
	ErrNotConnected = errors.New("connection: not connected")
)
