package broadcast

import "errors"

// Broadcast errors.
var (
	// ErrNoKey is returned when the sphere has no role key or no
	// localization key.
	ErrNoKey = errors.New("broadcast: no key for sphere")

	// ErrUnknownSphere is returned when the sphere is not in the key store.
	ErrUnknownSphere = errors.New("broadcast: unknown sphere")

	// ErrPayloadTooLarge is returned when a command payload exceeds
	// MaxPayloadSize bytes.
	ErrPayloadTooLarge = errors.New("broadcast: payload exceeds 11 bytes")

	// ErrFieldRange is returned when a header or background field does not
	// fit its bit width.
	ErrFieldRange = errors.New("broadcast: field out of range")

	// ErrBadSequence is returned when decoding header words whose sequence
	// tags are not 0, 1, 2, 3.
	ErrBadSequence = errors.New("broadcast: bad header sequence")

	// ErrBleNotReady fails every queued item when BLE becomes unavailable,
	// and items added while it is unavailable.
	ErrBleNotReady = errors.New("broadcast: bluetooth not ready")

	// ErrSuperseded completes an item replaced by a newer item for the same
	// sphere, kind and target.
	ErrSuperseded = errors.New("broadcast: superseded by newer command")

	// ErrInvalidCommand is returned for a command with an unknown kind.
	ErrInvalidCommand = errors.New("broadcast: invalid command")
)
