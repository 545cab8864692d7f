package keys

import "errors"

// Key store errors.
var (
	// ErrInvalidKey is returned when key material is not exactly 16 bytes.
	ErrInvalidKey = errors.New("keys: key must be 16 bytes")

	// ErrNoKey is returned when a sphere has no key for the requested use.
	ErrNoKey = errors.New("keys: no key available")

	// ErrSphereNotFound is returned when a sphere is not in the store.
	ErrSphereNotFound = errors.New("keys: sphere not found")

	// ErrMasterTooShort is returned when a derivation secret is shorter than
	// KeySize bytes.
	ErrMasterTooShort = errors.New("keys: master secret too short")

	// ErrUnknownAccessLevel is returned when an access level name is not
	// recognised.
	ErrUnknownAccessLevel = errors.New("keys: unknown access level")
)
