package session

import "errors"

// Session package errors.
var (
	// ErrNoSession is returned when encrypting or decrypting before the
	// session has been established.
	ErrNoSession = errors.New("session: no session established")

	// ErrAlreadyEstablished is returned by Establish on an established
	// session. Clear the session first.
	ErrAlreadyEstablished = errors.New("session: already established")

	// ErrInvalidHandshake is returned when the session characteristic is too
	// short or does not carry the expected magic value.
	ErrInvalidHandshake = errors.New("session: invalid session data")

	// ErrInvalidSetupKey is returned when the setup key is not 16 bytes.
	ErrInvalidSetupKey = errors.New("session: invalid setup key")
)
