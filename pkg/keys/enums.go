// Package keys holds the symmetric key material of the spheres a client is a
// member of.
//
// A sphere's KeySet carries up to five 16-byte AES keys. The three role keys
// (admin, member, guest) protect GATT traffic; the service data key protects
// advertised state; the localization key seeds the RC5 cipher used by the
// broadcast background payload. A KeySet never changes after creation.
package keys

import (
	"fmt"
	"strings"
)

// AccessLevel selects which key, if any, protects a packet. The value is
// carried on the wire in the access level byte of every encrypted envelope.
type AccessLevel uint8

const (
	// AccessAdmin uses the admin key.
	AccessAdmin AccessLevel = 0
	// AccessMember uses the member key.
	AccessMember AccessLevel = 1
	// AccessGuest uses the guest key.
	AccessGuest AccessLevel = 2
	// AccessSetup uses the ephemeral setup key of a device in setup mode.
	AccessSetup AccessLevel = 100
	// AccessUnknown marks an unresolved level.
	AccessUnknown AccessLevel = 201
	// AccessHighestAvailable resolves at use time to the strongest role key
	// present (admin, then member, then guest).
	AccessHighestAvailable AccessLevel = 202
	// AccessEncryptionDisabled sends and receives plaintext.
	AccessEncryptionDisabled AccessLevel = 255
)

// String returns a human-readable name for the access level.
func (a AccessLevel) String() string {
	switch a {
	case AccessAdmin:
		return "Admin"
	case AccessMember:
		return "Member"
	case AccessGuest:
		return "Guest"
	case AccessSetup:
		return "Setup"
	case AccessUnknown:
		return "Unknown"
	case AccessHighestAvailable:
		return "HighestAvailable"
	case AccessEncryptionDisabled:
		return "EncryptionDisabled"
	default:
		return fmt.Sprintf("AccessLevel(%d)", uint8(a))
	}
}

// IsValid returns true if the access level is a defined value.
func (a AccessLevel) IsValid() bool {
	switch a {
	case AccessAdmin, AccessMember, AccessGuest, AccessSetup,
		AccessUnknown, AccessHighestAvailable, AccessEncryptionDisabled:
		return true
	}
	return false
}

// IsRole returns true for the three role levels backed by a KeySet key.
func (a AccessLevel) IsRole() bool {
	return a <= AccessGuest
}

// Byte returns the wire encoding of the access level.
func (a AccessLevel) Byte() uint8 {
	return uint8(a)
}

// ParseAccessLevel parses the lower-case names used in configuration files
// and on the command line.
func ParseAccessLevel(s string) (AccessLevel, error) {
	switch strings.ToLower(s) {
	case "admin":
		return AccessAdmin, nil
	case "member":
		return AccessMember, nil
	case "guest":
		return AccessGuest, nil
	case "setup":
		return AccessSetup, nil
	case "highest", "highest_available":
		return AccessHighestAvailable, nil
	case "disabled", "none":
		return AccessEncryptionDisabled, nil
	}
	return AccessUnknown, fmt.Errorf("%w: %q", ErrUnknownAccessLevel, s)
}
