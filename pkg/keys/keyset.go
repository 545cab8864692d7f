package keys

import (
	"encoding/hex"
	"strings"
)

// KeySize is the size of every key in bytes.
const KeySize = 16

// Key is one 16-byte AES key.
type Key [KeySize]byte

// KeyFromBytes copies b into a Key.
func KeyFromBytes(b []byte) (Key, error) {
	var k Key
	if len(b) != KeySize {
		return k, ErrInvalidKey
	}
	copy(k[:], b)
	return k, nil
}

// ParseKey parses a 32 character hex key. Whitespace around the value is
// ignored.
func ParseKey(s string) (Key, error) {
	b, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return Key{}, ErrInvalidKey
	}
	return KeyFromBytes(b)
}

// String returns the key as lower-case hex.
func (k Key) String() string {
	return hex.EncodeToString(k[:])
}

// Source resolves keys by access level.
type Source interface {
	// Key returns the key for a concrete access level.
	Key(level AccessLevel) (Key, bool)

	// HighestAvailable returns the strongest level this source can serve.
	HighestAvailable() (AccessLevel, Key, bool)
}

// KeySetConfig lists the keys of a sphere. Nil entries mean no access at
// that level.
type KeySetConfig struct {
	Admin        *Key
	Member       *Key
	Guest        *Key
	ServiceData  *Key
	Localization *Key
}

// KeySet is the immutable key material of one sphere.
// The zero value holds no keys.
type KeySet struct {
	admin        Key
	member       Key
	guest        Key
	serviceData  Key
	localization Key
	present      uint8
}

const (
	hasAdmin uint8 = 1 << iota
	hasMember
	hasGuest
	hasServiceData
	hasLocalization
)

// NewKeySet builds a KeySet from config. The keys are copied.
func NewKeySet(config KeySetConfig) KeySet {
	var ks KeySet
	set := func(dst *Key, src *Key, bit uint8) {
		if src != nil {
			*dst = *src
			ks.present |= bit
		}
	}
	set(&ks.admin, config.Admin, hasAdmin)
	set(&ks.member, config.Member, hasMember)
	set(&ks.guest, config.Guest, hasGuest)
	set(&ks.serviceData, config.ServiceData, hasServiceData)
	set(&ks.localization, config.Localization, hasLocalization)
	return ks
}

// Key returns the role key for level. HighestAvailable is resolved here as
// well. Setup, Unknown and EncryptionDisabled never map to a KeySet key.
func (ks KeySet) Key(level AccessLevel) (Key, bool) {
	switch level {
	case AccessAdmin:
		return ks.admin, ks.present&hasAdmin != 0
	case AccessMember:
		return ks.member, ks.present&hasMember != 0
	case AccessGuest:
		return ks.guest, ks.present&hasGuest != 0
	case AccessHighestAvailable:
		_, k, ok := ks.HighestAvailable()
		return k, ok
	}
	return Key{}, false
}

// HighestAvailable returns the strongest role key present:
// admin, then member, then guest.
func (ks KeySet) HighestAvailable() (AccessLevel, Key, bool) {
	for _, level := range []AccessLevel{AccessAdmin, AccessMember, AccessGuest} {
		if k, ok := ks.Key(level); ok {
			return level, k, true
		}
	}
	return AccessUnknown, Key{}, false
}

// ServiceData returns the service data key.
func (ks KeySet) ServiceData() (Key, bool) {
	return ks.serviceData, ks.present&hasServiceData != 0
}

// Localization returns the localization key.
func (ks KeySet) Localization() (Key, bool) {
	return ks.localization, ks.present&hasLocalization != 0
}

// IsEmpty returns true if the set holds no keys at all.
func (ks KeySet) IsEmpty() bool {
	return ks.present == 0
}

// Config returns a copy of the set as a KeySetConfig.
func (ks KeySet) Config() KeySetConfig {
	var c KeySetConfig
	get := func(k Key, bit uint8) *Key {
		if ks.present&bit == 0 {
			return nil
		}
		return &k
	}
	c.Admin = get(ks.admin, hasAdmin)
	c.Member = get(ks.member, hasMember)
	c.Guest = get(ks.guest, hasGuest)
	c.ServiceData = get(ks.serviceData, hasServiceData)
	c.Localization = get(ks.localization, hasLocalization)
	return c
}

// SetupKeySource serves a single ephemeral setup key for every access level.
// Devices in setup mode use one key for everything until they join a sphere.
type SetupKeySource struct {
	SetupKey Key
}

// Key implements Source.
func (s SetupKeySource) Key(AccessLevel) (Key, bool) {
	return s.SetupKey, true
}

// HighestAvailable implements Source.
func (s SetupKeySource) HighestAvailable() (AccessLevel, Key, bool) {
	return AccessSetup, s.SetupKey, true
}

var (
	_ Source = KeySet{}
	_ Source = SetupKeySource{}
)
