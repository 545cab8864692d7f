package keys

import (
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"
)

// Role names used as derivation labels and configuration keys.
const (
	RoleAdmin        = "admin"
	RoleMember       = "member"
	RoleGuest        = "guest"
	RoleServiceData  = "service_data"
	RoleLocalization = "localization"
)

// Derive provisions a full KeySet for sphereID from a master secret using
// HKDF-SHA256. Each key uses info "crownstone:<sphereID>:<role>" and no salt.
// Intended for development spheres and test fixtures; production keys come
// from the cloud.
func Derive(master []byte, sphereID string) (KeySet, error) {
	if len(master) < KeySize {
		return KeySet{}, ErrMasterTooShort
	}

	derive := func(role string) (*Key, error) {
		b, err := hkdfSHA256(master, nil, []byte("crownstone:"+sphereID+":"+role), KeySize)
		if err != nil {
			return nil, err
		}
		k, err := KeyFromBytes(b)
		if err != nil {
			return nil, err
		}
		return &k, nil
	}

	var c KeySetConfig
	targets := []struct {
		role string
		dst  **Key
	}{
		{RoleAdmin, &c.Admin},
		{RoleMember, &c.Member},
		{RoleGuest, &c.Guest},
		{RoleServiceData, &c.ServiceData},
		{RoleLocalization, &c.Localization},
	}
	for _, t := range targets {
		k, err := derive(t.role)
		if err != nil {
			return KeySet{}, err
		}
		*t.dst = k
	}
	return NewKeySet(c), nil
}

// hkdfSHA256 derives length bytes of key material (RFC 5869).
func hkdfSHA256(inputKey, salt, info []byte, length int) ([]byte, error) {
	reader := hkdf.New(sha256.New, inputKey, salt, info)
	result := make([]byte, length)
	if _, err := io.ReadFull(reader, result); err != nil {
		return nil, err
	}
	return result, nil
}
