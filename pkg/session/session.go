package session

import (
	"encoding/binary"
	"io"
	"sync"

	"github.com/backkem/crownstone/pkg/crypto"
	"github.com/backkem/crownstone/pkg/keys"
	"github.com/pion/logging"
)

const (
	// SessionMagic is the little-endian value at the start of a decrypted
	// session block.
	SessionMagic uint32 = 0xCAFEBABE

	magicSize = 4
)

// Data is the key material of an established session.
type Data struct {
	SessionNonce  [crypto.SessionNonceSize]byte
	ValidationKey [crypto.ValidationKeySize]byte
}

// Config configures a Session.
type Config struct {
	// Keys serves the sphere keys used after the handshake. May be nil for
	// a device in setup mode, which only uses the setup key.
	Keys keys.Source

	// Rand is the packet nonce source. Default: crypto/rand.
	Rand io.Reader

	// LoggerFactory for creating loggers. Nil disables logging.
	LoggerFactory logging.LoggerFactory
}

// Session holds the security state of one connection.
//
// Thread Safety: All methods are safe for concurrent use.
type Session struct {
	keys keys.Source
	rand io.Reader
	log  logging.LeveledLogger

	mu       sync.RWMutex
	state    State
	data     Data
	setupKey *keys.Key
}

// New creates a session in StateNoSession.
func New(config Config) *Session {
	s := &Session{
		keys:  config.Keys,
		rand:  config.Rand,
		state: StateNoSession,
	}
	if config.LoggerFactory != nil {
		s.log = config.LoggerFactory.NewLogger("session")
	}
	return s
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Data returns the session key material. ok is false without a session.
func (s *Session) Data() (Data, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data, s.state == StateEstablished
}

// Establish parses the raw value of the session characteristic.
//
// If encrypted is true the value is first ECB-decrypted with the setup key
// when one is installed, otherwise with the guest key, and must start with
// SessionMagic. The session nonce follows the magic. Unencrypted values
// carry the session nonce at offset 0. In both cases the validation key is
// the first four bytes of the session nonce.
func (s *Session) Establish(raw []byte, encrypted bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateEstablished {
		return ErrAlreadyEstablished
	}

	offset := 0
	if encrypted {
		var key []byte
		if s.setupKey != nil {
			key = s.setupKey[:]
		} else if s.keys != nil {
			if k, ok := s.keys.Key(keys.AccessGuest); ok {
				key = k[:]
			}
		}
		if key == nil {
			return crypto.ErrNoKey
		}
		if len(raw) < crypto.BlockSize {
			return ErrInvalidHandshake
		}
		block, err := crypto.DecryptECB(raw[:crypto.BlockSize], key)
		if err != nil {
			return err
		}
		if binary.LittleEndian.Uint32(block) != SessionMagic {
			if s.log != nil {
				s.log.Warnf("session block magic mismatch")
			}
			return ErrInvalidHandshake
		}
		raw = block
		offset = magicSize
	}

	if len(raw) < offset+crypto.SessionNonceSize {
		return ErrInvalidHandshake
	}
	copy(s.data.SessionNonce[:], raw[offset:offset+crypto.SessionNonceSize])
	copy(s.data.ValidationKey[:], raw[offset:offset+crypto.ValidationKeySize])
	s.state = StateEstablished

	if s.log != nil {
		s.log.Infof("session established (encrypted handshake: %v)", encrypted)
	}
	return nil
}

// SetSetupKey installs the ephemeral setup key read from a device in setup
// mode. It may be installed before or after Establish.
func (s *Session) SetSetupKey(raw []byte) error {
	k, err := keys.KeyFromBytes(raw)
	if err != nil {
		return ErrInvalidSetupKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.setupKey = &k

	if s.log != nil {
		s.log.Debugf("setup key installed")
	}
	return nil
}

// HasSetupKey reports whether a setup key is installed.
func (s *Session) HasSetupKey() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.setupKey != nil
}

// Clear returns to StateNoSession and drops the setup key. Called on
// disconnect.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	wasEstablished := s.state == StateEstablished
	s.state = StateNoSession
	s.data = Data{}
	if s.setupKey != nil {
		*s.setupKey = keys.Key{}
		s.setupKey = nil
	}

	if s.log != nil && wasEstablished {
		s.log.Infof("session cleared")
	}
}

// Encrypt wraps payload in an envelope for level. HighestAvailable resolves
// to the strongest sphere key now. With a setup key installed every level
// encrypts with the setup key and the envelope carries AccessSetup.
// EncryptionDisabled returns the payload unchanged, with or without a
// session.
func (s *Session) Encrypt(payload []byte, level keys.AccessLevel) ([]byte, error) {
	if level == keys.AccessEncryptionDisabled {
		return crypto.EncryptCTR(payload, nil, nil, nil, level)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.state != StateEstablished {
		return nil, ErrNoSession
	}

	level, key, err := s.resolveLocked(level)
	if err != nil {
		return nil, err
	}
	if s.log != nil {
		s.log.Tracef("encrypting %d bytes at %s", len(payload), level)
	}
	return crypto.EncryptCTRFrom(s.rand, payload, s.data.SessionNonce[:], s.data.ValidationKey[:], key[:], level)
}

// Decrypt opens an envelope received on this connection.
func (s *Session) Decrypt(envelope []byte) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.state != StateEstablished {
		return nil, ErrNoSession
	}
	return crypto.DecryptCTR(envelope, s.data.SessionNonce[:], s.data.ValidationKey[:], s.sourceLocked())
}

func (s *Session) sourceLocked() crypto.KeySource {
	if s.setupKey != nil {
		return keys.SetupKeySource{SetupKey: *s.setupKey}
	}
	if s.keys == nil {
		return keys.KeySet{}
	}
	return s.keys
}

func (s *Session) resolveLocked(level keys.AccessLevel) (keys.AccessLevel, keys.Key, error) {
	if s.setupKey != nil {
		return keys.AccessSetup, *s.setupKey, nil
	}
	if s.keys == nil {
		return level, keys.Key{}, crypto.ErrNoKey
	}
	if level == keys.AccessHighestAvailable {
		resolved, k, ok := s.keys.HighestAvailable()
		if !ok {
			return level, keys.Key{}, crypto.ErrNoKey
		}
		return resolved, k, nil
	}
	if !level.IsRole() {
		return level, keys.Key{}, crypto.ErrNoKey
	}
	k, ok := s.keys.Key(level)
	if !ok {
		return level, keys.Key{}, crypto.ErrNoKey
	}
	return level, k, nil
}

// BuildSessionBlock builds the value a peripheral serves on its session
// characteristic. With a key the block is magic ++ sessionNonce, zero
// padded and ECB-encrypted. Without a key the bare session nonce is
// returned, as served by a device in setup mode.
func BuildSessionBlock(sessionNonce, key []byte) ([]byte, error) {
	if len(sessionNonce) != crypto.SessionNonceSize {
		return nil, crypto.ErrBadInput
	}
	if len(key) == 0 {
		out := make([]byte, crypto.SessionNonceSize)
		copy(out, sessionNonce)
		return out, nil
	}
	block := make([]byte, crypto.BlockSize)
	binary.LittleEndian.PutUint32(block, SessionMagic)
	copy(block[magicSize:], sessionNonce)
	return crypto.EncryptECB(block, key)
}
