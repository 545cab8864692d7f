package connection

import (
	"context"
	"sync"

	"github.com/backkem/crownstone/pkg/ble"
	"github.com/backkem/crownstone/pkg/crypto"
	"github.com/backkem/crownstone/pkg/keys"
	"github.com/backkem/crownstone/pkg/multipart"
	"github.com/backkem/crownstone/pkg/packet"
	"github.com/backkem/crownstone/pkg/session"
	"github.com/google/uuid"
)

// =============================================================================
// Exported Test Infrastructure for E2E Testing
// =============================================================================

// TestPeerConfig configures an emulated Crownstone.
type TestPeerConfig struct {
	// Keys are the sphere keys the device was set up with.
	Keys keys.KeySet

	// Mode selects which characteristic set is served.
	Mode Mode

	// SessionNonce is served on the session characteristic.
	SessionNonce [crypto.SessionNonceSize]byte

	// SetupKey is served in ModeSetup.
	SetupKey keys.Key

	// Plaintext disables encryption of control writes and results.
	Plaintext bool

	// ChunkSize of result notifications. Default: multipart.DefaultChunkSize.
	ChunkSize int

	// Handler answers a control packet. A nil return sends no result.
	// Default: a success result echoing the request payload.
	Handler func(req *packet.StreamPacket) *packet.StreamPacket

	// Pipe configures the notification channel.
	Pipe ble.PipeConfig
}

// TestPeer is an in-process Crownstone implementing ble.Peripheral. It
// serves the session characteristic, decrypts control writes and answers
// with chunked, encrypted result notifications.
//
// Usage:
//
//	peer := connection.NewTestPeer(connection.TestPeerConfig{Keys: ks})
//	defer peer.Close()
//	conn, _ := connection.New(connection.Config{Peripheral: peer, Keys: ks})
//	conn.Connect(ctx)
type TestPeer struct {
	config TestPeerConfig
	uuids  UUIDs
	pipe   *ble.NotificationPipe

	mu           sync.Mutex
	requests     []*packet.StreamPacket
	writes       [][]byte
	disconnected bool
}

// NewTestPeer creates an emulated Crownstone.
func NewTestPeer(config TestPeerConfig) *TestPeer {
	if config.ChunkSize == 0 {
		config.ChunkSize = multipart.DefaultChunkSize
	}
	if config.Handler == nil {
		config.Handler = func(req *packet.StreamPacket) *packet.StreamPacket {
			return packet.NewResultPacket(req.Type, packet.ResultSuccess, req.Payload)
		}
	}
	return &TestPeer{
		config: config,
		uuids:  DefaultUUIDs(config.Mode),
		pipe:   ble.NewNotificationPipe(config.Pipe),
	}
}

// Pipe returns the notification channel, for loss injection.
func (p *TestPeer) Pipe() *ble.NotificationPipe {
	return p.pipe
}

// Requests returns the decoded control packets received so far.
func (p *TestPeer) Requests() []*packet.StreamPacket {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*packet.StreamPacket, len(p.requests))
	copy(out, p.requests)
	return out
}

// Writes returns the raw control writes received so far.
func (p *TestPeer) Writes() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([][]byte, len(p.writes))
	copy(out, p.writes)
	return out
}

// Disconnected reports whether the central disconnected.
func (p *TestPeer) Disconnected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.disconnected
}

// Close releases the notification pipe.
func (p *TestPeer) Close() error {
	return p.pipe.Close()
}

func (p *TestPeer) checkService(service uuid.UUID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.disconnected {
		return ble.ErrDisconnected
	}
	if service != p.uuids.Service {
		return ble.ErrCharacteristicNotFound
	}
	return nil
}

func (p *TestPeer) source() crypto.KeySource {
	if p.config.Mode == ModeSetup {
		return keys.SetupKeySource{SetupKey: p.config.SetupKey}
	}
	return p.config.Keys
}

// ReadCharacteristic implements ble.Peripheral.
func (p *TestPeer) ReadCharacteristic(ctx context.Context, service, char uuid.UUID) ([]byte, error) {
	if err := p.checkService(service); err != nil {
		return nil, err
	}
	switch {
	case char == p.uuids.Session:
		if p.config.Mode == ModeSetup {
			return session.BuildSessionBlock(p.config.SessionNonce[:], nil)
		}
		guest, ok := p.config.Keys.Key(keys.AccessGuest)
		if !ok {
			return nil, crypto.ErrNoKey
		}
		return session.BuildSessionBlock(p.config.SessionNonce[:], guest[:])
	case char == p.uuids.SetupKey && p.config.Mode == ModeSetup:
		out := make([]byte, keys.KeySize)
		copy(out, p.config.SetupKey[:])
		return out, nil
	default:
		return nil, ble.ErrCharacteristicNotFound
	}
}

// WriteCharacteristic implements ble.Peripheral. Control writes that fail
// to decrypt or decode are dropped, as on a real device.
func (p *TestPeer) WriteCharacteristic(ctx context.Context, service, char uuid.UUID, data []byte) error {
	if err := p.checkService(service); err != nil {
		return err
	}
	if char != p.uuids.Control {
		return ble.ErrCharacteristicNotFound
	}

	raw := make([]byte, len(data))
	copy(raw, data)
	p.mu.Lock()
	p.writes = append(p.writes, raw)
	p.mu.Unlock()

	nonce := p.config.SessionNonce[:]
	vkey := nonce[:crypto.ValidationKeySize]

	plain := raw
	level := keys.AccessEncryptionDisabled
	if !p.config.Plaintext {
		var err error
		level, err = crypto.EnvelopeAccessLevel(raw)
		if err != nil {
			return nil
		}
		plain, err = crypto.DecryptCTR(raw, nonce, vkey, p.source())
		if err != nil {
			return nil
		}
	}
	req, err := packet.DecodeStreamPacket(plain)
	if err != nil {
		return nil
	}
	p.mu.Lock()
	p.requests = append(p.requests, req)
	p.mu.Unlock()

	res := p.config.Handler(req)
	if res == nil {
		return nil
	}
	out, err := res.Encode()
	if err != nil {
		return err
	}
	if !p.config.Plaintext {
		key, ok := p.source().Key(level)
		if !ok {
			return nil
		}
		out, err = crypto.EncryptCTR(out, nonce, vkey, key[:], level)
		if err != nil {
			return err
		}
	}
	chunks, err := multipart.Split(out, p.config.ChunkSize)
	if err != nil {
		return err
	}
	for _, chunk := range chunks {
		if err := p.pipe.Notify(chunk); err != nil {
			return err
		}
	}
	return nil
}

// Subscribe implements ble.Peripheral. Only the result characteristic
// notifies.
func (p *TestPeer) Subscribe(ctx context.Context, service, char uuid.UUID, onNotify func([]byte)) (func() error, error) {
	if err := p.checkService(service); err != nil {
		return nil, err
	}
	if char != p.uuids.Result {
		return nil, ble.ErrCharacteristicNotFound
	}
	p.pipe.SetHandler(onNotify)
	return func() error {
		p.pipe.SetHandler(nil)
		return nil
	}, nil
}

// Disconnect implements ble.Peripheral.
func (p *TestPeer) Disconnect() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.disconnected = true
	return nil
}

var _ ble.Peripheral = (*TestPeer)(nil)
