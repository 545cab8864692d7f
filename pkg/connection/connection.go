package connection

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/backkem/crownstone/pkg/ble"
	"github.com/backkem/crownstone/pkg/keys"
	"github.com/backkem/crownstone/pkg/multipart"
	"github.com/backkem/crownstone/pkg/packet"
	"github.com/backkem/crownstone/pkg/session"
	"github.com/pion/logging"
)

// Config configures a Connection.
type Config struct {
	// Peripheral is the connected device. Required.
	Peripheral ble.Peripheral

	// Keys serves the sphere keys. May be nil in ModeSetup.
	Keys keys.Source

	// Mode selects the handshake. Default: ModeNormal.
	Mode Mode

	// UUIDs overrides the characteristic set. Default: DefaultUUIDs(Mode).
	UUIDs *UUIDs

	// Rand is the packet nonce source. Default: crypto/rand.
	Rand io.Reader

	// LoggerFactory for creating loggers. Nil disables logging.
	LoggerFactory logging.LoggerFactory
}

// Connection is the encrypted control channel to one Crownstone.
//
// Thread Safety: Requests are serialized; all methods are safe for
// concurrent use.
type Connection struct {
	peripheral ble.Peripheral
	mode       Mode
	uuids      UUIDs
	session    *session.Session
	log        logging.LeveledLogger

	// reqMu serializes Request since the result characteristic carries one
	// reassembly stream.
	reqMu sync.Mutex
}

// New creates a connection. The handshake runs in Connect.
func New(config Config) (*Connection, error) {
	if config.Peripheral == nil {
		return nil, ErrNoPeripheral
	}
	if !config.Mode.IsValid() {
		return nil, ErrInvalidMode
	}
	uuids := DefaultUUIDs(config.Mode)
	if config.UUIDs != nil {
		uuids = *config.UUIDs
	}

	c := &Connection{
		peripheral: config.Peripheral,
		mode:       config.Mode,
		uuids:      uuids,
		session: session.New(session.Config{
			Keys:          config.Keys,
			Rand:          config.Rand,
			LoggerFactory: config.LoggerFactory,
		}),
	}
	if config.LoggerFactory != nil {
		c.log = config.LoggerFactory.NewLogger("connection")
	}
	return c, nil
}

// Session returns the session state machine of this connection.
func (c *Connection) Session() *session.Session {
	return c.session
}

// Mode returns the handshake mode.
func (c *Connection) Mode() Mode {
	return c.mode
}

// Connect performs the session handshake. In ModeSetup the setup key is
// read after the session nonce and installed in the session.
func (c *Connection) Connect(ctx context.Context) error {
	raw, err := c.peripheral.ReadCharacteristic(ctx, c.uuids.Service, c.uuids.Session)
	if err != nil {
		return fmt.Errorf("connection: read session data: %w", err)
	}
	if err := c.session.Establish(raw, c.mode == ModeNormal); err != nil {
		return fmt.Errorf("connection: handshake: %w", err)
	}

	if c.mode == ModeSetup {
		raw, err := c.peripheral.ReadCharacteristic(ctx, c.uuids.Service, c.uuids.SetupKey)
		if err != nil {
			c.session.Clear()
			return fmt.Errorf("connection: read setup key: %w", err)
		}
		if err := c.session.SetSetupKey(raw); err != nil {
			c.session.Clear()
			return fmt.Errorf("connection: %w", err)
		}
	}

	if c.log != nil {
		c.log.Infof("connected in %s mode", c.mode)
	}
	return nil
}

func (c *Connection) seal(pkt *packet.StreamPacket, level keys.AccessLevel) ([]byte, error) {
	if c.session.State() != session.StateEstablished && level != keys.AccessEncryptionDisabled {
		return nil, ErrNotConnected
	}
	plain, err := pkt.Encode()
	if err != nil {
		return nil, fmt.Errorf("connection: encode: %w", err)
	}
	env, err := c.session.Encrypt(plain, level)
	if err != nil {
		return nil, fmt.Errorf("connection: encrypt: %w", err)
	}
	return env, nil
}

// Write sends pkt to the control characteristic encrypted at level.
func (c *Connection) Write(ctx context.Context, pkt *packet.StreamPacket, level keys.AccessLevel) error {
	env, err := c.seal(pkt, level)
	if err != nil {
		return err
	}
	if err := c.peripheral.WriteCharacteristic(ctx, c.uuids.Service, c.uuids.Control, env); err != nil {
		return fmt.Errorf("connection: write control: %w", err)
	}
	if c.log != nil {
		c.log.Debugf("wrote type %d %s (%d bytes)", pkt.Type, pkt.Opcode, len(env))
	}
	return nil
}

// open turns a reassembled result message into a stream packet. Results
// of a request sent with EncryptionDisabled arrive in plaintext.
func (c *Connection) open(msg []byte, level keys.AccessLevel) (*packet.StreamPacket, error) {
	plain := msg
	if level != keys.AccessEncryptionDisabled {
		var err error
		plain, err = c.session.Decrypt(msg)
		if err != nil {
			return nil, fmt.Errorf("connection: decrypt result: %w", err)
		}
	}
	pkt, err := packet.DecodeStreamPacket(plain)
	if err != nil {
		return nil, fmt.Errorf("connection: decode result: %w", err)
	}
	return pkt, nil
}

// Request writes pkt and waits for the result packet of the same type.
// Results of other types and messages that fail to decrypt or decode, as
// left behind by a lost notification, are skipped. The wait is bounded by
// ctx.
func (c *Connection) Request(ctx context.Context, pkt *packet.StreamPacket, level keys.AccessLevel) (*packet.StreamPacket, error) {
	c.reqMu.Lock()
	defer c.reqMu.Unlock()

	env, err := c.seal(pkt, level)
	if err != nil {
		return nil, err
	}

	messages := make(chan []byte, 4)
	reassembler := multipart.New(multipart.Config{
		OnMessage: func(msg []byte) {
			select {
			case messages <- msg:
			default:
			}
		},
	})

	unsubscribe, err := c.peripheral.Subscribe(ctx, c.uuids.Service, c.uuids.Result, reassembler.OnData)
	if err != nil {
		return nil, fmt.Errorf("connection: subscribe result: %w", err)
	}
	defer func() {
		if err := unsubscribe(); err != nil && c.log != nil {
			c.log.Warnf("unsubscribe result: %v", err)
		}
	}()

	if err := c.peripheral.WriteCharacteristic(ctx, c.uuids.Service, c.uuids.Control, env); err != nil {
		return nil, fmt.Errorf("connection: write control: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("connection: waiting for result: %w", ctx.Err())
		case msg := <-messages:
			res, err := c.open(msg, level)
			if err != nil {
				if c.log != nil {
					c.log.Warnf("dropping result message: %v", err)
				}
				continue
			}
			if res.Opcode != packet.OpcodeResult || res.Type != pkt.Type {
				if c.log != nil {
					c.log.Debugf("skipping %s for type %d", res.Opcode, res.Type)
				}
				continue
			}
			return res, nil
		}
	}
}

// Disconnect clears the session and closes the link.
func (c *Connection) Disconnect() error {
	c.session.Clear()
	if c.log != nil {
		c.log.Infof("disconnected")
	}
	return c.peripheral.Disconnect()
}
