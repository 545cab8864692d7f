package ble

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/pion/logging"
	"tinygo.org/x/bluetooth"
)

// TinygoConfig configures the tinygo bluetooth adapters.
type TinygoConfig struct {
	// Adapter is the host adapter. Default: bluetooth.DefaultAdapter.
	Adapter *bluetooth.Adapter

	// LoggerFactory for creating loggers. Nil disables logging.
	LoggerFactory logging.LoggerFactory
}

func (c *TinygoConfig) applyDefaults() {
	if c.Adapter == nil {
		c.Adapter = bluetooth.DefaultAdapter
	}
}

// ToBluetoothUUID converts a uuid.UUID to the tinygo representation.
func ToBluetoothUUID(id uuid.UUID) bluetooth.UUID {
	return bluetooth.NewUUID([16]byte(id))
}

type charKey struct {
	service uuid.UUID
	char    uuid.UUID
}

// TinygoPeripheral implements Peripheral over a tinygo bluetooth device.
// Characteristics are discovered on first use and cached.
type TinygoPeripheral struct {
	device bluetooth.Device
	log    logging.LeveledLogger

	mu     sync.Mutex
	chars  map[charKey]*bluetooth.DeviceCharacteristic
	closed bool
}

// ConnectTinygo enables the adapter and connects to the device at address.
// The adapter's own connect timeout still applies; ctx only bounds how
// long the caller waits.
func ConnectTinygo(ctx context.Context, address string, config TinygoConfig) (*TinygoPeripheral, error) {
	config.applyDefaults()
	if err := config.Adapter.Enable(); err != nil {
		return nil, fmt.Errorf("ble: enable adapter: %w", err)
	}

	var addr bluetooth.Address
	addr.Set(address)

	type connectResult struct {
		device bluetooth.Device
		err    error
	}
	ch := make(chan connectResult, 1)
	go func() {
		device, err := config.Adapter.Connect(addr, bluetooth.ConnectionParams{})
		ch <- connectResult{device, err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("ble: connect to %s: %w", address, ctx.Err())
	case result := <-ch:
		if result.err != nil {
			return nil, fmt.Errorf("ble: connect to %s: %w", address, result.err)
		}
		p := &TinygoPeripheral{
			device: result.device,
			chars:  make(map[charKey]*bluetooth.DeviceCharacteristic),
		}
		if config.LoggerFactory != nil {
			p.log = config.LoggerFactory.NewLogger("ble-tinygo")
			p.log.Infof("connected to %s", address)
		}
		return p, nil
	}
}

func (p *TinygoPeripheral) characteristic(service, char uuid.UUID) (*bluetooth.DeviceCharacteristic, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrDisconnected
	}
	key := charKey{service, char}
	if c, ok := p.chars[key]; ok {
		return c, nil
	}

	svcs, err := p.device.DiscoverServices([]bluetooth.UUID{ToBluetoothUUID(service)})
	if err != nil {
		return nil, fmt.Errorf("ble: discover services: %w", err)
	}
	if len(svcs) == 0 {
		return nil, fmt.Errorf("%w: service %s", ErrCharacteristicNotFound, service)
	}
	chars, err := svcs[0].DiscoverCharacteristics([]bluetooth.UUID{ToBluetoothUUID(char)})
	if err != nil {
		return nil, fmt.Errorf("ble: discover characteristics: %w", err)
	}
	if len(chars) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrCharacteristicNotFound, char)
	}

	c := &chars[0]
	p.chars[key] = c
	if p.log != nil {
		p.log.Debugf("discovered characteristic %s", char)
	}
	return c, nil
}

// runCtx runs fn and returns early when ctx is done. fn keeps running in
// the background since tinygo calls cannot be cancelled.
func runCtx(ctx context.Context, fn func() error) error {
	ch := make(chan error, 1)
	go func() { ch <- fn() }()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-ch:
		return err
	}
}

// ReadCharacteristic implements Peripheral.
func (p *TinygoPeripheral) ReadCharacteristic(ctx context.Context, service, char uuid.UUID) ([]byte, error) {
	c, err := p.characteristic(service, char)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, 512)
	var n int
	err = runCtx(ctx, func() error {
		var rerr error
		n, rerr = c.Read(buf)
		return rerr
	})
	if err != nil {
		return nil, fmt.Errorf("ble: read %s: %w", char, err)
	}
	return buf[:n], nil
}

// WriteCharacteristic implements Peripheral.
func (p *TinygoPeripheral) WriteCharacteristic(ctx context.Context, service, char uuid.UUID, data []byte) error {
	c, err := p.characteristic(service, char)
	if err != nil {
		return err
	}
	err = runCtx(ctx, func() error {
		_, werr := c.WriteWithoutResponse(data)
		return werr
	})
	if err != nil {
		return fmt.Errorf("ble: write %s: %w", char, err)
	}
	if p.log != nil {
		p.log.Tracef("wrote %d bytes to %s", len(data), char)
	}
	return nil
}

// Subscribe implements Peripheral.
func (p *TinygoPeripheral) Subscribe(ctx context.Context, service, char uuid.UUID, onNotify func([]byte)) (func() error, error) {
	c, err := p.characteristic(service, char)
	if err != nil {
		return nil, err
	}
	err = runCtx(ctx, func() error {
		return c.EnableNotifications(func(buf []byte) {
			// The adapter reuses buf between notifications.
			data := make([]byte, len(buf))
			copy(data, buf)
			onNotify(data)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("ble: subscribe %s: %w", char, err)
	}
	return func() error {
		return c.EnableNotifications(nil)
	}, nil
}

// Disconnect implements Peripheral.
func (p *TinygoPeripheral) Disconnect() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.chars = nil
	p.mu.Unlock()

	if p.log != nil {
		p.log.Infof("disconnecting")
	}
	return p.device.Disconnect()
}

var _ Peripheral = (*TinygoPeripheral)(nil)
