//go:build !darwin

package ble

import (
	"fmt"
	"sync"
	"time"

	"github.com/backkem/crownstone/pkg/broadcast"
	"github.com/google/uuid"
	"github.com/pion/logging"
	"tinygo.org/x/bluetooth"
)

// DefaultAdvertisingInterval is the radio interval between advertising
// events.
const DefaultAdvertisingInterval = 100 * time.Millisecond

// TinygoAdvertiser broadcasts service UUID lists through the host adapter.
type TinygoAdvertiser struct {
	adapter  *bluetooth.Adapter
	interval time.Duration
	log      logging.LeveledLogger

	mu      sync.Mutex
	adv     *bluetooth.Advertisement
	running bool
}

// NewTinygoAdvertiser enables the adapter and returns an advertiser.
func NewTinygoAdvertiser(config TinygoConfig) (*TinygoAdvertiser, error) {
	config.applyDefaults()
	if err := config.Adapter.Enable(); err != nil {
		return nil, fmt.Errorf("ble: enable adapter: %w", err)
	}
	a := &TinygoAdvertiser{
		adapter:  config.Adapter,
		interval: DefaultAdvertisingInterval,
	}
	if config.LoggerFactory != nil {
		a.log = config.LoggerFactory.NewLogger("ble-tinygo")
	}
	return a, nil
}

// StartAdvertising replaces the current advertisement with serviceUUIDs.
func (a *TinygoAdvertiser) StartAdvertising(serviceUUIDs []uuid.UUID) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.adv == nil {
		a.adv = a.adapter.DefaultAdvertisement()
	}
	if a.running {
		if err := a.adv.Stop(); err != nil {
			return fmt.Errorf("ble: stop advertising: %w", err)
		}
		a.running = false
	}

	ids := make([]bluetooth.UUID, len(serviceUUIDs))
	for i, id := range serviceUUIDs {
		ids[i] = ToBluetoothUUID(id)
	}
	err := a.adv.Configure(bluetooth.AdvertisementOptions{
		ServiceUUIDs: ids,
		Interval:     bluetooth.NewDuration(a.interval),
	})
	if err != nil {
		return fmt.Errorf("ble: configure advertisement: %w", err)
	}
	if err := a.adv.Start(); err != nil {
		return fmt.Errorf("ble: start advertising: %w", err)
	}
	a.running = true

	if a.log != nil {
		a.log.Debugf("advertising %d service UUIDs", len(ids))
	}
	return nil
}

// StopAdvertising stops the current advertisement, if any.
func (a *TinygoAdvertiser) StopAdvertising() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.running {
		return nil
	}
	a.running = false
	if err := a.adv.Stop(); err != nil {
		return fmt.Errorf("ble: stop advertising: %w", err)
	}
	return nil
}

var _ broadcast.Advertiser = (*TinygoAdvertiser)(nil)
