package ble

import (
	"github.com/backkem/crownstone/pkg/broadcast"
	"github.com/google/uuid"
)

// TinygoAdvertiser is unavailable on macOS, where the adapter only
// supports the central role.
type TinygoAdvertiser struct{}

// NewTinygoAdvertiser always fails with ErrAdvertisingUnsupported.
func NewTinygoAdvertiser(TinygoConfig) (*TinygoAdvertiser, error) {
	return nil, ErrAdvertisingUnsupported
}

// StartAdvertising always fails with ErrAdvertisingUnsupported.
func (a *TinygoAdvertiser) StartAdvertising([]uuid.UUID) error {
	return ErrAdvertisingUnsupported
}

// StopAdvertising is a no-op.
func (a *TinygoAdvertiser) StopAdvertising() error { return nil }

var _ broadcast.Advertiser = (*TinygoAdvertiser)(nil)
