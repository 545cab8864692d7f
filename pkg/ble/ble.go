// Package ble defines the Bluetooth Low Energy ports used by the connection
// and broadcast layers, together with a tinygo bluetooth adapter and an
// in-memory notification pipe for tests.
//
// A Peripheral is an already-connected GATT server. Scanning, bonding and
// connection management belong to the caller.
package ble

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrCharacteristicNotFound is returned when a service or characteristic
	// is not exposed by the peripheral.
	ErrCharacteristicNotFound = errors.New("ble: characteristic not found")

	// ErrDisconnected is returned for operations on a closed link.
	ErrDisconnected = errors.New("ble: disconnected")

	// ErrAdvertisingUnsupported is returned on platforms where the adapter
	// cannot act as a broadcaster.
	ErrAdvertisingUnsupported = errors.New("ble: advertising not supported on this platform")
)

// Peripheral is a connected GATT server.
type Peripheral interface {
	// ReadCharacteristic reads the current value of a characteristic.
	ReadCharacteristic(ctx context.Context, service, char uuid.UUID) ([]byte, error)

	// WriteCharacteristic writes a value to a characteristic.
	WriteCharacteristic(ctx context.Context, service, char uuid.UUID, data []byte) error

	// Subscribe enables notifications on a characteristic. onNotify is
	// called for every notification until unsubscribe is called.
	Subscribe(ctx context.Context, service, char uuid.UUID, onNotify func([]byte)) (unsubscribe func() error, err error)

	// Disconnect terminates the link.
	Disconnect() error
}
