package broadcast

import (
	"sync"

	"github.com/google/uuid"
)

// MockAdvertiser records advertisements for testing without a radio.
type MockAdvertiser struct {
	mu          sync.Mutex
	started     [][]uuid.UUID
	stops       int
	advertising bool

	// StartErr, if set, is returned by StartAdvertising.
	StartErr error

	// OnStart, if set, is called after each recorded StartAdvertising.
	OnStart func(serviceUUIDs []uuid.UUID)
}

// NewMockAdvertiser creates a mock advertiser.
func NewMockAdvertiser() *MockAdvertiser {
	return &MockAdvertiser{}
}

// StartAdvertising implements Advertiser.
func (m *MockAdvertiser) StartAdvertising(serviceUUIDs []uuid.UUID) error {
	m.mu.Lock()
	if m.StartErr != nil {
		err := m.StartErr
		m.mu.Unlock()
		return err
	}
	list := make([]uuid.UUID, len(serviceUUIDs))
	copy(list, serviceUUIDs)
	m.started = append(m.started, list)
	m.advertising = true
	onStart := m.OnStart
	m.mu.Unlock()

	if onStart != nil {
		onStart(list)
	}
	return nil
}

// StopAdvertising implements Advertiser.
func (m *MockAdvertiser) StopAdvertising() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stops++
	m.advertising = false
	return nil
}

// Advertisements returns every recorded advertisement in order.
func (m *MockAdvertiser) Advertisements() [][]uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]uuid.UUID, len(m.started))
	copy(out, m.started)
	return out
}

// Stops returns the number of StopAdvertising calls.
func (m *MockAdvertiser) Stops() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stops
}

// Advertising reports whether an advertisement is active.
func (m *MockAdvertiser) Advertising() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.advertising
}

var _ Advertiser = (*MockAdvertiser)(nil)
