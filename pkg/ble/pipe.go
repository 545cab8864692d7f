package ble

import (
	"math/rand"
	"net"
	"sync"
	"time"

	"github.com/pion/transport/v3/test"
)

// PipeConfig configures a NotificationPipe.
type PipeConfig struct {
	// ProcessInterval is how often queued notifications are delivered.
	// Default: 1ms
	ProcessInterval time.Duration

	// DropRate is the probability of losing a notification (0.0 - 1.0).
	DropRate float64

	// Seed seeds the drop generator. Default: current time.
	Seed int64
}

// NotificationPipe carries GATT notifications from an emulated peripheral
// to a subscriber in memory. It wraps pion's test.Bridge; the peripheral
// writes on endpoint 0 and the subscriber reads endpoint 1.
//
// Notifications can be lost at random (DropRate) or deterministically
// (DropNext) to exercise reassembly recovery.
type NotificationPipe struct {
	bridge *test.Bridge

	mu       sync.RWMutex
	onNotify func([]byte)
	dropRate float64
	dropNext int
	dropped  int
	rng      *rand.Rand
	closed   bool

	interval time.Duration
	stopCh   chan struct{}
	tickWG   sync.WaitGroup
	readWG   sync.WaitGroup
}

// NewNotificationPipe creates a pipe and starts delivering notifications.
func NewNotificationPipe(config PipeConfig) *NotificationPipe {
	if config.ProcessInterval == 0 {
		config.ProcessInterval = time.Millisecond
	}
	if config.Seed == 0 {
		config.Seed = time.Now().UnixNano()
	}
	p := &NotificationPipe{
		bridge:   test.NewBridge(),
		dropRate: config.DropRate,
		rng:      rand.New(rand.NewSource(config.Seed)),
		interval: config.ProcessInterval,
		stopCh:   make(chan struct{}),
	}

	p.tickWG.Add(1)
	go p.tickLoop()
	p.readWG.Add(1)
	go p.readLoop(p.bridge.GetConn1())
	return p
}

func (p *NotificationPipe) tickLoop() {
	defer p.tickWG.Done()
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			for p.bridge.Tick() > 0 {
			}
		}
	}
}

func (p *NotificationPipe) readLoop(conn net.Conn) {
	defer p.readWG.Done()
	buf := make([]byte, 1024)
	for {
		n, err := conn.Read(buf)
		if err != nil {
			return
		}
		data := make([]byte, n)
		copy(data, buf[:n])

		p.mu.RLock()
		fn := p.onNotify
		p.mu.RUnlock()
		if fn != nil {
			fn(data)
		}
	}
}

// SetHandler installs the subscriber callback. A nil handler discards
// notifications.
func (p *NotificationPipe) SetHandler(fn func([]byte)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onNotify = fn
}

// SetDropRate changes the random loss probability.
func (p *NotificationPipe) SetDropRate(rate float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dropRate = rate
}

// DropNext loses the next n notifications.
func (p *NotificationPipe) DropNext(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dropNext = n
}

// Dropped returns the number of notifications lost so far.
func (p *NotificationPipe) Dropped() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.dropped
}

// Notify sends one notification from the peripheral side.
func (p *NotificationPipe) Notify(data []byte) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrDisconnected
	}
	drop := false
	if p.dropNext > 0 {
		p.dropNext--
		drop = true
	} else if p.dropRate > 0 && p.rng.Float64() < p.dropRate {
		drop = true
	}
	if drop {
		p.dropped++
	}
	p.mu.Unlock()

	if drop {
		return nil
	}
	_, err := p.bridge.GetConn0().Write(data)
	return err
}

// Close stops delivery and closes both endpoints. Queued notifications
// that were not yet delivered are lost.
func (p *NotificationPipe) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	close(p.stopCh)
	p.tickWG.Wait()

	_ = p.bridge.GetConn1().SetReadDeadline(time.Now())
	err0 := p.bridge.GetConn0().Close()
	err1 := p.bridge.GetConn1().Close()
	p.readWG.Wait()

	if err0 != nil {
		return err0
	}
	return err1
}
