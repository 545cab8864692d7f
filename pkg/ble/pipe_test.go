package ble

import (
	"bytes"
	"sync"
	"testing"
	"time"
)

type collector struct {
	mu   sync.Mutex
	msgs [][]byte
	ch   chan struct{}
}

func newCollector() *collector {
	return &collector{ch: make(chan struct{}, 64)}
}

func (c *collector) handle(data []byte) {
	c.mu.Lock()
	c.msgs = append(c.msgs, data)
	c.mu.Unlock()
	c.ch <- struct{}{}
}

func (c *collector) wait(t *testing.T, n int) [][]byte {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-c.ch:
		case <-time.After(time.Second):
			t.Fatalf("timeout waiting for notification %d of %d", i+1, n)
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.msgs))
	copy(out, c.msgs)
	return out
}

// TestNotificationPipe_Order verifies notifications arrive in send order.
func TestNotificationPipe_Order(t *testing.T) {
	p := NewNotificationPipe(PipeConfig{})
	defer p.Close()

	c := newCollector()
	p.SetHandler(c.handle)

	want := [][]byte{{0x00, 1, 2}, {0x01, 3, 4}, {0xFF, 5}}
	for _, m := range want {
		if err := p.Notify(m); err != nil {
			t.Fatalf("Notify: %v", err)
		}
	}

	got := c.wait(t, len(want))
	for i := range want {
		if !bytes.Equal(got[i], want[i]) {
			t.Errorf("notification %d = %x, want %x", i, got[i], want[i])
		}
	}
}

// TestNotificationPipe_DropNext verifies deterministic loss.
func TestNotificationPipe_DropNext(t *testing.T) {
	p := NewNotificationPipe(PipeConfig{})
	defer p.Close()

	c := newCollector()
	p.SetHandler(c.handle)

	p.DropNext(2)
	for i := byte(0); i < 4; i++ {
		if err := p.Notify([]byte{i}); err != nil {
			t.Fatalf("Notify: %v", err)
		}
	}

	got := c.wait(t, 2)
	if got[0][0] != 2 || got[1][0] != 3 {
		t.Errorf("received %x, want notifications 2 and 3", got)
	}
	if p.Dropped() != 2 {
		t.Errorf("Dropped() = %d, want 2", p.Dropped())
	}
}

// TestNotificationPipe_DropAll verifies a drop rate of 1 loses everything.
func TestNotificationPipe_DropAll(t *testing.T) {
	p := NewNotificationPipe(PipeConfig{DropRate: 1, Seed: 1})
	defer p.Close()

	c := newCollector()
	p.SetHandler(c.handle)

	for i := 0; i < 10; i++ {
		if err := p.Notify([]byte{byte(i)}); err != nil {
			t.Fatalf("Notify: %v", err)
		}
	}
	if p.Dropped() != 10 {
		t.Errorf("Dropped() = %d, want 10", p.Dropped())
	}

	p.SetDropRate(0)
	if err := p.Notify([]byte{0xAA}); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	got := c.wait(t, 1)
	if len(got) != 1 || got[0][0] != 0xAA {
		t.Errorf("received %x, want only aa", got)
	}
}

// TestNotificationPipe_Close verifies Notify fails after Close and Close
// is idempotent.
func TestNotificationPipe_Close(t *testing.T) {
	p := NewNotificationPipe(PipeConfig{})
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if err := p.Notify([]byte{1}); err != ErrDisconnected {
		t.Errorf("Notify after Close = %v, want ErrDisconnected", err)
	}
}
