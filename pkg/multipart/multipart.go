// Package multipart merges GATT notifications that carry one logical message
// in several size-limited parts.
//
// Every notification starts with a part number. Regular parts count up from
// 0; part number 255 marks the final part. A message therefore has at most
// 254 regular parts plus the final one.
package multipart

import (
	"errors"
	"sync"

	"github.com/pion/logging"
)

const (
	// LastPart is the part number of the final part of a message.
	LastPart = 0xFF

	// MaxParts is the largest number of parts in one message, including the
	// final part.
	MaxParts = LastPart

	// DefaultChunkSize is the payload per notification for a 20-byte
	// notification: one part number byte plus 19 data bytes.
	DefaultChunkSize = 19
)

// Multipart errors.
var (
	// ErrTooManyParts is returned by Split when data needs more than
	// MaxParts parts.
	ErrTooManyParts = errors.New("multipart: message needs more than 255 parts")

	// ErrInvalidChunkSize is returned by Split for a chunk size below 1.
	ErrInvalidChunkSize = errors.New("multipart: chunk size must be positive")
)

// Config configures a Reassembler.
type Config struct {
	// OnMessage is called with a copy of every completed message.
	OnMessage func(msg []byte)

	// LoggerFactory for creating loggers. Nil disables logging.
	LoggerFactory logging.LoggerFactory
}

// Reassembler merges the parts of one subscription's notifications.
//
// A missing or out-of-order part discards the partial message without
// reporting an error; the pending request times out at a higher layer.
//
// Thread Safety: All methods are safe for concurrent use. OnMessage is
// called without internal locks held.
type Reassembler struct {
	onMessage func([]byte)
	log       logging.LeveledLogger

	mu       sync.Mutex
	expected uint8
	buf      []byte
	resets   uint64
}

// New creates a reassembler.
func New(config Config) *Reassembler {
	r := &Reassembler{onMessage: config.OnMessage}
	if config.LoggerFactory != nil {
		r.log = config.LoggerFactory.NewLogger("multipart")
	}
	return r
}

// OnData processes one notification.
func (r *Reassembler) OnData(data []byte) {
	if len(data) == 0 {
		return
	}
	part := data[0]

	r.mu.Lock()
	if part != LastPart && part != r.expected {
		if r.log != nil {
			r.log.Warnf("unexpected part %d, expected %d: discarding %d bytes", part, r.expected, len(r.buf))
		}
		r.resetLocked()
		r.resets++
		r.mu.Unlock()
		return
	}

	r.buf = append(r.buf, data[1:]...)
	r.expected++
	if part != LastPart {
		r.mu.Unlock()
		return
	}

	msg := r.buf
	r.buf = nil
	r.expected = 0
	r.mu.Unlock()

	if r.log != nil {
		r.log.Debugf("merged %d bytes", len(msg))
	}
	if r.onMessage != nil {
		r.onMessage(msg)
	}
}

// Reset discards any partial message.
func (r *Reassembler) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resetLocked()
}

// Resets returns how many partial messages were discarded because of a
// sequence mismatch.
func (r *Reassembler) Resets() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resets
}

// Pending returns the number of bytes accumulated for the current message.
func (r *Reassembler) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.buf)
}

func (r *Reassembler) resetLocked() {
	r.expected = 0
	r.buf = nil
}

// Split cuts data into notifications of at most chunkSize data bytes each,
// numbered the way a peripheral sends them. Empty data yields a single empty
// final part.
func Split(data []byte, chunkSize int) ([][]byte, error) {
	if chunkSize < 1 {
		return nil, ErrInvalidChunkSize
	}
	n := (len(data) + chunkSize - 1) / chunkSize
	if n == 0 {
		n = 1
	}
	if n > MaxParts {
		return nil, ErrTooManyParts
	}

	parts := make([][]byte, 0, n)
	for i := 0; i < n; i++ {
		start := i * chunkSize
		end := start + chunkSize
		if end > len(data) {
			end = len(data)
		}
		number := uint8(i)
		if i == n-1 {
			number = LastPart
		}
		part := make([]byte, 0, 1+end-start)
		part = append(part, number)
		part = append(part, data[start:end]...)
		parts = append(parts, part)
	}
	return parts, nil
}
