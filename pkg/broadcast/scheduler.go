package broadcast

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pion/logging"
)

// DefaultInterval is the length of one advertisement window.
const DefaultInterval = 500 * time.Millisecond

// Advertiser publishes service UUIDs. Implemented by the BLE layer.
type Advertiser interface {
	// StartAdvertising replaces the current advertisement.
	StartAdvertising(serviceUUIDs []uuid.UUID) error

	// StopAdvertising stops the current advertisement.
	StopAdvertising() error
}

// SchedulerConfig configures a Scheduler.
type SchedulerConfig struct {
	// Queue holds the pending items. Default: a new Queue.
	Queue *Queue

	// Encoder builds the advertisements. Required.
	Encoder *Encoder

	// Advertiser publishes the advertisements. Required.
	Advertiser Advertiser

	// Interval is the window length. Default: DefaultInterval.
	Interval time.Duration

	// After returns a channel that fires once d has elapsed.
	// Default: time.After.
	After func(d time.Duration) <-chan time.Time

	// LoggerFactory for creating loggers. Nil disables logging.
	LoggerFactory logging.LoggerFactory
}

// Scheduler drives the queue through advertisement windows.
//
// Thread Safety: All methods are safe for concurrent use.
type Scheduler struct {
	queue      *Queue
	encoder    *Encoder
	advertiser Advertiser
	interval   time.Duration
	after      func(time.Duration) <-chan time.Time
	log        logging.LeveledLogger

	wake chan struct{}

	mu        sync.Mutex
	available bool
	bleOff    chan struct{}
	cancel    context.CancelFunc
	stopped   chan struct{}
}

// NewScheduler creates a scheduler. BLE is assumed available until
// OnBleAvailabilityChanged reports otherwise.
func NewScheduler(config SchedulerConfig) *Scheduler {
	if config.Queue == nil {
		config.Queue = NewQueue(QueueConfig{LoggerFactory: config.LoggerFactory})
	}
	if config.Interval <= 0 {
		config.Interval = DefaultInterval
	}
	if config.After == nil {
		config.After = time.After
	}
	s := &Scheduler{
		queue:      config.Queue,
		encoder:    config.Encoder,
		advertiser: config.Advertiser,
		interval:   config.Interval,
		after:      config.After,
		wake:       make(chan struct{}, 1),
		available:  true,
		bleOff:     make(chan struct{}),
	}
	if config.LoggerFactory != nil {
		s.log = config.LoggerFactory.NewLogger("broadcast")
	}
	return s
}

// Queue returns the scheduler's queue.
func (s *Scheduler) Queue() *Queue {
	return s.queue
}

// Add queues a command. While BLE is unavailable the handle fails at once
// with ErrBleNotReady.
func (s *Scheduler) Add(cmd Command) <-chan error {
	s.mu.Lock()
	available := s.available
	s.mu.Unlock()

	if !available {
		done := make(chan error, 1)
		done <- ErrBleNotReady
		close(done)
		return done
	}

	done := s.queue.Add(cmd)
	s.signal()
	return done
}

// OnBleAvailabilityChanged reports a radio state change. Going unavailable
// fails every queued and in-flight item with ErrBleNotReady and cuts the
// current window short.
func (s *Scheduler) OnBleAvailabilityChanged(available bool) {
	s.mu.Lock()
	was := s.available
	s.available = available
	if was && !available {
		close(s.bleOff)
	}
	if !was && available {
		s.bleOff = make(chan struct{})
	}
	s.mu.Unlock()

	if was == available {
		return
	}
	if s.log != nil {
		s.log.Infof("bluetooth available: %v", available)
	}
	if !available {
		s.queue.FailAll(ErrBleNotReady)
	}
	s.signal()
}

// Start runs the window loop in a goroutine until ctx is done or Stop is
// called.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.stopped = make(chan struct{})
	stopped := s.stopped
	s.mu.Unlock()

	if s.log != nil {
		s.log.Infof("broadcast scheduler started (window %v)", s.interval)
	}
	go func() {
		defer close(stopped)
		s.run(ctx)
	}()
}

// Stop ends the window loop and waits for it to exit. Queued items stay
// queued.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, stopped := s.cancel, s.stopped
	s.cancel = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-stopped
	if s.log != nil {
		s.log.Infof("broadcast scheduler stopped")
	}
}

func (s *Scheduler) run(ctx context.Context) {
	for {
		ran, err := s.RunWindow(ctx)
		if err != nil {
			return
		}
		if ran {
			continue
		}
		select {
		case <-ctx.Done():
			return
		case <-s.wake:
		}
	}
}

// RunWindow runs one advertisement window synchronously. It returns false
// when there was nothing to send or BLE is unavailable, and ctx.Err() when
// ctx ends mid-window; the window's items then stay queued.
func (s *Scheduler) RunWindow(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	available, bleOff := s.available, s.bleOff
	s.mu.Unlock()
	if !available {
		return false, nil
	}

	w := s.queue.NextWindow()
	if w == nil {
		return false, nil
	}

	adv, err := s.encode(w)
	if err != nil {
		s.queue.FailWindow(w, err)
		return true, nil
	}
	adv.Duration = s.interval

	if err := s.advertiser.StartAdvertising(adv.List()); err != nil {
		if s.log != nil {
			s.log.Warnf("start advertising: %v", err)
		}
	} else if s.log != nil {
		s.log.Debugf("advertising %s window with %d item(s) for sphere %s", w.Kind, len(w.Items), w.SphereID)
	}

	var cancelled bool
	select {
	case <-s.after(s.interval):
	case <-bleOff:
	case <-ctx.Done():
		cancelled = true
	}

	if err := s.advertiser.StopAdvertising(); err != nil && s.log != nil {
		s.log.Warnf("stop advertising: %v", err)
	}

	if cancelled {
		s.queue.requeue(w)
		return false, ctx.Err()
	}
	s.queue.WindowElapsed(w)
	return true, nil
}

func (s *Scheduler) encode(w *Window) (Advertisement, error) {
	payload, err := w.Payload()
	if err != nil {
		return Advertisement{}, err
	}
	if s.encoder == nil {
		return Advertisement{}, ErrNoKey
	}
	return s.encoder.Encode(w.SphereID, w.CommandType(), payload)
}

func (s *Scheduler) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}
