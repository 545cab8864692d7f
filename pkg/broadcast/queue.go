package broadcast

import (
	"sync"

	"github.com/pion/logging"
)

// DefaultRetries is the number of advertisement windows a command is sent in
// when the command does not specify one.
const DefaultRetries = 3

// Command is one broadcast request.
type Command struct {
	// SphereID selects the keys and the sphere short ID.
	SphereID string

	// Kind selects the payload. Exactly one of the payload fields below is
	// used.
	Kind Kind

	// Switch is the target and value for KindSwitch.
	Switch SwitchItem

	// Time is the Unix time for KindSetTime.
	Time uint32

	// BehaviourEnabled is the mode for KindBehaviourSettings.
	BehaviourEnabled bool

	// Retries is the number of windows to send in. Zero uses the queue
	// default.
	Retries int
}

// itemKey identifies the commands that supersede each other.
// stone is -1 for kinds without a target.
type itemKey struct {
	sphere string
	kind   Kind
	stone  int
}

func (c Command) key() itemKey {
	k := itemKey{sphere: c.SphereID, kind: c.Kind, stone: -1}
	if c.Kind == KindSwitch {
		k.stone = int(c.Switch.StoneID)
	}
	return k
}

// Item is a queued command awaiting advertisement.
type Item struct {
	Command Command

	// RetriesRemaining counts down once per window the item was sent in.
	RetriesRemaining int

	done     chan error
	finished bool
}

// finish resolves the completion handle once.
func (it *Item) finish(err error) {
	if it.finished {
		return
	}
	it.finished = true
	it.done <- err
	close(it.done)
}

// Window is the set of items advertised together in one window. All items
// share a sphere and kind.
type Window struct {
	SphereID string
	Kind     Kind
	Items    []*Item
}

// CommandType returns the command packet type of the window.
func (w *Window) CommandType() CommandType {
	return w.Kind.CommandType()
}

// Payload builds the command payload of the window.
func (w *Window) Payload() ([]byte, error) {
	if len(w.Items) == 0 {
		return nil, ErrInvalidCommand
	}
	switch w.Kind {
	case KindSwitch:
		items := make([]SwitchItem, len(w.Items))
		for i, it := range w.Items {
			items[i] = it.Command.Switch
		}
		return EncodeSwitchPayload(items)
	case KindSetTime:
		return EncodeSetTimePayload(w.Items[0].Command.Time), nil
	case KindBehaviourSettings:
		return EncodeBehaviourSettingsPayload(w.Items[0].Command.BehaviourEnabled), nil
	}
	return nil, ErrInvalidCommand
}

// QueueConfig configures a Queue.
type QueueConfig struct {
	// DefaultRetries applies to commands with Retries == 0.
	// Default: DefaultRetries (3).
	DefaultRetries int

	// LoggerFactory for creating loggers. Nil disables logging.
	LoggerFactory logging.LoggerFactory
}

// Queue orders pending broadcast commands.
//
// New items go to the front. An item supersedes any queued or in-flight
// item with the same sphere, kind and target stone. After each window the
// sent items lose one retry; items at zero are resolved, the rest move to
// the back. There is no acknowledgment, so exhausting the retry budget
// resolves the completion with nil.
//
// Thread Safety: All methods are safe for concurrent use.
type Queue struct {
	defaultRetries int
	log            logging.LeveledLogger

	mu       sync.Mutex
	items    []*Item
	inFlight []*Item
}

// NewQueue creates an empty queue.
func NewQueue(config QueueConfig) *Queue {
	if config.DefaultRetries <= 0 {
		config.DefaultRetries = DefaultRetries
	}
	q := &Queue{defaultRetries: config.DefaultRetries}
	if config.LoggerFactory != nil {
		q.log = config.LoggerFactory.NewLogger("broadcast")
	}
	return q
}

// Add queues cmd at the front and returns its completion handle. The handle
// receives exactly one value: nil once the retry budget is spent, or
// ErrSuperseded, ErrBleNotReady, or an encoding error.
func (q *Queue) Add(cmd Command) <-chan error {
	it := &Item{Command: cmd, done: make(chan error, 1)}
	if !cmd.Kind.IsValid() {
		it.finish(ErrInvalidCommand)
		return it.done
	}
	it.RetriesRemaining = cmd.Retries
	if it.RetriesRemaining <= 0 {
		it.RetriesRemaining = q.defaultRetries
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	key := cmd.key()
	q.items = q.supersedeLocked(q.items, key)
	q.inFlight = q.supersedeLocked(q.inFlight, key)

	q.items = append([]*Item{it}, q.items...)
	return it.done
}

func (q *Queue) supersedeLocked(list []*Item, key itemKey) []*Item {
	kept := list[:0]
	for _, it := range list {
		if it.Command.key() == key {
			if q.log != nil {
				q.log.Debugf("superseding %s item for sphere %s", it.Command.Kind, it.Command.SphereID)
			}
			it.finish(ErrSuperseded)
			continue
		}
		kept = append(kept, it)
	}
	return kept
}

// Len returns the number of queued items, excluding in-flight ones.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Items returns a snapshot of the queued commands, front first.
func (q *Queue) Items() []Command {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]Command, len(q.items))
	for i, it := range q.items {
		out[i] = it.Command
	}
	return out
}

// NextWindow takes the items for the next advertisement window, or nil if
// the queue is empty. The front item picks the sphere and kind; batching
// kinds take further items of the same sphere and kind up to
// MaxSwitchItems.
func (q *Queue) NextWindow() *Window {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return nil
	}
	first := q.items[0]
	w := &Window{SphereID: first.Command.SphereID, Kind: first.Command.Kind}

	limit := 1
	if w.Kind.batches() {
		limit = MaxSwitchItems
	}

	rest := make([]*Item, 0, len(q.items))
	for _, it := range q.items {
		if len(w.Items) < limit && it.Command.SphereID == w.SphereID && it.Command.Kind == w.Kind {
			w.Items = append(w.Items, it)
			continue
		}
		rest = append(rest, it)
	}
	q.items = rest
	q.inFlight = append(q.inFlight, w.Items...)
	return w
}

// WindowElapsed accounts for one finished window: every item still in flight
// loses a retry and is resolved at zero or re-queued at the back.
func (q *Queue) WindowElapsed(w *Window) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, it := range w.Items {
		if !q.releaseLocked(it) {
			continue
		}
		it.RetriesRemaining--
		if it.RetriesRemaining <= 0 {
			if q.log != nil {
				q.log.Debugf("%s item for sphere %s sent in all windows", it.Command.Kind, it.Command.SphereID)
			}
			it.finish(nil)
			continue
		}
		q.items = append(q.items, it)
	}
}

// FailWindow resolves every item of w that is still in flight with err.
func (q *Queue) FailWindow(w *Window, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, it := range w.Items {
		if q.releaseLocked(it) {
			it.finish(err)
		}
	}
	if q.log != nil {
		q.log.Warnf("dropping %d %s item(s) for sphere %s: %v", len(w.Items), w.Kind, w.SphereID, err)
	}
}

// FailAll resolves every queued and in-flight item with err and empties the
// queue.
func (q *Queue) FailAll(err error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := len(q.items) + len(q.inFlight)
	for _, it := range q.items {
		it.finish(err)
	}
	for _, it := range q.inFlight {
		it.finish(err)
	}
	q.items = nil
	q.inFlight = nil

	if q.log != nil && n > 0 {
		q.log.Warnf("failed %d broadcast item(s): %v", n, err)
	}
}

// releaseLocked removes it from the in-flight set. It returns false if the
// item was already resolved in the meantime.
func (q *Queue) releaseLocked(it *Item) bool {
	for i, f := range q.inFlight {
		if f == it {
			q.inFlight = append(q.inFlight[:i], q.inFlight[i+1:]...)
			return !it.finished
		}
	}
	return false
}

// requeue returns an interrupted window's items to the front without
// spending a retry.
func (q *Queue) requeue(w *Window) {
	q.mu.Lock()
	defer q.mu.Unlock()

	back := make([]*Item, 0, len(w.Items))
	for _, it := range w.Items {
		if q.releaseLocked(it) {
			back = append(back, it)
		}
	}
	q.items = append(back, q.items...)
}
