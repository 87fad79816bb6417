// Package bus is the decoupled transport alternative to the shared-state
// graph: registered agents own private inboxes and talk only through
// messages. Each inbox has exactly one consumer; delivery within one inbox
// follows send order, with no ordering guarantee across inboxes.
package bus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stackmesh/concierge/graph"
	"github.com/stackmesh/concierge/log"
)

var (
	// ErrNotRegistered is returned when sending to or receiving for an
	// agent without an inbox.
	ErrNotRegistered = errors.New("agent not registered")

	// ErrAlreadyRegistered is returned when registering a name twice.
	ErrAlreadyRegistered = errors.New("agent already registered")
)

// Message is one bus envelope. The payload kinds are the same tagged union
// the graph state uses.
type Message struct {
	ID        string
	Timestamp time.Time
	From      string
	To        string
	Content   string
	Payload   graph.Payload
}

// HistorySink receives every accepted message, in acceptance order. Sink
// failures are logged and dropped; they never fail the send.
type HistorySink interface {
	Append(ctx context.Context, m Message) error
}

// inbox is a single-consumer unbounded queue. notify has capacity one: a
// pending token means "queue may be non-empty", which is enough because
// only one consumer drains it.
type inbox struct {
	mu     sync.Mutex
	queue  []Message
	notify chan struct{}
}

func (in *inbox) push(m Message) {
	in.mu.Lock()
	in.queue = append(in.queue, m)
	in.mu.Unlock()
	select {
	case in.notify <- struct{}{}:
	default:
	}
}

func (in *inbox) pop() (Message, bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if len(in.queue) == 0 {
		return Message{}, false
	}
	m := in.queue[0]
	in.queue = in.queue[1:]
	return m, true
}

func (in *inbox) pending() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.queue) > 0
}

// Bus routes messages between registered agents and keeps an append-only
// history of everything ever accepted.
type Bus struct {
	mu      sync.RWMutex
	inboxes map[string]*inbox
	history []Message

	sink   HistorySink
	logger log.Logger
}

// NewBus creates an empty bus logging through the package-level default
// logger.
func NewBus() *Bus {
	return &Bus{
		inboxes: make(map[string]*inbox),
		logger:  log.GetDefaultLogger(),
	}
}

// SetLogger replaces the bus logger.
func (b *Bus) SetLogger(logger log.Logger) {
	if logger != nil {
		b.logger = logger
	}
}

// SetHistorySink attaches an external mirror for the message history, e.g.
// a Redis audit log. Set before the first send.
func (b *Bus) SetHistorySink(sink HistorySink) {
	b.sink = sink
}

// Register creates an empty inbox for the named agent.
func (b *Bus) Register(name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.inboxes[name]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, name)
	}
	b.inboxes[name] = &inbox{notify: make(chan struct{}, 1)}
	b.logger.Debug("bus: registered %s", name)
	return nil
}

// Send delivers a message to the recipient's inbox and returns the message
// ID. An unregistered recipient fails the send before anything is recorded:
// the history never contains partial messages.
func (b *Bus) Send(ctx context.Context, from, to, content string, payload graph.Payload) (string, error) {
	b.mu.Lock()
	target, ok := b.inboxes[to]
	if !ok {
		b.mu.Unlock()
		return "", fmt.Errorf("%w: %s", ErrNotRegistered, to)
	}
	m := Message{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		From:      from,
		To:        to,
		Content:   content,
		Payload:   payload,
	}
	b.history = append(b.history, m)
	b.mu.Unlock()

	target.push(m)
	b.logger.Debug("bus: %s -> %s (%s)", from, to, m.ID)

	if b.sink != nil {
		if err := b.sink.Append(ctx, m); err != nil {
			b.logger.Warn("bus: history sink append failed: %v", err)
		}
	}
	return m.ID, nil
}

// Receive blocks up to timeout for the next message in the named inbox. The
// third return is false on timeout or context cancellation; a timeout means
// "no message", not an error.
func (b *Bus) Receive(ctx context.Context, name string, timeout time.Duration) (Message, bool, error) {
	b.mu.RLock()
	in, ok := b.inboxes[name]
	b.mu.RUnlock()
	if !ok {
		return Message{}, false, fmt.Errorf("%w: %s", ErrNotRegistered, name)
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	for {
		if m, ok := in.pop(); ok {
			return m, true, nil
		}
		select {
		case <-in.notify:
		case <-deadline.C:
			return Message{}, false, nil
		case <-ctx.Done():
			return Message{}, false, nil
		}
	}
}

// HasPending reports whether the named inbox holds undelivered messages.
// Unregistered names have nothing pending.
func (b *Bus) HasPending(name string) bool {
	b.mu.RLock()
	in, ok := b.inboxes[name]
	b.mu.RUnlock()
	return ok && in.pending()
}

// History returns a copy of every message ever accepted, in acceptance
// order. Consumption does not remove messages from history.
func (b *Bus) History() []Message {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]Message(nil), b.history...)
}
