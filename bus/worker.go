package bus

import (
	"context"
	"time"

	"github.com/stackmesh/concierge/graph"
	"github.com/stackmesh/concierge/log"
)

// Reply is a handler's answer to one request message.
type Reply struct {
	Content string
	Payload graph.Payload
}

// Handler processes one inbound message against the worker's private
// memory. Returning ok=false suppresses the reply; otherwise the worker
// sends the reply back to the message's sender.
type Handler func(ctx context.Context, m Message, mem *Memory) (Reply, bool)

// defaultReceiveTimeout paces the drain loop; it only bounds how quickly a
// worker notices cancellation, not delivery latency.
const defaultReceiveTimeout = 50 * time.Millisecond

// Worker runs one agent as an independent goroutine draining its own
// inbox. Workers never touch shared state: their only inputs are bus
// messages and their private Memory.
type Worker struct {
	name    string
	bus     *Bus
	handler Handler
	mem     *Memory
	logger  log.Logger
}

// NewWorker registers the named agent on the bus and returns its worker.
func NewWorker(b *Bus, name string, handler Handler, logger log.Logger) (*Worker, error) {
	if err := b.Register(name); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.GetDefaultLogger()
	}
	return &Worker{
		name:    name,
		bus:     b,
		handler: handler,
		mem:     NewMemory(),
		logger:  logger,
	}, nil
}

// Name returns the worker's registered agent name.
func (w *Worker) Name() string {
	return w.name
}

// Memory returns the worker's private memory. Only the worker goroutine
// may touch it while Run is active; inspect it after the worker stopped.
func (w *Worker) Memory() *Memory {
	return w.mem
}

// Run drains the worker's inbox until the context is cancelled. Call it in
// its own goroutine; Run returns only on cancellation.
func (w *Worker) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			w.logger.Debug("worker %s: stopping", w.name)
			return
		}
		m, ok, err := w.bus.Receive(ctx, w.name, defaultReceiveTimeout)
		if err != nil {
			w.logger.Error("worker %s: receive failed: %v", w.name, err)
			return
		}
		if !ok {
			continue
		}

		reply, respond := w.handler(ctx, m, w.mem)
		interaction := Interaction{
			Timestamp: time.Now(),
			From:      m.From,
			Request:   m.Content,
		}
		if respond {
			interaction.Response = reply.Content
		}
		w.mem.AddInteraction(interaction)
		if !respond {
			continue
		}
		if _, err := w.bus.Send(ctx, w.name, m.From, reply.Content, reply.Payload); err != nil {
			w.logger.Warn("worker %s: reply to %s failed: %v", w.name, m.From, err)
		}
	}
}

// Start launches Run in its own goroutine and returns a channel closed when
// the worker has stopped.
func (w *Worker) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Run(ctx)
	}()
	return done
}
