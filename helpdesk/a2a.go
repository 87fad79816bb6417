package helpdesk

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stackmesh/concierge/agents"
	"github.com/stackmesh/concierge/bus"
	"github.com/stackmesh/concierge/classify"
	"github.com/stackmesh/concierge/graph"
	"github.com/stackmesh/concierge/log"
	"github.com/stackmesh/concierge/store"
)

// routerName is the bus identity of the orchestrating side of BusEngine.
const routerName = agents.AgentIntent

// defaultReplyTimeout bounds how long the router waits for a specialist.
const defaultReplyTimeout = 2 * time.Second

// BusEngine is the decoupled variant of Engine: the specialist agents run
// as independent bus workers with private memory, and the router pairs
// requests with replies by sender identity instead of threading one shared
// state record.
type BusEngine struct {
	bus          *bus.Bus
	opts         Options
	replyTimeout time.Duration

	cancel  context.CancelFunc
	stopped []<-chan struct{}
}

// NewBusEngine assembles the bus-transport system and starts its workers.
// Call Close to stop them.
func NewBusEngine(opts Options) (*BusEngine, error) {
	if opts.Store == nil {
		opts.Store = store.NewSeededMemoryStore()
	}
	if opts.Classifier == nil {
		opts.Classifier = classify.NewKeywordClassifier()
	}
	if opts.Logger == nil {
		opts.Logger = log.GetDefaultLogger()
	}

	b := bus.NewBus()
	b.SetLogger(opts.Logger)
	if err := b.Register(routerName); err != nil {
		return nil, err
	}

	e := &BusEngine{
		bus:          b,
		opts:         opts,
		replyTimeout: defaultReplyTimeout,
	}

	dataWorker, err := bus.NewWorker(b, agents.AgentData, dataHandler(opts.Store, opts.Logger), opts.Logger)
	if err != nil {
		return nil, err
	}
	supportWorker, err := bus.NewWorker(b, agents.AgentSupport, supportHandler(opts.Store, opts.Logger), opts.Logger)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.stopped = append(e.stopped, dataWorker.Start(ctx), supportWorker.Start(ctx))
	return e, nil
}

// Bus exposes the underlying bus, e.g. to attach a history sink or inspect
// the message history after a run.
func (e *BusEngine) Bus() *bus.Bus {
	return e.bus
}

// Close stops the workers and waits for them to drain.
func (e *BusEngine) Close() {
	e.cancel()
	for _, done := range e.stopped {
		<-done
	}
}

// Run routes one query over the bus. Specialist timeouts degrade the
// response; the run still completes. The error is non-nil only for
// unclassifiable transport faults, not for timeouts.
func (e *BusEngine) Run(ctx context.Context, query string) (*Result, error) {
	runID := uuid.NewString()
	e.opts.Logger.Info("bus run %s: %q", runID, query)

	result := &Result{RunID: runID, Status: graph.StatusCompleted}
	defer func() {
		result.Messages = e.busMessages()
		for i, m := range result.Messages {
			result.Steps = append(result.Steps, graph.Step{
				Number:  i + 1,
				Action:  m.From + " -> " + m.To,
				Message: m.Content,
			})
		}
	}()

	intent, err := e.opts.Classifier.Classify(ctx, query)
	if err != nil {
		result.Status = graph.StatusError
		result.FinalResponse = "Could not route your query to an appropriate agent."
		return result, nil
	}
	if len(intent.Required) == 0 {
		result.FinalResponse = "I'm not sure I understand your request. Could you please provide more details?"
		return result, nil
	}

	var target string
	switch intent.Required[0] {
	case classify.CapabilityCustomerData:
		target = agents.AgentData
	case classify.CapabilityCustomerSupport:
		target = agents.AgentSupport
	default:
		result.Status = graph.StatusError
		result.FinalResponse = "Could not route your query to an appropriate agent."
		return result, nil
	}

	reply, ok, err := e.request(ctx, target, query, graph.RoutingIntent{
		Capability: intent.Required[0],
		Required:   intent.Required,
		Complexity: intent.Complexity,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		result.FinalResponse = fmt.Sprintf("The %s agent did not respond in time. Please try again.", target)
		return result, nil
	}

	// Negotiation: a specialist asking for customer context gets exactly
	// one data round before the router gives up.
	if need, wants := reply.Payload.(graph.RoutingIntent); wants && need.Capability == classify.CapabilityCustomerData {
		dataReply, dataOK, err := e.request(ctx, agents.AgentData, query, nil)
		if err != nil {
			return nil, err
		}
		var entity graph.Payload
		if dataOK {
			if er, isEntity := dataReply.Payload.(graph.EntityResult); isEntity {
				entity = er
			}
		}
		var replyOK bool
		reply, replyOK, err = e.request(ctx, target, query, entity)
		if err != nil {
			return nil, err
		}
		if !replyOK {
			result.FinalResponse = fmt.Sprintf("The %s agent did not respond in time. Please try again.", target)
			return result, nil
		}
		if _, still := reply.Payload.(graph.RoutingIntent); still {
			// One round is the budget: a specialist still asking for
			// context gets a degraded answer, not another loop.
			result.FinalResponse = "I could not find the customer record needed to handle your request."
			return result, nil
		}
	}

	result.FinalResponse = reply.Content
	return result, nil
}

// request sends one message as the router and blocks for the matching
// reply. Replies are paired by sender identity; a stray reply from another
// agent is skipped, not delivered.
func (e *BusEngine) request(ctx context.Context, to, content string, payload graph.Payload) (bus.Message, bool, error) {
	if _, err := e.bus.Send(ctx, routerName, to, content, payload); err != nil {
		return bus.Message{}, false, err
	}
	deadline := time.Now().Add(e.replyTimeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return bus.Message{}, false, nil
		}
		m, ok, err := e.bus.Receive(ctx, routerName, remaining)
		if err != nil {
			return bus.Message{}, false, err
		}
		if !ok {
			return bus.Message{}, false, nil
		}
		if m.From == to {
			return m, true, nil
		}
		e.opts.Logger.Warn("bus run: dropping stray reply from %s while waiting for %s", m.From, to)
	}
}

func (e *BusEngine) busMessages() []graph.Message {
	history := e.bus.History()
	out := make([]graph.Message, 0, len(history))
	for _, m := range history {
		out = append(out, graph.Message{
			Timestamp: m.Timestamp,
			From:      m.From,
			To:        m.To,
			Content:   m.Content,
			Payload:   m.Payload,
		})
	}
	return out
}

// dataHandler answers customer lookups over the bus. Retrieved customers
// are cached in the worker's private memory so repeated lookups in one
// session skip the store.
func dataHandler(recordStore store.Store, logger log.Logger) bus.Handler {
	return func(ctx context.Context, m bus.Message, mem *bus.Memory) (bus.Reply, bool) {
		id, found := agents.ExtractCustomerID(m.Content)
		if !found {
			return bus.Reply{Content: "Please provide a customer ID"}, true
		}

		cacheKey := fmt.Sprintf("customer:%d", id)
		if cached, ok := mem.Get(cacheKey); ok {
			customer := cached.(*store.Customer)
			return bus.Reply{
				Content: fmt.Sprintf("Retrieved customer %s", customer.Name),
				Payload: graph.EntityResult{Customer: customer},
			}, true
		}

		customer, err := recordStore.GetCustomer(ctx, id)
		if err != nil {
			logger.Warn("bus data agent: get customer %d failed: %v", id, err)
			return bus.Reply{Content: fmt.Sprintf("Could not retrieve customer %d", id)}, true
		}
		mem.Set(cacheKey, customer)
		return bus.Reply{
			Content: fmt.Sprintf("Retrieved customer %s", customer.Name),
			Payload: graph.EntityResult{Customer: customer},
		}, true
	}
}

// supportHandler answers support requests over the bus. Without customer
// context it replies with a routing intent so the router can run one data
// round; with context it opens a ticket and composes the final response.
func supportHandler(recordStore store.Store, logger log.Logger) bus.Handler {
	return func(ctx context.Context, m bus.Message, mem *bus.Memory) (bus.Reply, bool) {
		entity, hasEntity := m.Payload.(graph.EntityResult)
		hasCustomer := hasEntity && entity.Customer != nil

		lower := strings.ToLower(m.Content)
		needsContext := strings.Contains(lower, "customer") || strings.Contains(lower, "account")
		if needsContext && !hasCustomer {
			return bus.Reply{
				Content: "I need customer context to handle this support request",
				Payload: graph.RoutingIntent{Capability: classify.CapabilityCustomerData},
			}, true
		}

		priority := agents.AssessPriority(m.Content)
		var b strings.Builder
		if hasCustomer {
			fmt.Fprintf(&b, "Hello %s, I understand you need help. ", entity.Customer.Name)
			ticket, err := recordStore.CreateTicket(ctx, entity.Customer.ID, m.Content, priority)
			if err != nil {
				logger.Warn("bus support agent: ticket creation failed: %v", err)
			} else {
				fmt.Fprintf(&b, "I've created a %s-priority ticket for your issue. ", priority)
				mem.Set(fmt.Sprintf("ticket:%d", ticket.ID), ticket)
			}
		} else {
			b.WriteString("I understand you need help. ")
		}
		b.WriteString("Our team will assist you shortly.")
		return bus.Reply{Content: b.String()}, true
	}
}
