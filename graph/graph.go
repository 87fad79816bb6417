package graph

import (
	"context"
	"errors"
	"time"

	"github.com/stackmesh/concierge/log"
)

// END is the special route target meaning "no next agent".
const END = "END"

var (
	// ErrNoEntryAgent is returned when the initial state names no agent.
	ErrNoEntryAgent = errors.New("entry agent not set")

	// ErrUnknownAgent is returned when routing reaches an unregistered
	// agent name.
	ErrUnknownAgent = errors.New("unknown agent")
)

// Responses for the two fatal run conditions. User-facing per the error
// taxonomy: routing errors get a generic explanation, the safety limit asks
// the caller to simplify.
const (
	responseRoutingError = "Sorry, something went wrong while coordinating your request."
	responseTooManySteps = "Too many coordination steps. Please simplify your query."
)

// NodeFunc is one agent's state transformation. It receives a snapshot and
// returns a new snapshot. Errors are absorbed by the engine into
// StatusError; collaborator failures should instead be encoded in the
// returned state so the run can still complete with a degraded response.
type NodeFunc func(ctx context.Context, s State) (State, error)

// RouteFunc decides the next agent from the current state. Returning END or
// the empty string terminates the run with StatusCompleted.
type RouteFunc func(s State) string

// Coordinator drives the agent graph: named nodes, one conditional routing
// function per node, and a bounded execution loop. Registration is
// append-only for the lifetime of one coordinator.
type Coordinator struct {
	nodes  map[string]NodeFunc
	routes map[string]RouteFunc

	// routeTargets records declared possible targets per node, used only
	// by the Mermaid exporter.
	routeTargets map[string][]string

	logger log.Logger
}

// NewCoordinator creates an empty coordinator logging through the
// package-level default logger.
func NewCoordinator() *Coordinator {
	return &Coordinator{
		nodes:        make(map[string]NodeFunc),
		routes:       make(map[string]RouteFunc),
		routeTargets: make(map[string][]string),
		logger:       log.GetDefaultLogger(),
	}
}

// SetLogger replaces the coordinator's logger.
func (c *Coordinator) SetLogger(logger log.Logger) {
	if logger != nil {
		c.logger = logger
	}
}

// AddNode registers an agent as a node in the graph. Later registrations
// under the same name replace earlier ones.
func (c *Coordinator) AddNode(name string, fn NodeFunc) {
	c.nodes[name] = fn
	c.logger.Debug("registered node: %s", name)
}

// AddConditionalEdges registers the routing function run after the given
// node. The optional targets declare where the function may route; they are
// documentation for the exporter, not a constraint.
func (c *Coordinator) AddConditionalEdges(from string, fn RouteFunc, targets ...string) {
	c.routes[from] = fn
	c.routeTargets[from] = append([]string(nil), targets...)
	c.logger.Debug("registered conditional edges from: %s", from)
}

// RouteNext determines which agent should run after the current one, or END
// when the graph is done. Pure with respect to the state: calling it twice
// on an unmutated state yields the same answer.
func (c *Coordinator) RouteNext(s State) string {
	route, ok := c.routes[s.CurrentAgent]
	if !ok {
		// No routing logic means this node is a sink.
		return END
	}
	next := route(s)
	if next == "" {
		return END
	}
	return next
}

// Execute runs the agent graph from the initial state until a terminal
// status or the iteration ceiling. Fatal faults never escape: unknown agent
// names and ceiling breaches come back as StatusError in the final state.
// The returned error is non-nil only when the context is cancelled mid-run.
func (c *Coordinator) Execute(ctx context.Context, initial State) (State, error) {
	state := initial.Clone()
	if state.MaxIterations <= 0 {
		state.MaxIterations = DefaultMaxIterations
	}
	if state.CurrentAgent == "" {
		state.Status = StatusError
		state.FinalResponse = responseRoutingError
		c.logger.Error("execute: %v", ErrNoEntryAgent)
		return state, nil
	}

	c.logger.Info("starting graph execution: query=%q entry=%s", state.Query, state.CurrentAgent)

	for state.Status == StatusInProgress && state.IterationCount < state.MaxIterations {
		if err := ctx.Err(); err != nil {
			return state, err
		}

		// Counted before the node runs so a node that never completes
		// still burns an iteration.
		state.IterationCount++

		current := state.CurrentAgent
		node, ok := c.nodes[current]
		if !ok {
			c.logger.Error("execute: %v: %s", ErrUnknownAgent, current)
			state.Status = StatusError
			state.FinalResponse = responseRoutingError
			break
		}

		next, err := node(ctx, state.Clone())
		if err != nil {
			c.logger.Error("node %s failed: %v", current, err)
			state.Status = StatusError
			state.FinalResponse = responseRoutingError
			break
		}
		state = next

		if state.Status.Terminal() {
			break
		}

		nextAgent := c.RouteNext(state)
		state.RouteLog = append(state.RouteLog, RouteEntry{
			Timestamp:   time.Now(),
			From:        current,
			To:          nextAgent,
			Iteration:   state.IterationCount,
			HasCustomer: state.Customer != nil,
			HasTickets:  len(state.Tickets) > 0,
			Messages:    len(state.Messages),
		})
		c.logger.Info("routing: %s -> %s (iteration %d)", current, nextAgent, state.IterationCount)

		if nextAgent == END {
			// Graceful fall-through: a sink without routing completes
			// the run.
			state.Status = StatusCompleted
			break
		}
		if state.NextAgent == nextAgent {
			// The hint is one-shot: once honored it is consumed, so the
			// next node starts with a clean slate.
			state.NextAgent = ""
		}
		state.CurrentAgent = nextAgent
	}

	if state.Status == StatusInProgress {
		// Ceiling reached. The sole built-in cycle-safety mechanism.
		state.Status = StatusError
		state.FinalResponse = responseTooManySteps
		c.logger.Error("execute: iteration ceiling reached after %d steps", state.IterationCount)
	}

	c.logger.Info("graph execution complete: status=%s iterations=%d messages=%d",
		state.Status, state.IterationCount, len(state.Messages))
	return state, nil
}
