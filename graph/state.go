package graph

import (
	"time"

	"github.com/stackmesh/concierge/store"
)

// Status is the lifecycle state of one coordination run.
type Status string

const (
	// StatusInProgress means the engine is still routing between agents.
	StatusInProgress Status = "in_progress"

	// StatusCompleted means a final response is ready.
	StatusCompleted Status = "completed"

	// StatusError means the run failed (unknown agent, unmapped
	// capability or iteration ceiling).
	StatusError Status = "error"
)

// Terminal reports whether no further node may execute.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// DefaultMaxIterations bounds the execution loop when the caller does not
// set a ceiling.
const DefaultMaxIterations = 10

// Payload is a tagged message payload. The set of kinds is closed so
// adapters can switch exhaustively instead of probing maps for keys.
type Payload interface {
	isPayload()
}

// RoutingIntent records why a message redirects the route: the capability
// the sender needs and the classifier's view of the query.
type RoutingIntent struct {
	Capability string
	Required   []string
	Complexity string
}

func (RoutingIntent) isPayload() {}

// EntityResult carries a retrieved customer, or a listing, back into state.
type EntityResult struct {
	Customer  *store.Customer
	Customers []store.Customer
}

func (EntityResult) isPayload() {}

// TicketResult carries a created support ticket.
type TicketResult struct {
	Ticket store.Ticket
}

func (TicketResult) isPayload() {}

// Message is one inter-agent message in the shared state's audit trail.
// Messages are immutable once appended.
type Message struct {
	Timestamp time.Time
	From      string
	To        string
	Content   string
	Payload   Payload
}

// Step is one entry of the coordination history, recorded whenever an agent
// hands off to another.
type Step struct {
	Number  int
	Action  string
	Message string
}

// RouteEntry is one engine-level routing decision, emitted by Execute for
// observability.
type RouteEntry struct {
	Timestamp   time.Time
	From        string
	To          string
	Iteration   int
	HasCustomer bool
	HasTickets  bool
	Messages    int
}

// State is the shared record threaded through every node. Nodes receive a
// snapshot and return a new one; the engine never mutates a state beyond
// what node functions return, apart from routing bookkeeping.
type State struct {
	// Query is the original user query. Immutable.
	Query string

	// CurrentAgent is the node the engine will run next.
	CurrentAgent string

	// NextAgent is an explicit next-hop hint set by a node. Routing
	// functions honor it before falling back to their default.
	NextAgent string

	// Steps is the coordination history, appended by AddMessage.
	Steps []Step

	// Messages is the append-only inter-agent message log.
	Messages []Message

	// RouteLog records the engine's routing decisions for this run.
	RouteLog []RouteEntry

	// Customer is the retrieved customer context, if any.
	Customer *store.Customer

	// Customers holds a listing result when the query asked for one.
	Customers []store.Customer

	// Tickets are the support tickets created during this run.
	Tickets []store.Ticket

	// FinalResponse is the user-facing answer.
	FinalResponse string

	// Status starts at StatusInProgress and is monotone: once terminal,
	// the engine performs no further node execution.
	Status Status

	// IterationCount counts engine loop iterations. Never exceeds
	// MaxIterations; the engine enforces this, not individual nodes.
	IterationCount int

	// MaxIterations is the cycle-safety ceiling for this run.
	MaxIterations int
}

// NewState creates the initial state for one incoming query, entering the
// graph at the given agent.
func NewState(query, entryAgent string) State {
	return State{
		Query:         query,
		CurrentAgent:  entryAgent,
		Status:        StatusInProgress,
		MaxIterations: DefaultMaxIterations,
	}
}

// Clone returns a deep copy of the state. Slices are copied so a node
// mutating its snapshot cannot alias entries already audited.
func (s State) Clone() State {
	out := s
	out.Steps = append([]Step(nil), s.Steps...)
	out.Messages = append([]Message(nil), s.Messages...)
	out.RouteLog = append([]RouteEntry(nil), s.RouteLog...)
	out.Customers = append([]store.Customer(nil), s.Customers...)
	out.Tickets = append([]store.Ticket(nil), s.Tickets...)
	if s.Customer != nil {
		c := *s.Customer
		out.Customer = &c
	}
	return out
}

// AddMessage appends a message to the communication log and mirrors it into
// the coordination history. This is how agents talk to each other.
func (s *State) AddMessage(from, to, content string, payload Payload) {
	s.Messages = append(s.Messages, Message{
		Timestamp: time.Now(),
		From:      from,
		To:        to,
		Content:   content,
		Payload:   payload,
	})
	s.Steps = append(s.Steps, Step{
		Number:  len(s.Steps) + 1,
		Action:  from + " -> " + to,
		Message: content,
	})
}

// HasCustomer reports whether customer context has been collected.
func (s *State) HasCustomer() bool {
	return s.Customer != nil
}
