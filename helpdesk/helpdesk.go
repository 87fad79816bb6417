// Package helpdesk assembles the customer-service coordination system: an
// intent router, a customer-data agent, a support agent and a synthesis
// agent wired into one bounded execution graph over a record store and an
// intent classifier.
package helpdesk

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/stackmesh/concierge/agents"
	"github.com/stackmesh/concierge/classify"
	"github.com/stackmesh/concierge/graph"
	"github.com/stackmesh/concierge/log"
	"github.com/stackmesh/concierge/store"
)

// Options configure an Engine. Zero-value fields get working defaults: a
// seeded in-memory store, the keyword classifier and the package logger.
type Options struct {
	Store         store.Store
	Classifier    classify.Classifier
	Logger        log.Logger
	MaxIterations int
}

// Engine is the assembled coordination system. One engine serves any number
// of sequential Run calls; each run gets its own state.
type Engine struct {
	coordinator *Coordinator
	entryAgent  string
	opts        Options
}

// Coordinator aliases the graph engine so callers of this package need not
// import graph for the common path.
type Coordinator = graph.Coordinator

// New assembles the four-agent coordination graph.
func New(opts Options) *Engine {
	if opts.Store == nil {
		opts.Store = store.NewSeededMemoryStore()
	}
	if opts.Classifier == nil {
		opts.Classifier = classify.NewKeywordClassifier()
	}
	if opts.Logger == nil {
		opts.Logger = log.GetDefaultLogger()
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = graph.DefaultMaxIterations
	}

	c := graph.NewCoordinator()
	c.SetLogger(opts.Logger)
	entry := agents.Register(c, opts.Classifier, opts.Store, opts.Logger)

	return &Engine{
		coordinator: c,
		entryAgent:  entry,
		opts:        opts,
	}
}

// Result is one run's outcome.
type Result struct {
	// RunID identifies this run in logs.
	RunID string

	// Status is completed or error; Run never returns in_progress.
	Status graph.Status

	// FinalResponse is the user-facing answer.
	FinalResponse string

	// Messages is the inter-agent message log of the run.
	Messages []graph.Message

	// Steps is the coordination history.
	Steps []graph.Step

	// RouteLog records the engine's routing decisions.
	RouteLog []graph.RouteEntry

	// Iterations is how many engine loop iterations the run used.
	Iterations int
}

// Run executes one query through the coordination graph. The error is
// non-nil only on context cancellation; every other fault comes back inside
// the Result with Status error.
func (e *Engine) Run(ctx context.Context, query string) (*Result, error) {
	runID := uuid.NewString()
	e.opts.Logger.Info("run %s: %q", runID, query)

	state := graph.NewState(query, e.entryAgent)
	state.MaxIterations = e.opts.MaxIterations

	final, err := e.coordinator.Execute(ctx, state)
	if err != nil {
		return nil, fmt.Errorf("run %s cancelled: %w", runID, err)
	}

	return &Result{
		RunID:         runID,
		Status:        final.Status,
		FinalResponse: final.FinalResponse,
		Messages:      final.Messages,
		Steps:         final.Steps,
		RouteLog:      final.RouteLog,
		Iterations:    final.IterationCount,
	}, nil
}

// Mermaid renders the assembled routing topology as a Mermaid flowchart.
func (e *Engine) Mermaid() string {
	return graph.NewExporter(e.coordinator, e.entryAgent).DrawMermaid()
}

// Summary renders the run as a short human-readable transcript.
func (r *Result) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Status: %s (%d iterations)\n", r.Status, r.Iterations)
	for _, step := range r.Steps {
		fmt.Fprintf(&b, "  %d. %s: %s\n", step.Number, step.Action, step.Message)
	}
	fmt.Fprintf(&b, "Response: %s", r.FinalResponse)
	return b.String()
}
