package helpdesk

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackmesh/concierge/agents"
	"github.com/stackmesh/concierge/graph"
	"github.com/stackmesh/concierge/log"
	"github.com/stackmesh/concierge/store"
)

func newTestEngine(opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = &log.NoOpLogger{}
	}
	return New(opts)
}

func TestRunDataRetrievalScenario(t *testing.T) {
	engine := newTestEngine(Options{})
	result, err := engine.Run(context.Background(), "Get customer information for ID 5")
	require.NoError(t, err)

	assert.Equal(t, graph.StatusCompleted, result.Status)
	assert.Contains(t, result.FinalResponse, "Eve Martinez")

	// entry -> data -> synthesis; the terminal node logs no hop of its
	// own.
	require.Len(t, result.RouteLog, 2)
	assert.Equal(t, agents.AgentIntent, result.RouteLog[0].From)
	assert.Equal(t, agents.AgentData, result.RouteLog[0].To)
	assert.Equal(t, agents.AgentSynthesis, result.RouteLog[1].To)
}

func TestRunNegotiationScenario(t *testing.T) {
	engine := newTestEngine(Options{})
	result, err := engine.Run(context.Background(), "I need help with my account, customer ID 1")
	require.NoError(t, err)

	assert.Equal(t, graph.StatusCompleted, result.Status)
	assert.Contains(t, result.FinalResponse, "Alice Johnson")
	assert.Contains(t, result.FinalResponse, "ticket")

	// entry -> support -> data -> support -> synthesis.
	var hops []string
	for _, entry := range result.RouteLog {
		hops = append(hops, entry.To)
	}
	assert.Equal(t, []string{
		agents.AgentSupport,
		agents.AgentData,
		agents.AgentSupport,
		agents.AgentSynthesis,
	}, hops)
}

func TestRunUnclassifiableQuery(t *testing.T) {
	engine := newTestEngine(Options{})
	result, err := engine.Run(context.Background(), "what a lovely day")
	require.NoError(t, err)

	assert.Equal(t, graph.StatusCompleted, result.Status)
	assert.Contains(t, result.FinalResponse, "more details")
}

func TestRunIterationCeiling(t *testing.T) {
	// A deliberately cyclic graph: two nodes handing off to each other.
	c := graph.NewCoordinator()
	c.SetLogger(&log.NoOpLogger{})
	bounce := func(next string) graph.NodeFunc {
		return func(ctx context.Context, s graph.State) (graph.State, error) {
			s.NextAgent = next
			return s, nil
		}
	}
	c.AddNode("a", bounce("b"))
	c.AddNode("b", bounce("a"))
	hint := func(s graph.State) string { return s.NextAgent }
	c.AddConditionalEdges("a", hint, "b")
	c.AddConditionalEdges("b", hint, "a")

	state := graph.NewState("ping pong", "a")
	state.MaxIterations = 10
	final, err := c.Execute(context.Background(), state)
	require.NoError(t, err)

	assert.Equal(t, graph.StatusError, final.Status)
	assert.Equal(t, 10, final.IterationCount)
	assert.Contains(t, final.FinalResponse, "simplify")
}

func TestRunUpdateScenario(t *testing.T) {
	memStore := store.NewSeededMemoryStore()
	engine := newTestEngine(Options{Store: memStore})

	result, err := engine.Run(context.Background(), "update email to bob@new.example.com for customer 2")
	require.NoError(t, err)
	assert.Equal(t, graph.StatusCompleted, result.Status)

	fresh, err := memStore.GetCustomer(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "bob@new.example.com", fresh.Email)
}

func TestRunIsReplaySafe(t *testing.T) {
	engine := newTestEngine(Options{})
	first, err := engine.Run(context.Background(), "Get customer information for ID 3")
	require.NoError(t, err)
	second, err := engine.Run(context.Background(), "Get customer information for ID 3")
	require.NoError(t, err)

	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, first.FinalResponse, second.FinalResponse)
	assert.Len(t, second.Steps, len(first.Steps))
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestResultSummary(t *testing.T) {
	engine := newTestEngine(Options{})
	result, err := engine.Run(context.Background(), "Get customer information for ID 1")
	require.NoError(t, err)

	summary := result.Summary()
	assert.Contains(t, summary, "Status: completed")
	assert.Contains(t, summary, "Response:")
	assert.Contains(t, summary, agents.AgentData)
}

func TestEngineMermaid(t *testing.T) {
	engine := newTestEngine(Options{})
	diagram := engine.Mermaid()

	assert.Contains(t, diagram, "flowchart TD")
	assert.Contains(t, diagram, "START --> "+agents.AgentIntent)
	assert.Contains(t, diagram, agents.AgentSupport)
	assert.Contains(t, diagram, "END")
}
