package graph

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackmesh/concierge/log"
)

func quietCoordinator() *Coordinator {
	c := NewCoordinator()
	c.SetLogger(&log.NoOpLogger{})
	return c
}

func TestExecute_SinkNodeCompletesRun(t *testing.T) {
	c := quietCoordinator()
	c.AddNode("solo", func(ctx context.Context, s State) (State, error) {
		s.FinalResponse = "done"
		return s, nil
	})
	// No routing function registered: graceful fall-through.

	final, err := c.Execute(context.Background(), NewState("hi", "solo"))
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, final.Status)
	assert.Equal(t, "done", final.FinalResponse)
	assert.Equal(t, 1, final.IterationCount)
}

func TestExecute_UnknownAgentIsFatal(t *testing.T) {
	c := quietCoordinator()

	final, err := c.Execute(context.Background(), NewState("hi", "ghost"))
	require.NoError(t, err)
	assert.Equal(t, StatusError, final.Status)
	assert.NotEmpty(t, final.FinalResponse)
}

func TestExecute_NoEntryAgent(t *testing.T) {
	c := quietCoordinator()

	final, err := c.Execute(context.Background(), State{Query: "hi", Status: StatusInProgress})
	require.NoError(t, err)
	assert.Equal(t, StatusError, final.Status)
}

func TestExecute_FollowsExplicitHint(t *testing.T) {
	c := quietCoordinator()
	var order []string

	c.AddNode("first", func(ctx context.Context, s State) (State, error) {
		order = append(order, "first")
		s.NextAgent = "second"
		return s, nil
	})
	c.AddNode("second", func(ctx context.Context, s State) (State, error) {
		order = append(order, "second")
		s.Status = StatusCompleted
		s.FinalResponse = "ok"
		return s, nil
	})
	c.AddConditionalEdges("first", func(s State) string {
		if s.Status.Terminal() {
			return END
		}
		return s.NextAgent
	}, "second")

	final, err := c.Execute(context.Background(), NewState("hi", "first"))
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, order)
	assert.Equal(t, StatusCompleted, final.Status)
	assert.Equal(t, 2, final.IterationCount)
	assert.Empty(t, final.NextAgent, "honored hint must be consumed")
	// One routing decision was logged, for the non-terminal hop.
	require.Len(t, final.RouteLog, 1)
	assert.Equal(t, "first", final.RouteLog[0].From)
	assert.Equal(t, "second", final.RouteLog[0].To)
}

func TestExecute_CyclicRoutingHitsCeilingExactly(t *testing.T) {
	c := quietCoordinator()
	pass := func(ctx context.Context, s State) (State, error) { return s, nil }
	c.AddNode("a", pass)
	c.AddNode("b", pass)
	c.AddConditionalEdges("a", func(s State) string { return "b" }, "b")
	c.AddConditionalEdges("b", func(s State) string { return "a" }, "a")

	initial := NewState("loop forever", "a")
	initial.MaxIterations = 10

	final, err := c.Execute(context.Background(), initial)
	require.NoError(t, err)
	assert.Equal(t, StatusError, final.Status)
	assert.Equal(t, 10, final.IterationCount)
	assert.Contains(t, final.FinalResponse, "Too many coordination steps")
}

func TestExecute_TerminalStatusStopsRouting(t *testing.T) {
	c := quietCoordinator()
	routed := false

	c.AddNode("stopper", func(ctx context.Context, s State) (State, error) {
		s.Status = StatusCompleted
		s.FinalResponse = "stopped"
		return s, nil
	})
	c.AddConditionalEdges("stopper", func(s State) string {
		routed = true
		return "stopper"
	}, "stopper")

	final, err := c.Execute(context.Background(), NewState("hi", "stopper"))
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, final.Status)
	assert.False(t, routed, "routing must not run after a terminal status")
	assert.Equal(t, 1, final.IterationCount)
}

func TestExecute_NodeErrorAbsorbed(t *testing.T) {
	c := quietCoordinator()
	c.AddNode("boom", func(ctx context.Context, s State) (State, error) {
		return s, errors.New("collaborator exploded")
	})

	final, err := c.Execute(context.Background(), NewState("hi", "boom"))
	require.NoError(t, err)
	assert.Equal(t, StatusError, final.Status)
	assert.NotEmpty(t, final.FinalResponse)
}

func TestExecute_ContextCancellation(t *testing.T) {
	c := quietCoordinator()
	c.AddNode("slow", func(ctx context.Context, s State) (State, error) { return s, nil })
	c.AddConditionalEdges("slow", func(s State) string { return "slow" }, "slow")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Execute(ctx, NewState("hi", "slow"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRouteNext_PureFunctionOfState(t *testing.T) {
	c := quietCoordinator()
	c.AddNode("n", func(ctx context.Context, s State) (State, error) { return s, nil })
	c.AddConditionalEdges("n", func(s State) string {
		if s.NextAgent != "" {
			return s.NextAgent
		}
		return "fallback"
	}, "fallback")

	s := NewState("q", "n")
	s.NextAgent = "elsewhere"
	assert.Equal(t, "elsewhere", c.RouteNext(s))
	assert.Equal(t, "elsewhere", c.RouteNext(s), "same state must yield the same next hop")

	s.NextAgent = ""
	assert.Equal(t, "fallback", c.RouteNext(s))
}

func TestRouteNext_UnregisteredNodeEnds(t *testing.T) {
	c := quietCoordinator()
	s := NewState("q", "sink")
	assert.Equal(t, END, c.RouteNext(s))
}

func TestExecute_DoesNotMutateInitialState(t *testing.T) {
	c := quietCoordinator()
	c.AddNode("writer", func(ctx context.Context, s State) (State, error) {
		s.AddMessage("writer", "nobody", "note", nil)
		s.Status = StatusCompleted
		return s, nil
	})

	initial := NewState("hi", "writer")
	final, err := c.Execute(context.Background(), initial)
	require.NoError(t, err)

	assert.Empty(t, initial.Messages)
	assert.Equal(t, StatusInProgress, initial.Status)
	assert.Len(t, final.Messages, 1)
}
