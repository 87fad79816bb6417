package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stackmesh/concierge/log"
)

func TestExporter_DrawMermaid(t *testing.T) {
	c := NewCoordinator()
	c.SetLogger(&log.NoOpLogger{})
	pass := func(ctx context.Context, s State) (State, error) { return s, nil }

	c.AddNode("intent", pass)
	c.AddNode("data", pass)
	c.AddNode("synthesis", pass)
	c.AddConditionalEdges("intent", func(s State) string { return s.NextAgent }, "data", "synthesis")
	c.AddConditionalEdges("data", func(s State) string { return "synthesis" }, "synthesis")

	diagram := NewExporter(c, "intent").DrawMermaid()

	assert.Contains(t, diagram, "flowchart TD")
	assert.Contains(t, diagram, "START --> intent")
	assert.Contains(t, diagram, "intent -.-> data")
	assert.Contains(t, diagram, "intent -.-> synthesis")
	assert.Contains(t, diagram, "data -.-> synthesis")
	// synthesis has no routing function, so it falls through to END.
	assert.Contains(t, diagram, "synthesis -.-> END")
	assert.Contains(t, diagram, "END([\"END\"])")
}

func TestExporter_DrawMermaidDirection(t *testing.T) {
	c := NewCoordinator()
	c.SetLogger(&log.NoOpLogger{})
	c.AddNode("only", func(ctx context.Context, s State) (State, error) { return s, nil })

	diagram := NewExporter(c, "only").DrawMermaidWithOptions(MermaidOptions{Direction: "LR"})
	assert.Contains(t, diagram, "flowchart LR")
}
