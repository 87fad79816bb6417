package graph

import (
	"fmt"
	"sort"
	"strings"
)

// Exporter renders the coordinator's routing topology.
type Exporter struct {
	coordinator *Coordinator
	entryPoint  string
}

// NewExporter creates an exporter for the given coordinator, drawing the
// given agent as the entry point.
func NewExporter(c *Coordinator, entryPoint string) *Exporter {
	return &Exporter{coordinator: c, entryPoint: entryPoint}
}

// MermaidOptions defines configuration for Mermaid diagram generation.
type MermaidOptions struct {
	// Direction of the flowchart (e.g., "TD", "LR")
	Direction string
}

// DrawMermaid generates a Mermaid diagram of the graph, using the declared
// route targets as conditional edges.
func (e *Exporter) DrawMermaid() string {
	return e.DrawMermaidWithOptions(MermaidOptions{Direction: "TD"})
}

// DrawMermaidWithOptions generates a Mermaid diagram with custom options.
func (e *Exporter) DrawMermaidWithOptions(opts MermaidOptions) string {
	var sb strings.Builder

	direction := opts.Direction
	if direction == "" {
		direction = "TD"
	}
	sb.WriteString(fmt.Sprintf("flowchart %s\n", direction))

	if e.entryPoint != "" {
		sb.WriteString("    START([\"START\"])\n")
		sb.WriteString(fmt.Sprintf("    START --> %s\n", e.entryPoint))
	}

	nodeNames := make([]string, 0, len(e.coordinator.nodes))
	for name := range e.coordinator.nodes {
		nodeNames = append(nodeNames, name)
	}
	sort.Strings(nodeNames)

	for _, name := range nodeNames {
		sb.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", name, name))
	}

	hasEnd := false
	for _, from := range nodeNames {
		targets := e.coordinator.routeTargets[from]
		if len(targets) == 0 && e.coordinator.routes[from] == nil {
			// Sink node with no routing function falls through to END.
			targets = []string{END}
		}
		for _, to := range targets {
			if to == END {
				hasEnd = true
			}
			// Dotted arrows mark conditional routing.
			sb.WriteString(fmt.Sprintf("    %s -.-> %s\n", from, to))
		}
	}

	if hasEnd {
		sb.WriteString("    END([\"END\"])\n")
	}
	return sb.String()
}
