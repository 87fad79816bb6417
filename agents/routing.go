package agents

import (
	"github.com/stackmesh/concierge/classify"
	"github.com/stackmesh/concierge/graph"
	"github.com/stackmesh/concierge/log"
	"github.com/stackmesh/concierge/store"
)

// routeByHint honors an explicit next-agent hint before falling back to the
// node's default target. Terminal runs always route to END regardless of
// any hint left behind.
func routeByHint(fallback string) graph.RouteFunc {
	return func(s graph.State) string {
		if s.Status.Terminal() {
			return graph.END
		}
		if s.NextAgent != "" {
			return s.NextAgent
		}
		return fallback
	}
}

// Register wires the four handlers and their conditional edges into the
// coordinator and returns the entry agent name.
func Register(c *graph.Coordinator, classifier classify.Classifier, recordStore store.Store, logger log.Logger) string {
	c.AddNode(AgentIntent, IntentNode(classifier, logger))
	c.AddNode(AgentData, DataNode(recordStore, logger))
	c.AddNode(AgentSupport, SupportNode(recordStore, logger))
	c.AddNode(AgentSynthesis, SynthesisNode(logger))

	c.AddConditionalEdges(AgentIntent, routeByHint(graph.END),
		AgentData, AgentSupport, graph.END)
	c.AddConditionalEdges(AgentData, routeByHint(AgentSynthesis),
		AgentSupport, AgentSynthesis)
	c.AddConditionalEdges(AgentSupport, routeByHint(AgentSynthesis),
		AgentData, AgentSynthesis)
	c.AddConditionalEdges(AgentSynthesis, func(graph.State) string { return graph.END },
		graph.END)

	return AgentIntent
}
