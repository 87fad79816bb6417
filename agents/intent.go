package agents

import (
	"context"
	"fmt"

	"github.com/stackmesh/concierge/classify"
	"github.com/stackmesh/concierge/graph"
	"github.com/stackmesh/concierge/log"
)

const (
	responseClarification = "I'm not sure I understand your request. Could you please provide more details?"
	responseUnroutable    = "Could not route your query to an appropriate agent."
)

// IntentNode builds the entry node: it classifies the query and hands off
// to the agent owning the first required capability.
func IntentNode(classifier classify.Classifier, logger log.Logger) graph.NodeFunc {
	return func(ctx context.Context, s graph.State) (graph.State, error) {
		intent, err := classifier.Classify(ctx, s.Query)
		if err != nil {
			// Classifiers degrade internally; an error here means even
			// the fallback is broken.
			logger.Error("intent classification failed: %v", err)
			s.Status = graph.StatusError
			s.FinalResponse = responseUnroutable
			return s, nil
		}
		logger.Info("intent: primary=%s required=%v complexity=%s",
			intent.Primary, intent.Required, intent.Complexity)

		if len(intent.Required) == 0 {
			s.FinalResponse = responseClarification
			s.Status = graph.StatusCompleted
			return s, nil
		}

		next, ok := capabilityAgents[intent.Required[0]]
		if !ok {
			logger.Error("no agent mapped for capability %q", intent.Required[0])
			s.Status = graph.StatusError
			s.FinalResponse = responseUnroutable
			return s, nil
		}

		s.NextAgent = next
		s.AddMessage(AgentIntent, next,
			fmt.Sprintf("Please handle this query: %s", s.Query),
			graph.RoutingIntent{
				Capability: intent.Required[0],
				Required:   intent.Required,
				Complexity: intent.Complexity,
			})
		return s, nil
	}
}
