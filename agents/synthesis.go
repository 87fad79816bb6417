package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/stackmesh/concierge/graph"
	"github.com/stackmesh/concierge/log"
)

const responseGeneric = "I've processed your request. Is there anything else I can help you with?"

// SynthesisNode builds the terminal node: it assembles the final response
// from whatever the upstream handlers put into state and marks the run
// completed. An existing response from a specialist is kept as-is.
func SynthesisNode(logger log.Logger) graph.NodeFunc {
	return func(ctx context.Context, s graph.State) (graph.State, error) {
		if s.FinalResponse == "" {
			s.FinalResponse = composeResponse(&s)
		}
		logger.Debug("synthesis: response ready (%d chars)", len(s.FinalResponse))

		s.AddMessage(AgentSynthesis, graph.END, "Final response assembled", nil)
		s.Status = graph.StatusCompleted
		s.NextAgent = ""
		return s, nil
	}
}

func composeResponse(s *graph.State) string {
	var b strings.Builder

	switch {
	case len(s.Customers) > 0:
		fmt.Fprintf(&b, "I found %d customers:\n", len(s.Customers))
		for _, c := range s.Customers {
			fmt.Fprintf(&b, "- %s (%s, %s)\n", c.Name, c.Email, c.Status)
		}
	case s.HasCustomer():
		c := s.Customer
		fmt.Fprintf(&b, "Here is the information for %s:\nEmail: %s\nPhone: %s\nStatus: %s\n",
			c.Name, c.Email, c.Phone, c.Status)
	}

	if len(s.Tickets) > 0 {
		fmt.Fprintf(&b, "Related tickets (%d):\n", len(s.Tickets))
		for _, t := range s.Tickets {
			fmt.Fprintf(&b, "- #%d [%s/%s] %s\n", t.ID, t.Priority, t.Status, t.Issue)
		}
	}

	if b.Len() == 0 {
		return responseGeneric
	}
	return strings.TrimRight(b.String(), "\n")
}
