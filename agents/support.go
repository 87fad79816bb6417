package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/stackmesh/concierge/classify"
	"github.com/stackmesh/concierge/graph"
	"github.com/stackmesh/concierge/log"
	"github.com/stackmesh/concierge/store"
)

// Priority keyword tiers, checked high to low; the first matching tier
// wins, so "urgent upgrade" is high, not medium.
var (
	highPriorityKeywords = []string{
		"urgent", "immediately", "asap", "critical", "billing", "charged",
		"refund", "security", "hack", "breach", "down", "outage",
	}
	mediumPriorityKeywords = []string{
		"upgrade", "change", "modify", "request", "feature", "improvement",
	}
)

// AssessPriority maps a query onto a ticket priority tier.
func AssessPriority(query string) string {
	lower := strings.ToLower(query)
	if containsAny(lower, highPriorityKeywords...) {
		return store.PriorityHigh
	}
	if containsAny(lower, mediumPriorityKeywords...) {
		return store.PriorityMedium
	}
	return store.PriorityLow
}

var ticketKeywords = []string{
	"issue", "problem", "error", "bug", "not working", "billing", "help", "support",
}

// needsCustomerContext reports whether the query references a specific
// customer the support agent should know about before answering.
func needsCustomerContext(query string) bool {
	lower := strings.ToLower(query)
	return containsAny(lower, "customer", "account")
}

// alreadyRequestedData reports whether this run already contains a data
// request from the support agent, bounding the negotiation to one round.
func alreadyRequestedData(s *graph.State) bool {
	for _, m := range s.Messages {
		if m.From != AgentSupport || m.To != AgentData {
			continue
		}
		if _, ok := m.Payload.(graph.RoutingIntent); ok {
			return true
		}
	}
	return false
}

// SupportNode builds the support node: it assesses priority, requests
// customer context from the data agent when missing, opens a ticket when
// warranted, and composes a support response.
func SupportNode(recordStore store.Store, logger log.Logger) graph.NodeFunc {
	return func(ctx context.Context, s graph.State) (graph.State, error) {
		priority := AssessPriority(s.Query)
		logger.Info("support agent: priority=%s", priority)

		// Negotiation: redirect to the data agent once when customer
		// context is needed but absent. On re-entry the customer is in
		// state, so this falls through.
		if !s.HasCustomer() && needsCustomerContext(s.Query) && !alreadyRequestedData(&s) {
			logger.Info("support agent: requesting customer context")
			s.NextAgent = AgentData
			s.AddMessage(AgentSupport, AgentData,
				"I need customer context to handle this support request",
				graph.RoutingIntent{Capability: classify.CapabilityCustomerData})
			return s, nil
		}

		needsTicket := containsAny(strings.ToLower(s.Query), ticketKeywords...)
		ticketCreated := false
		if needsTicket && s.HasCustomer() {
			ticket, err := recordStore.CreateTicket(ctx, s.Customer.ID, s.Query, priority)
			if err != nil {
				logger.Warn("ticket creation failed: %v", err)
			} else {
				ticketCreated = true
				s.Tickets = append(s.Tickets, *ticket)
				s.AddMessage(AgentSupport, AgentSynthesis,
					fmt.Sprintf("Created ticket #%d", ticket.ID),
					graph.TicketResult{Ticket: *ticket})
			}
		}

		var b strings.Builder
		if s.HasCustomer() {
			fmt.Fprintf(&b, "Hello %s, I understand you need help. ", s.Customer.Name)
		} else {
			b.WriteString("I understand you need help. ")
		}
		if ticketCreated {
			fmt.Fprintf(&b, "I've created a %s-priority ticket for your issue. ", priority)
		}
		b.WriteString("Our team will assist you shortly.")
		s.FinalResponse = b.String()

		s.AddMessage(AgentSupport, AgentSynthesis, "Support response ready", nil)
		if s.NextAgent == "" {
			s.NextAgent = AgentSynthesis
		}
		return s, nil
	}
}
