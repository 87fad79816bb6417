package agents

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/stackmesh/concierge/classify"
	"github.com/stackmesh/concierge/graph"
	"github.com/stackmesh/concierge/log"
	"github.com/stackmesh/concierge/store"
)

// customerIDPatterns are tried in order; the first match wins. The hash
// pattern comes last so "customer 42, ticket #7" extracts 42, not 7.
var customerIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`id\s+(\d+)`),
	regexp.MustCompile(`customer\s+(\d+)`),
	regexp.MustCompile(`#(\d+)`),
}

// ExtractCustomerID pulls a customer ID out of free text. The second
// return is false when no pattern matches.
func ExtractCustomerID(query string) (int, bool) {
	lower := strings.ToLower(query)
	for _, pattern := range customerIDPatterns {
		if m := pattern.FindStringSubmatch(lower); m != nil {
			id, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			return id, true
		}
	}
	return 0, false
}

// Data operations inferred from the query.
const (
	opRetrieve = "retrieve"
	opUpdate   = "update"
	opList     = "list"
	opHistory  = "history"
)

// inferOperation picks the store operation from verb keywords. Update
// verbs outrank list verbs, which outrank the history keyword; anything
// else defaults to retrieve.
func inferOperation(query string) string {
	lower := strings.ToLower(query)
	switch {
	case containsAny(lower, "update", "change", "modify"):
		return opUpdate
	case containsAny(lower, "list", "all"):
		return opList
	case strings.Contains(lower, "history"):
		return opHistory
	default:
		return opRetrieve
	}
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// DataNode builds the customer-data node: it extracts an entity ID from
// the query, invokes the record store, and writes the result back into
// state. Store failures degrade the response; they never fail the run.
func DataNode(recordStore store.Store, logger log.Logger) graph.NodeFunc {
	return func(ctx context.Context, s graph.State) (graph.State, error) {
		operation := inferOperation(s.Query)
		logger.Info("data agent: operation=%s", operation)

		switch operation {
		case opList:
			filter := store.ListFilter{Limit: 100}
			if strings.Contains(strings.ToLower(s.Query), "active") {
				filter.Status = "active"
			}
			customers, err := recordStore.ListCustomers(ctx, filter)
			if err != nil {
				logger.Warn("list customers failed: %v", err)
				s.AddMessage(AgentData, AgentSynthesis, "Failed to list customers", nil)
				break
			}
			s.Customers = customers
			s.AddMessage(AgentData, AgentSynthesis,
				fmt.Sprintf("Listed %d customers", len(customers)),
				graph.EntityResult{Customers: customers})

		case opUpdate:
			id, ok := ExtractCustomerID(s.Query)
			if !ok {
				s.AddMessage(AgentData, AgentSynthesis, "Please provide a customer ID for the update", nil)
				break
			}
			fields := extractUpdateFields(s.Query)
			updated, err := recordStore.UpdateCustomer(ctx, id, fields)
			if err != nil {
				logger.Warn("update customer %d failed: %v", id, err)
				s.AddMessage(AgentData, AgentSynthesis,
					fmt.Sprintf("Failed to update customer %d", id), nil)
				break
			}
			s.AddMessage(AgentData, AgentSynthesis,
				fmt.Sprintf("Updated customer %d fields: %s", id, strings.Join(updated, ", ")), nil)
			if customer, err := recordStore.GetCustomer(ctx, id); err == nil {
				s.Customer = customer
			}

		case opHistory:
			id, ok := ExtractCustomerID(s.Query)
			if !ok {
				s.AddMessage(AgentData, AgentSynthesis, "Please provide a customer ID for the history lookup", nil)
				break
			}
			tickets, err := recordStore.CustomerHistory(ctx, id)
			if err != nil {
				logger.Warn("history for customer %d failed: %v", id, err)
				s.AddMessage(AgentData, AgentSynthesis,
					fmt.Sprintf("Failed to retrieve history for customer %d", id), nil)
				break
			}
			s.Tickets = append(s.Tickets, tickets...)
			if customer, err := recordStore.GetCustomer(ctx, id); err == nil {
				s.Customer = customer
			}
			s.AddMessage(AgentData, AgentSynthesis,
				fmt.Sprintf("Retrieved %d past tickets for customer %d", len(tickets), id), nil)

		default: // retrieve
			id, ok := ExtractCustomerID(s.Query)
			if !ok {
				s.AddMessage(AgentData, AgentSynthesis, "Please provide a customer ID", nil)
				break
			}
			customer, err := recordStore.GetCustomer(ctx, id)
			if err != nil {
				logger.Warn("get customer %d failed: %v", id, err)
				s.AddMessage(AgentData, AgentSynthesis,
					fmt.Sprintf("Could not retrieve customer %d", id), nil)
				break
			}
			s.Customer = customer
			s.AddMessage(AgentData, AgentSynthesis,
				fmt.Sprintf("Retrieved customer %s", customer.Name),
				graph.EntityResult{Customer: customer})
		}

		// Never overwrite a next-hop another adapter already requested.
		if s.NextAgent == "" {
			if requester, ok := pendingDataRequester(&s); ok {
				// Negotiation: hand the data back to whoever asked.
				s.NextAgent = requester
			} else {
				s.NextAgent = AgentSynthesis
			}
		}
		return s, nil
	}
}

// pendingDataRequester finds the most recent routing-intent message sent to
// the data agent by another handler, indicating a negotiation in flight.
func pendingDataRequester(s *graph.State) (string, bool) {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		m := s.Messages[i]
		if m.To != AgentData || m.From == AgentIntent || m.From == AgentData {
			continue
		}
		if intent, ok := m.Payload.(graph.RoutingIntent); ok && intent.Capability == classify.CapabilityCustomerData {
			return m.From, true
		}
	}
	return "", false
}

// updateFieldPatterns extract "email to x" / "phone to y" style assignments.
var updateFieldPatterns = map[string]*regexp.Regexp{
	"email":  regexp.MustCompile(`email\s+(?:to\s+)?(\S+@\S+)`),
	"phone":  regexp.MustCompile(`phone\s+(?:to\s+)?([\d-]{7,})`),
	"status": regexp.MustCompile(`status\s+(?:to\s+)?(active|disabled)`),
}

func extractUpdateFields(query string) map[string]string {
	lower := strings.ToLower(query)
	fields := make(map[string]string)
	for name, pattern := range updateFieldPatterns {
		if m := pattern.FindStringSubmatch(lower); m != nil {
			fields[name] = m[1]
		}
	}
	return fields
}
