// Package concierge is a multi-agent coordination engine for customer
// service: a cyclic graph of handler agents (intent routing, customer data,
// support, synthesis) threading one shared state record through a bounded
// execution loop, plus a message-bus transport where the same agents run as
// independent workers.
//
// Most callers want the helpdesk package, which assembles the whole system:
//
//	engine := helpdesk.New(helpdesk.Options{})
//	result, err := engine.Run(ctx, "Get customer information for ID 5")
//
// The building blocks are importable on their own:
//
//   - graph: the execution engine (Coordinator, State, conditional routing)
//   - agents: the four handler adapters and their routing table
//   - classify: keyword and LLM-backed intent classification
//   - store: the record-store collaborator (memory, SQLite, Postgres)
//   - bus: the decoupled message-bus transport with worker goroutines
package concierge
