// Package graph provides the coordination engine at the heart of concierge:
// a directed, cyclic execution graph over named agent nodes.
//
// A Coordinator holds a map of node functions and a map of conditional
// routing functions. Execution threads a single State value through the
// graph: each node receives a snapshot and returns a new one, the routing
// function for the node that just ran picks the next agent, and the loop
// repeats until a node marks the run completed, routing falls through, or
// the iteration ceiling trips.
//
//	c := graph.NewCoordinator()
//	c.AddNode("greeter", func(ctx context.Context, s graph.State) (graph.State, error) {
//		s.FinalResponse = "hello " + s.Query
//		s.Status = graph.StatusCompleted
//		return s, nil
//	})
//
//	final, _ := c.Execute(ctx, graph.NewState("world", "greeter"))
//
// Routing may form cycles; the per-run MaxIterations ceiling is the sole
// cycle-safety mechanism. Unknown agent names and ceiling breaches surface
// as StatusError in the returned state rather than as errors, so a fault
// never escapes Execute.
package graph
