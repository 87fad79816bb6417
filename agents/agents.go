// Package agents implements the four handler adapters of the helpdesk
// system and the conditional routing table wiring them together.
package agents

import (
	"github.com/stackmesh/concierge/classify"
)

// Agent names used as node keys in the coordination graph.
const (
	AgentIntent    = "intent_router"
	AgentData      = "customer_data"
	AgentSupport   = "support"
	AgentSynthesis = "synthesis"
)

// capabilityAgents maps classifier capabilities to handler names. A
// capability missing from this table is a routing error.
var capabilityAgents = map[string]string{
	classify.CapabilityCustomerData:    AgentData,
	classify.CapabilityCustomerSupport: AgentSupport,
}
