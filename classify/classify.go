package classify

import (
	"context"
	"strings"
)

// Capability names the classifier can require. Each maps to exactly one
// handler in the coordination graph.
const (
	CapabilityCustomerData    = "customer_data"
	CapabilityCustomerSupport = "customer_support"
)

// Complexity tiers.
const (
	ComplexitySimple   = "simple"
	ComplexityModerate = "moderate"
	ComplexityComplex  = "complex"
)

// Intent is the result of classifying a query.
type Intent struct {
	// Primary is the first required capability, or empty when the query
	// could not be understood.
	Primary string

	// Required lists needed capabilities in handling order.
	Required []string

	// Keywords are the query terms that triggered the classification.
	Keywords []string

	// Complexity is one of the Complexity tiers.
	Complexity string
}

// Classifier turns a free-text query into required capabilities and a
// complexity tier. Implementations must degrade to a deterministic result
// rather than propagate failures.
type Classifier interface {
	Classify(ctx context.Context, query string) (Intent, error)
}

// Keyword sets for the deterministic classifier. Support terms are checked
// first: a query that both reports an issue and references account data is
// handled by the support agent, which requests customer context itself.
var (
	supportKeywords = []string{"help", "issue", "problem", "support", "ticket", "cancel", "refund", "billing", "error"}
	dataKeywords    = []string{"customer", "account", "information", "details", "id", "email", "phone"}
	updateKeywords  = []string{"update", "change", "modify", "upgrade"}
	breadthKeywords = []string{"all", "list", "every", "multiple"}
)

// KeywordClassifier classifies queries with fixed keyword sets. It is the
// default classifier and the fallback behind LLMClassifier.
type KeywordClassifier struct{}

var _ Classifier = (*KeywordClassifier)(nil)

// NewKeywordClassifier creates a keyword-based classifier.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{}
}

// Classify never fails; the error return satisfies the Classifier
// interface.
func (c *KeywordClassifier) Classify(ctx context.Context, query string) (Intent, error) {
	lower := strings.ToLower(query)

	var required, keywords []string
	addCapability := func(capability string) {
		for _, existing := range required {
			if existing == capability {
				return
			}
		}
		required = append(required, capability)
	}
	matchAny := func(words []string) bool {
		matched := false
		for _, w := range words {
			if strings.Contains(lower, w) {
				keywords = append(keywords, w)
				matched = true
			}
		}
		return matched
	}

	if matchAny(supportKeywords) {
		addCapability(CapabilityCustomerSupport)
	}
	if matchAny(dataKeywords) {
		addCapability(CapabilityCustomerData)
	}
	if matchAny(updateKeywords) {
		addCapability(CapabilityCustomerData)
	}

	complexity := ComplexitySimple
	switch {
	case len(required) > 1:
		complexity = ComplexityComplex
	case matchAny(breadthKeywords):
		complexity = ComplexityModerate
	}

	intent := Intent{
		Required:   required,
		Keywords:   keywords,
		Complexity: complexity,
	}
	if len(required) > 0 {
		intent.Primary = required[0]
	}
	return intent, nil
}
