package classify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeywordClassifier(t *testing.T) {
	c := NewKeywordClassifier()
	ctx := context.Background()

	tests := []struct {
		name       string
		query      string
		primary    string
		required   []string
		complexity string
	}{
		{
			name:       "data only",
			query:      "Get customer information for ID 5",
			primary:    CapabilityCustomerData,
			required:   []string{CapabilityCustomerData},
			complexity: ComplexitySimple,
		},
		{
			name:       "support and data",
			query:      "I need help with my account, customer ID 1",
			primary:    CapabilityCustomerSupport,
			required:   []string{CapabilityCustomerSupport, CapabilityCustomerData},
			complexity: ComplexityComplex,
		},
		{
			name:       "update implies data",
			query:      "Please upgrade my plan",
			primary:    CapabilityCustomerData,
			required:   []string{CapabilityCustomerData},
			complexity: ComplexitySimple,
		},
		{
			name:       "listing is moderate",
			query:      "Show all active customers",
			primary:    CapabilityCustomerData,
			required:   []string{CapabilityCustomerData},
			complexity: ComplexityModerate,
		},
		{
			name:       "no intent detected",
			query:      "The weather is nice today",
			primary:    "",
			required:   nil,
			complexity: ComplexitySimple,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intent, err := c.Classify(ctx, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.primary, intent.Primary)
			assert.Equal(t, tt.required, intent.Required)
			assert.Equal(t, tt.complexity, intent.Complexity)
		})
	}
}

func TestKeywordClassifier_Deterministic(t *testing.T) {
	c := NewKeywordClassifier()
	ctx := context.Background()

	first, err := c.Classify(ctx, "I have a billing issue with my account")
	require.NoError(t, err)
	second, err := c.Classify(ctx, "I have a billing issue with my account")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestKeywordClassifier_KeywordsRecorded(t *testing.T) {
	c := NewKeywordClassifier()

	intent, err := c.Classify(context.Background(), "urgent billing problem on my account")
	require.NoError(t, err)
	assert.Contains(t, intent.Keywords, "billing")
	assert.Contains(t, intent.Keywords, "problem")
	assert.Contains(t, intent.Keywords, "account")
}
