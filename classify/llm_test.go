package classify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/stackmesh/concierge/log"
)

type classifierMockLLM struct {
	response    *llms.ContentResponse
	returnError error
}

func (m *classifierMockLLM) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	if m.returnError != nil {
		return nil, m.returnError
	}
	return m.response, nil
}

func (m *classifierMockLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return "", nil
}

func toolCallResponse(arguments string) *llms.ContentResponse {
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{
			{
				ToolCalls: []llms.ToolCall{
					{
						FunctionCall: &llms.FunctionCall{
							Name:      "classify",
							Arguments: arguments,
						},
					},
				},
			},
		},
	}
}

func newTestLLMClassifier(mock *classifierMockLLM) *LLMClassifier {
	c := NewLLMClassifier(mock)
	c.SetLogger(&log.NoOpLogger{})
	return c
}

func TestLLMClassifier_StructuredAnswer(t *testing.T) {
	mock := &classifierMockLLM{
		response: toolCallResponse(`{"required_capabilities":["customer_support","customer_data"],"complexity":"complex"}`),
	}
	c := newTestLLMClassifier(mock)

	intent, err := c.Classify(context.Background(), "I need help with my account, customer ID 1")
	require.NoError(t, err)
	assert.Equal(t, CapabilityCustomerSupport, intent.Primary)
	assert.Equal(t, []string{CapabilityCustomerSupport, CapabilityCustomerData}, intent.Required)
	assert.Equal(t, ComplexityComplex, intent.Complexity)
}

func TestLLMClassifier_ModelErrorFallsBack(t *testing.T) {
	mock := &classifierMockLLM{returnError: errors.New("model unavailable")}
	c := newTestLLMClassifier(mock)

	intent, err := c.Classify(context.Background(), "Get customer information for ID 5")
	require.NoError(t, err)
	assert.Equal(t, CapabilityCustomerData, intent.Primary)
}

func TestLLMClassifier_NoToolCallFallsBack(t *testing.T) {
	mock := &classifierMockLLM{
		response: &llms.ContentResponse{
			Choices: []*llms.ContentChoice{{Content: "I think this is about billing"}},
		},
	}
	c := newTestLLMClassifier(mock)

	intent, err := c.Classify(context.Background(), "billing issue")
	require.NoError(t, err)
	assert.Equal(t, CapabilityCustomerSupport, intent.Primary)
}

func TestLLMClassifier_NonFunctionToolCallFallsBack(t *testing.T) {
	mock := &classifierMockLLM{
		response: &llms.ContentResponse{
			Choices: []*llms.ContentChoice{
				{ToolCalls: []llms.ToolCall{{ID: "call-1", Type: "retrieval"}}},
			},
		},
	}
	c := newTestLLMClassifier(mock)

	intent, err := c.Classify(context.Background(), "billing issue")
	require.NoError(t, err)
	assert.Equal(t, CapabilityCustomerSupport, intent.Primary)
}

func TestLLMClassifier_UnknownCapabilitiesDropped(t *testing.T) {
	mock := &classifierMockLLM{
		response: toolCallResponse(`{"required_capabilities":["world_domination","customer_data"],"complexity":"weird"}`),
	}
	c := newTestLLMClassifier(mock)

	intent, err := c.Classify(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, []string{CapabilityCustomerData}, intent.Required)
	assert.Equal(t, ComplexitySimple, intent.Complexity)
}

func TestLLMClassifier_MalformedArgumentsFallsBack(t *testing.T) {
	mock := &classifierMockLLM{response: toolCallResponse(`{not json`)}
	c := newTestLLMClassifier(mock)

	intent, err := c.Classify(context.Background(), "update my email, customer 3")
	require.NoError(t, err)
	assert.Equal(t, CapabilityCustomerData, intent.Primary)
}
