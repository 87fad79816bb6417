package classify

import (
	"context"
	"encoding/json"

	"github.com/tmc/langchaingo/llms"

	"github.com/stackmesh/concierge/log"
)

const classifySystemPrompt = "You are an intent classifier for a customer service system. " +
	"Given a user query, decide which capabilities are required to handle it and how complex it is. " +
	"Available capabilities: customer_data (account lookups, listings, profile updates) and " +
	"customer_support (issues, tickets, cancellations, refunds). " +
	"You MUST use the 'classify' tool to report your decision. Do not provide any other text response."

// LLMClassifier classifies queries with a language model, forcing a tool
// call so the answer is structured. Any model failure, or an answer naming
// no capability, degrades to the keyword classifier so classification stays
// deterministic under outages.
type LLMClassifier struct {
	model    llms.Model
	fallback Classifier
	logger   log.Logger
}

var _ Classifier = (*LLMClassifier)(nil)

// NewLLMClassifier creates an LLM-backed classifier with a keyword
// fallback.
func NewLLMClassifier(model llms.Model) *LLMClassifier {
	return &LLMClassifier{
		model:    model,
		fallback: NewKeywordClassifier(),
		logger:   log.GetDefaultLogger(),
	}
}

// SetLogger replaces the classifier's logger.
func (c *LLMClassifier) SetLogger(logger log.Logger) {
	if logger != nil {
		c.logger = logger
	}
}

// Classify asks the model for required capabilities and a complexity tier.
func (c *LLMClassifier) Classify(ctx context.Context, query string) (Intent, error) {
	classifyTool := llms.Tool{
		Type: "function",
		Function: &llms.FunctionDefinition{
			Name:        "classify",
			Description: "Report the capabilities required to handle the query.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"required_capabilities": map[string]any{
						"type": "array",
						"items": map[string]any{
							"type": "string",
							"enum": []string{CapabilityCustomerData, CapabilityCustomerSupport},
						},
					},
					"complexity": map[string]any{
						"type": "string",
						"enum": []string{ComplexitySimple, ComplexityModerate, ComplexityComplex},
					},
				},
				"required": []string{"required_capabilities", "complexity"},
			},
		},
	}

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, classifySystemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, query),
	}
	toolChoice := llms.ToolChoice{
		Type:     "function",
		Function: &llms.FunctionReference{Name: "classify"},
	}

	resp, err := c.model.GenerateContent(ctx, messages,
		llms.WithTools([]llms.Tool{classifyTool}),
		llms.WithToolChoice(toolChoice),
	)
	if err != nil {
		c.logger.Warn("llm classification failed, using keyword fallback: %v", err)
		return c.fallback.Classify(ctx, query)
	}

	if len(resp.Choices) == 0 || len(resp.Choices[0].ToolCalls) == 0 {
		c.logger.Warn("llm classifier returned no tool call, using keyword fallback")
		return c.fallback.Classify(ctx, query)
	}

	var args struct {
		RequiredCapabilities []string `json:"required_capabilities"`
		Complexity           string   `json:"complexity"`
	}
	tc := resp.Choices[0].ToolCalls[0]
	if tc.FunctionCall == nil {
		c.logger.Warn("llm classifier returned a tool call without a function call, using keyword fallback")
		return c.fallback.Classify(ctx, query)
	}
	if err := json.Unmarshal([]byte(tc.FunctionCall.Arguments), &args); err != nil {
		c.logger.Warn("could not parse llm classification, using keyword fallback: %v", err)
		return c.fallback.Classify(ctx, query)
	}

	required := make([]string, 0, len(args.RequiredCapabilities))
	for _, capability := range args.RequiredCapabilities {
		if capability == CapabilityCustomerData || capability == CapabilityCustomerSupport {
			required = append(required, capability)
		}
	}
	if len(required) == 0 {
		return c.fallback.Classify(ctx, query)
	}

	complexity := args.Complexity
	switch complexity {
	case ComplexitySimple, ComplexityModerate, ComplexityComplex:
	default:
		complexity = ComplexitySimple
	}

	return Intent{
		Primary:    required[0],
		Required:   required,
		Complexity: complexity,
	}, nil
}
