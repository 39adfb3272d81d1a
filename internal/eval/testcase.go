// Package eval defines the evaluation domain types and the client for the
// upstream scoring engine.
package eval

import "evalapi/internal/apperrors"

// Case type tags used in the JSON envelope.
const (
	CaseTypeLLM            = "llm"
	CaseTypeConversational = "conversational"
	CaseTypeMultimodal     = "multimodal"
	CaseTypeArena          = "arena"
)

// TestCase is the interface for all test case variants.
// Concrete types carry the fields relevant to their evaluation mode; the
// envelope codec in json.go resolves the variant from the "type" field.
type TestCase interface {
	CaseType() string
	Validate() error
}

// ToolCall describes a tool invocation made or expected during a turn.
type ToolCall struct {
	Name            string         `json:"name"`
	Description     string         `json:"description,omitempty"`
	Reasoning       string         `json:"reasoning,omitempty"`
	Output          any            `json:"output,omitempty"`
	InputParameters map[string]any `json:"input_parameters,omitempty"`
}

// LLMTestCase is a single-turn exchange.
type LLMTestCase struct {
	Input            string     `json:"input"`
	ActualOutput     string     `json:"actual_output"`
	ExpectedOutput   string     `json:"expected_output,omitempty"`
	Context          []string   `json:"context,omitempty"`
	RetrievalContext []string   `json:"retrieval_context,omitempty"`
	ToolsCalled      []ToolCall `json:"tools_called,omitempty"`
	ExpectedTools    []ToolCall `json:"expected_tools,omitempty"`
	Name             string     `json:"name,omitempty"`
}

func (c *LLMTestCase) CaseType() string { return CaseTypeLLM }

func (c *LLMTestCase) Validate() error {
	if c.Input == "" {
		return apperrors.Validation("input", "input is required")
	}
	if c.ActualOutput == "" {
		return apperrors.Validation("actual_output", "actual_output is required")
	}
	return nil
}

// Turn is one exchange in a conversational test case.
type Turn struct {
	Role             string   `json:"role"` // "user" or "assistant"
	Content          string   `json:"content"`
	RetrievalContext []string `json:"retrieval_context,omitempty"`
}

// ConversationalTestCase is a multi-turn conversation.
type ConversationalTestCase struct {
	Turns           []Turn   `json:"turns"`
	ChatbotRole     string   `json:"chatbot_role,omitempty"`
	Scenario        string   `json:"scenario,omitempty"`
	ExpectedOutcome string   `json:"expected_outcome,omitempty"`
	Context         []string `json:"context,omitempty"`
	Name            string   `json:"name,omitempty"`
}

func (c *ConversationalTestCase) CaseType() string { return CaseTypeConversational }

func (c *ConversationalTestCase) Validate() error {
	if len(c.Turns) == 0 {
		return apperrors.Validation("turns", "at least one turn is required")
	}
	for _, turn := range c.Turns {
		if turn.Role != "user" && turn.Role != "assistant" {
			return apperrors.Validation("turns", "turn role must be \"user\" or \"assistant\"")
		}
		if turn.Content == "" {
			return apperrors.Validation("turns", "turn content is required")
		}
	}
	return nil
}

// ContentPart is one piece of a multimodal input: text or an image reference.
type ContentPart struct {
	Type        string `json:"type"` // "text" or "image"
	Text        string `json:"text,omitempty"`
	URL         string `json:"url,omitempty"`
	Description string `json:"description,omitempty"`
}

// MultimodalTestCase is a vision test case mixing text and images.
type MultimodalTestCase struct {
	Input            []ContentPart `json:"input"`
	ActualOutput     string        `json:"actual_output"`
	ExpectedOutput   string        `json:"expected_output,omitempty"`
	Context          []string      `json:"context,omitempty"`
	RetrievalContext []string      `json:"retrieval_context,omitempty"`
	Name             string        `json:"name,omitempty"`
}

func (c *MultimodalTestCase) CaseType() string { return CaseTypeMultimodal }

func (c *MultimodalTestCase) Validate() error {
	if len(c.Input) == 0 {
		return apperrors.Validation("input", "input is required")
	}
	for _, part := range c.Input {
		switch part.Type {
		case "text":
			if part.Text == "" {
				return apperrors.Validation("input", "text part requires text")
			}
		case "image":
			if part.URL == "" {
				return apperrors.Validation("input", "image part requires url")
			}
		default:
			return apperrors.Validation("input", "content part type must be \"text\" or \"image\"")
		}
	}
	if c.ActualOutput == "" {
		return apperrors.Validation("actual_output", "actual_output is required")
	}
	return nil
}

// ArenaTestCase compares the outputs of two models on the same input.
type ArenaTestCase struct {
	Input        string `json:"input"`
	ModelAOutput string `json:"model_a_output"`
	ModelBOutput string `json:"model_b_output"`
	ModelAName   string `json:"model_a_name,omitempty"`
	ModelBName   string `json:"model_b_name,omitempty"`
	Name         string `json:"name,omitempty"`
}

func (c *ArenaTestCase) CaseType() string { return CaseTypeArena }

func (c *ArenaTestCase) Validate() error {
	if c.Input == "" {
		return apperrors.Validation("input", "input is required")
	}
	if c.ModelAOutput == "" || c.ModelBOutput == "" {
		return apperrors.Validation("input", "both model outputs are required")
	}
	return nil
}
