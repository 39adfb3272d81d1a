package eval

import "evalapi/internal/apperrors"

// MetricType identifies a scoring method supported by the evaluation engine.
type MetricType string

const (
	// RAG metrics
	MetricFaithfulness        MetricType = "faithfulness"
	MetricAnswerRelevancy     MetricType = "answer_relevancy"
	MetricContextualPrecision MetricType = "contextual_precision"
	MetricContextualRecall    MetricType = "contextual_recall"
	MetricContextualRelevancy MetricType = "contextual_relevancy"

	// Safety metrics
	MetricBias          MetricType = "bias"
	MetricToxicity      MetricType = "toxicity"
	MetricHallucination MetricType = "hallucination"
	MetricPIILeakage    MetricType = "pii_leakage"

	// Task metrics
	MetricSummarization   MetricType = "summarization"
	MetricToolCorrectness MetricType = "tool_correctness"
	MetricJSONCorrectness MetricType = "json_correctness"
	MetricTaskCompletion  MetricType = "task_completion"

	// Behavioral metrics
	MetricRoleAdherence      MetricType = "role_adherence"
	MetricPromptAlignment    MetricType = "prompt_alignment"
	MetricKnowledgeRetention MetricType = "knowledge_retention"

	// Conversational metrics
	MetricTurnRelevancy            MetricType = "turn_relevancy"
	MetricConversationCompleteness MetricType = "conversation_completeness"

	// Custom metrics
	MetricGEval      MetricType = "g_eval"
	MetricArenaGEval MetricType = "arena_g_eval"

	// Multimodal metrics
	MetricMultimodalFaithfulness    MetricType = "multimodal_faithfulness"
	MetricMultimodalAnswerRelevancy MetricType = "multimodal_answer_relevancy"
)

// MetricConfig configures one metric for an evaluation run.
type MetricConfig struct {
	Type          MetricType `json:"metric_type"`
	Threshold     float64    `json:"threshold,omitempty"` // pass/fail cutoff, engine defaults to 0.5
	Model         string     `json:"model,omitempty"`     // judge model override
	IncludeReason bool       `json:"include_reason,omitempty"`
	StrictMode    bool       `json:"strict_mode,omitempty"`

	// G-Eval parameters
	Name            string   `json:"name,omitempty"`
	Criteria        string   `json:"criteria,omitempty"`
	EvaluationSteps []string `json:"evaluation_steps,omitempty"`

	// Behavioral parameters
	Role               string `json:"role,omitempty"`
	PromptInstructions string `json:"prompt_instructions,omitempty"`

	// Engine-specific extras, passed through opaquely
	AdditionalParams map[string]any `json:"additional_params,omitempty"`
}

// Validate checks that the metric configuration is well formed.
func (m *MetricConfig) Validate() error {
	if m.Type == "" {
		return apperrors.Validation("metric_type", "metric_type is required")
	}
	if _, ok := catalogIndex[m.Type]; !ok {
		return apperrors.Validation("metric_type", "unknown metric type: "+string(m.Type))
	}
	if m.Threshold < 0 || m.Threshold > 1 {
		return apperrors.Validation("threshold", "threshold must be between 0 and 1")
	}
	if m.Type == MetricGEval || m.Type == MetricArenaGEval {
		if m.Criteria == "" && len(m.EvaluationSteps) == 0 {
			return apperrors.Validation("criteria", "g_eval metrics require criteria or evaluation_steps")
		}
		if m.Criteria != "" && len(m.EvaluationSteps) > 0 {
			return apperrors.Validation("criteria", "criteria and evaluation_steps are mutually exclusive")
		}
	}
	return nil
}

// MetricResult is the engine's verdict for one metric on one test case.
type MetricResult struct {
	Type      MetricType `json:"metric_type"`
	Score     float64    `json:"score"`
	Threshold float64    `json:"threshold"`
	Success   bool       `json:"success"`
	Reason    string     `json:"reason,omitempty"`
	Error     string     `json:"error,omitempty"`

	EvaluationModel string  `json:"evaluation_model,omitempty"`
	EvaluationCost  float64 `json:"evaluation_cost,omitempty"`

	// For arena metrics
	Winner string `json:"winner,omitempty"`
}
