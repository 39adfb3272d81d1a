package eval

// Info describes a metric for the catalog endpoint.
type Info struct {
	Type           MetricType `json:"metric_type"`
	Name           string     `json:"name"`
	Description    string     `json:"description"`
	Category       string     `json:"category"`
	RequiredParams []string   `json:"required_params"`
	Conversational bool       `json:"supports_conversational"`
	Multimodal     bool       `json:"supports_multimodal"`
}

// catalog lists every metric the service accepts, in display order.
var catalog = []Info{
	{MetricFaithfulness, "Faithfulness", "Whether the output is factually consistent with the retrieval context", "rag", []string{"input", "actual_output", "retrieval_context"}, false, false},
	{MetricAnswerRelevancy, "Answer Relevancy", "Whether the output addresses the input", "rag", []string{"input", "actual_output"}, false, false},
	{MetricContextualPrecision, "Contextual Precision", "Whether relevant context nodes rank above irrelevant ones", "rag", []string{"input", "actual_output", "expected_output", "retrieval_context"}, false, false},
	{MetricContextualRecall, "Contextual Recall", "Whether the retrieval context covers the expected output", "rag", []string{"input", "actual_output", "expected_output", "retrieval_context"}, false, false},
	{MetricContextualRelevancy, "Contextual Relevancy", "Overall relevance of the retrieval context to the input", "rag", []string{"input", "actual_output", "retrieval_context"}, false, false},

	{MetricBias, "Bias", "Presence of gender, racial, religious or political bias", "safety", []string{"input", "actual_output"}, false, false},
	{MetricToxicity, "Toxicity", "Presence of toxic language", "safety", []string{"input", "actual_output"}, false, false},
	{MetricHallucination, "Hallucination", "Whether the output contradicts the provided context", "safety", []string{"input", "actual_output", "context"}, false, false},
	{MetricPIILeakage, "PII Leakage", "Whether the output exposes personally identifiable information", "safety", []string{"input", "actual_output"}, false, false},

	{MetricSummarization, "Summarization", "Quality of a summary against its source text", "task", []string{"input", "actual_output"}, false, false},
	{MetricToolCorrectness, "Tool Correctness", "Whether the expected tools were called", "task", []string{"input", "actual_output", "tools_called", "expected_tools"}, false, false},
	{MetricJSONCorrectness, "JSON Correctness", "Whether the output conforms to the expected JSON schema", "task", []string{"input", "actual_output"}, false, false},
	{MetricTaskCompletion, "Task Completion", "Whether the agent completed the requested task", "task", []string{"input", "actual_output"}, false, false},

	{MetricRoleAdherence, "Role Adherence", "Whether the assistant stays in its assigned role", "behavioral", []string{"turns"}, true, false},
	{MetricPromptAlignment, "Prompt Alignment", "Whether the output follows the prompt instructions", "behavioral", []string{"input", "actual_output"}, false, false},
	{MetricKnowledgeRetention, "Knowledge Retention", "Whether the assistant retains facts across turns", "behavioral", []string{"turns"}, true, false},

	{MetricTurnRelevancy, "Turn Relevancy", "Relevance of each assistant turn to the conversation", "conversational", []string{"turns"}, true, false},
	{MetricConversationCompleteness, "Conversation Completeness", "Whether the conversation satisfies the user's intent", "conversational", []string{"turns"}, true, false},

	{MetricGEval, "G-Eval", "Custom criteria scored by an LLM judge", "custom", []string{"input", "actual_output"}, false, false},
	{MetricArenaGEval, "Arena G-Eval", "Pairwise comparison of two model outputs by custom criteria", "custom", []string{"input", "model_a_output", "model_b_output"}, false, false},

	{MetricMultimodalFaithfulness, "Multimodal Faithfulness", "Faithfulness for image+text inputs", "multimodal", []string{"input", "actual_output", "retrieval_context"}, false, true},
	{MetricMultimodalAnswerRelevancy, "Multimodal Answer Relevancy", "Answer relevancy for image+text inputs", "multimodal", []string{"input", "actual_output"}, false, true},
}

var catalogIndex = func() map[MetricType]Info {
	idx := make(map[MetricType]Info, len(catalog))
	for _, info := range catalog {
		idx[info.Type] = info
	}
	return idx
}()

// Catalog returns all supported metrics in display order.
func Catalog() []Info {
	out := make([]Info, len(catalog))
	copy(out, catalog)
	return out
}

// Categories groups the catalog by category, preserving display order within
// each group.
func Categories() map[string][]Info {
	out := make(map[string][]Info)
	for _, info := range catalog {
		out[info.Category] = append(out[info.Category], info)
	}
	return out
}

// Lookup returns the catalog entry for a metric type.
func Lookup(t MetricType) (Info, bool) {
	info, ok := catalogIndex[t]
	return info, ok
}
