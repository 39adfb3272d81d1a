package eval

import (
	"encoding/json"
	"fmt"
)

// envelope is used for initial JSON unmarshaling to determine the case type.
type envelope struct {
	Type string `json:"type"`
}

// UnmarshalTestCase unmarshals a JSON test case into the appropriate concrete type.
func UnmarshalTestCase(data []byte) (TestCase, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to determine test case type: %w", err)
	}

	var tc TestCase
	switch env.Type {
	case CaseTypeLLM, "": // single-turn is the default variant
		tc = &LLMTestCase{}
	case CaseTypeConversational:
		tc = &ConversationalTestCase{}
	case CaseTypeMultimodal:
		tc = &MultimodalTestCase{}
	case CaseTypeArena:
		tc = &ArenaTestCase{}
	default:
		return nil, fmt.Errorf("unknown test case type: %q", env.Type)
	}

	if err := json.Unmarshal(data, tc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s test case: %w", tc.CaseType(), err)
	}

	return tc, nil
}

// UnmarshalTestCases unmarshals a JSON array of test cases.
func UnmarshalTestCases(data []byte) ([]TestCase, error) {
	var rawCases []json.RawMessage
	if err := json.Unmarshal(data, &rawCases); err != nil {
		return nil, fmt.Errorf("failed to unmarshal test case array: %w", err)
	}

	cases := make([]TestCase, 0, len(rawCases))
	for i, raw := range rawCases {
		tc, err := UnmarshalTestCase(raw)
		if err != nil {
			return nil, fmt.Errorf("test_cases[%d]: %w", i, err)
		}
		cases = append(cases, tc)
	}

	return cases, nil
}

// MarshalTestCase marshals a test case with its type field included.
func MarshalTestCase(tc TestCase) ([]byte, error) {
	data, err := json.Marshal(tc)
	if err != nil {
		return nil, err
	}

	// Inject the type field
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	m["type"] = tc.CaseType()

	return json.Marshal(m)
}

// MarshalTestCases marshals a slice of test cases.
func MarshalTestCases(cases []TestCase) ([]byte, error) {
	result := make([]json.RawMessage, 0, len(cases))
	for _, tc := range cases {
		data, err := MarshalTestCase(tc)
		if err != nil {
			return nil, err
		}
		result = append(result, data)
	}
	return json.Marshal(result)
}
