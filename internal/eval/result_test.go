package eval

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func passingResult(score, execTime float64) TestCaseResult {
	return TestCaseResult{
		TestCase:       &LLMTestCase{Input: "q", ActualOutput: "a"},
		Metrics:        []MetricResult{{Type: MetricAnswerRelevancy, Score: score, Threshold: 0.5, Success: score >= 0.5}},
		OverallSuccess: score >= 0.5,
		ExecutionTime:  execTime,
	}
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	results := []TestCaseResult{
		passingResult(0.9, 1.5),
		passingResult(0.7, 2.0),
		passingResult(0.2, 0), // failed, no execution time recorded
	}

	s := Summarize(results)

	assert.Equal(t, 3, s.TotalTestCases)
	assert.Equal(t, 2, s.SuccessfulTestCases)
	assert.Equal(t, 1, s.FailedTestCases)
	assert.InDelta(t, 2.0/3.0, s.SuccessRate, 1e-9)
	assert.InDelta(t, 3.5, s.TotalExecutionTime, 1e-9)

	ms, ok := s.MetricSummaries[MetricAnswerRelevancy]
	require.True(t, ok)
	assert.Equal(t, 3, ms.Count)
	assert.Equal(t, 2, ms.Passed)
	assert.Equal(t, 1, ms.Failed)
	assert.InDelta(t, 0.6, ms.AverageScore, 1e-9)
	assert.InDelta(t, 0.2, ms.MinScore, 1e-9)
	assert.InDelta(t, 0.9, ms.MaxScore, 1e-9)
}

func TestSummarize_Empty(t *testing.T) {
	t.Parallel()

	s := Summarize(nil)
	assert.Equal(t, 0, s.TotalTestCases)
	assert.Equal(t, 0.0, s.SuccessRate)
	assert.Empty(t, s.MetricSummaries)
}

func TestTestCaseResult_JSONRoundTrip(t *testing.T) {
	t.Parallel()

	original := TestCaseResult{
		TestCase: &ArenaTestCase{
			Input:        "which is better",
			ModelAOutput: "foo",
			ModelBOutput: "bar",
			ModelAName:   "Model A",
			ModelBName:   "Model B",
		},
		Metrics:        []MetricResult{{Type: MetricArenaGEval, Score: 1, Threshold: 0.5, Success: true, Winner: "Model B"}},
		OverallSuccess: true,
		Winner:         "Model B",
	}

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded TestCaseResult
	require.NoError(t, json.Unmarshal(data, &decoded))

	arena, ok := decoded.TestCase.(*ArenaTestCase)
	require.True(t, ok, "expected *ArenaTestCase, got %T", decoded.TestCase)
	assert.Equal(t, "which is better", arena.Input)
	assert.Equal(t, "Model B", decoded.Winner)
	assert.Equal(t, original.Metrics, decoded.Metrics)
}

func TestMetricConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     MetricConfig
		wantErr bool
	}{
		{"missing type", MetricConfig{}, true},
		{"unknown type", MetricConfig{Type: "vibes"}, true},
		{"threshold out of range", MetricConfig{Type: MetricBias, Threshold: 1.5}, true},
		{"g_eval without criteria", MetricConfig{Type: MetricGEval}, true},
		{"g_eval with both criteria and steps", MetricConfig{Type: MetricGEval, Criteria: "c", EvaluationSteps: []string{"s"}}, true},
		{"g_eval with criteria", MetricConfig{Type: MetricGEval, Criteria: "is it helpful"}, false},
		{"plain metric", MetricConfig{Type: MetricFaithfulness, Threshold: 0.7}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCatalog(t *testing.T) {
	t.Parallel()

	all := Catalog()
	assert.NotEmpty(t, all)

	byCategory := Categories()
	var total int
	for _, infos := range byCategory {
		total += len(infos)
	}
	assert.Equal(t, len(all), total)

	info, ok := Lookup(MetricFaithfulness)
	require.True(t, ok)
	assert.Equal(t, "rag", info.Category)

	_, ok = Lookup("nonsense")
	assert.False(t, ok)
}
