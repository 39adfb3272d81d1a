package eval

import (
	"encoding/json"
	"fmt"
	"math"
)

// TestCaseResult is the outcome of evaluating one test case.
type TestCaseResult struct {
	TestCase       TestCase       `json:"test_case"`
	Metrics        []MetricResult `json:"metrics"`
	OverallSuccess bool           `json:"overall_success"`
	ExecutionTime  float64        `json:"execution_time,omitempty"` // seconds

	// For arena test cases
	Winner string `json:"winner,omitempty"`
}

// testCaseResultJSON mirrors TestCaseResult with a raw test case payload so
// the tagged union survives a decode round trip.
type testCaseResultJSON struct {
	TestCase       json.RawMessage `json:"test_case"`
	Metrics        []MetricResult  `json:"metrics"`
	OverallSuccess bool            `json:"overall_success"`
	ExecutionTime  float64         `json:"execution_time,omitempty"`
	Winner         string          `json:"winner,omitempty"`
}

// MarshalJSON implements custom marshaling for TestCaseResult.
func (r TestCaseResult) MarshalJSON() ([]byte, error) {
	raw := testCaseResultJSON{
		Metrics:        r.Metrics,
		OverallSuccess: r.OverallSuccess,
		ExecutionTime:  r.ExecutionTime,
		Winner:         r.Winner,
	}
	if r.TestCase != nil {
		data, err := MarshalTestCase(r.TestCase)
		if err != nil {
			return nil, err
		}
		raw.TestCase = data
	}
	return json.Marshal(raw)
}

// UnmarshalJSON implements custom unmarshaling for TestCaseResult.
func (r *TestCaseResult) UnmarshalJSON(data []byte) error {
	var raw testCaseResultJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	r.Metrics = raw.Metrics
	r.OverallSuccess = raw.OverallSuccess
	r.ExecutionTime = raw.ExecutionTime
	r.Winner = raw.Winner

	if len(raw.TestCase) > 0 && string(raw.TestCase) != "null" {
		tc, err := UnmarshalTestCase(raw.TestCase)
		if err != nil {
			return fmt.Errorf("failed to unmarshal result test case: %w", err)
		}
		r.TestCase = tc
	}
	return nil
}

// MetricSummary aggregates one metric type across a batch.
type MetricSummary struct {
	Count        int     `json:"count"`
	Passed       int     `json:"passed"`
	Failed       int     `json:"failed"`
	AverageScore float64 `json:"average_score"`
	MinScore     float64 `json:"min_score"`
	MaxScore     float64 `json:"max_score"`
}

// Summary holds aggregate statistics for a batch evaluation.
type Summary struct {
	TotalTestCases      int     `json:"total_test_cases"`
	SuccessfulTestCases int     `json:"successful_test_cases"`
	FailedTestCases     int     `json:"failed_test_cases"`
	SuccessRate         float64 `json:"success_rate"`
	TotalExecutionTime  float64 `json:"total_execution_time,omitempty"`

	MetricSummaries map[MetricType]MetricSummary `json:"metric_summaries,omitempty"`
}

// Summarize aggregates per-case outcomes into a Summary. Missing execution
// times count as zero. Per-metric stats are grouped by metric type across all
// cases.
func Summarize(results []TestCaseResult) Summary {
	s := Summary{
		TotalTestCases:  len(results),
		MetricSummaries: make(map[MetricType]MetricSummary),
	}

	scoreTotals := make(map[MetricType]float64)
	for _, r := range results {
		if r.OverallSuccess {
			s.SuccessfulTestCases++
		} else {
			s.FailedTestCases++
		}
		s.TotalExecutionTime += r.ExecutionTime

		for _, m := range r.Metrics {
			ms := s.MetricSummaries[m.Type]
			if ms.Count == 0 {
				ms.MinScore = m.Score
				ms.MaxScore = m.Score
			} else {
				ms.MinScore = math.Min(ms.MinScore, m.Score)
				ms.MaxScore = math.Max(ms.MaxScore, m.Score)
			}
			ms.Count++
			if m.Success {
				ms.Passed++
			} else {
				ms.Failed++
			}
			scoreTotals[m.Type] += m.Score
			s.MetricSummaries[m.Type] = ms
		}
	}

	if s.TotalTestCases > 0 {
		s.SuccessRate = float64(s.SuccessfulTestCases) / float64(s.TotalTestCases)
	}
	for t, ms := range s.MetricSummaries {
		ms.AverageScore = scoreTotals[t] / float64(ms.Count)
		s.MetricSummaries[t] = ms
	}
	return s
}
