package eval

import "context"

// BulkResult is the engine's response for a bulk evaluation.
type BulkResult struct {
	Results []TestCaseResult `json:"results"`
	Summary Summary          `json:"summary"`
}

// Evaluator scores test cases against metrics.
//
// The evaluation engine is external; this interface is the whole contract the
// job subsystem depends on. EvaluateBulk parallelizes internally up to
// maxConcurrent, so callers bound peak load by chunking their input rather
// than by throttling individual calls.
type Evaluator interface {
	// EvaluateSingle scores one test case. An error means no result was
	// produced; caller state is never partially mutated.
	EvaluateSingle(ctx context.Context, tc TestCase, metrics []MetricConfig) (*TestCaseResult, error)

	// EvaluateBulk scores a batch of test cases with bounded parallelism,
	// returning per-case results in input order plus an aggregate summary.
	EvaluateBulk(ctx context.Context, cases []TestCase, metrics []MetricConfig, maxConcurrent int) (*BulkResult, error)

	// Ready checks if the engine is reachable.
	Ready(ctx context.Context) error
}
