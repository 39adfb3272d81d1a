package job

import (
	"context"
	"fmt"
	"time"

	"evalapi/internal/eval"
	"evalapi/internal/observability"
)

// MaxConcurrency is the hard ceiling on the per-job concurrency bound. It
// protects the evaluation engine and its rate-limited judge models no matter
// what a request asks for.
const MaxConcurrency = 10

// ProgressFunc receives cumulative progress after each chunk.
type ProgressFunc func(completed, total int, message string)

// Runner executes a batch of test cases as ordered, concurrency-bounded
// chunks against the evaluation engine.
//
// Chunking trades raw throughput for incremental progress: one bulk call of
// size N might finish sooner, but reporting after every chunk keeps polling
// clients informed and caps peak engine load at the concurrency bound
// regardless of batch size.
type Runner struct {
	evaluator eval.Evaluator
	metrics   *observability.Metrics
}

// NewRunner creates a batch runner over the given evaluator.
func NewRunner(evaluator eval.Evaluator, metrics *observability.Metrics) *Runner {
	return &Runner{
		evaluator: evaluator,
		metrics:   metrics,
	}
}

// ClampConcurrency bounds a requested concurrency into [1, MaxConcurrency].
// Non-positive values fall back to the provided default.
func ClampConcurrency(requested, fallback int) int {
	c := requested
	if c <= 0 {
		c = fallback
	}
	if c <= 0 {
		c = 1
	}
	if c > MaxConcurrency {
		c = MaxConcurrency
	}
	return c
}

// Run evaluates cases in contiguous chunks of at most concurrency, strictly
// in order, invoking report after each chunk. The concatenated results
// preserve input order. Any chunk error aborts the whole run with no partial
// results returned; the context is checked between chunks so an advisory
// cancellation takes effect at the next chunk boundary.
func (r *Runner) Run(ctx context.Context, cases []eval.TestCase, metrics []eval.MetricConfig, concurrency int, report ProgressFunc) ([]eval.TestCaseResult, eval.Summary, error) {
	concurrency = ClampConcurrency(concurrency, MaxConcurrency)
	total := len(cases)
	results := make([]eval.TestCaseResult, 0, total)

	for start := 0; start < total; start += concurrency {
		if err := ctx.Err(); err != nil {
			return nil, eval.Summary{}, err
		}

		end := min(start+concurrency, total)
		chunk := cases[start:end]

		chunkStart := time.Now()
		bulk, err := r.evaluator.EvaluateBulk(ctx, chunk, metrics, concurrency)
		if err != nil {
			return nil, eval.Summary{}, err
		}
		if r.metrics != nil {
			r.metrics.RecordChunk(ctx, len(chunk), time.Since(chunkStart).Seconds())
		}

		results = append(results, bulk.Results...)

		if report != nil {
			report(end, total, fmt.Sprintf("Processed %d/%d test cases", end, total))
		}
	}

	return results, eval.Summarize(results), nil
}
