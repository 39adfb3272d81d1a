package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"evalapi/internal/dataset"
	"evalapi/internal/eval"
	"evalapi/internal/observability"
)

// Notifier delivers a completion notification for a finished job. The
// dispatcher calls it once per job that reaches a terminal state with a
// callback URL set.
type Notifier interface {
	JobFinished(j *Job)
}

// Options carries the caller-supplied job attributes shared by every job type.
type Options struct {
	Name          string
	Tags          []string
	Metadata      map[string]any
	CallbackURL   string
	MaxConcurrent int
}

// SingleSpec describes an asynchronous single test case evaluation.
type SingleSpec struct {
	TestCase eval.TestCase
	Metrics  []eval.MetricConfig
}

// BulkSpec describes an asynchronous batch evaluation.
type BulkSpec struct {
	Cases   []eval.TestCase
	Metrics []eval.MetricConfig
}

// DatasetSpec describes an asynchronous evaluation of an uploaded dataset
// file. Parsing happens inside the job so oversized or malformed files fail
// the job rather than the upload request.
type DatasetSpec struct {
	Content       []byte
	Filename      string
	Format        string
	ColumnMapping map[string]string
	Metrics       []eval.MetricConfig
}

// Dispatcher launches one goroutine per accepted job and tracks its
// cancellation handle. All state transitions go through the registry; the
// dispatcher only decides which transition to request, so a job cancelled
// mid-run keeps its cancelled status even when the work function returns
// normally afterwards.
type Dispatcher struct {
	registry  *Registry
	runner    *Runner
	evaluator eval.Evaluator
	notifier  Notifier
	metrics   *observability.Metrics
	logger    *slog.Logger

	defaultConcurrency int

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
	closed  bool

	wg sync.WaitGroup
}

// NewDispatcher creates a dispatcher. notifier and metrics may be nil.
func NewDispatcher(registry *Registry, runner *Runner, evaluator eval.Evaluator, notifier Notifier, metrics *observability.Metrics, logger *slog.Logger, defaultConcurrency int) *Dispatcher {
	if defaultConcurrency <= 0 {
		defaultConcurrency = MaxConcurrency
	}
	return &Dispatcher{
		registry:           registry,
		runner:             runner,
		evaluator:          evaluator,
		notifier:           notifier,
		metrics:            metrics,
		logger:             logger,
		defaultConcurrency: defaultConcurrency,
		cancels:            make(map[string]context.CancelFunc),
	}
}

// DispatchSingle accepts a single test case job and returns its pending
// snapshot immediately.
func (d *Dispatcher) DispatchSingle(ctx context.Context, opts Options, spec SingleSpec) (*Job, error) {
	j, err := d.registry.Create(ctx, opts.Name, opts.Tags, opts.Metadata, opts.CallbackURL)
	if err != nil {
		return nil, err
	}
	if d.metrics != nil {
		d.metrics.RecordJobCreated(ctx, "single")
	}

	d.launch(j.ID, "single", func(jobCtx context.Context) error {
		bg := context.Background()
		if err := d.registry.SetProgress(bg, j.ID, 0, 1, "Evaluating test case..."); err != nil {
			return err
		}

		result, err := d.evaluator.EvaluateSingle(jobCtx, spec.TestCase, spec.Metrics)
		if err != nil {
			return err
		}

		results := []eval.TestCaseResult{*result}
		return d.registry.Complete(bg, j.ID, results, eval.Summarize(results))
	})
	return j, nil
}

// DispatchBulk accepts a batch job and returns its pending snapshot
// immediately.
func (d *Dispatcher) DispatchBulk(ctx context.Context, opts Options, spec BulkSpec) (*Job, error) {
	j, err := d.registry.Create(ctx, opts.Name, opts.Tags, opts.Metadata, opts.CallbackURL)
	if err != nil {
		return nil, err
	}
	if d.metrics != nil {
		d.metrics.RecordJobCreated(ctx, "bulk")
	}

	concurrency := ClampConcurrency(opts.MaxConcurrent, d.defaultConcurrency)

	d.launch(j.ID, "bulk", func(jobCtx context.Context) error {
		bg := context.Background()
		total := len(spec.Cases)
		msg := fmt.Sprintf("Starting evaluation of %d test cases...", total)
		if err := d.registry.SetProgress(bg, j.ID, 0, total, msg); err != nil {
			return err
		}

		results, summary, err := d.runner.Run(jobCtx, spec.Cases, spec.Metrics, concurrency, d.reporter(j.ID))
		if err != nil {
			return err
		}
		return d.registry.Complete(bg, j.ID, results, summary)
	})
	return j, nil
}

// DispatchDataset accepts a dataset file job and returns its pending snapshot
// immediately. The file is parsed inside the job.
func (d *Dispatcher) DispatchDataset(ctx context.Context, opts Options, spec DatasetSpec) (*Job, error) {
	j, err := d.registry.Create(ctx, opts.Name, opts.Tags, opts.Metadata, opts.CallbackURL)
	if err != nil {
		return nil, err
	}
	if d.metrics != nil {
		d.metrics.RecordJobCreated(ctx, "dataset")
	}

	concurrency := ClampConcurrency(opts.MaxConcurrent, d.defaultConcurrency)

	d.launch(j.ID, "dataset", func(jobCtx context.Context) error {
		bg := context.Background()
		if err := d.registry.SetProgress(bg, j.ID, 0, 0, "Processing dataset file..."); err != nil {
			return err
		}

		cases, err := dataset.Parse(spec.Content, spec.Filename, spec.Format, spec.ColumnMapping)
		if err != nil {
			return err
		}

		total := len(cases)
		msg := fmt.Sprintf("Parsed %d test cases. Starting evaluation...", total)
		if err := d.registry.SetProgress(bg, j.ID, 0, total, msg); err != nil {
			return err
		}

		results, summary, err := d.runner.Run(jobCtx, cases, spec.Metrics, concurrency, d.reporter(j.ID))
		if err != nil {
			return err
		}
		return d.registry.Complete(bg, j.ID, results, summary)
	})
	return j, nil
}

// Cancel requests cancellation of a job. It reports true when the job was
// pending or running and is now cancelled; a job already in a terminal state
// (or unknown) reports false. The running goroutine observes the cancellation
// at its next chunk boundary.
func (d *Dispatcher) Cancel(ctx context.Context, id string) (bool, error) {
	cancelled, err := d.registry.Cancel(ctx, id)
	if err != nil || !cancelled {
		return false, err
	}

	d.mu.Lock()
	cancel, ok := d.cancels[id]
	d.mu.Unlock()
	if ok {
		cancel()
	}
	return true, nil
}

// Running reports the number of in-flight job goroutines.
func (d *Dispatcher) Running() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.cancels)
}

// Close stops accepting new jobs and waits for in-flight jobs to finish or
// the context to expire. Jobs still running at expiry keep their registry
// state; they are not force-failed.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// launch runs work in its own goroutine wrapped in the shared lifecycle
// frame: mark running, execute, then record the terminal state and notify.
func (d *Dispatcher) launch(id, jobType string, work func(ctx context.Context) error) {
	jobCtx, cancel := context.WithCancel(context.Background())

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		cancel()
		// Shutting down: the job stays pending and is never started.
		return
	}
	d.cancels[id] = cancel
	d.mu.Unlock()

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer cancel()
		defer func() {
			d.mu.Lock()
			delete(d.cancels, id)
			d.mu.Unlock()
		}()

		bg := context.Background()
		started := time.Now()

		if err := d.registry.SetStatus(bg, id, StatusRunning, ""); err != nil {
			d.logger.Error("failed to mark job running", "jobId", id, "error", err)
			return
		}

		err := work(jobCtx)
		switch {
		case err == nil:
			// Terminal state already written by the work function.
		case errors.Is(err, context.Canceled):
			// Cancel already flipped the job to cancelled.
			d.logger.Info("job cancelled", "jobId", id, "jobType", jobType)
		default:
			d.logger.Error("job failed", "jobId", id, "jobType", jobType, "error", err)
			if ferr := d.registry.Fail(bg, id, err.Error()); ferr != nil {
				d.logger.Error("failed to record job failure", "jobId", id, "error", ferr)
			}
		}

		final, gerr := d.registry.Get(bg, id)
		if gerr != nil {
			d.logger.Error("failed to load finished job", "jobId", id, "error", gerr)
			return
		}

		if d.metrics != nil {
			d.metrics.RecordJobFinished(bg, jobType, final.Status == StatusCompleted, time.Since(started).Seconds())
		}
		d.logger.Info("job finished",
			"jobId", id,
			"jobType", jobType,
			"status", string(final.Status),
			"durationMs", time.Since(started).Milliseconds())

		if d.notifier != nil && final.CallbackURL != "" {
			d.notifier.JobFinished(final)
		}
	}()
}

// reporter adapts registry progress updates to the runner's callback. Update
// failures are logged, not propagated: losing one progress write must not
// fail the evaluation.
func (d *Dispatcher) reporter(id string) ProgressFunc {
	return func(completed, total int, message string) {
		if err := d.registry.SetProgress(context.Background(), id, completed, total, message); err != nil {
			d.logger.Warn("failed to update job progress", "jobId", id, "error", err)
		}
	}
}
