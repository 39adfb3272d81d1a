package job

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"evalapi/internal/apperrors"
	"evalapi/internal/eval"
)

// Registry owns all job records. Every read and write goes through it; the
// single mutex makes each operation atomic, and no operation holds the lock
// across a call to the evaluation engine or the dataset parser.
//
// Lifecycle rules enforced here:
//   - pending -> running -> {completed, failed, cancelled}
//   - pending -> cancelled (a job may be cancelled before it starts)
//   - terminal states accept no further changes; a transition request into a
//     terminal state from another terminal state succeeds as a no-op so a
//     late completion never clobbers an earlier cancellation
//   - StartedAt and CompletedAt are write-once
type Registry struct {
	mu    sync.Mutex
	store Store
	now   func() time.Time
}

// NewRegistry creates a registry over the given store backend.
func NewRegistry(store Store) *Registry {
	return &Registry{
		store: store,
		now:   time.Now,
	}
}

// Create allocates a fresh job in the pending state and returns its snapshot.
func (r *Registry) Create(ctx context.Context, name string, tags []string, metadata map[string]any, callbackURL string) (*Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	j := &Job{
		ID:          uuid.NewString(),
		Status:      StatusPending,
		Name:        name,
		Tags:        tags,
		Metadata:    metadata,
		CallbackURL: callbackURL,
		CreatedAt:   r.now().UTC(),
		Progress:    Progress{},
	}
	if err := r.store.Put(ctx, j); err != nil {
		return nil, apperrors.Internal("registry.create", err)
	}
	return j.Clone(), nil
}

// SetStatus transitions a job, applying the timestamp and terminal-state
// rules. errMsg is recorded when non-empty; pairing it with the failed status
// is caller discipline, not validated here.
func (r *Registry) SetStatus(ctx context.Context, id string, status Status, errMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, err := r.load(ctx, id)
	if err != nil {
		return err
	}

	if j.Status.Terminal() {
		// Idempotent: a terminal job absorbs further transition requests.
		return nil
	}

	j.Status = status
	now := r.now().UTC()
	if status == StatusRunning && j.StartedAt == nil {
		j.StartedAt = &now
	}
	if status.Terminal() && j.CompletedAt == nil {
		j.CompletedAt = &now
	}
	if errMsg != "" {
		j.Error = errMsg
	}

	return r.save(ctx, j)
}

// Fail marks a job failed with the given error description.
func (r *Registry) Fail(ctx context.Context, id string, errMsg string) error {
	return r.SetStatus(ctx, id, StatusFailed, errMsg)
}

// SetProgress updates a job's progress. Unknown ids are silently ignored:
// a progress update racing a deletion is tolerated, not an error.
func (r *Registry) SetProgress(ctx context.Context, id string, current, total int, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, err := r.store.Get(ctx, id)
	if err != nil {
		return apperrors.Internal("registry.setProgress", err)
	}
	if j == nil {
		return nil
	}

	p := progressAt(current, total, message)
	p.UpdatedAt = r.now().UTC()
	j.Progress = p

	return r.save(ctx, j)
}

// Complete marks a job completed, storing its results and summary and forcing
// progress to 100%. If the job already reached a terminal state (e.g. it was
// cancelled while the last chunk ran) the call is a no-op.
func (r *Registry) Complete(ctx context.Context, id string, results []eval.TestCaseResult, summary eval.Summary) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, err := r.load(ctx, id)
	if err != nil {
		return err
	}
	if j.Status.Terminal() {
		return nil
	}

	now := r.now().UTC()
	j.Status = StatusCompleted
	j.CompletedAt = &now
	j.Results = results
	j.Summary = &summary
	j.Progress.Current = j.Progress.Total
	j.Progress.Percentage = 100.0
	j.Progress.UpdatedAt = now

	return r.save(ctx, j)
}

// Cancel flips a pending or running job to cancelled, reporting whether it
// did. Cancelling a terminal job returns false without error: cancellation is
// advisory.
func (r *Registry) Cancel(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, err := r.store.Get(ctx, id)
	if err != nil {
		return false, apperrors.Internal("registry.cancel", err)
	}
	if j == nil || j.Status.Terminal() {
		return false, nil
	}

	now := r.now().UTC()
	j.Status = StatusCancelled
	if j.CompletedAt == nil {
		j.CompletedAt = &now
	}
	if err := r.save(ctx, j); err != nil {
		return false, err
	}
	return true, nil
}

// Get returns a snapshot of a job.
func (r *Registry) Get(ctx context.Context, id string) (*Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, err := r.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return j.Clone(), nil
}

// Delete removes a job, reporting whether it existed.
func (r *Registry) Delete(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ok, err := r.store.Delete(ctx, id)
	if err != nil {
		return false, apperrors.Internal("registry.delete", err)
	}
	return ok, nil
}

// Snapshot returns a consistent point-in-time copy of every job. Callers may
// process the result at leisure; the registry lock is not held afterwards.
func (r *Registry) Snapshot(ctx context.Context) ([]*Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	jobs, err := r.store.List(ctx)
	if err != nil {
		return nil, apperrors.Internal("registry.snapshot", err)
	}
	return jobs, nil
}

// load fetches a job or reports NotFound. Callers hold r.mu.
func (r *Registry) load(ctx context.Context, id string) (*Job, error) {
	j, err := r.store.Get(ctx, id)
	if err != nil {
		return nil, apperrors.Internal("registry.get", err)
	}
	if j == nil {
		return nil, apperrors.NotFound("job", id)
	}
	return j, nil
}

// save writes a job back. Callers hold r.mu.
func (r *Registry) save(ctx context.Context, j *Job) error {
	if err := r.store.Put(ctx, j); err != nil {
		return apperrors.Internal("registry.put", err)
	}
	return nil
}
