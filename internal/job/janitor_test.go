package job

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evalapi/internal/eval"
)

func TestJanitorCleanup(t *testing.T) {
	t.Parallel()

	r := newTestRegistry(t)
	ctx := context.Background()
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	// Completed 10 days ago: eligible.
	r.now = func() time.Time { return now.Add(-10 * 24 * time.Hour) }
	oldCompleted, err := r.Create(ctx, "old-completed", nil, nil, "")
	require.NoError(t, err)
	require.NoError(t, r.Complete(ctx, oldCompleted.ID, nil, eval.Summary{}))

	// Failed 10 days ago: eligible.
	oldFailed, err := r.Create(ctx, "old-failed", nil, nil, "")
	require.NoError(t, err)
	require.NoError(t, r.Fail(ctx, oldFailed.ID, "boom"))

	// Still running since 10 days ago: never eligible, age notwithstanding.
	oldRunning, err := r.Create(ctx, "old-running", nil, nil, "")
	require.NoError(t, err)
	require.NoError(t, r.SetStatus(ctx, oldRunning.ID, StatusRunning, ""))

	// Completed an hour ago: inside the retention window.
	r.now = func() time.Time { return now.Add(-time.Hour) }
	fresh, err := r.Create(ctx, "fresh-completed", nil, nil, "")
	require.NoError(t, err)
	require.NoError(t, r.Complete(ctx, fresh.ID, nil, eval.Summary{}))

	r.now = func() time.Time { return now }

	jn := NewJanitor(r, slog.New(slog.DiscardHandler), 7*24*time.Hour, time.Hour)
	deleted, err := jn.Cleanup(ctx, 7*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	_, err = r.Get(ctx, oldCompleted.ID)
	assert.Error(t, err)
	_, err = r.Get(ctx, oldFailed.ID)
	assert.Error(t, err)

	_, err = r.Get(ctx, oldRunning.ID)
	assert.NoError(t, err)
	_, err = r.Get(ctx, fresh.ID)
	assert.NoError(t, err)
}

func TestJanitorCleanupEmptyRegistry(t *testing.T) {
	t.Parallel()

	r := newTestRegistry(t)
	jn := NewJanitor(r, slog.New(slog.DiscardHandler), time.Hour, time.Hour)

	deleted, err := jn.Cleanup(context.Background(), time.Hour)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}
