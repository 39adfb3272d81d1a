package job

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evalapi/internal/eval"
)

// seedJobs creates n jobs with strictly increasing creation times.
func seedJobs(t *testing.T, r *Registry, n int, tags []string) []*Job {
	t.Helper()
	ctx := context.Background()

	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	jobs := make([]*Job, 0, n)
	for i := 0; i < n; i++ {
		stamp := base.Add(time.Duration(i) * time.Minute)
		r.now = func() time.Time { return stamp }
		j, err := r.Create(ctx, fmt.Sprintf("job-%d", i), tags, nil, "")
		require.NoError(t, err)
		jobs = append(jobs, j)
	}
	r.now = time.Now
	return jobs
}

func TestListPagination(t *testing.T) {
	t.Parallel()

	r := newTestRegistry(t)
	seedJobs(t, r, 25, nil)
	ctx := context.Background()

	page1, err := r.List(ctx, ListParams{Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Len(t, page1.Jobs, 20)
	assert.Equal(t, 25, page1.Total)
	assert.Equal(t, 1, page1.Page)
	assert.Equal(t, 20, page1.PageSize)

	page2, err := r.List(ctx, ListParams{Page: 2, PageSize: 20})
	require.NoError(t, err)
	assert.Len(t, page2.Jobs, 5)
	assert.Equal(t, 25, page2.Total)

	page3, err := r.List(ctx, ListParams{Page: 3, PageSize: 20})
	require.NoError(t, err)
	assert.Empty(t, page3.Jobs)
	assert.Equal(t, 25, page3.Total)
}

func TestListOrdersNewestFirst(t *testing.T) {
	t.Parallel()

	r := newTestRegistry(t)
	seedJobs(t, r, 5, nil)

	res, err := r.List(context.Background(), ListParams{Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, res.Jobs, 5)

	for i := 1; i < len(res.Jobs); i++ {
		assert.False(t, res.Jobs[i].CreatedAt.After(res.Jobs[i-1].CreatedAt),
			"jobs must be sorted by created_at descending")
	}
	assert.Equal(t, "job-4", res.Jobs[0].Name)
}

func TestListFilters(t *testing.T) {
	t.Parallel()

	r := newTestRegistry(t)
	ctx := context.Background()

	tagged := seedJobs(t, r, 3, []string{"nightly"})
	seedJobs(t, r, 2, []string{"adhoc"})
	require.NoError(t, r.SetStatus(ctx, tagged[0].ID, StatusRunning, ""))

	byTag, err := r.List(ctx, ListParams{Page: 1, PageSize: 10, Tag: "nightly"})
	require.NoError(t, err)
	assert.Equal(t, 3, byTag.Total)

	byStatus, err := r.List(ctx, ListParams{Page: 1, PageSize: 10, Status: StatusRunning})
	require.NoError(t, err)
	require.Equal(t, 1, byStatus.Total)
	assert.Equal(t, tagged[0].ID, byStatus.Jobs[0].ID)

	both, err := r.List(ctx, ListParams{Page: 1, PageSize: 10, Status: StatusPending, Tag: "adhoc"})
	require.NoError(t, err)
	assert.Equal(t, 2, both.Total)
}

func TestListStripsPayload(t *testing.T) {
	t.Parallel()

	r := newTestRegistry(t)
	ctx := context.Background()

	j, err := r.Create(ctx, "", nil, nil, "")
	require.NoError(t, err)

	results := []eval.TestCaseResult{{OverallSuccess: true}}
	require.NoError(t, r.Complete(ctx, j.ID, results, eval.Summarize(results)))

	res, err := r.List(ctx, ListParams{Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, res.Jobs, 1)
	assert.Nil(t, res.Jobs[0].Results)
	assert.Nil(t, res.Jobs[0].Summary)

	full, err := r.Get(ctx, j.ID)
	require.NoError(t, err)
	assert.Len(t, full.Results, 1)
	assert.NotNil(t, full.Summary)
}

func TestStats(t *testing.T) {
	t.Parallel()

	r := newTestRegistry(t)
	ctx := context.Background()

	jobs := seedJobs(t, r, 4, nil)
	require.NoError(t, r.SetStatus(ctx, jobs[0].ID, StatusRunning, ""))
	require.NoError(t, r.Complete(ctx, jobs[1].ID, nil, eval.Summary{}))

	// Pin time so all seeded jobs fall inside the 24h window.
	r.now = func() time.Time { return time.Date(2026, 8, 30, 13, 0, 0, 0, time.UTC) }

	stats, err := r.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 2, stats.ByStatus[string(StatusPending)])
	assert.Equal(t, 1, stats.ByStatus[string(StatusRunning)])
	assert.Equal(t, 1, stats.ByStatus[string(StatusCompleted)])
	assert.Equal(t, 4, stats.RecentJobs)
}
