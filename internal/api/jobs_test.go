package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"evalapi/internal/eval"
	"evalapi/internal/job"
)

func seedJob(t *testing.T, registry *job.Registry, name string, complete bool) *job.Job {
	t.Helper()
	j, err := registry.Create(context.Background(), name, []string{"seeded"}, nil, "")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if complete {
		results := []eval.TestCaseResult{{OverallSuccess: true}}
		if err := registry.Complete(context.Background(), j.ID, results, eval.Summarize(results)); err != nil {
			t.Fatalf("Complete failed: %v", err)
		}
	}
	return j
}

func TestListJobs(t *testing.T) {
	t.Parallel()
	router, registry := newTestRouter(t, &stubEvaluator{}, "")

	for i := 0; i < 3; i++ {
		seedJob(t, registry, "seed", false)
	}

	w := doJSON(t, router, http.MethodGet, "/jobs/?page=1&page_size=2", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	var resp job.ListResult
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Total != 3 {
		t.Errorf("Expected total 3, got %d", resp.Total)
	}
	if len(resp.Jobs) != 2 {
		t.Errorf("Expected 2 jobs on the page, got %d", len(resp.Jobs))
	}
}

func TestListJobs_InvalidStatus(t *testing.T) {
	t.Parallel()
	router, _ := newTestRouter(t, &stubEvaluator{}, "")

	w := doJSON(t, router, http.MethodGet, "/jobs/?status=bogus", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestGetJob(t *testing.T) {
	t.Parallel()
	router, registry := newTestRouter(t, &stubEvaluator{}, "")

	j := seedJob(t, registry, "lookup", true)

	w := doJSON(t, router, http.MethodGet, "/jobs/"+j.ID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	var got job.Job
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode job: %v", err)
	}
	if got.ID != j.ID {
		t.Errorf("Expected job %s, got %s", j.ID, got.ID)
	}
	if len(got.Results) != 1 {
		t.Errorf("Expected full payload with results, got %d", len(got.Results))
	}
}

func TestGetJob_NotFound(t *testing.T) {
	t.Parallel()
	router, _ := newTestRouter(t, &stubEvaluator{}, "")

	w := doJSON(t, router, http.MethodGet, "/jobs/does-not-exist", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status %d, got %d", http.StatusNotFound, w.Code)
	}
}

func TestCancelJob(t *testing.T) {
	t.Parallel()
	router, registry := newTestRouter(t, &stubEvaluator{}, "")

	j := seedJob(t, registry, "cancellable", false)

	w := doJSON(t, router, http.MethodPost, "/jobs/"+j.ID+"/cancel", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	got, err := registry.Get(context.Background(), j.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Status != job.StatusCancelled {
		t.Errorf("Expected cancelled, got %s", got.Status)
	}
}

func TestCancelJob_NotCancellable(t *testing.T) {
	t.Parallel()
	router, registry := newTestRouter(t, &stubEvaluator{}, "")

	j := seedJob(t, registry, "done", true)

	w := doJSON(t, router, http.MethodPost, "/jobs/"+j.ID+"/cancel", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d for a completed job, got %d", http.StatusBadRequest, w.Code)
	}

	w = doJSON(t, router, http.MethodPost, "/jobs/does-not-exist/cancel", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d for an unknown job, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestDeleteJob(t *testing.T) {
	t.Parallel()
	router, registry := newTestRouter(t, &stubEvaluator{}, "")

	j := seedJob(t, registry, "deletable", true)

	w := doJSON(t, router, http.MethodDelete, "/jobs/"+j.ID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	w = doJSON(t, router, http.MethodDelete, "/jobs/"+j.ID, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status %d on second delete, got %d", http.StatusNotFound, w.Code)
	}
}

func TestJobStats(t *testing.T) {
	t.Parallel()
	router, registry := newTestRouter(t, &stubEvaluator{}, "")

	seedJob(t, registry, "pending", false)
	seedJob(t, registry, "completed", true)

	w := doJSON(t, router, http.MethodGet, "/jobs/stats/summary", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	var stats job.Stats
	if err := json.NewDecoder(w.Body).Decode(&stats); err != nil {
		t.Fatalf("Failed to decode stats: %v", err)
	}
	if stats.Total != 2 {
		t.Errorf("Expected 2 jobs, got %d", stats.Total)
	}
	if stats.ByStatus[string(job.StatusCompleted)] != 1 {
		t.Errorf("Expected 1 completed, got %d", stats.ByStatus[string(job.StatusCompleted)])
	}
}

func TestCleanupJobs(t *testing.T) {
	t.Parallel()
	router, registry := newTestRouter(t, &stubEvaluator{}, "")

	// Fresh jobs are inside any retention window; nothing to delete.
	seedJob(t, registry, "fresh", true)

	w := doJSON(t, router, http.MethodPost, "/jobs/cleanup?max_age_days=7", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	var resp struct {
		Deleted int `json:"deleted"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Deleted != 0 {
		t.Errorf("Expected 0 deleted, got %d", resp.Deleted)
	}

	w = doJSON(t, router, http.MethodPost, "/jobs/cleanup?max_age_days=0", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d for out-of-range max_age_days, got %d", http.StatusBadRequest, w.Code)
	}
}
