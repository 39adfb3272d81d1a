package api

import (
	"net/http"
	"strconv"
	"time"

	"evalapi/internal/apperrors"
	"evalapi/internal/job"
)

// ListJobs handles GET /jobs/ with pagination and filtering.
// Query params: page, page_size, status, tag.
func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, err := queryInt(q.Get("page"), 1)
	if err != nil {
		h.handleError(w, r, apperrors.Validation("page", "must be an integer"))
		return
	}
	pageSize, err := queryInt(q.Get("page_size"), 20)
	if err != nil {
		h.handleError(w, r, apperrors.Validation("page_size", "must be an integer"))
		return
	}
	if pageSize > 100 {
		pageSize = 100
	}

	status := job.Status(q.Get("status"))
	if status != "" && !status.Valid() {
		h.handleError(w, r, apperrors.Validation("status", "unknown status: "+string(status)))
		return
	}

	result, err := h.registry.List(r.Context(), job.ListParams{
		Page:     page,
		PageSize: pageSize,
		Status:   status,
		Tag:      q.Get("tag"),
	})
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// GetJob handles GET /jobs/{jobId} - the full job view including results.
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("jobId")

	j, err := h.registry.Get(r.Context(), jobID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, j)
}

// CancelJob handles POST /jobs/{jobId}/cancel. Cancellation is advisory: a
// running job stops at its next chunk boundary.
func (h *Handler) CancelJob(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("jobId")

	cancelled, err := h.dispatcher.Cancel(r.Context(), jobID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	if !cancelled {
		h.writeError(w, http.StatusBadRequest, "Job not found or cannot be cancelled")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"message": "Job cancelled successfully"})
}

// DeleteJob handles DELETE /jobs/{jobId}.
func (h *Handler) DeleteJob(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("jobId")

	deleted, err := h.registry.Delete(r.Context(), jobID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	if !deleted {
		h.handleError(w, r, apperrors.NotFound("job", jobID))
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"message": "Job deleted successfully"})
}

// JobStats handles GET /jobs/stats/summary.
func (h *Handler) JobStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.registry.Stats(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, stats)
}

// CleanupJobs handles POST /jobs/cleanup - an on-demand retention sweep.
// Query param: max_age_days (default 7, 1..365).
func (h *Handler) CleanupJobs(w http.ResponseWriter, r *http.Request) {
	maxAgeDays, err := queryInt(r.URL.Query().Get("max_age_days"), 7)
	if err != nil {
		h.handleError(w, r, apperrors.Validation("max_age_days", "must be an integer"))
		return
	}
	if maxAgeDays < 1 || maxAgeDays > 365 {
		h.handleError(w, r, apperrors.Validation("max_age_days", "must be between 1 and 365"))
		return
	}

	deleted, err := h.janitor.Cleanup(r.Context(), time.Duration(maxAgeDays)*24*time.Hour)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"message": "Cleaned up " + strconv.Itoa(deleted) + " old jobs",
		"deleted": deleted,
	})
}

// queryInt parses an optional integer query parameter.
func queryInt(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
