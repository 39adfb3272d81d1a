// Package api provides the HTTP API handlers and routing for the evaluation
// service.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"evalapi/internal/apperrors"
	"evalapi/internal/eval"
	"evalapi/internal/health"
	"evalapi/internal/job"
	"evalapi/internal/observability"
)

// maxRequestBodySize limits JSON request bodies to 10MB. Dataset uploads have
// their own configurable limit.
const maxRequestBodySize = 10 << 20

// Handler contains HTTP handlers for the evaluation API
type Handler struct {
	registry   *job.Registry
	dispatcher *job.Dispatcher
	janitor    *job.Janitor
	evaluator  eval.Evaluator
	metrics    *observability.Metrics
	health     *health.Checker

	maxUploadSize int64
}

// NewHandler creates a new API handler
func NewHandler(cfg RouterConfig) *Handler {
	maxUpload := cfg.MaxUploadSize
	if maxUpload <= 0 {
		maxUpload = 10 << 20
	}
	return &Handler{
		registry:      cfg.Registry,
		dispatcher:    cfg.Dispatcher,
		janitor:       cfg.Janitor,
		evaluator:     cfg.Evaluator,
		metrics:       cfg.Metrics,
		health:        cfg.HealthChecker,
		maxUploadSize: maxUpload,
	}
}

// evaluateRequest is the body for single-case evaluation, sync or async.
type evaluateRequest struct {
	TestCase json.RawMessage     `json:"test_case"`
	Metrics  []eval.MetricConfig `json:"metrics"`

	// Job configuration (async only)
	JobName     string         `json:"job_name,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CallbackURL string         `json:"callback_url,omitempty"`
}

// bulkEvaluateRequest is the body for batch evaluation, sync or async.
type bulkEvaluateRequest struct {
	TestCases     json.RawMessage     `json:"test_cases"`
	Metrics       []eval.MetricConfig `json:"metrics"`
	MaxConcurrent int                 `json:"max_concurrent,omitempty"`

	// Job configuration (async only)
	JobName     string         `json:"job_name,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CallbackURL string         `json:"callback_url,omitempty"`
}

// evaluateResponse is the sync single-case response.
type evaluateResponse struct {
	Result    eval.TestCaseResult `json:"result"`
	Timestamp time.Time           `json:"timestamp"`
}

// bulkEvaluateResponse is the sync batch response.
type bulkEvaluateResponse struct {
	Results   []eval.TestCaseResult `json:"results"`
	Summary   eval.Summary          `json:"summary"`
	Timestamp time.Time             `json:"timestamp"`
}

// decodeEvaluateRequest reads and validates a single-case request.
func decodeEvaluateRequest(w http.ResponseWriter, r *http.Request) (*evaluateRequest, eval.TestCase, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

	var req evaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, nil, apperrors.Validation("body", "invalid request body: "+err.Error())
	}
	if len(req.TestCase) == 0 {
		return nil, nil, apperrors.Validation("test_case", "test_case is required")
	}

	tc, err := eval.UnmarshalTestCase(req.TestCase)
	if err != nil {
		return nil, nil, apperrors.Validation("test_case", err.Error())
	}
	if err := tc.Validate(); err != nil {
		return nil, nil, err
	}
	if err := validateMetrics(req.Metrics); err != nil {
		return nil, nil, err
	}
	return &req, tc, nil
}

// decodeBulkRequest reads and validates a batch request.
func decodeBulkRequest(w http.ResponseWriter, r *http.Request) (*bulkEvaluateRequest, []eval.TestCase, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

	var req bulkEvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, nil, apperrors.Validation("body", "invalid request body: "+err.Error())
	}
	if len(req.TestCases) == 0 {
		return nil, nil, apperrors.Validation("test_cases", "test_cases is required")
	}

	cases, err := eval.UnmarshalTestCases(req.TestCases)
	if err != nil {
		return nil, nil, apperrors.Validation("test_cases", err.Error())
	}
	if len(cases) == 0 {
		return nil, nil, apperrors.Validation("test_cases", "at least one test case is required")
	}
	for i, tc := range cases {
		if err := tc.Validate(); err != nil {
			return nil, nil, apperrors.Validation("test_cases", "test_cases["+strconv.Itoa(i)+"]: "+err.Error())
		}
	}
	if err := validateMetrics(req.Metrics); err != nil {
		return nil, nil, err
	}
	return &req, cases, nil
}

func validateMetrics(metrics []eval.MetricConfig) error {
	if len(metrics) == 0 {
		return apperrors.Validation("metrics", "at least one metric is required")
	}
	for i := range metrics {
		if err := metrics[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Evaluate handles POST /evaluate/ - synchronous single evaluation.
func (h *Handler) Evaluate(w http.ResponseWriter, r *http.Request) {
	req, tc, err := decodeEvaluateRequest(w, r)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	result, err := h.evaluator.EvaluateSingle(r.Context(), tc, req.Metrics)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, evaluateResponse{
		Result:    *result,
		Timestamp: time.Now().UTC(),
	})
}

// EvaluateBulk handles POST /evaluate/bulk - synchronous batch evaluation.
func (h *Handler) EvaluateBulk(w http.ResponseWriter, r *http.Request) {
	req, cases, err := decodeBulkRequest(w, r)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	concurrency := job.ClampConcurrency(req.MaxConcurrent, job.MaxConcurrency)
	bulk, err := h.evaluator.EvaluateBulk(r.Context(), cases, req.Metrics, concurrency)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, bulkEvaluateResponse{
		Results:   bulk.Results,
		Summary:   bulk.Summary,
		Timestamp: time.Now().UTC(),
	})
}

// EvaluateAsync handles POST /evaluate/async - dispatches a single-case job.
func (h *Handler) EvaluateAsync(w http.ResponseWriter, r *http.Request) {
	req, tc, err := decodeEvaluateRequest(w, r)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	j, err := h.dispatcher.DispatchSingle(r.Context(), job.Options{
		Name:        req.JobName,
		Tags:        req.Tags,
		Metadata:    req.Metadata,
		CallbackURL: req.CallbackURL,
	}, job.SingleSpec{
		TestCase: tc,
		Metrics:  req.Metrics,
	})
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusAccepted, j)
}

// EvaluateAsyncBulk handles POST /evaluate/async/bulk - dispatches a batch job.
func (h *Handler) EvaluateAsyncBulk(w http.ResponseWriter, r *http.Request) {
	req, cases, err := decodeBulkRequest(w, r)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	j, err := h.dispatcher.DispatchBulk(r.Context(), job.Options{
		Name:          req.JobName,
		Tags:          req.Tags,
		Metadata:      req.Metadata,
		CallbackURL:   req.CallbackURL,
		MaxConcurrent: req.MaxConcurrent,
	}, job.BulkSpec{
		Cases:   cases,
		Metrics: req.Metrics,
	})
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusAccepted, j)
}

// EvaluateDataset handles POST /evaluate/dataset - multipart upload that
// dispatches a dataset job. Form fields: file (required), metrics (JSON
// array, required), dataset_name, file_format, column_mapping (JSON object),
// max_concurrent, job_name, tags (JSON array), callback_url.
func (h *Handler) EvaluateDataset(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) || r.ContentLength > h.maxUploadSize {
			h.handleError(w, r, apperrors.TooLarge("file", h.maxUploadSize))
			return
		}
		h.handleError(w, r, apperrors.Validation("body", "invalid multipart form: "+err.Error()))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.handleError(w, r, apperrors.Validation("file", "file is required"))
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		h.handleError(w, r, apperrors.Validation("file", "failed to read file: "+err.Error()))
		return
	}

	var metrics []eval.MetricConfig
	if raw := r.FormValue("metrics"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &metrics); err != nil {
			h.handleError(w, r, apperrors.Validation("metrics", "invalid metrics JSON: "+err.Error()))
			return
		}
	}
	if err := validateMetrics(metrics); err != nil {
		h.handleError(w, r, err)
		return
	}

	var columnMapping map[string]string
	if raw := r.FormValue("column_mapping"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &columnMapping); err != nil {
			h.handleError(w, r, apperrors.Validation("column_mapping", "invalid column_mapping JSON: "+err.Error()))
			return
		}
	}

	var tags []string
	if raw := r.FormValue("tags"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &tags); err != nil {
			h.handleError(w, r, apperrors.Validation("tags", "invalid tags JSON: "+err.Error()))
			return
		}
	}

	maxConcurrent := 0
	if raw := r.FormValue("max_concurrent"); raw != "" {
		maxConcurrent, err = strconv.Atoi(raw)
		if err != nil {
			h.handleError(w, r, apperrors.Validation("max_concurrent", "must be an integer"))
			return
		}
	}

	jobName := r.FormValue("job_name")
	datasetName := r.FormValue("dataset_name")
	if jobName == "" && datasetName != "" {
		jobName = "Dataset: " + datasetName
	}

	j, err := h.dispatcher.DispatchDataset(r.Context(), job.Options{
		Name: jobName,
		Tags: tags,
		Metadata: map[string]any{
			"type":         "dataset",
			"dataset_name": datasetName,
			"file_name":    header.Filename,
		},
		CallbackURL:   r.FormValue("callback_url"),
		MaxConcurrent: maxConcurrent,
	}, job.DatasetSpec{
		Content:       content,
		Filename:      header.Filename,
		Format:        r.FormValue("file_format"),
		ColumnMapping: columnMapping,
		Metrics:       metrics,
	})
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusAccepted, j)
}

// ListMetrics handles GET /metrics/ - the metric catalog.
func (h *Handler) ListMetrics(w http.ResponseWriter, r *http.Request) {
	catalog := eval.Catalog()
	h.writeJSON(w, http.StatusOK, map[string]any{
		"metrics": catalog,
		"total":   len(catalog),
	})
}

// MetricCategories handles GET /metrics/categories - catalog grouped by
// category.
func (h *Handler) MetricCategories(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{
		"categories": eval.Categories(),
	})
}

// Livez handles GET /livez - liveness probe.
// Returns 200 if the process is alive. Does not check dependencies.
func (h *Handler) Livez(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.health.Liveness(r.Context()))
}

// Readyz handles GET /readyz - readiness probe.
// Returns 200 if the service is ready to accept traffic.
// Returns 503 if the evaluation engine is unavailable.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	response := h.health.Readiness(r.Context())

	status := http.StatusOK
	if !response.IsHealthy() {
		status = http.StatusServiceUnavailable
	}

	h.writeJSON(w, status, response)
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeError writes an error response
func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

// handleError maps service errors to HTTP status codes.
func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= 500 {
		slog.Error("Internal error", "error", err, "path", r.URL.Path)
	} else {
		slog.Warn("Client error", "error", err, "path", r.URL.Path, "status", status)
	}
	h.writeError(w, status, err.Error())
}
