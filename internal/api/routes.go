package api

import (
	"net/http"

	"evalapi/internal/eval"
	"evalapi/internal/health"
	"evalapi/internal/job"
	"evalapi/internal/observability"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	Registry      *job.Registry
	Dispatcher    *job.Dispatcher
	Janitor       *job.Janitor
	Evaluator     eval.Evaluator
	Metrics       *observability.Metrics
	HealthChecker *health.Checker
	APIKey        string
	MaxUploadSize int64
}

// NewRouter creates a new HTTP router with all routes configured.
func NewRouter(cfg RouterConfig) http.Handler {
	handler := NewHandler(cfg)

	mux := http.NewServeMux()

	// Health check endpoints (liveness/readiness probes) - no auth required
	mux.HandleFunc("GET /livez", handler.Livez)
	mux.HandleFunc("GET /readyz", handler.Readyz)

	// Everything else - auth required
	authMiddleware := AuthMiddleware(cfg.APIKey)
	protected := func(h http.HandlerFunc) http.Handler {
		return authMiddleware(h)
	}

	// Evaluation endpoints
	mux.Handle("POST /evaluate/{$}", protected(handler.Evaluate))
	mux.Handle("POST /evaluate/bulk", protected(handler.EvaluateBulk))
	mux.Handle("POST /evaluate/async", protected(handler.EvaluateAsync))
	mux.Handle("POST /evaluate/async/bulk", protected(handler.EvaluateAsyncBulk))
	mux.Handle("POST /evaluate/dataset", protected(handler.EvaluateDataset))

	// Job endpoints. Literal segments before wildcards so stats/cleanup
	// never match {jobId}.
	mux.Handle("GET /jobs/{$}", protected(handler.ListJobs))
	mux.Handle("GET /jobs/stats/summary", protected(handler.JobStats))
	mux.Handle("POST /jobs/cleanup", protected(handler.CleanupJobs))
	mux.Handle("GET /jobs/{jobId}", protected(handler.GetJob))
	mux.Handle("POST /jobs/{jobId}/cancel", protected(handler.CancelJob))
	mux.Handle("DELETE /jobs/{jobId}", protected(handler.DeleteJob))

	// Metric catalog
	mux.Handle("GET /metrics/{$}", protected(handler.ListMetrics))
	mux.Handle("GET /metrics/categories", protected(handler.MetricCategories))

	// Apply middleware chain (order matters: outermost first)
	var h http.Handler = mux
	h = ContentTypeMiddleware()(h)
	h = CORSMiddleware()(h)
	if cfg.Metrics != nil {
		h = MetricsMiddleware(cfg.Metrics)(h)
	}
	h = LoggingMiddleware()(h)
	h = RecoveryMiddleware()(h)

	return h
}
