package eval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"evalapi/internal/apperrors"
	"evalapi/pkg/backoff"
)

const engineMaxRetries = 2

// EngineConfig holds configuration for the engine client.
type EngineConfig struct {
	BaseURL string
	Timeout time.Duration // per-request timeout (default: 120s)
	RPS     int           // request rate limit (default: 20)
}

// Engine is the HTTP client for the upstream scoring engine.
//
// Calls are rate limited to protect the engine's own judge-model quota, and
// transient failures (5xx, transport errors) are retried with exponential
// backoff. 4xx responses are never retried.
type Engine struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

// NewEngine creates a client for the scoring engine at baseURL.
func NewEngine(cfg EngineConfig) *Engine {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.RPS <= 0 {
		cfg.RPS = 20
	}
	return &Engine{
		baseURL: cfg.BaseURL,
		client: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RPS), cfg.RPS),
	}
}

// singleRequest is the engine's single-evaluation request body.
type singleRequest struct {
	TestCase json.RawMessage `json:"test_case"`
	Metrics  []MetricConfig  `json:"metrics"`
}

// bulkRequest is the engine's bulk-evaluation request body.
type bulkRequest struct {
	TestCases     json.RawMessage `json:"test_cases"`
	Metrics       []MetricConfig  `json:"metrics"`
	MaxConcurrent int             `json:"max_concurrent"`
}

// EvaluateSingle implements Evaluator.
func (e *Engine) EvaluateSingle(ctx context.Context, tc TestCase, metrics []MetricConfig) (*TestCaseResult, error) {
	raw, err := MarshalTestCase(tc)
	if err != nil {
		return nil, apperrors.Internal("engine.evaluateSingle", err)
	}

	var result TestCaseResult
	if err := e.post(ctx, "/evaluate", singleRequest{TestCase: raw, Metrics: metrics}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// EvaluateBulk implements Evaluator.
func (e *Engine) EvaluateBulk(ctx context.Context, cases []TestCase, metrics []MetricConfig, maxConcurrent int) (*BulkResult, error) {
	raw, err := MarshalTestCases(cases)
	if err != nil {
		return nil, apperrors.Internal("engine.evaluateBulk", err)
	}

	var result BulkResult
	req := bulkRequest{TestCases: raw, Metrics: metrics, MaxConcurrent: maxConcurrent}
	if err := e.post(ctx, "/evaluate/bulk", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Ready implements Evaluator. It probes the engine's health endpoint without
// consuming rate limiter tokens.
func (e *Engine) Ready(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"/health", nil)
	if err != nil {
		return apperrors.Internal("engine.ready", err)
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return apperrors.Upstream("engine.ready", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return apperrors.Upstream("engine.ready", fmt.Errorf("engine returned HTTP %d", resp.StatusCode))
	}
	return nil
}

// post sends a JSON request and decodes the response, retrying transient
// failures.
func (e *Engine) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return apperrors.Internal("engine.post", err)
	}

	op := "engine " + path
	var lastErr error
	for attempt := 0; attempt <= engineMaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return apperrors.Upstream(op, ctx.Err())
			case <-time.After(backoff.Exponential(attempt, &backoff.Config{Initial: 500 * time.Millisecond, Max: 10 * time.Second, Jitter: 0.2})):
			}
		}

		if err := e.limiter.Wait(ctx); err != nil {
			return apperrors.Upstream(op, err)
		}

		retryable, err := e.doOnce(ctx, path, payload, out)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable {
			return lastErr
		}
	}
	return lastErr
}

// doOnce performs a single request attempt. The bool reports whether a
// failure is retryable.
func (e *Engine) doOnce(ctx context.Context, path string, payload []byte, out any) (bool, error) {
	op := "engine " + path

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return false, apperrors.Internal(op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return true, apperrors.Upstream(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		err := apperrors.Upstream(op, fmt.Errorf("engine returned HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(msg)))
		return resp.StatusCode >= 500, err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, apperrors.Upstream(op, fmt.Errorf("invalid engine response: %w", err))
	}
	return false, nil
}
