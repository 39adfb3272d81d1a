package observability

import (
	"context"

	"go.opentelemetry.io/otel/metric"
)

// RecordHTTPRequest records HTTP request metrics.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, durationSeconds float64) {
	attrs := metric.WithAttributes(
		methodAttr(method),
		pathAttr(path),
		statusAttr(statusCode),
	)

	m.HTTPRequestDuration.Record(ctx, durationSeconds, attrs)
	m.HTTPRequestsTotal.Add(ctx, 1, attrs)

	if statusCode >= 400 {
		m.HTTPErrorsTotal.Add(ctx, 1, attrs)
	}
}

// RecordJobCreated records a new job being dispatched.
func (m *Metrics) RecordJobCreated(ctx context.Context, jobType string) {
	attrs := metric.WithAttributes(jobTypeAttr(jobType))
	m.JobsTotal.Add(ctx, 1, attrs)
	m.JobsActive.Add(ctx, 1, attrs)
}

// RecordJobFinished records a job reaching a terminal state.
func (m *Metrics) RecordJobFinished(ctx context.Context, jobType string, success bool, durationSeconds float64) {
	attrs := metric.WithAttributes(jobTypeAttr(jobType), successAttr(success))
	m.JobDuration.Record(ctx, durationSeconds, attrs)
	m.JobsActive.Add(ctx, -1, metric.WithAttributes(jobTypeAttr(jobType)))

	if !success {
		m.JobErrorsTotal.Add(ctx, 1, attrs)
	}
}

// RecordChunk records one batch runner chunk completing.
func (m *Metrics) RecordChunk(ctx context.Context, cases int, durationSeconds float64) {
	m.ChunkDuration.Record(ctx, durationSeconds)
	m.ChunkCases.Add(ctx, int64(cases))
}

// RecordNotifyDelivered records a successful webhook delivery with its duration.
func (m *Metrics) RecordNotifyDelivered(ctx context.Context, durationSeconds float64) {
	m.NotifyDuration.Record(ctx, durationSeconds)
}

// RecordNotifyFailed records a webhook delivery failed after retries.
func (m *Metrics) RecordNotifyFailed(ctx context.Context) {
	m.NotifyFailed.Add(ctx, 1)
}

// RecordNotifyDropped records a webhook dropped because the buffer was full.
func (m *Metrics) RecordNotifyDropped(ctx context.Context) {
	m.NotifyDropped.Add(ctx, 1)
}
