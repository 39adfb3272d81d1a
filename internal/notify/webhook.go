package notify

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"evalapi/internal/job"
	"evalapi/internal/observability"
	"evalapi/pkg/backoff"
	"evalapi/pkg/circuitbreaker"
)

// ErrBufferFull is returned when the delivery queue is at capacity.
var ErrBufferFull = errors.New("notifier buffer full")

// delivery is one queued webhook.
type delivery struct {
	Destination string
	Payload     *Payload
	Requeues    int
}

// Webhook delivers completion callbacks asynchronously. Deliveries are queued
// in a bounded channel and sent by a worker pool. If the buffer is full,
// deliveries are dropped (logged + metric incremented).
type Webhook struct {
	queue    chan *delivery
	sender   *Sender
	breakers *circuitbreaker.Registry
	config   Config
	logger   *slog.Logger
	metrics  *observability.Metrics

	// Internal counters (for Stats())
	queued       atomic.Int64
	delivered    atomic.Int64
	failed       atomic.Int64
	dropped      atomic.Int64
	requeued     atomic.Int64
	retriesTotal atomic.Int64

	wg       sync.WaitGroup
	shutdown chan struct{}
	closed   atomic.Bool
}

// NewWebhook creates a webhook notifier and starts its workers. metrics may
// be nil.
func NewWebhook(cfg Config, metrics *observability.Metrics, logger *slog.Logger) *Webhook {
	cfg = cfg.withDefaults()

	w := &Webhook{
		queue:  make(chan *delivery, cfg.BufferSize),
		sender: NewSender(cfg.HTTPTimeout),
		breakers: circuitbreaker.NewRegistry(circuitbreaker.Config{
			Threshold: defaultBreakerThreshold,
			Cooldown:  defaultBreakerCooldown,
		}),
		config:   cfg,
		logger:   logger.With("component", "notifier"),
		metrics:  metrics,
		shutdown: make(chan struct{}),
	}

	w.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go w.worker()
	}

	w.logger.Info("Webhook notifier started", "workers", cfg.Workers, "buffer", cfg.BufferSize)
	return w
}

// JobFinished queues a completion webhook for a finished job. Jobs without a
// callback URL are ignored. Implements job.Notifier.
func (w *Webhook) JobFinished(j *job.Job) {
	if j.CallbackURL == "" {
		return
	}
	if err := w.Enqueue(&delivery{Destination: j.CallbackURL, Payload: NewPayload(j)}); err != nil {
		w.logger.Warn("Webhook not queued", "jobId", j.ID, "error", err)
	}
}

// Enqueue queues a delivery for async sending.
func (w *Webhook) Enqueue(d *delivery) error {
	if w.closed.Load() {
		return errors.New("notifier is closed")
	}

	select {
	case w.queue <- d:
		w.queued.Add(1)
		return nil
	default:
		w.dropped.Add(1)
		if w.metrics != nil {
			w.metrics.RecordNotifyDropped(context.Background())
		}
		w.logger.Warn("Webhook dropped, buffer full",
			"destination", extractHost(d.Destination),
			"event", d.Payload.Event,
		)
		return ErrBufferFull
	}
}

// Stats holds current notifier statistics.
type Stats struct {
	QueueDepth    int   `json:"queue_depth"`
	Queued        int64 `json:"queued"`
	Delivered     int64 `json:"delivered"`
	Failed        int64 `json:"failed"`
	Dropped       int64 `json:"dropped"`
	Requeued      int64 `json:"requeued"`
	RetriesTotal  int64 `json:"retries_total"`
	BreakersTotal int   `json:"breakers_total"`
	BreakersOpen  int   `json:"breakers_open"`
}

// Stats returns current notifier statistics.
func (w *Webhook) Stats() Stats {
	breakerStats := w.breakers.Stats()
	return Stats{
		QueueDepth:    len(w.queue),
		Queued:        w.queued.Load(),
		Delivered:     w.delivered.Load(),
		Failed:        w.failed.Load(),
		Dropped:       w.dropped.Load(),
		Requeued:      w.requeued.Load(),
		RetriesTotal:  w.retriesTotal.Load(),
		BreakersTotal: breakerStats.Total,
		BreakersOpen:  breakerStats.Open,
	}
}

// Close gracefully shuts down the notifier, draining queued deliveries.
func (w *Webhook) Close(ctx context.Context) error {
	if w.closed.Swap(true) {
		return nil // already closed
	}

	w.logger.Info("Notifier shutting down", "queued", len(w.queue))

	close(w.shutdown)

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("Notifier shutdown complete",
			"delivered", w.delivered.Load(),
			"failed", w.failed.Load(),
			"dropped", w.dropped.Load(),
		)
		return nil
	case <-ctx.Done():
		w.logger.Warn("Notifier shutdown timed out", "remaining", len(w.queue))
		return ctx.Err()
	}
}

// worker processes deliveries from the queue.
func (w *Webhook) worker() {
	defer w.wg.Done()

	for {
		select {
		case <-w.shutdown:
			// Drain remaining deliveries before exiting
			w.drainQueue()
			return
		case d := <-w.queue:
			w.deliver(d)
		}
	}
}

// drainQueue delivers remaining webhooks after the shutdown signal.
func (w *Webhook) drainQueue() {
	for {
		select {
		case d := <-w.queue:
			w.deliver(d)
		default:
			return // queue empty
		}
	}
}

// deliver attempts one delivery with retry and circuit breaker.
func (w *Webhook) deliver(d *delivery) {
	host := extractHost(d.Destination)
	breaker := w.breakers.Get(host)

	if !breaker.Allow() {
		w.requeue(d, host)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	start := time.Now()
	if err := w.sendWithRetry(ctx, d); err != nil {
		breaker.RecordFailure()
		w.failed.Add(1)
		if w.metrics != nil {
			w.metrics.RecordNotifyFailed(ctx)
		}
		w.logger.Warn("Webhook delivery failed", "destination", host, "event", d.Payload.Event, "error", err)
		return
	}

	breaker.RecordSuccess()
	w.delivered.Add(1)
	if w.metrics != nil {
		w.metrics.RecordNotifyDelivered(ctx, time.Since(start).Seconds())
	}
}

// requeue puts a delivery back in the queue after a delay when the circuit
// is open.
func (w *Webhook) requeue(d *delivery, host string) {
	if d.Requeues >= defaultMaxRequeues {
		w.dropped.Add(1)
		if w.metrics != nil {
			w.metrics.RecordNotifyDropped(context.Background())
		}
		w.logger.Warn("Webhook dropped, max requeues reached",
			"destination", host,
			"event", d.Payload.Event,
			"requeues", d.Requeues,
		)
		return
	}

	d.Requeues++
	requeues := d.Requeues // capture for goroutine
	w.requeued.Add(1)

	// Requeue after the cooldown so the circuit has time to recover
	go func() {
		select {
		case <-w.shutdown:
			return
		case <-time.After(defaultBreakerCooldown):
		}

		select {
		case w.queue <- d:
			w.logger.Debug("Webhook requeued", "destination", host, "requeues", requeues)
		case <-w.shutdown:
		default:
			// Buffer full, drop
			w.dropped.Add(1)
			if w.metrics != nil {
				w.metrics.RecordNotifyDropped(context.Background())
			}
			w.logger.Warn("Webhook dropped on requeue, buffer full", "destination", host)
		}
	}()
}

func (w *Webhook) sendWithRetry(ctx context.Context, d *delivery) error {
	backoffCfg := &backoff.Config{
		Initial: defaultInitialBackoff,
		Max:     defaultMaxBackoff,
	}

	var lastErr error
	for attempt := range defaultMaxRetries + 1 {
		if attempt > 0 {
			w.retriesTotal.Add(1)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff.Exponential(attempt, backoffCfg)):
			}
		}

		lastErr = w.sender.Send(ctx, d.Destination, d.Payload, w.config.SigningKey)
		if lastErr == nil {
			return nil
		}
		if IsClientError(lastErr) {
			return lastErr
		}
	}
	return lastErr
}

// extractHost extracts the host from a URL for circuit breaker keying.
func extractHost(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return rawURL
	}
	return parsed.Host
}

// Verify Webhook implements job.Notifier
var _ job.Notifier = (*Webhook)(nil)
