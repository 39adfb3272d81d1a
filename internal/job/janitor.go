package job

import (
	"context"
	"log/slog"
	"time"
)

// Janitor deletes finished jobs past their retention window. Staleness is
// measured from completion, not creation: a job with no completed_at is still
// active and never eligible, however old it is.
type Janitor struct {
	registry *Registry
	logger   *slog.Logger

	retention time.Duration
	interval  time.Duration
}

// NewJanitor creates a janitor sweeping jobs older than retention every
// interval.
func NewJanitor(registry *Registry, logger *slog.Logger, retention, interval time.Duration) *Janitor {
	return &Janitor{
		registry:  registry,
		logger:    logger,
		retention: retention,
		interval:  interval,
	}
}

// Cleanup deletes every terminal job whose completed_at is older than maxAge,
// returning the number deleted.
func (jn *Janitor) Cleanup(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := jn.registry.now().UTC().Add(-maxAge)

	jobs, err := jn.registry.Snapshot(ctx)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, j := range jobs {
		if !j.Status.Terminal() || j.CompletedAt == nil {
			continue
		}
		if !j.CompletedAt.Before(cutoff) {
			continue
		}
		ok, err := jn.registry.Delete(ctx, j.ID)
		if err != nil {
			return deleted, err
		}
		if ok {
			deleted++
		}
	}
	return deleted, nil
}

// Run sweeps on a fixed interval until the context is cancelled.
func (jn *Janitor) Run(ctx context.Context) {
	ticker := time.NewTicker(jn.interval)
	defer ticker.Stop()

	jn.logger.Info("retention janitor started",
		"retention", jn.retention.String(),
		"interval", jn.interval.String())

	for {
		select {
		case <-ctx.Done():
			jn.logger.Info("retention janitor stopped")
			return
		case <-ticker.C:
			deleted, err := jn.Cleanup(ctx, jn.retention)
			if err != nil {
				jn.logger.Error("retention sweep failed", "error", err)
				continue
			}
			if deleted > 0 {
				jn.logger.Info("retention sweep removed jobs", "deleted", deleted)
			}
		}
	}
}
