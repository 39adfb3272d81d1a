// eval-service is the HTTP API server for running LLM evaluation jobs.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"evalapi/internal/api"
	"evalapi/internal/config"
	"evalapi/internal/eval"
	"evalapi/internal/health"
	"evalapi/internal/job"
	"evalapi/internal/notify"
	"evalapi/internal/observability"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if err := run(); err != nil {
		slog.Error("Service failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Load configuration
	svcCfg := config.LoadServiceConfig()
	notifyCfg := notify.LoadConfigFromEnv()

	// Setup metrics
	metrics, metricsHandler, err := observability.NewMetrics(ctx)
	if err != nil {
		return err
	}

	// Evaluation engine client
	engine := eval.NewEngine(eval.EngineConfig{
		BaseURL: svcCfg.EngineURL,
		Timeout: svcCfg.EngineTimeout,
		RPS:     svcCfg.EngineRPS,
	})
	slog.Info("Evaluation engine configured", "url", svcCfg.EngineURL)

	// Job store: Redis when configured, in-process memory otherwise
	var store job.Store
	if svcCfg.RedisURL != "" {
		opts, err := redis.ParseURL(svcCfg.RedisURL)
		if err != nil {
			return err
		}
		rdb := redis.NewClient(opts)
		if err := rdb.Ping(ctx).Err(); err != nil {
			return err
		}
		defer rdb.Close()
		store = job.NewRedisStore(rdb)
		slog.Info("Using Redis job store")
	} else {
		store = job.NewMemoryStore()
		slog.Info("Using in-memory job store")
	}

	registry := job.NewRegistry(store)
	runner := job.NewRunner(engine, metrics)

	// Completion webhook notifier
	notifier := notify.NewWebhook(notifyCfg, metrics, slog.Default())

	// Job dispatcher
	dispatcher := job.NewDispatcher(registry, runner, engine, notifier, metrics, slog.Default(), svcCfg.DefaultMaxConcurrent)

	// Retention janitor
	janitor := job.NewJanitor(registry, slog.Default(), svcCfg.JobRetention, svcCfg.CleanupInterval)
	janitorCtx, janitorCancel := context.WithCancel(ctx)
	defer janitorCancel()
	if svcCfg.CleanupInterval > 0 {
		go janitor.Run(janitorCtx)
	}

	// Create health checker
	healthChecker := health.NewChecker(engine)

	// Create API router
	router := api.NewRouter(api.RouterConfig{
		Registry:      registry,
		Dispatcher:    dispatcher,
		Janitor:       janitor,
		Evaluator:     engine,
		Metrics:       metrics,
		HealthChecker: healthChecker,
		APIKey:        svcCfg.APIKey,
		MaxUploadSize: svcCfg.MaxUploadSize,
	})

	if svcCfg.APIKey != "" {
		slog.Info("API authentication enabled")
	} else {
		slog.Warn("API authentication disabled - no API_KEY configured")
	}

	// Create API server
	apiServer := &http.Server{
		Addr:         ":" + svcCfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Create metrics server
	metricsMux := http.NewServeMux()
	metricsMux.Handle("GET /metrics", metricsHandler)
	metricsServer := &http.Server{
		Addr:         ":" + svcCfg.MetricsPort,
		Handler:      metricsMux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	// Channel to capture server errors
	serverErr := make(chan error, 1)

	// Start API server
	go func() {
		slog.Info("Starting API server", "port", svcCfg.Port)
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Start metrics server
	go func() {
		slog.Info("Starting metrics server", "port", svcCfg.MetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// shutdown closes both servers gracefully
	shutdown := func(timeout time.Duration) {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := apiServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("API server shutdown error", "error", err)
		}
		if err := metricsServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server shutdown error", "error", err)
		}
	}

	// Wait for interrupt signal or server error
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("Received shutdown signal", "signal", sig)
	case err := <-serverErr:
		slog.Error("Server failed to start", "error", err)
		shutdown(5 * time.Second)
		return err
	}

	// Phase 1: Mark service as unhealthy for load balancer draining
	healthChecker.SetShuttingDown()
	janitorCancel()

	// Wait for load balancers to stop sending traffic
	if svcCfg.ShutdownDrainWait > 0 {
		slog.Info("Waiting for traffic to drain", "duration", svcCfg.ShutdownDrainWait)
		time.Sleep(svcCfg.ShutdownDrainWait)
	}

	// Phase 2: Graceful shutdown - stop accepting new connections, finish in-flight requests
	slog.Info("Starting graceful shutdown")
	shutdown(25 * time.Second)

	// Phase 3: Wait for dispatched jobs, then drain the webhook notifier
	slog.Info("Waiting for running jobs", "running", dispatcher.Running())
	jobsCtx, jobsCancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer jobsCancel()
	if err := dispatcher.Close(jobsCtx); err != nil {
		slog.Warn("Jobs still running at shutdown deadline", "error", err)
	}

	slog.Info("Draining webhook notifier")
	notifierCtx, notifierCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer notifierCancel()
	if err := notifier.Close(notifierCtx); err != nil {
		slog.Warn("Notifier shutdown error", "error", err)
	}

	// Log final notifier stats
	stats := notifier.Stats()
	slog.Info("Notifier stats",
		"delivered", stats.Delivered,
		"failed", stats.Failed,
		"dropped", stats.Dropped,
	)

	slog.Info("Shutdown complete")
	return nil
}
