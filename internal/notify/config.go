// Package notify delivers job completion webhooks. Deliveries are queued in
// a bounded channel and sent by a worker pool with retry, exponential backoff
// and a per-host circuit breaker.
package notify

import (
	"time"

	"evalapi/internal/config"
)

// Hardcoded delivery defaults - these rarely need tuning.
const (
	defaultMaxRetries       = 3
	defaultInitialBackoff   = 100 * time.Millisecond
	defaultMaxBackoff       = 5 * time.Second
	defaultBreakerThreshold = 5
	defaultBreakerCooldown  = 30 * time.Second
	defaultMaxRequeues      = 10
)

// Config holds configuration for the webhook notifier.
type Config struct {
	BufferSize  int           // pending deliveries buffer (default: 1000)
	Workers     int           // concurrent delivery goroutines (default: 4)
	HTTPTimeout time.Duration // per-request timeout (default: 10s)
	SigningKey  string        // HMAC key for X-Signature-256; empty disables signing
}

// LoadConfigFromEnv loads notifier configuration from environment variables.
func LoadConfigFromEnv() Config {
	cfg := Config{
		BufferSize:  config.GetIntEnv("WEBHOOK_BUFFER_SIZE", 1000),
		Workers:     config.GetIntEnv("WEBHOOK_WORKERS", 4),
		HTTPTimeout: config.GetDurationEnv("WEBHOOK_HTTP_TIMEOUT", 10*time.Second),
		SigningKey:  config.GetEnv("WEBHOOK_SIGNING_KEY", ""),
	}
	return cfg.withDefaults()
}

// withDefaults fills in zero values with defaults.
func (c Config) withDefaults() Config {
	if c.BufferSize <= 0 {
		c.BufferSize = 1000
	}
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = 10 * time.Second
	}
	return c
}
