// Package config provides configuration loading from environment variables.
package config

import (
	"time"
)

// ServiceConfig holds configuration for the evaluation service.
type ServiceConfig struct {
	Port              string
	MetricsPort       string
	APIKey            string
	ShutdownDrainWait time.Duration // Time to wait for load balancer to drain (0 to skip)

	// Evaluation engine (the upstream scoring service)
	EngineURL     string
	EngineTimeout time.Duration
	EngineRPS     int // rate limit on engine calls, requests per second

	// Job execution
	DefaultMaxConcurrent int   // per-job concurrency bound when the request omits one
	MaxUploadSize        int64 // dataset upload limit in bytes

	// Retention
	JobRetention    time.Duration // terminal jobs older than this are swept
	CleanupInterval time.Duration // how often the janitor runs (0 disables the loop)

	// Storage
	RedisURL string // when set, job state lives in Redis instead of process memory
}

// LoadServiceConfig loads service configuration from environment variables.
func LoadServiceConfig() *ServiceConfig {
	return &ServiceConfig{
		Port:              GetEnv("PORT", "8080"),
		MetricsPort:       GetEnv("METRICS_PORT", "9090"),
		APIKey:            GetSecretFile(GetEnv("API_KEY_FILE", "")),
		ShutdownDrainWait: GetDurationEnv("SHUTDOWN_DRAIN_WAIT", 5*time.Second),

		EngineURL:     GetEnv("ENGINE_URL", "http://localhost:9000"),
		EngineTimeout: GetDurationEnv("ENGINE_TIMEOUT", 120*time.Second),
		EngineRPS:     GetIntEnv("ENGINE_RPS", 20),

		DefaultMaxConcurrent: GetIntEnv("DEFAULT_MAX_CONCURRENT", 10),
		MaxUploadSize:        GetInt64Env("MAX_UPLOAD_SIZE", 10<<20),

		JobRetention:    GetDurationEnv("JOB_RETENTION", 7*24*time.Hour),
		CleanupInterval: GetDurationEnv("CLEANUP_INTERVAL", time.Hour),

		RedisURL: GetEnv("REDIS_URL", ""),
	}
}
