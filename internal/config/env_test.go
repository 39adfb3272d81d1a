package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("TEST_STR", "hello")
	if got := GetEnv("TEST_STR", "fallback"); got != "hello" {
		t.Errorf("GetEnv() = %q, want %q", got, "hello")
	}
	if got := GetEnv("TEST_STR_MISSING", "fallback"); got != "fallback" {
		t.Errorf("GetEnv() = %q, want %q", got, "fallback")
	}
}

func TestGetIntEnv(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	if got := GetIntEnv("TEST_INT", 7); got != 42 {
		t.Errorf("GetIntEnv() = %d, want 42", got)
	}

	t.Setenv("TEST_INT_BAD", "not-a-number")
	if got := GetIntEnv("TEST_INT_BAD", 7); got != 7 {
		t.Errorf("GetIntEnv() = %d, want 7 (default on parse failure)", got)
	}
}

func TestGetInt64Env(t *testing.T) {
	t.Setenv("TEST_INT64", "10485760")
	if got := GetInt64Env("TEST_INT64", 1); got != 10485760 {
		t.Errorf("GetInt64Env() = %d, want 10485760", got)
	}
	if got := GetInt64Env("TEST_INT64_MISSING", 123); got != 123 {
		t.Errorf("GetInt64Env() = %d, want 123", got)
	}
}

func TestGetDurationEnv(t *testing.T) {
	t.Setenv("TEST_DUR", "90s")
	if got := GetDurationEnv("TEST_DUR", time.Second); got != 90*time.Second {
		t.Errorf("GetDurationEnv() = %v, want 90s", got)
	}

	t.Setenv("TEST_DUR_BAD", "ninety")
	if got := GetDurationEnv("TEST_DUR_BAD", time.Second); got != time.Second {
		t.Errorf("GetDurationEnv() = %v, want 1s (default on parse failure)", got)
	}
}

func TestGetSecretFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "secret")
	if err := os.WriteFile(path, []byte("  sekrit\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	if got := GetSecretFile(path); got != "sekrit" {
		t.Errorf("GetSecretFile() = %q, want %q (trimmed)", got, "sekrit")
	}
	if got := GetSecretFile(""); got != "" {
		t.Errorf("GetSecretFile(\"\") = %q, want empty", got)
	}
	if got := GetSecretFile("/nonexistent/path"); got != "" {
		t.Errorf("GetSecretFile(missing) = %q, want empty", got)
	}
}

func TestLoadServiceConfig_Defaults(t *testing.T) {
	cfg := LoadServiceConfig()

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.DefaultMaxConcurrent != 10 {
		t.Errorf("DefaultMaxConcurrent = %d, want 10", cfg.DefaultMaxConcurrent)
	}
	if cfg.MaxUploadSize != 10<<20 {
		t.Errorf("MaxUploadSize = %d, want %d", cfg.MaxUploadSize, 10<<20)
	}
	if cfg.JobRetention != 7*24*time.Hour {
		t.Errorf("JobRetention = %v, want 168h", cfg.JobRetention)
	}
	if cfg.RedisURL != "" {
		t.Errorf("RedisURL = %q, want empty", cfg.RedisURL)
	}
}
