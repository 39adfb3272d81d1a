// Package backoff provides exponential backoff calculation.
package backoff

import (
	"math"
	"math/rand/v2"
	"time"
)

// Config for exponential backoff. Zero values use defaults.
type Config struct {
	Initial time.Duration // default: 100ms
	Max     time.Duration // default: 5s
	Jitter  float64       // fraction of the delay randomized, 0..1 (default: 0)
}

// Exponential calculates exponential backoff for a given attempt.
// Attempt 1 returns initial, attempt 2 returns initial*2, etc.
// With Jitter > 0 the result is scaled by a random factor in
// [1-Jitter, 1+Jitter] to spread out retry storms.
func Exponential(attempt int, cfg *Config) time.Duration {
	initial := 100 * time.Millisecond
	maxBackoff := 5 * time.Second
	jitter := 0.0
	if cfg != nil {
		if cfg.Initial > 0 {
			initial = cfg.Initial
		}
		if cfg.Max > 0 {
			maxBackoff = cfg.Max
		}
		if cfg.Jitter > 0 && cfg.Jitter <= 1 {
			jitter = cfg.Jitter
		}
	}

	if attempt < 1 {
		attempt = 1
	}
	delay := float64(initial) * math.Pow(2.0, float64(attempt-1))
	if delay > float64(maxBackoff) {
		delay = float64(maxBackoff)
	}
	if jitter > 0 {
		delay *= 1 + jitter*(2*rand.Float64()-1)
	}
	return time.Duration(delay)
}
