package circuitbreaker

import (
	"testing"
	"time"
)

func TestBreaker_OpensAtThreshold(t *testing.T) {
	t.Parallel()

	b := New(Config{Threshold: 3, Cooldown: time.Minute})

	for range 2 {
		b.RecordFailure()
	}
	if got := b.State(); got != Closed {
		t.Fatalf("State() after 2 failures = %v, want closed", got)
	}
	if !b.Allow() {
		t.Fatal("Allow() = false while closed")
	}

	b.RecordFailure()
	if got := b.State(); got != Open {
		t.Fatalf("State() after 3 failures = %v, want open", got)
	}
	if b.Allow() {
		t.Fatal("Allow() = true while open")
	}
}

func TestBreaker_HalfOpenAfterCooldown(t *testing.T) {
	t.Parallel()

	b := New(Config{Threshold: 1, Cooldown: 10 * time.Millisecond})
	b.RecordFailure()

	if b.Allow() {
		t.Fatal("Allow() = true immediately after opening")
	}

	time.Sleep(20 * time.Millisecond)

	if !b.Allow() {
		t.Fatal("Allow() = false after cooldown, want half-open probe")
	}
	if got := b.State(); got != HalfOpen {
		t.Fatalf("State() = %v, want half-open", got)
	}

	// Probe failure reopens immediately
	b.RecordFailure()
	if got := b.State(); got != Open {
		t.Fatalf("State() after failed probe = %v, want open", got)
	}
}

func TestBreaker_SuccessCloses(t *testing.T) {
	t.Parallel()

	b := New(Config{Threshold: 2, Cooldown: 10 * time.Millisecond})
	b.RecordFailure()
	b.RecordFailure()

	time.Sleep(20 * time.Millisecond)
	if !b.Allow() {
		t.Fatal("Allow() = false after cooldown")
	}
	b.RecordSuccess()

	if got := b.State(); got != Closed {
		t.Fatalf("State() after successful probe = %v, want closed", got)
	}
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	r := NewRegistry(Config{Threshold: 1, Cooldown: time.Minute})

	a := r.Get("host-a")
	if a != r.Get("host-a") {
		t.Fatal("Get() returned a different breaker for the same key")
	}

	r.Get("host-b").RecordFailure()

	stats := r.Stats()
	if stats.Total != 2 {
		t.Errorf("Stats().Total = %d, want 2", stats.Total)
	}
	if stats.Open != 1 {
		t.Errorf("Stats().Open = %d, want 1", stats.Open)
	}
	if stats.Closed != 1 {
		t.Errorf("Stats().Closed = %d, want 1", stats.Closed)
	}
}
