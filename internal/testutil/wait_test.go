package testutil

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestWaitFor_ConditionMet(t *testing.T) {
	var flag atomic.Bool
	go func() {
		time.Sleep(10 * time.Millisecond)
		flag.Store(true)
	}()

	ok := WaitFor(t, flag.Load, WithTimeout(time.Second), WithInterval(time.Millisecond))
	if !ok {
		t.Error("expected condition to be met")
	}
}

func TestWaitFor_Timeout(t *testing.T) {
	ok := WaitFor(t, func() bool { return false },
		WithTimeout(20*time.Millisecond), WithInterval(5*time.Millisecond))
	if ok {
		t.Error("expected timeout")
	}
}
