package health

import (
	"context"
	"errors"
	"testing"
)

type fakeEngine struct {
	err error
}

func (f *fakeEngine) Ready(ctx context.Context) error { return f.err }

func TestChecker_Liveness(t *testing.T) {
	t.Parallel()
	checker := NewChecker(nil)

	response := checker.Liveness(context.Background())

	if response.Status != StatusHealthy {
		t.Errorf("Expected healthy status, got %s", response.Status)
	}
}

func TestChecker_Readiness_NoEngine(t *testing.T) {
	t.Parallel()
	checker := NewChecker(nil)

	response := checker.Readiness(context.Background())

	if response.Status != StatusUnhealthy {
		t.Errorf("Expected unhealthy status, got %s", response.Status)
	}

	engineCheck, ok := response.Checks["engine"]
	if !ok {
		t.Fatal("Expected engine check to be present")
	}
	if engineCheck.Status != StatusUnhealthy {
		t.Errorf("Expected engine check to be unhealthy, got %s", engineCheck.Status)
	}
}

func TestChecker_Readiness_EngineReady(t *testing.T) {
	t.Parallel()
	checker := NewChecker(&fakeEngine{})

	response := checker.Readiness(context.Background())

	if !response.IsHealthy() {
		t.Errorf("Expected healthy status, got %s", response.Status)
	}
}

func TestChecker_Readiness_EngineDown(t *testing.T) {
	t.Parallel()
	checker := NewChecker(&fakeEngine{err: errors.New("connection refused")})

	response := checker.Readiness(context.Background())

	if response.IsHealthy() {
		t.Error("Expected unhealthy status")
	}
	if response.Checks["engine"].Message != "connection refused" {
		t.Errorf("Expected error message to surface, got %q", response.Checks["engine"].Message)
	}
}

func TestChecker_SetShuttingDown(t *testing.T) {
	t.Parallel()
	checker := NewChecker(&fakeEngine{})

	if !checker.Readiness(context.Background()).IsHealthy() {
		t.Fatal("Expected healthy before shutdown")
	}

	checker.SetShuttingDown()

	response := checker.Readiness(context.Background())
	if response.IsHealthy() {
		t.Error("Expected unhealthy after shutdown")
	}
	if _, ok := response.Checks["shutdown"]; !ok {
		t.Error("Expected shutdown check to be present")
	}
}
