package monitoring

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/revenuepulse/leakcalc/internal/config"
)

func TestChecker_RunStopsOnCancel(t *testing.T) {
	cfg := config.MonitoringConfig{
		CheckIntervalSecs:    1,
		LookbackWindowHours:  24,
		FailureRateThreshold: 0.10,
	}
	checker := NewChecker(NewCollector(newTestStore(t)), NewAlerter(cfg), cfg)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		checker.Run(ctx)
		close(done)
	}()

	// Let the immediate check and one tick happen, then cancel.
	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Checker.Run did not stop after context cancellation")
	}
}

func TestChecker_RunOnceCleanStore(t *testing.T) {
	cfg := config.MonitoringConfig{
		LookbackWindowHours:  24,
		FailureRateThreshold: 0.10,
	}
	checker := NewChecker(NewCollector(newTestStore(t)), NewAlerter(cfg), cfg)

	// An empty store triggers no alerts; the clean-path logging must not
	// choke on any snapshot field.
	checker.runOnce(context.Background(), zap.NewNop())
}

func TestChecker_DefaultInterval(t *testing.T) {
	cfg := config.MonitoringConfig{CheckIntervalSecs: 0}
	checker := NewChecker(NewCollector(newTestStore(t)), NewAlerter(cfg), cfg)
	assert.Equal(t, 5*time.Minute, checker.interval)

	// A pre-cancelled context still performs the startup check and returns.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	checker.Run(ctx)
}
