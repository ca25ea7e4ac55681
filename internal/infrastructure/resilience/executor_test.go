package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastConfig() Config {
	return Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     2 * time.Millisecond,
		RetryMultiplier:     2.0,
		BreakerEnabled:      false,
	}
}

func alwaysRetryable(error) ErrorClassification {
	return ErrorClassification{Retryable: true, RecordFailure: true}
}

func neverRetryable(error) ErrorClassification {
	return ErrorClassification{Retryable: false, RecordFailure: true}
}

func TestExecuteSucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := NewExecutor(fastConfig()).Execute(context.Background(), "op", func(context.Context) error {
		calls++
		return nil
	}, alwaysRetryable)
	if err != nil || calls != 1 {
		t.Fatalf("Execute() = %v after %d calls", err, calls)
	}
}

func TestExecuteRetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := NewExecutor(fastConfig()).Execute(context.Background(), "op", func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	}, alwaysRetryable)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestExecuteStopsAfterMaxAttempts(t *testing.T) {
	calls := 0
	wantErr := errors.New("still broken")
	err := NewExecutor(fastConfig()).Execute(context.Background(), "op", func(context.Context) error {
		calls++
		return wantErr
	}, alwaysRetryable)
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected last error returned, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestExecuteDoesNotRetryTerminalErrors(t *testing.T) {
	calls := 0
	err := NewExecutor(fastConfig()).Execute(context.Background(), "op", func(context.Context) error {
		calls++
		return errors.New("bad request")
	}, neverRetryable)
	if err == nil || calls != 1 {
		t.Fatalf("expected single failing attempt, got err=%v calls=%d", err, calls)
	}
}

func TestExecuteRespectsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	err := NewExecutor(fastConfig()).Execute(ctx, "op", func(context.Context) error {
		calls++
		return nil
	}, alwaysRetryable)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
	if calls != 0 {
		t.Fatalf("expected no attempts on dead context, got %d", calls)
	}
}

func TestBreakerOpensAfterRepeatedFailures(t *testing.T) {
	cfg := fastConfig()
	cfg.RetryMaxAttempts = 1
	cfg.BreakerEnabled = true
	cfg.BreakerMinRequests = 3
	cfg.BreakerFailureRatio = 0.5
	cfg.BreakerOpenTimeout = time.Minute
	executor := NewExecutor(cfg)

	fail := func(context.Context) error { return errors.New("down") }
	for i := 0; i < 3; i++ {
		if err := executor.Execute(context.Background(), "broker", fail, alwaysRetryable); err == nil {
			t.Fatal("expected failure")
		}
	}

	err := executor.Execute(context.Background(), "broker", fail, alwaysRetryable)
	if !IsCircuitOpen(err) {
		t.Fatalf("expected open circuit, got %v", err)
	}

	// Other operations keep their own breaker and are unaffected.
	if err := executor.Execute(context.Background(), "sink", func(context.Context) error { return nil }, alwaysRetryable); err != nil {
		t.Fatalf("independent operation tripped: %v", err)
	}
}

func TestNonRecordedFailuresDoNotTripBreaker(t *testing.T) {
	cfg := fastConfig()
	cfg.RetryMaxAttempts = 1
	cfg.BreakerEnabled = true
	cfg.BreakerMinRequests = 2
	executor := NewExecutor(cfg)

	soft := func(error) ErrorClassification { return ErrorClassification{} }
	fail := func(context.Context) error { return errors.New("noop outage") }
	for i := 0; i < 6; i++ {
		if err := executor.Execute(context.Background(), "op", fail, soft); IsCircuitOpen(err) {
			t.Fatalf("breaker tripped on non-recorded failures at call %d", i)
		}
	}
}
