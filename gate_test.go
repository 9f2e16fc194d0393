package guardrail

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mhpenta/guardrail/ratelimiter"
	"github.com/mhpenta/guardrail/retry"
)

// stubLimiter is a Limiter with scripted outcomes.
type stubLimiter struct {
	acquireErr error
	tryErr     error
	acquired   int
}

func (s *stubLimiter) Acquire(ctx context.Context, requestCost, tokenCost int) error {
	if s.acquireErr != nil {
		return s.acquireErr
	}
	s.acquired++
	return nil
}

func (s *stubLimiter) TryAcquire(requestCost, tokenCost int) error {
	if s.tryErr != nil {
		return s.tryErr
	}
	s.acquired++
	return nil
}

func TestGate_LimiterRejectionNeverInvokesOp(t *testing.T) {
	limiter := &stubLimiter{
		acquireErr: &ratelimiter.UnsatisfiableError{Limit: ratelimiter.LimitTokens, Cost: 100000, Capacity: 90000},
	}
	gate := NewGate(limiter, retry.New(retry.DefaultPolicy()))

	invoked := false
	err := gate.Do(context.Background(), Cost{Requests: 1, Tokens: 100000}, 0, func(ctx context.Context) error {
		invoked = true
		return nil
	})

	if invoked {
		t.Fatal("operation invoked despite limiter rejection")
	}
	if !IsRateLimitError(err) {
		t.Fatalf("expected RateLimitError, got %T: %v", err, err)
	}
	if !ratelimiter.IsUnsatisfiable(err) {
		t.Error("unsatisfiable kind must stay reachable through the wrapper")
	}
}

func TestGate_TimeoutCarriesRetryAfter(t *testing.T) {
	limiter := &stubLimiter{
		acquireErr: &ratelimiter.TimeoutError{
			Limit: ratelimiter.LimitRequests,
			Wait:  3 * time.Second,
			Err:   context.DeadlineExceeded,
		},
	}
	gate := NewGate(limiter, retry.New(retry.DefaultPolicy()))

	err := gate.Do(context.Background(), Cost{Requests: 1}, time.Second, func(ctx context.Context) error {
		t.Fatal("operation invoked despite timeout")
		return nil
	})

	var rlErr *RateLimitError
	if !errors.As(err, &rlErr) {
		t.Fatalf("expected RateLimitError, got %T: %v", err, err)
	}
	if rlErr.RetryAfter != 3*time.Second {
		t.Errorf("RetryAfter = %v, want 3s", rlErr.RetryAfter)
	}
	if rlErr.LimitType != ratelimiter.LimitRequests {
		t.Errorf("LimitType = %q, want %q", rlErr.LimitType, ratelimiter.LimitRequests)
	}
	if !ratelimiter.IsTimeout(err) {
		t.Error("timeout kind must stay reachable through the wrapper")
	}
}

func TestGate_NilLimiterAlwaysGrants(t *testing.T) {
	gate := NewGate(nil, retry.New(retry.DefaultPolicy()))

	invoked := false
	err := gate.Do(context.Background(), Cost{Requests: 1, Tokens: 1 << 30}, 0, func(ctx context.Context) error {
		invoked = true
		return nil
	})
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if !invoked {
		t.Fatal("operation not invoked with limiter disabled")
	}
}

func TestGate_RetryOutcomeVerbatim(t *testing.T) {
	limiter := &stubLimiter{}
	gate := NewGate(limiter, retry.New(retry.Policy{
		MaxAttempts: 2,
		MinWait:     time.Millisecond,
		MaxWait:     time.Millisecond,
		Multiplier:  2,
	}))

	opErr := errors.New("bad payload")
	err := gate.Do(context.Background(), Cost{Requests: 1, Tokens: 10}, 0, func(ctx context.Context) error {
		return retry.Permanent(opErr)
	})

	if !retry.IsPermanent(err) {
		t.Fatalf("expected permanent error passed through, got %T: %v", err, err)
	}
	if !errors.Is(err, opErr) {
		t.Error("underlying operation error must stay reachable")
	}
	if limiter.acquired != 1 {
		t.Errorf("acquisitions = %d, want 1", limiter.acquired)
	}
}

func TestGate_RateLimiterOutcomeNotRetried(t *testing.T) {
	// The limiter rejects every acquisition; the gate must surface the
	// rejection once instead of looping through the retry controller.
	limiter := &stubLimiter{
		acquireErr: &ratelimiter.TimeoutError{Limit: ratelimiter.LimitTokens, Wait: time.Minute, Err: context.DeadlineExceeded},
	}

	attempts := 0
	gate := NewGate(limiter, retry.New(retry.Policy{
		MaxAttempts: 5,
		MinWait:     time.Millisecond,
		MaxWait:     time.Millisecond,
		Multiplier:  2,
	}))

	start := time.Now()
	err := gate.Do(context.Background(), Cost{Requests: 1}, 0, func(ctx context.Context) error {
		attempts++
		return nil
	})

	if attempts != 0 {
		t.Errorf("operation attempts = %d, want 0", attempts)
	}
	if !IsRateLimitError(err) {
		t.Fatalf("expected RateLimitError, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("gate spent %v on a non-retryable rejection", elapsed)
	}
}

func TestGate_TryDo(t *testing.T) {
	limiter := &stubLimiter{
		tryErr: &ratelimiter.TimeoutError{Limit: ratelimiter.LimitRequests, Wait: time.Second, Err: context.DeadlineExceeded},
	}
	gate := NewGate(limiter, nil)

	err := gate.TryDo(context.Background(), Cost{Requests: 1}, func(ctx context.Context) error {
		t.Fatal("operation invoked despite denial")
		return nil
	})
	if !IsRateLimitError(err) {
		t.Fatalf("expected RateLimitError, got %v", err)
	}

	limiter.tryErr = nil
	invoked := false
	if err := gate.TryDo(context.Background(), Cost{Requests: 1}, func(ctx context.Context) error {
		invoked = true
		return nil
	}); err != nil {
		t.Fatalf("TryDo failed: %v", err)
	}
	if !invoked {
		t.Fatal("operation not invoked after grant")
	}
}
