package ratelimiter

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Budget names reported in errors and log events.
const (
	LimitRequests = "requests"
	LimitTokens   = "tokens"
)

// Limits configures a dual-budget limiter from per-minute budgets.
// Each budget becomes a token bucket with capacity equal to the
// per-minute value, refilling at capacity/60 per second.
type Limits struct {
	RequestsPerMinute int
	TokensPerMinute   int
}

// RateLimiter enforces a request-count budget and a token-throughput
// budget over a shared pair of buckets. A cost is deducted from both
// buckets atomically: either both deductions succeed or neither does.
type RateLimiter struct {
	mu       sync.Mutex
	requests *TokenBucket
	tokens   *TokenBucket

	logger *slog.Logger
	now    func() time.Time
	sleep  func(context.Context, time.Duration) error
}

// Ensure RateLimiter implements Limiter.
var _ Limiter = (*RateLimiter)(nil)

// New initializes a dual-budget rate limiter with the given limits.
func New(limits Limits) *RateLimiter {
	return &RateLimiter{
		requests: NewTokenBucket(float64(limits.RequestsPerMinute), float64(limits.RequestsPerMinute)/60),
		tokens:   NewTokenBucket(float64(limits.TokensPerMinute), float64(limits.TokensPerMinute)/60),
		logger:   slog.Default(),
		now:      time.Now,
		sleep:    sleepContext,
	}
}

// SetLogger sets the logger used for wait events and returns the limiter.
func (rl *RateLimiter) SetLogger(logger *slog.Logger) *RateLimiter {
	if logger != nil {
		rl.logger = logger
	}
	return rl
}

// TryAcquire is Acquire with an immediate deadline: a single joint
// attempt with no waiting. A denial reports, via TimeoutError, which
// budget fell short and how long the caller would have needed to wait.
func (rl *RateLimiter) TryAcquire(requestCost, tokenCost int) error {
	wait, limit, err := rl.attempt(costOf(requestCost), costOf(tokenCost))
	if err != nil {
		return err
	}
	if wait > 0 {
		return &TimeoutError{Limit: limit, Wait: wait, Err: context.DeadlineExceeded}
	}
	return nil
}

// Acquire blocks until one request-count cost and tokenCost throughput
// tokens have been deducted from both budgets, the context is cancelled,
// or its deadline passes. On timeout or cancellation nothing has been
// consumed from either budget. A cost exceeding a budget's capacity
// fails immediately with UnsatisfiableError, since waiting cannot help.
// Costs are non-negative; negative values count as zero.
func (rl *RateLimiter) Acquire(ctx context.Context, requestCost, tokenCost int) error {
	reqCost, tokCost := costOf(requestCost), costOf(tokenCost)

	for {
		wait, limit, err := rl.attempt(reqCost, tokCost)
		if err != nil {
			return err
		}
		if wait == 0 {
			return nil
		}

		if deadline, ok := ctx.Deadline(); ok {
			remaining := deadline.Sub(rl.now())
			if remaining <= 0 {
				return &TimeoutError{Limit: limit, Wait: wait, Err: context.DeadlineExceeded}
			}
			if wait > remaining {
				wait = remaining
			}
		}

		rl.logger.Debug("rate limit budget exhausted, waiting",
			"limit", limit,
			"wait_ms", wait.Milliseconds(),
			"request_cost", requestCost,
			"token_cost", tokenCost)

		if err := rl.sleep(ctx, wait); err != nil {
			return &TimeoutError{Limit: limit, Wait: wait, Err: err}
		}
	}
}

// Remaining reports the current balance of both budgets.
func (rl *RateLimiter) Remaining() (requests, tokens float64) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.requests.refill(now)
	rl.tokens.refill(now)
	return rl.requests.tokens, rl.tokens.tokens
}

// attempt makes one joint pass over both buckets under the limiter's
// lock. It returns a non-nil error when a cost is unsatisfiable, zero
// wait when both costs were committed, or the wait needed on the budget
// that is furthest from covering its cost. The lock is never held
// beyond the attempt itself.
func (rl *RateLimiter) attempt(requestCost, tokenCost float64) (time.Duration, string, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.requests.refill(now)
	rl.tokens.refill(now)

	dReq := rl.requests.decide(requestCost)
	dTok := rl.tokens.decide(tokenCost)

	if dReq.Unsatisfiable {
		return 0, "", &UnsatisfiableError{Limit: LimitRequests, Cost: requestCost, Capacity: rl.requests.capacity}
	}
	if dTok.Unsatisfiable {
		return 0, "", &UnsatisfiableError{Limit: LimitTokens, Cost: tokenCost, Capacity: rl.tokens.capacity}
	}

	if dReq.Allowed && dTok.Allowed {
		rl.requests.take(requestCost)
		rl.tokens.take(tokenCost)
		return 0, "", nil
	}

	wait, limit := dReq.Wait, LimitRequests
	if dTok.Wait > wait {
		wait, limit = dTok.Wait, LimitTokens
	}
	return wait, limit, nil
}

func costOf(cost int) float64 {
	if cost < 0 {
		return 0
	}
	return float64(cost)
}

// sleepContext suspends for d or until the context is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
