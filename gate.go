package guardrail

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mhpenta/guardrail/ratelimiter"
	"github.com/mhpenta/guardrail/retry"
)

// Cost is the declared price of one outbound call: one unit of the
// request budget per call and the caller's estimate of the token
// throughput. Both parts are fixed before anything is consumed.
type Cost struct {
	Requests int
	Tokens   int
}

// Operation is a single outbound call executed through the gate.
type Operation = retry.Operation

// Gate composes rate limiting and retries around outbound calls in a
// fixed order: budget is acquired first, and only a granted call is
// handed to the retry controller. A limiter rejection surfaces
// immediately as *RateLimitError and the operation is never invoked;
// retrying against a budget that is not yet available would only burn
// the deadline.
type Gate struct {
	limiter ratelimiter.Limiter
	retrier *retry.Controller
	logger  *slog.Logger
	model   string
}

// NewGate builds a gate around the given limiter and retry controller.
// A nil limiter disables rate limiting: every call is granted and goes
// straight to the retry controller. A nil retrier gets the default
// retry policy.
func NewGate(limiter ratelimiter.Limiter, retrier *retry.Controller) *Gate {
	if retrier == nil {
		retrier = retry.New(retry.DefaultPolicy())
	}
	return &Gate{
		limiter: limiter,
		retrier: retrier,
		logger:  slog.Default(),
	}
}

// SetLogger sets the logger for rate-limit events and returns the gate.
func (g *Gate) SetLogger(logger *slog.Logger) *Gate {
	if logger != nil {
		g.logger = logger
	}
	return g
}

// SetModel sets the model name reported in errors and log events.
func (g *Gate) SetModel(model string) *Gate {
	g.model = model
	return g
}

// Do executes op through the gate: one budget acquisition, then the
// retry controller, whose outcome is returned verbatim. maxWait bounds
// only the budget wait; retry backoffs run against ctx alone. A zero
// maxWait leaves the wait bounded by ctx.
func (g *Gate) Do(ctx context.Context, cost Cost, maxWait time.Duration, op Operation) error {
	if g.limiter != nil {
		acquireCtx := ctx
		if maxWait > 0 {
			var cancel context.CancelFunc
			acquireCtx, cancel = context.WithTimeout(ctx, maxWait)
			defer cancel()
		}
		if err := g.limiter.Acquire(acquireCtx, cost.Requests, cost.Tokens); err != nil {
			return g.rateLimitError(err)
		}
	}
	return g.retrier.Do(ctx, op)
}

// TryDo is Do without waiting: a single non-blocking budget attempt.
// Callers that would rather fail fast than queue use this.
func (g *Gate) TryDo(ctx context.Context, cost Cost, op Operation) error {
	if g.limiter != nil {
		if err := g.limiter.TryAcquire(cost.Requests, cost.Tokens); err != nil {
			return g.rateLimitError(err)
		}
	}
	return g.retrier.Do(ctx, op)
}

// rateLimitError wraps a limiter rejection for the caller. The limiter
// error stays reachable through Unwrap, so IsUnsatisfiable and
// IsTimeout still distinguish the two kinds.
func (g *Gate) rateLimitError(err error) error {
	var (
		limitType  string
		retryAfter time.Duration
	)

	var unsat *ratelimiter.UnsatisfiableError
	var timeout *ratelimiter.TimeoutError
	switch {
	case errors.As(err, &unsat):
		limitType = unsat.Limit
	case errors.As(err, &timeout):
		limitType = timeout.Limit
		retryAfter = timeout.Wait
	}

	g.logger.Warn("rate limited, operation not invoked",
		"model", g.model,
		"limit", limitType,
		"retry_after_ms", retryAfter.Milliseconds())

	return &RateLimitError{
		RetryAfter: retryAfter,
		LimitType:  limitType,
		Model:      g.model,
		Err:        err,
	}
}
