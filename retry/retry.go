package retry

import (
	"context"
	"log/slog"
	"time"
)

// Policy holds the retry configuration. Waits grow exponentially from
// MinWait by Multiplier per attempt, capped at MaxWait. Immutable once
// handed to a Controller.
type Policy struct {
	MaxAttempts int           `yaml:"max_attempts"`
	MinWait     time.Duration `yaml:"min_wait"`
	MaxWait     time.Duration `yaml:"max_wait"`
	Multiplier  float64       `yaml:"multiplier"`
}

// DefaultPolicy returns the standard policy: three attempts with
// waits of 2s and 4s between them.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		MinWait:     2 * time.Second,
		MaxWait:     10 * time.Second,
		Multiplier:  2,
	}
}

// Operation is a fallible unit of work executed under retry.
type Operation func(ctx context.Context) error

// Classifier reports whether an operation failure is transient and may
// be retried. A false result aborts the retry loop immediately.
type Classifier func(err error) bool

// DefaultClassifier retries everything not explicitly marked permanent.
func DefaultClassifier(err error) bool {
	return !IsPermanent(err)
}

// Controller executes operations with bounded exponential-backoff
// retries. It holds no per-call state and is safe for concurrent use.
type Controller struct {
	policy    Policy
	retryable Classifier
	logger    *slog.Logger
	sleep     func(context.Context, time.Duration) error
}

// Option configures a Controller.
type Option func(*Controller)

// WithClassifier sets the predicate deciding which failures are retried.
func WithClassifier(fn Classifier) Option {
	return func(c *Controller) {
		if fn != nil {
			c.retryable = fn
		}
	}
}

// WithLogger sets the logger for retry and exhaustion events.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a Controller with the given policy. MaxAttempts below one
// is treated as one.
func New(policy Policy, opts ...Option) *Controller {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	c := &Controller{
		policy:    policy,
		retryable: DefaultClassifier,
		logger:    slog.Default(),
		sleep:     sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Policy returns the controller's policy.
func (c *Controller) Policy() Policy {
	return c.policy
}

// Do runs op until it succeeds, fails permanently, exhausts the
// policy's attempts, or the context is cancelled during a backoff wait.
// A permanent failure is surfaced as a PermanentError with no wait and
// no further attempts; exhaustion is surfaced as an ExhaustedError
// carrying the last error and the full attempt history.
func (c *Controller) Do(ctx context.Context, op Operation) error {
	var history []Attempt
	var wait time.Duration

	for attempt := 1; attempt <= c.policy.MaxAttempts; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}

		if !c.retryable(err) {
			c.logger.Debug("permanent failure, not retrying",
				"attempt", attempt,
				"error", err)
			return Permanent(err)
		}

		history = append(history, Attempt{
			Number:     attempt,
			WaitBefore: wait,
			Outcome:    OutcomeTransient,
			Err:        err,
		})

		if attempt == c.policy.MaxAttempts {
			c.logger.Warn("retries exhausted",
				"attempts", attempt,
				"error", err)
			return &ExhaustedError{Attempts: history, Err: err}
		}

		wait = c.policy.Backoff(attempt)
		c.logger.Debug("transient failure, backing off",
			"attempt", attempt,
			"wait_ms", wait.Milliseconds(),
			"error", err)
		if err := c.sleep(ctx, wait); err != nil {
			return err
		}
	}

	return nil
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
