package retry

import (
	"errors"
	"math"
	"time"
)

// Backoff returns the wait after failed attempt number attempt
// (1-based): MinWait × Multiplier^(attempt−1), capped at MaxWait.
// The result is deterministic; no jitter is applied.
func (p Policy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	factor := math.Pow(p.Multiplier, float64(attempt-1))
	wait := float64(p.MinWait) * factor
	if limit := float64(p.MaxWait); wait > limit {
		wait = limit
	}
	if wait < 0 {
		wait = 0
	}
	return time.Duration(wait)
}

// Validate checks the policy for usable values.
func (p Policy) Validate() error {
	if p.MaxAttempts < 1 {
		return errors.New("retry: max attempts must be at least 1")
	}
	if p.MinWait < 0 {
		return errors.New("retry: min wait must not be negative")
	}
	if p.MaxWait < p.MinWait {
		return errors.New("retry: max wait must not be less than min wait")
	}
	if p.Multiplier <= 1 {
		return errors.New("retry: multiplier must be greater than 1")
	}
	return nil
}
