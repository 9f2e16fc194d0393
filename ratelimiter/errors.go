package ratelimiter

import (
	"errors"
	"fmt"
	"time"
)

// UnsatisfiableError reports a cost that exceeds a budget's capacity.
// No amount of waiting can satisfy such a request.
type UnsatisfiableError struct {
	Limit    string
	Cost     float64
	Capacity float64
}

func (e *UnsatisfiableError) Error() string {
	return fmt.Sprintf("rate limit cost %.0f exceeds %s budget capacity %.0f", e.Cost, e.Limit, e.Capacity)
}

// TimeoutError reports an acquisition that could not complete before
// its deadline. Limit names the budget that fell short and Wait is how
// long the caller would have needed to wait for it.
type TimeoutError struct {
	Limit string
	Wait  time.Duration
	Err   error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("rate limit wait on %s budget timed out (needed %v): %v", e.Limit, e.Wait, e.Err)
}

func (e *TimeoutError) Unwrap() error {
	return e.Err
}

// IsUnsatisfiable checks if an error is an UnsatisfiableError.
func IsUnsatisfiable(err error) bool {
	var ue *UnsatisfiableError
	return errors.As(err, &ue)
}

// IsTimeout checks if an error is a TimeoutError.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}
