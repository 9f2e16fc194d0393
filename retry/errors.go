package retry

import (
	"errors"
	"fmt"
	"time"
)

// Outcome classifies how a single attempt ended.
type Outcome string

const (
	OutcomeSuccess   Outcome = "success"
	OutcomeTransient Outcome = "transient"
	OutcomePermanent Outcome = "permanent"
)

// Attempt records one attempt of an operation: its 1-based number, the
// backoff wait that preceded it, and how it ended.
type Attempt struct {
	Number     int
	WaitBefore time.Duration
	Outcome    Outcome
	Err        error
}

// TransientError marks a failure as retryable.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient failure: %v", e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// PermanentError marks a failure as non-retryable.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("permanent failure: %v", e.Err)
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// ExhaustedError reports that every allowed attempt failed. It carries
// the last underlying error and the full attempt history.
type ExhaustedError struct {
	Attempts []Attempt
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("retries exhausted after %d attempts: %v", len(e.Attempts), e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// Transient wraps err as retryable. A nil error stays nil; an error
// already marked transient is returned unchanged.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	var te *TransientError
	if errors.As(err, &te) {
		return err
	}
	return &TransientError{Err: err}
}

// Permanent wraps err as non-retryable. A nil error stays nil; an error
// already marked permanent is returned unchanged.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	var pe *PermanentError
	if errors.As(err, &pe) {
		return err
	}
	return &PermanentError{Err: err}
}

// IsTransient checks if an error carries a transient marker.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// IsPermanent checks if an error carries a permanent marker.
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}

// IsExhausted checks if an error reports exhausted retries.
func IsExhausted(err error) bool {
	var ee *ExhaustedError
	return errors.As(err, &ee)
}
