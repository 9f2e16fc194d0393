package guardrail

import (
	"errors"
	"fmt"
	"time"
)

// RateLimitError is returned when the local rate limiter rejects a call
// before the provider is ever invoked. It wraps the limiter's own error,
// so ratelimiter.IsUnsatisfiable and ratelimiter.IsTimeout still apply.
type RateLimitError struct {
	RetryAfter time.Duration // Wait the limiter asked for; zero when waiting cannot help
	LimitType  string
	Model      string
	Err        error // Underlying error from the limiter
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s: %s limit, retry after %v",
		e.Model, e.LimitType, e.RetryAfter)
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// IsRateLimitError checks if an error is a RateLimitError.
func IsRateLimitError(err error) bool {
	var rlErr *RateLimitError
	return errors.As(err, &rlErr)
}

// APIError is a failed response from a provider's HTTP API.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s API error: status %d", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("%s API error: status %d: %s", e.Provider, e.StatusCode, e.Message)
}

// IsAPIError checks if an error is an APIError.
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}

// RetryableStatus reports whether an HTTP status code from a provider is
// worth retrying. Rate limiting, timeouts, and server-side failures are;
// the rest of the 4xx range indicates a request that will fail the same
// way every time.
func RetryableStatus(code int) bool {
	return code == 429 || code == 408 || code >= 500
}

// ErrStorageNotConfigured is returned when storage operations are attempted
// without a configured storage backend.
var ErrStorageNotConfigured = errors.New("storage not configured")
