package ratelimiter

import (
	"context"
)

// Limiter defines the interface for dual-budget rate limiters.
// Implementations enforce a request-count budget and a token-throughput
// budget together: an acquisition deducts from both or from neither.
type Limiter interface {
	// TryAcquire makes a single joint attempt with no waiting.
	// Returns nil on success, UnsatisfiableError when a cost can never
	// fit its budget, or TimeoutError when the budget is exhausted.
	TryAcquire(requestCost, tokenCost int) error

	// Acquire blocks until both costs are deducted, the context is
	// cancelled, or its deadline passes. Nothing is consumed on failure.
	Acquire(ctx context.Context, requestCost, tokenCost int) error
}
