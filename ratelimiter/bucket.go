package ratelimiter

import (
	"sync"
	"time"
)

// Decision reports the outcome of a single consumption attempt.
type Decision struct {
	// Allowed is true if the cost was (or could be) covered in full.
	Allowed bool

	// Remaining is the token balance after the attempt.
	Remaining float64

	// Deficit is how many tokens were missing when the attempt was denied.
	Deficit float64

	// Wait is how long the bucket needs to refill Deficit tokens,
	// ignoring any other consumers.
	Wait time.Duration

	// Unsatisfiable is true when the cost exceeds the bucket's capacity,
	// so no amount of waiting can ever satisfy it.
	Unsatisfiable bool
}

// TokenBucket implements a token bucket with continuous refill.
// Tokens replenish at refillRate per second up to capacity; consumption
// is all-or-nothing. The zero value is not usable, use NewTokenBucket.
type TokenBucket struct {
	mu         sync.Mutex
	capacity   float64
	tokens     float64
	refillRate float64 // tokens per second
	lastRefill time.Time
	now        func() time.Time
}

// NewTokenBucket creates a full bucket holding up to capacity tokens,
// refilling at refillRate tokens per second.
func NewTokenBucket(capacity, refillRate float64) *TokenBucket {
	tb := &TokenBucket{
		capacity:   capacity,
		tokens:     capacity,
		refillRate: refillRate,
		now:        time.Now,
	}
	tb.lastRefill = tb.now()
	return tb
}

// TryConsume attempts to consume cost tokens. The bucket is refilled for
// elapsed time first; tokens are deducted only when the full cost is
// covered. A denied attempt reports the deficit and the wait needed
// before this exact cost could be satisfied.
func (tb *TokenBucket) TryConsume(cost float64) Decision {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill(tb.now())
	d := tb.decide(cost)
	if d.Allowed {
		tb.take(cost)
		d.Remaining = tb.tokens
	}
	return d
}

// Capacity returns the maximum token balance.
func (tb *TokenBucket) Capacity() float64 {
	return tb.capacity
}

// Remaining returns the current token balance after accounting for refill.
func (tb *TokenBucket) Remaining() float64 {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.refill(tb.now())
	return tb.tokens
}

// refill credits tokens for the time elapsed since the last refill,
// clamped to capacity. Callers must hold mu or otherwise own the bucket.
func (tb *TokenBucket) refill(now time.Time) {
	elapsed := now.Sub(tb.lastRefill)
	if elapsed <= 0 {
		return
	}
	tb.tokens += elapsed.Seconds() * tb.refillRate
	if tb.tokens > tb.capacity {
		tb.tokens = tb.capacity
	}
	tb.lastRefill = now
}

// decide evaluates cost against the current balance without consuming.
// Callers must refill first and hold mu or otherwise own the bucket.
func (tb *TokenBucket) decide(cost float64) Decision {
	if cost > tb.capacity {
		return Decision{
			Remaining:     tb.tokens,
			Deficit:       cost - tb.tokens,
			Unsatisfiable: true,
		}
	}
	if cost <= tb.tokens {
		return Decision{Allowed: true, Remaining: tb.tokens - cost}
	}
	deficit := cost - tb.tokens
	return Decision{
		Remaining: tb.tokens,
		Deficit:   deficit,
		Wait:      time.Duration(deficit / tb.refillRate * float64(time.Second)),
	}
}

// take deducts cost tokens. Callers must hold mu or otherwise own the
// bucket, and must have verified the balance via decide.
func (tb *TokenBucket) take(cost float64) {
	tb.tokens -= cost
	if tb.tokens < 0 {
		tb.tokens = 0
	}
}
