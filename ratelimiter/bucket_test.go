package ratelimiter

import (
	"sync"
	"testing"
	"time"
)

// fakeClock is a manually advanced clock for deterministic refill tests.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Now()}
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func TestTokenBucketConsume(t *testing.T) {
	clock := newFakeClock()
	bucket := NewTokenBucket(10, 1)
	bucket.now = clock.now
	bucket.lastRefill = clock.now()

	d := bucket.TryConsume(5)
	if !d.Allowed {
		t.Error("failed to consume tokens from full bucket")
	}
	if d.Remaining != 5 {
		t.Errorf("expected 5 remaining tokens, got %v", d.Remaining)
	}

	d = bucket.TryConsume(6)
	if d.Allowed {
		t.Error("should not be able to consume more than remaining")
	}
	if d.Unsatisfiable {
		t.Error("cost within capacity should not be unsatisfiable")
	}
	if d.Deficit != 1 {
		t.Errorf("expected deficit 1, got %v", d.Deficit)
	}
	if d.Wait != time.Second {
		t.Errorf("expected 1s wait for deficit 1 at 1 token/s, got %v", d.Wait)
	}

	// The denied attempt must not have consumed anything.
	if got := bucket.Remaining(); got < 5 {
		t.Errorf("denied consume changed balance: %v", got)
	}
}

func TestTokenBucketRefill(t *testing.T) {
	clock := newFakeClock()
	bucket := NewTokenBucket(60, 1)
	bucket.now = clock.now
	bucket.lastRefill = clock.now()

	if d := bucket.TryConsume(60); !d.Allowed {
		t.Fatal("full bucket should cover its capacity")
	}
	if d := bucket.TryConsume(1); d.Allowed {
		t.Fatal("empty bucket should deny")
	}

	clock.advance(30 * time.Second)
	if got := bucket.Remaining(); got != 30 {
		t.Errorf("expected 30 tokens after 30s at 1 token/s, got %v", got)
	}

	// Refill clamps at capacity no matter how long the idle period.
	clock.advance(time.Hour)
	if got := bucket.Remaining(); got != 60 {
		t.Errorf("expected refill clamped to capacity 60, got %v", got)
	}
}

func TestTokenBucketUnsatisfiable(t *testing.T) {
	bucket := NewTokenBucket(90000, 1500)

	d := bucket.TryConsume(100000)
	if d.Allowed {
		t.Error("cost above capacity must be denied")
	}
	if !d.Unsatisfiable {
		t.Error("cost above capacity must be reported as unsatisfiable")
	}
	if got := bucket.Remaining(); got != 90000 {
		t.Errorf("unsatisfiable attempt changed balance: %v", got)
	}
}

func TestTokenBucketWaitLaw(t *testing.T) {
	clock := newFakeClock()
	bucket := NewTokenBucket(60, 1)
	bucket.now = clock.now
	bucket.lastRefill = clock.now()

	bucket.TryConsume(60)

	d := bucket.TryConsume(30)
	if d.Allowed {
		t.Fatal("drained bucket should deny")
	}
	if d.Deficit != 30 {
		t.Errorf("expected deficit 30, got %v", d.Deficit)
	}
	if d.Wait != 30*time.Second {
		t.Errorf("expected 30s wait for deficit 30 at 1 token/s, got %v", d.Wait)
	}
}

func TestTokenBucketBoundedThroughput(t *testing.T) {
	// Over any window of length T, grants never exceed
	// capacity + refillRate * T.
	clock := newFakeClock()
	bucket := NewTokenBucket(100, 10)
	bucket.now = clock.now
	bucket.lastRefill = clock.now()

	const (
		step  = 100 * time.Millisecond
		steps = 600 // one minute
	)

	granted := 0.0
	for i := 0; i < steps; i++ {
		for bucket.TryConsume(7).Allowed {
			granted += 7
		}
		clock.advance(step)
	}

	elapsed := time.Duration(steps) * step
	bound := bucket.Capacity() + bucket.refillRate*elapsed.Seconds()
	if granted > bound {
		t.Errorf("granted %v exceeds bound %v over %v", granted, bound, elapsed)
	}

	if got := bucket.Remaining(); got < 0 || got > bucket.Capacity() {
		t.Errorf("balance %v outside [0, capacity]", got)
	}
}
