package ratelimiter

import (
	"fmt"
	"sync"
)

// Registry manages rate limiters for different models. Each registry
// is an independent instance owned by whoever constructs it; there is
// no package-level registry.
type Registry interface {
	Get(model string) (Limiter, error)
	Set(model string, limiter Limiter)
	Remove(model string)

	// GetOrCreate returns the limiter registered for model, creating
	// one from limits on first use.
	GetOrCreate(model string, limits Limits) Limiter
}

type mapRegistry struct {
	registry map[string]Limiter
	mu       sync.RWMutex
}

// NewRegistry creates a new in-memory rate limiter registry.
func NewRegistry() Registry {
	return &mapRegistry{
		registry: make(map[string]Limiter),
	}
}

func (r *mapRegistry) Get(model string) (Limiter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	limiter, exists := r.registry[model]
	if !exists {
		return nil, fmt.Errorf("rate limiter not found for model: %s", model)
	}
	return limiter, nil
}

func (r *mapRegistry) Set(model string, limiter Limiter) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.registry[model] = limiter
}

func (r *mapRegistry) Remove(model string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.registry, model)
}

func (r *mapRegistry) GetOrCreate(model string, limits Limits) Limiter {
	r.mu.RLock()
	limiter, exists := r.registry[model]
	r.mu.RUnlock()
	if exists {
		return limiter
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if limiter, exists := r.registry[model]; exists {
		return limiter
	}
	limiter = New(limits)
	r.registry[model] = limiter
	return limiter
}
