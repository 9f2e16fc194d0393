package guardrail

import (
	"math"
)

// TokenEstimator provides configurable token estimation strategies
type TokenEstimator interface {
	EstimateTokens(text string) int
}

// SimpleTokenEstimator - fast approximation of token usage for budgeting
type SimpleTokenEstimator struct {
	SafetyMargin float64
}

func NewSimpleTokenEstimator() *SimpleTokenEstimator {
	return &SimpleTokenEstimator{
		SafetyMargin: 1.2,
	}
}

func (e *SimpleTokenEstimator) EstimateTokens(text string) int {
	if text == "" {
		return 0
	}

	charCount := len([]rune(text))
	tokenEstimate := float64(charCount) / 4.0
	tokenEstimate *= e.SafetyMargin

	return int(math.Ceil(tokenEstimate)) + 3
}

// EstimateRequest estimates the total throughput cost of one call: the
// prompt plus the completion the caller expects back. The rate limiter
// charges this estimate up front; the true usage is only known after
// the provider responds.
func EstimateRequest(e TokenEstimator, prompt string, maxOutputTokens int) int {
	if e == nil {
		e = NewSimpleTokenEstimator()
	}
	cost := e.EstimateTokens(prompt)
	if maxOutputTokens > 0 {
		cost += maxOutputTokens
	}
	return cost
}
