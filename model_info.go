package guardrail

import "github.com/mhpenta/guardrail/ratelimiter"

// ModelCapabilities describes what features a model supports.
type ModelCapabilities struct {
	// SupportsJSONMode means the API can be told to emit JSON only
	SupportsJSONMode bool

	// SupportsSystemPrompt means instructions can be sent out of band
	SupportsSystemPrompt bool

	SupportsStreaming bool

	// MaxOutputTokens is the largest completion the model will produce
	MaxOutputTokens int
}

// RateLimits defines rate limiting parameters for a model.
type RateLimits struct {
	TokensPerMinute   int
	RequestsPerMinute int
	TokensPerDay      int // 0 = unlimited
}

// Limits converts per-minute budgets into the rate limiter's shape.
// The per-day budget is advisory metadata and is not enforced.
func (r RateLimits) Limits() ratelimiter.Limits {
	return ratelimiter.Limits{
		RequestsPerMinute: r.RequestsPerMinute,
		TokensPerMinute:   r.TokensPerMinute,
	}
}

// DefaultRateLimits is the budget assumed for models with no registered
// metadata. Deliberately conservative.
var DefaultRateLimits = RateLimits{
	TokensPerMinute:   90000,
	RequestsPerMinute: 60,
}

// Pricing defines cost information for a model.
type Pricing struct {
	InputTokensPerMillion  float64
	OutputTokensPerMillion float64
}

// ModelInfo contains complete metadata for a model.
type ModelInfo struct {
	// Identity
	Name         string   // Public model name (e.g., "llama3.2")
	Provider     Provider // Which provider serves this model
	APIModelName string   // Actual API name (e.g., "llama3.2:latest")

	// Capabilities
	Capabilities ModelCapabilities

	// Constraints
	ContextLength int

	// Rate Limits
	RateLimits RateLimits

	// Pricing
	Pricing Pricing
}
