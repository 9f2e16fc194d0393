package guardrail

import (
	"time"
)

// Model represents a specific text generation model.
type Model string

// GenerateConfig holds configuration options for text generation.
type GenerateConfig struct {
	// Model to use for generation (if empty, uses the redactor's default)
	Model Model

	// Temperature controls randomness (0.0-2.0). Detection prompts want
	// this low so category output stays stable.
	Temperature *float64

	// MaxOutputTokens caps the completion length. Zero lets the provider
	// use its own default.
	MaxOutputTokens int

	// JSONMode asks the provider for a JSON-only response where the API
	// supports it. Detection prompts set this.
	JSONMode bool

	// Timeout for the underlying API request. Zero uses the provider's
	// configured default.
	Timeout time.Duration

	// Metadata to attach to requests (for logging/tracking)
	Metadata map[string]string

	// Rate Limiting & Fallback
	// WaitOnRateLimit, if true, causes the Redactor to wait for budget when
	// rate limited. If false, a RateLimitError is returned immediately.
	WaitOnRateLimit bool

	// MaxWaitDuration is the maximum time to wait when WaitOnRateLimit is true.
	// Zero means no limit.
	MaxWaitDuration time.Duration
}

// WithModel returns a copy of the config with the specified model.
func (c *GenerateConfig) WithModel(model Model) *GenerateConfig {
	if c == nil {
		return &GenerateConfig{Model: model}
	}
	cX := *c
	cX.Model = model
	return &cX
}

// DefaultConfig returns a GenerateConfig with sensible defaults.
func DefaultConfig() *GenerateConfig {
	temp := 0.1
	return &GenerateConfig{
		Model:           ModelDefault,
		Temperature:     &temp,
		MaxOutputTokens: 2048,
		WaitOnRateLimit: true,
		MaxWaitDuration: 60 * time.Second,
	}
}

// DefaultConfigWithModel returns a default config with the specified model.
func DefaultConfigWithModel(model Model) *GenerateConfig {
	config := DefaultConfig()
	config.Model = model
	return config
}

// String returns the model identifier.
func (m Model) String() string {
	return string(m)
}
