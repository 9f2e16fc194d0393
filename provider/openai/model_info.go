package openai

import "github.com/mhpenta/guardrail"

// Model name constants - the actual API model names.
const (
	APIModelGPT4oMini = "gpt-4o-mini"
	APIModelGPT4o     = "gpt-4o"
)

// GPT4oMiniInfo is the model info for GPT-4o mini, the default model
// for this provider. Rate limits reflect usage tier 1.
var GPT4oMiniInfo = guardrail.ModelInfo{
	Name:         "gpt-4o-mini",
	Provider:     guardrail.ProviderOpenAI,
	APIModelName: APIModelGPT4oMini,

	Capabilities: guardrail.ModelCapabilities{
		SupportsJSONMode:     true,
		SupportsSystemPrompt: true,
		SupportsStreaming:    true,
		MaxOutputTokens:      16384,
	},

	ContextLength: 128000,

	RateLimits: guardrail.RateLimits{
		TokensPerMinute:   200000,
		RequestsPerMinute: 500,
	},

	Pricing: guardrail.Pricing{
		InputTokensPerMillion:  0.15,
		OutputTokensPerMillion: 0.60,
	},
}

// GPT4oInfo is the model info for GPT-4o.
var GPT4oInfo = guardrail.ModelInfo{
	Name:         "gpt-4o",
	Provider:     guardrail.ProviderOpenAI,
	APIModelName: APIModelGPT4o,

	Capabilities: guardrail.ModelCapabilities{
		SupportsJSONMode:     true,
		SupportsSystemPrompt: true,
		SupportsStreaming:    true,
		MaxOutputTokens:      16384,
	},

	ContextLength: 128000,

	RateLimits: guardrail.RateLimits{
		TokensPerMinute:   30000,
		RequestsPerMinute: 500,
	},

	Pricing: guardrail.Pricing{
		InputTokensPerMillion:  2.50,
		OutputTokensPerMillion: 10.00,
	},
}
