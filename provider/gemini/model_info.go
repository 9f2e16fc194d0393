package gemini

import "github.com/mhpenta/guardrail"

// GeminiFlashInfo is the model info for Gemini 2.5 Flash, the default
// detection model for this provider. Rate limits reflect the free tier;
// register the model with your own limits on a paid plan.
var GeminiFlashInfo = guardrail.ModelInfo{
	Name:         "gemini-flash",
	Provider:     guardrail.ProviderGeminiAPI,
	APIModelName: APIModelGeminiFlash,

	Capabilities: guardrail.ModelCapabilities{
		SupportsJSONMode:     true,
		SupportsSystemPrompt: true,
		SupportsStreaming:    true,
		MaxOutputTokens:      65536,
	},

	ContextLength: 1048576, // 1M tokens

	RateLimits: guardrail.RateLimits{
		TokensPerMinute:   250000,
		RequestsPerMinute: 10,
		TokensPerDay:      0,
	},

	// Pricing as of mid-2026 per million tokens.
	Pricing: guardrail.Pricing{
		InputTokensPerMillion:  0.30,
		OutputTokensPerMillion: 2.50,
	},
}

// GeminiFlashLiteInfo is the model info for Gemini 2.5 Flash-Lite, a
// cheaper and faster variant suited to high-volume detection runs.
var GeminiFlashLiteInfo = guardrail.ModelInfo{
	Name:         "gemini-flash-lite",
	Provider:     guardrail.ProviderGeminiAPI,
	APIModelName: APIModelGeminiFlashLite,

	Capabilities: guardrail.ModelCapabilities{
		SupportsJSONMode:     true,
		SupportsSystemPrompt: true,
		SupportsStreaming:    true,
		MaxOutputTokens:      65536,
	},

	ContextLength: 1048576,

	RateLimits: guardrail.RateLimits{
		TokensPerMinute:   250000,
		RequestsPerMinute: 15,
		TokensPerDay:      0,
	},

	Pricing: guardrail.Pricing{
		InputTokensPerMillion:  0.10,
		OutputTokensPerMillion: 0.40,
	},
}
