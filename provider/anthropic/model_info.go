package anthropic

import "github.com/mhpenta/guardrail"

// Model name constants - the actual API model names.
const (
	APIModelClaudeHaiku  = "claude-3-5-haiku-latest"
	APIModelClaudeSonnet = "claude-sonnet-4-5"
)

// ClaudeHaikuInfo is the model info for Claude Haiku, the default
// model for this provider. Rate limits reflect build tier 1.
var ClaudeHaikuInfo = guardrail.ModelInfo{
	Name:         "claude-3-5-haiku-latest",
	Provider:     guardrail.ProviderAnthropic,
	APIModelName: APIModelClaudeHaiku,

	Capabilities: guardrail.ModelCapabilities{
		SupportsJSONMode:     false,
		SupportsSystemPrompt: true,
		SupportsStreaming:    true,
		MaxOutputTokens:      8192,
	},

	ContextLength: 200000,

	RateLimits: guardrail.RateLimits{
		TokensPerMinute:   50000,
		RequestsPerMinute: 50,
	},

	Pricing: guardrail.Pricing{
		InputTokensPerMillion:  0.80,
		OutputTokensPerMillion: 4.00,
	},
}

// ClaudeSonnetInfo is the model info for Claude Sonnet.
var ClaudeSonnetInfo = guardrail.ModelInfo{
	Name:         "claude-sonnet",
	Provider:     guardrail.ProviderAnthropic,
	APIModelName: APIModelClaudeSonnet,

	Capabilities: guardrail.ModelCapabilities{
		SupportsJSONMode:     false,
		SupportsSystemPrompt: true,
		SupportsStreaming:    true,
		MaxOutputTokens:      64000,
	},

	ContextLength: 200000,

	RateLimits: guardrail.RateLimits{
		TokensPerMinute:   30000,
		RequestsPerMinute: 50,
	},

	Pricing: guardrail.Pricing{
		InputTokensPerMillion:  3.00,
		OutputTokensPerMillion: 15.00,
	},
}
