package ollama

import "github.com/mhpenta/guardrail"

// Model name constants - the actual API model names.
const (
	APIModelLlama32 = "llama3.2:latest"
	APIModelMistral = "mistral:latest"
)

// Llama32Info is the model info for Llama 3.2, the default detection
// model. A local server has no upstream quota; the limits below only
// keep a batch run from monopolizing the machine.
var Llama32Info = guardrail.ModelInfo{
	Name:         "llama3.2",
	Provider:     guardrail.ProviderOllama,
	APIModelName: APIModelLlama32,

	Capabilities: guardrail.ModelCapabilities{
		SupportsJSONMode:     true,
		SupportsSystemPrompt: true,
		SupportsStreaming:    true,
		MaxOutputTokens:      8192,
	},

	ContextLength: 131072,

	RateLimits: guardrail.RateLimits{
		TokensPerMinute:   200000,
		RequestsPerMinute: 120,
	},
}

// MistralInfo is the model info for Mistral 7B.
var MistralInfo = guardrail.ModelInfo{
	Name:         "mistral",
	Provider:     guardrail.ProviderOllama,
	APIModelName: APIModelMistral,

	Capabilities: guardrail.ModelCapabilities{
		SupportsJSONMode:     true,
		SupportsSystemPrompt: true,
		SupportsStreaming:    true,
		MaxOutputTokens:      8192,
	},

	ContextLength: 32768,

	RateLimits: guardrail.RateLimits{
		TokensPerMinute:   200000,
		RequestsPerMinute: 120,
	},
}
