// Package gemini provides a Generator implementation using Google's Gemini API.
//
// This provider uses the Gemini API backend via the official Go SDK:
// https://github.com/googleapis/go-genai
//
// For Vertex AI or other Google Cloud backends, a separate provider
// implementation could be created using the same SDK with a different
// backend configuration.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mhpenta/guardrail"
	"github.com/mhpenta/guardrail/retry"
	"google.golang.org/genai"
)

// Model name constants - the actual API model names.
const (
	APIModelGeminiFlash     = "gemini-2.5-flash"
	APIModelGeminiFlashLite = "gemini-2.5-flash-lite"
)

// GeminiGenerator implements Generator using Google's Gemini API.
type GeminiGenerator struct {
	client *genai.Client
}

// Ensure GeminiGenerator implements the interface.
var _ guardrail.Generator = (*GeminiGenerator)(nil)

// New creates a new GeminiGenerator from a ProviderConfig.
func New(ctx context.Context, config *guardrail.ProviderConfig) (*GeminiGenerator, error) {
	if config == nil {
		config = &guardrail.ProviderConfig{}
	}

	clientCfg := &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
	}

	if config.APIKey != "" {
		clientCfg.APIKey = config.APIKey
	}
	// If APIKey is empty, the SDK will try GOOGLE_API_KEY or GEMINI_API_KEY env vars

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiGenerator{
		client: client,
	}, nil
}

// NewWithAPIKey creates a generator with an API key for Gemini API.
func NewWithAPIKey(ctx context.Context, apiKey string) (*GeminiGenerator, error) {
	return New(ctx, &guardrail.ProviderConfig{
		Provider: guardrail.ProviderGeminiAPI,
		APIKey:   apiKey,
	})
}

// Generate produces a completion for a text prompt.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string, config *guardrail.GenerateConfig) (*guardrail.Result, error) {
	if err := guardrail.ValidatePrompt(prompt); err != nil {
		return nil, retry.Permanent(err)
	}

	if config == nil {
		config = guardrail.DefaultConfig()
	}

	modelName := g.resolveModel(config)

	if config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.Timeout)
		defer cancel()
	}

	contents := []*genai.Content{
		{
			Parts: []*genai.Part{
				{Text: prompt},
			},
		},
	}

	genConfig := g.buildGenerateContentConfig(config)

	result, err := g.client.Models.GenerateContent(ctx, modelName, contents, genConfig)
	if err != nil {
		return nil, classifyErr(err, modelName)
	}

	return g.parseResult(result, modelName)
}

// Models returns the model definitions supported by this provider.
// The first model is the default.
func (g *GeminiGenerator) Models() []guardrail.ModelInfo {
	return []guardrail.ModelInfo{
		GeminiFlashInfo,
		GeminiFlashLiteInfo,
	}
}

// Close releases any resources held by the generator.
func (g *GeminiGenerator) Close() error {
	// The genai.Client doesn't require explicit closing in the current SDK
	return nil
}

// resolveModel determines which API model name to use.
// Falls back to the first model (default) if none specified.
func (g *GeminiGenerator) resolveModel(config *guardrail.GenerateConfig) string {
	if config != nil && config.Model != "" {
		return string(config.Model)
	}
	models := g.Models()
	if len(models) == 0 {
		return APIModelGeminiFlash
	}
	return models[0].APIModelName
}

// buildGenerateContentConfig converts our config to Gemini's GenerateContentConfig format.
func (g *GeminiGenerator) buildGenerateContentConfig(config *guardrail.GenerateConfig) *genai.GenerateContentConfig {
	genConfig := &genai.GenerateContentConfig{}

	if config.Temperature != nil {
		genConfig.Temperature = genai.Ptr(float32(*config.Temperature))
	}

	if config.MaxOutputTokens > 0 {
		genConfig.MaxOutputTokens = int32(config.MaxOutputTokens)
	}

	// Gemini enforces JSON output natively via the response MIME type.
	if config.JSONMode {
		genConfig.ResponseMIMEType = "application/json"
	}

	return genConfig
}

// parseResult converts a Gemini response to our result type.
func (g *GeminiGenerator) parseResult(result *genai.GenerateContentResponse, modelName string) (*guardrail.Result, error) {
	if result == nil || len(result.Candidates) == 0 {
		return nil, retry.Transient(errors.New("empty response from model"))
	}

	var text strings.Builder
	for _, candidate := range result.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.Thought {
				continue
			}
			if part.Text != "" {
				text.WriteString(part.Text)
			}
		}
	}

	genResult := &guardrail.Result{
		Text:  text.String(),
		Model: modelName,
	}

	if result.UsageMetadata != nil {
		genResult.UsageMetadata = &guardrail.UsageMetadata{
			PromptTokens:     int(result.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(result.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(result.UsageMetadata.TotalTokenCount),
		}
	}

	return genResult, nil
}

// classifyErr marks a Gemini API failure as transient or permanent for
// the retry controller. Quota exhaustion and server-side failures are
// transient; the rest of the 4xx range will fail the same way again.
func classifyErr(err error, model string) error {
	if err == nil {
		return nil
	}

	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		// Network-level failure, worth retrying
		return retry.Transient(fmt.Errorf("gemini request failed for %s: %w", model, err))
	}

	wrapped := &guardrail.APIError{
		Provider:   string(guardrail.ProviderGeminiAPI),
		StatusCode: apiErr.Code,
		Message:    apiErr.Message,
	}

	if apiErr.Status == "RESOURCE_EXHAUSTED" || guardrail.RetryableStatus(apiErr.Code) {
		return retry.Transient(wrapped)
	}
	return retry.Permanent(wrapped)
}
