// Package openai provides a Generator implementation using the
// official OpenAI Go SDK over the Responses API.
package openai

import (
	"context"
	"errors"
	"fmt"

	"github.com/mhpenta/guardrail"
	"github.com/mhpenta/guardrail/retry"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
)

// jsonModeInstruction steers the model toward a bare JSON reply when
// JSONMode is requested.
const jsonModeInstruction = "Reply with a single valid JSON object and nothing else. No markdown fences, no prose."

// OpenAIGenerator implements Generator using OpenAI's Responses API.
type OpenAIGenerator struct {
	client *openai.Client
}

// Ensure OpenAIGenerator implements the interface.
var _ guardrail.Generator = (*OpenAIGenerator)(nil)

// New creates a new OpenAIGenerator from a ProviderConfig.
func New(config *guardrail.ProviderConfig) (*OpenAIGenerator, error) {
	if config == nil || config.APIKey == "" {
		return nil, guardrail.ErrMissingAPIKey
	}

	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
	}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}
	if config.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(config.Timeout))
	}

	client := openai.NewClient(opts...)

	return &OpenAIGenerator{
		client: &client,
	}, nil
}

// NewWithAPIKey creates a generator with an API key and defaults.
func NewWithAPIKey(apiKey string) (*OpenAIGenerator, error) {
	return New(&guardrail.ProviderConfig{
		Provider: guardrail.ProviderOpenAI,
		APIKey:   apiKey,
	})
}

// Generate produces a completion for a text prompt.
func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string, config *guardrail.GenerateConfig) (*guardrail.Result, error) {
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

	params := g.buildResponseParams(prompt, modelName, config)

	result, err := g.client.Responses.New(ctx, params)
	if err != nil {
		return nil, classifyErr(err, modelName)
	}

	return &guardrail.Result{
		Text:  result.OutputText(),
		Model: string(result.Model),
		UsageMetadata: &guardrail.UsageMetadata{
			PromptTokens:     int(result.Usage.InputTokens),
			CompletionTokens: int(result.Usage.OutputTokens),
			TotalTokens:      int(result.Usage.TotalTokens),
		},
	}, nil
}

// Models returns the model definitions supported by this provider.
// The first model is the default.
func (g *OpenAIGenerator) Models() []guardrail.ModelInfo {
	return []guardrail.ModelInfo{
		GPT4oMiniInfo,
		GPT4oInfo,
	}
}

// Close releases any resources held by the generator.
func (g *OpenAIGenerator) Close() error {
	return nil
}

// resolveModel determines which API model name to use.
func (g *OpenAIGenerator) resolveModel(config *guardrail.GenerateConfig) string {
	if config != nil && config.Model != "" {
		return string(config.Model)
	}
	models := g.Models()
	if len(models) == 0 {
		return APIModelGPT4oMini
	}
	return models[0].APIModelName
}

// buildResponseParams constructs Responses API parameters from our config.
func (g *OpenAIGenerator) buildResponseParams(prompt, modelName string, config *guardrail.GenerateConfig) responses.ResponseNewParams {
	input := make(responses.ResponseInputParam, 0, 2)
	if config.JSONMode {
		input = append(input, responses.ResponseInputItemParamOfMessage(jsonModeInstruction, responses.EasyInputMessageRoleSystem))
	}
	input = append(input, responses.ResponseInputItemParamOfMessage(prompt, responses.EasyInputMessageRoleUser))

	params := responses.ResponseNewParams{
		Model: shared.ResponsesModel(modelName),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: input,
		},
	}

	if config.MaxOutputTokens > 0 {
		params.MaxOutputTokens = openai.Int(int64(config.MaxOutputTokens))
	}
	if config.Temperature != nil {
		params.Temperature = openai.Float(*config.Temperature)
	}

	return params
}

// classifyErr marks an OpenAI API failure as transient or permanent
// for the retry controller.
func classifyErr(err error, model string) error {
	if err == nil {
		return nil
	}

	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		// Network-level failure, worth retrying
		return retry.Transient(fmt.Errorf("openai request failed for %s: %w", model, err))
	}

	wrapped := &guardrail.APIError{
		Provider:   string(guardrail.ProviderOpenAI),
		StatusCode: apiErr.StatusCode,
		Message:    apiErr.Message,
	}

	if guardrail.RetryableStatus(apiErr.StatusCode) {
		return retry.Transient(wrapped)
	}
	return retry.Permanent(wrapped)
}
