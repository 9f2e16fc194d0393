// Package anthropic provides a Generator implementation using the
// official Anthropic Go SDK.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/mhpenta/guardrail"
	"github.com/mhpenta/guardrail/retry"
)

// jsonModeInstruction steers the model toward a bare JSON reply when
// JSONMode is requested. The Messages API has no native JSON mode.
const jsonModeInstruction = "Reply with a single valid JSON object and nothing else. No markdown fences, no prose."

// defaultMaxTokens caps completions when the caller sets no limit;
// the Messages API requires an explicit value.
const defaultMaxTokens = 4096

// AnthropicGenerator implements Generator using Anthropic's Messages API.
type AnthropicGenerator struct {
	client *anthropic.Client
}

// Ensure AnthropicGenerator implements the interface.
var _ guardrail.Generator = (*AnthropicGenerator)(nil)

// New creates a new AnthropicGenerator from a ProviderConfig.
func New(config *guardrail.ProviderConfig) (*AnthropicGenerator, error) {
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

	client := anthropic.NewClient(opts...)

	return &AnthropicGenerator{
		client: &client,
	}, nil
}

// NewWithAPIKey creates a generator with an API key and defaults.
func NewWithAPIKey(apiKey string) (*AnthropicGenerator, error) {
	return New(&guardrail.ProviderConfig{
		Provider: guardrail.ProviderAnthropic,
		APIKey:   apiKey,
	})
}

// Generate produces a completion for a text prompt.
func (g *AnthropicGenerator) Generate(ctx context.Context, prompt string, config *guardrail.GenerateConfig) (*guardrail.Result, error) {
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

	params := g.buildParams(prompt, modelName, config)

	msg, err := g.client.Messages.New(ctx, params)
	if err != nil {
		return nil, classifyErr(err, modelName)
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if b, ok := block.AsAny().(anthropic.TextBlock); ok {
			text.WriteString(b.Text)
		}
	}

	return &guardrail.Result{
		Text:  text.String(),
		Model: string(msg.Model),
		UsageMetadata: &guardrail.UsageMetadata{
			PromptTokens:     int(msg.Usage.InputTokens),
			CompletionTokens: int(msg.Usage.OutputTokens),
			TotalTokens:      int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
		},
	}, nil
}

// Models returns the model definitions supported by this provider.
// The first model is the default.
func (g *AnthropicGenerator) Models() []guardrail.ModelInfo {
	return []guardrail.ModelInfo{
		ClaudeHaikuInfo,
		ClaudeSonnetInfo,
	}
}

// Close releases any resources held by the generator.
func (g *AnthropicGenerator) Close() error {
	return nil
}

// resolveModel determines which API model name to use.
func (g *AnthropicGenerator) resolveModel(config *guardrail.GenerateConfig) string {
	if config != nil && config.Model != "" {
		return string(config.Model)
	}
	models := g.Models()
	if len(models) == 0 {
		return APIModelClaudeHaiku
	}
	return models[0].APIModelName
}

// buildParams constructs Messages API parameters from our config.
func (g *AnthropicGenerator) buildParams(prompt, modelName string, config *guardrail.GenerateConfig) anthropic.MessageNewParams {
	maxTokens := config.MaxOutputTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(modelName),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}

	if config.JSONMode {
		params.System = []anthropic.TextBlockParam{
			{Text: jsonModeInstruction},
		}
	}

	if config.Temperature != nil {
		params.Temperature = anthropic.Float(*config.Temperature)
	}

	return params
}

// classifyErr marks an Anthropic API failure as transient or permanent
// for the retry controller.
func classifyErr(err error, model string) error {
	if err == nil {
		return nil
	}

	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		// Network-level failure, worth retrying
		return retry.Transient(fmt.Errorf("anthropic request failed for %s: %w", model, err))
	}

	wrapped := &guardrail.APIError{
		Provider:   string(guardrail.ProviderAnthropic),
		StatusCode: apiErr.StatusCode,
		Message:    apiErr.Error(),
	}

	// 529 is Anthropic's overloaded status, alongside the usual 429/5xx.
	if guardrail.RetryableStatus(apiErr.StatusCode) {
		return retry.Transient(wrapped)
	}
	return retry.Permanent(wrapped)
}
