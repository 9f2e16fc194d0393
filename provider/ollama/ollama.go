// Package ollama provides a Generator implementation for a local
// Ollama server via direct HTTP. There is no official Go SDK; the
// driver speaks the /api/generate endpoint directly.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mhpenta/guardrail"
	"github.com/mhpenta/guardrail/retry"
)

const defaultBaseURL = "http://localhost:11434"

// OllamaGenerator implements Generator against an Ollama server.
type OllamaGenerator struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// Ensure OllamaGenerator implements the interface.
var _ guardrail.Generator = (*OllamaGenerator)(nil)

// New creates a generator from a ProviderConfig with defaults applied.
// Ollama needs no API key; only BaseURL and Timeout are read.
func New(config *guardrail.ProviderConfig) *OllamaGenerator {
	g := &OllamaGenerator{BaseURL: defaultBaseURL}
	if config != nil {
		if url := strings.TrimSpace(config.BaseURL); url != "" {
			g.BaseURL = url
		}
		g.Timeout = config.Timeout
	}
	return g
}

// generateRequest is the /api/generate request body.
type generateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Format  string         `json:"format,omitempty"`
	Options map[string]any `json:"options,omitempty"`
}

// generateResponse is the non-streaming /api/generate response body.
type generateResponse struct {
	Model           string `json:"model"`
	Response        string `json:"response"`
	Done            bool   `json:"done"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
}

// Generate produces a completion for a text prompt.
func (g *OllamaGenerator) Generate(ctx context.Context, prompt string, config *guardrail.GenerateConfig) (*guardrail.Result, error) {
	if err := guardrail.ValidatePrompt(prompt); err != nil {
		return nil, retry.Permanent(err)
	}

	if config == nil {
		config = guardrail.DefaultConfig()
	}

	modelName := g.resolveModel(config)

	payload := generateRequest{
		Model:  modelName,
		Prompt: prompt,
		Stream: false,
	}
	if config.JSONMode {
		payload.Format = "json"
	}

	options := make(map[string]any)
	if config.Temperature != nil {
		options["temperature"] = *config.Temperature
	}
	if config.MaxOutputTokens > 0 {
		options["num_predict"] = config.MaxOutputTokens
	}
	if len(options) > 0 {
		payload.Options = options
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = g.Timeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("encode request: %w", err))
	}

	url := strings.TrimRight(g.BaseURL, "/") + "/api/generate"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("build request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")

	client := g.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		// Connection refused, DNS, timeout: the server may come back.
		return nil, retry.Transient(fmt.Errorf("ollama request failed: %w", err))
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, retry.Transient(fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		apiErr := &guardrail.APIError{
			Provider:   string(guardrail.ProviderOllama),
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(respBody)),
		}
		if guardrail.RetryableStatus(resp.StatusCode) {
			return nil, retry.Transient(apiErr)
		}
		return nil, retry.Permanent(apiErr)
	}

	var parsed generateResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, retry.Transient(fmt.Errorf("decode response: %w", err))
	}

	return &guardrail.Result{
		Text:  parsed.Response,
		Model: parsed.Model,
		UsageMetadata: &guardrail.UsageMetadata{
			PromptTokens:     parsed.PromptEvalCount,
			CompletionTokens: parsed.EvalCount,
			TotalTokens:      parsed.PromptEvalCount + parsed.EvalCount,
		},
	}, nil
}

// Models returns the model definitions supported by this provider.
// The first model is the default.
func (g *OllamaGenerator) Models() []guardrail.ModelInfo {
	return []guardrail.ModelInfo{
		Llama32Info,
		MistralInfo,
	}
}

// Close releases any resources held by the generator.
func (g *OllamaGenerator) Close() error {
	if g.HTTPClient != nil {
		g.HTTPClient.CloseIdleConnections()
	}
	return nil
}

// resolveModel determines which API model name to use.
func (g *OllamaGenerator) resolveModel(config *guardrail.GenerateConfig) string {
	if config != nil && config.Model != "" {
		return string(config.Model)
	}
	models := g.Models()
	if len(models) == 0 {
		return APIModelLlama32
	}
	return models[0].APIModelName
}
