package guardrail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mhpenta/guardrail/ratelimiter"
	"github.com/mhpenta/guardrail/retry"
)

const (
	ModelLlama32     Model = "llama3.2"                // local Ollama
	ModelGPT4oMini   Model = "gpt-4o-mini"             // OpenAI
	ModelClaudeHaiku Model = "claude-3-5-haiku-latest" // Anthropic
	ModelGeminiFlash Model = "gemini-2.5-flash"        // Gemini API

	ModelDefault Model = ModelLlama32
)

var (
	// ErrModelNotRegistered is returned when a model has no registered provider.
	ErrModelNotRegistered = errors.New("model not registered")

	// ErrProviderNotConfigured is returned when a provider lacks required config.
	ErrProviderNotConfigured = errors.New("provider not configured")

	// ErrProcessingUnavailable is returned when processing is requested but no
	// processing model has been configured.
	ErrProcessingUnavailable = errors.New("processing model not configured")

	// ErrNoCategories is returned when a detection call selects no categories.
	ErrNoCategories = errors.New("no categories selected")
)

// Provider represents a model provider/backend.
type Provider string

const (
	ProviderOllama    Provider = "ollama"
	ProviderOpenAI    Provider = "openai"
	ProviderGeminiAPI Provider = "gemini"
	ProviderAnthropic Provider = "anthropic"
)

// ProviderConfig configures a specific provider.
type ProviderConfig struct {
	// Provider type
	Provider Provider

	// APIKey for authentication
	APIKey string

	// BaseURL for custom endpoints (optional)
	BaseURL string

	// Timeout for API requests (optional)
	Timeout time.Duration
}

// ModelMapping maps a model identifier to its provider and actual model name.
type ModelMapping struct {
	Provider        Provider
	ActualModelName string
}

// Redactor detects and redacts sensitive information in text by routing
// detection and processing calls to registered providers. Every outbound
// call passes through a per-model gate that acquires rate-limit budget
// first and then runs the call under the retry controller.
type Redactor struct {
	// Model to provider mapping
	modelMappings map[Model]ModelMapping

	// Provider instances
	providers map[Provider]Generator

	// Default model for detection when config.Model is empty
	defaultModel Model

	// Model for processing redacted text; empty disables processing
	processingModel Model

	// Rate limiters (per model) and the gates built on them
	limiters ratelimiter.Registry
	gates    map[Model]*Gate

	// Retry behavior shared by all gates
	retryPolicy retry.Policy
	classifier  retry.Classifier
	retrier     *retry.Controller

	// Model info (per model)
	modelInfo map[Model]*ModelInfo

	// Category table used by detection
	categories []Category

	// Instruction prepended to redacted text for processing
	instructionPrefix string

	// Logger for structured logging (optional)
	logger *slog.Logger

	// Storage for exporting redaction results (optional)
	storage Storage

	tokenEstimator TokenEstimator

	// Security posture
	limitingEnabled bool
	sanitizeErrors  bool
	logSensitive    bool

	mu sync.RWMutex
}

// Ensure Redactor implements the interface.
var _ Generator = (*Redactor)(nil)

// New creates a new Redactor.
func New() *Redactor {
	r := &Redactor{
		logger:            slog.Default(),
		modelMappings:     make(map[Model]ModelMapping),
		providers:         make(map[Provider]Generator),
		limiters:          ratelimiter.NewRegistry(),
		gates:             make(map[Model]*Gate),
		retryPolicy:       retry.DefaultPolicy(),
		modelInfo:         make(map[Model]*ModelInfo),
		categories:        DefaultCategories(),
		instructionPrefix: DefaultInstructionPrefix,
		tokenEstimator:    NewSimpleTokenEstimator(),
		defaultModel:      ModelDefault,
		limitingEnabled:   true,
		sanitizeErrors:    true,
	}
	r.rebuildLocked()
	return r
}

// RegisterModel registers a model with full info (including rate limits).
// Uses the default in-memory rate limiter. Use SetRateLimiter to override
// with a custom implementation.
func (r *Redactor) RegisterModel(model Model, mapping ModelMapping, info *ModelInfo) *Redactor {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.modelMappings[model] = mapping
	r.modelInfo[model] = info

	// Create default in-memory rate limiter from model's rate limits
	if info.RateLimits.TokensPerMinute > 0 || info.RateLimits.RequestsPerMinute > 0 {
		r.limiters.Set(string(model), ratelimiter.New(info.RateLimits.Limits()).SetLogger(r.logger))
		delete(r.gates, model)
	}

	return r
}

// RegisterProvider registers a provider instance for a provider type.
func (r *Redactor) RegisterProvider(provider Provider, gen Generator) *Redactor {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.providers[provider] = gen
	return r
}

// SetRateLimiter sets a custom rate limiter for a model.
// Use this to swap in a shared limiter when several models draw on the
// same upstream quota.
func (r *Redactor) SetRateLimiter(model Model, limiter ratelimiter.Limiter) *Redactor {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.limiters.Set(string(model), limiter)
	delete(r.gates, model)
	return r
}

// SetRateLimiting enables or disables rate limiting for all models.
// When disabled, gates skip budget acquisition entirely and every call
// goes straight to the retry controller.
func (r *Redactor) SetRateLimiting(enabled bool) *Redactor {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.limitingEnabled = enabled
	r.gates = make(map[Model]*Gate)
	return r
}

// SetDefaultModel sets the detection model used when config.Model is empty.
func (r *Redactor) SetDefaultModel(model Model) *Redactor {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.defaultModel = model
	return r
}

// SetProcessingModel sets the model that processes redacted text.
// An empty model disables processing.
func (r *Redactor) SetProcessingModel(model Model) *Redactor {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.processingModel = model
	return r
}

// SetRetryPolicy sets the retry policy applied to all outbound calls.
func (r *Redactor) SetRetryPolicy(policy retry.Policy) *Redactor {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.retryPolicy = policy
	r.rebuildLocked()
	return r
}

// SetClassifier sets the predicate deciding whether a provider failure
// is worth retrying. The default retries everything not marked permanent.
func (r *Redactor) SetClassifier(classifier retry.Classifier) *Redactor {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.classifier = classifier
	r.rebuildLocked()
	return r
}

// SetLogger sets a structured logger for the redactor.
// When set, the redactor logs detection requests, completions, errors,
// and rate limiting events.
func (r *Redactor) SetLogger(logger *slog.Logger) *Redactor {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.logger = logger
	r.rebuildLocked()
	return r
}

// SetStorage sets a storage backend for exporting redaction results.
// Use SaveResult to export results after detection.
func (r *Redactor) SetStorage(storage Storage) *Redactor {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.storage = storage
	return r
}

// SetCategories replaces the category table used by detection.
func (r *Redactor) SetCategories(categories []Category) *Redactor {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.categories = categories
	return r
}

// SetInstructionPrefix sets the instruction prepended to redacted text
// when it is submitted for processing.
func (r *Redactor) SetInstructionPrefix(prefix string) *Redactor {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.instructionPrefix = prefix
	return r
}

// SetTokenEstimator sets the estimator used to price calls against the
// token budget.
func (r *Redactor) SetTokenEstimator(estimator TokenEstimator) *Redactor {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tokenEstimator = estimator
	return r
}

// SetSanitizeErrors controls whether credential-shaped substrings are
// scrubbed from rendered error messages.
func (r *Redactor) SetSanitizeErrors(sanitize bool) *Redactor {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sanitizeErrors = sanitize
	return r
}

// SetSensitiveLogging controls whether detected values may appear in
// debug logs and exports. Keep this off in production.
func (r *Redactor) SetSensitiveLogging(enabled bool) *Redactor {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.logSensitive = enabled
	return r
}

// Storage returns the configured storage backend, or nil if not set.
func (r *Redactor) Storage() Storage {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.storage
}

// Categories returns a copy of the configured category table.
func (r *Redactor) Categories() []Category {
	r.mu.RLock()
	defer r.mu.RUnlock()

	categories := make([]Category, len(r.categories))
	copy(categories, r.categories)
	return categories
}

// SaveResult exports a redaction result to the configured storage.
// Detected values and the original text are included only when
// sensitive logging is enabled. If no storage is configured, returns
// ErrStorageNotConfigured.
func (r *Redactor) SaveResult(ctx context.Context, result *RedactionResult, basePath string) (*StorageResult, error) {
	r.mu.RLock()
	storage := r.storage
	includeSensitive := r.logSensitive
	r.mu.RUnlock()

	return SaveResult(ctx, storage, result, basePath, includeSensitive)
}

// Generate routes a completion request to the model's provider through
// its gate. Detection and processing are built on top of this.
func (r *Redactor) Generate(ctx context.Context, prompt string, config *GenerateConfig) (*Result, error) {
	if err := ValidatePrompt(prompt); err != nil {
		return nil, err
	}
	if config == nil {
		config = DefaultConfig()
	}

	model := r.resolveModel(config)
	start := time.Now()

	r.logger.Debug("starting generation",
		"model", string(model),
		"prompt_length", len(prompt),
	)

	gen, actualConfig, err := r.getGeneratorForConfig(config)
	if err != nil {
		r.logger.Error("failed to get generator",
			"model", string(model),
			"error", err.Error(),
		)

		return nil, err
	}

	cost := Cost{
		Requests: 1,
		Tokens:   EstimateRequest(r.tokenEstimator, prompt, actualConfig.MaxOutputTokens),
	}

	var result *Result
	op := func(ctx context.Context) error {
		res, opErr := gen.Generate(ctx, prompt, actualConfig)
		if opErr != nil {
			return opErr
		}
		result = res
		return nil
	}

	if err := r.throughGate(ctx, model, config, cost, op); err != nil {
		r.logger.Error("generation failed",
			"model", string(model),
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err.Error(),
		)

		return nil, r.sanitizeErr(err)
	}

	duration := time.Since(start)

	// Log success with usage metadata
	logAttrs := []any{
		"model", string(model),
		"duration_ms", duration.Milliseconds(),
	}
	if result.UsageMetadata != nil {
		logAttrs = append(logAttrs,
			"prompt_tokens", result.UsageMetadata.PromptTokens,
			"completion_tokens", result.UsageMetadata.CompletionTokens,
			"total_tokens", result.UsageMetadata.TotalTokens,
		)
	}
	r.logger.Info("generation completed", logAttrs...)

	return result, nil
}

// Models returns all registered model definitions.
func (r *Redactor) Models() []ModelInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	models := make([]ModelInfo, 0, len(r.modelInfo))
	for _, info := range r.modelInfo {
		if info != nil {
			models = append(models, *info)
		}
	}
	return models
}

// Close releases all provider resources.
func (r *Redactor) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for provider, gen := range r.providers {
		if err := gen.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing %s: %w", provider, err))
		}
	}
	r.providers = make(map[Provider]Generator)

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// ListModels returns all registered models.
func (r *Redactor) ListModels() []Model {
	r.mu.RLock()
	defer r.mu.RUnlock()

	models := make([]Model, 0, len(r.modelMappings))
	for model := range r.modelMappings {
		models = append(models, model)
	}
	return models
}

// GetModelProvider returns the provider for a model.
func (r *Redactor) GetModelProvider(model Model) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	mapping, ok := r.modelMappings[model]
	if !ok {
		return "", false
	}
	return mapping.Provider, true
}

// GetModelInfo returns model information for a specific model.
func (r *Redactor) GetModelInfo(model Model) (*ModelInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	info, ok := r.modelInfo[model]
	return info, ok
}

// throughGate runs op through the model's gate at the declared cost,
// honoring the config's waiting posture.
func (r *Redactor) throughGate(ctx context.Context, model Model, config *GenerateConfig, cost Cost, op Operation) error {
	gate := r.gateFor(model)

	if config.WaitOnRateLimit {
		return gate.Do(ctx, cost, config.MaxWaitDuration, op)
	}
	return gate.TryDo(ctx, cost, op)
}

// gateFor returns the model's gate, building it on first use. Unknown
// models get a limiter with the default budget.
func (r *Redactor) gateFor(model Model) *Gate {
	r.mu.Lock()
	defer r.mu.Unlock()

	if gate, ok := r.gates[model]; ok {
		return gate
	}

	var limiter ratelimiter.Limiter
	if r.limitingEnabled {
		limiter = r.limiters.GetOrCreate(string(model), r.limitsForLocked(model))
	}

	gate := NewGate(limiter, r.retrier).
		SetLogger(r.logger).
		SetModel(string(model))
	r.gates[model] = gate
	return gate
}

// limitsForLocked resolves a model's budget. Callers must hold r.mu.
func (r *Redactor) limitsForLocked(model Model) ratelimiter.Limits {
	if info := r.modelInfo[model]; info != nil {
		if info.RateLimits.RequestsPerMinute > 0 || info.RateLimits.TokensPerMinute > 0 {
			return info.RateLimits.Limits()
		}
	}
	return DefaultRateLimits.Limits()
}

// resolveModel determines the actual model to use.
func (r *Redactor) resolveModel(config *GenerateConfig) Model {
	model := ModelDefault
	if config != nil && config.Model != "" {
		model = config.Model
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if model == ModelDefault {
		model = r.defaultModel
	}

	return model
}

// getGeneratorForConfig returns the appropriate generator and adjusted config.
func (r *Redactor) getGeneratorForConfig(config *GenerateConfig) (Generator, *GenerateConfig, error) {
	model := r.resolveModel(config)

	r.mu.RLock()
	mapping, ok := r.modelMappings[model]
	r.mu.RUnlock()

	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrModelNotRegistered, model)
	}

	gen, err := r.getProvider(mapping.Provider)
	if err != nil {
		return nil, nil, err
	}

	actualConfig := config
	if actualConfig == nil {
		actualConfig = DefaultConfig()
	}
	configCopy := *actualConfig
	configCopy.Model = Model(mapping.ActualModelName)

	return gen, &configCopy, nil
}

// getProvider returns the provider instance for the given provider type.
func (r *Redactor) getProvider(provider Provider) (Generator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	gen, ok := r.providers[provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotConfigured, provider)
	}
	return gen, nil
}

// rebuildLocked rebuilds the retry controller and drops cached gates
// after a policy, classifier, or logger change. Callers must hold r.mu
// (or own the redactor exclusively, as New does).
func (r *Redactor) rebuildLocked() {
	opts := []retry.Option{retry.WithLogger(r.logger)}
	if r.classifier != nil {
		opts = append(opts, retry.WithClassifier(r.classifier))
	}
	r.retrier = retry.New(r.retryPolicy, opts...)
	r.gates = make(map[Model]*Gate)
}
