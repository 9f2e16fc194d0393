package guardrail

import (
	"log/slog"

	"github.com/mhpenta/guardrail/retry"
)

// RedactorOption configures the Redactor.
type RedactorOption func(*Redactor)

// WithLogger sets a structured logger for the redactor.
func WithLogger(logger *slog.Logger) RedactorOption {
	return func(r *Redactor) {
		r.logger = logger
		r.rebuildLocked()
	}
}

// WithStorage sets a storage backend for exporting redaction results.
func WithStorage(storage Storage) RedactorOption {
	return func(r *Redactor) {
		r.storage = storage
	}
}

// WithDefaultModel sets the detection model used when config.Model is empty.
func WithDefaultModel(model Model) RedactorOption {
	return func(r *Redactor) {
		r.defaultModel = model
	}
}

// WithProcessingModel sets the model that processes redacted text.
func WithProcessingModel(model Model) RedactorOption {
	return func(r *Redactor) {
		r.processingModel = model
	}
}

// WithCategories replaces the category table used by detection.
func WithCategories(categories []Category) RedactorOption {
	return func(r *Redactor) {
		r.categories = categories
	}
}

// WithRetryPolicy sets the retry policy applied to all outbound calls.
func WithRetryPolicy(policy retry.Policy) RedactorOption {
	return func(r *Redactor) {
		r.retryPolicy = policy
		r.rebuildLocked()
	}
}

// WithoutRateLimiting disables rate limiting: every call goes straight
// to the retry controller.
func WithoutRateLimiting() RedactorOption {
	return func(r *Redactor) {
		r.limitingEnabled = false
	}
}

// NewRedactor creates a Redactor with the given provider and options.
// Every model the provider reports is registered, with the first one
// becoming the detection default.
//
// Example:
//
//	gen := ollama.New(nil)
//	redactor := guardrail.NewRedactor(gen)
//
// With options:
//
//	redactor := guardrail.NewRedactor(gen,
//	    guardrail.WithLogger(slog.Default()),
//	    guardrail.WithDefaultModel(guardrail.ModelLlama32),
//	)
func NewRedactor(defaultProvider Generator, opts ...RedactorOption) *Redactor {
	r := New()

	models := defaultProvider.Models()
	for i := range models {
		info := &models[i]

		r.providers[info.Provider] = defaultProvider

		r.RegisterModel(Model(info.Name),
			ModelMapping{
				Provider:        info.Provider,
				ActualModelName: info.APIModelName,
			},
			info)
	}
	if len(models) > 0 {
		r.defaultModel = Model(models[0].Name)
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}
