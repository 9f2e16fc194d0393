// Package config loads and validates the guardrail configuration file.
// Values arrive already typed; the rest of the library consumes the
// bridge methods (RetryPolicy, Limits, MaxWait) instead of raw YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mhpenta/guardrail"
	"github.com/mhpenta/guardrail/ratelimiter"
	"github.com/mhpenta/guardrail/retry"
	"gopkg.in/yaml.v3"
)

// Validation errors.
var (
	ErrUnknownProvider = errors.New("config: unknown provider")
	ErrBadRateLimits   = errors.New("config: rate limits must be positive when rate limiting is enabled")
)

// ModelConfig configures one model endpoint.
type ModelConfig struct {
	// Provider selects the backend: ollama, openai, gemini, anthropic.
	Provider string `yaml:"provider"`

	// Name is the API model name, e.g. "llama3.2:latest".
	Name string `yaml:"name"`

	// APIKey authenticates against hosted providers. Left empty, the
	// provider's environment variable is consulted instead.
	APIKey string `yaml:"api_key,omitempty"`

	// BaseURL overrides the provider's default endpoint.
	BaseURL string `yaml:"base_url,omitempty"`

	// TimeoutSeconds bounds a single API request.
	TimeoutSeconds int `yaml:"timeout"`

	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// ModelsConfig holds the detection and processing endpoints.
type ModelsConfig struct {
	Detection  ModelConfig `yaml:"detection"`
	Processing ModelConfig `yaml:"processing"`
}

// RetryConfig configures the retry controller.
type RetryConfig struct {
	MaxAttempts    int     `yaml:"max_attempts"`
	MinWaitSeconds float64 `yaml:"min_wait_seconds"`
	MaxWaitSeconds float64 `yaml:"max_wait_seconds"`
	Multiplier     float64 `yaml:"multiplier"`
}

// RateLimitConfig configures the dual-budget rate limiter.
type RateLimitConfig struct {
	Enabled              bool `yaml:"enabled"`
	MaxRequestsPerMinute int  `yaml:"max_requests_per_minute"`
	MaxTokensPerMinute   int  `yaml:"max_tokens_per_minute"`

	// MaxWaitSeconds bounds how long a call may block on budget.
	// Zero waits until the caller's context gives up.
	MaxWaitSeconds int `yaml:"max_wait_seconds"`
}

// LoggingConfig configures the application logger.
type LoggingConfig struct {
	// Level: debug, info, warn, error.
	Level string `yaml:"level"`

	// Format: text or json.
	Format string `yaml:"format"`

	// File receives rotated log output when FileLogging is set.
	File        string `yaml:"file"`
	Console     bool   `yaml:"console"`
	FileLogging bool   `yaml:"file_logging"`
	MaxBytes    int    `yaml:"max_bytes"`
	BackupCount int    `yaml:"backup_count"`
}

// CategoriesConfig holds the enabled detection categories.
type CategoriesConfig struct {
	Enabled []guardrail.Category `yaml:"enabled"`
}

// ProcessingConfig governs the downstream processing pass.
type ProcessingConfig struct {
	InstructionPrefix string `yaml:"instruction_prefix"`
	AutoSubmit        bool   `yaml:"auto_submit"`
}

// SecurityConfig holds the security posture flags.
type SecurityConfig struct {
	SanitizeErrorMessages bool `yaml:"sanitize_error_messages"`
	LogSensitiveData      bool `yaml:"log_sensitive_data"`
}

// FeaturesConfig holds feature flags.
type FeaturesConfig struct {
	BatchProcessing bool `yaml:"batch_processing"`
	ExportResults   bool `yaml:"export_results"`

	// ExportDir receives result JSON files when ExportResults is set.
	ExportDir string `yaml:"export_dir"`
}

// Config is the root of the guardrail configuration file.
type Config struct {
	Models       ModelsConfig     `yaml:"models"`
	Retry        RetryConfig      `yaml:"retry"`
	RateLimiting RateLimitConfig  `yaml:"rate_limiting"`
	Logging      LoggingConfig    `yaml:"logging"`
	Categories   CategoriesConfig `yaml:"categories"`
	Processing   ProcessingConfig `yaml:"processing"`
	Security     SecurityConfig   `yaml:"security"`
	Features     FeaturesConfig   `yaml:"features"`
}

// Default returns the configuration used when no file is given:
// local Ollama detection, no processing pass, conservative budgets.
func Default() *Config {
	return &Config{
		Models: ModelsConfig{
			Detection: ModelConfig{
				Provider:       "ollama",
				Name:           "llama3.2:latest",
				TimeoutSeconds: 120,
				Temperature:    0.1,
				MaxTokens:      2048,
			},
			Processing: ModelConfig{
				Provider:       "openai",
				Name:           "gpt-4o-mini",
				TimeoutSeconds: 60,
				Temperature:    0.7,
				MaxTokens:      2000,
			},
		},
		Retry: RetryConfig{
			MaxAttempts:    3,
			MinWaitSeconds: 2,
			MaxWaitSeconds: 10,
			Multiplier:     2,
		},
		RateLimiting: RateLimitConfig{
			Enabled:              true,
			MaxRequestsPerMinute: 60,
			MaxTokensPerMinute:   90000,
			MaxWaitSeconds:       60,
		},
		Logging: LoggingConfig{
			Level:       "info",
			Format:      "text",
			File:        "guardrail.log",
			Console:     true,
			FileLogging: false,
			MaxBytes:    10485760,
			BackupCount: 5,
		},
		Categories: CategoriesConfig{
			Enabled: guardrail.DefaultCategories(),
		},
		Processing: ProcessingConfig{
			InstructionPrefix: guardrail.DefaultInstructionPrefix,
			AutoSubmit:        false,
		},
		Security: SecurityConfig{
			SanitizeErrorMessages: true,
			LogSensitiveData:      false,
		},
		Features: FeaturesConfig{
			BatchProcessing: true,
			ExportResults:   false,
			ExportDir:       "exports",
		},
	}
}

// Load reads path and overlays it on the defaults, so a partial file
// only needs the sections it changes. API keys left empty in the file
// are resolved from the provider's environment variable.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	cfg.resolveAPIKeys()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for usable values.
func (c *Config) Validate() error {
	for _, m := range []struct {
		section string
		cfg     ModelConfig
	}{
		{"models.detection", c.Models.Detection},
		{"models.processing", c.Models.Processing},
	} {
		if m.cfg.Provider == "" {
			continue
		}
		switch guardrail.Provider(m.cfg.Provider) {
		case guardrail.ProviderOllama, guardrail.ProviderOpenAI,
			guardrail.ProviderGeminiAPI, guardrail.ProviderAnthropic:
		default:
			return fmt.Errorf("%w: %s in %s", ErrUnknownProvider, m.cfg.Provider, m.section)
		}
	}

	if c.RateLimiting.Enabled {
		if c.RateLimiting.MaxRequestsPerMinute <= 0 || c.RateLimiting.MaxTokensPerMinute <= 0 {
			return ErrBadRateLimits
		}
	}

	if err := c.RetryPolicy().Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	for _, cat := range c.Categories.Enabled {
		if err := guardrail.ValidateCategory(cat); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}

	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("config: unknown log level %q", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("config: unknown log format %q", c.Logging.Format)
	}

	return nil
}

// RetryPolicy converts the retry section into the controller's policy.
func (c *Config) RetryPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts: c.Retry.MaxAttempts,
		MinWait:     secondsToDuration(c.Retry.MinWaitSeconds),
		MaxWait:     secondsToDuration(c.Retry.MaxWaitSeconds),
		Multiplier:  c.Retry.Multiplier,
	}
}

// Limits converts the rate-limiting section into limiter budgets.
func (c *Config) Limits() ratelimiter.Limits {
	return ratelimiter.Limits{
		RequestsPerMinute: c.RateLimiting.MaxRequestsPerMinute,
		TokensPerMinute:   c.RateLimiting.MaxTokensPerMinute,
	}
}

// MaxWait is the longest a call may block waiting for budget.
func (c *Config) MaxWait() time.Duration {
	return time.Duration(c.RateLimiting.MaxWaitSeconds) * time.Second
}

// ProviderConfig converts a model section into a provider construction config.
func (m ModelConfig) ProviderConfig() *guardrail.ProviderConfig {
	return &guardrail.ProviderConfig{
		Provider: guardrail.Provider(m.Provider),
		APIKey:   m.APIKey,
		BaseURL:  m.BaseURL,
		Timeout:  time.Duration(m.TimeoutSeconds) * time.Second,
	}
}

// GenerateConfig converts a model section into per-call settings.
func (m ModelConfig) GenerateConfig(waitOnRateLimit bool, maxWait time.Duration) *guardrail.GenerateConfig {
	temp := m.Temperature
	return &guardrail.GenerateConfig{
		Model:           guardrail.Model(m.Name),
		Temperature:     &temp,
		MaxOutputTokens: m.MaxTokens,
		Timeout:         time.Duration(m.TimeoutSeconds) * time.Second,
		WaitOnRateLimit: waitOnRateLimit,
		MaxWaitDuration: maxWait,
	}
}

// envKeys maps providers to the environment variable holding their API key.
var envKeys = map[guardrail.Provider]string{
	guardrail.ProviderOpenAI:    "OPENAI_API_KEY",
	guardrail.ProviderGeminiAPI: "GEMINI_API_KEY",
	guardrail.ProviderAnthropic: "ANTHROPIC_API_KEY",
}

// resolveAPIKeys fills empty api_key fields from the environment.
// Keys belong in the environment; the file only overrides them for
// development setups.
func (c *Config) resolveAPIKeys() {
	for _, m := range []*ModelConfig{&c.Models.Detection, &c.Models.Processing} {
		if m.APIKey != "" {
			continue
		}
		if env, ok := envKeys[guardrail.Provider(m.Provider)]; ok {
			m.APIKey = os.Getenv(env)
		}
	}
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
