package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mhpenta/guardrail"
	"github.com/mhpenta/guardrail/config"
	"github.com/mhpenta/guardrail/logging"
	"github.com/mhpenta/guardrail/provider/anthropic"
	"github.com/mhpenta/guardrail/provider/gemini"
	"github.com/mhpenta/guardrail/provider/ollama"
	"github.com/mhpenta/guardrail/provider/openai"
	"github.com/mhpenta/guardrail/retry"
	"github.com/spf13/cobra"
)

var (
	configPath string
	outputPath string
	submit     bool
	batchMode  bool
	categories []string
)

var redactCmd = &cobra.Command{
	Use:   "redact [files...]",
	Short: "Detect and redact sensitive data in text",
	Long: `Redact reads text from the given files (or stdin when none are
given), runs detection against the configured model, and prints the
redacted text. With --submit the redacted text is also handed to the
processing model and its reply printed.`,
	RunE: runRedact,
}

func init() {
	redactCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config.yaml (defaults apply when omitted)")
	redactCmd.Flags().StringVarP(&outputPath, "output", "o", "", "write result JSON to this directory")
	redactCmd.Flags().BoolVar(&submit, "submit", false, "hand redacted text to the processing model")
	redactCmd.Flags().BoolVar(&batchMode, "batch", false, "treat each input file as a separate batch entry")
	redactCmd.Flags().StringSliceVar(&categories, "category", nil, "restrict detection to the named categories")
}

func runRedact(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	logger := logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Console:     cfg.Logging.Console,
		File:        cfg.Logging.FileLogging,
		Path:        cfg.Logging.File,
		MaxBytes:    cfg.Logging.MaxBytes,
		BackupCount: cfg.Logging.BackupCount,
	})

	ctx := cmd.Context()

	redactor, err := buildRedactor(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer redactor.Close() // nolint:errcheck // best-effort cleanup

	texts, err := readInputs(args)
	if err != nil {
		return err
	}

	genCfg := cfg.Models.Detection.GenerateConfig(true, cfg.MaxWait())

	if batchMode && len(texts) > 1 {
		if !cfg.Features.BatchProcessing {
			return fmt.Errorf("batch processing is disabled in the configuration")
		}
		return runBatch(ctx, redactor, texts, genCfg)
	}

	for _, text := range texts {
		if err := redactOne(ctx, redactor, text, genCfg); err != nil {
			return err
		}
	}
	return nil
}

// redactOne detects (and optionally processes) a single text, printing
// the redacted output and writing the export when requested.
func redactOne(ctx context.Context, redactor *guardrail.Redactor, text string, genCfg *guardrail.GenerateConfig) error {
	var result *guardrail.RedactionResult
	var err error

	if len(categories) > 0 {
		result, err = redactor.DetectCategories(ctx, text, categories, genCfg)
	} else if submit {
		result, err = redactor.RedactAndProcess(ctx, text, genCfg)
	} else {
		result, err = redactor.Detect(ctx, text, genCfg)
	}
	if err != nil {
		return renderError(err)
	}

	fmt.Println(result.RedactedText)
	if result.ProcessedText != "" {
		fmt.Println("---")
		fmt.Println(result.ProcessedText)
	}

	if outputPath != "" {
		saved, err := guardrail.SaveResult(ctx, guardrail.NewLocalStorage(outputPath), result, ".", false)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "saved %s (%d bytes)\n", saved.Path, saved.Size)
	}
	return nil
}

// runBatch detects every text and prints a JSON summary.
func runBatch(ctx context.Context, redactor *guardrail.Redactor, texts []string, genCfg *guardrail.GenerateConfig) error {
	results, err := redactor.BatchDetect(ctx, texts, genCfg)
	if err != nil {
		return renderError(err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

// buildRedactor wires providers, models, and policies from the config.
func buildRedactor(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*guardrail.Redactor, error) {
	detection, err := newProvider(ctx, cfg.Models.Detection)
	if err != nil {
		return nil, fmt.Errorf("detection provider: %w", err)
	}

	redactor := guardrail.NewRedactor(detection,
		guardrail.WithLogger(logger),
		guardrail.WithRetryPolicy(cfg.RetryPolicy()),
		guardrail.WithCategories(cfg.Categories.Enabled),
	)

	// The configured model names take priority over the provider's
	// built-in table, using the config file's budgets.
	limits := guardrail.RateLimits{
		RequestsPerMinute: cfg.RateLimiting.MaxRequestsPerMinute,
		TokensPerMinute:   cfg.RateLimiting.MaxTokensPerMinute,
	}

	detModel := guardrail.Model(cfg.Models.Detection.Name)
	redactor.RegisterModel(detModel,
		guardrail.ModelMapping{
			Provider:        guardrail.Provider(cfg.Models.Detection.Provider),
			ActualModelName: cfg.Models.Detection.Name,
		},
		&guardrail.ModelInfo{
			Name:         cfg.Models.Detection.Name,
			Provider:     guardrail.Provider(cfg.Models.Detection.Provider),
			APIModelName: cfg.Models.Detection.Name,
			RateLimits:   limits,
		})
	redactor.SetDefaultModel(detModel)

	if submit || cfg.Processing.AutoSubmit {
		processing, err := newProvider(ctx, cfg.Models.Processing)
		if err != nil {
			return nil, fmt.Errorf("processing provider: %w", err)
		}

		procModel := guardrail.Model(cfg.Models.Processing.Name)
		redactor.RegisterProvider(guardrail.Provider(cfg.Models.Processing.Provider), processing)
		redactor.RegisterModel(procModel,
			guardrail.ModelMapping{
				Provider:        guardrail.Provider(cfg.Models.Processing.Provider),
				ActualModelName: cfg.Models.Processing.Name,
			},
			&guardrail.ModelInfo{
				Name:         cfg.Models.Processing.Name,
				Provider:     guardrail.Provider(cfg.Models.Processing.Provider),
				APIModelName: cfg.Models.Processing.Name,
				RateLimits:   limits,
			})
		redactor.SetProcessingModel(procModel)
		redactor.SetInstructionPrefix(cfg.Processing.InstructionPrefix)
	}

	redactor.SetRateLimiting(cfg.RateLimiting.Enabled)
	redactor.SetSanitizeErrors(cfg.Security.SanitizeErrorMessages)
	redactor.SetSensitiveLogging(cfg.Security.LogSensitiveData)

	if cfg.Features.ExportResults && outputPath == "" {
		redactor.SetStorage(guardrail.NewLocalStorage(cfg.Features.ExportDir))
	}

	return redactor, nil
}

// newProvider constructs the Generator for one model section.
func newProvider(ctx context.Context, mc config.ModelConfig) (guardrail.Generator, error) {
	pc := mc.ProviderConfig()

	switch guardrail.Provider(mc.Provider) {
	case guardrail.ProviderOllama:
		return ollama.New(pc), nil
	case guardrail.ProviderOpenAI:
		return openai.New(pc)
	case guardrail.ProviderGeminiAPI:
		return gemini.New(ctx, pc)
	case guardrail.ProviderAnthropic:
		return anthropic.New(pc)
	default:
		return nil, fmt.Errorf("unknown provider %q", mc.Provider)
	}
}

// readInputs collects input texts from file arguments, or stdin when
// none are given.
func readInputs(args []string) ([]string, error) {
	if len(args) == 0 {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return []string{string(data)}, nil
	}

	texts := make([]string, 0, len(args))
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		texts = append(texts, string(data))
	}
	return texts, nil
}

// renderError maps the error taxonomy to user-facing messages, keeping
// rate-limit outcomes distinct from retry exhaustion.
func renderError(err error) error {
	var exhausted *retry.ExhaustedError
	switch {
	case guardrail.IsRateLimitError(err):
		return fmt.Errorf("rate limited, try again later: %w", err)
	case errors.As(err, &exhausted):
		return fmt.Errorf("request failed after %d attempts: %w", len(exhausted.Attempts), err)
	default:
		return err
	}
}
