package guardrail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidReply is returned when the detection model's reply cannot
// be parsed as the expected JSON object.
var ErrInvalidReply = errors.New("model reply is not valid JSON")

// Detect finds and redacts sensitive data in text using the full
// configured category table.
func (r *Redactor) Detect(ctx context.Context, text string, config *GenerateConfig) (*RedactionResult, error) {
	return r.DetectCategories(ctx, text, nil, config)
}

// DetectCategories finds and redacts sensitive data limited to the
// named categories. An empty names list selects the full table.
func (r *Redactor) DetectCategories(ctx context.Context, text string, names []string, config *GenerateConfig) (*RedactionResult, error) {
	if err := ValidateText(text); err != nil {
		return nil, err
	}
	if config == nil {
		config = DefaultConfig()
	}

	categories := SelectCategories(r.Categories(), names)
	if len(categories) == 0 {
		return nil, ErrNoCategories
	}

	model := r.resolveModel(config)
	start := time.Now()

	r.logger.Debug("starting detection",
		"model", string(model),
		"text_length", len(text),
		"categories", len(categories),
	)

	prompt := BuildDetectionPrompt(text, categories)

	detectConfig := *config
	detectConfig.JSONMode = true

	result, err := r.Generate(ctx, prompt, &detectConfig)
	if err != nil {
		return nil, err
	}

	reply, err := parseDetectionReply(result.Text)
	if err != nil {
		r.logger.Error("failed to parse detection reply",
			"model", string(model),
			"error", err.Error(),
		)

		return nil, r.sanitizeErr(err)
	}

	// A model that found nothing sometimes omits redacted_text. With no
	// detections the input passes through unchanged; with detections an
	// empty redacted_text stays empty rather than leaking the original.
	if reply.RedactedText == "" && len(reply.Detections) == 0 {
		reply.RedactedText = text
	}
	if reply.Detections == nil {
		reply.Detections = make([]Detection, 0)
	}

	var usage *UsageMetadata
	if result.UsageMetadata != nil {
		u := *result.UsageMetadata
		usage = &u
	}

	duration := time.Since(start)

	redaction := &RedactionResult{
		ID:           uuid.NewString(),
		CreatedAt:    time.Now(),
		Model:        result.Model,
		OriginalText: text,
		RedactedText: reply.RedactedText,
		Detections:   reply.Detections,
		Usage:        usage,
		Duration:     duration,
	}

	r.logger.Info("detection completed",
		"model", string(model),
		"duration_ms", duration.Milliseconds(),
		"detections", len(redaction.Detections),
	)
	if r.logSensitive && len(redaction.Detections) > 0 {
		r.logger.Debug("detected sensitive data",
			"detections", fmt.Sprintf("%+v", redaction.Detections),
		)
	}

	return redaction, nil
}

// Process submits redacted text to the processing model with the
// configured instruction prefix. The caller's config governs
// everything except the model, which is always the processing model.
func (r *Redactor) Process(ctx context.Context, redactedText string, config *GenerateConfig) (*Result, error) {
	if err := ValidateText(redactedText); err != nil {
		return nil, err
	}

	r.mu.RLock()
	processingModel := r.processingModel
	prefix := r.instructionPrefix
	r.mu.RUnlock()

	if processingModel == "" {
		return nil, ErrProcessingUnavailable
	}

	if config == nil {
		config = DefaultConfig()
	}
	procConfig := config.WithModel(processingModel)

	prompt := BuildProcessPrompt(prefix, redactedText)

	r.logger.Debug("submitting redacted text for processing",
		"model", string(processingModel),
		"prompt_length", len(prompt),
	)

	return r.Generate(ctx, prompt, procConfig)
}

// RedactAndProcess runs detection and then, when a processing model is
// configured, submits the redacted text for processing. On processing
// failure the detection result is returned alongside the error.
func (r *Redactor) RedactAndProcess(ctx context.Context, text string, config *GenerateConfig) (*RedactionResult, error) {
	redaction, err := r.Detect(ctx, text, config)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	haveProcessing := r.processingModel != ""
	r.mu.RUnlock()

	if !haveProcessing {
		return redaction, nil
	}

	processed, err := r.Process(ctx, redaction.RedactedText, nil)
	if err != nil {
		return redaction, err
	}

	redaction.ProcessedText = processed.Text
	if processed.UsageMetadata != nil {
		if redaction.Usage == nil {
			redaction.Usage = &UsageMetadata{}
		}
		redaction.Usage.Add(processed.UsageMetadata)
	}

	return redaction, nil
}

// detectionReply is the JSON object the detection prompt asks for.
type detectionReply struct {
	Detections   []Detection `json:"detected_sensitive_data"`
	RedactedText string      `json:"redacted_text"`
}

// parseDetectionReply extracts the reply object from raw model output.
// Models wrap JSON in markdown fences or stray prose often enough that
// the parser hunts for the outermost object instead of trusting the
// whole reply.
func parseDetectionReply(raw string) (*detectionReply, error) {
	cleaned := strings.TrimSpace(raw)

	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimPrefix(cleaned, "```")
		if end := strings.LastIndex(cleaned, "```"); end >= 0 {
			cleaned = cleaned[:end]
		}
		cleaned = strings.TrimSpace(cleaned)
	}

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end < start {
		return nil, fmt.Errorf("%w: no object found", ErrInvalidReply)
	}

	var reply detectionReply
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &reply); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidReply, err)
	}
	return &reply, nil
}

// credentialPattern matches API-key and bearer-token shapes that must
// never surface in rendered error messages.
var credentialPattern = regexp.MustCompile(`(?i)(sk-[A-Za-z0-9_-]{8,}|bearer\s+[A-Za-z0-9._~+/=-]{8,})`)

// sanitizedError re-renders an error with credentials scrubbed while
// keeping the original reachable through Unwrap.
type sanitizedError struct {
	msg string
	err error
}

func (e *sanitizedError) Error() string { return e.msg }
func (e *sanitizedError) Unwrap() error { return e.err }

// sanitizeErr scrubs credential-shaped substrings from an error's
// rendered message. Typed errors stay reachable through Unwrap.
func (r *Redactor) sanitizeErr(err error) error {
	if err == nil || !r.sanitizeErrors {
		return err
	}

	msg := err.Error()
	clean := credentialPattern.ReplaceAllString(msg, "[REDACTED]")
	if clean == msg {
		return err
	}
	return &sanitizedError{msg: clean, err: err}
}
