package guardrail

import (
	"errors"
	"fmt"
	"strings"
)

// Validation errors
var (
	ErrEmptyText       = errors.New("text cannot be empty")
	ErrEmptyPrompt     = errors.New("prompt cannot be empty")
	ErrTextTooLarge    = errors.New("text exceeds maximum size")
	ErrTooManyTexts    = errors.New("too many texts in batch")
	ErrInvalidCategory = errors.New("invalid category definition")
	ErrMissingAPIKey   = errors.New("API key is required")
)

// Input limits
const (
	// MaxTextSize is the maximum input text size in bytes (1MB)
	MaxTextSize = 1 * 1024 * 1024

	// MaxBatchSize is the maximum number of texts in a single batch
	MaxBatchSize = 100
)

// ValidatePrompt validates a prompt before it is sent to a provider.
func ValidatePrompt(prompt string) error {
	if prompt == "" {
		return ErrEmptyPrompt
	}
	return nil
}

// ValidateText validates input text for redaction.
func ValidateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyText
	}
	if len(text) > MaxTextSize {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrTextTooLarge, len(text), MaxTextSize)
	}
	return nil
}

// ValidateTexts validates a batch of input texts.
func ValidateTexts(texts []string) error {
	if len(texts) == 0 {
		return ErrEmptyText
	}

	if len(texts) > MaxBatchSize {
		return fmt.Errorf("%w: %d (max %d)", ErrTooManyTexts, len(texts), MaxBatchSize)
	}

	for i, text := range texts {
		if err := ValidateText(text); err != nil {
			return fmt.Errorf("text %d: %w", i, err)
		}
	}

	return nil
}

// ValidateCategory validates a sensitive-data category definition.
func ValidateCategory(c Category) error {
	if c.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidCategory)
	}
	if c.Placeholder == "" {
		return fmt.Errorf("%w: placeholder is required for %q", ErrInvalidCategory, c.Name)
	}
	return nil
}
