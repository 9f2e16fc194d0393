package guardrail

import (
	"errors"
	"strings"
	"testing"
)

func TestValidatePrompt(t *testing.T) {
	if err := ValidatePrompt("detect this"); err != nil {
		t.Errorf("valid prompt rejected: %v", err)
	}
	if err := ValidatePrompt(""); !errors.Is(err, ErrEmptyPrompt) {
		t.Errorf("expected ErrEmptyPrompt, got %v", err)
	}
}

func TestValidateText(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr error
	}{
		{name: "valid text", text: "my email is a@b.com"},
		{name: "empty", text: "", wantErr: ErrEmptyText},
		{name: "whitespace only", text: "   \n\t  ", wantErr: ErrEmptyText},
		{name: "too large", text: strings.Repeat("x", MaxTextSize+1), wantErr: ErrTextTooLarge},
		{name: "at the limit", text: strings.Repeat("x", MaxTextSize)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateText(tt.text)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateTexts(t *testing.T) {
	if err := ValidateTexts([]string{"one", "two"}); err != nil {
		t.Errorf("valid batch rejected: %v", err)
	}

	if err := ValidateTexts(nil); !errors.Is(err, ErrEmptyText) {
		t.Errorf("expected ErrEmptyText for empty batch, got %v", err)
	}

	big := make([]string, MaxBatchSize+1)
	for i := range big {
		big[i] = "text"
	}
	if err := ValidateTexts(big); !errors.Is(err, ErrTooManyTexts) {
		t.Errorf("expected ErrTooManyTexts, got %v", err)
	}

	// A bad entry reports its index.
	err := ValidateTexts([]string{"ok", ""})
	if !errors.Is(err, ErrEmptyText) {
		t.Fatalf("expected ErrEmptyText, got %v", err)
	}
	if !strings.Contains(err.Error(), "text 1") {
		t.Errorf("error should name the offending index: %v", err)
	}
}

func TestValidateCategory(t *testing.T) {
	valid := Category{Name: "Email Addresses", Placeholder: "[EMAIL-1]"}
	if err := ValidateCategory(valid); err != nil {
		t.Errorf("valid category rejected: %v", err)
	}

	if err := ValidateCategory(Category{Placeholder: "[X-1]"}); !errors.Is(err, ErrInvalidCategory) {
		t.Errorf("expected ErrInvalidCategory for missing name, got %v", err)
	}
	if err := ValidateCategory(Category{Name: "Emails"}); !errors.Is(err, ErrInvalidCategory) {
		t.Errorf("expected ErrInvalidCategory for missing placeholder, got %v", err)
	}
}
