package guardrail

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mhpenta/guardrail/retry"
)

// testModels returns a single-model table with the given budgets.
func testModels(requestsPerMinute, tokensPerMinute int) []ModelInfo {
	return []ModelInfo{
		{
			Name:         "test-model",
			Provider:     "test-provider",
			APIModelName: "test-model-api",
			RateLimits: RateLimits{
				RequestsPerMinute: requestsPerMinute,
				TokensPerMinute:   tokensPerMinute,
			},
		},
	}
}

// fastRetry is a policy with waits short enough for real sleeps.
func fastRetry() retry.Policy {
	return retry.Policy{
		MaxAttempts: 3,
		MinWait:     time.Millisecond,
		MaxWait:     5 * time.Millisecond,
		Multiplier:  2,
	}
}

func TestRedactor_Generate_RateLimit(t *testing.T) {
	mockGen := &MockGenerator{
		ModelsFunc: func() []ModelInfo {
			// Estimated cost (prompt + reserved output) far exceeds the budget
			return testModels(10, 5)
		},
		GenerateFunc: func(ctx context.Context, prompt string, config *GenerateConfig) (*Result, error) {
			t.Fatal("provider must not be invoked when the limiter rejects")
			return nil, nil
		},
	}

	redactor := NewRedactor(mockGen)
	defer redactor.Close()

	config := DefaultConfig()
	config.WaitOnRateLimit = false

	_, err := redactor.Generate(context.Background(), "test prompt", config)
	if err == nil {
		t.Fatal("expected rate limit error, got nil")
	}
	if !IsRateLimitError(err) {
		t.Errorf("expected RateLimitError, got %T: %v", err, err)
	}
}

func TestRedactor_Generate_Success(t *testing.T) {
	mockGen := &MockGenerator{
		ModelsFunc: func() []ModelInfo {
			return testModels(60, 90000)
		},
		GenerateFunc: func(ctx context.Context, prompt string, config *GenerateConfig) (*Result, error) {
			if got := string(config.Model); got != "test-model-api" {
				t.Errorf("provider should see the API model name, got %q", got)
			}
			return &Result{
				Text:          "hello",
				Model:         "test-model-api",
				UsageMetadata: &UsageMetadata{PromptTokens: 5, CompletionTokens: 2, TotalTokens: 7},
			}, nil
		},
	}

	redactor := NewRedactor(mockGen)
	defer redactor.Close()

	result, err := redactor.Generate(context.Background(), "test prompt", nil)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if result.Text != "hello" {
		t.Errorf("Text = %q, want %q", result.Text, "hello")
	}
}

func TestRedactor_Generate_RetriesTransient(t *testing.T) {
	var attempts atomic.Int32
	mockGen := &MockGenerator{
		ModelsFunc: func() []ModelInfo {
			return testModels(60, 90000)
		},
		GenerateFunc: func(ctx context.Context, prompt string, config *GenerateConfig) (*Result, error) {
			if attempts.Add(1) < 3 {
				return nil, retry.Transient(errors.New("service unavailable"))
			}
			return &Result{Text: "recovered"}, nil
		},
	}

	redactor := NewRedactor(mockGen).SetRetryPolicy(fastRetry())
	defer redactor.Close()

	result, err := redactor.Generate(context.Background(), "test prompt", nil)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if result.Text != "recovered" {
		t.Errorf("Text = %q, want %q", result.Text, "recovered")
	}
	if got := attempts.Load(); got != 3 {
		t.Errorf("attempts = %d, want 3", got)
	}
}

func TestRedactor_Generate_PermanentNotRetried(t *testing.T) {
	var attempts atomic.Int32
	mockGen := &MockGenerator{
		ModelsFunc: func() []ModelInfo {
			return testModels(60, 90000)
		},
		GenerateFunc: func(ctx context.Context, prompt string, config *GenerateConfig) (*Result, error) {
			attempts.Add(1)
			return nil, retry.Permanent(errors.New("invalid request"))
		},
	}

	redactor := NewRedactor(mockGen).SetRetryPolicy(fastRetry())
	defer redactor.Close()

	_, err := redactor.Generate(context.Background(), "test prompt", nil)
	if !retry.IsPermanent(err) {
		t.Fatalf("expected PermanentError, got %T: %v", err, err)
	}
	if got := attempts.Load(); got != 1 {
		t.Errorf("attempts = %d, want 1", got)
	}
}

func TestRedactor_Generate_Exhaustion(t *testing.T) {
	mockGen := &MockGenerator{
		ModelsFunc: func() []ModelInfo {
			return testModels(60, 90000)
		},
		GenerateFunc: func(ctx context.Context, prompt string, config *GenerateConfig) (*Result, error) {
			return nil, retry.Transient(errors.New("still down"))
		},
	}

	redactor := NewRedactor(mockGen).SetRetryPolicy(fastRetry())
	defer redactor.Close()

	_, err := redactor.Generate(context.Background(), "test prompt", nil)

	var exhausted *retry.ExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected ExhaustedError, got %T: %v", err, err)
	}
	if len(exhausted.Attempts) != 3 {
		t.Errorf("attempt records = %d, want 3", len(exhausted.Attempts))
	}
}

func TestRedactor_Generate_DisabledRateLimiting(t *testing.T) {
	mockGen := &MockGenerator{
		ModelsFunc: func() []ModelInfo {
			// A budget too small for any request
			return testModels(10, 1)
		},
		GenerateFunc: func(ctx context.Context, prompt string, config *GenerateConfig) (*Result, error) {
			return &Result{Text: "granted"}, nil
		},
	}

	redactor := NewRedactor(mockGen).SetRateLimiting(false)
	defer redactor.Close()

	config := DefaultConfig()
	config.WaitOnRateLimit = false

	result, err := redactor.Generate(context.Background(), "test prompt", config)
	if err != nil {
		t.Fatalf("Generate failed with limiting disabled: %v", err)
	}
	if result.Text != "granted" {
		t.Errorf("Text = %q, want %q", result.Text, "granted")
	}
}

func TestRedactor_Detect(t *testing.T) {
	reply := `{
		"detected_sensitive_data": [
			{
				"type": "PII",
				"data": "john@example.com",
				"category": "Email Addresses",
				"reason": "Email address.",
				"redaction": "[EMAIL-1]"
			}
		],
		"redacted_text": "Contact me at [EMAIL-1]."
	}`

	mockGen := &MockGenerator{
		ModelsFunc: func() []ModelInfo {
			return testModels(60, 90000)
		},
		GenerateFunc: func(ctx context.Context, prompt string, config *GenerateConfig) (*Result, error) {
			if !config.JSONMode {
				t.Error("detection must request JSON mode")
			}
			if !strings.Contains(prompt, "Contact me at john@example.com.") {
				t.Error("detection prompt must embed the input text")
			}
			return &Result{Text: reply, Model: "test-model-api"}, nil
		},
	}

	redactor := NewRedactor(mockGen)
	defer redactor.Close()

	result, err := redactor.Detect(context.Background(), "Contact me at john@example.com.", nil)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}

	if result.RedactedText != "Contact me at [EMAIL-1]." {
		t.Errorf("RedactedText = %q", result.RedactedText)
	}
	if !result.HasDetections() || result.DetectionCount() != 1 {
		t.Fatalf("detections = %d, want 1", result.DetectionCount())
	}
	if result.Detections[0].Category != "Email Addresses" {
		t.Errorf("Category = %q", result.Detections[0].Category)
	}
	if result.ID == "" {
		t.Error("result must carry an ID")
	}
}

func TestRedactor_Detect_FencedReply(t *testing.T) {
	reply := "```json\n{\"detected_sensitive_data\": [], \"redacted_text\": \"nothing here\"}\n```"

	mockGen := &MockGenerator{
		ModelsFunc: func() []ModelInfo {
			return testModels(60, 90000)
		},
		GenerateFunc: func(ctx context.Context, prompt string, config *GenerateConfig) (*Result, error) {
			return &Result{Text: reply}, nil
		},
	}

	redactor := NewRedactor(mockGen)
	defer redactor.Close()

	result, err := redactor.Detect(context.Background(), "nothing here", nil)
	if err != nil {
		t.Fatalf("Detect failed on fenced reply: %v", err)
	}
	if result.RedactedText != "nothing here" {
		t.Errorf("RedactedText = %q", result.RedactedText)
	}
}

func TestRedactor_Detect_InvalidReply(t *testing.T) {
	mockGen := &MockGenerator{
		ModelsFunc: func() []ModelInfo {
			return testModels(60, 90000)
		},
		GenerateFunc: func(ctx context.Context, prompt string, config *GenerateConfig) (*Result, error) {
			return &Result{Text: "I found no sensitive data, great text!"}, nil
		},
	}

	redactor := NewRedactor(mockGen)
	defer redactor.Close()

	_, err := redactor.Detect(context.Background(), "some text", nil)
	if !errors.Is(err, ErrInvalidReply) {
		t.Fatalf("expected ErrInvalidReply, got %v", err)
	}
}

func TestRedactor_Process_Unconfigured(t *testing.T) {
	mockGen := &MockGenerator{
		ModelsFunc: func() []ModelInfo {
			return testModels(60, 90000)
		},
	}

	redactor := NewRedactor(mockGen)
	defer redactor.Close()

	_, err := redactor.Process(context.Background(), "redacted [EMAIL-1] text", nil)
	if !errors.Is(err, ErrProcessingUnavailable) {
		t.Fatalf("expected ErrProcessingUnavailable, got %v", err)
	}
}

func TestRedactor_RedactAndProcess(t *testing.T) {
	detectReply := `{"detected_sensitive_data": [{"type":"PII","data":"secret","category":"Passwords","redaction":"[PASSWORD-1]"}], "redacted_text": "my password is [PASSWORD-1]"}`

	mockGen := &MockGenerator{
		ModelsFunc: func() []ModelInfo {
			return testModels(60, 90000)
		},
		GenerateFunc: func(ctx context.Context, prompt string, config *GenerateConfig) (*Result, error) {
			if strings.Contains(prompt, "has been redacted") {
				// Processing call: must see placeholders, never the secret.
				if strings.Contains(prompt, "secret") {
					t.Error("processing prompt leaked the detected value")
				}
				return &Result{Text: "processed reply"}, nil
			}
			return &Result{Text: detectReply}, nil
		},
	}

	redactor := NewRedactor(mockGen).SetProcessingModel("test-model")
	defer redactor.Close()

	result, err := redactor.RedactAndProcess(context.Background(), "my password is secret", nil)
	if err != nil {
		t.Fatalf("RedactAndProcess failed: %v", err)
	}
	if result.ProcessedText != "processed reply" {
		t.Errorf("ProcessedText = %q", result.ProcessedText)
	}
	if result.RedactedText != "my password is [PASSWORD-1]" {
		t.Errorf("RedactedText = %q", result.RedactedText)
	}
}

func TestRedactor_BatchDetect(t *testing.T) {
	var calls atomic.Int32
	mockGen := &MockGenerator{
		ModelsFunc: func() []ModelInfo {
			return testModels(600, 900000)
		},
		GenerateFunc: func(ctx context.Context, prompt string, config *GenerateConfig) (*Result, error) {
			calls.Add(1)
			return &Result{Text: `{"detected_sensitive_data": [], "redacted_text": "clean"}`}, nil
		},
	}

	redactor := NewRedactor(mockGen)
	defer redactor.Close()

	results, err := redactor.BatchDetect(context.Background(), []string{"one", "two", "three"}, nil)
	if err != nil {
		t.Fatalf("BatchDetect failed: %v", err)
	}
	if len(results) != 3 {
		t.Errorf("results = %d, want 3", len(results))
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("provider calls = %d, want 3", got)
	}
}

func TestRedactor_SanitizesErrors(t *testing.T) {
	leaky := errors.New("401 unauthorized: key sk-proj-abcdef1234567890 rejected")

	mockGen := &MockGenerator{
		ModelsFunc: func() []ModelInfo {
			return testModels(60, 90000)
		},
		GenerateFunc: func(ctx context.Context, prompt string, config *GenerateConfig) (*Result, error) {
			return nil, retry.Permanent(leaky)
		},
	}

	redactor := NewRedactor(mockGen)
	defer redactor.Close()

	_, err := redactor.Generate(context.Background(), "test prompt", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if strings.Contains(err.Error(), "sk-proj-abcdef1234567890") {
		t.Errorf("error message leaked a credential: %v", err)
	}
	if !strings.Contains(err.Error(), "[REDACTED]") {
		t.Errorf("expected scrubbed message, got %v", err)
	}
	// The typed error stays reachable for callers that branch on kind.
	if !retry.IsPermanent(err) {
		t.Errorf("sanitizing must not hide the error kind: %v", err)
	}
}

func TestRedactor_UnregisteredModel(t *testing.T) {
	mockGen := &MockGenerator{
		ModelsFunc: func() []ModelInfo {
			return testModels(60, 90000)
		},
	}

	redactor := NewRedactor(mockGen)
	defer redactor.Close()

	config := DefaultConfig().WithModel("no-such-model")
	_, err := redactor.Generate(context.Background(), "test prompt", config)
	if !errors.Is(err, ErrModelNotRegistered) {
		t.Fatalf("expected ErrModelNotRegistered, got %v", err)
	}
}
