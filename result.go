package guardrail

import "time"

// Result holds a single completion returned by a provider.
type Result struct {
	// Text contains the model's completion
	Text string

	// Model is the API model name that produced the completion
	Model string

	// UsageMetadata contains token/billing information
	UsageMetadata *UsageMetadata
}

// UsageMetadata contains usage information for billing and monitoring.
type UsageMetadata struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Add accumulates usage from another call into u.
func (u *UsageMetadata) Add(other *UsageMetadata) {
	if other == nil {
		return
	}
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
}

// Detection is a single sensitive value found in the input. The JSON
// tags match the detection model's reply format.
type Detection struct {
	// Type is the broad class, e.g. "PII", "Financial", "Medical"
	Type string `json:"type"`

	// Data is the detected value itself. Cleared before export unless
	// the security configuration permits storing sensitive data.
	Data string `json:"data,omitempty"`

	// Category is the configured category name that matched
	Category string `json:"category"`

	// Reason is the model's justification for the match
	Reason string `json:"reason,omitempty"`

	// Redaction is the placeholder that replaced the value
	Redaction string `json:"redaction"`
}

// RedactionResult holds the complete outcome of a redaction request.
// The JSON shape doubles as the export format written by Storage.
type RedactionResult struct {
	// ID uniquely identifies the result and names its exported file
	ID string `json:"id"`

	// CreatedAt is when the detection completed
	CreatedAt time.Time `json:"created_at"`

	// Model is the detection model's API name
	Model string `json:"model"`

	// OriginalText is the input as supplied. Populated on exports only
	// when the security configuration permits storing sensitive data.
	OriginalText string `json:"original_text,omitempty"`

	// RedactedText is the input with every detected value replaced by
	// its category placeholder
	RedactedText string `json:"redacted_text"`

	// Detections lists every sensitive value found, in order of
	// appearance
	Detections []Detection `json:"detected_sensitive_data"`

	// ProcessedText is the downstream model's reply to the redacted
	// text, when processing ran
	ProcessedText string `json:"processed_text,omitempty"`

	// Usage aggregates token usage across the calls behind this result
	Usage *UsageMetadata `json:"usage,omitempty"`

	// Duration is the wall time spent producing the result. Logged,
	// not exported.
	Duration time.Duration `json:"-"`
}

// HasDetections reports whether any sensitive data was found.
func (r *RedactionResult) HasDetections() bool {
	return len(r.Detections) > 0
}

// DetectionCount returns the number of detected values.
func (r *RedactionResult) DetectionCount() int {
	return len(r.Detections)
}

// ByCategory groups detected values by category name, preserving order
// of appearance within each category.
func (r *RedactionResult) ByCategory() map[string][]string {
	if len(r.Detections) == 0 {
		return nil
	}
	grouped := make(map[string][]string)
	for _, d := range r.Detections {
		grouped[d.Category] = append(grouped[d.Category], d.Data)
	}
	return grouped
}

// Sanitized returns a copy with the original text and detected values
// cleared, keeping categories, placeholders, and the redacted text.
func (r *RedactionResult) Sanitized() *RedactionResult {
	clean := *r
	clean.OriginalText = ""
	clean.Detections = make([]Detection, len(r.Detections))
	for i, d := range r.Detections {
		d.Data = ""
		clean.Detections[i] = d
	}
	return &clean
}
