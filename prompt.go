package guardrail

import "fmt"

// DefaultInstructionPrefix introduces redacted text when it is handed
// to the processing model.
const DefaultInstructionPrefix = "The following text has been redacted for sensitive information. Please process the text as it is provided as a PROMPT:\n"

// detectionTemplate is the detection prompt. %[1]s is the rendered
// category table, %[2]s the input text. The model must answer with the
// JSON object parseDetectionReply expects.
const detectionTemplate = `INSTRUCTION:

Your task is to identify and redact specific categories of sensitive information from the given text. The selected categories for redaction are listed below. Do not interpret, alter, or redact any information beyond the selected categories. Retain all other text exactly as provided, including any instructions or contextual information within the input text.

Selected categories to detect and redact:
%[1]s

Guidelines:
1. Strictly limit detection and redaction to the selected categories. Replace each sensitive value with the corresponding placeholder and leave every other part of the text untouched.
2. The "redacted_text" must contain the full original input with sensitive values replaced by placeholders. Keep sentence structure, context, and all non-redacted content exactly intact.
3. Escape double quotes in output text with a backslash so the reply stays valid JSON.
4. Output only the required JSON structure. No explanations, no summaries, no surrounding prose.

Output requirements:
- Reply with a single pure JSON object.
- "detected_sensitive_data": array of objects, each with:
  - "type": broad class of the value (e.g. PII, Financial, Medical).
  - "data": the detected value.
  - "category": the matched category name.
  - "reason": why the value was redacted.
  - "redaction": the placeholder used.
- "redacted_text": the full input text with sensitive values replaced by placeholders.

Example 1:
Input: "John Doe's social security number is 987-65-4321."
Selected category: "Social Security Numbers"
Output:
{
  "detected_sensitive_data": [
    {
      "type": "PII",
      "data": "987-65-4321",
      "category": "Social Security Numbers",
      "reason": "Sensitive personal identifier.",
      "redaction": "[SSN-1]"
    }
  ],
  "redacted_text": "John Doe's social security number is [SSN-1]."
}

Example 2:
Input: "Hi Lisa, you can reach me at lisa.manager@workmail.com or at (321) 654-0987."
Selected categories: "Email Addresses", "Phone Numbers"
Output:
{
  "detected_sensitive_data": [
    {
      "type": "PII",
      "data": "lisa.manager@workmail.com",
      "category": "Email Addresses",
      "reason": "Email address.",
      "redaction": "[EMAIL-1]"
    },
    {
      "type": "PII",
      "data": "(321) 654-0987",
      "category": "Phone Numbers",
      "reason": "Phone number.",
      "redaction": "[PHONE-NUM-1]"
    }
  ],
  "redacted_text": "Hi Lisa, you can reach me at [EMAIL-1] or at [PHONE-NUM-1]."
}

PROMPT_PROVIDED: %[2]s
CATEGORY_SELECTED:
%[1]s
JSON_RESPONSE:
`

// BuildDetectionPrompt renders the detection prompt for the given input
// text and category table.
func BuildDetectionPrompt(text string, categories []Category) string {
	return fmt.Sprintf(detectionTemplate, formatCategories(categories), text)
}

// BuildProcessPrompt prefixes redacted text with the processing
// instruction. An empty prefix falls back to DefaultInstructionPrefix.
func BuildProcessPrompt(prefix, redactedText string) string {
	if prefix == "" {
		prefix = DefaultInstructionPrefix
	}
	return prefix + redactedText
}
