package guardrail

import (
	"fmt"
	"strings"
)

// Category defines one kind of sensitive data the detection model is
// asked to find, and the placeholder that replaces matched values.
type Category struct {
	// Name as presented to the model, e.g. "Email Addresses"
	Name string `yaml:"name" json:"name"`

	// Placeholder pattern, e.g. "[EMAIL-1]"
	Placeholder string `yaml:"placeholder" json:"placeholder"`

	// Description helps the model decide borderline cases
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// DefaultCategories returns the standard category table. Callers that
// need a different set pass their own to the Redactor.
func DefaultCategories() []Category {
	return []Category{
		{Name: "Email Addresses", Placeholder: "[EMAIL-1]", Description: "Personal or work email addresses"},
		{Name: "Phone Numbers", Placeholder: "[PHONE-NUM-1]", Description: "Phone and fax numbers in any format"},
		{Name: "Social Security Numbers", Placeholder: "[SSN-1]", Description: "US social security numbers"},
		{Name: "Credit Card Numbers", Placeholder: "[CREDIT-CARD-NUM-1]", Description: "Payment card numbers"},
		{Name: "Dates of Birth", Placeholder: "[DOB-1]", Description: "Birth dates in any format"},
		{Name: "Addresses", Placeholder: "[ADDRESS-1]", Description: "Physical or mailing addresses"},
		{Name: "Passwords", Placeholder: "[PASSWORD-1]", Description: "Passwords and passphrases"},
		{Name: "API Keys", Placeholder: "[API-KEY-1]", Description: "API keys, tokens, and other credentials"},
		{Name: "Confidential Business Information", Placeholder: "[CBI-1]", Description: "Trade secrets, internal financials, unreleased plans"},
		{Name: "Medical Information", Placeholder: "[MEDICAL-1]", Description: "Health conditions, diagnoses, treatments"},
	}
}

// CategoryNames returns the names of the given categories in order.
func CategoryNames(categories []Category) []string {
	names := make([]string, 0, len(categories))
	for _, c := range categories {
		names = append(names, c.Name)
	}
	return names
}

// SelectCategories filters categories to those whose names appear in
// names. Unknown names are ignored. An empty names list selects all.
func SelectCategories(categories []Category, names []string) []Category {
	if len(names) == 0 {
		return categories
	}

	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[strings.ToLower(n)] = true
	}

	selected := make([]Category, 0, len(names))
	for _, c := range categories {
		if wanted[strings.ToLower(c.Name)] {
			selected = append(selected, c)
		}
	}
	return selected
}

// formatCategories renders the category table for the detection prompt,
// one "- PLACEHOLDER: Name (description)" line per category.
func formatCategories(categories []Category) string {
	var b strings.Builder
	for i, c := range categories {
		if i > 0 {
			b.WriteByte('\n')
		}
		if c.Description != "" {
			fmt.Fprintf(&b, "- %s: %s (%s)", c.Placeholder, c.Name, c.Description)
		} else {
			fmt.Fprintf(&b, "- %s: %s", c.Placeholder, c.Name)
		}
	}
	return b.String()
}
