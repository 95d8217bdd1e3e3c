package extract

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/fwojciec/structura"
)

// DefaultMaxContentBytes bounds how much page content is embedded in a
// prompt. Content beyond it is cut to cap prompt size and cost.
const DefaultMaxContentBytes = 20000

// Prompt is a rendered LLM payload. Building it is pure: the same blueprint
// and markdown always yield the same text.
type Prompt struct {
	Text      string
	Truncated bool
}

// BuildPrompt renders the instruction+schema+content payload for the
// structuring stage. Markdown longer than maxContentBytes is truncated at a
// rune boundary before embedding.
func BuildPrompt(bp *structura.Blueprint, markdown string, maxContentBytes int) Prompt {
	if maxContentBytes <= 0 {
		maxContentBytes = DefaultMaxContentBytes
	}
	content, truncated := truncate(markdown, maxContentBytes)

	var sb strings.Builder
	sb.WriteString("You are a data extraction specialist. Extract structured data from the following markdown content based on the provided JSON schema.\n\n")
	fmt.Fprintf(&sb, "Domain: %s\n\n", bp.Domain)
	fmt.Fprintf(&sb, "JSON Schema:\n%s\n\n", string(bp.Schema))
	fmt.Fprintf(&sb, "Markdown Content:\n%s\n\n", content)
	sb.WriteString(`Instructions:
1. Extract all relevant information from the markdown content
2. Return ONLY valid JSON that strictly adheres to the provided schema
3. Use null for missing optional fields
4. For arrays, return an empty array [] if no items are found
5. Ensure all required fields are present
6. Ensure numeric values are actual numbers, not strings
7. Ensure boolean values are true/false, not strings
8. For currency codes, use standard 3-letter ISO codes (e.g., USD, EUR, GBP)
9. Extract prices as numbers (remove currency symbols and commas)

Return the extracted data as a valid JSON object matching the schema above:`)

	return Prompt{Text: sb.String(), Truncated: truncated}
}

// RepairParsePrompt appends a corrective instruction after the model failed
// to produce parseable JSON. The original prompt text is preserved.
func RepairParsePrompt(p Prompt) Prompt {
	var sb strings.Builder
	sb.WriteString(p.Text)
	sb.WriteString("\n\nYour previous response was not valid JSON. Return ONLY a valid JSON document matching the schema above, with no surrounding text, explanation, or code fences.")
	return Prompt{Text: sb.String(), Truncated: p.Truncated}
}

// RepairViolationsPrompt appends the specific schema violations found in the
// previous output and asks the model to correct them.
func RepairViolationsPrompt(p Prompt, violations []structura.Violation) Prompt {
	var sb strings.Builder
	sb.WriteString(p.Text)
	sb.WriteString("\n\nYour previous response did not conform to the schema. Violations:\n")
	for _, v := range violations {
		fmt.Fprintf(&sb, "- %s\n", v)
	}
	sb.WriteString("Correct these violations and return ONLY the corrected JSON document.")
	return Prompt{Text: sb.String(), Truncated: p.Truncated}
}

// truncate cuts s to at most max bytes without splitting a rune. Only the
// bytes of a partial trailing rune are dropped; invalid bytes earlier in the
// content pass through untouched.
func truncate(s string, max int) (string, bool) {
	if len(s) <= max {
		return s, false
	}
	cut := s[:max]
	for range utf8.UTFMax - 1 {
		r, size := utf8.DecodeLastRuneInString(cut)
		if r != utf8.RuneError || size != 1 {
			break
		}
		cut = cut[:len(cut)-1]
	}
	return cut, true
}
