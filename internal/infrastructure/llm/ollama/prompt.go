package ollama

import (
	"fmt"
	"strings"

	"github.com/mfortin/tax-intake/internal/core/domain"
)

const maxPromptText = 8000

// buildExtractionPrompt renders the kind-specific extraction instruction.
// The field list comes from the domain schema, so the prompt and the export
// columns can never drift apart.
func buildExtractionPrompt(kind domain.DocumentKind, text string) (string, error) {
	schema := domain.ExtractionSchema(kind)
	if len(schema) == 0 {
		return "", fmt.Errorf("no extraction schema for document kind %q", kind)
	}

	if len(text) > maxPromptText {
		text = text[:maxPromptText]
	}

	var goals strings.Builder
	var form strings.Builder
	form.WriteString("{\n")
	for i, field := range schema {
		fmt.Fprintf(&goals, "%d) %s (%s) = %s\n", i+1, field.Name, field.Type, field.Description)

		value := field.Type + " or null"
		if field.Type == "STRING" {
			value = `"STRING or null"`
		}
		fmt.Fprintf(&form, "  %q: %s", field.Name, value)
		if i < len(schema)-1 {
			form.WriteString(",")
		}
		form.WriteString("\n")
	}
	form.WriteString("}")

	return fmt.Sprintf(`You are a precise extractor.

Goal: extract %d fields from the text:
%s
Return ONLY a single valid JSON object in this exact form:
%s

Text to analyze:
%s`, len(schema), goals.String(), form.String(), text), nil
}
