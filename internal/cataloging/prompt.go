package cataloging

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lehigh-university-libraries/book-inventory/internal/models"
	"github.com/lehigh-university-libraries/book-inventory/internal/providers"
)

const detailsPrompt = `Extract the following details from this book cover:
- Title (most prominent text)
- Author (usually smaller text below title)
- Grade level (if mentioned)
- Subject (if identifiable)
- Series name (if part of a series)

Return as valid JSON with these exact keys:
{
  "title": string,
  "author": string,
  "gradeLevel": string | null,
  "subject": string | null,
  "series": string | null
}`

var detailFields = []providers.ResponseField{
	{Name: "title", Description: "Most prominent text on the cover", Required: true},
	{Name: "author", Description: "Author name, usually smaller text below the title", Required: true},
	{Name: "gradeLevel", Description: "Grade level if mentioned"},
	{Name: "subject", Description: "Subject if identifiable"},
	{Name: "series", Description: "Series name if part of a series"},
}

// parseDetails validates the model answer and coerces it into BookDetails.
// Title and author fall back to "", the optional fields are left empty when
// absent, null or blank.
func parseDetails(provider, response string) (models.BookDetails, error) {
	// Trim any markdown code blocks
	response = strings.TrimSpace(response)
	response = strings.TrimPrefix(response, "```json")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")
	response = strings.TrimSpace(response)

	if response == "" {
		return models.BookDetails{}, &providers.ResponseFormatError{Provider: provider, Reason: "empty answer"}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(response), &fields); err != nil {
		return models.BookDetails{}, &providers.ResponseFormatError{Provider: provider, Reason: "answer is not a JSON object: " + err.Error()}
	}
	if fields == nil {
		return models.BookDetails{}, &providers.ResponseFormatError{Provider: provider, Reason: "answer is null"}
	}

	var details models.BookDetails
	targets := []struct {
		key string
		dst *string
	}{
		{"title", &details.Title},
		{"author", &details.Author},
		{"gradeLevel", &details.GradeLevel},
		{"subject", &details.Subject},
		{"series", &details.Series},
	}
	for _, target := range targets {
		value, err := optionalString(fields[target.key])
		if err != nil {
			return models.BookDetails{}, &providers.ResponseFormatError{Provider: provider, Reason: fmt.Sprintf("%s: %v", target.key, err)}
		}
		*target.dst = value
	}

	return details, nil
}

// optionalString decodes a JSON string, treating a missing key or null as ""
func optionalString(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("expected a string, got %s", raw)
	}
	return strings.TrimSpace(s), nil
}
