package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/lehigh-university-libraries/book-inventory/internal/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractTextRequiresAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_GEMINI_API_KEY", "")

	_, err := New("").ExtractText(context.Background(), providers.Config{Prompt: "hello"})

	var cfgErr *providers.ConfigurationError
	require.True(t, errors.As(err, &cfgErr), "expected ConfigurationError, got %v", err)
	assert.Equal(t, Name, cfgErr.Provider)
}

func TestAPIKeyResolution(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_GEMINI_API_KEY", "legacy-key")
	assert.Equal(t, "legacy-key", New("").apiKey())

	t.Setenv("GEMINI_API_KEY", "primary-key")
	assert.Equal(t, "primary-key", New("").apiKey())

	assert.Equal(t, "explicit", New("explicit").apiKey())
}

func TestFirstText(t *testing.T) {
	tests := []struct {
		name      string
		resp      *genai.GenerateContentResponse
		expected  string
		wantError bool
	}{
		{
			name: "text part",
			resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{
				{Content: &genai.Content{Parts: []genai.Part{genai.Text(`{"title":"Holes"}`)}}},
			}},
			expected: `{"title":"Holes"}`,
		},
		{
			name:      "nil response",
			resp:      nil,
			wantError: true,
		},
		{
			name:      "no candidates",
			resp:      &genai.GenerateContentResponse{},
			wantError: true,
		},
		{
			name:      "nil content",
			resp:      &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}},
			wantError: true,
		},
		{
			name: "non text part",
			resp: &genai.GenerateContentResponse{Candidates: []*genai.Candidate{
				{Content: &genai.Content{Parts: []genai.Part{genai.Blob{MIMEType: "image/jpeg", Data: []byte{1}}}}},
			}},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, err := firstText(tt.resp)
			if tt.wantError {
				var formatErr *providers.ResponseFormatError
				require.True(t, errors.As(err, &formatErr), "expected ResponseFormatError, got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, text)
		})
	}
}

func TestResponseSchema(t *testing.T) {
	schema := responseSchema([]providers.ResponseField{
		{Name: "title", Required: true},
		{Name: "series"},
	})

	assert.Equal(t, genai.TypeObject, schema.Type)
	assert.Equal(t, []string{"title"}, schema.Required)
	require.Contains(t, schema.Properties, "series")
	assert.True(t, schema.Properties["series"].Nullable)
	assert.False(t, schema.Properties["title"].Nullable)
	assert.Equal(t, genai.TypeString, schema.Properties["title"].Type)
}
