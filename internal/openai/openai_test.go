package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lehigh-university-libraries/book-inventory/internal/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractTextSendsImage(t *testing.T) {
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"title\":\"Holes\"}"}}]}`))
	}))
	defer server.Close()

	text, err := New("test-key", server.URL).ExtractText(context.Background(), providers.Config{
		Prompt:         "read the cover",
		Image:          []byte{1, 2, 3},
		ImageMIMEType:  "image/jpeg",
		ResponseFields: []providers.ResponseField{{Name: "title", Required: true}},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"title":"Holes"}`, text)

	assert.Equal(t, DefaultModel, received["model"])
	assert.Equal(t, map[string]any{"type": "json_object"}, received["response_format"])

	messages := received["messages"].([]any)
	content := messages[0].(map[string]any)["content"].([]any)
	require.Len(t, content, 2)
	image := content[1].(map[string]any)["image_url"].(map[string]any)
	assert.Equal(t, "data:image/jpeg;base64,AQID", image["url"])
}

func TestExtractTextErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantFormat bool
	}{
		{name: "server error", status: http.StatusInternalServerError, body: `{"error":"boom"}`},
		{name: "no choices", status: http.StatusOK, body: `{"choices":[]}`, wantFormat: true},
		{name: "null content", status: http.StatusOK, body: `{"choices":[{"message":{"content":null}}]}`, wantFormat: true},
		{name: "not json", status: http.StatusOK, body: `<html>`, wantFormat: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := New("test-key", server.URL).ExtractText(context.Background(), providers.Config{Prompt: "x"})
			require.Error(t, err)

			var formatErr *providers.ResponseFormatError
			assert.Equal(t, tt.wantFormat, errors.As(err, &formatErr), "error: %v", err)
		})
	}
}

func TestExtractTextRequiresAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	_, err := New("", server.URL).ExtractText(context.Background(), providers.Config{Prompt: "x"})

	var cfgErr *providers.ConfigurationError
	require.True(t, errors.As(err, &cfgErr), "expected ConfigurationError, got %v", err)
	assert.False(t, called)
}
