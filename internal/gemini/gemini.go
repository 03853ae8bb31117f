package gemini

import (
	"context"
	"fmt"
	"os"

	"github.com/google/generative-ai-go/genai"
	"github.com/lehigh-university-libraries/book-inventory/internal/providers"
	"google.golang.org/api/option"
)

const (
	Name         = "gemini"
	DefaultModel = "gemini-1.5-flash"
)

// Gemini is a provider for Google Gemini
type Gemini struct {
	// APIKey overrides the GEMINI_API_KEY / GOOGLE_GEMINI_API_KEY lookup
	APIKey string
	// ClientOptions are appended to the client options, mainly for tests
	ClientOptions []option.ClientOption
}

// New returns a new Gemini provider
func New(apiKey string) *Gemini {
	return &Gemini{APIKey: apiKey}
}

// apiKey is resolved on every call so a key exported after startup is used
func (g *Gemini) apiKey() string {
	if g.APIKey != "" {
		return g.APIKey
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		return key
	}
	return os.Getenv("GOOGLE_GEMINI_API_KEY")
}

// ExtractText sends the prompt and optional image to Gemini and returns the
// single text part of the first candidate
func (g *Gemini) ExtractText(ctx context.Context, config providers.Config) (string, error) {
	apiKey := g.apiKey()
	if apiKey == "" {
		return "", &providers.ConfigurationError{Provider: Name, Setting: "GEMINI_API_KEY"}
	}

	opts := append([]option.ClientOption{option.WithAPIKey(apiKey)}, g.ClientOptions...)
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("failed to create new gemini client: %w", err)
	}
	defer client.Close()

	modelName := config.Model
	if modelName == "" {
		modelName = DefaultModel
	}
	model := client.GenerativeModel(modelName)
	model.SetTemperature(float32(config.Temperature))
	if len(config.ResponseFields) > 0 {
		model.ResponseMIMEType = "application/json"
		model.ResponseSchema = responseSchema(config.ResponseFields)
	}

	parts := []genai.Part{genai.Text(config.Prompt)}
	if len(config.Image) > 0 {
		parts = append(parts, genai.Blob{MIMEType: config.ImageMIMEType, Data: config.Image})
	}

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	return firstText(resp)
}

func firstText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", &providers.ResponseFormatError{Provider: Name, Reason: "no candidates returned"}
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", &providers.ResponseFormatError{Provider: Name, Reason: "empty content returned"}
	}

	if txt, ok := candidate.Content.Parts[0].(genai.Text); ok {
		return string(txt), nil
	}

	return "", &providers.ResponseFormatError{Provider: Name, Reason: fmt.Sprintf("first part is %T, not text", candidate.Content.Parts[0])}
}

func responseSchema(fields []providers.ResponseField) *genai.Schema {
	schema := &genai.Schema{
		Type:       genai.TypeObject,
		Properties: make(map[string]*genai.Schema, len(fields)),
	}
	for _, f := range fields {
		schema.Properties[f.Name] = &genai.Schema{
			Type:        genai.TypeString,
			Description: f.Description,
			Nullable:    !f.Required,
		}
		if f.Required {
			schema.Required = append(schema.Required, f.Name)
		}
	}
	return schema
}
