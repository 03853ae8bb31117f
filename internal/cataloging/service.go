package cataloging

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lehigh-university-libraries/book-inventory/internal/gemini"
	"github.com/lehigh-university-libraries/book-inventory/internal/models"
	"github.com/lehigh-university-libraries/book-inventory/internal/ollama"
	"github.com/lehigh-university-libraries/book-inventory/internal/openai"
	"github.com/lehigh-university-libraries/book-inventory/internal/providers"
)

// RequestTimeout bounds a single round trip to the vision provider
const RequestTimeout = 30 * time.Second

// Low temperature for consistent, factual output
const temperature = 0.1

// ExtractionFailed wraps every failure of the detail extraction pipeline
type ExtractionFailed struct {
	Provider string
	Err      error
}

func (e *ExtractionFailed) Error() string {
	return fmt.Sprintf("failed to extract book details with %s: %v", e.Provider, e.Err)
}

func (e *ExtractionFailed) Unwrap() error {
	return e.Err
}

// Options selects the vision provider used by the service
type Options struct {
	Provider      string
	Model         string
	GeminiAPIKey  string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OllamaURL     string
}

type Service struct {
	provider     providers.Provider
	providerName string
	model        string
	timeout      time.Duration
}

// NewService builds a service around an already constructed provider
func NewService(name string, provider providers.Provider, model string) *Service {
	return &Service{
		provider:     provider,
		providerName: name,
		model:        model,
		timeout:      RequestTimeout,
	}
}

// NewFromOptions constructs the provider named in opts
func NewFromOptions(opts Options) (*Service, error) {
	model := opts.Model
	if model == "" {
		model = DefaultModel(opts.Provider)
	}

	switch opts.Provider {
	case gemini.Name, "":
		return NewService(gemini.Name, gemini.New(opts.GeminiAPIKey), model), nil
	case openai.Name:
		return NewService(openai.Name, openai.New(opts.OpenAIAPIKey, opts.OpenAIBaseURL), model), nil
	case ollama.Name:
		return NewService(ollama.Name, ollama.New(opts.OllamaURL), model), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", opts.Provider)
	}
}

// DefaultModel returns the model used when none is configured
func DefaultModel(provider string) string {
	switch provider {
	case openai.Name:
		return openai.DefaultModel
	case ollama.Name:
		return ollama.DefaultModel
	default:
		return gemini.DefaultModel
	}
}

// Provider returns the provider name and model in use
func (s *Service) Provider() (string, string) {
	return s.providerName, s.model
}

// ExtractDetails asks the vision provider to read the bibliographic fields off
// a cover image. Failures are returned as *ExtractionFailed and never retried.
func (s *Service) ExtractDetails(ctx context.Context, image []byte, mimeType string) (models.BookDetails, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	text, err := s.provider.ExtractText(ctx, providers.Config{
		Model:          s.model,
		Temperature:    temperature,
		Prompt:         detailsPrompt,
		Image:          image,
		ImageMIMEType:  mimeType,
		ResponseFields: detailFields,
	})
	if err != nil {
		return models.BookDetails{}, &ExtractionFailed{Provider: s.providerName, Err: err}
	}

	details, err := parseDetails(s.providerName, text)
	if err != nil {
		slog.Debug("Unparseable provider answer", "provider", s.providerName, "response", text)
		return models.BookDetails{}, &ExtractionFailed{Provider: s.providerName, Err: err}
	}

	slog.Info("Extracted book details",
		"provider", s.providerName,
		"model", s.model,
		"title", details.Title,
		"duration", time.Since(start))
	return details, nil
}
