package providers

import (
	"context"
	"fmt"
)

// ResponseField describes one key of the JSON object the model must return
type ResponseField struct {
	Name        string
	Description string
	Required    bool
}

// Config represents a single request to a vision-capable LLM provider
type Config struct {
	Model         string
	Temperature   float64
	Prompt        string
	Image         []byte
	ImageMIMEType string
	// ResponseFields, when set, asks the provider for a JSON object with
	// these keys
	ResponseFields []ResponseField
}

// Provider defines the interface for an LLM provider
type Provider interface {
	ExtractText(ctx context.Context, config Config) (string, error)
}

// ConfigurationError means the provider cannot be called because required
// configuration, usually an API key, is missing
type ConfigurationError struct {
	Provider string
	Setting  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s is not configured", e.Provider, e.Setting)
}

// ResponseFormatError means the provider answered but the response did not
// have the expected shape
type ResponseFormatError struct {
	Provider string
	Reason   string
}

func (e *ResponseFormatError) Error() string {
	return fmt.Sprintf("unexpected %s response format: %s", e.Provider, e.Reason)
}
