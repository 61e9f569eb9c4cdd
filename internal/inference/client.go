// Package inference calls a language-model backend and decodes its free-text
// replies into typed candidates.
package inference

import (
	"context"

	"github.com/pkg/errors"
)

// Client sends one prompt to a language-model backend and returns the raw
// text of the reply. Implementations do no response parsing.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Provider names one of the interchangeable backends.
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "gemini"
)

// Config selects and authenticates a backend.
type Config struct {
	Provider Provider
	APIKey   string
	Model    string
	// BaseURL overrides the provider endpoint, mainly for OpenAI-compatible
	// gateways and tests.
	BaseURL string
}

// NewClient builds the configured provider.
func NewClient(cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("inference API key is required")
	}
	switch cfg.Provider {
	case ProviderOpenAI:
		return newOpenAI(cfg), nil
	case ProviderGemini:
		return newGemini(cfg), nil
	default:
		return nil, errors.Errorf("unknown inference provider %q", cfg.Provider)
	}
}
