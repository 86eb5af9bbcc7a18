package provider

import (
	"context"
	"errors"

	"github.com/boswallah/course-assistant/config"
	gemini_provider "github.com/boswallah/course-assistant/provider/gemini"
)

// Client represents different LLM providers
type Client string

const (
	Gemini Client = "gemini"
)

// Completion is a single model response. Truncated is set when the model
// signalled a token-limit cutoff, so callers can degrade instead of
// surfacing a clipped answer.
type Completion = gemini_provider.Completion

// Provider is the interface the pipeline's LLM collaborator must satisfy.
type Provider interface {
	Generate(ctx context.Context, prompt string) (Completion, error)
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// NewProvider creates an LLM client from configuration.
func NewProvider(client Client, cfg config.LLMConfig) (Provider, error) {
	switch client {
	case Gemini:
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return gemini_provider.NewClient(
			cfg.APIKey,
			cfg.Model,
			cfg.EmbeddingModel,
			cfg.Temperature,
			cfg.MaxTokens,
			cfg.Timeout,
			cfg.MaxRetries,
		), nil
	default:
		return nil, errors.New("unsupported LLM provider")
	}
}
