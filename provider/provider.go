package provider

import (
	"context"
	"errors"

	"github.com/mohammad-safakhou/fincoach/config"
	ollama_provider "github.com/mohammad-safakhou/fincoach/provider/ollama"
)

// Client represents different LLM providers
type Client string

const (
	Ollama Client = "ollama"
)

// Provider is the interface that all LLM implementations must satisfy
type Provider interface {
	Generate(ctx context.Context, prompt string) (string, error)
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}

// NewProvider creates a new LLM client based on the provided configuration
func NewProvider(cfg config.LLMConfig) (Provider, error) {
	switch Client(cfg.Type) {
	case Ollama, "":
		return ollama_provider.NewClient(
			cfg.BaseURL,
			cfg.Model,
			cfg.EmbeddingModel,
			cfg.SystemPrompt,
			cfg.Timeout,
		), nil
	default:
		return nil, errors.New("unsupported LLM provider: " + cfg.Type)
	}
}
