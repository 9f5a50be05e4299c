package embedding

import (
	"fmt"
	"time"

	"github.com/ragstack/ragserve/internal/core"
)

// Config selects and tunes the embedding provider. The provider is resolved
// once at startup and injected into the ingestion pipeline and the search
// engine; there is no per-call dispatch on the provider name.
type Config struct {
	Provider  core.ProviderKind
	Model     string
	Dimension int
	Timeout   time.Duration

	OllamaBaseURL string

	OpenAIBaseURL string
	OpenAIAPIKey  string
}

// NewProvider builds the configured provider or fails with
// ErrUnsupportedProvider for an unknown name.
func NewProvider(cfg Config) (core.EmbeddingProvider, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	switch cfg.Provider {
	case core.ProviderOllama:
		return NewOllamaProvider(cfg.OllamaBaseURL, cfg.Model, cfg.Dimension, cfg.Timeout), nil
	case core.ProviderOpenAI:
		return NewOpenAIProvider(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.Model, cfg.Dimension, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("%w: %q", core.ErrUnsupportedProvider, cfg.Provider)
	}
}
