// Package embedding provides the text embedding collaborator: an
// OpenAI-compatible HTTP client (also serving Ollama's compatibility
// API), a deterministic mock for tests, and an LRU caching wrapper.
package embedding

import (
	"fmt"
	"time"

	"ragserver/config"
	"ragserver/internal/port"
)

// FromConfig builds the configured embedder wrapped in the LRU cache.
func FromConfig(cfg config.EmbeddingConfig) (port.Embedder, error) {
	inner, err := newProvider(cfg)
	if err != nil {
		return nil, err
	}
	return NewCachedEmbedder(inner, cfg.CacheSize), nil
}

func newProvider(cfg config.EmbeddingConfig) (port.Embedder, error) {
	opts := []Option{
		WithBatch(cfg.BatchSize, cfg.Concurrency),
		WithTimeout(time.Duration(cfg.TimeoutSecs) * time.Second),
	}

	switch cfg.Provider {
	case "openai":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "https://api.openai.com/v1"
		}
		return NewClient(baseURL, cfg.Model, cfg.APIKeyEnv, cfg.Dimension, opts...)
	case "ollama", "":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434/v1"
		}
		return NewClient(baseURL, cfg.Model, "", cfg.Dimension, opts...)
	case "mock":
		return NewMockEmbedder(cfg.Dimension), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider: %q", cfg.Provider)
	}
}
