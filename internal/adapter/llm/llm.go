// Package llm provides the language-model chat collaborator. The
// backend is selected once at startup; call sites only see port.LLM.
package llm

import (
	"fmt"
	"time"

	"ragserver/config"
	"ragserver/internal/port"
)

// FromConfig builds the configured chat backend.
func FromConfig(cfg config.LLMConfig) (port.LLM, error) {
	switch cfg.Backend {
	case "ollama", "":
		return NewOllamaClient(
			cfg.BaseURL,
			cfg.Model,
			time.Duration(cfg.TimeoutSecs)*time.Second,
			cfg.Retries,
			time.Duration(cfg.BackoffSecs*float64(time.Second)),
		), nil
	case "stub":
		return Stub{}, nil
	default:
		return nil, fmt.Errorf("unknown llm backend: %q", cfg.Backend)
	}
}

// Stub is a placeholder backend for deployments without a model server.
type Stub struct{}

func (Stub) Chat(prompt, model string) (string, error) {
	return "[local llm backend not configured]", nil
}

func (Stub) ListModels() ([]string, error) {
	return nil, nil
}
