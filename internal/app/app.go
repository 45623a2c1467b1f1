// Package app assembles the service from configuration. Expensive
// backends (embedder, vector store, llm) are created lazily and shared.
package app

import (
	"fmt"
	"sync"

	"ragserver/config"
	"ragserver/internal/adapter/chunker"
	"ragserver/internal/adapter/embedding"
	"ragserver/internal/adapter/extract"
	"ragserver/internal/adapter/llm"
	"ragserver/internal/adapter/ratelimit"
	"ragserver/internal/adapter/vectorstore"
	"ragserver/internal/port"
	"ragserver/internal/usecase"
)

// App holds the shared components behind lazy accessors.
type App struct {
	cfg *config.Config

	embedderOnce sync.Once
	embedder     port.Embedder
	embedderErr  error

	storeOnce sync.Once
	store     port.VectorStore
	storeErr  error

	llmOnce sync.Once
	llm     port.LLM
	llmErr  error

	pipelineOnce sync.Once
	pipeline     *usecase.Pipeline
	pipelineErr  error

	tracker *usecase.Tracker
}

func New(cfg *config.Config) *App {
	return &App{cfg: cfg, tracker: usecase.NewTracker()}
}

func (a *App) Config() *config.Config { return a.cfg }

func (a *App) Tracker() *usecase.Tracker { return a.tracker }

// Embedder returns the shared embedding client, creating it on first use.
func (a *App) Embedder() (port.Embedder, error) {
	a.embedderOnce.Do(func() {
		a.embedder, a.embedderErr = embedding.FromConfig(a.cfg.Embedding)
	})
	return a.embedder, a.embedderErr
}

// Store returns the shared vector store, creating it on first use.
func (a *App) Store() (port.VectorStore, error) {
	a.storeOnce.Do(func() {
		a.store, a.storeErr = vectorstore.FromConfig(a.cfg.VectorStore, a.cfg.Embedding.Dimension)
	})
	return a.store, a.storeErr
}

// LLM returns the shared chat client, creating it on first use.
func (a *App) LLM() (port.LLM, error) {
	a.llmOnce.Do(func() {
		a.llm, a.llmErr = llm.FromConfig(a.cfg.LLM)
	})
	return a.llm, a.llmErr
}

// Pipeline returns the shared indexing pipeline, starting its workers
// on first use.
func (a *App) Pipeline() (*usecase.Pipeline, error) {
	a.pipelineOnce.Do(func() {
		emb, err := a.Embedder()
		if err != nil {
			a.pipelineErr = fmt.Errorf("create embedder: %w", err)
			return
		}
		store, err := a.Store()
		if err != nil {
			a.pipelineErr = fmt.Errorf("open vector store: %w", err)
			return
		}
		a.pipeline = usecase.NewPipeline(
			chunker.New(a.cfg.Chunking.TargetSize, a.cfg.Chunking.Overlap),
			emb, store, a.tracker,
			a.cfg.Indexing.Workers, a.cfg.Indexing.QueueSize,
		)
	})
	return a.pipeline, a.pipelineErr
}

// Answerer builds a question answerer over the shared components.
func (a *App) Answerer() (*usecase.Answerer, error) {
	emb, err := a.Embedder()
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}
	store, err := a.Store()
	if err != nil {
		return nil, fmt.Errorf("open vector store: %w", err)
	}
	chat, err := a.LLM()
	if err != nil {
		return nil, fmt.Errorf("create llm client: %w", err)
	}
	return usecase.NewAnswerer(emb, store, chat), nil
}

// Limiter builds the admission controller from configuration.
func (a *App) Limiter() (port.Limiter, error) {
	return ratelimit.FromConfig(a.cfg.RateLimit)
}

// Extractor returns the text extractor.
func (a *App) Extractor() port.Extractor {
	return extract.New()
}

// Close shuts the pipeline down and releases the vector store.
func (a *App) Close() error {
	if a.pipeline != nil {
		a.pipeline.Close()
	}
	if a.store != nil {
		return a.store.Close()
	}
	return nil
}
