// Package vectorstore provides the persistent chunk collection behind
// the indexing and retrieval pipeline: a bbolt-backed local store, a
// Qdrant REST store, and an in-memory store for tests.
package vectorstore

import (
	"fmt"

	"ragserver/config"
	"ragserver/internal/port"
)

// FromConfig builds the configured vector store backend. dimension is
// the embedding vector length, used by backends that declare a schema.
func FromConfig(cfg config.VectorStoreConfig, dimension int) (port.VectorStore, error) {
	switch cfg.Backend {
	case "bolt", "":
		return NewBoltStore(cfg.Bolt.Path)
	case "qdrant":
		return NewQdrantStore(cfg.Qdrant, dimension)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown vector store backend: %q", cfg.Backend)
	}
}
