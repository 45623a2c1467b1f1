package vectorstore

import (
	"fmt"
	"sort"
	"sync"

	"ragserver/internal/port"
)

// MemoryStore is an in-process vector store with brute-force search.
// It backs tests and single-process deployments that do not need
// persistence.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memEntry
}

type memEntry struct {
	text     string
	metadata map[string]string
	vector   []float32
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memEntry)}
}

func (s *MemoryStore) Add(ids []string, texts []string, metadatas []map[string]string, vectors [][]float32) error {
	if len(ids) != len(texts) || len(ids) != len(metadatas) || len(ids) != len(vectors) {
		return fmt.Errorf("mismatched batch lengths: %d ids, %d texts, %d metadatas, %d vectors",
			len(ids), len(texts), len(metadatas), len(vectors))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, id := range ids {
		s.entries[id] = memEntry{
			text:     texts[i],
			metadata: metadatas[i],
			vector:   vectors[i],
		}
	}
	return nil
}

func (s *MemoryStore) Query(vector []float32, k int) ([]port.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]port.Match, 0, len(s.entries))
	for id, e := range s.entries {
		matches = append(matches, port.Match{
			ID:       id,
			Text:     e.text,
			Metadata: e.metadata,
			Score:    cosine(vector, e.vector),
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].ID < matches[j].ID
	})

	if k > 0 && len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

func (s *MemoryStore) List() ([]port.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]port.Entry, 0, len(s.entries))
	for id, e := range s.entries {
		entries = append(entries, port.Entry{ID: id, Metadata: e.metadata})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries, nil
}

func (s *MemoryStore) Delete(ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.entries, id)
	}
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
