package vectorstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"go.etcd.io/bbolt"

	"ragserver/internal/port"
)

var bucketChunks = []byte("chunks")

// BoltStore persists embedded chunks in a bbolt database and keeps an
// in-memory mirror for brute-force similarity search. Suitable for
// single-process deployments; swap in the Qdrant backend beyond that.
type BoltStore struct {
	db *bbolt.DB

	mu      sync.RWMutex
	entries map[string]memEntry
}

type storedChunk struct {
	Text     string            `json:"t"`
	Metadata map[string]string `json:"m,omitempty"`
	Vector   []float32         `json:"v"`
}

// NewBoltStore opens (creating if needed) a bbolt-backed store at path
// and loads existing chunks into memory.
func NewBoltStore(path string) (*BoltStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketChunks)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create chunks bucket: %w", err)
	}

	s := &BoltStore{db: db, entries: make(map[string]memEntry)}
	if err := s.load(); err != nil {
		db.Close()
		return nil, fmt.Errorf("load chunks: %w", err)
	}
	return s, nil
}

func (s *BoltStore) load() error {
	return s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketChunks).ForEach(func(k, v []byte) error {
			var stored storedChunk
			if err := json.Unmarshal(v, &stored); err != nil {
				return nil // skip corrupted entries
			}
			s.entries[string(k)] = memEntry{
				text:     stored.Text,
				metadata: stored.Metadata,
				vector:   stored.Vector,
			}
			return nil
		})
	})
}

func (s *BoltStore) Add(ids []string, texts []string, metadatas []map[string]string, vectors [][]float32) error {
	if len(ids) != len(texts) || len(ids) != len(metadatas) || len(ids) != len(vectors) {
		return fmt.Errorf("mismatched batch lengths: %d ids, %d texts, %d metadatas, %d vectors",
			len(ids), len(texts), len(metadatas), len(vectors))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketChunks)
		for i, id := range ids {
			data, err := json.Marshal(storedChunk{
				Text:     texts[i],
				Metadata: metadatas[i],
				Vector:   vectors[i],
			})
			if err != nil {
				return err
			}
			if err := b.Put([]byte(id), data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("write chunk batch: %w", err)
	}

	for i, id := range ids {
		s.entries[id] = memEntry{
			text:     texts[i],
			metadata: metadatas[i],
			vector:   vectors[i],
		}
	}
	return nil
}

func (s *BoltStore) Query(vector []float32, k int) ([]port.Match, error) {
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

func (s *BoltStore) List() ([]port.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]port.Entry, 0, len(s.entries))
	for id, e := range s.entries {
		entries = append(entries, port.Entry{ID: id, Metadata: e.metadata})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries, nil
}

func (s *BoltStore) Delete(ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketChunks)
		for _, id := range ids {
			if err := b.Delete([]byte(id)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}

	for _, id := range ids {
		delete(s.entries, id)
	}
	return nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
