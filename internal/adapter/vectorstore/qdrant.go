package vectorstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"ragserver/config"
	"ragserver/internal/port"
)

// QdrantStore is a minimal REST client to Qdrant. It assumes cosine
// distance and creates the collection on first use if missing.
type QdrantStore struct {
	url        string
	apiKey     string
	collection string
	dimension  int
	client     *http.Client
}

// NewQdrantStore creates a Qdrant-backed store and ensures its
// collection exists with the given vector dimension.
func NewQdrantStore(cfg config.QdrantConfig, dimension int) (*QdrantStore, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("invalid vector dimension: %d", dimension)
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	s := &QdrantStore{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		dimension:  dimension,
		client:     &http.Client{Timeout: timeout},
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	// Qdrant returns 200 for an existing collection with the same schema.
	if err := s.do(http.MethodPut, fmt.Sprintf("%s/collections/%s", s.url, s.collection), body, nil); err != nil {
		return nil, fmt.Errorf("ensure collection: %w", err)
	}
	return s, nil
}

func (s *QdrantStore) Add(ids []string, texts []string, metadatas []map[string]string, vectors [][]float32) error {
	if len(ids) != len(texts) || len(ids) != len(metadatas) || len(ids) != len(vectors) {
		return fmt.Errorf("mismatched batch lengths: %d ids, %d texts, %d metadatas, %d vectors",
			len(ids), len(texts), len(metadatas), len(vectors))
	}

	points := make([]map[string]any, len(ids))
	for i := range ids {
		points[i] = map[string]any{
			"id":     pointID(ids[i]),
			"vector": vectors[i],
			"payload": map[string]any{
				"chunk_id": ids[i],
				"text":     texts[i],
				"metadata": metadatas[i],
			},
		}
	}

	url := fmt.Sprintf("%s/collections/%s/points?wait=true", s.url, s.collection)
	return s.do(http.MethodPut, url, map[string]any{"points": points}, nil)
}

func (s *QdrantStore) Query(vector []float32, k int) ([]port.Match, error) {
	if k <= 0 {
		k = 5
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        k,
		"with_payload": true,
	}
	var resp struct {
		Result []qdrantPoint `json:"result"`
	}
	url := fmt.Sprintf("%s/collections/%s/points/search", s.url, s.collection)
	if err := s.do(http.MethodPost, url, req, &resp); err != nil {
		return nil, err
	}

	matches := make([]port.Match, 0, len(resp.Result))
	for _, p := range resp.Result {
		matches = append(matches, port.Match{
			ID:       p.payloadID(),
			Text:     p.Payload.Text,
			Metadata: p.Payload.Metadata,
			Score:    p.Score,
		})
	}
	return matches, nil
}

func (s *QdrantStore) List() ([]port.Entry, error) {
	var entries []port.Entry
	var offset any

	for {
		req := map[string]any{
			"limit":        256,
			"with_payload": true,
		}
		if offset != nil {
			req["offset"] = offset
		}

		var resp struct {
			Result struct {
				Points         []qdrantPoint `json:"points"`
				NextPageOffset any           `json:"next_page_offset"`
			} `json:"result"`
		}
		url := fmt.Sprintf("%s/collections/%s/points/scroll", s.url, s.collection)
		if err := s.do(http.MethodPost, url, req, &resp); err != nil {
			return nil, err
		}

		for _, p := range resp.Result.Points {
			entries = append(entries, port.Entry{ID: p.payloadID(), Metadata: p.Payload.Metadata})
		}

		if resp.Result.NextPageOffset == nil {
			return entries, nil
		}
		offset = resp.Result.NextPageOffset
	}
}

func (s *QdrantStore) Delete(ids []string) error {
	points := make([]string, len(ids))
	for i, id := range ids {
		points[i] = pointID(id)
	}
	url := fmt.Sprintf("%s/collections/%s/points/delete?wait=true", s.url, s.collection)
	return s.do(http.MethodPost, url, map[string]any{"points": points}, nil)
}

// pointID maps a chunk id to the UUID Qdrant stores it under. Qdrant
// only accepts unsigned integers or UUIDs as point ids, so the chunk id
// itself lives in the payload and the point id is derived from it.
func pointID(chunkID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(chunkID)).String()
}

func (s *QdrantStore) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

type qdrantPoint struct {
	ID      any           `json:"id"`
	Score   float64       `json:"score"`
	Payload qdrantPayload `json:"payload"`
}

type qdrantPayload struct {
	ChunkID  string            `json:"chunk_id"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata"`
}

// payloadID prefers the chunk id stored in the payload; the point id is
// only its derived UUID.
func (p qdrantPoint) payloadID() string {
	if p.Payload.ChunkID != "" {
		return p.Payload.ChunkID
	}
	return fmt.Sprintf("%v", p.ID)
}

func (s *QdrantStore) do(method, url string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequest(method, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("qdrant %s %s: status %d: %s", method, url, resp.StatusCode, msg)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode qdrant response: %w", err)
		}
	}
	return nil
}
