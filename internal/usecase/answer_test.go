package usecase

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragserver/internal/adapter/embedding"
	"ragserver/internal/adapter/vectorstore"
	"ragserver/internal/domain"
	"ragserver/internal/port"
)

type captureLLM struct {
	prompt string
	model  string
	reply  string
	err    error
}

func (c *captureLLM) Chat(prompt, model string) (string, error) {
	c.prompt = prompt
	c.model = model
	return c.reply, c.err
}

func (c *captureLLM) ListModels() ([]string, error) { return nil, nil }

type brokenStore struct {
	port.VectorStore
}

func (brokenStore) Query(vector []float32, k int) ([]port.Match, error) {
	return nil, errors.New("store unavailable")
}

func seedStore(t *testing.T, emb port.Embedder) port.VectorStore {
	t.Helper()
	store := vectorstore.NewMemoryStore()
	texts := []string{"Paragraph one.", "Paragraph two."}
	vectors, err := emb.Embed(texts)
	require.NoError(t, err)
	err = store.Add(
		[]string{"doc1_0", "doc1_1"},
		texts,
		[]map[string]string{{"source_filename": "a.txt"}, {"source_filename": "a.txt"}},
		vectors,
	)
	require.NoError(t, err)
	return store
}

func TestAnswererBuildsPromptFromRetrievedChunks(t *testing.T) {
	emb := embedding.NewMockEmbedder(64)
	llm := &captureLLM{reply: "Paragraph one is present. Sources: [doc1_0]"}
	a := NewAnswerer(emb, seedStore(t, emb), llm)

	ans, err := a.Answer("What is in paragraph one?", 1, "llama3.1")
	require.NoError(t, err)

	assert.Equal(t, "llama3.1", llm.model)
	assert.Contains(t, llm.prompt, "QUESTION: What is in paragraph one?")
	assert.Contains(t, llm.prompt, "[doc1_0] Paragraph one.")
	assert.Contains(t, llm.prompt, "I don't know based on the provided context.")

	assert.Equal(t, llm.reply, ans.Answer)
	require.Len(t, ans.Sources, 1)
	assert.Equal(t, "doc1_0", ans.Sources[0])
	assert.Equal(t, "Paragraph one.", ans.Snippets[0])
	assert.Equal(t, "a.txt", ans.Metadatas[0]["source_filename"])
}

func TestAnswererDefaultsTopK(t *testing.T) {
	emb := embedding.NewMockEmbedder(64)
	llm := &captureLLM{reply: "ok"}
	a := NewAnswerer(emb, seedStore(t, emb), llm)

	ans, err := a.Answer("anything", 0, "")
	require.NoError(t, err)
	assert.Len(t, ans.Sources, 2)
}

func TestAnswererRetrievalError(t *testing.T) {
	emb := embedding.NewMockEmbedder(64)
	a := NewAnswerer(emb, brokenStore{}, &captureLLM{})

	_, err := a.Answer("question", 3, "")
	require.ErrorIs(t, err, domain.ErrRetrieval)
	assert.Contains(t, err.Error(), "store unavailable")
}

func TestAnswererLLMError(t *testing.T) {
	emb := embedding.NewMockEmbedder(64)
	llm := &captureLLM{err: errors.New("ollama unreachable after 3 attempts")}
	a := NewAnswerer(emb, seedStore(t, emb), llm)

	_, err := a.Answer("question", 1, "")
	require.ErrorIs(t, err, domain.ErrLLM)
}
