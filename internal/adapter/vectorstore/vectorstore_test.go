package vectorstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragserver/internal/port"
)

func seed(t *testing.T, s port.VectorStore) {
	t.Helper()
	err := s.Add(
		[]string{"docA_0", "docA_1", "docB_0"},
		[]string{"alpha text", "beta text", "gamma text"},
		[]map[string]string{
			{"source_filename": "a.txt"},
			{"source_filename": "a.txt"},
			{"source_filename": "b.txt"},
		},
		[][]float32{
			{1, 0, 0},
			{0, 1, 0},
			{0, 0, 1},
		},
	)
	require.NoError(t, err)
}

func runStoreContract(t *testing.T, s port.VectorStore) {
	seed(t, s)

	t.Run("query ranks by cosine similarity", func(t *testing.T) {
		matches, err := s.Query([]float32{1, 0.1, 0}, 2)
		require.NoError(t, err)
		require.Len(t, matches, 2)
		assert.Equal(t, "docA_0", matches[0].ID)
		assert.Equal(t, "alpha text", matches[0].Text)
		assert.Equal(t, "a.txt", matches[0].Metadata["source_filename"])
		assert.Greater(t, matches[0].Score, matches[1].Score)
	})

	t.Run("list returns every entry", func(t *testing.T) {
		entries, err := s.List()
		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.Equal(t, "docA_0", entries[0].ID)
	})

	t.Run("delete removes only the named ids", func(t *testing.T) {
		require.NoError(t, s.Delete([]string{"docA_0", "docA_1", "missing"}))

		entries, err := s.List()
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "docB_0", entries[0].ID)
	})
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	runStoreContract(t, s)
}

func TestBoltStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	s, err := NewBoltStore(path)
	require.NoError(t, err)
	defer s.Close()
	runStoreContract(t, s)
}

func TestBoltStoreReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")

	s, err := NewBoltStore(path)
	require.NoError(t, err)
	seed(t, s)
	require.NoError(t, s.Close())

	// Reopen: the persisted chunks are searchable again.
	s, err = NewBoltStore(path)
	require.NoError(t, err)
	defer s.Close()

	matches, err := s.Query([]float32{0, 1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "docA_1", matches[0].ID)
	assert.Equal(t, "beta text", matches[0].Text)
}

func TestAddRejectsMismatchedBatch(t *testing.T) {
	s := NewMemoryStore()
	err := s.Add([]string{"a"}, []string{"t", "extra"}, []map[string]string{nil}, [][]float32{{1}})
	assert.Error(t, err)
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, cosine([]float32{1, 2}, []float32{2, 4}), 1e-9)
	assert.InDelta(t, 0.0, cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.Equal(t, 0.0, cosine([]float32{0, 0}, []float32{1, 1}))
	assert.Equal(t, 0.0, cosine([]float32{1}, []float32{1, 2}))
}
