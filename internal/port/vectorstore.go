package port

// VectorStore is a persistent collection of embedded chunks. The store
// exclusively owns chunk storage; entries are immutable after Add and
// updates are modeled as delete plus re-add.
type VectorStore interface {
	// Add writes a batch of chunks. All slices are parallel and must
	// have the same length.
	Add(ids []string, texts []string, metadatas []map[string]string, vectors [][]float32) error

	// Query returns the k nearest chunks to the query vector, best first.
	Query(vector []float32, k int) ([]Match, error)

	// List returns every stored entry (id and metadata only).
	List() ([]Entry, error)

	// Delete removes entries by id. Unknown ids are ignored.
	Delete(ids []string) error

	Close() error
}

// Match is a ranked query result.
type Match struct {
	ID       string
	Text     string
	Metadata map[string]string
	Score    float64
}

// Entry is a stored chunk reference without its vector or text.
type Entry struct {
	ID       string
	Metadata map[string]string
}
