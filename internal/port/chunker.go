package port

// Chunker splits document text into retrievable chunks.
type Chunker interface {
	// Split returns the chunks in document order. Text with no content
	// yields an empty slice.
	Split(text string) []string
}
