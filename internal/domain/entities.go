package domain

// Answer is the result of a retrieval-augmented question.
// Sources, Snippets and Metadatas are parallel slices in the ranking
// order returned by the vector store.
type Answer struct {
	Answer    string              `json:"answer"`
	Sources   []string            `json:"sources"`
	Snippets  []string            `json:"snippets"`
	Metadatas []map[string]string `json:"metadatas"`
}

// DocumentSummary aggregates the indexed chunks of one document.
type DocumentSummary struct {
	DocID          string            `json:"doc_id"`
	Count          int               `json:"count"`
	SampleMetadata map[string]string `json:"sample_metadata"`
}

// Extraction is the output of the text extraction collaborator.
type Extraction struct {
	Filename     string
	Text         string
	OCRUsed      bool
	PageCount    int
	OCRTruncated bool
}
