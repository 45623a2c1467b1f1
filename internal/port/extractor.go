package port

import "ragserver/internal/domain"

// Extractor turns an uploaded file into plain text.
type Extractor interface {
	Extract(path string, ocrEnabled bool, ocrMaxPages int) (domain.Extraction, error)
}
