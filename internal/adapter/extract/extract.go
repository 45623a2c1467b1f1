// Package extract turns uploaded files into plain text. Only plain-text
// formats are handled here; richer formats (PDF, DOCX) and OCR belong to
// a separate extraction service behind the same port.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"ragserver/internal/domain"
)

// TextExtractor reads plain-text document formats.
type TextExtractor struct{}

// New creates a plain-text extractor.
func New() *TextExtractor {
	return &TextExtractor{}
}

// Extract reads the file and returns its text. The OCR arguments are
// accepted for interface compatibility; plain-text formats never use
// OCR, so OCRUsed, PageCount and OCRTruncated are always zero values.
func (e *TextExtractor) Extract(path string, ocrEnabled bool, ocrMaxPages int) (domain.Extraction, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md":
	default:
		return domain.Extraction{}, fmt.Errorf("unsupported file type: %s", filepath.Ext(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Extraction{}, fmt.Errorf("read %s: %w", path, err)
	}

	return domain.Extraction{
		Filename: filepath.Base(path),
		Text:     string(data),
	}, nil
}
