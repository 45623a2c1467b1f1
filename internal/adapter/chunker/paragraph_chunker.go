package chunker

import "strings"

const (
	DefaultTargetSize = 512
	DefaultOverlap    = 50

	// avgWordLen converts the character-oriented size and overlap
	// parameters into word counts when splitting long paragraphs.
	avgWordLen = 5
)

// ParagraphChunker splits document text into chunks, preferring paragraph
// boundaries and falling back to overlapping word windows for paragraphs
// longer than the target size. It is stateless and deterministic.
type ParagraphChunker struct {
	targetSize int
	overlap    int
}

// New creates a chunker with the given target chunk size and overlap, both
// in characters. Non-positive values fall back to the defaults.
func New(targetSize, overlap int) *ParagraphChunker {
	if targetSize <= 0 {
		targetSize = DefaultTargetSize
	}
	if overlap < 0 {
		overlap = DefaultOverlap
	}
	return &ParagraphChunker{targetSize: targetSize, overlap: overlap}
}

// Split chunks text into an ordered sequence of non-empty strings.
//
// Paragraphs (blank-line separated) at most targetSize characters long are
// emitted verbatim. Longer paragraphs are split into overlapping windows of
// words. Concatenating the chunks, minus the overlap regions, covers the
// whole input; no text is silently dropped.
//
// Empty or whitespace-only input yields nil. Any other input that produces
// no chunks is emitted whole as a single chunk.
func (c *ParagraphChunker) Split(text string) []string {
	if text == "" {
		return nil
	}

	var chunks []string
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		if len(para) <= c.targetSize {
			chunks = append(chunks, para)
			continue
		}

		chunks = append(chunks, c.splitWords(para)...)
	}

	if len(chunks) == 0 && strings.TrimSpace(text) != "" {
		return []string{text}
	}

	return chunks
}

// splitWords splits an oversized paragraph into overlapping word windows.
// The window size and step are clamped to at least one word, so the loop
// always makes forward progress, even for a single enormous word.
func (c *ParagraphChunker) splitWords(para string) []string {
	words := strings.Fields(para)
	if len(words) == 0 {
		return nil
	}

	windowSize := c.targetSize / avgWordLen
	if windowSize < 1 {
		windowSize = 1
	}
	overlapWords := c.overlap / avgWordLen
	if overlapWords < 1 {
		overlapWords = 1
	}
	step := windowSize - overlapWords
	if step < 1 {
		step = 1
	}

	var chunks []string
	for i := 0; i < len(words); i += step {
		end := i + windowSize
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[i:end], " "))
	}
	return chunks
}
