package chunker

import (
	"strings"

	"hybrid-rag/internal/models"
)

const (
	DefaultChunkSize = 1000 // characters
	DefaultOverlap   = 200  // characters
)

// Chunker splits raw text into ordered, overlapping segments. Splitting is
// deterministic: identical input always yields the identical chunk sequence.
type Chunker struct {
	chunkSize int
	overlap   int
}

// New creates a chunker. Non-positive sizes fall back to the defaults and an
// overlap that reaches the chunk size is halved to keep the window advancing.
func New(chunkSize, overlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 2
	}
	return &Chunker{chunkSize: chunkSize, overlap: overlap}
}

// Split cuts text into chunks of at most chunkSize characters. It prefers to
// cut at a paragraph boundary, then a newline, then a space, and falls back
// to a hard cut when no boundary exists past half the window. Each chunk
// after the first repeats the trailing overlap characters of the previous
// chunk. Chunk text is never trimmed, so with overlap 0 the concatenation of
// all chunks equals the input exactly.
func (c *Chunker) Split(text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, models.ErrEmptyContent
	}

	runes := []rune(text)
	n := len(runes)
	if n <= c.chunkSize {
		return []string{text}, nil
	}

	chunks := make([]string, 0, n/(c.chunkSize-c.overlap)+1)
	start := 0
	for start < n {
		end := start + c.chunkSize
		if end >= n {
			chunks = append(chunks, string(runes[start:n]))
			break
		}
		end = c.cutPoint(runes, start, end)
		chunks = append(chunks, string(runes[start:end]))

		next := end - c.overlap
		if next <= start {
			// overlap would stall the window, advance without it
			next = end
		}
		start = next
	}
	return chunks, nil
}

// cutPoint scans backward from end for the best boundary, never crossing the
// half-window mark. Returns the exclusive cut index.
func (c *Chunker) cutPoint(runes []rune, start, end int) int {
	limit := start + c.chunkSize/2

	// paragraph break first
	for i := end - 1; i > limit; i-- {
		if runes[i] == '\n' && runes[i-1] == '\n' {
			return i + 1
		}
	}
	for i := end - 1; i >= limit; i-- {
		if runes[i] == '\n' {
			return i + 1
		}
	}
	for i := end - 1; i >= limit; i-- {
		if runes[i] == ' ' {
			return i + 1
		}
	}
	return end
}
