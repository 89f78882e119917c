package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DocumentType classifies the origin of an ingested document.
type DocumentType string

const (
	DocTypeText    DocumentType = "text"
	DocTypePDF     DocumentType = "pdf"
	DocTypeDoc     DocumentType = "doc"
	DocTypeWebsite DocumentType = "website"
)

// Document is the logical unit of ingestion. It is owned by the caller and is
// never mutated by this core after ingestion except via full re-ingestion.
type Document struct {
	ID        string
	Title     string
	Content   string
	Type      DocumentType
	TenantID  string
	SourceURL string
	Metadata  map[string]any
	CreatedAt time.Time
}

// IsTemplate reports whether the document is flagged as a template-type
// record, which makes the relational metadata store applicable to it.
func (d Document) IsTemplate() bool {
	v, ok := d.Metadata["isTemplate"]
	if !ok {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t == "true"
	default:
		return false
	}
}

// Chunk is a bounded sub-segment of a document's text. Chunks are derived,
// never persisted as their own rows; identity is (DocumentID, SequenceIndex).
type Chunk struct {
	DocumentID    string
	SequenceIndex int
	TotalChunks   int
	Content       string
	Embedding     []float32
}

// ChunkMarker separates the document id from the sequence index in a chunk id.
const ChunkMarker = "_chunk_"

// ChunkID builds the deterministic index id for a chunk.
func ChunkID(documentID string, sequenceIndex int) string {
	return fmt.Sprintf("%s%s%d", documentID, ChunkMarker, sequenceIndex)
}

// DocumentIDFromChunkID extracts the document id from a chunk id. Ids without
// the marker are treated as legacy non-chunked entries and returned whole.
func DocumentIDFromChunkID(chunkID string) string {
	if i := strings.Index(chunkID, ChunkMarker); i >= 0 {
		return chunkID[:i]
	}
	return chunkID
}

// DocumentSummary is one deduplicated per-document view over chunk entries.
type DocumentSummary struct {
	DocumentID string
	Title      string
	Type       DocumentType
	TenantID   string
	ChunkCount int
	CreatedAt  time.Time
	Metadata   map[string]IndexableValue
}

// DocumentContent is a document reassembled from its ordered chunks.
type DocumentContent struct {
	DocumentID string
	Title      string
	Content    string
	ChunkCount int
	Metadata   map[string]IndexableValue
}

// SearchMatch is one ranked retrieval result.
type SearchMatch struct {
	Content    string
	Metadata   map[string]IndexableValue
	Similarity float64
	Rank       int
}

// StorageLevel classifies how many independent backends hold a document.
type StorageLevel string

const (
	LevelNone   StorageLevel = "none"
	LevelSingle StorageLevel = "single"
	LevelHybrid StorageLevel = "hybrid"
	LevelFull   StorageLevel = "full"
)

// LevelForCount maps the number of backends holding a document to its level.
func LevelForCount(n int) StorageLevel {
	switch n {
	case 0:
		return LevelNone
	case 1:
		return LevelSingle
	case 2:
		return LevelHybrid
	default:
		return LevelFull
	}
}

// StorageStatus is the computed, never persisted result of reconciling a
// document across the vector index, relational store and blob store.
type StorageStatus struct {
	DocumentID         string
	VectorIndexPresent bool
	RelationalPresent  bool
	BlobPresent        bool
	Level              StorageLevel
	IsComplete         bool
	Recommendations    []string
	Reasons            []string
}

// StorageCount returns the number of backends that hold the document.
func (s StorageStatus) StorageCount() int {
	n := 0
	for _, present := range []bool{s.VectorIndexPresent, s.RelationalPresent, s.BlobPresent} {
		if present {
			n++
		}
	}
	return n
}

// ParseSequenceIndex reads a flattened sequenceIndex metadata value.
func ParseSequenceIndex(v IndexableValue) int {
	if n, ok := v.Float(); ok {
		return int(n)
	}
	if i, err := strconv.Atoi(v.String()); err == nil {
		return i
	}
	return 0
}
