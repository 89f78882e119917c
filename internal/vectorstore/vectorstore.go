package vectorstore

import (
	"context"

	"hybrid-rag/internal/models"
)

// Metadata keys every chunk entry carries next to the caller's own metadata.
const (
	MetaDocumentID    = "documentId"
	MetaSequenceIndex = "sequenceIndex"
	MetaTotalChunks   = "totalChunks"
	MetaTenantID      = "tenantId"
	MetaCreatedAt     = "createdAt"
	MetaTitle         = "title"
	MetaType          = "type"
	MetaSourceURL     = "sourceUrl"
)

// Entry is what the vector index stores for one chunk.
type Entry struct {
	ID       string
	Vector   []float32
	Text     string
	Metadata map[string]models.IndexableValue
}

// Result is one nearest-neighbor candidate with its native distance.
type Result struct {
	ID       string
	Text     string
	Metadata map[string]models.IndexableValue
	Distance float64
}

// Filter restricts queries and listings. A zero filter matches everything.
type Filter struct {
	DocumentID string   // exact match on the documentId metadata field
	TenantIDs  []string // set membership on the tenantId metadata field
}

// IsZero reports whether the filter imposes no restriction.
func (f Filter) IsZero() bool {
	return f.DocumentID == "" && len(f.TenantIDs) == 0
}

// Index is the vector store capability consumed by this core. Implementations
// own their retry and timeout policy; failures propagate to the caller.
type Index interface {
	Add(ctx context.Context, entries []Entry) error
	Query(ctx context.Context, vector []float32, k int, filter Filter) ([]Result, error)
	GetByFilter(ctx context.Context, filter Filter) ([]Entry, error)
	Delete(ctx context.Context, ids []string) error
}
