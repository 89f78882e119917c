// Package reconstruct deduplicates chunk entries into document summaries and
// reassembles full content from ordered chunks.
package reconstruct

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"hybrid-rag/internal/models"
	"hybrid-rag/internal/vectorstore"
)

type Reconstructor struct {
	index vectorstore.Index
}

func New(index vectorstore.Index) *Reconstructor {
	return &Reconstructor{index: index}
}

// ListSummaries pages through the index and emits exactly one summary per
// distinct document id, keeping the first-seen metadata snapshot and a
// running chunk count, sorted by createdAt descending.
func (r *Reconstructor) ListSummaries(ctx context.Context, filter vectorstore.Filter) ([]models.DocumentSummary, error) {
	entries, err := r.index.GetByFilter(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listing index entries: %w", err)
	}

	byDoc := make(map[string]*models.DocumentSummary)
	for _, e := range entries {
		docID := models.DocumentIDFromChunkID(e.ID)
		summary, ok := byDoc[docID]
		if !ok {
			summary = &models.DocumentSummary{
				DocumentID: docID,
				Title:      e.Metadata[vectorstore.MetaTitle].String(),
				Type:       models.DocumentType(e.Metadata[vectorstore.MetaType].String()),
				TenantID:   e.Metadata[vectorstore.MetaTenantID].String(),
				CreatedAt:  parseCreatedAt(e.Metadata),
				Metadata:   e.Metadata,
			}
			byDoc[docID] = summary
		}
		summary.ChunkCount++
	}

	summaries := make([]models.DocumentSummary, 0, len(byDoc))
	for _, s := range byDoc {
		summaries = append(summaries, *s)
	}
	sort.Slice(summaries, func(i, j int) bool {
		if !summaries[i].CreatedAt.Equal(summaries[j].CreatedAt) {
			return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
		}
		return summaries[i].DocumentID < summaries[j].DocumentID
	})
	return summaries, nil
}

// GetFullContent fetches every chunk of the document, orders them by
// sequence index (the backend's native return order is unspecified) and
// concatenates their text with no separator; the chunk overlap already
// encodes boundary continuity.
func (r *Reconstructor) GetFullContent(ctx context.Context, documentID string) (models.DocumentContent, error) {
	entries, err := r.index.GetByFilter(ctx, vectorstore.Filter{DocumentID: documentID})
	if err != nil {
		return models.DocumentContent{}, fmt.Errorf("listing chunks for %s: %w", documentID, err)
	}
	if len(entries) == 0 {
		return models.DocumentContent{}, fmt.Errorf("%w: document %s", models.ErrNotFound, documentID)
	}

	sort.Slice(entries, func(i, j int) bool {
		return models.ParseSequenceIndex(entries[i].Metadata[vectorstore.MetaSequenceIndex]) <
			models.ParseSequenceIndex(entries[j].Metadata[vectorstore.MetaSequenceIndex])
	})

	var content strings.Builder
	for _, e := range entries {
		content.WriteString(e.Text)
	}

	first := entries[0]
	return models.DocumentContent{
		DocumentID: documentID,
		Title:      first.Metadata[vectorstore.MetaTitle].String(),
		Content:    content.String(),
		ChunkCount: len(entries),
		Metadata:   first.Metadata,
	}, nil
}

func parseCreatedAt(meta map[string]models.IndexableValue) time.Time {
	t, err := time.Parse(time.RFC3339, meta[vectorstore.MetaCreatedAt].String())
	if err != nil {
		return time.Time{}
	}
	return t
}
