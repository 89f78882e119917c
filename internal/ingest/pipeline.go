// Package ingest turns one document into N indexed chunks.
package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"hybrid-rag/internal/chunker"
	"hybrid-rag/internal/embedding"
	"hybrid-rag/internal/helper"
	"hybrid-rag/internal/jobs"
	"hybrid-rag/internal/models"
	"hybrid-rag/internal/vectorstore"
)

// Pipeline orchestrates chunking, embedding and indexing for one document.
// It writes only to the vector index; the relational and blob backends are
// populated by separate collaborators.
type Pipeline struct {
	index    vectorstore.Index
	embedder embedding.Embedder
	chunker  *chunker.Chunker
	jobs     *jobs.Store // optional
}

func New(index vectorstore.Index, embedder embedding.Embedder, ch *chunker.Chunker, jobStore *jobs.Store) *Pipeline {
	return &Pipeline{index: index, embedder: embedder, chunker: ch, jobs: jobStore}
}

// Ingest validates, chunks, embeds and indexes the document, returning its
// id. Re-ingesting an existing id replaces all prior chunks (never merges).
// Any embedding or index failure aborts the whole operation with no partial
// set of chunks left indexed.
func (p *Pipeline) Ingest(ctx context.Context, doc models.Document) (string, error) {
	docID := doc.ID
	if docID == "" {
		var err error
		docID, err = helper.GenerateUUID()
		if err != nil {
			return "", err
		}
	}

	job := p.startJob(docID)

	if strings.TrimSpace(doc.Content) == "" {
		return "", p.fail(job, models.ErrEmptyContent)
	}
	p.progress(job, 10, "validated")

	chunks, err := p.chunker.Split(doc.Content)
	if err != nil {
		return "", p.fail(job, err)
	}
	p.progress(job, 40, fmt.Sprintf("split into %d chunks", len(chunks)))

	vectors, err := p.embedder.EmbedBatch(ctx, chunks)
	if err != nil {
		return "", p.fail(job, fmt.Errorf("%w: %v", models.ErrEmbedding, err))
	}
	if len(vectors) != len(chunks) {
		return "", p.fail(job, fmt.Errorf("%w: got %d vectors for %d chunks", models.ErrEmbedding, len(vectors), len(chunks)))
	}
	p.progress(job, 70, "embedded")

	entries := p.buildEntries(doc, docID, chunks, vectors)

	// replace-not-merge: clear out any prior chunk set for this document id
	prior, err := p.index.GetByFilter(ctx, vectorstore.Filter{DocumentID: docID})
	if err != nil {
		return "", p.fail(job, fmt.Errorf("%w: listing prior chunks: %v", models.ErrIndexWrite, err))
	}
	if len(prior) > 0 {
		ids := make([]string, len(prior))
		for i, e := range prior {
			ids[i] = e.ID
		}
		if err := p.index.Delete(ctx, ids); err != nil {
			return "", p.fail(job, fmt.Errorf("%w: deleting prior chunks: %v", models.ErrIndexWrite, err))
		}
		log.Debug().Str("document_id", docID).Int("chunks", len(ids)).Msg("replaced prior chunk set")
	}

	if err := p.index.Add(ctx, entries); err != nil {
		return "", p.fail(job, fmt.Errorf("%w: %v", models.ErrIndexWrite, err))
	}

	p.progress(job, 100, "indexed")
	p.complete(job)
	log.Info().Str("document_id", docID).Int("chunks", len(entries)).Msg("ingested document")
	return docID, nil
}

// Delete removes every index entry belonging to the document.
func (p *Pipeline) Delete(ctx context.Context, documentID string) error {
	entries, err := p.index.GetByFilter(ctx, vectorstore.Filter{DocumentID: documentID})
	if err != nil {
		return fmt.Errorf("listing chunks for %s: %w", documentID, err)
	}
	if len(entries) == 0 {
		return fmt.Errorf("%w: document %s", models.ErrNotFound, documentID)
	}
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	if err := p.index.Delete(ctx, ids); err != nil {
		return fmt.Errorf("%w: %v", models.ErrIndexWrite, err)
	}
	log.Info().Str("document_id", documentID).Int("chunks", len(ids)).Msg("deleted document")
	return nil
}

// buildEntries denormalizes the document metadata into every chunk entry.
// Sequence indexes are assigned here, before any I/O, so chunk order never
// depends on network completion order.
func (p *Pipeline) buildEntries(doc models.Document, docID string, chunks []string, vectors [][]float32) []vectorstore.Entry {
	createdAt := doc.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	entries := make([]vectorstore.Entry, len(chunks))
	for i, content := range chunks {
		meta := make(map[string]any, len(doc.Metadata)+8)
		for k, v := range doc.Metadata {
			meta[k] = v
		}
		meta[vectorstore.MetaDocumentID] = docID
		meta[vectorstore.MetaTitle] = doc.Title
		meta[vectorstore.MetaType] = string(doc.Type)
		meta[vectorstore.MetaSequenceIndex] = i
		meta[vectorstore.MetaTotalChunks] = len(chunks)
		meta[vectorstore.MetaCreatedAt] = createdAt
		if doc.TenantID != "" {
			meta[vectorstore.MetaTenantID] = doc.TenantID
		}
		if doc.SourceURL != "" {
			meta[vectorstore.MetaSourceURL] = doc.SourceURL
		}

		entries[i] = vectorstore.Entry{
			ID:       models.ChunkID(docID, i),
			Vector:   vectors[i],
			Text:     content,
			Metadata: models.Flatten(meta),
		}
	}
	return entries
}

func (p *Pipeline) startJob(documentID string) *jobs.Job {
	if p.jobs == nil {
		return nil
	}
	job := p.jobs.Create(documentID)
	p.jobs.Start(job.ID)
	return job
}

func (p *Pipeline) progress(job *jobs.Job, progress int, message string) {
	if job != nil {
		p.jobs.SetProgress(job.ID, progress, message)
	}
}

func (p *Pipeline) complete(job *jobs.Job) {
	if job != nil {
		p.jobs.Complete(job.ID)
	}
}

func (p *Pipeline) fail(job *jobs.Job, err error) error {
	if job != nil {
		p.jobs.Fail(job.ID, err.Error())
	}
	return err
}
