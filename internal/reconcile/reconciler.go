// Package reconcile probes the vector index, the relational metadata store
// and the blob store for a document's presence and classifies the result.
// All checks are read-only and safe to repeat; a failing backend degrades
// its check to false with a reason, it never aborts the other checks.
package reconcile

import (
	"context"

	"github.com/rs/zerolog/log"

	"hybrid-rag/internal/models"
	"hybrid-rag/internal/vectorstore"
)

// TemplateChecker is the read-only view of the relational metadata store.
// Its write path belongs to other collaborators.
type TemplateChecker interface {
	ExistsByID(ctx context.Context, id string) (bool, error)
	ExistsByTypeAndName(ctx context.Context, docType, name string) (bool, error)
}

// BlobChecker probes the blob store for a document's file.
type BlobChecker interface {
	Exists(ctx context.Context, documentID string) (bool, error)
}

// Reconciler orchestrates the three independent checks. The backends are
// unaware of each other; each is an injected handle.
type Reconciler struct {
	index      vectorstore.Index
	relational TemplateChecker
	blob       BlobChecker
}

func New(index vectorstore.Index, relational TemplateChecker, blob BlobChecker) *Reconciler {
	return &Reconciler{index: index, relational: relational, blob: blob}
}

// ComputeStatus runs the three presence checks for the document and derives
// the consistency level and remediation hints. It issues a fixed number of
// backend calls regardless of chunk count and never returns an error.
func (r *Reconciler) ComputeStatus(ctx context.Context, doc models.Document) models.StorageStatus {
	status := models.StorageStatus{DocumentID: doc.ID}

	status.VectorIndexPresent = r.checkVector(ctx, doc.ID, &status)
	status.RelationalPresent = r.checkRelational(ctx, doc, &status)
	status.BlobPresent = r.checkBlob(ctx, doc.ID, &status)

	count := status.StorageCount()
	status.Level = models.LevelForCount(count)
	status.IsComplete = count >= 2

	if !status.VectorIndexPresent {
		status.Recommendations = append(status.Recommendations, "re-ingest the document to restore its vector index entries")
	}
	if doc.IsTemplate() && !status.RelationalPresent {
		status.Recommendations = append(status.Recommendations, "insert the template record into the relational metadata store")
	}
	if !status.BlobPresent {
		status.Recommendations = append(status.Recommendations, "upload the original file to the blob store")
	}
	return status
}

func (r *Reconciler) checkVector(ctx context.Context, documentID string, status *models.StorageStatus) bool {
	entries, err := r.index.GetByFilter(ctx, vectorstore.Filter{DocumentID: documentID})
	if err != nil {
		log.Warn().Err(err).Str("document_id", documentID).Msg("vector index check failed")
		status.Reasons = append(status.Reasons, "vector index unreachable: "+err.Error())
		return false
	}
	return len(entries) > 0
}

// checkRelational is evaluated only for template-type records; for all other
// documents the relational store does not apply and the check is false.
func (r *Reconciler) checkRelational(ctx context.Context, doc models.Document, status *models.StorageStatus) bool {
	if !doc.IsTemplate() {
		return false
	}
	if r.relational == nil {
		status.Reasons = append(status.Reasons, "relational store not configured")
		return false
	}

	found, err := r.relational.ExistsByID(ctx, doc.ID)
	if err != nil {
		log.Warn().Err(err).Str("document_id", doc.ID).Msg("relational check failed")
		status.Reasons = append(status.Reasons, "relational store unreachable: "+err.Error())
		return false
	}
	if found {
		return true
	}

	// id lookup missed, fall back to the (type, name) heuristic
	found, err = r.relational.ExistsByTypeAndName(ctx, string(doc.Type), doc.Title)
	if err != nil {
		log.Warn().Err(err).Str("document_id", doc.ID).Msg("relational lookup by type and name failed")
		status.Reasons = append(status.Reasons, "relational store unreachable: "+err.Error())
		return false
	}
	return found
}

func (r *Reconciler) checkBlob(ctx context.Context, documentID string, status *models.StorageStatus) bool {
	if r.blob == nil {
		status.Reasons = append(status.Reasons, "blob store not configured")
		return false
	}
	found, err := r.blob.Exists(ctx, documentID)
	if err != nil {
		log.Warn().Err(err).Str("document_id", documentID).Msg("blob check failed")
		status.Reasons = append(status.Reasons, "blob store unreachable: "+err.Error())
		return false
	}
	return found
}
