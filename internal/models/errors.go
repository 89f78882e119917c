package models

import (
	"errors"
	"fmt"
)

// Error taxonomy for the ingestion/retrieval/reconciliation core. Errors are
// matched with errors.Is and are never retried internally; retry policy is an
// external-caller concern.
var (
	// ErrValidation rejects bad input before any backend call.
	ErrValidation = errors.New("validation failed")

	// ErrEmptyContent is the validation failure for empty or whitespace-only
	// document content.
	ErrEmptyContent = fmt.Errorf("%w: empty content", ErrValidation)

	// ErrEmbedding wraps upstream embedding failures. Ingestion aborts with
	// no partial commit.
	ErrEmbedding = errors.New("embedding failed")

	// ErrIndexWrite wraps a rejected vector index batch write.
	ErrIndexWrite = errors.New("index write failed")

	// ErrNotFound signals a missing reconstruction or deletion target.
	ErrNotFound = errors.New("not found")
)
