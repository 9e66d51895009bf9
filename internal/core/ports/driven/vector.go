package driven

import (
	"context"

	"github.com/maanavnair/synapse/internal/core/domain"
)

// VectorIndex is a project-partitioned vector store. It owns the
// collection lifecycle and the secondary index on the project
// identifier; reads and writes are safe for concurrent use.
type VectorIndex interface {
	// EnsureCollection creates the collection with the given dimension
	// if absent. It is idempotent: an existing collection with a
	// matching configuration is a no-op, an existing collection with a
	// different dimension or metric fails with domain.ErrSchemaConflict.
	EnsureCollection(ctx context.Context, dimension int) error

	// EnsureProjectIndex creates the secondary payload index on the
	// project identifier if the collection's payload schema does not
	// already declare one. It must run before the first filtered
	// search is served.
	EnsureProjectIndex(ctx context.Context) error

	// UpsertBatch writes a batch of records. The batch succeeds or
	// fails as a whole; a failed batch is retried whole, never
	// record-by-record.
	UpsertBatch(ctx context.Context, records []domain.VectorRecord) error

	// Search returns the topK nearest records to the query vector,
	// restricted to records whose project identifier equals projectID.
	// An empty result is returned as an empty slice, not an error.
	// Hits are ordered by similarity score, descending, with ties
	// broken deterministically within a call.
	Search(ctx context.Context, vector []float32, projectID string, topK int) ([]domain.RetrievalHit, error)
}
