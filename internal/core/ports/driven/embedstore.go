// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import (
	"context"

	"github.com/loganrooks/calibre-semantic-search-sub002/internal/core/domain"
)

// EmbeddingStore is the durable mapping from chunk identity to its
// vector and metadata. Implementations serialise their own internal
// mutations; callers never need external locking.
//
// I/O failures surface wrapped in domain.ErrStoreUnavailable and are
// not retried internally - retry policy belongs to the caller.
type EmbeddingStore interface {
	// Put upserts a record by chunk identity. A record already
	// occupying the same (document, index) slot with a different
	// content hash is atomically replaced; the old and new record
	// are never stored alongside each other. Reports whether the
	// write replaced an existing record (callers use this to decide
	// cache invalidation). Fails with domain.ErrDimensionMismatch
	// when the record's dimension differs from the store's.
	Put(ctx context.Context, rec domain.EmbeddingRecord) (replaced bool, err error)

	// Get retrieves a record by full chunk identity, including the
	// content hash. domain.ErrNotFound when absent or superseded.
	Get(ctx context.Context, id domain.ChunkID) (*domain.EmbeddingRecord, error)

	// Scan returns a lazy cursor over records, optionally filtered
	// to the given document IDs (empty scope means everything).
	// Order is unspecified but stable within one cursor; a fresh
	// Scan always restarts from the beginning.
	Scan(ctx context.Context, scope []string) (RecordCursor, error)

	// DeleteDocument removes all records for a document.
	// Idempotent: deleting a non-existent document is a no-op.
	DeleteDocument(ctx context.Context, documentID string) error

	// DeleteChunksFrom removes records with chunk index >= fromIndex
	// for a document. Used to prune trailing chunks when a document
	// shrinks on re-indexing.
	DeleteChunksFrom(ctx context.Context, documentID string, fromIndex int) error

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)

	// Close releases resources.
	Close() error
}

// RecordCursor iterates lazily over embedding records, in the shape of
// database/sql rows: Next advances, Record returns the current record,
// Err reports an iteration failure after Next returns false.
type RecordCursor interface {
	Next() bool
	Record() *domain.EmbeddingRecord
	Err() error
	Close() error
}
