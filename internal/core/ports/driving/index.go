package driving

import (
	"context"

	"github.com/loganrooks/calibre-semantic-search-sub002/internal/core/domain"
)

// IndexOrchestrator drives background indexing jobs: chunk, embed,
// persist, invalidate. One job runs at a time, corpus-wide; indexing
// and search may run concurrently with each other.
type IndexOrchestrator interface {
	// Start launches a job over the target documents (all corpus
	// documents when empty) and returns its ID immediately.
	// domain.ErrJobAlreadyRunning when a job is active.
	Start(ctx context.Context, targetDocumentIDs []string) (string, error)

	// Status returns a snapshot of the job with the given ID.
	// domain.ErrNotFound for unknown IDs.
	Status(jobID string) (domain.IndexJob, error)

	// Active returns a snapshot of the running job, if any.
	Active() (domain.IndexJob, bool)

	// Cancel requests cooperative cancellation of the job. The job
	// stops at the next document boundary; completed documents'
	// embeddings persist.
	Cancel(jobID string) error

	// RemoveDocument deletes a document's embeddings and
	// invalidates dependent cached results.
	RemoveDocument(ctx context.Context, documentID string) error

	// Wait blocks until the job reaches a terminal state and
	// returns the final snapshot.
	Wait(jobID string) (domain.IndexJob, error)

	// Close cancels any active job and waits for it to stop.
	Close() error
}
