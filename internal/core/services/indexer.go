package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/loganrooks/calibre-semantic-search-sub002/internal/core/domain"
	"github.com/loganrooks/calibre-semantic-search-sub002/internal/core/ports/driven"
	"github.com/loganrooks/calibre-semantic-search-sub002/internal/core/ports/driving"
	"github.com/loganrooks/calibre-semantic-search-sub002/internal/logger"
	"github.com/loganrooks/calibre-semantic-search-sub002/internal/normalise"
)

// Ensure Indexer implements the interface.
var _ driving.IndexOrchestrator = (*Indexer)(nil)

// Indexer drives background indexing jobs: for each target document it
// chunks, embeds and persists, then invalidates dependent cached
// queries. One job runs at a time, corpus-wide. A single document's
// failure is recorded in the job's outcome list and the job continues.
type Indexer struct {
	store    driven.EmbeddingStore
	embedder driven.Embedder
	chunker  driven.Chunker
	source   driven.DocumentSource
	cache    driven.ResultCache

	mu   sync.Mutex
	jobs map[string]*jobRun
	live *jobRun
}

// jobRun is the live state of one job. Only the coordinator's own
// execution goroutine mutates the job; everyone else reads snapshots.
type jobRun struct {
	mu        sync.Mutex
	job       domain.IndexJob
	cancelled atomic.Bool
	done      chan struct{}
}

// snapshot returns a defensive copy of the job.
func (r *jobRun) snapshot() domain.IndexJob {
	r.mu.Lock()
	defer r.mu.Unlock()
	job := r.job
	job.TargetDocumentIDs = append([]string(nil), r.job.TargetDocumentIDs...)
	job.Outcomes = append([]domain.DocumentOutcome(nil), r.job.Outcomes...)
	return job
}

// NewIndexer creates an indexing coordinator.
func NewIndexer(
	store driven.EmbeddingStore,
	embedder driven.Embedder,
	chunker driven.Chunker,
	source driven.DocumentSource,
	resultCache driven.ResultCache,
) *Indexer {
	return &Indexer{
		store:    store,
		embedder: embedder,
		chunker:  chunker,
		source:   source,
		cache:    resultCache,
		jobs:     make(map[string]*jobRun),
	}
}

// Start launches a job over the target documents and returns its ID.
// An empty target list means the whole corpus, resolved from the
// document source when the job begins running.
func (ix *Indexer) Start(ctx context.Context, targetDocumentIDs []string) (string, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.live != nil {
		return "", domain.ErrJobAlreadyRunning
	}

	run := &jobRun{
		job: domain.IndexJob{
			ID:                uuid.New().String(),
			TargetDocumentIDs: append([]string(nil), targetDocumentIDs...),
			State:             domain.JobPending,
			Total:             len(targetDocumentIDs),
		},
		done: make(chan struct{}),
	}

	// Terminal snapshots are kept for status queries until the next
	// job starts.
	for id, old := range ix.jobs {
		if old != run {
			delete(ix.jobs, id)
		}
	}
	ix.jobs[run.job.ID] = run
	ix.live = run

	go ix.run(ctx, run)

	logger.Info("Indexing job %s started (%d targets)", run.job.ID, len(targetDocumentIDs))
	return run.job.ID, nil
}

// Status returns a snapshot of the job with the given ID.
func (ix *Indexer) Status(jobID string) (domain.IndexJob, error) {
	ix.mu.Lock()
	run, ok := ix.jobs[jobID]
	ix.mu.Unlock()
	if !ok {
		return domain.IndexJob{}, fmt.Errorf("%w: job %s", domain.ErrNotFound, jobID)
	}
	return run.snapshot(), nil
}

// Active returns a snapshot of the running job, if any.
func (ix *Indexer) Active() (domain.IndexJob, bool) {
	ix.mu.Lock()
	run := ix.live
	ix.mu.Unlock()
	if run == nil {
		return domain.IndexJob{}, false
	}
	return run.snapshot(), true
}

// Cancel requests cooperative cancellation. The flag is checked between
// documents, never mid-document; already-indexed documents persist.
func (ix *Indexer) Cancel(jobID string) error {
	ix.mu.Lock()
	run, ok := ix.jobs[jobID]
	ix.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: job %s", domain.ErrNotFound, jobID)
	}
	run.cancelled.Store(true)
	logger.Info("Cancellation requested for job %s", jobID)
	return nil
}

// Wait blocks until the job is terminal and returns the final snapshot.
func (ix *Indexer) Wait(jobID string) (domain.IndexJob, error) {
	ix.mu.Lock()
	run, ok := ix.jobs[jobID]
	ix.mu.Unlock()
	if !ok {
		return domain.IndexJob{}, fmt.Errorf("%w: job %s", domain.ErrNotFound, jobID)
	}
	<-run.done
	return run.snapshot(), nil
}

// RemoveDocument deletes a document's embeddings and invalidates the
// cached queries depending on it. Invalidation strictly follows the
// store write.
func (ix *Indexer) RemoveDocument(ctx context.Context, documentID string) error {
	if err := ix.store.DeleteDocument(ctx, documentID); err != nil {
		return fmt.Errorf("delete document %s: %w", documentID, err)
	}
	dropped := ix.cache.Invalidate(documentID)
	logger.Debug("Removed %s, %d cached results invalidated", documentID, dropped)
	return nil
}

// Close cancels the active job, if any, and waits for it to stop.
func (ix *Indexer) Close() error {
	ix.mu.Lock()
	run := ix.live
	ix.mu.Unlock()
	if run == nil {
		return nil
	}
	run.cancelled.Store(true)
	<-run.done
	return nil
}

// run executes one job to a terminal state.
func (ix *Indexer) run(ctx context.Context, run *jobRun) {
	defer close(run.done)
	defer func() {
		ix.mu.Lock()
		ix.live = nil
		ix.mu.Unlock()
	}()

	run.mu.Lock()
	targets := append([]string(nil), run.job.TargetDocumentIDs...)
	run.job.StartedAt = time.Now()
	run.mu.Unlock()

	if len(targets) == 0 {
		resolved, err := ix.source.List(ctx)
		if err != nil {
			logger.Warn("Job %s failed to resolve corpus: %v", run.job.ID, err)
			ix.finish(run, domain.JobFailed, fmt.Sprintf("list corpus: %v", err))
			return
		}
		targets = resolved
		run.mu.Lock()
		run.job.TargetDocumentIDs = append([]string(nil), targets...)
		run.job.Total = len(targets)
		run.mu.Unlock()
	}

	run.mu.Lock()
	run.job.State = domain.JobRunning
	run.mu.Unlock()

	for _, docID := range targets {
		// Cooperative cancellation, checked at document
		// boundaries only.
		if run.cancelled.Load() || ctx.Err() != nil {
			logger.Info("Job %s cancelled after %d/%d documents", run.job.ID, ix.progress(run), len(targets))
			ix.finish(run, domain.JobCancelled, "")
			return
		}

		outcome := ix.processDocument(ctx, docID)
		if outcome.OK() {
			logger.Debug("Indexed %s (%d chunks)", docID, outcome.Chunks)
		} else {
			logger.Warn("Failed to index %s: %s", docID, outcome.Err)
		}

		// Progress advances after every document regardless of
		// its outcome.
		run.mu.Lock()
		run.job.Completed++
		run.job.Outcomes = append(run.job.Outcomes, outcome)
		completed, total := run.job.Completed, run.job.Total
		run.mu.Unlock()
		logger.Debug("Progress: %d/%d", completed, total)
	}

	ix.finish(run, domain.JobCompleted, "")
	logger.Info("Indexing job %s completed", run.job.ID)
}

// processDocument runs the chunk -> embed -> persist pipeline for one
// document. Cache invalidation happens strictly after the writes.
func (ix *Indexer) processDocument(ctx context.Context, docID string) domain.DocumentOutcome {
	outcome := domain.DocumentOutcome{DocumentID: docID}

	// Any successful write means stale cached results may exist, even
	// when a later chunk fails. Invalidation strictly follows writes.
	wrote := false
	defer func() {
		if wrote {
			dropped := ix.cache.Invalidate(docID)
			logger.Debug("Invalidated %d cached results for %s", dropped, docID)
		}
	}()

	doc, err := ix.source.Load(ctx, docID)
	if err != nil {
		outcome.Err = fmt.Sprintf("load: %v", err)
		return outcome
	}

	// Markup is stripped before chunking so embeddings see prose,
	// not syntax.
	doc.Text = normalise.ForID(docID)(doc.Text)

	chunks, err := ix.chunker.Chunk(ctx, doc)
	if err != nil {
		outcome.Err = fmt.Sprintf("chunk: %v", err)
		return outcome
	}

	for _, chunk := range chunks {
		vec, err := ix.embedder.Embed(ctx, chunk.Text)
		if err != nil {
			outcome.Err = fmt.Sprintf("embed chunk %d: %v", chunk.Index, err)
			return outcome
		}

		_, err = ix.store.Put(ctx, domain.EmbeddingRecord{
			ChunkID: domain.ChunkID{
				DocumentID:  docID,
				ChunkIndex:  chunk.Index,
				ContentHash: chunk.Hash,
			},
			Vector:      vec,
			Dimension:   len(vec),
			ProviderTag: ix.embedder.ProviderTag(),
			CreatedAt:   time.Now().UTC(),
		})
		if err != nil {
			outcome.Err = fmt.Sprintf("store chunk %d: %v", chunk.Index, err)
			return outcome
		}
		wrote = true
		outcome.Chunks++
	}

	// Prune trailing chunks left over from a longer previous version.
	if err := ix.store.DeleteChunksFrom(ctx, docID, len(chunks)); err != nil {
		outcome.Err = fmt.Sprintf("prune chunks: %v", err)
		return outcome
	}

	return outcome
}

// finish moves the job to a terminal state.
func (ix *Indexer) finish(run *jobRun, state domain.JobState, errMsg string) {
	run.mu.Lock()
	defer run.mu.Unlock()
	run.job.State = state
	run.job.Err = errMsg
	run.job.FinishedAt = time.Now()
}

func (ix *Indexer) progress(run *jobRun) int {
	run.mu.Lock()
	defer run.mu.Unlock()
	return run.job.Completed
}
