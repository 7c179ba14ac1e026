package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/loganrooks/calibre-semantic-search-sub002/internal/core/domain"
	"github.com/loganrooks/calibre-semantic-search-sub002/internal/core/ports/driven"
	"github.com/loganrooks/calibre-semantic-search-sub002/internal/core/ports/driving"
	"github.com/loganrooks/calibre-semantic-search-sub002/internal/logger"
)

// Scheduler keeps the index current: it runs a full-corpus sync on a
// fixed interval and reacts to watcher events between syncs. It is a
// pure core service with no external control API.
type Scheduler struct {
	interval time.Duration
	indexer  driving.IndexOrchestrator
	watcher  driven.CorpusWatcher

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewScheduler creates a scheduler. The watcher may be nil, in which
// case only the periodic sync runs.
func NewScheduler(interval time.Duration, indexer driving.IndexOrchestrator, watcher driven.CorpusWatcher) *Scheduler {
	return &Scheduler{
		interval: interval,
		indexer:  indexer,
		watcher:  watcher,
	}
}

// Start begins the scheduler loop. This method blocks until Stop is
// called or the context is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil // Already running
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	// Sync the whole corpus immediately on startup.
	s.syncCorpus(ctx)

	return s.run(ctx)
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

// run is the main scheduler loop.
func (s *Scheduler) run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	var events <-chan domain.CorpusChange
	if s.watcher != nil {
		events = s.watcher.Events()
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stopCh:
			return nil
		case <-ticker.C:
			s.syncCorpus(ctx)
		case change, ok := <-events:
			if !ok {
				// Watcher gone; fall back to periodic sync only.
				events = nil
				continue
			}
			s.applyChange(ctx, change)
		}
	}
}

// syncCorpus starts a full-corpus indexing job. A job already in flight
// is left alone; next tick catches up.
func (s *Scheduler) syncCorpus(ctx context.Context) {
	jobID, err := s.indexer.Start(ctx, nil)
	if err != nil {
		if errors.Is(err, domain.ErrJobAlreadyRunning) {
			logger.Debug("Corpus sync skipped, a job is already running")
			return
		}
		logger.Warn("Corpus sync failed to start: %v", err)
		return
	}
	logger.Debug("Corpus sync started as job %s", jobID)
}

// applyChange reindexes changed documents and removes deleted ones.
func (s *Scheduler) applyChange(ctx context.Context, change domain.CorpusChange) {
	if change.Empty() {
		return
	}

	for _, docID := range change.Removed {
		s.wg.Add(1)
		go func(id string) {
			defer s.wg.Done()
			if err := s.indexer.RemoveDocument(ctx, id); err != nil {
				logger.Warn("Failed to remove %s: %v", id, err)
			}
		}(docID)
	}

	if len(change.Changed) == 0 {
		return
	}
	jobID, err := s.indexer.Start(ctx, change.Changed)
	if err != nil {
		if errors.Is(err, domain.ErrJobAlreadyRunning) {
			// The periodic sync will pick these documents up.
			logger.Debug("Reindex of %d changed documents deferred, a job is running", len(change.Changed))
			return
		}
		logger.Warn("Failed to start reindex: %v", err)
		return
	}
	logger.Debug("Reindexing %d changed documents as job %s", len(change.Changed), jobID)
}
