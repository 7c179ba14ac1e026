// Package memory provides in-memory store implementations for testing
// and ephemeral use.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/loganrooks/calibre-semantic-search-sub002/internal/core/domain"
	"github.com/loganrooks/calibre-semantic-search-sub002/internal/core/ports/driven"
)

// EmbedStore is an in-memory embedding store. Safe for concurrent use.
type EmbedStore struct {
	mu        sync.RWMutex
	dimension int
	records   map[domain.ChunkSlot]domain.EmbeddingRecord
}

var _ driven.EmbeddingStore = (*EmbedStore)(nil)

// NewEmbedStore creates an empty in-memory embedding store.
func NewEmbedStore(dimension int) *EmbedStore {
	return &EmbedStore{
		dimension: dimension,
		records:   make(map[domain.ChunkSlot]domain.EmbeddingRecord),
	}
}

// Put upserts a record by chunk slot.
func (s *EmbedStore) Put(_ context.Context, rec domain.EmbeddingRecord) (bool, error) {
	if len(rec.Vector) != s.dimension {
		return false, fmt.Errorf("%w: got %d, store expects %d",
			domain.ErrDimensionMismatch, len(rec.Vector), s.dimension)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Copy the vector so callers cannot mutate stored state.
	rec.Vector = append([]float32(nil), rec.Vector...)
	rec.Dimension = len(rec.Vector)
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	slot := rec.ChunkID.Slot()
	prev, existed := s.records[slot]
	s.records[slot] = rec
	return existed && prev.ChunkID.ContentHash != rec.ChunkID.ContentHash, nil
}

// Get retrieves a record by full chunk identity.
func (s *EmbedStore) Get(_ context.Context, id domain.ChunkID) (*domain.EmbeddingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id.Slot()]
	if !ok || rec.ChunkID.ContentHash != id.ContentHash {
		return nil, fmt.Errorf("%w: chunk %s[%d]", domain.ErrNotFound, id.DocumentID, id.ChunkIndex)
	}
	out := rec
	out.Vector = append([]float32(nil), rec.Vector...)
	return &out, nil
}

// Scan returns a cursor over a snapshot of the records, in slot order.
func (s *EmbedStore) Scan(_ context.Context, scope []string) (driven.RecordCursor, error) {
	var inScope map[string]bool
	if len(scope) > 0 {
		inScope = make(map[string]bool, len(scope))
		for _, id := range scope {
			inScope[id] = true
		}
	}

	s.mu.RLock()
	snapshot := make([]domain.EmbeddingRecord, 0, len(s.records))
	for _, rec := range s.records {
		if inScope != nil && !inScope[rec.ChunkID.DocumentID] {
			continue
		}
		snapshot = append(snapshot, rec)
	}
	s.mu.RUnlock()

	sort.Slice(snapshot, func(i, j int) bool {
		return snapshot[i].ChunkID.Less(snapshot[j].ChunkID)
	})
	return &sliceCursor{records: snapshot}, nil
}

// DeleteDocument removes all records for a document. Idempotent.
func (s *EmbedStore) DeleteDocument(_ context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for slot := range s.records {
		if slot.DocumentID == documentID {
			delete(s.records, slot)
		}
	}
	return nil
}

// DeleteChunksFrom removes records with chunk index >= fromIndex.
func (s *EmbedStore) DeleteChunksFrom(_ context.Context, documentID string, fromIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for slot := range s.records {
		if slot.DocumentID == documentID && slot.ChunkIndex >= fromIndex {
			delete(s.records, slot)
		}
	}
	return nil
}

// Count returns the number of stored records.
func (s *EmbedStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

// Close is a no-op.
func (s *EmbedStore) Close() error {
	return nil
}

// sliceCursor iterates over a snapshot slice.
type sliceCursor struct {
	records []domain.EmbeddingRecord
	pos     int
}

func (c *sliceCursor) Next() bool {
	if c.pos >= len(c.records) {
		return false
	}
	c.pos++
	return true
}

func (c *sliceCursor) Record() *domain.EmbeddingRecord {
	return &c.records[c.pos-1]
}

func (c *sliceCursor) Err() error   { return nil }
func (c *sliceCursor) Close() error { return nil }
