package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loganrooks/calibre-semantic-search-sub002/internal/core/domain"
)

func record(docID string, index int, text string) domain.EmbeddingRecord {
	return domain.EmbeddingRecord{
		ChunkID: domain.ChunkID{
			DocumentID:  docID,
			ChunkIndex:  index,
			ContentHash: domain.HashText(text),
		},
		Vector:      []float32{float32(index), 1, 2},
		ProviderTag: "mock/test",
	}
}

func TestEmbedStorePutGet(t *testing.T) {
	store := NewEmbedStore(3)
	ctx := context.Background()

	rec := record("doc-a", 0, "hello")
	replaced, err := store.Put(ctx, rec)
	require.NoError(t, err)
	assert.False(t, replaced)

	got, err := store.Get(ctx, rec.ChunkID)
	require.NoError(t, err)
	assert.Equal(t, rec.Vector, got.Vector)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestEmbedStoreReplacedFlag(t *testing.T) {
	store := NewEmbedStore(3)
	ctx := context.Background()

	_, err := store.Put(ctx, record("doc-a", 0, "v1"))
	require.NoError(t, err)

	replaced, err := store.Put(ctx, record("doc-a", 0, "v1"))
	require.NoError(t, err)
	assert.False(t, replaced)

	replaced, err = store.Put(ctx, record("doc-a", 0, "v2"))
	require.NoError(t, err)
	assert.True(t, replaced)

	_, err = store.Get(ctx, record("doc-a", 0, "v1").ChunkID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEmbedStoreDimensionMismatch(t *testing.T) {
	store := NewEmbedStore(8)
	_, err := store.Put(context.Background(), record("doc-a", 0, "hello"))
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestEmbedStoreScanOrderAndScope(t *testing.T) {
	store := NewEmbedStore(3)
	ctx := context.Background()

	for _, doc := range []string{"doc-c", "doc-a", "doc-b"} {
		for i := 2; i >= 0; i-- {
			_, err := store.Put(ctx, record(doc, i, doc))
			require.NoError(t, err)
		}
	}

	cur, err := store.Scan(ctx, []string{"doc-a", "doc-c"})
	require.NoError(t, err)
	defer cur.Close()

	var slots []domain.ChunkSlot
	for cur.Next() {
		slots = append(slots, cur.Record().ChunkID.Slot())
	}
	require.NoError(t, cur.Err())

	want := []domain.ChunkSlot{
		{DocumentID: "doc-a", ChunkIndex: 0},
		{DocumentID: "doc-a", ChunkIndex: 1},
		{DocumentID: "doc-a", ChunkIndex: 2},
		{DocumentID: "doc-c", ChunkIndex: 0},
		{DocumentID: "doc-c", ChunkIndex: 1},
		{DocumentID: "doc-c", ChunkIndex: 2},
	}
	assert.Equal(t, want, slots)
}

func TestEmbedStoreDelete(t *testing.T) {
	store := NewEmbedStore(3)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, err := store.Put(ctx, record("doc-a", i, "doc-a"))
		require.NoError(t, err)
	}
	_, err := store.Put(ctx, record("doc-b", 0, "doc-b"))
	require.NoError(t, err)

	require.NoError(t, store.DeleteChunksFrom(ctx, "doc-a", 2))
	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	require.NoError(t, store.DeleteDocument(ctx, "doc-a"))
	count, err = store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, store.DeleteDocument(ctx, "doc-a"))
}

func TestEmbedStoreVectorIsolation(t *testing.T) {
	store := NewEmbedStore(3)
	ctx := context.Background()

	rec := record("doc-a", 0, "hello")
	_, err := store.Put(ctx, rec)
	require.NoError(t, err)

	// Mutating the caller's slice must not affect stored state.
	rec.Vector[0] = 99

	got, err := store.Get(ctx, rec.ChunkID)
	require.NoError(t, err)
	assert.Equal(t, float32(0), got.Vector[0])
}

func TestEmbedStoreConcurrentAccess(t *testing.T) {
	store := NewEmbedStore(3)
	ctx := context.Background()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			doc := fmt.Sprintf("doc-%d", g)
			for i := 0; i < 20; i++ {
				_, err := store.Put(ctx, record(doc, i, doc))
				assert.NoError(t, err)
			}
			cur, err := store.Scan(ctx, []string{doc})
			assert.NoError(t, err)
			for cur.Next() {
			}
			assert.NoError(t, cur.Err())
			cur.Close()
		}(g)
	}
	wg.Wait()

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 160, count)
}
