package cache

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loganrooks/calibre-semantic-search-sub002/internal/core/domain"
)

func resultFor(docs ...string) domain.RankedResult {
	var matches []domain.Match
	for i, doc := range docs {
		matches = append(matches, domain.Match{
			ChunkID: domain.ChunkID{DocumentID: doc, ChunkIndex: 0, ContentHash: "h"},
			Score:   1 - float64(i)*0.1,
			Rank:    i,
		})
	}
	return domain.RankedResult{Matches: matches}
}

func TestCache_GetMiss(t *testing.T) {
	c := New(4)

	_, ok := c.Get("absent")
	assert.False(t, ok)
}

func TestCache_PutGet(t *testing.T) {
	c := New(4)
	result := resultFor("doc-1", "doc-2")

	c.Put("fp", result, nil)

	got, ok := c.Get("fp")
	require.True(t, ok)
	assert.Equal(t, result, got)
}

func TestCache_LRULaw(t *testing.T) {
	// Inserting N+1 distinct fingerprints into a capacity-N cache
	// evicts exactly the least-recently-used entry, never others.
	c := New(3)
	c.Put("fp-1", resultFor("a"), []string{"a"})
	c.Put("fp-2", resultFor("b"), []string{"b"})
	c.Put("fp-3", resultFor("c"), []string{"c"})

	c.Put("fp-4", resultFor("d"), []string{"d"})

	_, ok := c.Get("fp-1")
	assert.False(t, ok, "LRU entry should be evicted")
	for _, fp := range []string{"fp-2", "fp-3", "fp-4"} {
		_, ok := c.Get(fp)
		assert.True(t, ok, fp)
	}
	assert.Equal(t, 3, c.Len())
}

func TestCache_GetRefreshesRecency(t *testing.T) {
	c := New(2)
	c.Put("fp-1", resultFor("a"), []string{"a"})
	c.Put("fp-2", resultFor("b"), []string{"b"})

	// Touch fp-1 so fp-2 becomes the LRU entry.
	_, ok := c.Get("fp-1")
	require.True(t, ok)

	c.Put("fp-3", resultFor("c"), []string{"c"})

	_, ok = c.Get("fp-1")
	assert.True(t, ok)
	_, ok = c.Get("fp-2")
	assert.False(t, ok)
}

func TestCache_InvalidateByResultDocument(t *testing.T) {
	c := New(8)
	c.Put("fp-1", resultFor("a", "b"), []string{"a", "b"})
	c.Put("fp-2", resultFor("c"), []string{"c"})

	dropped := c.Invalidate("a")

	assert.Equal(t, 1, dropped)
	_, ok := c.Get("fp-1")
	assert.False(t, ok)
	_, ok = c.Get("fp-2")
	assert.True(t, ok)
}

func TestCache_InvalidateHitsScopedEmptyResults(t *testing.T) {
	// A scoped query with zero matches still depends on its scope:
	// indexing the document must drop the cached empty result.
	c := New(8)
	c.Put("fp", domain.RankedResult{}, []string{"doc-x"})

	dropped := c.Invalidate("doc-x")

	assert.Equal(t, 1, dropped)
	assert.Equal(t, 0, c.Len())
}

func TestCache_InvalidateHitsCorpusWideEntries(t *testing.T) {
	// Unscoped rankings can change when any document changes.
	c := New(8)
	c.Put("fp-unscoped", resultFor("a"), nil)
	c.Put("fp-scoped", resultFor("b"), []string{"b"})

	dropped := c.Invalidate("zzz-unrelated")

	assert.Equal(t, 1, dropped)
	_, ok := c.Get("fp-unscoped")
	assert.False(t, ok)
	_, ok = c.Get("fp-scoped")
	assert.True(t, ok)
}

func TestCache_ReplaceEntryReindexes(t *testing.T) {
	c := New(8)
	c.Put("fp", resultFor("old"), []string{"old"})
	c.Put("fp", resultFor("new"), []string{"new"})

	assert.Equal(t, 1, c.Len())
	assert.Equal(t, 0, c.Invalidate("old"))
	assert.Equal(t, 1, c.Invalidate("new"))
}

func TestCache_EvictionCleansReverseIndex(t *testing.T) {
	c := New(1)
	c.Put("fp-1", resultFor("a"), []string{"a"})
	c.Put("fp-2", resultFor("b"), []string{"b"})

	// fp-1 was evicted; invalidating its document drops nothing.
	assert.Equal(t, 0, c.Invalidate("a"))
}

func TestCache_Purge(t *testing.T) {
	c := New(4)
	c.Put("fp-1", resultFor("a"), []string{"a"})
	c.Put("fp-2", resultFor("b"), []string{"b"})

	c.Purge()

	assert.Equal(t, 0, c.Len())
	assert.Equal(t, 0, c.Invalidate("a"))
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c := New(32)
	var wg sync.WaitGroup

	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				fp := fmt.Sprintf("fp-%d-%d", g, i%10)
				doc := fmt.Sprintf("doc-%d", i%10)
				c.Put(fp, resultFor(doc), []string{doc})
				c.Get(fp)
				c.Invalidate(doc)
			}
		}(g)
	}
	wg.Wait()
}

func TestFingerprint_Deterministic(t *testing.T) {
	opts := domain.SearchOptions{DocumentIDs: []string{"b", "a"}, Limit: 10, Threshold: 0.5}

	assert.Equal(t, Fingerprint("hello world", opts), Fingerprint("hello world", opts))
}

func TestFingerprint_NormalisedQueryEquivalence(t *testing.T) {
	opts := domain.SearchOptions{Limit: 10}

	assert.Equal(t, Fingerprint("  Hello \t World ", opts), Fingerprint("hello world", opts))
}

func TestFingerprint_ScopeOrderIrrelevant(t *testing.T) {
	a := domain.SearchOptions{DocumentIDs: []string{"x", "y"}, Limit: 5}
	b := domain.SearchOptions{DocumentIDs: []string{"y", "x"}, Limit: 5}

	assert.Equal(t, Fingerprint("q", a), Fingerprint("q", b))
}

func TestFingerprint_OptionsChangeKey(t *testing.T) {
	base := domain.SearchOptions{Limit: 5}

	assert.NotEqual(t, Fingerprint("q", base), Fingerprint("q", domain.SearchOptions{Limit: 6}))
	assert.NotEqual(t, Fingerprint("q", base), Fingerprint("q", domain.SearchOptions{Limit: 5, Threshold: 0.1}))
	assert.NotEqual(t, Fingerprint("q", base), Fingerprint("q", domain.SearchOptions{Limit: 5, DocumentIDs: []string{"d"}}))
	assert.NotEqual(t, Fingerprint("q", base), Fingerprint("other", base))
}
