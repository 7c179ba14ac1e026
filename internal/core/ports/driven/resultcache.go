package driven

import "github.com/loganrooks/calibre-semantic-search-sub002/internal/core/domain"

// ResultCache is the bounded query-result cache consulted by the search
// coordinator and invalidated by the indexing coordinator. All
// operations are safe to call concurrently with ranking and indexing.
type ResultCache interface {
	// Get returns the cached result for a fingerprint, updating
	// recency atomically with the read.
	Get(fp string) (domain.RankedResult, bool)

	// Put stores a result under a fingerprint. scope lists the
	// document IDs the query was restricted to (empty for a
	// corpus-wide query); together with the documents referenced by
	// the result it determines which invalidations hit the entry.
	Put(fp string, result domain.RankedResult, scope []string)

	// Invalidate removes every entry whose result or scope
	// references the document, and every corpus-wide entry.
	// Returns the number of entries dropped.
	Invalidate(documentID string) int
}
