// Package driving provides interfaces through which external actors
// drive the engine (primary/inbound ports).
package driving

import (
	"context"

	"github.com/loganrooks/calibre-semantic-search-sub002/internal/core/domain"
)

// Searcher answers similarity queries over the indexed corpus.
type Searcher interface {
	// Search validates the query, consults the result cache and on
	// a miss ranks the stored embeddings against the query's
	// embedding. At most one search executes concurrently per
	// session; a duplicate concurrent call for the same session
	// awaits the in-flight one instead of ranking again.
	Search(ctx context.Context, sessionID, query string, opts domain.SearchOptions) (domain.RankedResult, error)
}
