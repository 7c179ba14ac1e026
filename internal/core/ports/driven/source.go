package driven

import (
	"context"

	"github.com/loganrooks/calibre-semantic-search-sub002/internal/core/domain"
)

// DocumentSource resolves document IDs to document text. The indexing
// coordinator uses it to load targets; the scheduler uses List to
// resolve "index everything".
type DocumentSource interface {
	// List returns all document IDs currently in the corpus.
	List(ctx context.Context) ([]string, error)

	// Load returns the document for the given ID.
	// domain.ErrNotFound when the document does not exist.
	Load(ctx context.Context, id string) (domain.Document, error)
}
