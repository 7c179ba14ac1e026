package driven

import (
	"context"

	"github.com/loganrooks/calibre-semantic-search-sub002/internal/core/domain"
)

// Chunker splits a document into embeddable text chunks. Invoked once
// per document during indexing. Chunk hashes must be the content hash
// of each chunk's normalised text so that chunk identities change
// exactly when the text does.
type Chunker interface {
	Chunk(ctx context.Context, doc domain.Document) ([]domain.ChunkText, error)
}
