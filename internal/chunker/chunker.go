// Package chunker provides a fixed-size text chunking capability.
package chunker

import (
	"context"

	"github.com/loganrooks/calibre-semantic-search-sub002/internal/core/domain"
	"github.com/loganrooks/calibre-semantic-search-sub002/internal/core/ports/driven"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 200

// Ensure Chunker implements the port.
var _ driven.Chunker = (*Chunker)(nil)

// Chunker splits document text into fixed-size overlapping chunks and
// stamps each with the content hash of its normalised text.
type Chunker struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// New creates a chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(c)
	}

	// Ensure overlap doesn't exceed chunk size
	if c.overlap >= c.chunkSize {
		c.overlap = c.chunkSize / 4
	}

	return c
}

// Chunk splits the document into chunks. Empty content produces no
// chunks. Chunk indexes are dense from 0 and the hash of each chunk is
// stable across runs for unchanged text.
func (c *Chunker) Chunk(_ context.Context, doc domain.Document) ([]domain.ChunkText, error) {
	if doc.Text == "" {
		return nil, nil
	}

	content := doc.Text
	contentLen := len(content)

	estimated := (contentLen / (c.chunkSize - c.overlap)) + 1
	chunks := make([]domain.ChunkText, 0, estimated)

	index := 0
	start := 0

	for start < contentLen {
		end := start + c.chunkSize
		if end > contentLen {
			end = contentLen
		}

		text := content[start:end]
		chunks = append(chunks, domain.ChunkText{
			Index: index,
			Text:  text,
			Hash:  domain.HashText(text),
		})
		index++

		start += c.chunkSize - c.overlap
	}

	return chunks, nil
}
