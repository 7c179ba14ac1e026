package domain

import "time"

// ChunkID identifies a chunk by the exact text version that produced it.
// The ContentHash changes whenever the source text changes, which makes
// any embedding computed from the old text unreachable through this ID.
// Immutable once assigned.
type ChunkID struct {
	// DocumentID is the owning document.
	DocumentID string

	// ChunkIndex is the ordinal position within the document.
	ChunkIndex int

	// ContentHash is the digest of the chunk's normalised text.
	ContentHash string
}

// Less orders chunk IDs lexicographically by document ID, then by chunk
// index. This is the tie-break order for equal similarity scores.
func (c ChunkID) Less(other ChunkID) bool {
	if c.DocumentID != other.DocumentID {
		return c.DocumentID < other.DocumentID
	}
	return c.ChunkIndex < other.ChunkIndex
}

// Slot returns the (document, index) position the ID occupies. Two IDs
// with the same slot but different hashes describe the old and new
// version of the same chunk.
func (c ChunkID) Slot() ChunkSlot {
	return ChunkSlot{DocumentID: c.DocumentID, ChunkIndex: c.ChunkIndex}
}

// ChunkSlot is a chunk position without the content hash.
type ChunkSlot struct {
	DocumentID string
	ChunkIndex int
}

// EmbeddingRecord is the stored vector for one chunk version.
// Owned exclusively by the embedding store.
type EmbeddingRecord struct {
	// ChunkID is the full identity of the chunk this vector was
	// computed from.
	ChunkID ChunkID

	// Vector is the embedding, always Dimension elements long.
	Vector []float32

	// Dimension is the vector length. Must match the store-wide
	// configured dimension.
	Dimension int

	// ProviderTag names the embedding provider/model that produced
	// the vector (e.g. "ollama/nomic-embed-text").
	ProviderTag string

	// CreatedAt is when the embedding was persisted.
	CreatedAt time.Time
}

// Document is a corpus document presented to the chunking capability.
type Document struct {
	// ID is the corpus-unique document identifier.
	ID string

	// Text is the full document text.
	Text string
}

// ChunkText is one chunk produced by the chunking capability, before
// embedding. Hash is the digest of the normalised Text and becomes the
// ContentHash of the resulting ChunkID.
type ChunkText struct {
	Index int
	Text  string
	Hash  string
}
