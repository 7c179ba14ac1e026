package domain

import "errors"

// Domain errors represent retrieval-engine failures.
// These are distinct from infrastructure errors and are always wrapped
// with %w so callers can test them with errors.Is.
var (
	// ErrNotFound indicates a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidQuery indicates a query that fails validation:
	// empty after normalisation, too long, or an out-of-bounds
	// result limit. Surfaced to the caller, never retried.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrDimensionMismatch indicates a vector whose length differs
	// from the configured embedding dimension. Never coerced.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrCorruptPayload indicates an encoded vector whose byte
	// length cannot hold a whole number of configured-dimension
	// elements.
	ErrCorruptPayload = errors.New("corrupt vector payload")

	// ErrStoreUnavailable indicates an embedding-store I/O failure.
	// Retry policy belongs to the caller.
	ErrStoreUnavailable = errors.New("embedding store unavailable")

	// ErrProviderUnavailable indicates the embedding provider
	// failed. Indexing records it per document and continues; a
	// search fails with it.
	ErrProviderUnavailable = errors.New("embedding provider unavailable")

	// ErrJobAlreadyRunning indicates an indexing job is already
	// active for the corpus. One job at a time, corpus-wide.
	ErrJobAlreadyRunning = errors.New("indexing job already running")

	// ErrEmptyCorpus indicates ranking saw zero candidates before
	// any comparison. An empty result after filtering is not an
	// error.
	ErrEmptyCorpus = errors.New("empty corpus")
)
