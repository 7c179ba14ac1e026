package driven

import "context"

// Embedder generates vector embeddings from text. It is the principal
// suspension point of the engine: calls are long-running relative to
// local computation and potentially failing, and the engine treats the
// provider as opaque.
//
// Implementations may include:
//   - Ollama (nomic-embed-text, all-minilm)
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
type Embedder interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts. More
	// efficient than calling Embed in a loop where the provider has
	// a batch API.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g. 384, 768,
	// 1536). Must match the embedding store's configured dimension.
	Dimensions() int

	// ProviderTag identifies the provider and model, recorded on
	// every embedding record (e.g. "ollama/nomic-embed-text").
	ProviderTag() string

	// Ping validates the provider is reachable with a lightweight
	// request, used at startup.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
