package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/loganrooks/calibre-semantic-search-sub002/internal/adapters/driven/corpus/filesystem"
	"github.com/loganrooks/calibre-semantic-search-sub002/internal/adapters/driven/embedding"
	"github.com/loganrooks/calibre-semantic-search-sub002/internal/adapters/driven/embedding/ollama"
	"github.com/loganrooks/calibre-semantic-search-sub002/internal/adapters/driven/embedding/openai"
	"github.com/loganrooks/calibre-semantic-search-sub002/internal/adapters/driven/storage/sqlite"
	"github.com/loganrooks/calibre-semantic-search-sub002/internal/cache"
	"github.com/loganrooks/calibre-semantic-search-sub002/internal/chunker"
	"github.com/loganrooks/calibre-semantic-search-sub002/internal/config"
	"github.com/loganrooks/calibre-semantic-search-sub002/internal/core/ports/driven"
	"github.com/loganrooks/calibre-semantic-search-sub002/internal/core/services"
	"github.com/loganrooks/calibre-semantic-search-sub002/internal/logger"
)

// app holds the wired engine for one command invocation.
type app struct {
	cfg      config.Config
	store    *sqlite.Store
	embedder driven.Embedder
	cache    *cache.Cache
	source   *filesystem.Source
	searcher *services.SearchService
	indexer  *services.Indexer
}

// buildApp wires the engine from configuration. Callers own Close.
func buildApp(cfg config.Config) (*app, error) {
	store, err := sqlite.NewStore(cfg.DataDir, cfg.Embedding.Dimension)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	embedder, err := buildEmbedder(cfg.Embedding)
	if err != nil {
		store.Close()
		return nil, err
	}

	source, err := filesystem.New(cfg.CorpusDir)
	if err != nil {
		store.Close()
		embedder.Close()
		return nil, fmt.Errorf("opening corpus: %w", err)
	}

	resultCache := cache.New(cfg.Cache.Capacity)
	chk := chunker.New(
		chunker.WithChunkSize(cfg.Chunking.Size),
		chunker.WithOverlap(cfg.Chunking.Overlap),
	)

	return &app{
		cfg:      cfg,
		store:    store,
		embedder: embedder,
		cache:    resultCache,
		source:   source,
		searcher: services.NewSearchService(store, resultCache, embedder, cfg.Search),
		indexer:  services.NewIndexer(store, embedder, chk, source, resultCache),
	}, nil
}

// buildEmbedder selects the provider and applies rate limiting.
func buildEmbedder(cfg config.EmbeddingConfig) (driven.Embedder, error) {
	var embedder driven.Embedder
	switch cfg.Provider {
	case "", "ollama":
		embedder = ollama.NewEmbedder(ollama.Config{
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimension,
		})
	case "openai":
		e, err := openai.NewEmbedder(openai.Config{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimension,
		})
		if err != nil {
			return nil, err
		}
		embedder = e
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}

	if cfg.RequestsPerSecond > 0 {
		embedder = embedding.NewRateLimited(embedder, embedding.RateLimitConfig{
			RequestsPerSecond: cfg.RequestsPerSecond,
			BurstSize:         cfg.Burst,
		})
	}
	return embedder, nil
}

// checkProvider pings the embedding provider with a short deadline.
func (a *app) checkProvider(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := a.embedder.Ping(ctx); err != nil {
		return fmt.Errorf("embedding provider unreachable: %w", err)
	}
	logger.Debug("Provider %s reachable", a.embedder.ProviderTag())
	return nil
}

// Close shuts the engine down in dependency order.
func (a *app) Close() {
	if err := a.indexer.Close(); err != nil {
		logger.Warn("Indexer shutdown: %v", err)
	}
	if err := a.embedder.Close(); err != nil {
		logger.Warn("Embedder shutdown: %v", err)
	}
	if err := a.store.Close(); err != nil {
		logger.Warn("Store shutdown: %v", err)
	}
}
