// Package config loads engine configuration from a TOML file.
// Every operational bound of the engine lives here rather than in
// constants: query validation limits, cache capacity, embedding
// dimension, provider settings and the scheduler interval.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Default values applied when the config file omits a setting.
const (
	DefaultDimension      = 768
	DefaultMaxQueryLength = 1024
	DefaultMaxResultLimit = 100
	DefaultResultLimit    = 10
	DefaultThreshold      = -1.0
	DefaultCacheCapacity  = 256
	DefaultChunkSize      = 1000
	DefaultChunkOverlap   = 200
	DefaultSyncInterval   = 15 * time.Minute
	DefaultProvider       = "ollama"
)

// Config is the engine configuration.
type Config struct {
	// DataDir holds the embedding database. Empty defaults to
	// ~/.semsearch/data.
	DataDir string `toml:"data_dir"`

	// CorpusDir is the directory of documents to index.
	CorpusDir string `toml:"corpus_dir"`

	Search    SearchConfig    `toml:"search"`
	Cache     CacheConfig     `toml:"cache"`
	Embedding EmbeddingConfig `toml:"embedding"`
	Chunking  ChunkingConfig  `toml:"chunking"`
	Indexing  IndexingConfig  `toml:"indexing"`
}

// SearchConfig bounds query validation.
type SearchConfig struct {
	// MaxQueryLength is the maximum query length in bytes, after
	// normalisation.
	MaxQueryLength int `toml:"max_query_length"`

	// MaxResultLimit caps the requested result limit.
	MaxResultLimit int `toml:"max_result_limit"`

	// DefaultResultLimit applies when a query requests no limit.
	DefaultResultLimit int `toml:"default_result_limit"`

	// DefaultThreshold applies when a query sets no similarity
	// threshold. -1 keeps every match.
	DefaultThreshold float64 `toml:"default_threshold"`
}

// CacheConfig bounds the query-result cache.
type CacheConfig struct {
	// Capacity is the maximum number of cached results.
	Capacity int `toml:"capacity"`
}

// EmbeddingConfig selects and tunes the embedding provider.
type EmbeddingConfig struct {
	// Provider is "ollama" or "openai".
	Provider string `toml:"provider"`

	// Dimension is the store-wide vector dimension. Must match the
	// provider's model.
	Dimension int `toml:"dimension"`

	// BaseURL overrides the provider endpoint.
	BaseURL string `toml:"base_url"`

	// Model names the embedding model.
	Model string `toml:"model"`

	// APIKey authenticates hosted providers.
	APIKey string `toml:"api_key"`

	// RequestsPerSecond and Burst rate-limit provider calls.
	// Zero disables limiting.
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`
}

// ChunkingConfig tunes the fixed-size chunker.
type ChunkingConfig struct {
	Size    int `toml:"size"`
	Overlap int `toml:"overlap"`
}

// IndexingConfig tunes the background indexing loop.
type IndexingConfig struct {
	// SyncInterval is how often the scheduler re-indexes the corpus.
	SyncInterval time.Duration `toml:"sync_interval"`

	// Watch enables filesystem watching for incremental indexing.
	Watch bool `toml:"watch"`
}

// Default returns a configuration with every default applied.
func Default() Config {
	cfg := Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads configuration from the given TOML file. A missing file
// yields the defaults; a malformed file is an error.
func Load(path string) (Config, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Config{}, fmt.Errorf("getting home directory: %w", err)
		}
		path = filepath.Join(home, ".semsearch", "config.toml")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config file: %w", err)
	}
	cfg.applyDefaults()

	return cfg, nil
}

// Validate rejects configurations the engine cannot run with.
func (c Config) Validate() error {
	if c.Embedding.Dimension <= 0 {
		return fmt.Errorf("embedding.dimension must be positive, got %d", c.Embedding.Dimension)
	}
	if c.Search.MaxResultLimit < c.Search.DefaultResultLimit {
		return fmt.Errorf("search.max_result_limit %d is below search.default_result_limit %d",
			c.Search.MaxResultLimit, c.Search.DefaultResultLimit)
	}
	if c.Chunking.Overlap >= c.Chunking.Size {
		return fmt.Errorf("chunking.overlap %d must be smaller than chunking.size %d",
			c.Chunking.Overlap, c.Chunking.Size)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Search.MaxQueryLength <= 0 {
		c.Search.MaxQueryLength = DefaultMaxQueryLength
	}
	if c.Search.MaxResultLimit <= 0 {
		c.Search.MaxResultLimit = DefaultMaxResultLimit
	}
	if c.Search.DefaultResultLimit <= 0 {
		c.Search.DefaultResultLimit = DefaultResultLimit
	}
	if c.Search.DefaultThreshold == 0 {
		c.Search.DefaultThreshold = DefaultThreshold
	}
	if c.Cache.Capacity <= 0 {
		c.Cache.Capacity = DefaultCacheCapacity
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = DefaultProvider
	}
	if c.Embedding.Dimension <= 0 {
		c.Embedding.Dimension = DefaultDimension
	}
	if c.Chunking.Size <= 0 {
		c.Chunking.Size = DefaultChunkSize
	}
	if c.Chunking.Overlap <= 0 {
		c.Chunking.Overlap = DefaultChunkOverlap
	}
	if c.Indexing.SyncInterval <= 0 {
		c.Indexing.SyncInterval = DefaultSyncInterval
	}
}
