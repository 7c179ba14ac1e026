package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loganrooks/calibre-semantic-search-sub002/internal/adapters/driven/embedding"
)

func TestEmbedBatchOrdersByIndex(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Input, 2)

		// Respond out of order; the client must reorder by index.
		_, _ = w.Write([]byte(`{"data":[
			{"embedding":[0.2,0.2],"index":1},
			{"embedding":[0.1,0.1],"index":0}
		]}`))
	}))
	defer srv.Close()

	e, err := NewEmbedder(Config{APIKey: "test-key", BaseURL: srv.URL, Dimensions: 2})
	require.NoError(t, err)

	vecs, err := e.EmbedBatch(context.Background(), []string{"first", "second"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.Equal(t, []float32{0.1, 0.1}, vecs[0])
	assert.Equal(t, []float32{0.2, 0.2}, vecs[1])
}

func TestEmbedAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid api key","type":"auth"}}`))
	}))
	defer srv.Close()

	e, err := NewEmbedder(Config{APIKey: "bad-key", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = e.Embed(context.Background(), "hello")
	assert.ErrorContains(t, err, "invalid api key")
}

func TestEmbedRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "42")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limit exceeded","type":"requests"}}`))
	}))
	defer srv.Close()

	e, err := NewEmbedder(Config{APIKey: "test-key", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = e.Embed(context.Background(), "hello")
	var rle *embedding.RateLimitError
	require.ErrorAs(t, err, &rle)
	assert.Equal(t, "openai", rle.Provider)
	assert.Equal(t, 42, rle.RetryAfter)
}

func TestNewEmbedderRequiresKey(t *testing.T) {
	_, err := NewEmbedder(Config{})
	assert.Error(t, err)
}

func TestModelDimensionDefaults(t *testing.T) {
	e, err := NewEmbedder(Config{APIKey: "k", Model: "text-embedding-3-large"})
	require.NoError(t, err)
	assert.Equal(t, 3072, e.Dimensions())
	assert.Equal(t, "openai/text-embedding-3-large", e.ProviderTag())

	e, err = NewEmbedder(Config{APIKey: "k", Model: "unknown-model"})
	require.NoError(t, err)
	assert.Equal(t, 1536, e.Dimensions())
}

func TestEmbedBatchEmpty(t *testing.T) {
	e, err := NewEmbedder(Config{APIKey: "k"})
	require.NoError(t, err)

	vecs, err := e.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vecs)
}
