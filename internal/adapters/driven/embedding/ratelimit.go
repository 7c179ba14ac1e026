// Package embedding provides shared embedder infrastructure: a token
// bucket rate limiter that wraps any provider so indexing bursts cannot
// exhaust provider quotas.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/loganrooks/calibre-semantic-search-sub002/internal/core/ports/driven"
)

// RateLimitError reports a provider 429 response. RetryAfter carries
// the provider's Retry-After hint in seconds, 0 when absent.
type RateLimitError struct {
	Provider   string
	RetryAfter int
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s: rate limited, retry after %ds", e.Provider, e.RetryAfter)
	}
	return fmt.Sprintf("%s: rate limited", e.Provider)
}

// NewRateLimitError builds a RateLimitError from a raw Retry-After
// header value. Only the delta-seconds form is understood; the
// HTTP-date form falls back to no hint.
func NewRateLimitError(provider, retryAfterHeader string) *RateLimitError {
	seconds, err := strconv.Atoi(retryAfterHeader)
	if err != nil || seconds < 0 {
		seconds = 0
	}
	return &RateLimitError{Provider: provider, RetryAfter: seconds}
}

// Ensure RateLimited implements the interface.
var _ driven.Embedder = (*RateLimited)(nil)

// RateLimitConfig holds rate limiting configuration for a provider.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate limit.
	RequestsPerSecond float64
	// BurstSize is the maximum burst size.
	BurstSize int
}

// DefaultRateLimit is a conservative default suitable for hosted
// providers. Local providers can run far hotter.
var DefaultRateLimit = RateLimitConfig{RequestsPerSecond: 5.0, BurstSize: 10}

// RateLimited wraps an embedder with a token bucket and a backoff
// window for 429 responses.
type RateLimited struct {
	inner   driven.Embedder
	limiter *rate.Limiter

	mu      sync.Mutex
	retryAt time.Time
}

// NewRateLimited wraps the embedder with the given limits. Zero config
// fields fall back to DefaultRateLimit.
func NewRateLimited(inner driven.Embedder, cfg RateLimitConfig) *RateLimited {
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultRateLimit.RequestsPerSecond
	}
	if cfg.BurstSize <= 0 {
		cfg.BurstSize = DefaultRateLimit.BurstSize
	}
	return &RateLimited{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.BurstSize),
	}
}

// wait blocks until a request can be made without exceeding the rate
// limit, respecting any backoff set by RecordRateLimitError.
func (r *RateLimited) wait(ctx context.Context) error {
	r.mu.Lock()
	retryAt := r.retryAt
	r.mu.Unlock()

	if time.Now().Before(retryAt) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Until(retryAt)):
		}
	}

	return r.limiter.Wait(ctx)
}

// RecordRateLimitError records a provider rate limit response and sets
// a backoff period before the next request.
func (r *RateLimited) RecordRateLimitError(retryAfterSeconds int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if retryAfterSeconds <= 0 {
		// Default backoff: 60 seconds
		retryAfterSeconds = 60
	}

	r.retryAt = time.Now().Add(time.Duration(retryAfterSeconds) * time.Second)
}

// Embed waits for a token, then delegates. A 429 from the provider
// arms the backoff window before the error surfaces.
func (r *RateLimited) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	vec, err := r.inner.Embed(ctx, text)
	r.observe(err)
	return vec, err
}

// EmbedBatch waits for a token, then delegates. One batch costs one
// token: providers meter batch requests, not their elements.
func (r *RateLimited) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := r.wait(ctx); err != nil {
		return nil, err
	}
	vecs, err := r.inner.EmbedBatch(ctx, texts)
	r.observe(err)
	return vecs, err
}

// observe arms the backoff window when the provider reported a rate
// limit, honouring its Retry-After hint.
func (r *RateLimited) observe(err error) {
	var rle *RateLimitError
	if errors.As(err, &rle) {
		r.RecordRateLimitError(rle.RetryAfter)
	}
}

// Dimensions delegates to the wrapped embedder.
func (r *RateLimited) Dimensions() int {
	return r.inner.Dimensions()
}

// ProviderTag delegates to the wrapped embedder.
func (r *RateLimited) ProviderTag() string {
	return r.inner.ProviderTag()
}

// Ping delegates without consuming a token.
func (r *RateLimited) Ping(ctx context.Context) error {
	return r.inner.Ping(ctx)
}

// Close delegates to the wrapped embedder.
func (r *RateLimited) Close() error {
	return r.inner.Close()
}
