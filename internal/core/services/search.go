package services

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/loganrooks/calibre-semantic-search-sub002/internal/cache"
	"github.com/loganrooks/calibre-semantic-search-sub002/internal/config"
	"github.com/loganrooks/calibre-semantic-search-sub002/internal/core/domain"
	"github.com/loganrooks/calibre-semantic-search-sub002/internal/core/ports/driven"
	"github.com/loganrooks/calibre-semantic-search-sub002/internal/core/ports/driving"
	"github.com/loganrooks/calibre-semantic-search-sub002/internal/logger"
	"github.com/loganrooks/calibre-semantic-search-sub002/internal/rank"
)

// Ensure SearchService implements the interface.
var _ driving.Searcher = (*SearchService)(nil)

// SearchService answers similarity queries: validate, consult the
// result cache, and on a miss embed the query and rank it against the
// stored corpus. It enforces at most one concurrent search execution
// per caller session; concurrent searches for different sessions
// proceed independently.
type SearchService struct {
	store    driven.EmbeddingStore
	cache    driven.ResultCache
	embedder driven.Embedder
	limits   config.SearchConfig

	mu       sync.Mutex
	sessions map[string]*session
}

// session serialises search execution for one caller session. The
// singleflight group shares an in-flight result between duplicate
// queries; the mutex serialises distinct queries behind each other.
// refs counts active searches holding the session; the last release
// removes it from the map so idle sessions hold no memory.
type session struct {
	mu     sync.Mutex
	flight singleflight.Group
	refs   int
}

// NewSearchService creates a search service.
func NewSearchService(
	store driven.EmbeddingStore,
	resultCache driven.ResultCache,
	embedder driven.Embedder,
	limits config.SearchConfig,
) *SearchService {
	return &SearchService{
		store:    store,
		cache:    resultCache,
		embedder: embedder,
		limits:   limits,
		sessions: make(map[string]*session),
	}
}

// Search performs a similarity query for one session.
func (s *SearchService) Search(
	ctx context.Context, sessionID, query string, opts domain.SearchOptions,
) (domain.RankedResult, error) {
	logger.Section("Search Execution")
	logger.Debug("Session: %s, query: %q", sessionID, query)

	normalized, opts, err := s.validate(query, opts)
	if err != nil {
		return domain.RankedResult{}, err
	}

	fp := cache.Fingerprint(normalized, opts)
	logger.Debug("Fingerprint: %s", fp)

	// Fast path: a hit never re-invokes the ranker.
	if result, ok := s.cache.Get(fp); ok {
		logger.Info("Cache hit")
		return result, nil
	}

	sess := s.acquireSession(sessionID)
	defer s.releaseSession(sessionID, sess)
	v, err, shared := sess.flight.Do(fp, func() (any, error) {
		sess.mu.Lock()
		defer sess.mu.Unlock()
		return s.execute(ctx, normalized, opts, fp)
	})
	if err != nil {
		return domain.RankedResult{}, err
	}
	if shared {
		logger.Debug("Joined in-flight search for session %s", sessionID)
	}

	return v.(domain.RankedResult), nil
}

// validate normalises the query and resolves option defaults, failing
// with ErrInvalidQuery on any bound violation.
func (s *SearchService) validate(query string, opts domain.SearchOptions) (string, domain.SearchOptions, error) {
	normalized := domain.NormalizeText(query)
	if normalized == "" {
		return "", opts, fmt.Errorf("%w: empty query", domain.ErrInvalidQuery)
	}
	if len(normalized) > s.limits.MaxQueryLength {
		return "", opts, fmt.Errorf("%w: query length %d exceeds %d",
			domain.ErrInvalidQuery, len(normalized), s.limits.MaxQueryLength)
	}

	if opts.Limit == 0 {
		opts.Limit = s.limits.DefaultResultLimit
	}
	if opts.Limit <= 0 || opts.Limit > s.limits.MaxResultLimit {
		return "", opts, fmt.Errorf("%w: result limit %d out of bounds (1..%d)",
			domain.ErrInvalidQuery, opts.Limit, s.limits.MaxResultLimit)
	}
	if opts.Threshold == 0 {
		opts.Threshold = s.limits.DefaultThreshold
	}

	return normalized, opts, nil
}

// execute runs one uncached search: embed, scan, rank, write back.
func (s *SearchService) execute(
	ctx context.Context, normalized string, opts domain.SearchOptions, fp string,
) (domain.RankedResult, error) {
	// The cache may have been filled while this call waited on the
	// session lock.
	if result, ok := s.cache.Get(fp); ok {
		logger.Debug("Cache filled while waiting")
		return result, nil
	}

	logger.Debug("Embedding query (%d bytes)", len(normalized))
	queryVec, err := s.embedder.Embed(ctx, normalized)
	if err != nil {
		logger.Warn("Query embedding failed: %v", err)
		return domain.RankedResult{}, fmt.Errorf("%w: embed query: %v", domain.ErrProviderUnavailable, err)
	}

	cursor, err := s.store.Scan(ctx, opts.DocumentIDs)
	if err != nil {
		return domain.RankedResult{}, fmt.Errorf("scan store: %w", err)
	}
	defer cursor.Close()

	result, err := rank.Rank(queryVec, cursor, opts.Limit, opts.Threshold)
	if err != nil {
		return domain.RankedResult{}, err
	}
	logger.Info("Ranked %d matches", len(result.Matches))

	s.cache.Put(fp, result, opts.DocumentIDs)
	return result, nil
}

// acquireSession returns the state holder for a session, creating it
// on first use and pinning it for the duration of one search.
func (s *SearchService) acquireSession(id string) *session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		sess = &session{}
		s.sessions[id] = sess
	}
	sess.refs++
	return sess
}

// releaseSession unpins a session and drops it from the map once no
// search holds it, so the map never outgrows the set of sessions with
// a search in flight.
func (s *SearchService) releaseSession(id string, sess *session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess.refs--
	if sess.refs == 0 {
		delete(s.sessions, id)
	}
}
