package domain

// SearchOptions configures a similarity query.
type SearchOptions struct {
	// DocumentIDs restricts ranking to the given documents.
	// Empty means the whole corpus.
	DocumentIDs []string

	// Limit is the maximum number of matches to return. Zero takes
	// the configured default.
	Limit int

	// Threshold drops matches scoring below it. Zero keeps
	// everything (cosine scores can be negative, so callers that
	// want "no threshold" should leave it at the configured
	// default of -1).
	Threshold float64
}

// Match is a single ranked hit.
type Match struct {
	// ChunkID identifies the matched chunk version.
	ChunkID ChunkID

	// Score is the cosine similarity in [-1, 1].
	Score float64

	// Rank is the dense position in the result, starting at 0.
	Rank int
}

// RankedResult is an ordered sequence of matches. Ordering is
// deterministic: descending score, ties broken by ascending ChunkID.
type RankedResult struct {
	Matches []Match
}

// Documents returns the distinct document IDs referenced by the result,
// in first-seen order. The query cache uses this to maintain its
// reverse invalidation index.
func (r RankedResult) Documents() []string {
	seen := make(map[string]bool, len(r.Matches))
	var docs []string
	for _, m := range r.Matches {
		if !seen[m.ChunkID.DocumentID] {
			seen[m.ChunkID.DocumentID] = true
			docs = append(docs, m.ChunkID.DocumentID)
		}
	}
	return docs
}
