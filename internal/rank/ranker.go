// Package rank computes cosine-similarity rankings over candidate
// embedding records, keeping a bounded top-K working set so peak memory
// is O(K) rather than O(corpus size).
package rank

import (
	"container/heap"
	"fmt"
	"math"

	"github.com/loganrooks/calibre-semantic-search-sub002/internal/core/domain"
)

// CandidateSource enumerates candidate records. An embedding-store scan
// cursor satisfies it.
type CandidateSource interface {
	Next() bool
	Record() *domain.EmbeddingRecord
	Err() error
}

// Rank scores every candidate against the query vector and returns the
// top `limit` matches ordered by descending score, ties broken by
// ascending chunk ID (document ID, then chunk index). Candidates
// scoring below threshold are dropped but still count as seen.
//
// Fails with domain.ErrEmptyCorpus only when the source yields no
// record at all; an empty result after thresholding is valid.
func Rank(query []float32, candidates CandidateSource, limit int, threshold float64) (domain.RankedResult, error) {
	top := topK{limit: limit}
	seen := 0

	for candidates.Next() {
		rec := candidates.Record()
		seen++

		if len(rec.Vector) != len(query) {
			return domain.RankedResult{}, fmt.Errorf("%w: candidate %s[%d] has %d dimensions, query has %d",
				domain.ErrDimensionMismatch, rec.ChunkID.DocumentID, rec.ChunkID.ChunkIndex, len(rec.Vector), len(query))
		}

		score := Cosine(query, rec.Vector)
		if score < threshold {
			continue
		}
		top.offer(domain.Match{ChunkID: rec.ChunkID, Score: score})
	}
	if err := candidates.Err(); err != nil {
		return domain.RankedResult{}, fmt.Errorf("scan candidates: %w", err)
	}
	if seen == 0 {
		return domain.RankedResult{}, domain.ErrEmptyCorpus
	}

	return domain.RankedResult{Matches: top.ordered()}, nil
}

// Cosine returns dot(a,b) / (|a|*|b|), clamped to [-1, 1] since
// rounding in the separate dot and norm accumulations can push the
// quotient marginally outside the interval. A zero-magnitude vector on
// either side yields 0.0 by definition rather than an error.
func Cosine(a, b []float32) float64 {
	na := Norm(a)
	nb := Norm(b)
	if na == 0 || nb == 0 {
		return 0
	}
	return math.Max(-1, math.Min(1, dot(a, b)/(na*nb)))
}

// Norm returns the L2 norm of a vector.
func Norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// dot computes the dot product with 8-way loop unrolling.
func dot(a, b []float32) float64 {
	n := len(a)
	var s0, s1, s2, s3, s4, s5, s6, s7 float64
	i := 0
	for ; i <= n-8; i += 8 {
		s0 += float64(a[i]) * float64(b[i])
		s1 += float64(a[i+1]) * float64(b[i+1])
		s2 += float64(a[i+2]) * float64(b[i+2])
		s3 += float64(a[i+3]) * float64(b[i+3])
		s4 += float64(a[i+4]) * float64(b[i+4])
		s5 += float64(a[i+5]) * float64(b[i+5])
		s6 += float64(a[i+6]) * float64(b[i+6])
		s7 += float64(a[i+7]) * float64(b[i+7])
	}
	for ; i < n; i++ {
		s0 += float64(a[i]) * float64(b[i])
	}
	return (s0 + s1 + s2 + s3) + (s4 + s5 + s6 + s7)
}

// topK keeps the best `limit` matches in a min-heap whose root is the
// worst kept match. worse() is the single ordering authority: lower
// score is worse; on equal scores the higher chunk ID is worse, which
// makes the final ordering deterministic.
type topK struct {
	items []domain.Match
	limit int
}

func worse(a, b domain.Match) bool {
	if a.Score != b.Score {
		return a.Score < b.Score
	}
	return b.ChunkID.Less(a.ChunkID)
}

func (t *topK) Len() int            { return len(t.items) }
func (t *topK) Less(i, j int) bool  { return worse(t.items[i], t.items[j]) }
func (t *topK) Swap(i, j int)       { t.items[i], t.items[j] = t.items[j], t.items[i] }
func (t *topK) Push(x any)          { t.items = append(t.items, x.(domain.Match)) }
func (t *topK) Pop() any {
	old := t.items
	n := len(old)
	item := old[n-1]
	t.items = old[:n-1]
	return item
}

// offer admits a match, evicting the worst kept one when full.
func (t *topK) offer(m domain.Match) {
	if t.limit <= 0 {
		return
	}
	if len(t.items) < t.limit {
		heap.Push(t, m)
		return
	}
	if worse(t.items[0], m) {
		t.items[0] = m
		heap.Fix(t, 0)
	}
}

// ordered drains the heap into best-first order and assigns dense ranks.
func (t *topK) ordered() []domain.Match {
	out := make([]domain.Match, len(t.items))
	for i := len(t.items) - 1; i >= 0; i-- {
		out[i] = heap.Pop(t).(domain.Match)
	}
	for i := range out {
		out[i].Rank = i
	}
	return out
}
