package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
	"sort"

	"github.com/loganrooks/calibre-semantic-search-sub002/internal/core/domain"
)

// Fingerprint derives the deterministic cache key for a query: the
// normalised query text plus the active filter parameters (document
// scope, result limit, similarity threshold). Two queries producing the
// same fingerprint are cache-equivalent.
func Fingerprint(query string, opts domain.SearchOptions) string {
	h := sha256.New()
	h.Write([]byte(domain.NormalizeText(query)))
	h.Write([]byte{0})

	scope := append([]string(nil), opts.DocumentIDs...)
	sort.Strings(scope)
	for _, id := range scope {
		h.Write([]byte(id))
		h.Write([]byte{0})
	}

	var nums [16]byte
	binary.LittleEndian.PutUint64(nums[:8], uint64(opts.Limit))
	binary.LittleEndian.PutUint64(nums[8:], math.Float64bits(opts.Threshold))
	h.Write(nums[:])

	return hex.EncodeToString(h.Sum(nil))
}
