// Package cache provides a bounded query-result cache with
// least-recently-used eviction and invalidation by document. A reverse
// index from document ID to dependent fingerprints makes invalidation
// O(affected entries) rather than O(cache size).
package cache

import (
	"container/list"
	"sync"

	"github.com/loganrooks/calibre-semantic-search-sub002/internal/core/domain"
	"github.com/loganrooks/calibre-semantic-search-sub002/internal/core/ports/driven"
)

// DefaultCapacity bounds the cache when no capacity is configured.
const DefaultCapacity = 256

// corpusWide is the reverse-index bucket for entries whose query had no
// document scope. Any document change can alter such a ranking, so
// every invalidation drains this bucket too.
const corpusWide = ""

// Ensure Cache implements the port.
var _ driven.ResultCache = (*Cache)(nil)

// entry is one cached ranked result plus the document IDs it depends on.
type entry struct {
	fp     string
	result domain.RankedResult
	deps   []string
}

// Cache is a capacity-bounded LRU mapping from query fingerprint to
// ranked result. Safe for concurrent use.
type Cache struct {
	mu       sync.Mutex
	capacity int
	order    *list.List               // front = most recently used
	entries  map[string]*list.Element // fingerprint -> element holding *entry
	byDoc    map[string]map[string]struct{}
}

// New creates a cache with the given capacity. Non-positive capacities
// take DefaultCapacity.
func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{
		capacity: capacity,
		order:    list.New(),
		entries:  make(map[string]*list.Element, capacity),
		byDoc:    make(map[string]map[string]struct{}),
	}
}

// Get returns the cached result for a fingerprint. Recency is updated
// atomically with the read.
func (c *Cache) Get(fp string) (domain.RankedResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[fp]
	if !ok {
		return domain.RankedResult{}, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*entry).result, true
}

// Put stores a result, evicting the least-recently-used entry when the
// capacity is exceeded. The reverse index is updated under the same
// lock, so an entry is never visible without its invalidation deps.
func (c *Cache) Put(fp string, result domain.RankedResult, scope []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[fp]; ok {
		c.unindex(el.Value.(*entry))
		c.order.Remove(el)
		delete(c.entries, fp)
	}

	e := &entry{fp: fp, result: result, deps: dependencies(result, scope)}
	c.entries[fp] = c.order.PushFront(e)
	for _, doc := range e.deps {
		set, ok := c.byDoc[doc]
		if !ok {
			set = make(map[string]struct{})
			c.byDoc[doc] = set
		}
		set[fp] = struct{}{}
	}

	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		victim := oldest.Value.(*entry)
		c.unindex(victim)
		c.order.Remove(oldest)
		delete(c.entries, victim.fp)
	}
}

// Invalidate removes every entry depending on the document and every
// corpus-wide entry, returning the number dropped.
func (c *Cache) Invalidate(documentID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	dropped := 0
	dropped += c.dropBucket(documentID)
	if documentID != corpusWide {
		dropped += c.dropBucket(corpusWide)
	}
	return dropped
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Purge drops everything.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	c.entries = make(map[string]*list.Element, c.capacity)
	c.byDoc = make(map[string]map[string]struct{})
}

// dropBucket removes all entries registered under one reverse-index key.
func (c *Cache) dropBucket(doc string) int {
	set, ok := c.byDoc[doc]
	if !ok {
		return 0
	}
	dropped := 0
	for fp := range set {
		el, ok := c.entries[fp]
		if !ok {
			continue
		}
		c.unindex(el.Value.(*entry))
		c.order.Remove(el)
		delete(c.entries, fp)
		dropped++
	}
	return dropped
}

// unindex removes an entry's reverse-index registrations.
func (c *Cache) unindex(e *entry) {
	for _, doc := range e.deps {
		if set, ok := c.byDoc[doc]; ok {
			delete(set, e.fp)
			if len(set) == 0 {
				delete(c.byDoc, doc)
			}
		}
	}
}

// dependencies lists the reverse-index keys for an entry: the scope
// documents plus every document the result references. An unscoped
// query additionally registers under the corpus-wide bucket.
func dependencies(result domain.RankedResult, scope []string) []string {
	seen := make(map[string]struct{})
	var deps []string
	add := func(doc string) {
		if _, ok := seen[doc]; !ok {
			seen[doc] = struct{}{}
			deps = append(deps, doc)
		}
	}
	for _, doc := range scope {
		add(doc)
	}
	for _, doc := range result.Documents() {
		add(doc)
	}
	if len(scope) == 0 {
		add(corpusWide)
	}
	return deps
}
