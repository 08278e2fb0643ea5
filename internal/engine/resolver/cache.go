package resolver

import (
	"pathres/internal/engine/graph"
	"pathres/internal/engine/parser"
	"pathres/internal/shared/observability"
)

// DefaultCacheCapacity is used when the configuration does not set one.
const DefaultCacheCapacity = 16384

type cacheEntry struct {
	sig     graph.Signature
	results []Resolved
}

// Cache memoizes resolution results per reference. An entry is served only
// while the signature it was computed under is current; otherwise it is
// recomputed and replaced. Concurrent computations of one reference may
// race, and the last one stored wins.
type Cache struct {
	entries *lru[*parser.Path, cacheEntry]
}

func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	return &Cache{entries: newLRU[*parser.Path, cacheEntry](capacity, observability.ResolveCacheEvictions.Inc)}
}

// GetOrCompute returns the results stored for path under sig, computing and
// storing them when missing or stale.
func (c *Cache) GetOrCompute(path *parser.Path, sig graph.Signature, compute func() []Resolved) []Resolved {
	if res, ok := c.lookup(path, sig); ok {
		observability.ResolveCacheHits.Inc()
		return res
	}
	observability.ResolveCacheMisses.Inc()
	res := compute()
	c.entries.put(path, cacheEntry{sig: sig, results: res})
	return res
}

// InvalidateAll drops every entry.
func (c *Cache) InvalidateAll() {
	c.entries.clear()
	observability.ResolveCacheInvalidations.Inc()
}

// Len returns the number of stored entries, current or stale.
func (c *Cache) Len() int {
	return c.entries.len()
}

func (c *Cache) lookup(path *parser.Path, sig graph.Signature) ([]Resolved, bool) {
	e, ok := c.entries.get(path)
	if !ok || e.sig != sig {
		return nil, false
	}
	return e.results, true
}
