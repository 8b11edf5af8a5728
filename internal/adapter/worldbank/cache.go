package worldbank

import (
	"container/list"
	"context"
	"fmt"
	"sync"

	"github.com/couchcryptid/climate-figures/internal/domain"
	"github.com/couchcryptid/climate-figures/internal/observability"
)

// CachedSource wraps a Source with an in-memory LRU cache.
type CachedSource struct {
	inner   domain.Source
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedSource creates a cache decorator around a source.
func NewCachedSource(inner domain.Source, maxEntries int, metrics *observability.Metrics) *CachedSource {
	return &CachedSource{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

func (c *CachedSource) Fetch(ctx context.Context, variable domain.Variable, resolution domain.Resolution, country domain.CountryCode) ([]domain.Record, error) {
	key := cacheKey(variable, resolution, country)
	if records, ok := c.cache.get(key); ok {
		c.metrics.FetchCache.WithLabelValues("memory", "hit").Inc()
		return records, nil
	}
	c.metrics.FetchCache.WithLabelValues("memory", "miss").Inc()

	records, err := c.inner.Fetch(ctx, variable, resolution, country)
	if err != nil {
		return nil, err
	}
	// Only cache non-empty results so an empty response is retried next time.
	if len(records) > 0 {
		c.cache.put(key, records)
	}
	return cloneRecords(records), nil
}

func cacheKey(variable domain.Variable, resolution domain.Resolution, country domain.CountryCode) string {
	return fmt.Sprintf("%s|%s|%s", variable, resolution, country)
}

func cloneRecords(r []domain.Record) []domain.Record {
	if r == nil {
		return nil
	}
	return append([]domain.Record(nil), r...)
}

// lruCache is a small thread-safe LRU keyed by series. Front of order is the
// most recently used entry.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*list.Element
	order      *list.List
}

type entry struct {
	key   string
	value []domain.Record
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*list.Element),
		order:      list.New(),
	}
}

// get returns a copy of the cached series so callers cannot mutate the cache.
func (c *lruCache) get(key string) ([]domain.Record, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return cloneRecords(el.Value.(*entry).value), true
}

func (c *lruCache) put(key string, value []domain.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()

	value = cloneRecords(value)
	if el, ok := c.entries[key]; ok {
		el.Value.(*entry).value = value
		c.order.MoveToFront(el)
		return
	}

	c.entries[key] = c.order.PushFront(&entry{key: key, value: value})
	if c.order.Len() > c.maxEntries {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*entry).key)
	}
}

func (c *lruCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
