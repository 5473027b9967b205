package worldbank

import (
	"context"
	"fmt"
	"sync"

	"github.com/wendy-gaiden/infrastructure-climate-analytics/internal/domain"
	"github.com/wendy-gaiden/infrastructure-climate-analytics/internal/observability"
)

// CachedSource wraps an IndicatorSource with an in-memory LRU cache.
// Re-running the collector within one process never refetches an indicator.
type CachedSource struct {
	inner   domain.IndicatorSource
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedSource creates a cache decorator around an indicator source.
// metrics may be nil.
func NewCachedSource(inner domain.IndicatorSource, maxEntries int, metrics *observability.Metrics) *CachedSource {
	return &CachedSource{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

func (c *CachedSource) FetchIndicator(ctx context.Context, code, name, dateRange string) ([]domain.IndicatorObservation, error) {
	key := fmt.Sprintf("%s|%s", code, dateRange)
	if obs, ok := c.cache.get(key); ok {
		c.countLookup("hit")
		return obs, nil
	}
	c.countLookup("miss")
	obs, err := c.inner.FetchIndicator(ctx, code, name, dateRange)
	if err != nil {
		return nil, err
	}
	// Only cache non-empty results so transient "no data" responses can be retried.
	if len(obs) > 0 {
		c.cache.put(key, obs)
	}
	return obs, nil
}

func (c *CachedSource) countLookup(result string) {
	if c.metrics != nil {
		c.metrics.WorldBankCache.WithLabelValues(result).Inc()
	}
}

// lruCache is a simple thread-safe LRU cache for observation slices.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value []domain.IndicatorObservation
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) ([]domain.IndicatorObservation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value []domain.IndicatorObservation) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
