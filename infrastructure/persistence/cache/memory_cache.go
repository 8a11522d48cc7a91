// Package cache provides the runtime path cache tiers: an in-process LRU with
// TTL, an optional shared Redis tier, and a two-level combination of both.
package cache

import (
	"container/list"
	"context"
	"sync"
	"time"

	"causaldiscovery/application/ports"
	"causaldiscovery/domain/causal"

	"go.uber.org/zap"
)

// MemoryPathCache is an in-memory path cache with LRU eviction and a fixed TTL.
// Expired entries are dropped lazily on access or when room is needed.
type MemoryPathCache struct {
	mu       sync.Mutex
	items    map[string]*cacheItem
	lruList  *list.List
	maxItems int
	ttl      time.Duration
	now      func() time.Time

	// Statistics
	hits      int64
	misses    int64
	evictions int64

	logger *zap.Logger
}

type cacheItem struct {
	key        string
	paths      []causal.Path
	expiry     time.Time
	lruElement *list.Element
}

// NewMemoryPathCache creates a cache holding at most maxItems path lists
func NewMemoryPathCache(maxItems int, ttl time.Duration, logger *zap.Logger) *MemoryPathCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxItems <= 0 {
		maxItems = 1000
	}
	if ttl <= 0 {
		ttl = time.Hour
	}

	return &MemoryPathCache{
		items:    make(map[string]*cacheItem),
		lruList:  list.New(),
		maxItems: maxItems,
		ttl:      ttl,
		now:      time.Now,
		logger:   logger,
	}
}

// Get returns a copy of the cached paths
func (c *MemoryPathCache) Get(ctx context.Context, key ports.CacheKey) ([]causal.Path, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, exists := c.items[key.String()]
	if !exists {
		c.misses++
		return nil, false, nil
	}

	if c.now().After(item.expiry) {
		c.removeItem(item)
		c.misses++
		return nil, false, nil
	}

	c.lruList.MoveToFront(item.lruElement)
	c.hits++

	return causal.ClonePaths(item.paths), true, nil
}

// Set stores a copy of paths, replacing any previous value
func (c *MemoryPathCache) Set(ctx context.Context, key ports.CacheKey, paths []causal.Path) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	k := key.String()
	if existing, exists := c.items[k]; exists {
		c.removeItem(existing)
	}

	for len(c.items) >= c.maxItems && c.lruList.Len() > 0 {
		oldest := c.lruList.Back()
		c.removeItem(oldest.Value.(*cacheItem))
		c.evictions++
	}

	item := &cacheItem{
		key:    k,
		paths:  causal.ClonePaths(paths),
		expiry: c.now().Add(c.ttl),
	}
	item.lruElement = c.lruList.PushFront(item)
	c.items[k] = item

	return nil
}

// removeItem removes an item from the cache (must be called with lock held)
func (c *MemoryPathCache) removeItem(item *cacheItem) {
	if item.lruElement != nil {
		c.lruList.Remove(item.lruElement)
	}
	delete(c.items, item.key)
}

// GetStats returns cache statistics
func (c *MemoryPathCache) GetStats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	hitRate := float64(0)
	if total := c.hits + c.misses; total > 0 {
		hitRate = float64(c.hits) / float64(total)
	}

	return CacheStats{
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		Items:     len(c.items),
		HitRate:   hitRate,
	}
}

// CacheStats holds cache statistics
type CacheStats struct {
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	Evictions int64   `json:"evictions"`
	Items     int     `json:"items"`
	HitRate   float64 `json:"hit_rate"`
}
