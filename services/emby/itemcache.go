package emby

import "sync"

const (
	// DefaultCacheMaxSize bounds the number of cached item records.
	DefaultCacheMaxSize = 500
	// DefaultCacheEvictCount is how many of the oldest entries are dropped
	// in one batch once the bound is exceeded.
	DefaultCacheEvictCount = 100
)

// itemCache is a bounded, insertion-ordered cache for item metadata.
// Instead of evicting one entry per insert, it drops the oldest evictCount
// entries in a single batch when the size bound is exceeded, amortizing
// eviction cost across many insertions.
type itemCache struct {
	mu         sync.Mutex
	maxSize    int
	evictCount int
	entries    map[string]ItemInfo
	order      []string // keys in first-insertion order
}

func newItemCache(maxSize, evictCount int) *itemCache {
	if maxSize <= 0 {
		maxSize = DefaultCacheMaxSize
	}
	if evictCount <= 0 {
		evictCount = DefaultCacheEvictCount
	}
	if evictCount > maxSize {
		evictCount = maxSize
	}
	return &itemCache{
		maxSize:    maxSize,
		evictCount: evictCount,
		entries:    make(map[string]ItemInfo),
		order:      make([]string, 0, maxSize),
	}
}

func (c *itemCache) get(key string) (ItemInfo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	info, ok := c.entries[key]
	return info, ok
}

// put stores info under key. Re-inserting an existing key replaces the value
// but keeps the key's original position in the eviction order.
func (c *itemCache) put(key string, info ItemInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		c.order = append(c.order, key)
	}
	c.entries[key] = info

	if len(c.entries) > c.maxSize {
		evict := c.evictCount
		if evict > len(c.order) {
			evict = len(c.order)
		}
		for _, old := range c.order[:evict] {
			delete(c.entries, old)
		}
		c.order = append(c.order[:0], c.order[evict:]...)
	}
}

func (c *itemCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
