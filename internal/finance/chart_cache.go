package finance

import (
	"sync"
	"time"
)

// DefaultChartTTL is how long a rendered chart is reused.
const DefaultChartTTL = 60 * time.Second

type chartCacheEntry struct {
	createdAt time.Time
	image     []byte
}

// ChartCache keeps rendered charts keyed by query id for a short time.
type ChartCache struct {
	ttl     time.Duration
	now     func() time.Time
	mu      sync.Mutex
	entries map[string]chartCacheEntry
}

func NewChartCache(ttl time.Duration) *ChartCache {
	if ttl <= 0 {
		ttl = DefaultChartTTL
	}
	return &ChartCache{ttl: ttl, now: time.Now, entries: map[string]chartCacheEntry{}}
}

// Get returns a copy of the cached image for key if it has not expired.
func (c *ChartCache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !c.now().Before(entry.createdAt.Add(c.ttl)) {
		delete(c.entries, key)
		return nil, false
	}
	img := make([]byte, len(entry.image))
	copy(img, entry.image)
	return img, true
}

func (c *ChartCache) Set(key string, img []byte) {
	c.mu.Lock()
	c.entries[key] = chartCacheEntry{createdAt: c.now(), image: img}
	c.mu.Unlock()
}
