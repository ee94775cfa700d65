package dashboard

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"
)

const defaultChartCacheEntries = 64

// RenderCache memoizes rendered chart HTML keyed by chart content.
type RenderCache interface {
	GetOrRender(key string, render func() (string, error)) (string, error)
}

// ChartCache keeps rendered trend charts for a TTL. Live sensor data changes the chart key on
// every reading, so the cache is also bounded: when full, expired entries go first, then the
// entry closest to expiry.
type ChartCache struct {
	ttl        time.Duration
	maxEntries int
	now        func() time.Time

	mu      sync.Mutex
	entries map[string]cachedChart
}

type cachedChart struct {
	html    string
	expires time.Time
}

// ChartCacheOption customizes a ChartCache.
type ChartCacheOption func(*ChartCache)

// WithChartCacheSize bounds the number of cached charts.
func WithChartCacheSize(n int) ChartCacheOption {
	return func(c *ChartCache) {
		if n > 0 {
			c.maxEntries = n
		}
	}
}

// WithChartCacheClock replaces time.Now, mostly for tests.
func WithChartCacheClock(now func() time.Time) ChartCacheOption {
	return func(c *ChartCache) {
		if now != nil {
			c.now = now
		}
	}
}

// NewChartCache builds a cache with the provided TTL. A non-positive TTL disables caching.
func NewChartCache(ttl time.Duration, options ...ChartCacheOption) *ChartCache {
	c := &ChartCache{
		ttl:        ttl,
		maxEntries: defaultChartCacheEntries,
		now:        time.Now,
		entries:    make(map[string]cachedChart),
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// GetOrRender returns the cached chart for key or renders and stores it.
func (c *ChartCache) GetOrRender(key string, render func() (string, error)) (string, error) {
	if html, ok := c.get(key); ok {
		return html, nil
	}
	html, err := render()
	if err != nil {
		return "", err
	}
	c.set(key, html)
	return html, nil
}

// Len reports the number of stored entries, expired ones included until they are evicted.
func (c *ChartCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *ChartCache) get(key string) (string, bool) {
	if c == nil || c.ttl <= 0 {
		return "", false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return "", false
	}
	if c.now().After(entry.expires) {
		delete(c.entries, key)
		return "", false
	}
	return entry.html, true
}

func (c *ChartCache) set(key, html string) {
	if c == nil || c.ttl <= 0 {
		return
	}
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictLocked(now)
	}
	c.entries[key] = cachedChart{html: html, expires: now.Add(c.ttl)}
}

func (c *ChartCache) evictLocked(now time.Time) {
	var (
		oldestKey string
		oldest    time.Time
	)
	for key, entry := range c.entries {
		if now.After(entry.expires) {
			delete(c.entries, key)
			continue
		}
		if oldestKey == "" || entry.expires.Before(oldest) {
			oldestKey, oldest = key, entry.expires
		}
	}
	if len(c.entries) >= c.maxEntries && oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

// contentHash returns a deterministic hash of the chart content.
func contentHash(content map[string]any) string {
	if len(content) == 0 {
		return "empty"
	}
	b, err := json.Marshal(content)
	if err != nil {
		return "invalid"
	}
	sum := sha1.Sum(b)
	return hex.EncodeToString(sum[:])
}
