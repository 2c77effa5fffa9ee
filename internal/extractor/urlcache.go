package extractor

import (
	"encoding/json"
	"os"
	"sync"
	"time"
)

// URLCache tracks recently-scraped URLs so the pipeline does not re-fetch
// the same article within 24h. It survives process restarts via a
// side file.
type URLCache struct {
	mu   sync.Mutex
	path string
	seen map[string]time.Time
	ttl  time.Duration
}

// NewURLCache loads an existing cache file if present.
func NewURLCache(path string) *URLCache {
	c := &URLCache{
		path: path,
		seen: make(map[string]time.Time),
		ttl:  24 * time.Hour,
	}
	c.load()
	return c
}

func (c *URLCache) load() {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return
	}
	var raw map[string]time.Time
	if err := json.Unmarshal(data, &raw); err == nil {
		c.seen = raw
	}
}

// Seen reports whether url was scraped within the retention window.
func (c *URLCache) Seen(url string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.seen[url]
	if !ok {
		return false
	}
	return time.Since(t) < c.ttl
}

// Mark records url as scraped now and persists the cache.
func (c *URLCache) Mark(url string) {
	c.mu.Lock()
	c.seen[url] = time.Now()
	data, err := json.Marshal(c.seen)
	c.mu.Unlock()

	if err == nil {
		_ = os.WriteFile(c.path, data, 0644)
	}
}
