// Package cache provides the bounded, time-expiring memo of final
// retrieval results shared across concurrent requests.
package cache

import (
	"sync"
	"time"

	"github.com/agentkb/answer-engine/internal/core/domain"
)

const (
	DefaultTTL        = 5 * time.Minute
	DefaultMaxEntries = 500
)

type entry struct {
	result    domain.RetrievalResult
	createdAt time.Time
}

// ResultCache is a mutex-guarded map with lazy TTL expiry on access and
// size-based eviction on insert. When full, the oldest entry (by insert
// order) is evicted first.
type ResultCache struct {
	mu         sync.Mutex
	entries    map[string]entry
	order      []string
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

func New(ttl time.Duration, maxEntries int) *ResultCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &ResultCache{
		entries:    make(map[string]entry, maxEntries),
		order:      make([]string, 0, maxEntries),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

func (c *ResultCache) Get(key string) (domain.RetrievalResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return domain.RetrievalResult{}, false
	}
	if c.now().Sub(e.createdAt) > c.ttl {
		c.remove(key)
		return domain.RetrievalResult{}, false
	}
	return e.result, true
}

func (c *ResultCache) Set(key string, result domain.RetrievalResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; ok {
		c.remove(key)
	}
	for len(c.entries) >= c.maxEntries && len(c.order) > 0 {
		c.remove(c.order[0])
	}

	c.entries[key] = entry{result: result, createdAt: c.now()}
	c.order = append(c.order, key)
}

func (c *ResultCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// remove assumes c.mu is held.
func (c *ResultCache) remove(key string) {
	delete(c.entries, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}
