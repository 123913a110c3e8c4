package utils

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// DedupeCache remembers recently sent replies so a retried handler does not post the same text twice.
// Entries expire after ttl and the cache never holds more than size keys.
type DedupeCache struct {
	mu   sync.Mutex
	seen *expirable.LRU[string, struct{}]
}

func NewDedupeCache(size int, ttl time.Duration) *DedupeCache {
	return &DedupeCache{
		seen: expirable.NewLRU[string, struct{}](size, nil, ttl),
	}
}

// Mark records key and reports whether it was new.
func (c *DedupeCache) Mark(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.seen.Get(key); ok {
		return false
	}
	c.seen.Add(key, struct{}{})
	return true
}

func (c *DedupeCache) Len() int {
	return c.seen.Len()
}
