package cache

import (
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

type ttlCacheEntry[T any] struct {
	data  T
	valid bool
	claim uint64
}

type ttlCache[T any] struct {
	// mu makes claim checks and writes atomic with respect to invalidation
	mu        sync.Mutex
	cache     *ttlcache.Cache[string, ttlCacheEntry[T]]
	lastClaim uint64
	pollDelay time.Duration
}

func (c *ttlCache[T]) getOrClaim(key string) lookup[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	if item := c.cache.Get(key); item != nil {
		entry := item.Value()
		return lookup[T]{data: entry.data, valid: entry.valid}
	}

	c.lastClaim++
	c.cache.Set(key, ttlCacheEntry[T]{claim: c.lastClaim}, ttlcache.DefaultTTL)
	return lookup[T]{claim: c.lastClaim}
}

func (c *ttlCache[T]) outstanding(key string, claim uint64) bool {
	item := c.cache.Get(key)
	return item != nil && !item.Value().valid && item.Value().claim == claim
}

func (c *ttlCache[T]) fill(key string, claim uint64, data T) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.outstanding(key, claim) {
		return false
	}
	c.cache.Set(key, ttlCacheEntry[T]{data: data, valid: true}, ttlcache.DefaultTTL)
	return true
}

func (c *ttlCache[T]) release(key string, claim uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.outstanding(key, claim) {
		c.cache.Delete(key)
	}
}

func (c *ttlCache[T]) invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache.Delete(key)
}

func (c *ttlCache[T]) wait() {
	time.Sleep(c.pollDelay)
}

// NewTTLCache returns a cache whose entries expire ttl after they were filled
func NewTTLCache[T any](ttl time.Duration) Cache[T] {
	entries := ttlcache.New[string, ttlCacheEntry[T]](
		ttlcache.WithTTL[string, ttlCacheEntry[T]](ttl),
		ttlcache.WithDisableTouchOnHit[string, ttlCacheEntry[T]](),
	)
	go entries.Start()
	return &ttlCache[T]{
		cache:     entries,
		pollDelay: 10 * time.Millisecond,
	}
}
