// Package cache holds rendered event-list pages for a few seconds so bursts
// of identical list queries hit Postgres once. Writers call Clear after any
// event mutation; staleness is bounded by the TTL either way.
package cache

import (
	"sync"
	"time"
)

type Cache struct {
	mu    sync.RWMutex
	ttl   time.Duration
	items map[string]item
}

type item struct {
	value     any
	expiresAt time.Time
}

func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}

	return &Cache{
		ttl:   ttl,
		items: make(map[string]item),
	}
}

func (c *Cache) Get(key string) (any, bool) {
	now := time.Now()

	c.mu.RLock()
	it, ok := c.items[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}

	// expired entries are reaped lazily on lookup
	if now.After(it.expiresAt) {
		c.mu.Lock()
		delete(c.items, key)
		c.mu.Unlock()

		return nil, false
	}

	return it.value, true
}

func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	c.items[key] = item{value: value, expiresAt: time.Now().Add(c.ttl)}
	c.mu.Unlock()
}

func (c *Cache) Delete(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

func (c *Cache) Clear() {
	c.mu.Lock()
	c.items = make(map[string]item)
	c.mu.Unlock()
}
