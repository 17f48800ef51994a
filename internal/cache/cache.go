// Package cache holds whole rendered pages for a fixed time. Entries are
// never invalidated by writes; readers may see a page up to one TTL old.
package cache

import (
	"context"
	"sync"
	"time"
)

// PageCache returns the cached bytes for key, or runs compute and keeps its
// result for ttl. Errors from compute are returned and nothing is stored.
// Two callers missing at once may both compute; the last write wins.
type PageCache interface {
	GetOrCompute(ctx context.Context, key string, ttl time.Duration, compute func() ([]byte, error)) ([]byte, error)
	InvalidateAll(ctx context.Context) error
}

type entry struct {
	value   []byte
	expires time.Time
}

// MemoryCache is a process-local PageCache. Construct one at start-up and
// share it between handlers.
// Expired entries are dropped on write, at most once per TTL.
type MemoryCache struct {
	mu        sync.RWMutex
	entries   map[string]entry
	now       func() time.Time
	lastSweep time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: map[string]entry{}, now: time.Now}
}

// WithClock replaces the time source; used by tests.
func (c *MemoryCache) WithClock(now func() time.Time) *MemoryCache {
	c.now = now
	return c
}

func (c *MemoryCache) GetOrCompute(_ context.Context, key string, ttl time.Duration, compute func() ([]byte, error)) ([]byte, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if ok && c.now().Before(e.expires) {
		return e.value, nil
	}

	v, err := compute()
	if err != nil {
		return nil, err
	}
	now := c.now()
	c.mu.Lock()
	if now.Sub(c.lastSweep) >= ttl {
		c.sweep(now)
	}
	c.entries[key] = entry{value: v, expires: now.Add(ttl)}
	c.mu.Unlock()
	return v, nil
}

// sweep removes expired entries. c.mu must be held for writing.
func (c *MemoryCache) sweep(now time.Time) {
	for k, e := range c.entries {
		if !now.Before(e.expires) {
			delete(c.entries, k)
		}
	}
	c.lastSweep = now
}

func (c *MemoryCache) InvalidateAll(context.Context) error {
	c.mu.Lock()
	c.entries = map[string]entry{}
	c.mu.Unlock()
	return nil
}

// Len counts stored entries, including expired ones not yet swept.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
