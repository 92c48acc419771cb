package teachsdk

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// CacheKind names a family of cached views.
type CacheKind string

const (
	CacheSubjects          CacheKind = "subjects"
	CacheSubjectProgress   CacheKind = "subject-progress"
	CacheMilestones        CacheKind = "milestones"
	CacheMilestoneProgress CacheKind = "milestone-progress"
	CacheActivities        CacheKind = "activities"
	CacheOutcomes          CacheKind = "outcomes"
	CacheCoverage          CacheKind = "coverage"
	CacheSuggestions       CacheKind = "suggestions"
)

// Key identifies one cached view: a kind plus the ID or filter tuple it was
// fetched for.
type Key struct {
	Kind  CacheKind
	Scope string
}

func (k Key) String() string { return string(k.Kind) + ":" + k.Scope }

func idKey(kind CacheKind, id int64) Key {
	return Key{Kind: kind, Scope: strconv.FormatInt(id, 10)}
}

const DefaultCacheSize = 256

// Cache holds server reads until a related mutation invalidates them.
// Concurrent loads of the same key share one fetch. A fetch that started
// before an invalidation is returned to its callers but never stored.
type Cache struct {
	mu      sync.Mutex
	entries *lru.Cache[Key, any]
	epoch   uint64
	group   singleflight.Group
}

func NewCache(size int) *Cache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	entries, err := lru.New[Key, any](size)
	if err != nil {
		panic(fmt.Sprintf("lru cache: %v", err))
	}
	return &Cache{entries: entries}
}

// Get returns the cached value for key or loads it with fetch.
func (c *Cache) Get(ctx context.Context, key Key, fetch func(context.Context) (any, error)) (any, error) {
	c.mu.Lock()
	if v, ok := c.entries.Get(key); ok {
		c.mu.Unlock()
		return v, nil
	}
	epoch := c.epoch
	c.mu.Unlock()

	v, err, _ := c.group.Do(fmt.Sprintf("%s@%d", key, epoch), func() (any, error) {
		v, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		if c.epoch == epoch {
			c.entries.Add(key, v)
		}
		c.mu.Unlock()
		return v, nil
	})
	return v, err
}

// Peek returns a cached value without loading it.
func (c *Cache) Peek(key Key) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Peek(key)
}

func (c *Cache) Invalidate(keys ...Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	for _, k := range keys {
		c.entries.Remove(k)
	}
}

// InvalidateKinds drops every entry of the given kinds.
func (c *Cache) InvalidateKinds(kinds ...CacheKind) {
	drop := make(map[CacheKind]bool, len(kinds))
	for _, k := range kinds {
		drop[k] = true
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	for _, k := range c.entries.Keys() {
		if drop[k.Kind] {
			c.entries.Remove(k)
		}
	}
}

// Reset empties the cache, e.g. when the session ends.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	c.entries.Purge()
}

func (c *Cache) Len() int {
	return c.entries.Len()
}

// load is the typed front of Cache.Get. A nil cache always fetches.
func load[T any](ctx context.Context, c *Cache, key Key, fetch func(context.Context) (T, error)) (T, error) {
	if c == nil {
		return fetch(ctx)
	}
	v, err := c.Get(ctx, key, func(ctx context.Context) (any, error) {
		return fetch(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}
