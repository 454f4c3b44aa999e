// Package resultcache provides a size- and age-bounded LRU cache for title
// search results. Values are copied on the way in and on the way out so
// callers never share memory with the cache.
package resultcache

import (
	"container/list"
	"log/slog"
	"sync"
	"time"
)

const (
	// DefaultCapacity is the default maximum number of entries.
	DefaultCapacity = 128
	// DefaultTTL is the default entry lifetime.
	DefaultTTL = 300 * time.Second
)

// Key identifies one title search.
type Key struct {
	Title  string
	Author string
	Limit  int
}

type entry[V any] struct {
	key        Key
	insertedAt time.Time
	value      V
}

// Cache is a mutex-guarded LRU with a per-entry TTL.
type Cache[V any] struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	clone    func(V) V
	now      func() time.Time
	order    *list.List
	items    map[Key]*list.Element
}

// Option configures a Cache.
type Option[V any] func(*Cache[V])

// WithClock replaces the time source.
func WithClock[V any](now func() time.Time) Option[V] {
	return func(c *Cache[V]) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates a cache holding at most capacity entries for at most ttl.
// clone must return a deep copy of its argument. A zero capacity or a zero
// ttl disables caching.
func New[V any](capacity int, ttl time.Duration, clone func(V) V, opts ...Option[V]) *Cache[V] {
	c := &Cache[V]{
		capacity: capacity,
		ttl:      ttl,
		clone:    clone,
		now:      time.Now,
		order:    list.New(),
		items:    make(map[Key]*list.Element),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Enabled reports whether the cache stores anything at all.
func (c *Cache[V]) Enabled() bool {
	return c != nil && c.capacity > 0 && c.ttl > 0
}

// Get returns a copy of the cached value for key. Expired entries are evicted
// and reported as a miss.
func (c *Cache[V]) Get(key Key) (V, bool) {
	var zero V
	if !c.Enabled() {
		return zero, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return zero, false
	}

	e := elem.Value.(*entry[V])
	if c.now().Sub(e.insertedAt) > c.ttl {
		slog.Debug("Search cache entry expired", "title", key.Title, "author", key.Author, "limit", key.Limit)
		c.removeElement(elem)
		return zero, false
	}

	c.order.MoveToFront(elem)
	return c.clone(e.value), true
}

// Put stores a copy of value under key and evicts least recently used entries
// beyond capacity.
func (c *Cache[V]) Put(key Key, value V) {
	if !c.Enabled() {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	stored := c.clone(value)
	if elem, ok := c.items[key]; ok {
		e := elem.Value.(*entry[V])
		e.value = stored
		e.insertedAt = c.now()
		c.order.MoveToFront(elem)
		return
	}

	c.items[key] = c.order.PushFront(&entry[V]{key: key, insertedAt: c.now(), value: stored})

	for c.order.Len() > c.capacity {
		c.removeElement(c.order.Back())
	}
}

// Len returns the number of stored entries, expired or not.
func (c *Cache[V]) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Clear drops every entry.
func (c *Cache[V]) Clear() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	c.items = make(map[Key]*list.Element)
}

func (c *Cache[V]) removeElement(elem *list.Element) {
	e := elem.Value.(*entry[V])
	delete(c.items, e.key)
	c.order.Remove(elem)
}
