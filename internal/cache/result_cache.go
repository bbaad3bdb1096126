// Package cache holds the bounded, time-limited store for computed search
// pages and single-resource lookups.
//
// Entries expire lazily: an expired entry is removed when a Get observes it.
// There is no background sweep. When the store is full, inserting a new key
// evicts the oldest inserted entry, so Len never exceeds the capacity.
package cache

import (
	"container/list"
	"sync"
	"time"
)

const (
	// DefaultTTL is how long an entry stays readable after insertion.
	DefaultTTL = 300 * time.Second
	// DefaultCapacity is the maximum number of resident entries.
	DefaultCapacity = 1000
)

// Options tunes a cache. Zero values fall back to the defaults.
type Options struct {
	TTL      time.Duration
	Capacity int
	Now      func() time.Time // for testing, defaults to time.Now
}

type entry[V any] struct {
	key       string
	value     V
	expiresAt time.Time
}

// ResultCache is safe for concurrent use. Stored values are shared with every
// reader and must be treated as immutable.
type ResultCache[V any] struct {
	mu       sync.Mutex
	ttl      time.Duration
	capacity int
	now      func() time.Time
	entries  map[string]*list.Element // key -> element holding *entry[V]
	order    *list.List               // front = oldest insertion
	gen      uint64                   // bumped by every invalidation
}

// New creates an empty cache.
func New[V any](opts Options) *ResultCache[V] {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Capacity <= 0 {
		opts.Capacity = DefaultCapacity
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &ResultCache[V]{
		ttl:      opts.TTL,
		capacity: opts.Capacity,
		now:      opts.Now,
		entries:  make(map[string]*list.Element, opts.Capacity),
		order:    list.New(),
	}
}

// Get returns the value for key if present and not expired.
func (c *ResultCache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	el, ok := c.entries[key]
	if !ok {
		return zero, false
	}

	e := el.Value.(*entry[V])
	if !c.now().Before(e.expiresAt) {
		c.removeLocked(el)
		return zero, false
	}
	return e.value, true
}

// Set inserts or overwrites key. Overwriting refreshes the expiry and makes the
// entry the newest one.
func (c *ResultCache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.setLocked(key, value)
}

// Generation returns the invalidation counter. Take it before computing a
// value and pass it to SetIf.
func (c *ResultCache[V]) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.gen
}

// SetIf stores value only if no invalidation happened since gen was read.
// A value computed from data that was invalidated meanwhile is dropped.
func (c *ResultCache[V]) SetIf(key string, value V, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gen != gen {
		return false
	}
	c.setLocked(key, value)
	return true
}

func (c *ResultCache[V]) setLocked(key string, value V) {
	expiresAt := c.now().Add(c.ttl)

	if el, ok := c.entries[key]; ok {
		e := el.Value.(*entry[V])
		e.value = value
		e.expiresAt = expiresAt
		c.order.MoveToBack(el)
		return
	}

	for len(c.entries) >= c.capacity {
		c.removeLocked(c.order.Front())
	}

	c.entries[key] = c.order.PushBack(&entry[V]{
		key:       key,
		value:     value,
		expiresAt: expiresAt,
	})
}

// Invalidate removes one entry.
func (c *ResultCache[V]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	if el, ok := c.entries[key]; ok {
		c.removeLocked(el)
	}
}

// InvalidateAll clears every entry.
func (c *ResultCache[V]) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	c.entries = make(map[string]*list.Element, c.capacity)
	c.order.Init()
}

// Len returns the number of resident entries, expired ones included until observed.
func (c *ResultCache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

// Capacity returns the configured bound.
func (c *ResultCache[V]) Capacity() int {
	return c.capacity
}

func (c *ResultCache[V]) removeLocked(el *list.Element) {
	e := c.order.Remove(el).(*entry[V])
	delete(c.entries, e.key)
}
