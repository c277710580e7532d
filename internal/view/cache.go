package view

import (
	"container/list"
)

// DefaultCapacity is the number of materialized views kept warm.
const DefaultCapacity = 4

// ActivateResult reports what Cache.Activate found.
type ActivateResult struct {
	// NeedsRefresh is true when no view was cached for the key; the caller
	// must run a full resync.
	NeedsRefresh bool
	// Stale is true when the key's buffer overflowed or was invalidated;
	// the caller must resync instead of draining.
	Stale   bool
	View    *View
	Evicted []string
}

type cacheEntry struct {
	key  string
	view *View
	elem *list.Element
}

// Cache is a bounded LRU of materialized views. The active key is never
// evicted. It also owns the event buffers of cached, hidden sessions.
type Cache struct {
	capacity   int
	bufferSize int
	factory    HookFactory

	entries map[string]*cacheEntry
	order   *list.List // front = most recent
	buffers map[string]*EventBuffer
	active  string
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithBufferSize sets the per-session buffer bound.
func WithBufferSize(n int) CacheOption {
	return func(c *Cache) {
		if n > 0 {
			c.bufferSize = n
		}
	}
}

// WithHookFactory sets how render hooks are created for new views.
func WithHookFactory(f HookFactory) CacheOption {
	return func(c *Cache) { c.factory = f }
}

// NewCache creates a cache holding at most capacity views.
func NewCache(capacity int, opts ...CacheOption) *Cache {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	c := &Cache{
		capacity:   capacity,
		bufferSize: DefaultBufferSize,
		entries:    make(map[string]*cacheEntry),
		order:      list.New(),
		buffers:    make(map[string]*EventBuffer),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Capacity returns the view bound.
func (c *Cache) Capacity() int { return c.capacity }

// Len returns the number of cached views.
func (c *Cache) Len() int { return len(c.entries) }

// Active returns the active key, empty before the first activation.
func (c *Cache) Active() string { return c.active }

// Get returns the cached view for key without touching it.
func (c *Cache) Get(key string) (*View, bool) {
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return e.view, true
}

// Has reports whether key has a cached view.
func (c *Cache) Has(key string) bool {
	_, ok := c.entries[key]
	return ok
}

// Keys returns cached keys from most to least recently touched.
func (c *Cache) Keys() []string {
	keys := make([]string, 0, c.order.Len())
	for el := c.order.Front(); el != nil; el = el.Next() {
		keys = append(keys, el.Value.(string))
	}
	return keys
}

// Touch marks key as most recently used, creating its view if absent.
func (c *Cache) Touch(key string) (*View, bool) {
	if e, ok := c.entries[key]; ok {
		c.order.MoveToFront(e.elem)
		return e.view, false
	}
	var hook Hook
	if c.factory != nil {
		hook = c.factory(key)
	}
	e := &cacheEntry{key: key, view: New(key, hook)}
	e.elem = c.order.PushFront(key)
	c.entries[key] = e
	return e.view, true
}

// EvictIfNeeded drops least recently used views until the cache is within
// capacity. The active key is moved back to the front instead of being
// evicted. It returns the evicted keys, oldest first.
func (c *Cache) EvictIfNeeded(active string) []string {
	var evicted []string
	skipped := 0
	for len(c.entries) > c.capacity && c.order.Len() > 0 {
		el := c.order.Back()
		key := el.Value.(string)
		if key == active {
			c.order.MoveToFront(el)
			skipped++
			if skipped > c.order.Len() {
				break
			}
			continue
		}
		c.remove(key)
		evicted = append(evicted, key)
	}
	return evicted
}

func (c *Cache) remove(key string) {
	e, ok := c.entries[key]
	if !ok {
		return
	}
	c.order.Remove(e.elem)
	delete(c.entries, key)
	delete(c.buffers, key)
	e.view.Release()
}

// Activate makes key the active view. The previous view's scroll state is
// saved before it is hidden.
func (c *Cache) Activate(key string) ActivateResult {
	if prev, ok := c.entries[c.active]; ok && c.active != key {
		prev.view.hide()
	}
	v, created := c.Touch(key)
	c.active = key
	res := ActivateResult{
		NeedsRefresh: created,
		View:         v,
		Evicted:      c.EvictIfNeeded(key),
	}
	if buf, ok := c.buffers[key]; ok && buf.Stale() {
		res.Stale = true
	}
	v.show()
	return res
}

// Buffer returns the buffer of key, if one exists.
func (c *Cache) Buffer(key string) (*EventBuffer, bool) {
	b, ok := c.buffers[key]
	return b, ok
}

// BufferFor returns the buffer of a cached key, creating it on first use.
// Uncached keys have no buffer.
func (c *Cache) BufferFor(key string) (*EventBuffer, bool) {
	if !c.Has(key) {
		return nil, false
	}
	b, ok := c.buffers[key]
	if !ok {
		b = NewEventBuffer(c.bufferSize)
		c.buffers[key] = b
	}
	return b, true
}

// DropBuffer discards the buffer of key.
func (c *Cache) DropBuffer(key string) {
	delete(c.buffers, key)
}

// InvalidateInactive clears and marks stale the buffer of every cached key
// other than active, so each resyncs on its next activation. It returns the
// invalidated keys.
func (c *Cache) InvalidateInactive(active string) []string {
	var keys []string
	for el := c.order.Front(); el != nil; el = el.Next() {
		key := el.Value.(string)
		if key == active {
			continue
		}
		b, _ := c.BufferFor(key)
		b.MarkStale()
		keys = append(keys, key)
	}
	return keys
}

// Clear releases every view and buffer.
func (c *Cache) Clear() {
	for _, key := range c.Keys() {
		c.remove(key)
	}
	c.active = ""
}
