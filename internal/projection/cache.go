package projection

import (
	"sync"
)

// CachedTransformer wraps a Transformer with an in-memory LRU of compiled pairs.
type CachedTransformer struct {
	inner    Transformer
	cache    *lruCache
	onLookup func(hit bool)
}

// NewCachedTransformer creates a cache decorator around a transformer.
// onLookup, when non-nil, is told about every cache hit or miss.
func NewCachedTransformer(inner Transformer, maxEntries int, onLookup func(hit bool)) *CachedTransformer {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &CachedTransformer{
		inner:    inner,
		cache:    newLRUCache(maxEntries),
		onLookup: onLookup,
	}
}

func (c *CachedTransformer) Pair(src, dst *Projection) (Pair, error) {
	if src == nil || dst == nil {
		return c.inner.Pair(src, dst)
	}
	key := src.definition + "|" + dst.definition
	if pair, ok := c.cache.get(key); ok {
		c.observe(true)
		return pair, nil
	}
	c.observe(false)
	pair, err := c.inner.Pair(src, dst)
	if err != nil {
		return nil, err
	}
	c.cache.put(key, pair)
	return pair, nil
}

func (c *CachedTransformer) observe(hit bool) {
	if c.onLookup != nil {
		c.onLookup(hit)
	}
}

// Len returns the number of cached pairs.
func (c *CachedTransformer) Len() int {
	c.cache.mu.Lock()
	defer c.cache.mu.Unlock()
	return len(c.cache.entries)
}

// lruCache is a thread-safe LRU cache of compiled pairs.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry
}

type entry struct {
	key   string
	value Pair
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (Pair, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.unlink(e)
	c.pushFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value Pair) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.unlink(e)
		c.pushFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.pushFront(e)

	for len(c.entries) > c.maxEntries && c.tail != nil {
		oldest := c.tail
		c.unlink(oldest)
		delete(c.entries, oldest.key)
	}
}

func (c *lruCache) pushFront(e *entry) {
	e.prev = nil
	e.next = c.head
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) unlink(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
	e.prev, e.next = nil, nil
}
