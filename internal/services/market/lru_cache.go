package market

import (
	"container/list"
	"sync"
	"time"
)

// BoundedLRUCache is a thread-safe LRU cache with a size bound and an optional
// per-entry time to live. A zero ttl keeps entries until evicted.
type BoundedLRUCache[K comparable, V any] struct {
	mu      sync.Mutex
	cache   map[K]*list.Element
	lru     *list.List
	maxSize int
	ttl     time.Duration
	now     func() time.Time
	zeroVal V
}

type lruEntry[K comparable, V any] struct {
	key       K
	value     V
	expiresAt time.Time
}

func NewBoundedLRUCache[K comparable, V any](maxSize int, ttl time.Duration) *BoundedLRUCache[K, V] {
	if maxSize <= 0 {
		maxSize = 1
	}
	return &BoundedLRUCache[K, V]{
		cache:   make(map[K]*list.Element, maxSize),
		lru:     list.New(),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns a live value and marks it most recently used. Expired entries are dropped.
func (c *BoundedLRUCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.cache[key]
	if !ok {
		return c.zeroVal, false
	}
	entry := elem.Value.(*lruEntry[K, V])
	if c.expired(entry) {
		c.remove(elem)
		return c.zeroVal, false
	}
	c.lru.MoveToFront(elem)
	return entry.value, true
}

// Set adds or refreshes a value, evicting the least recently used entries when full.
func (c *BoundedLRUCache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expiresAt time.Time
	if c.ttl > 0 {
		expiresAt = c.now().Add(c.ttl)
	}

	if elem, ok := c.cache[key]; ok {
		c.lru.MoveToFront(elem)
		entry := elem.Value.(*lruEntry[K, V])
		entry.value = value
		entry.expiresAt = expiresAt
		return
	}

	for len(c.cache) >= c.maxSize {
		c.evictLRU()
	}

	entry := &lruEntry[K, V]{key: key, value: value, expiresAt: expiresAt}
	c.cache[key] = c.lru.PushFront(entry)
}

func (c *BoundedLRUCache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.cache[key]; ok {
		c.remove(elem)
	}
}

func (c *BoundedLRUCache[K, V]) expired(e *lruEntry[K, V]) bool {
	return !e.expiresAt.IsZero() && !c.now().Before(e.expiresAt)
}

// Must be called with mu held.
func (c *BoundedLRUCache[K, V]) evictLRU() {
	if back := c.lru.Back(); back != nil {
		c.remove(back)
	}
}

// Must be called with mu held.
func (c *BoundedLRUCache[K, V]) remove(elem *list.Element) {
	entry := elem.Value.(*lruEntry[K, V])
	c.lru.Remove(elem)
	delete(c.cache, entry.key)
}

func (c *BoundedLRUCache[K, V]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.cache)
}

func (c *BoundedLRUCache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[K]*list.Element, c.maxSize)
	c.lru.Init()
}
