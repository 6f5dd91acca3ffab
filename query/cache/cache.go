// Package cache provides a bounded least-recently-used cache.
package cache

import "sync"

// Stats represents cache statistics
type Stats struct {
	Hits      int64
	Misses    int64
	Size      int
	MaxSize   int
	Evictions int64
	HitRate   float64
}

// LRUCache is a fixed-size cache that evicts the least recently used entry.
// The eviction callback runs outside the cache lock.
type LRUCache[K comparable, V any] struct {
	mu      sync.Mutex
	data    map[K]*cacheNode[K, V]
	maxSize int
	head    *cacheNode[K, V]
	tail    *cacheNode[K, V]
	stats   Stats
	onEvict func(K, V)
}

// cacheNode represents a node in the doubly-linked list for LRU
type cacheNode[K comparable, V any] struct {
	key   K
	value V
	prev  *cacheNode[K, V]
	next  *cacheNode[K, V]
}

// NewLRUCache creates a new LRU cache holding at most maxSize entries.
// onEvict may be nil.
func NewLRUCache[K comparable, V any](maxSize int, onEvict func(K, V)) *LRUCache[K, V] {
	if maxSize < 1 {
		maxSize = 1
	}
	return &LRUCache[K, V]{
		data:    make(map[K]*cacheNode[K, V]),
		maxSize: maxSize,
		stats:   Stats{MaxSize: maxSize},
		onEvict: onEvict,
	}
}

// Get retrieves a value from the cache
func (c *LRUCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	node, ok := c.data[key]
	if !ok {
		c.stats.Misses++
		var zero V
		return zero, false
	}

	c.moveToFront(node)
	c.stats.Hits++
	return node.value, true
}

// Add stores value under key unless the key is present. When it is, the
// cached value is returned with loaded set and value is not stored.
func (c *LRUCache[K, V]) Add(key K, value V) (actual V, loaded bool) {
	c.mu.Lock()
	if node, exists := c.data[key]; exists {
		c.moveToFront(node)
		c.mu.Unlock()
		return node.value, true
	}

	var evicted *cacheNode[K, V]
	if len(c.data) >= c.maxSize {
		evicted = c.tail
		c.removeNode(evicted)
		c.stats.Evictions++
	}

	node := &cacheNode[K, V]{key: key, value: value}
	c.addToFront(node)
	c.data[key] = node
	c.mu.Unlock()

	if evicted != nil && c.onEvict != nil {
		c.onEvict(evicted.key, evicted.value)
	}
	return value, false
}

// Invalidate removes a specific key from the cache
func (c *LRUCache[K, V]) Invalidate(key K) {
	c.mu.Lock()
	node, ok := c.data[key]
	if ok {
		c.removeNode(node)
	}
	c.mu.Unlock()

	if ok && c.onEvict != nil {
		c.onEvict(node.key, node.value)
	}
}

// Clear removes all entries from the cache, most recently used first.
func (c *LRUCache[K, V]) Clear() {
	c.mu.Lock()
	var nodes []*cacheNode[K, V]
	for node := c.head; node != nil; node = node.next {
		nodes = append(nodes, node)
	}
	c.data = make(map[K]*cacheNode[K, V])
	c.head = nil
	c.tail = nil
	c.mu.Unlock()

	if c.onEvict != nil {
		for _, node := range nodes {
			c.onEvict(node.key, node.value)
		}
	}
}

// Len returns the number of cached entries.
func (c *LRUCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}

// GetStats returns cache statistics
func (c *LRUCache[K, V]) GetStats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := c.stats
	stats.Size = len(c.data)
	if total := stats.Hits + stats.Misses; total > 0 {
		stats.HitRate = float64(stats.Hits) / float64(total) * 100
	}
	return stats
}

// addToFront adds a node to the front of the list
func (c *LRUCache[K, V]) addToFront(node *cacheNode[K, V]) {
	node.prev = nil
	node.next = c.head
	if c.head != nil {
		c.head.prev = node
	}
	c.head = node
	if c.tail == nil {
		c.tail = node
	}
}

// moveToFront moves a node to the front of the list
func (c *LRUCache[K, V]) moveToFront(node *cacheNode[K, V]) {
	if node == c.head {
		return
	}
	c.unlink(node)
	c.addToFront(node)
}

// removeNode removes a node from the list and the index
func (c *LRUCache[K, V]) removeNode(node *cacheNode[K, V]) {
	c.unlink(node)
	delete(c.data, node.key)
}

func (c *LRUCache[K, V]) unlink(node *cacheNode[K, V]) {
	if node.prev != nil {
		node.prev.next = node.next
	} else {
		c.head = node.next
	}

	if node.next != nil {
		node.next.prev = node.prev
	} else {
		c.tail = node.prev
	}
	node.prev = nil
	node.next = nil
}
