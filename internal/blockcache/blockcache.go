// Package blockcache provides a byte-bounded LRU cache for immutable blob
// blocks, used by the caching blob store.
package blockcache

import (
	"container/list"
	"sync"
	"sync/atomic"
)

// Key identifies one block of one blob.
type Key struct {
	Path  string
	Block int64
}

// Cache is a byte-oriented cache for immutable blocks.
// Returned slices must be treated as read-only.
type Cache interface {
	// Get returns a cached block. ok=false if missing.
	Get(key Key) (b []byte, ok bool)
	// Set caches a block. The caller must not mutate b afterwards.
	Set(key Key, b []byte)
	// Stats returns hit/miss counters.
	Stats() (hits, misses int64)
}

// LRU is a Cache with byte-capacity LRU eviction.
type LRU struct {
	mu        sync.Mutex
	capacity  int64
	size      int64
	items     map[Key]*list.Element
	evictList *list.List

	hits   atomic.Int64
	misses atomic.Int64
}

type entry struct {
	key   Key
	value []byte
}

// NewLRU creates an LRU cache with the given capacity in bytes.
func NewLRU(capacity int64) *LRU {
	return &LRU{
		capacity:  capacity,
		items:     make(map[Key]*list.Element),
		evictList: list.New(),
	}
}

// Get returns a cached block.
func (c *LRU) Get(key Key) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.items[key]; ok {
		c.hits.Add(1)
		c.evictList.MoveToFront(ent)
		return ent.Value.(*entry).value, true
	}
	c.misses.Add(1)
	return nil, false
}

// Set caches a block. Blocks larger than the total capacity are not cached.
func (c *LRU) Set(key Key, b []byte) {
	itemSize := int64(len(b))
	if itemSize > c.capacity {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.items[key]; ok {
		c.evictList.MoveToFront(ent)
		c.size += itemSize - int64(len(ent.Value.(*entry).value))
		ent.Value.(*entry).value = b
	} else {
		element := c.evictList.PushFront(&entry{key: key, value: b})
		c.items[key] = element
		c.size += itemSize
	}

	for c.size > c.capacity {
		tail := c.evictList.Back()
		if tail == nil {
			break
		}
		c.removeElement(tail)
	}
}

// Stats returns hit/miss counters.
func (c *LRU) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Size returns the current cache size in bytes.
func (c *LRU) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

func (c *LRU) removeElement(e *list.Element) {
	c.evictList.Remove(e)
	ent := e.Value.(*entry)
	delete(c.items, ent.key)
	c.size -= int64(len(ent.value))
}
