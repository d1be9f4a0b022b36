package embedding

import (
	"container/list"
	"hash/fnv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// cacheEntry is one LRU node's payload.
type cacheEntry struct {
	key       uint64
	vector    []float32
	expiresAt time.Time
}

// Cache is an LRU+TTL cache from a content fingerprint to an embedding
// vector, per spec §4.1. Readers and writers share one mutex, held over
// a short critical section; the single-writer-per-key coalescing guarantee lives one
// layer up, in Service, via singleflight.
type Cache struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	ll       *list.List
	items    map[uint64]*list.Element

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

// NewCache builds a Cache with the given capacity and TTL. A
// non-positive capacity or TTL falls back to the spec's stated
// defaults (1000 entries, 3600s).
func NewCache(capacity int, ttl time.Duration) *Cache {
	if capacity <= 0 {
		capacity = 1000
	}
	if ttl <= 0 {
		ttl = 3600 * time.Second
	}
	return &Cache{
		capacity: capacity,
		ttl:      ttl,
		ll:       list.New(),
		items:    make(map[uint64]*list.Element),
	}
}

// Fingerprint hashes trimmed, lowercased, space-normalised text with
// FNV-1a 64-bit — the "stable non-cryptographic 64-bit hash" spec §4.1
// asks for.
func Fingerprint(text string) uint64 {
	normalized := strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(text))), " ")
	h := fnv.New64a()
	_, _ = h.Write([]byte(normalized))
	return h.Sum64()
}

// Get returns the cached vector for key, or (nil, false) on a miss —
// including a miss for an expired entry, which is evicted as a side
// effect.
func (c *Cache) Get(key uint64) ([]float32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	entry := el.Value.(*cacheEntry)
	if time.Now().After(entry.expiresAt) {
		c.ll.Remove(el)
		delete(c.items, key)
		c.evictions.Add(1)
		c.misses.Add(1)
		return nil, false
	}
	c.ll.MoveToFront(el)
	c.hits.Add(1)
	return entry.vector, true
}

// Put inserts or refreshes key, evicting the least-recently-used entry
// if the cache is at capacity.
func (c *Cache) Put(key uint64, vector []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		entry := el.Value.(*cacheEntry)
		entry.vector = vector
		entry.expiresAt = time.Now().Add(c.ttl)
		c.ll.MoveToFront(el)
		return
	}

	entry := &cacheEntry{key: key, vector: vector, expiresAt: time.Now().Add(c.ttl)}
	el := c.ll.PushFront(entry)
	c.items[key] = el

	if c.ll.Len() > c.capacity {
		oldest := c.ll.Back()
		if oldest != nil {
			c.ll.Remove(oldest)
			delete(c.items, oldest.Value.(*cacheEntry).key)
			c.evictions.Add(1)
		}
	}
}

// Stats is a point-in-time snapshot of the cache's counters.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Size      int
}

// StatsSnapshot returns the current hit/miss/eviction counters and size.
func (c *Cache) StatsSnapshot() Stats {
	c.mu.Lock()
	size := c.ll.Len()
	c.mu.Unlock()
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		Size:      size,
	}
}
