package memorycache

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/kashiwade/menshen/pkg/cache"
)

// entry is one cached decision with its expiry and approximate size
type entry struct {
	key       string
	value     interface{}
	expiresAt time.Time
	size      int64
}

// Cache is an in-process LRU cache with per-entry TTL. It backs the
// authorization decision cache: bounded memory, stale entries age out by TTL,
// and eviction order is least-recently-used.
type Cache struct {
	mu sync.Mutex

	items     map[string]*list.Element
	evictList *list.List // front = most recently used

	maxSize     int64
	ttl         time.Duration
	currentSize int64

	hits        uint64
	misses      uint64
	keysAdded   uint64
	keysEvicted uint64
}

// Config holds configuration for the memory cache.
type Config struct {
	// MaxSizeBytes caps the approximate total size of cached entries.
	// Least recently used entries are evicted past the cap.
	MaxSizeBytes int64

	// DefaultTTL applies when Set is called with a zero TTL.
	DefaultTTL time.Duration
}

// New creates a new memory cache with the given configuration.
func New(config *Config) (*Cache, error) {
	return &Cache{
		items:     make(map[string]*list.Element),
		evictList: list.New(),
		maxSize:   config.MaxSizeBytes,
		ttl:       config.DefaultTTL,
	}, nil
}

// Get retrieves a value from cache. An expired entry is removed and counts
// as a miss.
func (c *Cache) Get(ctx context.Context, key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, exists := c.items[key]
	if !exists {
		c.misses++
		return nil, false
	}

	ent := elem.Value.(*entry)
	if time.Now().After(ent.expiresAt) {
		c.removeElement(elem)
		c.misses++
		return nil, false
	}

	c.evictList.MoveToFront(elem)
	c.hits++
	return ent.value, true
}

// Set stores a value in cache with the specified TTL (DefaultTTL when zero).
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.ttl
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Rough size estimate: fixed overhead plus key length. Decision values
	// are booleans and short string slices, so precision does not matter.
	size := int64(100 + len(key))

	if elem, exists := c.items[key]; exists {
		ent := elem.Value.(*entry)
		c.currentSize += size - ent.size
		ent.value = value
		ent.expiresAt = time.Now().Add(ttl)
		ent.size = size
		c.evictList.MoveToFront(elem)
		return nil
	}

	elem := c.evictList.PushFront(&entry{
		key:       key,
		value:     value,
		expiresAt: time.Now().Add(ttl),
		size:      size,
	})
	c.items[key] = elem
	c.currentSize += size
	c.keysAdded++

	for c.currentSize > c.maxSize && c.evictList.Len() > 0 {
		c.removeElement(c.evictList.Back())
		c.keysEvicted++
	}

	return nil
}

// Delete removes a value from cache.
func (c *Cache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, exists := c.items[key]; exists {
		c.removeElement(elem)
	}
	return nil
}

// Clear removes all entries from cache.
func (c *Cache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*list.Element)
	c.evictList.Init()
	c.currentSize = 0
	return nil
}

// Close releases resources (no-op for memory cache).
func (c *Cache) Close() error {
	return nil
}

// Metrics returns cache statistics.
func (c *Cache) Metrics() *cache.Metrics {
	c.mu.Lock()
	defer c.mu.Unlock()

	return &cache.Metrics{
		Hits:        c.hits,
		Misses:      c.misses,
		KeysAdded:   c.keysAdded,
		KeysEvicted: c.keysEvicted,
	}
}

// Len returns the current number of items in cache.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evictList.Len()
}

// Size returns the current approximate total size in bytes.
func (c *Cache) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentSize
}

// removeElement removes an element from cache. Caller holds the lock.
func (c *Cache) removeElement(elem *list.Element) {
	c.evictList.Remove(elem)
	ent := elem.Value.(*entry)
	delete(c.items, ent.key)
	c.currentSize -= ent.size
}
