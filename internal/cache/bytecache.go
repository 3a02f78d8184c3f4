package cache

import (
	"container/list"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/dustin/go-humanize"
)

// Common errors returned by cache constructors
var (
	// ErrInvalidCacheConfig is returned when a cache is constructed with
	// non-positive budgets or a non-positive TTL
	ErrInvalidCacheConfig = errors.New("invalid cache configuration")

	// ErrNilLogger is returned when a cache is constructed without a logger
	ErrNilLogger = errors.New("logger cannot be nil")
)

// ByteCacheConfig holds the construction-time budgets for a ByteCache.
// Configuration is supplied once at startup and is immutable for the
// cache's lifetime.
type ByteCacheConfig struct {
	// MaxTotalBytes is the budget for the sum of all stored payload sizes
	MaxTotalBytes int64

	// MaxEntryBytes is the largest single payload the cache will accept.
	// Larger payloads are silently dropped on Set.
	MaxEntryBytes int64

	// TTL is the maximum age of an entry before Get treats it as absent
	TTL time.Duration
}

// ByteCache is a byte-size-bounded in-memory store for binary payloads.
// Entries expire after a fixed TTL and are evicted oldest-inserted-first
// when the total size budget is exceeded. It is safe for concurrent use.
type ByteCache struct {
	maxTotalBytes int64
	maxEntryBytes int64
	ttl           time.Duration

	mu           sync.Mutex
	items        map[string]*list.Element
	order        *list.List // front = newest inserted, back = oldest
	currentBytes int64

	hits        int64
	misses      int64
	evictions   int64
	expirations int64

	clock  clock.Clock
	logger *slog.Logger
}

// byteEntry is a single cached payload plus its size accounting.
type byteEntry struct {
	key        string
	value      []byte
	size       int64
	insertedAt time.Time
}

// ByteCacheStats is a point-in-time snapshot of a ByteCache.
type ByteCacheStats struct {
	Entries       int
	CurrentBytes  int64
	MaxTotalBytes int64
	Hits          int64
	Misses        int64
	Evictions     int64
	Expirations   int64
}

// NewByteCache creates a ByteCache with the given budgets.
func NewByteCache(cfg ByteCacheConfig, logger *slog.Logger) (*ByteCache, error) {
	if logger == nil {
		return nil, ErrNilLogger
	}
	if cfg.MaxTotalBytes <= 0 || cfg.MaxEntryBytes <= 0 || cfg.TTL <= 0 {
		return nil, fmt.Errorf("%w: total=%d entry=%d ttl=%s",
			ErrInvalidCacheConfig, cfg.MaxTotalBytes, cfg.MaxEntryBytes, cfg.TTL)
	}

	return &ByteCache{
		maxTotalBytes: cfg.MaxTotalBytes,
		maxEntryBytes: cfg.MaxEntryBytes,
		ttl:           cfg.TTL,
		items:         make(map[string]*list.Element),
		order:         list.New(),
		clock:         clock.New(),
		logger:        logger,
	}, nil
}

// Get returns the payload stored under key, or false if the key is absent
// or its entry has outlived the TTL. An expired entry is removed on the
// spot; callers cannot distinguish expired from never-cached. Reading
// never changes an entry's eviction position.
func (c *ByteCache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		c.misses++
		return nil, false
	}

	entry := elem.Value.(*byteEntry)
	if c.clock.Now().Sub(entry.insertedAt) > c.ttl {
		c.removeElement(elem)
		c.expirations++
		c.misses++
		return nil, false
	}

	c.hits++
	return entry.value, true
}

// Set stores value under key. A value larger than the per-entry limit is
// dropped without error; the caller sees it as a later cache miss. Setting
// an existing key re-inserts it at the newest position with its size
// re-accounted. Oldest-inserted entries are evicted until the value fits
// within the total budget.
func (c *ByteCache) Set(key string, value []byte) {
	size := int64(len(value))
	if size > c.maxEntryBytes {
		c.logger.Debug("dropping oversized cache entry",
			"key", key,
			"size", humanize.IBytes(uint64(size)),
			"max_entry_size", humanize.IBytes(uint64(c.maxEntryBytes)))
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Remove any previous entry first so the key moves to the newest
	// position and its old size is released before the budget check.
	if elem, ok := c.items[key]; ok {
		c.removeElement(elem)
	}

	for c.currentBytes+size > c.maxTotalBytes && c.order.Len() > 0 {
		c.evictOldest()
	}

	// A value bigger than the whole budget cannot fit even in an empty
	// cache. It is not stored, and entries already evicted to make room
	// are not restored.
	if c.currentBytes+size > c.maxTotalBytes {
		c.logger.Warn("cache entry exceeds total size budget, not stored",
			"key", key,
			"size", humanize.IBytes(uint64(size)),
			"max_total_size", humanize.IBytes(uint64(c.maxTotalBytes)))
		return
	}

	elem := c.order.PushFront(&byteEntry{
		key:        key,
		value:      value,
		size:       size,
		insertedAt: c.clock.Now(),
	})
	c.items[key] = elem
	c.currentBytes += size
}

// Delete removes the entry for key if present.
func (c *ByteCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.removeElement(elem)
	}
}

// Stats returns a snapshot of the cache's size accounting and counters.
func (c *ByteCache) Stats() ByteCacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return ByteCacheStats{
		Entries:       len(c.items),
		CurrentBytes:  c.currentBytes,
		MaxTotalBytes: c.maxTotalBytes,
		Hits:          c.hits,
		Misses:        c.misses,
		Evictions:     c.evictions,
		Expirations:   c.expirations,
	}
}

// evictOldest removes the oldest-inserted entry (must be called with lock held).
func (c *ByteCache) evictOldest() {
	elem := c.order.Back()
	if elem == nil {
		return
	}
	entry := elem.Value.(*byteEntry)
	c.logger.Debug("evicting oldest cache entry",
		"key", entry.key,
		"size", humanize.IBytes(uint64(entry.size)))
	c.removeElement(elem)
	c.evictions++
}

// removeElement unlinks an entry and releases its size (must be called with
// lock held). Keeps the invariant currentBytes == sum of live entry sizes.
func (c *ByteCache) removeElement(elem *list.Element) {
	c.order.Remove(elem)
	entry := elem.Value.(*byteEntry)
	delete(c.items, entry.key)
	c.currentBytes -= entry.size
}
