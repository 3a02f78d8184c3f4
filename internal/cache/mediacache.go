package cache

import (
	"container/list"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// Media is a cached binary payload together with its content type, as served
// back to proxy endpoints.
type Media struct {
	Data        []byte
	ContentType string
}

// MediaCacheConfig holds the construction-time budgets for a MediaCache.
type MediaCacheConfig struct {
	// MaxEntries is the hard cap on the number of stored entries
	MaxEntries int

	// TTL is the maximum age of an entry before Get treats it as absent
	TTL time.Duration
}

// MediaCache is a count-bounded in-memory store for media payloads. The
// entry count never exceeds MaxEntries: inserting into a full cache first
// evicts the single oldest-inserted entry. Entries expire after a fixed
// TTL. It is safe for concurrent use.
type MediaCache struct {
	maxEntries int
	ttl        time.Duration

	mu         sync.Mutex
	items      map[string]*list.Element
	order      *list.List // front = newest inserted, back = oldest
	totalBytes int64

	hits        int64
	misses      int64
	evictions   int64
	expirations int64

	clock  clock.Clock
	logger *slog.Logger
}

// mediaEntry is a single cached media payload.
type mediaEntry struct {
	key        string
	media      Media
	insertedAt time.Time
}

// MediaCacheStats is a point-in-time snapshot of a MediaCache. TotalBytes
// is informational only; the cache is bounded purely by entry count.
type MediaCacheStats struct {
	Entries     int
	MaxEntries  int
	TotalBytes  int64
	Hits        int64
	Misses      int64
	Evictions   int64
	Expirations int64
}

// NewMediaCache creates a MediaCache with the given budgets.
func NewMediaCache(cfg MediaCacheConfig, logger *slog.Logger) (*MediaCache, error) {
	if logger == nil {
		return nil, ErrNilLogger
	}
	if cfg.MaxEntries <= 0 || cfg.TTL <= 0 {
		return nil, fmt.Errorf("%w: max_entries=%d ttl=%s",
			ErrInvalidCacheConfig, cfg.MaxEntries, cfg.TTL)
	}

	return &MediaCache{
		maxEntries: cfg.MaxEntries,
		ttl:        cfg.TTL,
		items:      make(map[string]*list.Element),
		order:      list.New(),
		clock:      clock.New(),
		logger:     logger,
	}, nil
}

// Get returns the media stored under key, or false if the key is absent or
// its entry has outlived the TTL. Expired entries are removed on the spot.
func (c *MediaCache) Get(key string) (Media, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		c.misses++
		return Media{}, false
	}

	entry := elem.Value.(*mediaEntry)
	if c.clock.Now().Sub(entry.insertedAt) > c.ttl {
		c.removeElement(elem)
		c.expirations++
		c.misses++
		return Media{}, false
	}

	c.hits++
	return entry.media, true
}

// Set stores media under key. Overwriting an existing key updates the entry
// in place and does not count against the capacity check. When the cache is
// full, exactly one oldest-inserted entry is evicted before inserting, so
// the entry count never exceeds MaxEntries.
func (c *MediaCache) Set(key string, data []byte, contentType string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		entry := elem.Value.(*mediaEntry)
		c.totalBytes += int64(len(data)) - int64(len(entry.media.Data))
		entry.media = Media{Data: data, ContentType: contentType}
		entry.insertedAt = c.clock.Now()
		return
	}

	if len(c.items) >= c.maxEntries {
		c.evictOldest()
	}

	elem := c.order.PushFront(&mediaEntry{
		key:        key,
		media:      Media{Data: data, ContentType: contentType},
		insertedAt: c.clock.Now(),
	})
	c.items[key] = elem
	c.totalBytes += int64(len(data))
}

// Delete removes the entry for key if present.
func (c *MediaCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.removeElement(elem)
	}
}

// Stats returns a snapshot of the cache's occupancy and counters.
func (c *MediaCache) Stats() MediaCacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return MediaCacheStats{
		Entries:     len(c.items),
		MaxEntries:  c.maxEntries,
		TotalBytes:  c.totalBytes,
		Hits:        c.hits,
		Misses:      c.misses,
		Evictions:   c.evictions,
		Expirations: c.expirations,
	}
}

// evictOldest removes the oldest-inserted entry (must be called with lock held).
func (c *MediaCache) evictOldest() {
	elem := c.order.Back()
	if elem == nil {
		return
	}
	entry := elem.Value.(*mediaEntry)
	c.logger.Debug("evicting oldest media cache entry", "key", entry.key)
	c.removeElement(elem)
	c.evictions++
}

// removeElement unlinks an entry (must be called with lock held).
func (c *MediaCache) removeElement(elem *list.Element) {
	c.order.Remove(elem)
	entry := elem.Value.(*mediaEntry)
	delete(c.items, entry.key)
	c.totalBytes -= int64(len(entry.media.Data))
}
