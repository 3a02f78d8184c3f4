package cache

import (
	"bytes"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestLogger returns a logger that discards all output
func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

// newTestByteCache creates a ByteCache on a mock clock so tests can control
// entry ages without sleeping.
func newTestByteCache(t *testing.T, cfg ByteCacheConfig) (*ByteCache, *clock.Mock) {
	t.Helper()

	c, err := NewByteCache(cfg, setupTestLogger())
	require.NoError(t, err)

	mock := clock.NewMock()
	c.clock = mock
	return c, mock
}

func TestNewByteCache(t *testing.T) {
	t.Parallel()

	t.Run("valid config", func(t *testing.T) {
		t.Parallel()

		c, err := NewByteCache(ByteCacheConfig{
			MaxTotalBytes: 1024,
			MaxEntryBytes: 256,
			TTL:           time.Minute,
		}, setupTestLogger())

		require.NoError(t, err)
		assert.NotNil(t, c)
	})

	t.Run("nil logger", func(t *testing.T) {
		t.Parallel()

		_, err := NewByteCache(ByteCacheConfig{
			MaxTotalBytes: 1024,
			MaxEntryBytes: 256,
			TTL:           time.Minute,
		}, nil)

		assert.ErrorIs(t, err, ErrNilLogger)
	})

	t.Run("invalid budgets", func(t *testing.T) {
		t.Parallel()

		cases := []ByteCacheConfig{
			{MaxTotalBytes: 0, MaxEntryBytes: 256, TTL: time.Minute},
			{MaxTotalBytes: 1024, MaxEntryBytes: 0, TTL: time.Minute},
			{MaxTotalBytes: 1024, MaxEntryBytes: 256, TTL: 0},
			{MaxTotalBytes: -1, MaxEntryBytes: 256, TTL: time.Minute},
		}
		for _, cfg := range cases {
			_, err := NewByteCache(cfg, setupTestLogger())
			assert.ErrorIs(t, err, ErrInvalidCacheConfig)
		}
	})
}

func TestByteCache_SetGet(t *testing.T) {
	t.Parallel()

	c, _ := newTestByteCache(t, ByteCacheConfig{
		MaxTotalBytes: 100,
		MaxEntryBytes: 50,
		TTL:           time.Minute,
	})

	payload := []byte("some binary payload")
	c.Set("a", payload)

	got, ok := c.Get("a")
	require.True(t, ok)
	assert.True(t, bytes.Equal(payload, got))

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestByteCache_OversizedEntryDropped(t *testing.T) {
	t.Parallel()

	c, _ := newTestByteCache(t, ByteCacheConfig{
		MaxTotalBytes: 100,
		MaxEntryBytes: 10,
		TTL:           time.Minute,
	})

	c.Set("big", make([]byte, 11))

	_, ok := c.Get("big")
	assert.False(t, ok)

	stats := c.Stats()
	assert.Equal(t, 0, stats.Entries)
	assert.Equal(t, int64(0), stats.CurrentBytes)
}

func TestByteCache_EvictsOldestInserted(t *testing.T) {
	t.Parallel()

	// Budget fits A+B but not A+B+C, so inserting C must evict A.
	c, _ := newTestByteCache(t, ByteCacheConfig{
		MaxTotalBytes: 100,
		MaxEntryBytes: 50,
		TTL:           time.Minute,
	})

	c.Set("a", make([]byte, 40))
	c.Set("b", make([]byte, 40))

	// Reading A must not protect it from eviction.
	_, ok := c.Get("a")
	require.True(t, ok)

	c.Set("c", make([]byte, 40))

	_, ok = c.Get("a")
	assert.False(t, ok, "oldest-inserted entry should have been evicted")

	_, ok = c.Get("b")
	assert.True(t, ok)

	_, ok = c.Get("c")
	assert.True(t, ok)

	stats := c.Stats()
	assert.Equal(t, 2, stats.Entries)
	assert.Equal(t, int64(80), stats.CurrentBytes)
	assert.Equal(t, int64(1), stats.Evictions)
}

func TestByteCache_TTLExpiry(t *testing.T) {
	t.Parallel()

	c, mock := newTestByteCache(t, ByteCacheConfig{
		MaxTotalBytes: 100,
		MaxEntryBytes: 50,
		TTL:           time.Minute,
	})

	c.Set("a", make([]byte, 10))

	// Just inside the TTL the entry is still served.
	mock.Add(time.Minute)
	_, ok := c.Get("a")
	require.True(t, ok)

	// Past the TTL the entry is removed on read.
	mock.Add(time.Second)
	_, ok = c.Get("a")
	assert.False(t, ok)

	stats := c.Stats()
	assert.Equal(t, 0, stats.Entries)
	assert.Equal(t, int64(0), stats.CurrentBytes)
	assert.Equal(t, int64(1), stats.Expirations)
}

func TestByteCache_ResetMovesToNewest(t *testing.T) {
	t.Parallel()

	c, _ := newTestByteCache(t, ByteCacheConfig{
		MaxTotalBytes: 100,
		MaxEntryBytes: 50,
		TTL:           time.Minute,
	})

	c.Set("a", make([]byte, 30))
	c.Set("b", make([]byte, 30))

	// Re-setting A moves it to the newest position and re-accounts its size.
	c.Set("a", make([]byte, 40))

	stats := c.Stats()
	assert.Equal(t, 2, stats.Entries)
	assert.Equal(t, int64(70), stats.CurrentBytes)

	// B is now the oldest, so the next squeeze evicts B rather than A.
	c.Set("c", make([]byte, 40))

	_, ok := c.Get("b")
	assert.False(t, ok)

	_, ok = c.Get("a")
	assert.True(t, ok)
}

func TestByteCache_ValueLargerThanTotalBudget(t *testing.T) {
	t.Parallel()

	// Per-entry limit above the total budget exposes the edge where a value
	// passes the entry check but can never fit in the cache.
	c, _ := newTestByteCache(t, ByteCacheConfig{
		MaxTotalBytes: 50,
		MaxEntryBytes: 100,
		TTL:           time.Minute,
	})

	c.Set("a", make([]byte, 30))
	c.Set("huge", make([]byte, 60))

	// The huge value is not stored; the entries drained to make room for it
	// stay gone.
	_, ok := c.Get("huge")
	assert.False(t, ok)

	stats := c.Stats()
	assert.Equal(t, 0, stats.Entries)
	assert.Equal(t, int64(0), stats.CurrentBytes)
}

func TestByteCache_Delete(t *testing.T) {
	t.Parallel()

	c, _ := newTestByteCache(t, ByteCacheConfig{
		MaxTotalBytes: 100,
		MaxEntryBytes: 50,
		TTL:           time.Minute,
	})

	c.Set("a", make([]byte, 20))
	c.Set("b", make([]byte, 20))

	c.Delete("a")
	c.Delete("a") // deleting twice is a no-op

	_, ok := c.Get("a")
	assert.False(t, ok)

	stats := c.Stats()
	assert.Equal(t, 1, stats.Entries)
	assert.Equal(t, int64(20), stats.CurrentBytes)
}

func TestByteCache_SizeAccountingInvariant(t *testing.T) {
	t.Parallel()

	c, mock := newTestByteCache(t, ByteCacheConfig{
		MaxTotalBytes: 200,
		MaxEntryBytes: 100,
		TTL:           time.Minute,
	})

	// Mixed mutations; after each one the running total must equal the sum
	// of live entry sizes.
	checkInvariant := func() {
		var sum int64
		for e := c.order.Front(); e != nil; e = e.Next() {
			sum += e.Value.(*byteEntry).size
		}
		require.Equal(t, sum, c.currentBytes)
	}

	c.Set("a", make([]byte, 50))
	checkInvariant()
	c.Set("b", make([]byte, 80))
	checkInvariant()
	c.Set("a", make([]byte, 90))
	checkInvariant()
	c.Delete("b")
	checkInvariant()
	c.Set("c", make([]byte, 100))
	checkInvariant()
	mock.Add(2 * time.Minute)
	_, _ = c.Get("a")
	checkInvariant()
	c.Set("d", make([]byte, 100))
	checkInvariant()
}
