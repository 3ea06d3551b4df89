package dedupe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time          { return f.t }
func (f *fakeClock) Advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestCache(capacity int, ttl time.Duration) (*Cache, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)}
	c := NewCache(capacity, ttl)
	c.now = clock.Now
	return c, clock
}

func TestCacheRemembersRequest(t *testing.T) {
	cache, _ := newTestCache(10, time.Minute)
	require.False(t, cache.Seen("req-1"))
	cache.Remember("req-1")
	require.True(t, cache.Seen("req-1"))
	require.False(t, cache.Seen("req-2"))
}

func TestCacheTTLExpiry(t *testing.T) {
	cache, clock := newTestCache(10, time.Minute)
	cache.Remember("req-1")

	clock.Advance(61 * time.Second)
	require.False(t, cache.Seen("req-1"))

	cache.Remember("req-2")
	require.Equal(t, 1, cache.Len())
}

func TestCacheCapacityEvictsOldest(t *testing.T) {
	cache, clock := newTestCache(2, time.Hour)
	cache.Remember("first")
	clock.Advance(time.Second)
	cache.Remember("second")
	clock.Advance(time.Second)
	cache.Remember("third")

	require.False(t, cache.Seen("first"))
	require.True(t, cache.Seen("second"))
	require.True(t, cache.Seen("third"))
	require.Equal(t, 2, cache.Len())
}

func TestCacheRememberAgainRefreshesStamp(t *testing.T) {
	cache, clock := newTestCache(10, time.Minute)
	cache.Remember("req-1")
	clock.Advance(50 * time.Second)
	cache.Remember("req-1")
	clock.Advance(50 * time.Second)
	cache.Remember("other")

	require.True(t, cache.Seen("req-1"))
}

func TestNewCacheDefaults(t *testing.T) {
	cache := NewCache(0, 0)
	require.Equal(t, 1, cache.capacity)
	require.Equal(t, time.Hour, cache.ttl)
}
