package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRUCache_SetGet(t *testing.T) {
	cache := NewLRUCache[string, int](10, time.Minute)

	_, ok := cache.Get("missing")
	assert.False(t, ok)

	cache.Set("a", 1)
	cache.Set("a", 2)
	v, ok := cache.Get("a")
	require.True(t, ok)
	assert.Equal(t, 2, v)
	assert.Equal(t, 1, cache.Len())
}

func TestLRUCache_Defaults(t *testing.T) {
	cache := NewLRUCache[string, int](0, 0)
	assert.Equal(t, 1000, cache.capacity)
	assert.Equal(t, 5*time.Minute, cache.ttl)
}

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	cache := NewLRUCache[string, int](2, time.Minute)

	cache.Set("a", 1)
	cache.Set("b", 2)
	// Touch a so b becomes the eviction candidate.
	_, _ = cache.Get("a")
	cache.Set("c", 3)

	_, ok := cache.Get("b")
	assert.False(t, ok)
	_, ok = cache.Get("a")
	assert.True(t, ok)
	_, ok = cache.Get("c")
	assert.True(t, ok)
	assert.Equal(t, 2, cache.Len())
}

func TestLRUCache_Expiry(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cache := NewLRUCache[string, int](10, time.Minute)
	cache.now = func() time.Time { return now }

	cache.Set("a", 1)
	now = now.Add(59 * time.Second)
	_, ok := cache.Get("a")
	assert.True(t, ok)

	now = now.Add(2 * time.Second)
	_, ok = cache.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, cache.Len())
}

func TestLRUCache_Concurrent(t *testing.T) {
	cache := NewLRUCache[string, int](50, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				key := fmt.Sprintf("k%d", (worker*j)%80)
				cache.Set(key, j)
				cache.Get(key)
			}
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, cache.Len(), 50)
}
