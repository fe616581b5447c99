package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTTLCacheGetSetDelete(t *testing.T) {
	c := NewTTLCache[string, int]()

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("a", 42, time.Minute)
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 42, v)

	c.Delete("a")
	_, ok = c.Get("a")
	assert.False(t, ok)
}

func TestTTLCacheExpiry(t *testing.T) {
	c := NewTTLCache[string, string]()

	c.Set("short", "gone soon", 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	_, ok := c.Get("short")
	assert.False(t, ok)
}

func TestTTLCacheIgnoresNonPositiveTTL(t *testing.T) {
	c := NewTTLCache[string, int]()

	c.Set("zero", 1, 0)
	c.Set("negative", 2, -time.Second)

	_, ok := c.Get("zero")
	assert.False(t, ok)
	_, ok = c.Get("negative")
	assert.False(t, ok)
}

func TestTTLCacheConcurrentAccess(t *testing.T) {
	c := NewTTLCache[int, int]()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Set(n, j, time.Minute)
				c.Get(n)
				if j%10 == 0 {
					c.Delete(n)
				}
			}
		}(i)
	}
	wg.Wait()
}
