package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTextCacheExpiry(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewTextCache(10 * time.Minute)
	c.now = func() time.Time { return now }

	c.Set("k", "hello")
	text, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "hello", text)

	now = now.Add(10 * time.Minute)
	_, ok = c.Get("k")
	assert.False(t, ok)

	stats := c.GetCacheStats()
	assert.Equal(t, 0, stats["entries"])
	assert.Equal(t, 1, stats["hits"])
	assert.Equal(t, 1, stats["misses"])
	assert.Equal(t, 600.0, stats["ttl_seconds"])
}

func TestTextCacheDisabled(t *testing.T) {
	c := NewTextCache(0)
	c.Set("k", "hello")
	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestTextCacheClear(t *testing.T) {
	c := NewTextCache(time.Hour)
	c.Set("a", "1")
	c.Set("b", "2")
	assert.Equal(t, 2, c.GetCacheStats()["entries"])

	c.ClearCache()
	assert.Equal(t, 0, c.GetCacheStats()["entries"])
	_, ok := c.Get("a")
	assert.False(t, ok)
}
