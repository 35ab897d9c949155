package cache

import (
	"sync"
	"time"
)

type TextEntry struct {
	Text      string
	Timestamp time.Time
}

// TextCache keeps generated insight texts for a limited time so repeated
// dashboard refreshes do not hit the language model again.
type TextCache struct {
	mu      sync.RWMutex
	entries map[string]TextEntry // map[key]entry
	ttl     time.Duration
	now     func() time.Time
	hits    int
	misses  int
}

func NewTextCache(ttl time.Duration) *TextCache {
	return &TextCache{
		entries: make(map[string]TextEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns a cached text if it has not expired
func (tc *TextCache) Get(key string) (string, bool) {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	entry, ok := tc.entries[key]
	if !ok || tc.expired(entry) {
		if ok {
			delete(tc.entries, key)
		}
		tc.misses++
		return "", false
	}
	tc.hits++
	return entry.Text, true
}

// Set stores a text. A non-positive ttl disables caching.
func (tc *TextCache) Set(key, text string) {
	if tc.ttl <= 0 {
		return
	}
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.entries[key] = TextEntry{Text: text, Timestamp: tc.now()}
}

func (tc *TextCache) expired(entry TextEntry) bool {
	return tc.now().Sub(entry.Timestamp) >= tc.ttl
}

// GetCacheStats returns statistics about the current cache
func (tc *TextCache) GetCacheStats() map[string]interface{} {
	tc.mu.RLock()
	defer tc.mu.RUnlock()

	live := 0
	for _, entry := range tc.entries {
		if !tc.expired(entry) {
			live++
		}
	}

	return map[string]interface{}{
		"entries":     live,
		"hits":        tc.hits,
		"misses":      tc.misses,
		"ttl_seconds": tc.ttl.Seconds(),
	}
}

// ClearCache drops every entry.
func (tc *TextCache) ClearCache() {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.entries = make(map[string]TextEntry)
}
