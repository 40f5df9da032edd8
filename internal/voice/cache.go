package voice

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

// Cache defaults. Trainer cue texts recur heavily ("5 seconds left" fires in
// every exercise), so even a small cache removes most synthesis calls.
const (
	DefaultCacheBytes = 32 * 1024 * 1024
	DefaultCacheTTL   = 1 * time.Hour
)

// AudioCache is an in-memory audio cache keyed by a hash of the cue text.
// Entries expire after a fixed retention window; when the byte budget is
// exceeded the least-recently-modified entries are evicted first.
type AudioCache struct {
	mu       sync.Mutex
	entries  map[string]*list.Element
	order    *list.List // front = most recently stored
	size     int64
	maxBytes int64
	ttl      time.Duration
	now      func() time.Time
}

type cacheEntry struct {
	key      string
	audio    []byte
	storedAt time.Time
}

// NewAudioCache creates a cache bounded by maxBytes with the given entry TTL.
func NewAudioCache(maxBytes int64, ttl time.Duration) *AudioCache {
	if maxBytes <= 0 {
		maxBytes = DefaultCacheBytes
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &AudioCache{
		entries:  make(map[string]*list.Element),
		order:    list.New(),
		maxBytes: maxBytes,
		ttl:      ttl,
		now:      time.Now,
	}
}

// CacheKey returns the deterministic key for a cue text.
func CacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached audio for text, or false when absent or expired.
func (c *AudioCache) Get(text string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[CacheKey(text)]
	if !ok {
		return nil, false
	}
	entry := elem.Value.(*cacheEntry)
	if c.now().Sub(entry.storedAt) > c.ttl {
		c.removeLocked(elem)
		return nil, false
	}
	return entry.audio, true
}

// Put stores audio for text, refreshing the entry's modification time, and
// evicts oldest entries until the cache fits its byte budget.
func (c *AudioCache) Put(text string, audio []byte) {
	if len(audio) == 0 || int64(len(audio)) > c.maxBytes {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	key := CacheKey(text)
	if elem, ok := c.entries[key]; ok {
		c.removeLocked(elem)
	}

	entry := &cacheEntry{key: key, audio: audio, storedAt: c.now()}
	c.entries[key] = c.order.PushFront(entry)
	c.size += int64(len(audio))

	for c.size > c.maxBytes {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.removeLocked(oldest)
	}
}

// Size returns the current cache size in bytes.
func (c *AudioCache) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

// Len returns the number of cached entries.
func (c *AudioCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *AudioCache) removeLocked(elem *list.Element) {
	entry := elem.Value.(*cacheEntry)
	c.order.Remove(elem)
	delete(c.entries, entry.key)
	c.size -= int64(len(entry.audio))
}
