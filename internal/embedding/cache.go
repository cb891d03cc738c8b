package embedding

import (
	"container/list"
	"context"
	"slices"
	"sync"
)

// EmbeddingCache is an LRU cache for encodings keyed by text.
type EmbeddingCache struct {
	capacity int
	cache    map[string]*list.Element
	lru      *list.List
	mu       sync.Mutex
}

type cacheEntry struct {
	key   string
	value Encoding
}

// NewEmbeddingCache creates a new cache with the given capacity.
func NewEmbeddingCache(capacity int) *EmbeddingCache {
	return &EmbeddingCache{
		capacity: capacity,
		cache:    make(map[string]*list.Element),
		lru:      list.New(),
	}
}

// Get returns the cached encoding for key if present.
func (c *EmbeddingCache) Get(key string) (Encoding, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.cache[key]; ok {
		c.lru.MoveToFront(elem)
		return elem.Value.(*cacheEntry).value, true
	}
	return Encoding{}, false
}

// Set stores the encoding for key, evicting the oldest entry if at capacity.
func (c *EmbeddingCache) Set(key string, value Encoding) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.cache[key]; ok {
		c.lru.MoveToFront(elem)
		elem.Value.(*cacheEntry).value = value
		return
	}

	entry := &cacheEntry{key: key, value: value}
	elem := c.lru.PushFront(entry)
	c.cache[key] = elem

	if c.lru.Len() > c.capacity {
		oldest := c.lru.Back()
		if oldest != nil {
			c.lru.Remove(oldest)
			delete(c.cache, oldest.Value.(*cacheEntry).key)
		}
	}
}

// Len returns the number of cached entries.
func (c *EmbeddingCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// cachingEncoder serves repeated texts from an EmbeddingCache. Vectors are
// copied in and out so callers cannot corrupt cached entries.
type cachingEncoder struct {
	next  Encoder
	cache *EmbeddingCache
}

func newCachingEncoder(next Encoder, capacity int) *cachingEncoder {
	return &cachingEncoder{next: next, cache: NewEmbeddingCache(capacity)}
}

func (c *cachingEncoder) Encode(ctx context.Context, text string) (Encoding, error) {
	if hit, ok := c.cache.Get(text); ok {
		return cloneEncoding(hit), nil
	}
	enc, err := c.next.Encode(ctx, text)
	if err != nil {
		return Encoding{}, err
	}
	c.cache.Set(text, cloneEncoding(enc))
	return enc, nil
}

func cloneEncoding(e Encoding) Encoding {
	out := Encoding{Vector: slices.Clone(e.Vector)}
	if e.Usage != nil {
		u := *e.Usage
		out.Usage = &u
	}
	return out
}
