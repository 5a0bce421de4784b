package scope

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/maypok86/otter"
)

// Cache keeps parsed indexes keyed by language and content hash, so repeated
// lookups on an unchanged file skip the parse.
type Cache struct {
	entries otter.Cache[string, *Index]
}

// NewCache creates a cache bounded to capacity entries. A positive ttl expires
// entries that long after they were written.
func NewCache(capacity int, ttl time.Duration) (*Cache, error) {
	builder := otter.MustBuilder[string, *Index](capacity).CollectStats()

	var (
		entries otter.Cache[string, *Index]
		err     error
	)
	if ttl > 0 {
		entries, err = builder.WithTTL(ttl).Build()
	} else {
		entries, err = builder.Build()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to build index cache: %w", err)
	}

	return &Cache{entries: entries}, nil
}

// Get returns the cached index for the key.
func (c *Cache) Get(key string) (*Index, bool) {
	return c.entries.Get(key)
}

// Set stores idx under key.
func (c *Cache) Set(key string, idx *Index) {
	c.entries.Set(key, idx)
}

// Len returns the number of cached indexes.
func (c *Cache) Len() int {
	return c.entries.Size()
}

// HitRatio returns the fraction of lookups served from the cache.
func (c *Cache) HitRatio() float64 {
	return c.entries.Stats().Ratio()
}

// Close stops the cache's background goroutines.
func (c *Cache) Close() {
	c.entries.Close()
}

// cacheKey builds the cache key for a language and source.
func cacheKey(lang string, src []byte) string {
	sum := sha256.Sum256(src)
	return lang + ":" + hex.EncodeToString(sum[:])
}
