package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/maypok86/otter"

	"github.com/codeatlas-io/codeatlas/internal/analyzer"
)

// Cache stores extraction results keyed by path plus content checksum, so
// watch-mode re-runs skip files whose bytes have not changed. A cached
// result keeps the element ids it was issued; the owning pipeline never
// resets its id generator, so fresh extractions cannot collide with cached
// ones.
type Cache struct {
	inner otter.Cache[string, *analyzer.Result]
}

// NewCache creates a cache holding up to capacity extraction results.
func NewCache(capacity int) (*Cache, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("cache capacity must be positive, got %d", capacity)
	}

	inner, err := otter.MustBuilder[string, *analyzer.Result](capacity).Build()
	if err != nil {
		return nil, fmt.Errorf("build extraction cache: %w", err)
	}
	return &Cache{inner: inner}, nil
}

// Key derives the cache key for one file: relative path plus sha256 of the
// content, so both renames and edits miss.
func Key(relPath string, source []byte) string {
	sum := sha256.Sum256(source)
	return relPath + ":" + hex.EncodeToString(sum[:])
}

// Get returns the cached result for key.
func (c *Cache) Get(key string) (*analyzer.Result, bool) {
	return c.inner.Get(key)
}

// Set stores a result under key.
func (c *Cache) Set(key string, res *analyzer.Result) {
	c.inner.Set(key, res)
}

// Len returns the number of cached results.
func (c *Cache) Len() int {
	return c.inner.Size()
}

// Close releases the cache's resources.
func (c *Cache) Close() {
	c.inner.Close()
}
