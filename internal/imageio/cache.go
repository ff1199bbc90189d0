package imageio

import (
	"fmt"
	"os"
	"sync"
	"time"

	"image-morpher/internal/raster"
)

// Cache is a concurrency-safe raster cache keyed by path. An entry is
// reloaded when the file's modification time or size changes.
type Cache struct {
	mu    sync.RWMutex
	items map[cacheKey]*cacheEntry
}

type cacheKey struct {
	path string
	gray bool
}

type cacheEntry struct {
	r       *raster.Raster
	modTime time.Time
	size    int64
}

// NewCache creates an empty raster cache.
func NewCache() *Cache {
	return &Cache{items: make(map[cacheKey]*cacheEntry)}
}

// Load returns the raster at path, decoding it only if it changed since the
// last call. The returned raster is shared; callers must not modify it.
func (c *Cache) Load(path string, gray bool) (*raster.Raster, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("imageio: stat %s: %w", path, err)
	}
	key := cacheKey{path: path, gray: gray}

	// Fast path: read lock
	c.mu.RLock()
	if e, ok := c.items[key]; ok && e.fresh(info) {
		c.mu.RUnlock()
		return e.r, nil
	}
	c.mu.RUnlock()

	r, err := LoadRaster(path, gray)
	if err != nil {
		return nil, err
	}

	// Write lock with double-check
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.items[key]; ok && e.fresh(info) {
		return e.r, nil
	}
	c.items[key] = &cacheEntry{r: r, modTime: info.ModTime(), size: info.Size()}
	return r, nil
}

func (e *cacheEntry) fresh(info os.FileInfo) bool {
	return e.modTime.Equal(info.ModTime()) && e.size == info.Size()
}

// Len returns the number of cached rasters.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
