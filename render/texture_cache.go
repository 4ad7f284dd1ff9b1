package render

import (
	"fmt"
	"sync"
)

const (
	defaultHardCapBytes = 800 * 1024 * 1024
	defaultSoftCapBytes = 80 * 1024 * 1024
)

// TextureKey identifies a cached texture by its dimensions and internal
// format (§4.7 "keyed by (width, height, internal format)").
type TextureKey struct {
	Width, Height int
	Format        int // opaque internal-format tag
}

func (k TextureKey) String() string {
	return fmt.Sprintf("%dx%d#%d", k.Width, k.Height, k.Format)
}

// CachedTexture wraps a Texture with the byte size charged against the
// cache's budget and a reference count.
type CachedTexture struct {
	Key    TextureKey
	Tex    Texture
	Bytes  int64
	refs   int
	evicted bool
}

// TextureCache is a FIFO, byte-budgeted cache of GPU textures keyed by
// (width, height, format). Unlike cache.ShardedCache's count-capped LRU,
// eviction here tracks total bytes charged, not entry count, and evicts
// oldest-first rather than least-recently-used -- the render environment
// wants predictable eviction order for same-shaped frame buffers, not
// recency-weighted reuse (§4.7).
type TextureCache struct {
	mu       sync.Mutex
	hardCap  int64
	softCap  int64
	size     int64
	order    []*CachedTexture // FIFO order, oldest first
	byKey    map[TextureKey][]*CachedTexture
}

// NewTextureCache creates a cache with the given hard and soft byte caps.
func NewTextureCache(hardCap, softCap int64) *TextureCache {
	return &TextureCache{
		hardCap: hardCap,
		softCap: softCap,
		byKey:   make(map[TextureKey][]*CachedTexture),
	}
}

// RequestTexture returns a cached texture matching key, or creates one via
// create and registers it. The returned *CachedTexture has one reference
// held by the caller; call Release when done (§4.7 "returned as
// reference-counted handles").
func (c *TextureCache) RequestTexture(key TextureKey, create func() (Texture, int64, error)) (*CachedTexture, error) {
	c.mu.Lock()
	if bucket := c.byKey[key]; len(bucket) > 0 {
		for i, ct := range bucket {
			if ct.refs == 0 {
				ct.refs = 1
				bucket[i] = bucket[len(bucket)-1]
				c.byKey[key] = bucket[:len(bucket)-1]
				c.mu.Unlock()
				return ct, nil
			}
		}
	}
	c.mu.Unlock()

	tex, size, err := create()
	if err != nil {
		return nil, err
	}
	ct := &CachedTexture{Key: key, Tex: tex, Bytes: size, refs: 1}

	c.mu.Lock()
	c.order = append(c.order, ct)
	c.size += size
	c.shrinkIfNeededLocked()
	c.mu.Unlock()

	return ct, nil
}

// Release returns ct to the free pool (available for reuse by a future
// RequestTexture with the same key), or destroys it immediately if
// eviction already claimed it while it was checked out.
func (c *TextureCache) Release(ct *CachedTexture) {
	c.mu.Lock()
	ct.refs = 0
	if ct.evicted {
		c.mu.Unlock()
		ct.Tex.Destroy()
		return
	}
	c.byKey[ct.Key] = append(c.byKey[ct.Key], ct)
	c.mu.Unlock()
}

// shrinkIfNeededLocked implements the hard/soft cap policy (§4.7): once
// total size exceeds the soft cap, evict oldest entries until size is
// back down to half the hard cap. The caller must hold c.mu.
func (c *TextureCache) shrinkIfNeededLocked() {
	if c.size <= c.softCap {
		return
	}
	target := c.hardCap / 2
	for c.size > target && len(c.order) > 0 {
		ct := c.order[0]
		c.order = c.order[1:]
		if ct.refs > 0 {
			// Checked out: mark for destruction on Release instead of now.
			ct.evicted = true
			c.size -= ct.Bytes
			continue
		}
		c.removeFromFreeListLocked(ct)
		c.size -= ct.Bytes
		ct.Tex.Destroy()
	}
}

func (c *TextureCache) removeFromFreeListLocked(ct *CachedTexture) {
	bucket := c.byKey[ct.Key]
	for i, f := range bucket {
		if f == ct {
			bucket[i] = bucket[len(bucket)-1]
			c.byKey[ct.Key] = bucket[:len(bucket)-1]
			return
		}
	}
}

// Size returns the current total bytes charged against the cache.
func (c *TextureCache) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

// Len returns the number of textures currently tracked (checked out or free).
func (c *TextureCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.order)
}

// Clear destroys every tracked texture and resets the cache. Called when
// the render environment is torn down.
func (c *TextureCache) Clear() {
	c.mu.Lock()
	order := c.order
	c.order = nil
	c.byKey = make(map[TextureKey][]*CachedTexture)
	c.size = 0
	c.mu.Unlock()

	for _, ct := range order {
		ct.Tex.Destroy()
	}
}
