// Package render materializes chain output into bitmaps and provides the
// execution contexts previews and exports run on.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/disintegration/imaging"
)

var ErrEmptyImage = errors.New("empty image")

// Context caches bitmaps shared by preview and full-size renders. Clear
// discards the cache without touching bitmaps already handed out, so it is
// safe to call while renders are in flight.
type Context struct {
	mu      sync.Mutex
	limit   int
	gen     uint64
	entries map[string]*image.NRGBA
	order   []string
	hits    uint64
	misses  uint64
}

func NewContext(limit int) *Context {
	if limit < 1 {
		limit = 1
	}
	return &Context{
		limit:   limit,
		entries: make(map[string]*image.NRGBA),
	}
}

// Load returns the cached bitmap for key, building and caching it on a miss.
// build runs without the lock held. A bitmap built across a Clear is returned
// but not cached.
func (c *Context) Load(key string, build func() (*image.NRGBA, error)) (*image.NRGBA, error) {
	c.mu.Lock()
	if img, ok := c.entries[key]; ok {
		c.hits++
		c.mu.Unlock()
		return img, nil
	}
	c.misses++
	gen := c.gen
	c.mu.Unlock()

	img, err := build()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return img, nil
	}
	if _, ok := c.entries[key]; !ok {
		c.order = append(c.order, key)
		for len(c.order) > c.limit {
			delete(c.entries, c.order[0])
			c.order = c.order[1:]
		}
	}
	c.entries[key] = img
	return img, nil
}

func (c *Context) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.entries = make(map[string]*image.NRGBA)
	c.order = nil
}

func (c *Context) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Context) Stats() (hits, misses uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// Materialize converts an intermediate image into a fresh bitmap that shares
// no memory with its input.
func Materialize(img image.Image) (*image.NRGBA, error) {
	if img == nil {
		return nil, fmt.Errorf("materialize: %w", ErrEmptyImage)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("materialize %v: %w", img.Bounds(), ErrEmptyImage)
	}
	return imaging.Clone(img), nil
}

// Recompress round-trips img through JPEG at the given quality. Quality 0
// returns a plain copy.
func Recompress(img image.Image, quality int) (*image.NRGBA, error) {
	if quality <= 0 {
		return Materialize(img)
	}
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("recompress: %w", ErrEmptyImage)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("failed to encode preview base: %w", err)
	}
	decoded, err := imaging.Decode(&buf)
	if err != nil {
		return nil, fmt.Errorf("failed to decode preview base: %w", err)
	}
	return imaging.Clone(decoded), nil
}
