package glyph

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/batch2d/internal/engine/atlas"
	"github.com/Faultbox/batch2d/internal/engine/geom"
	"github.com/Faultbox/batch2d/internal/logger"
)

// Uploader places a bitmap in the atlas. *atlas.Atlas implements it.
type Uploader interface {
	Add(pixels []byte, w, h int) (atlas.Region, error)
}

// FullPolicy decides what happens when a glyph no longer fits in the atlas.
type FullPolicy int

const (
	// SkipGlyph logs once per key and leaves the glyph out of the output.
	SkipGlyph FullPolicy = iota
	// FailDraw returns atlas.ErrAtlasFull from the draw call.
	FailDraw
)

// ParseFullPolicy maps a config string to a FullPolicy.
func ParseFullPolicy(s string) (FullPolicy, error) {
	switch s {
	case "", "skip":
		return SkipGlyph, nil
	case "error":
		return FailDraw, nil
	default:
		return SkipGlyph, fmt.Errorf("unknown atlas_full policy %q", s)
	}
}

type entry struct {
	uv geom.Rect
	ok bool
}

// Cache maps glyph keys to atlas regions. Entries are never evicted.
type Cache struct {
	font    *Font
	up      Uploader
	policy  FullPolicy
	entries map[Key]entry

	rasterizations int
	dropped        int
}

// NewCache returns an empty cache that rasterizes with f and uploads to up.
func NewCache(f *Font, up Uploader, policy FullPolicy) *Cache {
	return &Cache{
		font:    f,
		up:      up,
		policy:  policy,
		entries: make(map[Key]entry),
	}
}

// Lookup returns the atlas UVs for g, rasterizing and uploading it on first
// use. ok is false for glyphs that have no bitmap in the atlas.
func (c *Cache) Lookup(g Glyph) (uv geom.Rect, ok bool, err error) {
	if e, hit := c.entries[g.Key]; hit {
		return e.uv, e.ok, nil
	}
	if g.Empty() {
		return geom.Rect{}, false, nil
	}

	bm, err := c.font.Rasterize(g.Key)
	if err != nil {
		return geom.Rect{}, false, fmt.Errorf("glyph %q: %w", g.Key.Rune, err)
	}
	c.rasterizations++

	// A zero-area bitmap for a glyph with a box would put every UV on one
	// texel. Leave such glyphs out rather than draw that texel stretched.
	if bm.W == 0 || bm.H == 0 {
		c.entries[g.Key] = entry{}
		logger.Debug("glyph has no bitmap",
			zap.String("rune", string(g.Key.Rune)),
			zap.Float32("width", g.W),
			zap.Float32("height", g.H),
		)
		return geom.Rect{}, false, nil
	}

	region, err := c.up.Add(bm.RGBA, bm.W, bm.H)
	switch {
	case err == nil:
		c.entries[g.Key] = entry{uv: region.UV, ok: true}
		return region.UV, true, nil
	case errors.Is(err, atlas.ErrAtlasFull) && c.policy == SkipGlyph:
		c.entries[g.Key] = entry{}
		c.dropped++
		logger.Warn("glyph dropped, atlas is full",
			zap.String("rune", string(g.Key.Rune)),
			zap.Int("width", bm.W),
			zap.Int("height", bm.H),
		)
		return geom.Rect{}, false, nil
	default:
		return geom.Rect{}, false, fmt.Errorf("glyph %q: %w", g.Key.Rune, err)
	}
}

// Font returns the font the cache rasterizes with.
func (c *Cache) Font() *Font {
	return c.font
}

// Len returns the number of cached keys, including dropped ones.
func (c *Cache) Len() int {
	return len(c.entries)
}

// Rasterizations returns how many glyphs have been rasterized.
func (c *Cache) Rasterizations() int {
	return c.rasterizations
}

// Dropped returns how many glyphs were left out because the atlas was full.
func (c *Cache) Dropped() int {
	return c.dropped
}
