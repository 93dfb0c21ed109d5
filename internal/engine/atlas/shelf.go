// Package atlas packs bitmaps into one square RGBA8 texture.
//
// Packing is shelf based and append only: rows are filled left to right, a
// new row starts below the tallest item of the previous one, and nothing is
// ever freed. Regions stay valid for the lifetime of the atlas.
package atlas

import (
	"errors"
	"fmt"

	"github.com/Faultbox/batch2d/internal/engine/geom"
)

var (
	// ErrAtlasFull is returned when a region does not fit in the remaining space.
	ErrAtlasFull = errors.New("atlas: out of texture space")
	// ErrInvalidSize is returned for negative sizes or mismatched pixel data.
	ErrInvalidSize = errors.New("atlas: invalid size")
)

// Region is an allocated sub-rectangle, in pixels and in normalized UVs.
type Region struct {
	X, Y, W, H int
	UV         geom.Rect
}

// Shelf is the packing cursor.
type Shelf struct {
	size        int
	cursorX     int
	cursorY     int
	shelfHeight int

	allocations int
	usedArea    int
}

// NewShelf returns an allocator over a size x size square.
func NewShelf(size int) *Shelf {
	return &Shelf{size: size}
}

// Allocate reserves a w x h region. A failed allocation leaves the cursor
// where it was.
func (s *Shelf) Allocate(w, h int) (Region, error) {
	if w < 0 || h < 0 {
		return Region{}, fmt.Errorf("%w: %dx%d", ErrInvalidSize, w, h)
	}
	if w > s.size {
		return Region{}, fmt.Errorf("%w: %dx%d wider than %d", ErrAtlasFull, w, h, s.size)
	}

	x, y, shelfH := s.cursorX, s.cursorY, s.shelfHeight
	if x+w > s.size {
		x = 0
		y += shelfH
		shelfH = 0
	}
	if y+h > s.size {
		return Region{}, fmt.Errorf("%w: %dx%d at row %d of %d", ErrAtlasFull, w, h, y, s.size)
	}

	s.cursorX = x + w
	s.cursorY = y
	s.shelfHeight = max(shelfH, h)
	s.allocations++
	s.usedArea += w * h

	return Region{X: x, Y: y, W: w, H: h, UV: s.normalize(x, y, w, h)}, nil
}

func (s *Shelf) normalize(x, y, w, h int) geom.Rect {
	size := float32(s.size)
	return geom.Rect{
		X1: float32(x) / size,
		Y1: float32(y) / size,
		X2: float32(x+w) / size,
		Y2: float32(y+h) / size,
	}
}

// Size returns the side length of the atlas.
func (s *Shelf) Size() int {
	return s.size
}

// Cursor returns the packing state (cursorX, cursorY, shelfHeight).
func (s *Shelf) Cursor() (x, y, shelfHeight int) {
	return s.cursorX, s.cursorY, s.shelfHeight
}

// Allocations returns the number of successful allocations.
func (s *Shelf) Allocations() int {
	return s.allocations
}

// UsedArea returns the pixel area handed out so far.
func (s *Shelf) UsedArea() int {
	return s.usedArea
}

// Utilization returns UsedArea as a fraction of the atlas area.
func (s *Shelf) Utilization() float64 {
	if s.size <= 0 {
		return 0
	}
	return float64(s.usedArea) / float64(s.size*s.size)
}
