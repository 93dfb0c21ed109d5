package atlas

import (
	"fmt"

	"github.com/Faultbox/batch2d/internal/engine/device"
)

// TextureWriter is the part of device.Device the atlas uses.
type TextureWriter interface {
	CreateTexture(width, height int) (device.Texture, error)
	WriteTexture(t device.Texture, x, y, width, height int, pixels []byte) error
}

// Atlas is the device texture plus the shelf that packs it.
type Atlas struct {
	dev     TextureWriter
	texture device.Texture
	shelf   *Shelf
}

// New creates the size x size atlas texture on dev.
func New(dev TextureWriter, size int) (*Atlas, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: atlas size %d", ErrInvalidSize, size)
	}
	tex, err := dev.CreateTexture(size, size)
	if err != nil {
		return nil, fmt.Errorf("create atlas texture: %w", err)
	}
	return &Atlas{dev: dev, texture: tex, shelf: NewShelf(size)}, nil
}

// Add allocates a w x h region and uploads pixels (RGBA8, tightly packed)
// into it.
func (a *Atlas) Add(pixels []byte, w, h int) (Region, error) {
	if w < 0 || h < 0 || len(pixels) != w*h*4 {
		return Region{}, fmt.Errorf("%w: %d bytes for %dx%d", ErrInvalidSize, len(pixels), w, h)
	}
	r, err := a.shelf.Allocate(w, h)
	if err != nil {
		return Region{}, err
	}
	if w == 0 || h == 0 {
		return r, nil
	}
	if err := a.dev.WriteTexture(a.texture, r.X, r.Y, w, h, pixels); err != nil {
		return Region{}, fmt.Errorf("upload %dx%d to atlas: %w", w, h, err)
	}
	return r, nil
}

// Texture returns the device texture backing the atlas.
func (a *Atlas) Texture() device.Texture {
	return a.texture
}

// Shelf exposes the packing state for stats.
func (a *Atlas) Shelf() *Shelf {
	return a.shelf
}
