package glyph

import (
	"fmt"
	"image"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/fixed"
)

// Bitmap is a rasterized glyph: white RGB with coverage as alpha.
type Bitmap struct {
	W, H int
	RGBA []byte
}

// Rasterize renders the glyph named by key at its device pixel size. The
// bitmap covers exactly the box Layout reports for the same key.
func (f *Font) Rasterize(key Key) (Bitmap, error) {
	if key.Font != f.id {
		return Bitmap{}, fmt.Errorf("rasterize %q: key belongs to another font", key.Rune)
	}
	fc, err := f.face(math.Float32frombits(key.Size))
	if err != nil {
		return Bitmap{}, err
	}
	// Runes the font lacks report ok=false but still carry the .notdef
	// outline, which is what Layout measured. Draw it.
	bounds, _, _ := fc.GlyphBounds(key.Rune)
	box := image.Rect(bounds.Min.X.Floor(), bounds.Min.Y.Floor(), bounds.Max.X.Ceil(), bounds.Max.Y.Ceil())
	if box.Empty() {
		return Bitmap{}, nil
	}

	coverage := image.NewAlpha(box)
	dr, mask, maskp, _, _ := fc.Glyph(fixed.Point26_6{}, key.Rune)
	if mask != nil {
		draw.Draw(coverage, dr, mask, maskp, draw.Src)
	}
	return expand(coverage), nil
}

// expand turns an 8-bit coverage mask into RGBA8 with white color channels.
func expand(a *image.Alpha) Bitmap {
	w, h := a.Rect.Dx(), a.Rect.Dy()
	out := make([]byte, 0, w*h*4)
	for y := 0; y < h; y++ {
		row := a.Pix[y*a.Stride : y*a.Stride+w]
		for _, v := range row {
			out = append(out, 0xff, 0xff, 0xff, v)
		}
	}
	return Bitmap{W: w, H: h, RGBA: out}
}
