package renderer

import (
	"strings"

	"github.com/Faultbox/batch2d/internal/engine/geom"
	"github.com/Faultbox/batch2d/internal/engine/glyph"
)

// ellipsis replaces the tail of a fitted line.
const ellipsis = "..."

// TextBounds limits a text call in logical pixels. Zero means unbounded.
type TextBounds struct {
	// MaxWidth wraps lines at the last space before the bound.
	MaxWidth float32
	// MaxHeight stops emission at the first glyph whose bottom crosses it.
	MaxHeight float32
}

// DrawText lays out text at size logical pixels with its first line's top
// at (x, y). All glyph quads of the call are appended together, so a
// capacity error leaves the frame untouched.
func (r *Renderer) DrawText(text string, size, x, y float32, bounds TextBounds, c geom.Color) error {
	if text == "" {
		return nil
	}
	f := r.scale.Factor
	glyphs, err := r.font.Layout(text, glyph.Style{Size: size * f, MaxWidth: bounds.MaxWidth * f})
	if err != nil {
		return err
	}

	col := c.Array()
	vs := make([]geom.Vertex, 0, len(glyphs)*4)
	is := make([]uint32, 0, len(glyphs)*6)
	for _, g := range glyphs {
		if g.Empty() {
			continue
		}
		if bounds.MaxHeight > 0 && (g.Y+g.H)/f > bounds.MaxHeight {
			break
		}
		uv, ok, err := r.glyphs.Lookup(g)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}

		x1, y1 := x+g.X/f, y+g.Y/f
		x2, y2 := x+(g.X+g.W)/f, y+(g.Y+g.H)/f
		base := uint32(len(vs))
		vs = append(vs,
			geom.Vertex{Pos: [2]float32{x1, y1}, UV: [2]float32{uv.X1, uv.Y1}, Color: col},
			geom.Vertex{Pos: [2]float32{x1, y2}, UV: [2]float32{uv.X1, uv.Y2}, Color: col},
			geom.Vertex{Pos: [2]float32{x2, y2}, UV: [2]float32{uv.X2, uv.Y2}, Color: col},
			geom.Vertex{Pos: [2]float32{x2, y1}, UV: [2]float32{uv.X2, uv.Y1}, Color: col},
		)
		for _, i := range quadIndices {
			is = append(is, base+i)
		}
	}
	if len(is) == 0 {
		return nil
	}
	return r.add(vs, is)
}

// FitText returns text cut to one line that fits maxWidth logical pixels.
// Text that fits is returned unchanged. When the line overflows, up to three
// trailing runes of the kept prefix are replaced by "...". A newline ends the
// line: the first line is kept and marked with "..." the same way.
func (r *Renderer) FitText(text string, size, maxWidth float32) (string, error) {
	line, _, multiline := strings.Cut(text, "\n")
	style := glyph.Style{Size: size * r.scale.Factor}
	limit := maxWidth * r.scale.Factor

	glyphs, err := r.font.Layout(line, style)
	if err != nil {
		return "", err
	}
	cut := overflow(glyphs, limit)
	if cut < 0 {
		if !multiline {
			return text, nil
		}
		marked, err := r.font.Layout(line+ellipsis, style)
		if err != nil {
			return "", err
		}
		if overflow(marked, limit) < 0 {
			return line + ellipsis, nil
		}
		cut = len(glyphs)
	}

	// Glyphs map one to one onto the runes of the line.
	kept := make([]rune, 0, cut)
	for _, g := range glyphs[:cut] {
		kept = append(kept, g.Parent)
	}
	kept = kept[:len(kept)-min(3, len(kept))]
	return string(kept) + ellipsis, nil
}

// overflow returns the index of the first glyph whose right edge crosses
// limit, or -1.
func overflow(glyphs []glyph.Glyph, limit float32) int {
	for i, g := range glyphs {
		if g.X+g.W > limit {
			return i
		}
	}
	return -1
}

// DrawFittedTextLine draws the FitText result for text without wrapping.
func (r *Renderer) DrawFittedTextLine(text string, size, x, y, maxWidth float32, c geom.Color) error {
	fitted, err := r.FitText(text, size, maxWidth)
	if err != nil {
		return err
	}
	return r.DrawText(fitted, size, x, y, TextBounds{}, c)
}

// MeasureText returns the logical size text would occupy unbounded.
func (r *Renderer) MeasureText(text string, size float32) (w, h float32, err error) {
	f := r.scale.Factor
	w, h, err = r.font.Measure(text, glyph.Style{Size: size * f})
	if err != nil {
		return 0, 0, err
	}
	return w / f, h / f, nil
}
