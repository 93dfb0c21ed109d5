package glyph

import (
	"math"
	"unicode"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/unicode/norm"
)

// Key identifies one rasterized glyph bitmap.
type Key struct {
	Font    uint64
	Size    uint32 // math.Float32bits of the device pixel size
	Hinting Hinting
	Rune    rune
}

// Glyph is one positioned glyph box in device pixels, Y down, with the top
// of the first line at 0.
type Glyph struct {
	X, Y, W, H float32
	Parent     rune
	Key        Key
}

// Empty reports whether the glyph has no ink (spaces, control runes).
func (g Glyph) Empty() bool {
	return g.W <= 0 || g.H <= 0
}

// Style controls a layout pass. Lengths are device pixels.
type Style struct {
	Size float32
	// MaxWidth wraps lines that would cross it; 0 disables wrapping.
	MaxWidth float32
}

// Metrics are the vertical font metrics at one size, in device pixels.
type Metrics struct {
	Ascent     float32
	Descent    float32
	LineHeight float32
}

// Metrics returns the vertical metrics for a device pixel size.
func (f *Font) Metrics(size float32) (Metrics, error) {
	fc, err := f.face(size)
	if err != nil {
		return Metrics{}, err
	}
	m := fc.Metrics()
	return Metrics{
		Ascent:     float32(m.Ascent.Ceil()),
		Descent:    float32(m.Descent.Ceil()),
		LineHeight: float32(m.Height.Ceil()),
	}, nil
}

type placed struct {
	Glyph
	pen  fixed.Int26_6
	minX int
}

type lineBuilder struct {
	face    font.Face
	key     Key
	ascent  int
	height  int
	maxW    float32
	out     []Glyph
	line    []placed
	lineTop int
	pen     fixed.Int26_6
	prev    rune
	space   int
}

// Layout positions text left to right. Text is NFC-normalized first so that
// composed characters map to single glyphs.
func (f *Font) Layout(text string, style Style) ([]Glyph, error) {
	fc, err := f.face(style.Size)
	if err != nil {
		return nil, err
	}
	m := fc.Metrics()
	lb := &lineBuilder{
		face:   fc,
		key:    Key{Font: f.id, Size: math.Float32bits(style.Size), Hinting: f.hinting},
		ascent: m.Ascent.Ceil(),
		height: m.Height.Ceil(),
		maxW:   style.MaxWidth,
		prev:   -1,
		space:  -1,
	}
	for _, r := range norm.NFC.String(text) {
		lb.add(r)
	}
	lb.flush()
	return lb.out, nil
}

func (lb *lineBuilder) add(r rune) {
	if r == '\n' {
		lb.flush()
		lb.newLine()
		return
	}
	if lb.prev >= 0 {
		lb.pen += lb.face.Kern(lb.prev, r)
	}
	bounds, advance, _ := lb.face.GlyphBounds(r)
	g := lb.place(r, bounds, lb.pen)

	if lb.maxW > 0 && len(lb.line) > 0 && !unicode.IsSpace(r) && g.X+g.W > lb.maxW {
		lb.wrap()
		g = lb.place(r, bounds, lb.pen)
	}

	if unicode.IsSpace(r) {
		lb.space = len(lb.line)
	}
	lb.line = append(lb.line, g)
	lb.pen += advance
	lb.prev = r
}

func (lb *lineBuilder) place(r rune, b fixed.Rectangle26_6, pen fixed.Int26_6) placed {
	minX, minY := b.Min.X.Floor(), b.Min.Y.Floor()
	maxX, maxY := b.Max.X.Ceil(), b.Max.Y.Ceil()
	key := lb.key
	key.Rune = r
	return placed{
		Glyph: Glyph{
			X:      float32(pen.Round() + minX),
			Y:      float32(lb.ascent + minY),
			W:      float32(maxX - minX),
			H:      float32(maxY - minY),
			Parent: r,
			Key:    key,
		},
		pen:  pen,
		minX: minX,
	}
}

// wrap breaks the current line after its last space, carrying the trailing
// word to the next line, or breaks right here when the line has no space.
func (lb *lineBuilder) wrap() {
	if lb.space < 0 {
		lb.flush()
		lb.newLine()
		return
	}
	carry := append([]placed(nil), lb.line[lb.space+1:]...)
	pen, prev := lb.pen, lb.prev
	lb.line = lb.line[:lb.space+1]
	lb.flush()
	lb.newLine()
	if len(carry) == 0 {
		return
	}
	shift := carry[0].pen
	for i := range carry {
		carry[i].pen -= shift
		carry[i].X = float32(carry[i].pen.Round() + carry[i].minX)
	}
	lb.line = carry
	lb.pen = pen - shift
	lb.prev = prev
}

func (lb *lineBuilder) flush() {
	for _, p := range lb.line {
		g := p.Glyph
		g.Y += float32(lb.lineTop)
		lb.out = append(lb.out, g)
	}
	lb.line = lb.line[:0]
	lb.space = -1
}

func (lb *lineBuilder) newLine() {
	lb.lineTop += lb.height
	lb.pen = 0
	lb.prev = -1
}

// Measure returns the width of the widest line and the total height of text
// laid out with style, in device pixels.
func (f *Font) Measure(text string, style Style) (w, h float32, err error) {
	glyphs, err := f.Layout(text, style)
	if err != nil {
		return 0, 0, err
	}
	m, err := f.Metrics(style.Size)
	if err != nil {
		return 0, 0, err
	}
	lines := 1
	for _, r := range text {
		if r == '\n' {
			lines++
		}
	}
	var bottom float32
	for _, g := range glyphs {
		w = max(w, g.X+g.W)
		bottom = max(bottom, g.Y+g.H)
	}
	return w, max(bottom, float32(lines)*m.LineHeight), nil
}
