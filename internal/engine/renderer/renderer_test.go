package renderer

import (
	"encoding/binary"
	"errors"
	"math"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/batch2d/internal/config"
	"github.com/Faultbox/batch2d/internal/engine/atlas"
	"github.com/Faultbox/batch2d/internal/engine/batch"
	"github.com/Faultbox/batch2d/internal/engine/device"
	"github.com/Faultbox/batch2d/internal/engine/geom"
	"github.com/Faultbox/batch2d/internal/engine/glyph"
	"github.com/Faultbox/batch2d/internal/engine/tess"
	"github.com/Faultbox/batch2d/internal/engine/viewport"
)

func newTestRenderer(t *testing.T, mutate func(*Config)) (*Renderer, *device.Memory) {
	t.Helper()
	font, err := glyph.DefaultFont(glyph.HintingNone)
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.Width, cfg.Height = 100, 100
	cfg.MaxVertices, cfg.MaxIndices = 1000, 1000
	cfg.AtlasSize = 256
	if mutate != nil {
		mutate(&cfg)
	}

	mem := device.NewMemory()
	r, err := New(mem, font, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r, mem
}

func frame(t *testing.T, r *Renderer, mem *device.Memory) device.DrawCall {
	t.Helper()
	require.NoError(t, r.Commit())
	require.NoError(t, r.Render(device.DefaultTarget))
	require.NotEmpty(t, mem.Draws)
	return mem.Draws[len(mem.Draws)-1]
}

func uniform(call device.DrawCall) (w, h float32) {
	w = math.Float32frombits(binary.NativeEndian.Uint32(call.Uniforms[0:]))
	h = math.Float32frombits(binary.NativeEndian.Uint32(call.Uniforms[4:]))
	return w, h
}

func TestFillRectEndToEnd(t *testing.T) {
	r, mem := newTestRenderer(t, nil)

	require.NoError(t, r.FillRect(0, 0, 10, 10, geom.ColorWhite))
	call := frame(t, r, mem)

	require.Len(t, mem.Draws, 1)
	assert.Equal(t, 6, call.IndexCount)
	assert.Equal(t, []uint32{0, 1, 2, 0, 2, 3}, call.DecodeIndices())
	for _, v := range call.DecodeVertices(4) {
		assert.GreaterOrEqual(t, v.Pos[0], float32(0))
		assert.LessOrEqual(t, v.Pos[0], float32(10))
		assert.GreaterOrEqual(t, v.Pos[1], float32(0))
		assert.LessOrEqual(t, v.Pos[1], float32(10))
		assert.Equal(t, r.blank, v.UV)
		assert.Equal(t, geom.ColorWhite.Array(), v.Color)
	}
	assert.Equal(t, r.Atlas(), call.Texture)
}

func TestBlankTexelIsWhite(t *testing.T) {
	r, mem := newTestRenderer(t, nil)

	pixels, w, _, ok := mem.TexturePixels(r.Atlas())
	require.True(t, ok)
	x := int(r.blank[0] * float32(w))
	y := int(r.blank[1] * float32(w))
	assert.Equal(t, []byte{0xff, 0xff, 0xff, 0xff}, pixels[(y*w+x)*4:(y*w+x)*4+4])
}

func TestResizeUpdatesViewportUniform(t *testing.T) {
	r, mem := newTestRenderer(t, nil)

	require.NoError(t, r.Resize(200, 100, 2))
	s := r.Viewport()
	assert.Equal(t, float32(100), s.LogicalWidth)
	assert.Equal(t, float32(50), s.LogicalHeight)

	require.NoError(t, r.FillRect(0, 0, 1, 1, geom.ColorRed))
	w, h := uniform(frame(t, r, mem))
	assert.Equal(t, float32(100), w)
	assert.Equal(t, float32(50), h)

	// Invalid scale keeps the previous state.
	err := r.Resize(300, 300, 0)
	assert.ErrorIs(t, err, viewport.ErrInvalidScale)
	assert.Equal(t, s, r.Viewport())
}

func TestDrawTextIsCached(t *testing.T) {
	r, mem := newTestRenderer(t, nil)
	before := mem.TextureWrites

	require.NoError(t, r.DrawText("A", 12, 0, 0, TextBounds{}, geom.ColorWhite))
	require.NoError(t, r.DrawText("A", 12, 0, 0, TextBounds{}, geom.ColorWhite))

	call := frame(t, r, mem)
	require.Equal(t, 12, call.IndexCount)
	vs := call.DecodeVertices(8)
	assert.Equal(t, vs[:4], vs[4:])

	idx := call.DecodeIndices()
	assert.Equal(t, []uint32{0, 1, 2, 0, 2, 3}, idx[:6])
	assert.Equal(t, []uint32{4, 5, 6, 4, 6, 7}, idx[6:])

	assert.Equal(t, 1, mem.TextureWrites-before, "one upload for the glyph")
	assert.Equal(t, 2, r.atlas.Shelf().Allocations(), "blank texel plus one glyph")
	assert.Equal(t, 1, r.Stats().CachedGlyphs)
}

func TestDrawTextQuadsAreLogical(t *testing.T) {
	r1, mem1 := newTestRenderer(t, nil)
	r2, mem2 := newTestRenderer(t, func(c *Config) { c.Width, c.Height, c.Scale = 200, 200, 2 })

	require.NoError(t, r1.DrawText("H", 20, 5, 5, TextBounds{}, geom.ColorWhite))
	require.NoError(t, r2.DrawText("H", 20, 5, 5, TextBounds{}, geom.ColorWhite))

	a := frame(t, r1, mem1).DecodeVertices(4)
	b := frame(t, r2, mem2).DecodeVertices(4)
	for i := range a {
		assert.InDelta(t, a[i].Pos[0], b[i].Pos[0], 1)
		assert.InDelta(t, a[i].Pos[1], b[i].Pos[1], 1)
	}
}

func TestDrawTextMaxHeight(t *testing.T) {
	r, _ := newTestRenderer(t, nil)

	require.NoError(t, r.DrawText("A\nA\nA", 12, 0, 0, TextBounds{MaxHeight: 20}, geom.ColorWhite))
	assert.Equal(t, 4, r.Stats().PendingVertices)

	require.NoError(t, r.Commit())
	require.NoError(t, r.DrawText("A\nA\nA", 12, 0, 0, TextBounds{}, geom.ColorWhite))
	assert.Equal(t, 12, r.Stats().PendingVertices)
}

func TestDrawTextSkipsSpaces(t *testing.T) {
	r, _ := newTestRenderer(t, nil)

	require.NoError(t, r.DrawText("a b", 12, 0, 0, TextBounds{}, geom.ColorWhite))
	assert.Equal(t, 8, r.Stats().PendingVertices)
	require.NoError(t, r.DrawText("   ", 12, 0, 0, TextBounds{}, geom.ColorWhite))
	assert.Equal(t, 8, r.Stats().PendingVertices)
}

func TestFitText(t *testing.T) {
	r, _ := newTestRenderer(t, nil)

	long := "The quick brown fox jumps over the lazy dog"
	w, _, err := r.MeasureText(long, 12)
	require.NoError(t, err)
	require.Greater(t, w, float32(60))

	fitted, err := r.FitText(long, 12, 60)
	require.NoError(t, err)
	assert.Less(t, utf8.RuneCountInString(fitted), utf8.RuneCountInString(long))
	assert.Regexp(t, `^The.*\.\.\.$`, fitted)

	short, err := r.FitText("Hi", 12, 500)
	require.NoError(t, err)
	assert.Equal(t, "Hi", short)

	// Multi-byte runes are popped whole.
	accented, err := r.FitText("éééééééééééééééé", 12, 40)
	require.NoError(t, err)
	assert.True(t, utf8.ValidString(accented))
}

func TestDrawFittedTextLine(t *testing.T) {
	r, _ := newTestRenderer(t, nil)

	require.NoError(t, r.DrawFittedTextLine("A very long label that will not fit", 12, 0, 0, 50, geom.ColorWhite))
	fitted, err := r.FitText("A very long label that will not fit", 12, 50)
	require.NoError(t, err)

	visible := 0
	for _, c := range fitted {
		if c != ' ' {
			visible++
		}
	}
	assert.Equal(t, visible*4, r.Stats().PendingVertices)
}

func TestFitTextKeepsLinesAndSource(t *testing.T) {
	r, _ := newTestRenderer(t, nil)

	// Decomposed input that fits comes back byte for byte.
	decomposed := "e\u0301te\u0301"
	got, err := r.FitText(decomposed, 12, 1000)
	require.NoError(t, err)
	assert.Equal(t, decomposed, got)

	// A newline ends the line and marks the cut.
	got, err = r.FitText("ab\ncd", 12, 1000)
	require.NoError(t, err)
	assert.Equal(t, "ab...", got)

	// The width check applies to the first line only.
	got, err = r.FitText("ab\nthis second line is far too long", 12, 40)
	require.NoError(t, err)
	assert.NotContains(t, got, "\n")
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.NotContains(t, got, "second")
}

func TestDrawTextMissingRune(t *testing.T) {
	r, mem := newTestRenderer(t, nil)

	// Go Regular has no glyph for this rune.
	require.NoError(t, r.DrawText("中", 16, 0, 0, TextBounds{}, geom.ColorWhite))
	n := r.Stats().PendingVertices
	require.NoError(t, r.Commit())
	require.NoError(t, r.Render(device.DefaultTarget))
	call := mem.Draws[len(mem.Draws)-1]

	vs := call.DecodeVertices(n)
	for q := 0; q+3 < len(vs); q += 4 {
		tl, br := vs[q].UV, vs[q+2].UV
		assert.Greater(t, br[0], tl[0], "quad %d has no texels across", q/4)
		assert.Greater(t, br[1], tl[1], "quad %d has no texels down", q/4)
	}
}

func TestCapacityErrorIsAtomic(t *testing.T) {
	r, _ := newTestRenderer(t, func(c *Config) { c.MaxVertices, c.MaxIndices = 6, 12 })

	require.NoError(t, r.FillRect(0, 0, 1, 1, geom.ColorWhite))
	err := r.FillRect(1, 1, 2, 2, geom.ColorWhite)
	assert.ErrorIs(t, err, batch.ErrCapacityExceeded)

	err = r.DrawText("AB", 12, 0, 0, TextBounds{}, geom.ColorWhite)
	assert.ErrorIs(t, err, batch.ErrCapacityExceeded)

	s := r.Stats()
	assert.Equal(t, 4, s.PendingVertices)
	assert.Equal(t, 6, s.PendingIndices)

	// The next frame starts empty.
	require.NoError(t, r.Commit())
	require.NoError(t, r.FillRect(1, 1, 2, 2, geom.ColorWhite))
}

func TestAtlasFullSkip(t *testing.T) {
	r, _ := newTestRenderer(t, func(c *Config) { c.AtlasSize = 8 })

	require.NoError(t, r.DrawText("AB", 40, 0, 0, TextBounds{}, geom.ColorWhite))
	s := r.Stats()
	assert.Zero(t, s.PendingVertices)
	assert.Equal(t, 2, s.DroppedGlyphs)

	// Rect geometry still works with a full atlas.
	require.NoError(t, r.FillRect(0, 0, 1, 1, geom.ColorWhite))
}

func TestAtlasFullError(t *testing.T) {
	r, _ := newTestRenderer(t, func(c *Config) {
		c.AtlasSize = 8
		c.AtlasFull = glyph.FailDraw
	})

	err := r.DrawText("AB", 40, 0, 0, TextBounds{}, geom.ColorWhite)
	assert.ErrorIs(t, err, atlas.ErrAtlasFull)
	assert.Zero(t, r.Stats().PendingVertices)

	_, err = r.AddTexture(make([]byte, 16*16*4), 16, 16)
	assert.ErrorIs(t, err, atlas.ErrAtlasFull)
}

func TestAddTexture(t *testing.T) {
	r, mem := newTestRenderer(t, nil)

	pixels := make([]byte, 4*2*4)
	for i := range pixels {
		pixels[i] = 0x80
	}
	uv, err := r.AddTexture(pixels, 4, 2)
	require.NoError(t, err)
	assert.InDelta(t, 4.0/256, uv.Width(), 1e-6)
	assert.InDelta(t, 2.0/256, uv.Height(), 1e-6)

	tex, w, _, ok := mem.TexturePixels(r.Atlas())
	require.True(t, ok)
	x, y := int(uv.X1*float32(w)), int(uv.Y1*float32(w))
	assert.Equal(t, byte(0x80), tex[(y*w+x)*4])
}

func TestRenderClearOnly(t *testing.T) {
	r, mem := newTestRenderer(t, func(c *Config) { c.ClearColor = geom.ColorBlue })

	require.NoError(t, r.Commit())
	require.NoError(t, r.Render(device.DefaultTarget))

	assert.Equal(t, []device.Target{device.DefaultTarget}, mem.Clears)
	assert.Empty(t, mem.Draws)
	assert.Equal(t, 1, r.Stats().Frames)
}

func TestCommitResetsFrame(t *testing.T) {
	r, mem := newTestRenderer(t, nil)

	require.NoError(t, r.FillTri(0, 0, 1, 0, 0, 1, geom.ColorGreen))
	require.NoError(t, r.Commit())
	assert.Equal(t, 3, r.Stats().CommittedIndices)
	assert.Zero(t, r.Stats().PendingIndices)

	// Render after a second, empty commit draws nothing.
	require.NoError(t, r.Commit())
	require.NoError(t, r.Render(device.DefaultTarget))
	assert.Empty(t, mem.Draws)
}

func TestUint16IndexPadding(t *testing.T) {
	r, mem := newTestRenderer(t, func(c *Config) {
		c.IndexFormat = device.Uint16
		c.MaxVertices = 100000
	})
	assert.Equal(t, batch.MaxUint16Vertices, r.config.MaxVertices)

	require.NoError(t, r.FillTri(0, 0, 1, 0, 0, 1, geom.ColorGreen))
	call := frame(t, r, mem)
	assert.Equal(t, device.Uint16, call.IndexFormat)
	assert.Equal(t, 3, call.IndexCount)
	assert.Equal(t, []uint32{0, 1, 2}, call.DecodeIndices())

	data, ok := mem.BufferData(r.indices)
	require.True(t, ok)
	assert.Equal(t, uint16(0), binary.NativeEndian.Uint16(data[6:]), "padding index")
}

func TestStrokedPrimitives(t *testing.T) {
	r, mem := newTestRenderer(t, func(c *Config) { c.StrokeWidth = 2 })

	require.NoError(t, r.DrawRect(10, 10, 30, 30, geom.ColorWhite))
	require.NoError(t, r.DrawTri(10, 10, 30, 10, 20, 30, geom.ColorWhite))
	require.NoError(t, r.DrawLine(0, 50, 50, 50, geom.ColorWhite))

	s := r.Stats()
	call := frame(t, r, mem)
	vs := call.DecodeVertices(s.PendingVertices)
	for _, i := range call.DecodeIndices() {
		assert.Less(t, int(i), len(vs))
	}
	for _, v := range vs {
		assert.Equal(t, r.blank, v.UV)
		assert.GreaterOrEqual(t, v.Pos[0], float32(-1))
		assert.LessOrEqual(t, v.Pos[1], float32(51))
	}
}

func TestPathErrorsLeaveFrame(t *testing.T) {
	r, _ := newTestRenderer(t, nil)
	require.NoError(t, r.FillRect(0, 0, 10, 10, geom.ColorWhite))

	bad := tess.NewPath()
	bad.MoveTo(0, 0)
	bad.LineTo(float32(math.NaN()), 1)
	bad.LineTo(1, 1)
	assert.ErrorIs(t, r.FillPath(bad, geom.ColorWhite), tess.ErrMalformedPath)
	assert.ErrorIs(t, r.DrawPath(bad, geom.ColorWhite), tess.ErrMalformedPath)

	assert.Equal(t, 4, r.Stats().PendingVertices)
}

func TestFillPathRules(t *testing.T) {
	r, _ := newTestRenderer(t, nil)

	p := tess.NewPath()
	p.Rect(0, 0, 10, 10)
	p.Rect(2, 2, 8, 8)

	require.NoError(t, r.FillPath(p, geom.ColorWhite))
	nonZero := r.Stats().PendingIndices
	require.NoError(t, r.Commit())

	require.NoError(t, r.FillPathRule(p, tess.EvenOdd, geom.ColorWhite))
	evenOdd := r.Stats().PendingIndices
	assert.Less(t, evenOdd, nonZero, "the hole is left out")
}

// flakyIndices fails index buffer writes while failing is set.
type flakyIndices struct {
	*device.Memory
	indices device.Buffer
	failing bool
}

func (d *flakyIndices) CreateBuffer(kind device.BufferKind, size int) (device.Buffer, error) {
	b, err := d.Memory.CreateBuffer(kind, size)
	if kind == device.IndexBuffer {
		d.indices = b
	}
	return b, err
}

func (d *flakyIndices) WriteBuffer(b device.Buffer, offset int, data []byte) error {
	if d.failing && b == d.indices {
		return errors.New("index upload failed")
	}
	return d.Memory.WriteBuffer(b, offset, data)
}

func TestCommitFailureResetsFrame(t *testing.T) {
	font, err := glyph.DefaultFont(glyph.HintingNone)
	require.NoError(t, err)
	cfg := DefaultConfig()
	cfg.MaxVertices, cfg.MaxIndices = 8, 12

	dev := &flakyIndices{Memory: device.NewMemory()}
	r, err := New(dev, font, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })

	require.NoError(t, r.FillRect(0, 0, 1, 1, geom.ColorWhite))
	require.NoError(t, r.FillRect(1, 1, 2, 2, geom.ColorWhite))

	dev.failing = true
	require.Error(t, r.Commit())
	assert.Zero(t, r.Stats().CommittedIndices)
	assert.Zero(t, r.Stats().PendingVertices)

	// A full frame fits again after the failed commit.
	dev.failing = false
	require.NoError(t, r.FillRect(0, 0, 1, 1, geom.ColorWhite))
	require.NoError(t, r.FillRect(1, 1, 2, 2, geom.ColorWhite))
	require.NoError(t, r.Commit())
	assert.Equal(t, 12, r.Stats().CommittedIndices)
}

func TestNewFailures(t *testing.T) {
	font, err := glyph.DefaultFont(glyph.HintingNone)
	require.NoError(t, err)

	_, err = New(device.NewMemory(), nil, DefaultConfig())
	assert.Error(t, err)

	cfg := DefaultConfig()
	cfg.Scale = -1
	_, err = New(device.NewMemory(), font, cfg)
	assert.ErrorIs(t, err, viewport.ErrInvalidScale)

	cfg = DefaultConfig()
	cfg.AtlasSize = 0
	_, err = New(device.NewMemory(), font, cfg)
	assert.ErrorIs(t, err, atlas.ErrInvalidSize)

	cfg = DefaultConfig()
	cfg.MaxIndices = 0
	_, err = New(device.NewMemory(), font, cfg)
	assert.Error(t, err)
}

func TestConfigFrom(t *testing.T) {
	c := config.Default()
	c.Renderer.IndexFormat = "uint16"
	c.Renderer.AtlasFull = "error"

	cfg, err := ConfigFrom(c, 640, 480, 2)
	require.NoError(t, err)
	assert.Equal(t, device.Uint16, cfg.IndexFormat)
	assert.Equal(t, glyph.FailDraw, cfg.AtlasFull)
	assert.Equal(t, float32(2), cfg.Scale)

	c.Graphics.Scale = 1.5
	cfg, err = ConfigFrom(c, 640, 480, 2)
	require.NoError(t, err)
	assert.Equal(t, float32(1.5), cfg.Scale)

	c.Renderer.AtlasFull = "grow"
	_, err = ConfigFrom(c, 640, 480, 1)
	assert.True(t, err != nil && !errors.Is(err, atlas.ErrAtlasFull))
}
