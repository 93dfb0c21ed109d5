package glyph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/batch2d/internal/engine/atlas"
	"github.com/Faultbox/batch2d/internal/engine/device"
)

func defaultFont(t *testing.T) *Font {
	t.Helper()
	f, err := DefaultFont(HintingNone)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

// countingUploader hands out fake regions and counts uploads.
type countingUploader struct {
	calls int
	err   error
}

func (u *countingUploader) Add(pixels []byte, w, h int) (atlas.Region, error) {
	if u.err != nil {
		return atlas.Region{}, u.err
	}
	u.calls++
	r := atlas.Region{X: u.calls * 10, W: w, H: h}
	r.UV.X1 = float32(u.calls)
	return r, nil
}

func TestLoadFont(t *testing.T) {
	f := defaultFont(t)
	assert.NotZero(t, f.ID())
	assert.NotEmpty(t, f.Name())

	_, err := LoadFont([]byte("not a font"), HintingNone)
	assert.Error(t, err)
}

func TestLayoutLeftToRight(t *testing.T) {
	f := defaultFont(t)
	glyphs, err := f.Layout("AB", Style{Size: 16})
	require.NoError(t, err)
	require.Len(t, glyphs, 2)

	a, b := glyphs[0], glyphs[1]
	assert.Equal(t, 'A', a.Parent)
	assert.Equal(t, 'B', b.Parent)
	assert.Greater(t, b.X, a.X)
	assert.Equal(t, a.Key.Size, b.Key.Size)
	assert.NotEqual(t, a.Key, b.Key)
	assert.False(t, a.Empty())
	assert.GreaterOrEqual(t, a.Y, float32(0))
}

func TestLayoutSpaceIsEmpty(t *testing.T) {
	f := defaultFont(t)
	glyphs, err := f.Layout(" ", Style{Size: 16})
	require.NoError(t, err)
	require.Len(t, glyphs, 1)
	assert.True(t, glyphs[0].Empty())
}

func TestLayoutNewline(t *testing.T) {
	f := defaultFont(t)
	glyphs, err := f.Layout("A\nA", Style{Size: 16})
	require.NoError(t, err)
	require.Len(t, glyphs, 2)

	m, err := f.Metrics(16)
	require.NoError(t, err)
	assert.Equal(t, glyphs[0].X, glyphs[1].X)
	assert.Equal(t, glyphs[0].Y+m.LineHeight, glyphs[1].Y)
}

func TestLayoutWrapsAtSpace(t *testing.T) {
	f := defaultFont(t)
	text := "hello world"
	w, _, err := f.Measure(text, Style{Size: 16})
	require.NoError(t, err)

	glyphs, err := f.Layout(text, Style{Size: 16, MaxWidth: w - 1})
	require.NoError(t, err)
	require.Len(t, glyphs, len(text))

	first, wGlyph := glyphs[0], glyphs[6]
	assert.Equal(t, 'w', wGlyph.Parent)
	assert.Greater(t, wGlyph.Y, first.Y, "second word moves to the next line")
	assert.Less(t, wGlyph.X, first.X+first.W+2, "carried word starts at the line start")
	for _, g := range glyphs {
		assert.LessOrEqual(t, g.X+g.W, w-1)
	}
}

func TestLayoutNormalizesNFC(t *testing.T) {
	f := defaultFont(t)
	glyphs, err := f.Layout("e\u0301", Style{Size: 16})
	require.NoError(t, err)
	require.Len(t, glyphs, 1)
	assert.Equal(t, '\u00e9', glyphs[0].Parent)
}

func TestRasterizeMatchesLayoutBox(t *testing.T) {
	f := defaultFont(t)
	glyphs, err := f.Layout("A", Style{Size: 24})
	require.NoError(t, err)
	require.Len(t, glyphs, 1)

	bm, err := f.Rasterize(glyphs[0].Key)
	require.NoError(t, err)
	assert.Equal(t, int(glyphs[0].W), bm.W)
	assert.Equal(t, int(glyphs[0].H), bm.H)
	require.Len(t, bm.RGBA, bm.W*bm.H*4)

	var ink int
	for i := 0; i < len(bm.RGBA); i += 4 {
		assert.Equal(t, []byte{0xff, 0xff, 0xff}, bm.RGBA[i:i+3])
		ink += int(bm.RGBA[i+3])
	}
	assert.Positive(t, ink)
}

func TestRasterizeMissingRune(t *testing.T) {
	f := defaultFont(t)
	// Go Regular has no CJK glyphs; the box comes from .notdef.
	glyphs, err := f.Layout("中", Style{Size: 16})
	require.NoError(t, err)
	require.Len(t, glyphs, 1)

	bm, err := f.Rasterize(glyphs[0].Key)
	require.NoError(t, err)
	assert.Equal(t, int(glyphs[0].W), bm.W)
	assert.Equal(t, int(glyphs[0].H), bm.H)
}

func TestCacheNeverStoresZeroArea(t *testing.T) {
	f := defaultFont(t)
	a, err := atlas.New(device.NewMemory(), 256)
	require.NoError(t, err)
	c := NewCache(f, a, SkipGlyph)

	glyphs, err := f.Layout("A中 é☃", Style{Size: 16})
	require.NoError(t, err)
	for _, g := range glyphs {
		uv, ok, err := c.Lookup(g)
		require.NoError(t, err)
		if g.Empty() {
			assert.False(t, ok)
			continue
		}
		if ok {
			assert.Positive(t, uv.Width(), "rune %q", g.Parent)
			assert.Positive(t, uv.Height(), "rune %q", g.Parent)
		}
	}
}

func TestCacheSkipsBoxWithoutBitmap(t *testing.T) {
	f := defaultFont(t)
	up := &countingUploader{}
	c := NewCache(f, up, SkipGlyph)

	glyphs, err := f.Layout(" ", Style{Size: 16})
	require.NoError(t, err)
	require.Len(t, glyphs, 1)

	// A space rasterizes to nothing; give it a box anyway.
	g := glyphs[0]
	g.W, g.H = 6, 12
	for i := 0; i < 2; i++ {
		_, ok, err := c.Lookup(g)
		require.NoError(t, err)
		assert.False(t, ok)
	}
	assert.Zero(t, up.calls)
	assert.Equal(t, 1, c.Rasterizations())
}

func TestCacheRasterizesOncePerKey(t *testing.T) {
	f := defaultFont(t)
	up := &countingUploader{}
	c := NewCache(f, up, SkipGlyph)

	glyphs, err := f.Layout("AAB A", Style{Size: 12})
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		for _, g := range glyphs {
			_, _, err := c.Lookup(g)
			require.NoError(t, err)
		}
	}
	assert.Equal(t, 2, up.calls)
	assert.Equal(t, 2, c.Rasterizations())
	assert.Equal(t, 2, c.Len())

	uv1, ok, err := c.Lookup(glyphs[0])
	require.NoError(t, err)
	require.True(t, ok)
	uv2, _, _ := c.Lookup(glyphs[1])
	assert.Equal(t, uv1, uv2)
}

func TestCacheSizeIsPartOfKey(t *testing.T) {
	f := defaultFont(t)
	up := &countingUploader{}
	c := NewCache(f, up, SkipGlyph)

	for _, size := range []float32{12, 24} {
		glyphs, err := f.Layout("A", Style{Size: size})
		require.NoError(t, err)
		_, ok, err := c.Lookup(glyphs[0])
		require.NoError(t, err)
		require.True(t, ok)
	}
	assert.Equal(t, 2, up.calls)
}

func TestCacheAtlasFullSkip(t *testing.T) {
	f := defaultFont(t)
	up := &countingUploader{err: atlas.ErrAtlasFull}
	c := NewCache(f, up, SkipGlyph)

	glyphs, err := f.Layout("A", Style{Size: 12})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, ok, err := c.Lookup(glyphs[0])
		require.NoError(t, err)
		assert.False(t, ok)
	}
	assert.Equal(t, 1, c.Rasterizations(), "a dropped glyph is not retried")
	assert.Equal(t, 1, c.Dropped())
}

func TestCacheAtlasFullFail(t *testing.T) {
	f := defaultFont(t)
	up := &countingUploader{err: atlas.ErrAtlasFull}
	c := NewCache(f, up, FailDraw)

	glyphs, err := f.Layout("A", Style{Size: 12})
	require.NoError(t, err)
	_, _, err = c.Lookup(glyphs[0])
	assert.True(t, errors.Is(err, atlas.ErrAtlasFull))
}

func TestParseOptions(t *testing.T) {
	h, err := ParseHinting("full")
	require.NoError(t, err)
	assert.Equal(t, HintingFull, h)
	_, err = ParseHinting("slight")
	assert.Error(t, err)

	p, err := ParseFullPolicy("error")
	require.NoError(t, err)
	assert.Equal(t, FailDraw, p)
	_, err = ParseFullPolicy("panic")
	assert.Error(t, err)
}
