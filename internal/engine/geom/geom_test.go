package geom

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVertexLayout(t *testing.T) {
	assert.Equal(t, 32, VertexSize)

	vs := []Vertex{{Pos: [2]float32{1, 2}}, {Pos: [2]float32{3, 4}}}
	assert.Len(t, VertexBytes(vs), 64)
	assert.Nil(t, VertexBytes(nil))
}

func TestRGBImpliesOpaque(t *testing.T) {
	c := RGB(0.1, 0.2, 0.3)
	assert.Equal(t, float32(1), c.A)
	assert.Equal(t, [4]float32{0.1, 0.2, 0.3, 1}, c.Array())
	assert.Equal(t, float32(0.5), c.WithAlpha(0.5).A)
}

func TestRGBA8(t *testing.T) {
	c := RGBA8(255, 0, 255, 0)
	assert.Equal(t, Color{1, 0, 1, 0}, c)
}

func TestRectOverlaps(t *testing.T) {
	a := NewRect(0, 0, 10, 10)
	assert.True(t, a.Overlaps(NewRect(5, 5, 15, 15)))
	assert.False(t, a.Overlaps(NewRect(10, 0, 20, 10)), "touching edges do not overlap")
	assert.True(t, a.Contains(10, 10))
	assert.Equal(t, float32(10), a.Width())

	cx, cy := a.Center()
	assert.Equal(t, float32(5), cx)
	assert.Equal(t, float32(5), cy)
	assert.Equal(t, Rect{}, Zero())
}
