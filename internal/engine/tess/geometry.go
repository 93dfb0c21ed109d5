package tess

import "github.com/Faultbox/batch2d/pkg/math"

// Geometry is an indexed triangle list.
type Geometry struct {
	Positions []math.Vec2
	Indices   []uint32
}

func (g *Geometry) addTri(a, b, c math.Vec2) {
	base := uint32(len(g.Positions))
	g.Positions = append(g.Positions, a, b, c)
	g.Indices = append(g.Indices, base, base+1, base+2)
}

// addQuad adds the quad a-b-c-d as triangles (a,b,c) and (a,c,d).
func (g *Geometry) addQuad(a, b, c, d math.Vec2) {
	base := uint32(len(g.Positions))
	g.Positions = append(g.Positions, a, b, c, d)
	g.Indices = append(g.Indices, base, base+1, base+2, base, base+2, base+3)
}

// Triangles returns the number of triangles.
func (g Geometry) Triangles() int {
	return len(g.Indices) / 3
}

// Area returns the summed absolute area of all triangles.
func (g Geometry) Area() float32 {
	var sum float32
	for i := 0; i+2 < len(g.Indices); i += 3 {
		a := g.Positions[g.Indices[i]]
		b := g.Positions[g.Indices[i+1]]
		c := g.Positions[g.Indices[i+2]]
		ar := b.Sub(a).Cross(c.Sub(a)) / 2
		if ar < 0 {
			ar = -ar
		}
		sum += ar
	}
	return sum
}
