package tess

import (
	"slices"

	"github.com/Faultbox/batch2d/pkg/math"
)

// FillRule decides which regions of a self-overlapping path are inside.
type FillRule int

const (
	NonZero FillRule = iota
	EvenOdd
)

func (r FillRule) inside(winding int) bool {
	if r == EvenOdd {
		return winding%2 != 0
	}
	return winding != 0
}

// FillOptions configures Fill.
type FillOptions struct {
	Rule      FillRule
	Tolerance float32
}

type edge struct {
	x0, y0, x1, y1 float64
	dir            int
}

func (e edge) xAt(y float64) float64 {
	return e.x0 + (y-e.y0)*(e.x1-e.x0)/(e.y1-e.y0)
}

// Fill tessellates the interior of p. Every subpath is treated as closed.
//
// The plane is cut into horizontal bands at every vertex and every edge
// crossing, so within a band the edges never cross and the inside spans
// are trapezoids.
func Fill(p *Path, opts FillOptions) (Geometry, error) {
	lines, err := p.Flatten(opts.Tolerance)
	if err != nil {
		return Geometry{}, err
	}
	edges := collectEdges(lines)
	if len(edges) == 0 {
		return Geometry{}, nil
	}

	ys := bandBoundaries(edges)
	var (
		g      Geometry
		active []edge
		xs     []span
	)
	for b := 0; b+1 < len(ys); b++ {
		ya, yb := ys[b], ys[b+1]
		if yb-ya < 1e-9 {
			continue
		}
		active = active[:0]
		for _, e := range edges {
			if e.y0 <= ya && e.y1 >= yb {
				active = append(active, e)
			}
		}
		if len(active) < 2 {
			continue
		}
		xs = xs[:0]
		for _, e := range active {
			xs = append(xs, span{top: e.xAt(ya), bottom: e.xAt(yb), dir: e.dir})
		}
		slices.SortFunc(xs, func(a, b span) int {
			ma, mb := a.top+a.bottom, b.top+b.bottom
			switch {
			case ma < mb:
				return -1
			case ma > mb:
				return 1
			}
			return 0
		})

		winding := 0
		for i := 0; i+1 < len(xs); i++ {
			winding += xs[i].dir
			if !opts.Rule.inside(winding) {
				continue
			}
			l, r := xs[i], xs[i+1]
			if r.top-l.top < 1e-9 && r.bottom-l.bottom < 1e-9 {
				continue
			}
			g.addQuad(
				vec(l.top, ya), vec(r.top, ya),
				vec(r.bottom, yb), vec(l.bottom, yb),
			)
		}
	}
	return g, nil
}

type span struct {
	top, bottom float64
	dir         int
}

func vec(x, y float64) math.Vec2 {
	return math.V2(float32(x), float32(y))
}

func collectEdges(lines []Polyline) []edge {
	var edges []edge
	for _, pl := range lines {
		n := len(pl.Points)
		if n < 3 {
			continue
		}
		for i := 0; i < n; i++ {
			a, b := pl.Points[i], pl.Points[(i+1)%n]
			e := edge{x0: float64(a.X), y0: float64(a.Y), x1: float64(b.X), y1: float64(b.Y), dir: 1}
			if e.y0 == e.y1 {
				continue
			}
			if e.y0 > e.y1 {
				e.x0, e.y0, e.x1, e.y1 = e.x1, e.y1, e.x0, e.y0
				e.dir = -1
			}
			edges = append(edges, e)
		}
	}
	return edges
}

// bandBoundaries returns the sorted, de-duplicated y values of all edge
// endpoints and all proper edge intersections.
func bandBoundaries(edges []edge) []float64 {
	ys := make([]float64, 0, len(edges)*2)
	for _, e := range edges {
		ys = append(ys, e.y0, e.y1)
	}
	for i := range edges {
		for j := i + 1; j < len(edges); j++ {
			if y, ok := intersectY(edges[i], edges[j]); ok {
				ys = append(ys, y)
			}
		}
	}
	slices.Sort(ys)
	return slices.Compact(ys)
}

func intersectY(a, b edge) (float64, bool) {
	if a.y1 <= b.y0 || b.y1 <= a.y0 {
		return 0, false
	}
	dax, day := a.x1-a.x0, a.y1-a.y0
	dbx, dby := b.x1-b.x0, b.y1-b.y0
	den := dax*dby - day*dbx
	if den == 0 {
		return 0, false
	}
	ex, ey := b.x0-a.x0, b.y0-a.y0
	t := (ex*dby - ey*dbx) / den
	u := (ex*day - ey*dax) / den
	if t <= 0 || t >= 1 || u <= 0 || u >= 1 {
		return 0, false
	}
	return a.y0 + t*day, true
}
