// Package tess converts vector paths into triangle lists for filling and
// stroking. Coordinates are logical pixels.
package tess

import (
	"errors"
	gomath "math"

	"github.com/Faultbox/batch2d/pkg/math"
)

// ErrMalformedPath is returned for non-finite coordinates or invalid options.
var ErrMalformedPath = errors.New("tess: malformed path")

// DefaultTolerance is the maximum distance between a curve and its flattened
// polyline, in logical pixels.
const DefaultTolerance = 0.25

type verb uint8

const (
	verbMove verb = iota
	verbLine
	verbQuad
	verbCubic
	verbClose
)

// Path is an ordered list of subpaths built from move, line, curve and close
// commands. The zero value is an empty path.
type Path struct {
	verbs  []verb
	points []math.Vec2
	open   bool
	start  math.Vec2
	last   math.Vec2
}

// NewPath returns an empty path.
func NewPath() *Path {
	return &Path{}
}

// MoveTo starts a new subpath at (x, y).
func (p *Path) MoveTo(x, y float32) {
	pt := math.V2(x, y)
	p.verbs = append(p.verbs, verbMove)
	p.points = append(p.points, pt)
	p.open = true
	p.start, p.last = pt, pt
}

// ensure starts a subpath at the current point when none is open, so drawing
// after Close continues from where the last subpath ended.
func (p *Path) ensure(x, y float32) {
	if p.open {
		return
	}
	if len(p.verbs) == 0 {
		p.MoveTo(x, y)
		return
	}
	p.MoveTo(p.last.X, p.last.Y)
}

// LineTo adds a straight segment to (x, y).
func (p *Path) LineTo(x, y float32) {
	p.ensure(x, y)
	pt := math.V2(x, y)
	p.verbs = append(p.verbs, verbLine)
	p.points = append(p.points, pt)
	p.last = pt
}

// QuadTo adds a quadratic Bézier segment.
func (p *Path) QuadTo(cx, cy, x, y float32) {
	p.ensure(cx, cy)
	pt := math.V2(x, y)
	p.verbs = append(p.verbs, verbQuad)
	p.points = append(p.points, math.V2(cx, cy), pt)
	p.last = pt
}

// CubicTo adds a cubic Bézier segment.
func (p *Path) CubicTo(c1x, c1y, c2x, c2y, x, y float32) {
	p.ensure(c1x, c1y)
	pt := math.V2(x, y)
	p.verbs = append(p.verbs, verbCubic)
	p.points = append(p.points, math.V2(c1x, c1y), math.V2(c2x, c2y), pt)
	p.last = pt
}

// Close closes the current subpath back to its start point.
func (p *Path) Close() {
	if !p.open {
		return
	}
	p.verbs = append(p.verbs, verbClose)
	p.open = false
	p.last = p.start
}

// Rect adds a closed rectangle with corners (x1,y1) and (x2,y2).
func (p *Path) Rect(x1, y1, x2, y2 float32) {
	p.MoveTo(x1, y1)
	p.LineTo(x2, y1)
	p.LineTo(x2, y2)
	p.LineTo(x1, y2)
	p.Close()
}

// Polygon adds a closed polygon through pts. Fewer than two points add nothing.
func (p *Path) Polygon(pts ...math.Vec2) {
	if len(pts) < 2 {
		return
	}
	p.MoveTo(pts[0].X, pts[0].Y)
	for _, pt := range pts[1:] {
		p.LineTo(pt.X, pt.Y)
	}
	p.Close()
}

// Empty reports whether the path has no commands.
func (p *Path) Empty() bool {
	return len(p.verbs) == 0
}

// Polyline is one flattened subpath.
type Polyline struct {
	Points []math.Vec2
	Closed bool
}

// Flatten converts curves to line segments within tolerance. It fails with
// ErrMalformedPath if any coordinate is NaN or infinite.
func (p *Path) Flatten(tolerance float32) ([]Polyline, error) {
	if tolerance <= 0 || !finite(tolerance) {
		tolerance = DefaultTolerance
	}
	for _, pt := range p.points {
		if !pt.IsFinite() {
			return nil, ErrMalformedPath
		}
	}

	var (
		out []Polyline
		cur *Polyline
		i   int
	)
	for _, v := range p.verbs {
		switch v {
		case verbMove:
			out = append(out, Polyline{Points: []math.Vec2{p.points[i]}})
			cur = &out[len(out)-1]
			i++
		case verbLine:
			cur.Points = append(cur.Points, p.points[i])
			i++
		case verbQuad:
			from := cur.Points[len(cur.Points)-1]
			cur.Points = flattenQuad(cur.Points, from, p.points[i], p.points[i+1], tolerance)
			i += 2
		case verbCubic:
			from := cur.Points[len(cur.Points)-1]
			cur.Points = flattenCubic(cur.Points, from, p.points[i], p.points[i+1], p.points[i+2], tolerance)
			i += 3
		case verbClose:
			cur.Closed = true
		}
	}
	return out, nil
}

const maxCurveSegments = 1024

func segmentsFor(deviation, tolerance float32) int {
	n := int(gomath.Ceil(gomath.Sqrt(float64(deviation / tolerance))))
	return min(max(n, 1), maxCurveSegments)
}

func flattenQuad(dst []math.Vec2, p0, p1, p2 math.Vec2, tol float32) []math.Vec2 {
	dd := p0.Sub(p1.Scale(2)).Add(p2).Length()
	n := segmentsFor(dd/4, tol)
	for k := 1; k <= n; k++ {
		t := float32(k) / float32(n)
		a := p0.Lerp(p1, t)
		b := p1.Lerp(p2, t)
		dst = append(dst, a.Lerp(b, t))
	}
	return dst
}

func flattenCubic(dst []math.Vec2, p0, p1, p2, p3 math.Vec2, tol float32) []math.Vec2 {
	d1 := p0.Sub(p1.Scale(2)).Add(p2).Length()
	d2 := p1.Sub(p2.Scale(2)).Add(p3).Length()
	n := segmentsFor(3*max(d1, d2)/4, tol)
	for k := 1; k <= n; k++ {
		t := float32(k) / float32(n)
		a, b, c := p0.Lerp(p1, t), p1.Lerp(p2, t), p2.Lerp(p3, t)
		ab, bc := a.Lerp(b, t), b.Lerp(c, t)
		dst = append(dst, ab.Lerp(bc, t))
	}
	return dst
}

func finite(f float32) bool {
	return math.V2(f, 0).IsFinite()
}
