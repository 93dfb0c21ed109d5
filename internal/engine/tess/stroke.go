package tess

import (
	gomath "math"

	"github.com/Faultbox/batch2d/pkg/math"
)

// LineJoin is the shape drawn where two segments meet.
type LineJoin int

const (
	MiterJoin LineJoin = iota
	BevelJoin
	RoundJoin
)

// LineCap is the shape drawn at the ends of open subpaths.
type LineCap int

const (
	ButtCap LineCap = iota
	SquareCap
)

// StrokeOptions configures Stroke.
type StrokeOptions struct {
	Width      float32
	Join       LineJoin
	Cap        LineCap
	MiterLimit float32
	Tolerance  float32
}

// DefaultStrokeOptions returns a 1px mitered stroke with butt caps.
func DefaultStrokeOptions() StrokeOptions {
	return StrokeOptions{Width: 1, Join: MiterJoin, Cap: ButtCap, MiterLimit: 4}
}

// roundStep is the largest angle covered by one triangle of a round join.
const roundStep = gomath.Pi / 8

// Stroke tessellates a constant-width outline centered on p.
func Stroke(p *Path, opts StrokeOptions) (Geometry, error) {
	if opts.Width <= 0 || !finite(opts.Width) {
		return Geometry{}, ErrMalformedPath
	}
	if opts.MiterLimit < 1 {
		opts.MiterLimit = 4
	}
	lines, err := p.Flatten(opts.Tolerance)
	if err != nil {
		return Geometry{}, err
	}

	s := stroker{hw: opts.Width / 2, opts: opts}
	for _, pl := range lines {
		s.polyline(dedupe(pl))
	}
	return s.g, nil
}

type stroker struct {
	hw   float32
	opts StrokeOptions
	g    Geometry
}

func dedupe(pl Polyline) Polyline {
	pts := make([]math.Vec2, 0, len(pl.Points))
	for _, pt := range pl.Points {
		if len(pts) == 0 || pts[len(pts)-1] != pt {
			pts = append(pts, pt)
		}
	}
	if pl.Closed && len(pts) > 1 && pts[0] == pts[len(pts)-1] {
		pts = pts[:len(pts)-1]
	}
	return Polyline{Points: pts, Closed: pl.Closed}
}

func (s *stroker) polyline(pl Polyline) {
	pts := pl.Points
	n := len(pts)
	if n < 2 {
		return
	}
	closed := pl.Closed && n > 2

	segs := n - 1
	if closed {
		segs = n
	}
	for i := 0; i < segs; i++ {
		a, b := pts[i], pts[(i+1)%n]
		d := b.Sub(a).Normalize()
		if !closed && s.opts.Cap == SquareCap {
			if i == 0 {
				a = a.Sub(d.Scale(s.hw))
			}
			if i == segs-1 {
				b = b.Add(d.Scale(s.hw))
			}
		}
		nrm := d.Perp().Scale(s.hw)
		s.g.addQuad(a.Add(nrm), a.Sub(nrm), b.Sub(nrm), b.Add(nrm))
	}

	if closed {
		for i := 0; i < n; i++ {
			prev, cur, next := pts[(i+n-1)%n], pts[i], pts[(i+1)%n]
			s.join(cur, cur.Sub(prev).Normalize(), next.Sub(cur).Normalize())
		}
		return
	}
	for i := 1; i < n-1; i++ {
		s.join(pts[i], pts[i].Sub(pts[i-1]).Normalize(), pts[i+1].Sub(pts[i]).Normalize())
	}
}

// join fills the wedge on the outer side of the turn at p from direction d0
// to direction d1.
func (s *stroker) join(p, d0, d1 math.Vec2) {
	cross := d0.Cross(d1)
	if cross > -1e-6 && cross < 1e-6 {
		return
	}
	side := float32(1)
	if cross > 0 {
		side = -1
	}
	n0 := d0.Perp().Scale(s.hw * side)
	n1 := d1.Perp().Scale(s.hw * side)
	a, b := p.Add(n0), p.Add(n1)

	switch s.opts.Join {
	case RoundJoin:
		s.round(p, n0, n1)
	case MiterJoin:
		bis := n0.Add(n1).Normalize()
		cosHalf := bis.Dot(n0) / s.hw
		if cosHalf > 0 && 1/cosHalf <= s.opts.MiterLimit {
			tip := p.Add(bis.Scale(s.hw / cosHalf))
			s.g.addTri(p, a, tip)
			s.g.addTri(p, tip, b)
			return
		}
		s.g.addTri(p, a, b)
	default:
		s.g.addTri(p, a, b)
	}
}

func (s *stroker) round(p, n0, n1 math.Vec2) {
	theta := gomath.Atan2(float64(n0.Cross(n1)), float64(n0.Dot(n1)))
	steps := int(gomath.Ceil(gomath.Abs(theta) / roundStep))
	steps = max(steps, 1)
	prev := p.Add(n0)
	for k := 1; k <= steps; k++ {
		ang := theta * float64(k) / float64(steps)
		sin, cos := gomath.Sincos(ang)
		r := math.V2(
			n0.X*float32(cos)-n0.Y*float32(sin),
			n0.X*float32(sin)+n0.Y*float32(cos),
		)
		next := p.Add(r)
		s.g.addTri(p, prev, next)
		prev = next
	}
}
