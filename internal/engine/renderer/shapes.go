package renderer

import (
	"encoding/binary"
	"math"

	"github.com/Faultbox/batch2d/internal/engine/geom"
	"github.com/Faultbox/batch2d/internal/engine/tess"
)

var (
	quadIndices = []uint32{0, 1, 2, 0, 2, 3}
	triIndices  = []uint32{0, 1, 2}
)

func (r *Renderer) vertex(x, y float32, c geom.Color) geom.Vertex {
	return geom.Vertex{Pos: [2]float32{x, y}, UV: r.blank, Color: c.Array()}
}

// FillRect fills the axis-aligned rectangle spanned by (x1,y1) and (x2,y2).
func (r *Renderer) FillRect(x1, y1, x2, y2 float32, c geom.Color) error {
	vs := []geom.Vertex{
		r.vertex(x1, y1, c),
		r.vertex(x1, y2, c),
		r.vertex(x2, y2, c),
		r.vertex(x2, y1, c),
	}
	return r.add(vs, quadIndices)
}

// FillTri fills one triangle.
func (r *Renderer) FillTri(x1, y1, x2, y2, x3, y3 float32, c geom.Color) error {
	vs := []geom.Vertex{
		r.vertex(x1, y1, c),
		r.vertex(x2, y2, c),
		r.vertex(x3, y3, c),
	}
	return r.add(vs, triIndices)
}

// DrawRect strokes the outline of a rectangle with the configured width.
func (r *Renderer) DrawRect(x1, y1, x2, y2 float32, c geom.Color) error {
	p := tess.NewPath()
	p.Rect(x1, y1, x2, y2)
	return r.DrawPath(p, c)
}

// DrawTri strokes the outline of a triangle with the configured width.
func (r *Renderer) DrawTri(x1, y1, x2, y2, x3, y3 float32, c geom.Color) error {
	p := tess.NewPath()
	p.MoveTo(x1, y1)
	p.LineTo(x2, y2)
	p.LineTo(x3, y3)
	p.Close()
	return r.DrawPath(p, c)
}

// DrawLine strokes a single segment with the configured width.
func (r *Renderer) DrawLine(x1, y1, x2, y2 float32, c geom.Color) error {
	p := tess.NewPath()
	p.MoveTo(x1, y1)
	p.LineTo(x2, y2)
	return r.DrawPath(p, c)
}

// FillPath fills p with the non-zero rule.
func (r *Renderer) FillPath(p *tess.Path, c geom.Color) error {
	return r.FillPathRule(p, tess.NonZero, c)
}

// FillPathRule fills p with an explicit winding rule.
func (r *Renderer) FillPathRule(p *tess.Path, rule tess.FillRule, c geom.Color) error {
	g, err := tess.Fill(p, tess.FillOptions{Rule: rule, Tolerance: r.config.CurveTolerance})
	if err != nil {
		return err
	}
	return r.addGeometry(g, c)
}

// DrawPath strokes p with the configured width, miter joins and butt caps.
func (r *Renderer) DrawPath(p *tess.Path, c geom.Color) error {
	opts := tess.DefaultStrokeOptions()
	opts.Width = r.config.StrokeWidth
	return r.DrawPathStyled(p, opts, c)
}

// DrawPathStyled strokes p with explicit stroke options. A zero tolerance
// uses the configured one.
func (r *Renderer) DrawPathStyled(p *tess.Path, opts tess.StrokeOptions, c geom.Color) error {
	if opts.Tolerance <= 0 {
		opts.Tolerance = r.config.CurveTolerance
	}
	g, err := tess.Stroke(p, opts)
	if err != nil {
		return err
	}
	return r.addGeometry(g, c)
}

func (r *Renderer) addGeometry(g tess.Geometry, c geom.Color) error {
	if len(g.Indices) == 0 {
		return nil
	}
	vs := make([]geom.Vertex, len(g.Positions))
	for i, p := range g.Positions {
		vs[i] = r.vertex(p.X, p.Y, c)
	}
	return r.add(vs, g.Indices)
}

func float32Bytes(fs []float32) []byte {
	out := make([]byte, 0, len(fs)*4)
	for _, f := range fs {
		out = binary.NativeEndian.AppendUint32(out, math.Float32bits(f))
	}
	return out
}
