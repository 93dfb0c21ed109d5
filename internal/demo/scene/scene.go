// Package scene draws the demo frame. It only talks to the renderer, so
// it runs the same against the GL device and the headless one.
package scene

import (
	"fmt"
	"math"

	"go.uber.org/multierr"

	"github.com/Faultbox/batch2d/internal/engine/geom"
	"github.com/Faultbox/batch2d/internal/engine/renderer"
	"github.com/Faultbox/batch2d/internal/engine/tess"
	vec "github.com/Faultbox/batch2d/pkg/math"
)

// State is what changes between frames.
type State struct {
	Time   float64 // seconds since start
	FPS    int
	MouseX float32
	MouseY float32
	Stats  renderer.Stats
}

const (
	margin   = 16
	textSize = 16
)

const paragraph = "Every draw call appends triangles to one frame buffer. " +
	"Glyphs are rasterized once per size and packed into a shelf atlas that never shrinks. " +
	"Paths are flattened, then filled band by band or stroked segment by segment."

// Draw emits one frame. A failing widget does not stop the others; all
// failures are returned together.
func Draw(r *renderer.Renderer, st State) error {
	vp := r.Viewport()
	w, h := vp.LogicalWidth, vp.LogicalHeight

	var err error
	err = multierr.Append(err, panel(r, margin, margin, w-margin, h-margin))
	err = multierr.Append(err, header(r, st, w))
	err = multierr.Append(err, shapes(r, margin*2, 80))
	err = multierr.Append(err, stars(r, margin*2, 220))
	err = multierr.Append(err, curve(r, 260, 220, st.Time))
	err = multierr.Append(err, text(r, 480, 80, min(320, w-480-margin*2)))
	err = multierr.Append(err, cursor(r, st.MouseX, st.MouseY))
	return err
}

func panel(r *renderer.Renderer, x1, y1, x2, y2 float32) error {
	return multierr.Combine(
		r.FillRect(x1, y1, x2, y2, geom.ColorPanelBg),
		r.DrawRect(x1, y1, x2, y2, geom.ColorPanelBorder),
	)
}

func header(r *renderer.Renderer, st State, w float32) error {
	title := "batch2d"
	tw, _, err := r.MeasureText(title, 24)
	if err != nil {
		return err
	}
	status := fmt.Sprintf("%d fps  %d indices  atlas %.1f%%  glyphs %d",
		st.FPS, st.Stats.CommittedIndices, st.Stats.AtlasUtilization*100, st.Stats.CachedGlyphs)
	return multierr.Combine(
		r.DrawText(title, 24, (w-tw)/2, margin*2, renderer.TextBounds{}, geom.ColorWhite),
		r.DrawFittedTextLine(status, 12, margin*2, margin*2+6, (w-tw)/2-margin*3, geom.ColorTextDim),
	)
}

func shapes(r *renderer.Renderer, x, y float32) error {
	return multierr.Combine(
		r.FillRect(x, y, x+60, y+60, geom.ColorHighlight),
		r.DrawRect(x+80, y, x+140, y+60, geom.ColorWhite),
		r.FillTri(x, y+120, x+30, y+70, x+60, y+120, geom.ColorRed),
		r.DrawTri(x+80, y+120, x+110, y+70, x+140, y+120, geom.ColorGreen),
		r.DrawLine(x, y+130, x+140, y+130, geom.ColorText),
	)
}

// star returns a self-intersecting five point star.
func star(cx, cy, radius float32) *tess.Path {
	pts := make([]vec.Vec2, 5)
	for i := range pts {
		a := -math.Pi/2 + float64(i)*4*math.Pi/5
		pts[i] = vec.V2(cx+radius*float32(math.Cos(a)), cy+radius*float32(math.Sin(a)))
	}
	p := tess.NewPath()
	p.Polygon(pts...)
	return p
}

func stars(r *renderer.Renderer, x, y float32) error {
	return multierr.Combine(
		r.FillPath(star(x+45, y+50, 45), geom.ColorHighlight),
		r.FillPathRule(star(x+145, y+50, 45), tess.EvenOdd, geom.ColorHighlight),
	)
}

func curve(r *renderer.Renderer, x, y float32, t float64) error {
	sway := float32(math.Sin(t*2)) * 40
	p := tess.NewPath()
	p.MoveTo(x, y+80)
	p.CubicTo(x+40, y+sway, x+120, y+160-sway, x+160, y+80)
	p.QuadTo(x+180, y+40, x+200, y+80)

	opts := tess.DefaultStrokeOptions()
	opts.Width = 6
	opts.Join = tess.RoundJoin
	opts.Cap = tess.SquareCap
	return r.DrawPathStyled(p, opts, geom.RGBA8(240, 180, 60, 255))
}

func text(r *renderer.Renderer, x, y, width float32) error {
	if width <= 0 {
		return nil
	}
	return multierr.Combine(
		r.DrawText("Wrapped and clipped", textSize, x, y, renderer.TextBounds{}, geom.ColorWhite),
		r.DrawText(paragraph, 14, x, y+28, renderer.TextBounds{MaxWidth: width, MaxHeight: 120}, geom.ColorText),
		r.DrawRect(x, y+28, x+width, y+28+120, geom.ColorPanelBorder),
	)
}

func cursor(r *renderer.Renderer, x, y float32) error {
	if x <= 0 && y <= 0 {
		return nil
	}
	return multierr.Combine(
		r.DrawLine(x-6, y, x+6, y, geom.ColorWhite),
		r.DrawLine(x, y-6, x, y+6, geom.ColorWhite),
	)
}
