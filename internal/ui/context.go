// Package ui is a small immediate-mode widget layer drawn through the
// batch renderer: draggable windows, labels, buttons, checkboxes and bars.
package ui

import (
	"go.uber.org/multierr"

	"github.com/Faultbox/batch2d/internal/engine/geom"
	"github.com/Faultbox/batch2d/internal/engine/renderer"
)

// Layout constants in logical pixels.
const (
	TitleBarHeight = 24
	Padding        = 8
	Spacing        = 4
	TextSize       = 14
	RowHeight      = 24
	BoxSize        = 16
)

// Widget colors.
var (
	ColorButtonNormal = geom.Color{R: 0.2, G: 0.2, B: 0.28, A: 1}
	ColorButtonHover  = geom.Color{R: 0.28, G: 0.28, B: 0.38, A: 1}
	ColorButtonActive = geom.Color{R: 0.15, G: 0.45, B: 0.7, A: 1}
	ColorInputBg      = geom.Color{R: 0.05, G: 0.05, B: 0.08, A: 1}
)

// WindowState is the retained part of a window: where it is and whether
// it is being dragged.
type WindowState struct {
	ID     string
	X, Y   float32
	W, H   float32
	Moving bool
}

// Context lays out widgets inside windows and tracks the active widget.
type Context struct {
	r       *renderer.Renderer
	Pointer Pointer

	activeWidget string
	windows      map[string]*WindowState
	current      *WindowState

	cursorX, cursorY float32
	rowH             float32

	err error
}

// NewContext creates a UI context drawing through r.
func NewContext(r *renderer.Renderer) *Context {
	return &Context{
		r:       r,
		windows: make(map[string]*WindowState),
	}
}

// Begin starts a UI frame. Set Pointer's raw fields before calling it.
func (c *Context) Begin() {
	c.Pointer.update()
	c.err = nil
}

// End finishes the frame and returns every draw failure since Begin.
func (c *Context) End() error {
	if c.Pointer.LeftReleased {
		c.activeWidget = ""
	}
	err := c.err
	c.err = nil
	return err
}

// Window returns the retained state of a window, or nil.
func (c *Context) Window(id string) *WindowState {
	return c.windows[id]
}

func (c *Context) check(err error) {
	c.err = multierr.Append(c.err, err)
}

func (c *Context) fill(x, y, w, h float32, col geom.Color) {
	c.check(c.r.FillRect(x, y, x+w, y+h, col))
}

func (c *Context) outline(x, y, w, h float32, col geom.Color) {
	c.check(c.r.DrawRect(x, y, x+w, y+h, col))
}

func (c *Context) text(s string, x, y float32, col geom.Color) {
	c.check(c.r.DrawText(s, TextSize, x, y, renderer.TextBounds{}, col))
}

func (c *Context) measure(s string) (float32, float32) {
	w, h, err := c.r.MeasureText(s, TextSize)
	c.check(err)
	return w, h
}

// BeginWindow opens a window at (x, y) the first time id is seen. After
// that the window keeps the position it was dragged to.
func (c *Context) BeginWindow(id string, x, y, w, h float32, title string) {
	ws, ok := c.windows[id]
	if !ok {
		ws = &WindowState{ID: id, X: x, Y: y, W: w, H: h}
		c.windows[id] = ws
	}
	ws.W, ws.H = w, h
	c.current = ws

	titleID := id + "_titlebar"
	if c.Pointer.LeftPressed && c.Pointer.In(ws.X, ws.Y, ws.W, TitleBarHeight) && c.activeWidget == "" {
		ws.Moving = true
		c.activeWidget = titleID
	}
	if ws.Moving && c.Pointer.LeftDown {
		ws.X += c.Pointer.DeltaX
		ws.Y += c.Pointer.DeltaY
	}
	if c.Pointer.LeftReleased {
		ws.Moving = false
	}

	c.fill(ws.X, ws.Y, ws.W, ws.H, geom.ColorPanelBg)
	c.outline(ws.X, ws.Y, ws.W, ws.H, geom.ColorPanelBorder)
	c.fill(ws.X+1, ws.Y+1, ws.W-2, TitleBarHeight-1, ColorButtonNormal)

	fitted, err := c.r.FitText(title, TextSize, ws.W-Padding*2)
	c.check(err)
	_, th := c.measure(fitted)
	c.text(fitted, ws.X+Padding, ws.Y+(TitleBarHeight-th)/2, geom.ColorText)

	c.cursorX = ws.X + Padding
	c.cursorY = ws.Y + TitleBarHeight + Padding
	c.rowH = 0
}

// EndWindow closes the current window.
func (c *Context) EndWindow() {
	c.current = nil
}

// Row moves the cursor to a new row of the given height.
func (c *Context) Row(height float32) {
	if c.current == nil {
		return
	}
	c.cursorX = c.current.X + Padding
	c.cursorY += c.rowH + Spacing
	c.rowH = height
}

func (c *Context) contentWidth() float32 {
	return c.current.X + c.current.W - Padding - c.cursorX
}

// Label draws text at the cursor, cut with an ellipsis at the window edge.
func (c *Context) Label(s string) {
	c.LabelColored(s, geom.ColorText)
}

// LabelColored is Label with an explicit color.
func (c *Context) LabelColored(s string, col geom.Color) {
	if c.current == nil {
		return
	}
	fitted, err := c.r.FitText(s, TextSize, c.contentWidth())
	c.check(err)
	c.text(fitted, c.cursorX, c.cursorY, col)
	w, _ := c.measure(fitted)
	c.cursorX += w + Spacing
}

// Button draws a button and reports whether it was pressed this frame.
// A zero width fills the rest of the row.
func (c *Context) Button(id string, width float32, label string) bool {
	if c.current == nil {
		return false
	}
	x, y := c.cursorX, c.cursorY
	h := c.rowH
	if h == 0 {
		h = RowHeight
	}
	if width == 0 {
		width = c.contentWidth()
	}

	fullID := c.current.ID + "_" + id
	hovered := c.Pointer.In(x, y, width, h)
	clicked := false
	if hovered && c.Pointer.LeftPressed && c.activeWidget == "" {
		c.activeWidget = fullID
		clicked = true
	}

	col := ColorButtonNormal
	switch {
	case c.activeWidget == fullID:
		col = ColorButtonActive
	case hovered:
		col = ColorButtonHover
	}
	c.fill(x, y, width, h, col)
	c.outline(x, y, width, h, geom.ColorPanelBorder)

	tw, th := c.measure(label)
	c.text(label, x+(width-tw)/2, y+(h-th)/2, geom.ColorText)

	c.cursorX += width + Spacing
	return clicked
}

// Checkbox draws a toggle and returns its new value. It flips on release
// over the box that was pressed.
func (c *Context) Checkbox(id string, label string, checked bool) bool {
	if c.current == nil {
		return checked
	}
	x, y := c.cursorX, c.cursorY

	fullID := c.current.ID + "_" + id
	hovered := c.Pointer.In(x, y, BoxSize, BoxSize)
	if hovered && c.Pointer.LeftPressed && c.activeWidget == "" {
		c.activeWidget = fullID
	}
	if c.activeWidget == fullID && c.Pointer.LeftReleased {
		if hovered {
			checked = !checked
		}
		c.activeWidget = ""
	}

	bg := ColorInputBg
	if hovered {
		bg = ColorButtonHover
	}
	c.fill(x, y, BoxSize, BoxSize, bg)
	c.outline(x, y, BoxSize, BoxSize, geom.ColorPanelBorder)
	if checked {
		const inset = 4
		c.fill(x+inset, y+inset, BoxSize-inset*2, BoxSize-inset*2, geom.ColorHighlight)
	}

	lw, th := c.measure(label)
	c.text(label, x+BoxSize+Padding, y+(BoxSize-th)/2, geom.ColorText)
	c.cursorX += BoxSize + Padding + lw + Padding
	return checked
}

// ProgressBar draws fraction (clamped to 0..1) as a filled bar.
func (c *Context) ProgressBar(fraction, width, height float32) {
	if c.current == nil {
		return
	}
	fraction = max(0, min(1, fraction))
	if width == 0 {
		width = c.contentWidth()
	}
	if height == 0 {
		height = BoxSize
	}
	x, y := c.cursorX, c.cursorY
	c.fill(x, y, width, height, ColorInputBg)
	if fraction > 0 {
		c.fill(x, y, width*fraction, height, geom.ColorHighlight)
	}
	c.outline(x, y, width, height, geom.ColorPanelBorder)
	c.cursorX += width + Spacing
}

// Separator draws a horizontal line across the window and starts a row.
func (c *Context) Separator() {
	if c.current == nil {
		return
	}
	c.cursorY += c.rowH + Spacing
	c.rowH = 0
	x := c.current.X + Padding
	c.check(c.r.DrawLine(x, c.cursorY, c.current.X+c.current.W-Padding, c.cursorY, geom.ColorPanelBorder))
	c.cursorY += Padding
	c.cursorX = x
}
