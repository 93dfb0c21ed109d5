package ui

// Pointer holds the mouse state the UI reads each frame. Callers set the
// raw fields, then Context.Begin derives the edges.
type Pointer struct {
	X, Y   float32
	DeltaX float32
	DeltaY float32

	LeftDown     bool
	LeftPressed  bool
	LeftReleased bool

	prevLeft bool
	prevX    float32
	prevY    float32
}

// update derives deltas and press/release edges from the raw state.
func (p *Pointer) update() {
	p.DeltaX = p.X - p.prevX
	p.DeltaY = p.Y - p.prevY

	p.LeftPressed = p.LeftDown && !p.prevLeft
	p.LeftReleased = !p.LeftDown && p.prevLeft

	p.prevLeft = p.LeftDown
	p.prevX = p.X
	p.prevY = p.Y
}

// In reports whether the pointer is inside the w x h box at (x, y).
func (p *Pointer) In(x, y, w, h float32) bool {
	return p.X >= x && p.X < x+w && p.Y >= y && p.Y < y+h
}
