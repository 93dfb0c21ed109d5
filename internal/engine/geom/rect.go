package geom

// Rect is an axis-aligned box with corners (X1,Y1)-(X2,Y2). It describes both
// screen rectangles in logical pixels and normalized atlas sub-regions.
type Rect struct {
	X1, Y1, X2, Y2 float32
}

// NewRect returns the rectangle with the given corners.
func NewRect(x1, y1, x2, y2 float32) Rect {
	return Rect{x1, y1, x2, y2}
}

// Zero returns the empty rectangle at the origin.
func Zero() Rect {
	return Rect{}
}

// Width returns X2 - X1.
func (r Rect) Width() float32 {
	return r.X2 - r.X1
}

// Height returns Y2 - Y1.
func (r Rect) Height() float32 {
	return r.Y2 - r.Y1
}

// Center returns the midpoint of the rectangle.
func (r Rect) Center() (float32, float32) {
	return (r.X1 + r.X2) / 2, (r.Y1 + r.Y2) / 2
}

// Contains reports whether (x, y) lies inside the rectangle, edges included.
func (r Rect) Contains(x, y float32) bool {
	return x >= r.X1 && x <= r.X2 && y >= r.Y1 && y <= r.Y2
}

// Overlaps reports whether the interiors of r and o intersect.
func (r Rect) Overlaps(o Rect) bool {
	return r.X1 < o.X2 && o.X1 < r.X2 && r.Y1 < o.Y2 && o.Y1 < r.Y2
}
