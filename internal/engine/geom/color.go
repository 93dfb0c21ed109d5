package geom

// Color represents a straight (non-premultiplied) RGBA color with float
// components in 0..1.
type Color struct {
	R, G, B, A float32
}

// Predefined colors.
var (
	ColorTransparent = Color{0, 0, 0, 0}

	ColorWhite = Color{1, 1, 1, 1}
	ColorBlack = Color{0, 0, 0, 1}
	ColorRed   = Color{1, 0, 0, 1}
	ColorGreen = Color{0, 1, 0, 1}
	ColorBlue  = Color{0, 0, 1, 1}

	ColorPanelBg     = Color{0.08, 0.08, 0.12, 0.95}
	ColorPanelBorder = Color{0.3, 0.3, 0.4, 1}
	ColorText        = Color{0.9, 0.9, 0.9, 1}
	ColorTextDim     = Color{0.5, 0.5, 0.6, 1}
	ColorHighlight   = Color{0.2, 0.6, 0.9, 1}
)

// RGB creates an opaque color from float components.
func RGB(r, g, b float32) Color {
	return Color{r, g, b, 1}
}

// RGBA creates a color from float components.
func RGBA(r, g, b, a float32) Color {
	return Color{r, g, b, a}
}

// RGBA8 creates a color from 8-bit RGBA values (0-255).
func RGBA8(r, g, b, a uint8) Color {
	return Color{
		R: float32(r) / 255.0,
		G: float32(g) / 255.0,
		B: float32(b) / 255.0,
		A: float32(a) / 255.0,
	}
}

// WithAlpha returns a copy of the color with a different alpha value.
func (c Color) WithAlpha(a float32) Color {
	return Color{c.R, c.G, c.B, a}
}

// Array returns the color as the [4]float32 stored in a Vertex.
func (c Color) Array() [4]float32 {
	return [4]float32{c.R, c.G, c.B, c.A}
}
