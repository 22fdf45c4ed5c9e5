package timeline

import (
	"image/color"

	"github.com/gogpu/gg"
)

// Color represents an RGBA color with components in [0, 1]. Not premultiplied.
type Color struct {
	R, G, B, A float64
}

// ColorWhite is the default tint.
var ColorWhite = Color{1, 1, 1, 1}

// ParseColor parses a hex color string ("#rgb", "#rgba", "#rrggbb" or
// "#rrggbbaa"). The leading '#' is optional.
func ParseColor(hex string) Color {
	c := gg.Hex(hex)
	return Color{R: c.R, G: c.G, B: c.B, A: c.A}
}

// WithAlpha returns c with its alpha component multiplied by a.
func (c Color) WithAlpha(a float64) Color {
	c.A *= a
	return c
}

// toNRGBA converts c to a standard library color for submission.
func (c Color) toNRGBA() color.NRGBA {
	return color.NRGBA{
		R: uint8(clamp01(c.R)*255 + 0.5),
		G: uint8(clamp01(c.G)*255 + 0.5),
		B: uint8(clamp01(c.B)*255 + 0.5),
		A: uint8(clamp01(c.A)*255 + 0.5),
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Vec2 is a 2D vector used for points and offsets.
type Vec2 struct {
	X, Y float64
}

// Rect is an axis-aligned rectangle. The coordinate system has its origin at
// the top-left, with Y increasing downward.
type Rect struct {
	X, Y, Width, Height float64
}

// Contains reports whether the point (x, y) lies inside the rectangle.
// Points on the edge are considered inside.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// NodeKind distinguishes rendering behavior for a Node.
type NodeKind uint8

const (
	NodeContainer NodeKind = iota // group node with no visual output
	NodeRect                      // filled and/or stroked Width x Height rectangle
	NodeLine                      // segment from (0, 0) to (Width, Height)
	NodePolyline                  // open path through Points
	NodeText                      // single-line label
	NodeImage                     // pre-rasterised image (cached waveforms)
)

// MouseButton identifies a mouse button.
type MouseButton uint8

const (
	MouseButtonLeft   MouseButton = iota // primary (left) mouse button
	MouseButtonRight                     // secondary (right) mouse button
	MouseButtonMiddle                    // middle mouse button (scroll wheel click)
)

// KeyModifiers is a bitmask of keyboard modifier keys.
// Values can be combined with bitwise OR (e.g. ModShift | ModCtrl).
type KeyModifiers uint8

const (
	ModShift KeyModifiers = 1 << iota // Shift key
	ModCtrl                           // Control key
	ModAlt                            // Alt / Option key
	ModMeta                           // Meta / Command / Windows key
)

// Has reports whether all modifiers in m are set.
func (k KeyModifiers) Has(m KeyModifiers) bool {
	return k&m == m
}
