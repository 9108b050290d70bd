// Package preview draws a top-down schematic of the bed: its outline, the
// margin-inset safe zone, the homing point and the purge line. Drawing goes
// through the Canvas interface; SVG is the bundled implementation.
package preview

// Style describes how a shape is painted. Empty colors are not painted.
type Style struct {
	Fill   string
	Stroke string
	Width  float64
	Dash   []float64
}

// Canvas is a 2D drawing surface with the origin at the top-left corner and
// Y growing downwards.
type Canvas interface {
	Rect(x, y, w, h float64, s Style)
	Circle(cx, cy, r float64, s Style)
	Line(x1, y1, x2, y2 float64, s Style)
	// Dot marks a point with a small filled circle.
	Dot(x, y float64, s Style)
}
