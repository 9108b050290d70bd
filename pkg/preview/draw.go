package preview

import (
	"math"

	"github.com/Kanrog/kanrog.github.io/pkg/kinematics"
	"github.com/Kanrog/kanrog.github.io/pkg/profile"
	"github.com/Kanrog/kanrog.github.io/pkg/resolve"
)

// Viewport size of the schematic.
const (
	Width  = 300.0
	Height = 200.0
)

// span is the size, in viewport units, of the bed's longest side.
const span = 120.0

var (
	backgroundStyle = Style{Fill: "#2d3436"}
	bedStyle        = Style{Fill: "rgba(255,255,255,0.05)"}
	safeZoneStyle   = Style{Stroke: "#a29bfe", Dash: []float64{5, 5}}
	homeStyle       = Style{Fill: "#ff4d4d"}
	purgeStyle      = Style{Stroke: "#ff00ff", Width: 2}
)

// view maps machine coordinates onto the viewport.
type view struct {
	scale    float64
	cx, cy   float64
	x, y     float64
	circular bool
}

func (v view) point(p kinematics.Point) (float64, float64) {
	if v.circular {
		return v.cx + p.X*v.scale, v.cy - p.Y*v.scale
	}
	return v.cx + (p.X-v.x/2)*v.scale, v.cy - (p.Y-v.y/2)*v.scale
}

// usable substitutes fallback for non-positive or NaN inputs, the way a
// half-filled form still previews.
func usable(v, fallback float64) float64 {
	if math.IsNaN(v) || v <= 0 {
		return fallback
	}
	return v
}

// Draw paints the schematic of p onto c.
func Draw(c Canvas, p profile.Profile) {
	p.MaxX = usable(p.MaxX, profile.DefaultBedSize)
	p.MaxY = usable(p.MaxY, profile.DefaultBedSize)
	if math.IsNaN(p.Margin) || p.Margin < 0 {
		p.Margin = profile.DefaultMargin
	}
	g := p.Geometry()

	v := view{
		scale:    span / math.Max(p.MaxX, p.MaxY),
		cx:       Width / 2,
		cy:       Height / 2,
		x:        p.MaxX,
		y:        p.MaxY,
		circular: g.Circular(),
	}
	x, y, m, s := p.MaxX, p.MaxY, p.Margin, v.scale

	c.Rect(0, 0, Width, Height, backgroundStyle)

	if v.circular {
		c.Circle(v.cx, v.cy, x/2*s, bedStyle)
		if r := x/2 - m; r > 0 {
			c.Circle(v.cx, v.cy, r*s, safeZoneStyle)
		}
	} else {
		c.Rect(v.cx-x/2*s, v.cy-y/2*s, x*s, y*s, bedStyle)
		if w, h := x-2*m, y-2*m; w > 0 && h > 0 {
			c.Rect(v.cx-(x/2-m)*s, v.cy-(y/2-m)*s, w*s, h*s, safeZoneStyle)
		}
	}

	hx, hy := v.point(g.Home())
	c.Dot(hx, hy, homeStyle)

	if p.UsePurge {
		start, end := resolve.PurgeLine(p.Archetype, x, y, m)
		x1, y1 := v.point(start)
		x2, y2 := v.point(end)
		c.Line(x1, y1, x2, y2, purgeStyle)
	}
}

// Render draws p onto a new SVG canvas and returns the document.
func Render(p profile.Profile) []byte {
	svg := NewSVG(Width, Height)
	Draw(svg, p)
	return svg.Bytes()
}
