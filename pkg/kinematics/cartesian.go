package kinematics

import "math"

// purgeLength is the length of the prime line on rectangular beds.
const purgeLength = 40.0

// minSafeSpan is the smallest usable safe-zone width on rectangular beds.
const minSafeSpan = 10.0

// CartesianGeometry is a rectangular bed with the origin at the front-left
// corner. It serves CoreXY machines directly and bedslingers through
// BedslingerGeometry.
type CartesianGeometry struct {
	bed Bed
}

// NewCartesianGeometry creates the geometry for a CoreXY or cartesian printer.
func NewCartesianGeometry(bed Bed) *CartesianGeometry {
	return &CartesianGeometry{bed: bed}
}

func (g *CartesianGeometry) Archetype() Archetype { return CoreXY }
func (g *CartesianGeometry) Bed() Bed             { return g.bed }
func (g *CartesianGeometry) Circular() bool       { return false }

// Center returns the middle of the bed.
func (g *CartesianGeometry) Center() Point {
	return Point{X: g.bed.X / 2, Y: g.bed.Y / 2}
}

// Park parks at the bed center. Rear parking can hit rear-mounted
// components on open-frame machines.
func (g *CartesianGeometry) Park() Point {
	return g.Center()
}

// Home returns the front-left corner.
func (g *CartesianGeometry) Home() Point {
	return Point{}
}

// PurgeLine runs along X from the safe-zone corner. The end is clamped to
// the far edge of the safe zone on narrow beds.
func (g *CartesianGeometry) PurgeLine(margin float64) (Point, Point) {
	start := Point{X: margin, Y: margin}
	end := Point{X: math.Min(margin+purgeLength, g.bed.X-margin), Y: margin}
	return start, end
}

// SafeZone returns the bed rectangle inset by margin on every side.
func (g *CartesianGeometry) SafeZone(margin float64) Zone {
	return Zone{
		Min:    Point{X: margin, Y: margin},
		Max:    Point{X: g.bed.X - margin, Y: g.bed.Y - margin},
		Center: g.Center(),
	}
}

// Sweep covers the whole safe zone diagonally.
func (g *CartesianGeometry) Sweep(margin float64) (Point, Point) {
	return Point{X: margin, Y: margin},
		Point{X: g.bed.X - 2*margin, Y: g.bed.Y - 2*margin}
}

// MarginFeasible requires more than 10mm of usable width on both axes.
func (g *CartesianGeometry) MarginFeasible(margin float64) bool {
	return g.bed.X-2*margin > minSafeSpan && g.bed.Y-2*margin > minSafeSpan
}

func (g *CartesianGeometry) Steppers() []string {
	return []string{"stepper_x", "stepper_y", "stepper_z"}
}

// BedslingerGeometry is a cartesian machine whose bed travels on Y.
type BedslingerGeometry struct {
	*CartesianGeometry
}

// NewBedslingerGeometry creates the geometry for a bedslinger.
func NewBedslingerGeometry(bed Bed) *BedslingerGeometry {
	return &BedslingerGeometry{CartesianGeometry: NewCartesianGeometry(bed)}
}

func (g *BedslingerGeometry) Archetype() Archetype { return Bedslinger }

// Park brings the bed forward (5mm short of Y max) so the nozzle is
// reachable for filament work.
func (g *BedslingerGeometry) Park() Point {
	return Point{X: g.bed.X / 2, Y: g.bed.Y - 5}
}
