package kinematics

import "math"

// deltaPurgeHalfWidth is half the length of the delta prime line.
const deltaPurgeHalfWidth = 7.5

// deltaEdgeClearance is the minimum radius left once the margin is removed.
const deltaEdgeClearance = 10.0

// DeltaGeometry is a circular bed of diameter Bed.X centered on the origin.
type DeltaGeometry struct {
	bed Bed
}

// NewDeltaGeometry creates the geometry for a delta printer.
func NewDeltaGeometry(bed Bed) *DeltaGeometry {
	return &DeltaGeometry{bed: bed}
}

func (g *DeltaGeometry) Archetype() Archetype { return Delta }
func (g *DeltaGeometry) Bed() Bed             { return g.bed }
func (g *DeltaGeometry) Circular() bool       { return true }
func (g *DeltaGeometry) Center() Point        { return Point{} }
func (g *DeltaGeometry) Park() Point          { return Point{} }

// Home is the tower-top position, directly above the center.
func (g *DeltaGeometry) Home() Point { return Point{} }

// radius returns the bed radius.
func (g *DeltaGeometry) radius() float64 {
	return g.bed.X / 2
}

// PurgeLine is a short line straddling X=0 near the front of the bed, at
// Y = -(Y/2 - margin) unless that would put its ends on or outside the safe
// circle. Then it moves toward the center onto the nearest 0.1mm step
// strictly inside.
func (g *DeltaGeometry) PurgeLine(margin float64) (Point, Point) {
	depth := g.bed.Y/2 - margin
	r := g.radius() - margin
	if chord := r*r - deltaPurgeHalfWidth*deltaPurgeHalfWidth; chord > 0 {
		// Tenths are kept integral so the coordinate prints without noise.
		inside := (math.Ceil(math.Sqrt(chord)*10) - 1) / 10
		depth = math.Min(depth, inside)
	}
	y := -depth
	return Point{X: -deltaPurgeHalfWidth, Y: y}, Point{X: deltaPurgeHalfWidth, Y: y}
}

// SafeZone is the bed circle shrunk by margin.
func (g *DeltaGeometry) SafeZone(margin float64) Zone {
	r := g.radius() - margin
	return Zone{
		Min:    Point{X: -r, Y: -r},
		Max:    Point{X: r, Y: r},
		Radius: r,
	}
}

// Sweep uses the square inscribed in the safe circle, rounded down to 0.1mm.
func (g *DeltaGeometry) Sweep(margin float64) (Point, Point) {
	side := math.Floor((g.bed.X-2*margin)/math.Sqrt2*10) / 10
	if side < 0 {
		side = 0
	}
	return Point{X: -side / 2, Y: -side / 2}, Point{X: side, Y: side}
}

// MarginFeasible requires the margin to stay strictly below radius - 10.
func (g *DeltaGeometry) MarginFeasible(margin float64) bool {
	return margin < g.radius()-deltaEdgeClearance
}

func (g *DeltaGeometry) Steppers() []string {
	return []string{"stepper_a", "stepper_b", "stepper_c"}
}
