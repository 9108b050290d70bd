// Package kinematics describes the bed geometry of each printer archetype:
// where the toolhead parks, where the purge line goes and how much of the
// bed is usable once the safety margin is taken off.
package kinematics

import (
	"fmt"
	"strings"
)

// Archetype is the motion-kinematics family of a printer.
type Archetype int

const (
	// CoreXY covers cartesian and CoreXY machines with a fixed rectangular bed.
	CoreXY Archetype = iota

	// Bedslinger is a cartesian machine whose bed moves on Y.
	Bedslinger

	// Delta is a three-tower machine with a circular bed centered on the origin.
	Delta
)

// String returns the canonical archetype name.
func (a Archetype) String() string {
	switch a {
	case CoreXY:
		return "corexy"
	case Bedslinger:
		return "bedslinger"
	case Delta:
		return "delta"
	default:
		return "unknown"
	}
}

// ParseArchetype parses an archetype name. Matching is case-insensitive and
// accepts the "cartesian" and "cartesian-corexy" aliases for CoreXY.
func ParseArchetype(s string) (Archetype, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "corexy", "cartesian", "cartesian-corexy", "cartesian_corexy":
		return CoreXY, nil
	case "bedslinger":
		return Bedslinger, nil
	case "delta":
		return Delta, nil
	default:
		return CoreXY, fmt.Errorf("unsupported archetype: %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (a Archetype) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Archetype) UnmarshalText(text []byte) error {
	v, err := ParseArchetype(string(text))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// Point is an XY coordinate in millimeters.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Bed holds the machine travel extents in millimeters.
type Bed struct {
	X float64
	Y float64
	Z float64
}

// Zone is the usable area of the bed once the margin is removed.
// Rectangular beds use Min/Max, circular beds use Radius around Center.
type Zone struct {
	Min    Point
	Max    Point
	Center Point
	Radius float64
}

// Contains reports whether p lies inside the zone (boundary included).
func (z Zone) Contains(p Point) bool {
	if z.Radius > 0 {
		dx := p.X - z.Center.X
		dy := p.Y - z.Center.Y
		return dx*dx+dy*dy <= z.Radius*z.Radius
	}
	return p.X >= z.Min.X && p.X <= z.Max.X && p.Y >= z.Min.Y && p.Y <= z.Max.Y
}

// Geometry is implemented by every archetype.
type Geometry interface {
	// Archetype returns the archetype this geometry describes.
	Archetype() Archetype

	// Bed returns the configured bed extents.
	Bed() Bed

	// Circular reports whether the bed is round.
	Circular() bool

	// Center returns the bed center in machine coordinates.
	Center() Point

	// Park returns the filament-change parking position.
	Park() Point

	// Home returns where the toolhead sits after homing, in machine coordinates.
	Home() Point

	// PurgeLine returns the start and end of the prime line.
	PurgeLine(margin float64) (start, end Point)

	// SafeZone returns the bed area inset by margin.
	SafeZone(margin float64) Zone

	// Sweep returns the corner a raster sweep starts from and the XY span
	// it travels, both inside the safe zone.
	Sweep(margin float64) (start, span Point)

	// MarginFeasible reports whether margin leaves a usable safe zone.
	MarginFeasible(margin float64) bool

	// Steppers returns the motion stepper section names.
	Steppers() []string
}
