// Package resolve turns a machine profile into the concrete numbers the macro
// templates need: park and purge coordinates, material-dependent speeds, the
// scaled LED colors and the stepper list for the buzz macros.
//
// Everything here is pure. Resolve never fails; it is the caller's job to run
// Validate first and refuse to generate when the result is blocked.
package resolve

import (
	"github.com/Kanrog/kanrog.github.io/pkg/kinematics"
	"github.com/Kanrog/kanrog.github.io/pkg/profile"
)

// Feed rates for the stress macros, in mm/min.
const (
	StandardStressSpeed   = 500000
	AggressiveStressSpeed = 800000
)

// Material-dependent defaults.
const (
	DefaultRetractSpeed = 2000
	FlexRetractSpeed    = 300
	DefaultFanSpeed     = 255
	ABSFanSpeed         = 64
)

// ParkClearance is how far below the top of travel the toolhead parks.
const ParkClearance = 10.0

// Params is the resolved parameter set for one profile.
type Params struct {
	Archetype kinematics.Archetype
	Bed       kinematics.Bed
	Margin    float64
	Circular  bool

	Park   kinematics.Point
	ZPark  float64
	Center kinematics.Point

	PurgeStart kinematics.Point
	PurgeEnd   kinematics.Point

	// SweepStart is the corner the XY raster starts from; SweepSpan is the
	// distance it travels on each axis.
	SweepStart kinematics.Point
	SweepSpan  kinematics.Point

	StressSpeed  int
	RetractSpeed int
	FanSpeed     int

	Brightness float64
	IdleRGB    profile.RGB
	PrintRGB   profile.RGB

	// Steppers are the motion stepper sections, in buzz order. The extruder
	// is not included.
	Steppers []string
}

// Resolve computes Params for p.
func Resolve(p profile.Profile) Params {
	g := p.Geometry()
	purgeStart, purgeEnd := g.PurgeLine(p.Margin)
	sweepStart, sweepSpan := g.Sweep(p.Margin)
	retract, fan := MaterialDerived(p.Material)
	brightness := ClampBrightness(p.LED.Brightness)

	steppers := g.Steppers()
	if p.UseZTilt && !g.Circular() {
		steppers = append(steppers, "stepper_z1")
	}

	return Params{
		Archetype:    p.Archetype,
		Bed:          g.Bed(),
		Margin:       p.Margin,
		Circular:     g.Circular(),
		Park:         g.Park(),
		ZPark:        p.MaxZ - ParkClearance,
		Center:       g.Center(),
		PurgeStart:   purgeStart,
		PurgeEnd:     purgeEnd,
		SweepStart:   sweepStart,
		SweepSpan:    sweepSpan,
		StressSpeed:  StressSpeed(p.TortureLevel),
		RetractSpeed: retract,
		FanSpeed:     fan,
		Brightness:   brightness,
		IdleRGB:      ScaleColor(p.LED.IdleColor, brightness),
		PrintRGB:     ScaleColor(p.LED.PrintColor, brightness),
		Steppers:     steppers,
	}
}

// ParkPosition returns the filament-change park position for a bed.
func ParkPosition(a kinematics.Archetype, x, y float64) kinematics.Point {
	return kinematics.MustGeometry(a, kinematics.Bed{X: x, Y: y}).Park()
}

// PurgeLine returns the prime line endpoints for a bed and margin.
func PurgeLine(a kinematics.Archetype, x, y, margin float64) (start, end kinematics.Point) {
	return kinematics.MustGeometry(a, kinematics.Bed{X: x, Y: y}).PurgeLine(margin)
}

// StressSpeed maps a torture level to its feed rate.
func StressSpeed(level profile.TortureLevel) int {
	if level == profile.TortureAggressive {
		return AggressiveStressSpeed
	}
	return StandardStressSpeed
}

// MaterialDerived returns the retract and part-fan speeds for m. TPU
// retracts slowly so it does not buckle in the path; ABS runs the fan low to
// limit warping.
func MaterialDerived(m profile.Material) (retractSpeed, fanSpeed int) {
	retractSpeed, fanSpeed = DefaultRetractSpeed, DefaultFanSpeed
	switch m {
	case profile.TPU:
		retractSpeed = FlexRetractSpeed
	case profile.ABS:
		fanSpeed = ABSFanSpeed
	}
	return retractSpeed, fanSpeed
}
