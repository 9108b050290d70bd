// Package profile defines the machine profile the generator consumes: printer
// geometry, thermal targets, material and the feature switches that decide
// which macros are emitted.
package profile

import (
	"github.com/Kanrog/kanrog.github.io/pkg/kinematics"
)

// Defaults applied to fields a profile leaves out.
const (
	DefaultBedSize    = 235.0
	DefaultHeight     = 250.0
	DefaultMargin     = 20.0
	DefaultBowden     = 450.0
	DefaultLEDName    = "status_leds"
	DefaultBrightness = 1.0
)

// Profile is a fully populated machine description.
type Profile struct {
	Archetype kinematics.Archetype `json:"archetype" yaml:"archetype"`
	MaxX      float64              `json:"max_x" yaml:"max_x"`
	MaxY      float64              `json:"max_y" yaml:"max_y"`
	MaxZ      float64              `json:"max_z" yaml:"max_z"`
	Margin    float64              `json:"margin" yaml:"margin"`
	Bowden    float64              `json:"bowden" yaml:"bowden"`

	Material  Material `json:"material" yaml:"material"`
	PrintTemp float64  `json:"print_temp" yaml:"print_temp"`
	BedTemp   float64  `json:"bed_temp" yaml:"bed_temp"`

	UsePurge   bool `json:"use_purge" yaml:"use_purge"`
	UseChamber bool `json:"use_chamber" yaml:"use_chamber"`
	UseLED     bool `json:"use_led" yaml:"use_led"`
	UseZTilt   bool `json:"use_z_tilt" yaml:"use_z_tilt"`

	Probe        ProbeType    `json:"probe" yaml:"probe"`
	HeatStyle    HeatStyle    `json:"heat_style" yaml:"heat_style"`
	TortureLevel TortureLevel `json:"torture_level" yaml:"torture_level"`

	LED LEDSettings `json:"led" yaml:"led"`
}

// Default returns the profile the generator starts from: a 235mm CoreXY
// printing PLA with purge and status LEDs enabled.
func Default() Profile {
	p := Profile{
		Archetype:    kinematics.CoreXY,
		MaxX:         DefaultBedSize,
		MaxY:         DefaultBedSize,
		MaxZ:         DefaultHeight,
		Margin:       DefaultMargin,
		Bowden:       DefaultBowden,
		UsePurge:     true,
		UseLED:       true,
		Probe:        ProbeNone,
		HeatStyle:    HeatStaged,
		TortureLevel: TortureStandard,
		LED: LEDSettings{
			Name:       DefaultLEDName,
			IdleColor:  White,
			PrintColor: Green,
			Brightness: DefaultBrightness,
		},
	}
	p.ApplyMaterial(PLA)
	return p
}

// ApplyMaterial selects a material. Presets overwrite both temperatures;
// Custom keeps the current ones.
func (p *Profile) ApplyMaterial(m Material) {
	p.Material = m
	if preset, ok := LookupPreset(m); ok {
		p.PrintTemp = preset.PrintTemp
		p.BedTemp = preset.BedTemp
	}
}

// SetPrintTemp sets the hotend target. A manual temperature no longer
// matches any preset, so the material becomes Custom.
func (p *Profile) SetPrintTemp(t float64) {
	p.PrintTemp = t
	p.Material = Custom
}

// SetBedTemp sets the bed target and switches the material to Custom.
func (p *Profile) SetBedTemp(t float64) {
	p.BedTemp = t
	p.Material = Custom
}

// Bed returns the travel extents.
func (p Profile) Bed() kinematics.Bed {
	return kinematics.Bed{X: p.MaxX, Y: p.MaxY, Z: p.MaxZ}
}

// Geometry returns the bed geometry for the profile's archetype.
func (p Profile) Geometry() kinematics.Geometry {
	return kinematics.MustGeometry(p.Archetype, p.Bed())
}
