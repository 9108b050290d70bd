package profile

import (
	"fmt"
	"strings"
)

// Material is a filament preset name.
type Material string

const (
	PLA    Material = "PLA"
	PETG   Material = "PETG"
	ABS    Material = "ABS"
	ASA    Material = "ASA"
	TPU    Material = "TPU"
	Nylon  Material = "NYLON"
	Custom Material = "CUSTOM"
)

// Preset holds the target temperatures of a material.
type Preset struct {
	Material  Material `json:"material" yaml:"material"`
	PrintTemp float64  `json:"print_temp" yaml:"print_temp"`
	BedTemp   float64  `json:"bed_temp" yaml:"bed_temp"`
}

// presets is ordered for display.
var presets = []Preset{
	{PLA, 210, 60},
	{PETG, 240, 80},
	{ABS, 250, 100},
	{ASA, 255, 100},
	{TPU, 230, 50},
	{Nylon, 260, 80},
}

// Presets returns the material preset table in display order.
func Presets() []Preset {
	out := make([]Preset, len(presets))
	copy(out, presets)
	return out
}

// LookupPreset returns the preset for m. Custom has no preset.
func LookupPreset(m Material) (Preset, bool) {
	for _, p := range presets {
		if p.Material == m {
			return p, true
		}
	}
	return Preset{}, false
}

// ParseMaterial parses a material name case-insensitively.
func ParseMaterial(s string) (Material, error) {
	m := Material(strings.ToUpper(strings.TrimSpace(s)))
	if m == Custom {
		return m, nil
	}
	if _, ok := LookupPreset(m); ok {
		return m, nil
	}
	return Custom, fmt.Errorf("unknown material %q", s)
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Material) UnmarshalText(text []byte) error {
	v, err := ParseMaterial(string(text))
	if err != nil {
		return err
	}
	*m = v
	return nil
}
