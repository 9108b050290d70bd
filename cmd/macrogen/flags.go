package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Kanrog/kanrog.github.io/pkg/errors"
	"github.com/Kanrog/kanrog.github.io/pkg/kinematics"
	"github.com/Kanrog/kanrog.github.io/pkg/profile"
)

// profileFlags are the flags that override profile fields. Only flags the
// user actually set are applied.
type profileFlags struct {
	path string

	archetype string
	maxX      float64
	maxY      float64
	maxZ      float64
	margin    float64
	bowden    float64

	material  string
	printTemp float64
	bedTemp   float64

	purge   bool
	chamber bool
	led     bool
	zTilt   bool

	probe     string
	heatStyle string
	torture   string

	ledName    string
	idleColor  string
	printColor string
	brightness float64

	flags *pflag.FlagSet
}

func addProfileFlags(cmd *cobra.Command) *profileFlags {
	pf := &profileFlags{flags: cmd.Flags()}
	f := cmd.Flags()

	f.StringVarP(&pf.path, "profile", "p", "", "Profile file (YAML or JSON); defaults are used when empty")

	f.StringVar(&pf.archetype, "archetype", "", "Kinematics: corexy, bedslinger or delta")
	f.Float64Var(&pf.maxX, "max-x", 0, "Bed X extent in mm (diameter on delta)")
	f.Float64Var(&pf.maxY, "max-y", 0, "Bed Y extent in mm")
	f.Float64Var(&pf.maxZ, "max-z", 0, "Z travel in mm")
	f.Float64Var(&pf.margin, "margin", 0, "Safe-zone margin in mm")
	f.Float64Var(&pf.bowden, "bowden", 0, "Bowden tube length in mm")

	f.StringVar(&pf.material, "material", "", "Material preset: PLA, PETG, ABS, ASA, TPU, NYLON or CUSTOM")
	f.Float64Var(&pf.printTemp, "print-temp", 0, "Hotend temperature; makes the material CUSTOM")
	f.Float64Var(&pf.bedTemp, "bed-temp", 0, "Bed temperature; makes the material CUSTOM")

	f.BoolVar(&pf.purge, "purge", true, "Emit the purge line")
	f.BoolVar(&pf.chamber, "chamber", false, "Emit the chamber heat soak")
	f.BoolVar(&pf.led, "led", true, "Emit status LED macros")
	f.BoolVar(&pf.zTilt, "z-tilt", false, "Machine has dual Z steppers")

	f.StringVar(&pf.probe, "probe", "", "Probe: none, bltouch, inductive or klicky")
	f.StringVar(&pf.heatStyle, "heat-style", "", "Heating: staged or parallel")
	f.StringVar(&pf.torture, "torture", "", "Stress test level: standard or aggressive")

	f.StringVar(&pf.ledName, "led-name", "", "Klipper LED object name")
	f.StringVar(&pf.idleColor, "idle-color", "", "Idle LED color")
	f.StringVar(&pf.printColor, "print-color", "", "Printing LED color")
	f.Float64Var(&pf.brightness, "brightness", 0, "LED brightness in [0,1]")
	return pf
}

// load reads the profile file, or starts from the defaults, and applies the
// set flags.
func (pf *profileFlags) load() (profile.Profile, error) {
	p := profile.Default()
	if pf.path != "" {
		var err error
		if p, err = profile.Load(pf.path); err != nil {
			return profile.Profile{}, err
		}
	}
	if err := pf.apply(&p); err != nil {
		return profile.Profile{}, err
	}
	return p, nil
}

func (pf *profileFlags) changed(name string) bool {
	return pf.flags.Changed(name)
}

func (pf *profileFlags) apply(p *profile.Profile) error {
	if pf.changed("archetype") {
		a, err := kinematics.ParseArchetype(pf.archetype)
		if err != nil {
			return errors.ProfileFieldError("archetype", pf.archetype, err.Error())
		}
		p.Archetype = a
	}
	for name, dst := range map[string]*float64{
		"max-x":      &p.MaxX,
		"max-y":      &p.MaxY,
		"max-z":      &p.MaxZ,
		"margin":     &p.Margin,
		"bowden":     &p.Bowden,
		"brightness": &p.LED.Brightness,
	} {
		if pf.changed(name) {
			*dst = pf.float(name)
		}
	}

	// Material first so explicit temperatures override its preset.
	if pf.changed("material") {
		m, err := profile.ParseMaterial(pf.material)
		if err != nil {
			return errors.ProfileFieldError("material", pf.material, err.Error())
		}
		p.ApplyMaterial(m)
	}
	if pf.changed("print-temp") {
		p.SetPrintTemp(pf.printTemp)
	}
	if pf.changed("bed-temp") {
		p.SetBedTemp(pf.bedTemp)
	}

	for name, dst := range map[string]*bool{
		"purge":   &p.UsePurge,
		"chamber": &p.UseChamber,
		"led":     &p.UseLED,
		"z-tilt":  &p.UseZTilt,
	} {
		if pf.changed(name) {
			v, _ := pf.flags.GetBool(name)
			*dst = v
		}
	}

	texts := []struct {
		flag, field, value string
		dst                interface{ UnmarshalText([]byte) error }
	}{
		{"probe", "probe", pf.probe, &p.Probe},
		{"heat-style", "heat_style", pf.heatStyle, &p.HeatStyle},
		{"torture", "torture_level", pf.torture, &p.TortureLevel},
		{"idle-color", "led.idle_color", pf.idleColor, &p.LED.IdleColor},
		{"print-color", "led.print_color", pf.printColor, &p.LED.PrintColor},
	}
	for _, t := range texts {
		if !pf.changed(t.flag) {
			continue
		}
		if err := t.dst.UnmarshalText([]byte(t.value)); err != nil {
			return errors.ProfileFieldError(t.field, t.value, err.Error())
		}
	}

	if pf.changed("led-name") {
		if err := profile.CheckLEDName(pf.ledName); err != nil {
			return err
		}
		p.LED.Name = pf.ledName
	}
	return nil
}

func (pf *profileFlags) float(name string) float64 {
	v, _ := pf.flags.GetFloat64(name)
	return v
}

// override returns apply as a hook for reloaded profiles. Flag values were
// checked once on startup, so errors cannot occur later.
func (pf *profileFlags) override() func(*profile.Profile) {
	return func(p *profile.Profile) {
		_ = pf.apply(p)
	}
}
