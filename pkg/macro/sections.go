package macro

import (
	"fmt"
	"math"
	"strings"

	"github.com/Kanrog/kanrog.github.io/pkg/kinematics"
	"github.com/Kanrog/kanrog.github.io/pkg/profile"
	"github.com/Kanrog/kanrog.github.io/pkg/resolve"
)

// Block names in document order.
const (
	BlockHeader      = "header"
	BlockVariables   = "variables"
	BlockLighting    = "lighting"
	BlockDiagnostics = "diagnostics"
	BlockStress      = "stress"
	BlockCore        = "core"
	BlockUtility     = "utility"
)

// Motion constants shared by the templates.
const (
	travelFeed     = 3000
	zFeed          = 1500
	cycleFeed      = 5000
	stressLift     = 20.0
	shakeDistance  = 15.0
	shakeCount     = 20
	rasterPasses   = 10
	cycleCount     = 16
	ledRounds      = 4
	ledStepDelayMS = 100
	chamberDwellMS = 30 * 60 * 1000
	chamberBedTemp = 100
	purgeHeight    = 0.3
	purgeExtrude   = 15
	purgeFeed      = 300
	probeSamples   = 10
	endRetract     = 15
	changeRetract  = 0.8
	changeLift     = 10.0
)

// stagedFraction is the share of the bed target reached before the hotend
// starts heating in staged mode.
const stagedFraction = 0.85

type ctx struct {
	p profile.Profile
	r resolve.Params
}

func (c ctx) led() bool { return c.p.UseLED }

func (c ctx) hasProbe() bool { return c.p.Probe.HasProbe() }

func (c ctx) zTilt() bool { return c.p.UseZTilt && !c.r.Circular }

// lift caps a travel height at the park height so short machines stay
// inside their Z travel.
func (c ctx) lift(h float64) float64 {
	return math.Max(0, math.Min(h, c.r.ZPark))
}

func header(c ctx) string {
	var w writer
	rule := "#" + strings.Repeat("=", 53) + "#"
	fmt.Fprintf(&w, "%s\n", rule)
	fmt.Fprintf(&w, "# KANROG UNIVERSAL MACRO SET | ARCHETYPE: %s\n", strings.ToUpper(c.p.Archetype.String()))
	fmt.Fprintf(&w, "# Bed Volume: %sx%sx%s | Margin: %smm\n", num(c.p.MaxX), num(c.p.MaxY), num(c.p.MaxZ), num(c.p.Margin))
	fmt.Fprintf(&w, "# Material: %s | Probe: %s\n", c.p.Material, c.p.Probe)
	fmt.Fprintf(&w, "%s\n\n", rule)
	return w.String()
}

func variables(c ctx) string {
	var w writer
	vars := []option{
		{"variable_park_x", num(c.r.Park.X)},
		{"variable_park_y", num(c.r.Park.Y)},
		{"variable_z_park", num(c.r.ZPark)},
		{"variable_center_x", num(c.r.Center.X)},
		{"variable_center_y", num(c.r.Center.Y)},
		{"variable_bowden", num(c.p.Bowden)},
		{"variable_margin", num(c.p.Margin)},
		{"variable_print_temp", num(c.p.PrintTemp)},
		{"variable_bed_temp", num(c.p.BedTemp)},
		{"variable_retract_speed", fmt.Sprint(c.r.RetractSpeed)},
		{"variable_fan_speed", fmt.Sprint(c.r.FanSpeed)},
		{"variable_material", pyString(string(c.p.Material))},
	}
	opts := append([]option{{"description", "Machine constants shared by the macros below"}}, vars...)
	w.section(section{header: "gcode_macro " + UserVarsMacro, opts: opts, gcode: &body{}})
	return w.String()
}

func lighting(c ctx) string {
	var w writer
	name := c.p.LED.Name
	w.banner("LED CONTROL & COLOR PRESETS")

	setLED := func(b *body, rgb profile.RGB, format func(float64) string) {
		b.cmd("SET_LED LED=%s RED=%s GREEN=%s BLUE=%s TRANSMIT=1", name, format(rgb.R), format(rgb.G), format(rgb.B))
	}
	fixed := func(v float64) string { return fmt.Sprintf("%.2f", v) }

	for _, color := range profile.Palette() {
		rgb := color.Base()
		w.macro("LED_"+string(color), "", func(b *body) { setLED(b, rgb, num) })
	}
	w.macro("LED_IDLE", fmt.Sprintf("Idle color (%s)", c.p.LED.IdleColor), func(b *body) {
		setLED(b, c.r.IdleRGB, fixed)
	})
	w.macro("LED_PRINT", fmt.Sprintf("Printing color (%s)", c.p.LED.PrintColor), func(b *body) {
		setLED(b, c.r.PrintRGB, fixed)
	})
	w.macro("LED_CYCLE", "Step the status LEDs through the palette", func(b *body) {
		b.repeat(ledRounds, func() {
			for _, color := range profile.CycleColors() {
				b.cmd("LED_%s", color)
				b.cmd("G4 P%d", ledStepDelayMS)
			}
		})
		b.cmd("LED_IDLE")
	})

	announce := &body{}
	announce.cmd("LED_CYCLE")
	w.section(section{
		header: "delayed_gcode LED_ANNOUNCE",
		opts:   []option{{"initial_duration", "1"}},
		gcode:  announce,
	})
	return w.String()
}

// buzzName maps a stepper section to its macro suffix: stepper_z1 -> Z1.
func buzzName(stepper string) string {
	return strings.ToUpper(strings.TrimPrefix(stepper, "stepper_"))
}

func diagnostics(c ctx) string {
	var w writer
	w.banner("DIAGNOSTICS & CALIBRATION")

	for _, s := range c.r.Steppers {
		stepper := s
		w.macro("BUZZ_"+buzzName(stepper), "", func(b *body) {
			b.cmd("STEPPER_BUZZ STEPPER=%s", stepper)
		})
	}
	w.macro("BUZZ_E", "", func(b *body) { b.cmd("STEPPER_BUZZ STEPPER=extruder") })

	w.macro("E_CALIBRATE", "Extrude 50mm for rotation distance calibration", func(b *body) {
		b.homeGuard()
		b.cmd("_LOW_TEMP_CHECK")
		b.when(c.led(), "LED_WHITE")
		b.cmd("G91")
		b.cmd("G1 E50 F60")
		b.cmd("G4 P5000")
		b.cmd("G90")
		b.when(c.led(), "LED_IDLE")
	})

	w.macro("PID_HOTEND", fmt.Sprintf("Tune the hotend PID at %s°C", num(c.p.PrintTemp)), func(b *body) {
		b.cmd("G28")
		b.cmd("G90")
		b.cmd("G1 Z%s F600", num(c.lift(10)))
		b.cmd("M106 S255")
		b.cmd("PID_CALIBRATE HEATER=extruder TARGET=%s", num(c.p.PrintTemp))
		b.cmd("SAVE_CONFIG")
	})
	w.macro("PID_HOTBED", fmt.Sprintf("Tune the bed PID at %s°C", num(c.p.BedTemp)), func(b *body) {
		b.cmd("G28")
		b.cmd("PID_CALIBRATE HEATER=heater_bed TARGET=%s", num(c.p.BedTemp))
		b.cmd("SAVE_CONFIG")
	})

	if c.r.Circular {
		w.macro("ENDSTOPS_CALIBRATION", "Delta endstop phase calibration", func(b *body) {
			b.cmd("G28")
			b.cmd("G91")
			b.cmd("G0 Z-50 F1500")
			b.cmd("G90")
			b.cmd("G28")
			for _, s := range c.r.Steppers {
				b.cmd("ENDSTOP_PHASE_CALIBRATE STEPPER=%s", s)
			}
			b.cmd("G28")
		})
		w.macro("CALIBRATE_DELTA", "Delta geometry calibration", func(b *body) {
			b.homeGuard()
			if c.hasProbe() {
				b.cmd("DELTA_CALIBRATE")
			} else {
				b.cmd("DELTA_CALIBRATE METHOD=manual")
			}
		})
	}

	if c.hasProbe() {
		center := "X" + expr(userVar("center_x")) + " Y" + expr(userVar("center_y"))
		w.macro("PROBE_TEST", fmt.Sprintf("%d-sample probe accuracy test at bed center", probeSamples), func(b *body) {
			b.homeGuard()
			b.cmd("G90")
			b.cmd("G1 %s Z10 F%d", center, travelFeed)
			b.cmd("PROBE_ACCURACY SAMPLES=%d", probeSamples)
		})
		w.macro("PROBE_Z_OFFSET", "Interactive probe Z offset calibration at bed center", func(b *body) {
			b.homeGuard()
			b.cmd("G90")
			b.cmd("G1 %s F%d", center, travelFeed)
			b.cmd("PROBE_CALIBRATE")
		})
		w.macro("MESH_CALIBRATE", fmt.Sprintf("Probe a bed mesh and save it as %s", c.p.Material), func(b *body) {
			b.cmd("M190 S%s", expr(userVar("bed_temp")))
			b.homeGuard()
			if c.zTilt() {
				b.cmd("ALIGN_GANTRY")
				b.cmd("G28 Z")
			}
			b.cmd("BED_MESH_CALIBRATE PROFILE=%s", c.p.Material)
			b.cmd("SAVE_CONFIG")
		})
	} else {
		w.macro("BED_SCREWS", "Manual bed leveling at the screws", func(b *body) {
			b.homeGuard()
			b.cmd("BED_SCREWS_ADJUST")
		})
	}

	if c.zTilt() {
		w.macro("ALIGN_GANTRY", "Level the gantry with the Z motors", func(b *body) {
			b.homeGuard()
			b.cmd("Z_TILT_ADJUST")
		})
	}
	return w.String()
}

func stress(c ctx) string {
	var w writer
	w.banner("TORTURE & MOVEMENT TESTS")
	speed := c.r.StressSpeed
	span := c.r.SweepSpan
	center := "X" + expr(userVar("center_x")) + " Y" + expr(userVar("center_y"))

	w.macro("TORTURE_XY", "Diagonal raster across the safe zone", func(b *body) {
		b.homeGuard()
		b.cmd("G90")
		b.cmd("G1 Z%s F%d", num(c.lift(stressLift)), zFeed)
		b.cmd("G1 %s F%d", xy(c.r.SweepStart), travelFeed)
		b.cmd("G91")
		b.repeat(rasterPasses, func() {
			b.cmd("G1 %s F%d", xy(span), speed)
			b.cmd("G1 %s F%d", xy(kinematics.Point{X: -span.X, Y: -span.Y}), speed)
		})
		b.cmd("G90")
	})

	w.macro("TORTURE_SHAKE", "High-speed vibration test at bed center", func(b *body) {
		b.homeGuard()
		b.cmd("G90")
		b.cmd("G1 %s F%d", center, travelFeed)
		b.cmd("G91")
		b.repeat(shakeCount, func() {
			b.cmd("G1 X%s F%d", num(shakeDistance), speed)
			b.cmd("G1 X%s F%d", num(-shakeDistance), speed)
		})
		b.cmd("G90")
	})

	w.macro("CYCLE_MOVEMENT", "Cycle both axes around the center to check limits", func(b *body) {
		b.homeGuard()
		b.cmd("G90")
		b.cmd("G1 Z%s F%d", num(c.lift(stressLift)), zFeed)
		b.cmd("G1 %s F%d", center, travelFeed)
		b.cmd("G91")
		b.repeat(cycleCount, func() {
			for _, axis := range []string{"X", "Y"} {
				b.cmd("G1 %s%s F%d", axis, num(-shakeDistance), cycleFeed)
				b.cmd("G1 %s%s F%d", axis, num(2*shakeDistance), cycleFeed)
				b.cmd("G1 %s%s F%d", axis, num(-shakeDistance), cycleFeed)
			}
		})
		b.cmd("G90")
	})
	return w.String()
}

func core(c ctx) string {
	var w writer
	w.banner("START / END / FILAMENT")

	w.macro("PRINT_START", "Heat, home, level and purge", func(b *body) {
		b.set("bedtemp", fmt.Sprintf("params.T_BED|default(%s)|float", userVar("bed_temp")))
		b.set("hotendtemp", fmt.Sprintf("params.T_EXTRUDER|default(%s)|float", userVar("print_temp")))
		b.when(c.led(), "LED_CYCLE")
		b.cmd("M140 S{bedtemp}")
		if c.p.HeatStyle == profile.HeatParallel {
			b.cmd("M104 S{hotendtemp}")
			b.cmd("M190 S{bedtemp}")
		} else {
			b.cmd("TEMPERATURE_WAIT SENSOR=heater_bed MINIMUM={bedtemp * %s}", num(stagedFraction))
			b.cmd("M104 S{hotendtemp}")
			b.cmd("M190 S{bedtemp}")
		}
		b.cmd("M109 S{hotendtemp}")
		b.cmd("G28")
		if c.zTilt() {
			b.cmd("ALIGN_GANTRY")
			b.cmd("G28 Z")
		}
		if c.hasProbe() {
			b.cmd("BED_MESH_PROFILE LOAD=%s", c.p.Material)
		} else {
			b.comment("NO BED MESH")
		}
		b.when(c.led(), "LED_PRINT")
		b.cmd("G90")
		if c.p.UsePurge {
			b.cmd("PURGE")
		} else {
			b.comment("PURGE DISABLED")
		}
	})

	w.macro("END_PRINT", "Retract, home and shut down", func(b *body) {
		b.cmd("G91")
		b.cmd("G1 E-%d F%s", endRetract, expr(userVar("retract_speed")))
		b.cmd("G90")
		b.cmd("G28")
		b.cmd("TURN_OFF_HEATERS")
		b.when(c.led(), "LED_CYCLE")
		b.cmd("M106 S0")
		b.cmd("M84")
	})

	start, end := c.r.PurgeStart, c.r.PurgeEnd
	w.macro("PURGE", "Prime line along the front of the bed", func(b *body) {
		b.cmd("G90")
		b.cmd("M83")
		b.cmd("G1 Z%s F%d", num(purgeHeight), travelFeed)
		b.cmd("G1 %s F%d", xy(start), travelFeed)
		b.cmd("G1 %s E%d F%d", xy(end), purgeExtrude, purgeFeed)
		b.cmd("G92 E0")
	})

	w.macro("M600", "Filament change", func(b *body) {
		b.cmd("SAVE_GCODE_STATE NAME=M600_state")
		b.cmd("PAUSE")
		b.cmd("G91")
		b.cmd("G1 E-%s F2700", num(changeRetract))
		b.cmd("G90")
		b.liftZ(changeLift)
		b.cmd("G1 Z{lift_z} F600")
		b.cmd("G1 X%s Y%s F%d", expr(userVar("park_x")), expr(userVar("park_y")), travelFeed)
		b.cmd("RESTORE_GCODE_STATE NAME=M600_state")
	})
	return w.String()
}

func utility(c ctx) string {
	var w writer
	w.banner("UTILITY & SAFETY")

	if c.p.UseChamber {
		w.macro("HEAT_CHAMBER", "Pre-heat the enclosure with the bed and fans", func(b *body) {
			b.homeGuard()
			b.when(c.led(), "LED_ORANGE")
			b.cmd("G90")
			b.cmd("G1 Z%s F%d", num(c.lift(10)), zFeed)
			b.cmd("G1 X%s Y%s F%d", expr(userVar("center_x")), expr(userVar("center_y")), travelFeed)
			b.cmd("M140 S%d", chamberBedTemp)
			b.cmd("M106 S255")
			b.cmd("G4 P%d", chamberDwellMS)
			b.when(c.led(), "LED_IDLE")
		})
	}

	w.macro("LOAD_FILAMENT", "Load filament through the bowden tube", func(b *body) {
		b.cmd("_LOW_TEMP_CHECK")
		b.cmd("SAVE_GCODE_STATE NAME=loading_filament")
		b.cmd("M83")
		b.cmd("G92 E0")
		b.cmd("G1 E%s F%s", expr(userVar("bowden")), expr(userVar("retract_speed")))
		b.cmd("G1 E50 F200")
		b.cmd("G1 E-5 F400")
		b.cmd("RESTORE_GCODE_STATE NAME=loading_filament")
	})

	w.macro("UNLOAD_FILAMENT", "Pull filament back out of the bowden tube", func(b *body) {
		b.cmd("_LOW_TEMP_CHECK")
		b.cmd("SAVE_GCODE_STATE NAME=unloading_filament")
		b.cmd("M83")
		b.cmd("G1 E10 F100")
		b.cmd("G1 E-20 F600")
		b.cmd("G1 E-%s F%s", expr(userVar("bowden")+" + 50"), expr(userVar("retract_speed")))
		b.cmd("RESTORE_GCODE_STATE NAME=unloading_filament")
	})

	w.macro("_LOW_TEMP_CHECK", "Heat the hotend if it is below T", func(b *body) {
		b.set("T", fmt.Sprintf("params.T|default(%s)|float", userVar("print_temp")))
		b.ifBlock("printer.extruder.temperature < T", func() {
			b.cmd("M109 S{T}")
		})
	})

	w.bare("exclude_object")
	w.bare("pause_resume")
	w.bare("display_status")
	return w.String()
}
