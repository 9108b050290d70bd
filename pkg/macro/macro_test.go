package macro

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kanrog/kanrog.github.io/pkg/errors"
	"github.com/Kanrog/kanrog.github.io/pkg/kinematics"
	"github.com/Kanrog/kanrog.github.io/pkg/profile"
	"github.com/Kanrog/kanrog.github.io/pkg/resolve"
)

func assemble(p profile.Profile) Document {
	return Assemble(p, resolve.Resolve(p))
}

// macroText returns the text of one [gcode_macro] section.
func macroText(t *testing.T, doc, name string) string {
	t.Helper()
	head := "[gcode_macro " + name + "]\n"
	i := strings.Index(doc, head)
	require.GreaterOrEqual(t, i, 0, "macro %s not found", name)
	rest := doc[i:]
	if end := strings.Index(rest, "\n\n"); end >= 0 {
		rest = rest[:end+1]
	}
	return rest
}

func TestAssembleIsDeterministic(t *testing.T) {
	p := profile.Default()
	p.Archetype = kinematics.Delta
	p.Probe = profile.ProbeKlicky
	p.UseChamber = true

	a := assemble(p)
	b := assemble(p)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("documents differ (-first +second):\n%s", diff)
	}
	assert.Equal(t, a.String(), b.String())
}

func TestBlockOrder(t *testing.T) {
	p := profile.Default()
	assert.Equal(t, []string{
		BlockHeader, BlockVariables, BlockLighting, BlockDiagnostics,
		BlockStress, BlockCore, BlockUtility,
	}, assemble(p).Names())

	p.UseLED = false
	assert.Equal(t, []string{
		BlockHeader, BlockVariables, BlockDiagnostics,
		BlockStress, BlockCore, BlockUtility,
	}, assemble(p).Names())
}

func TestHeader(t *testing.T) {
	p := profile.Default()
	p.Archetype = kinematics.Bedslinger
	p.Probe = profile.ProbeBLTouch
	hdr, ok := assemble(p).Block(BlockHeader)
	require.True(t, ok)
	assert.Contains(t, hdr.Text, "# KANROG UNIVERSAL MACRO SET | ARCHETYPE: BEDSLINGER\n")
	assert.Contains(t, hdr.Text, "# Bed Volume: 235x235x250 | Margin: 20mm\n")
	assert.Contains(t, hdr.Text, "# Material: PLA | Probe: bltouch\n")
}

func TestUserVars(t *testing.T) {
	p := profile.Default()
	p.ApplyMaterial(profile.TPU)
	doc := assemble(p).String()
	vars := macroText(t, doc, UserVarsMacro)

	for _, want := range []string{
		"variable_park_x: 117.5\n",
		"variable_park_y: 117.5\n",
		"variable_z_park: 240\n",
		"variable_center_x: 117.5\n",
		"variable_bowden: 450\n",
		"variable_margin: 20\n",
		"variable_print_temp: 230\n",
		"variable_bed_temp: 50\n",
		"variable_retract_speed: 300\n",
		"variable_fan_speed: 255\n",
		"variable_material: 'TPU'\n",
	} {
		assert.Contains(t, vars, want)
	}
	assert.True(t, strings.HasSuffix(vars, "gcode:\n"))
}

func TestBedslingerParksAtRear(t *testing.T) {
	p := profile.Default()
	p.Archetype = kinematics.Bedslinger
	doc := assemble(p).String()
	assert.Contains(t, doc, "variable_park_x: 117.5\n")
	assert.Contains(t, doc, "variable_park_y: 230\n")
}

func TestPurgeMacro(t *testing.T) {
	doc := assemble(profile.Default()).String()
	want := `[gcode_macro PURGE]
description: Prime line along the front of the bed
gcode:
    G90
    M83
    G1 Z0.3 F3000
    G1 X20 Y20 F3000
    G1 X60 Y20 E15 F300
    G92 E0
`
	assert.Equal(t, want, macroText(t, doc, "PURGE"))
}

func TestDeltaMacros(t *testing.T) {
	p := profile.Default()
	p.Archetype = kinematics.Delta
	p.MaxX, p.MaxY = 200, 200
	doc := assemble(p).String()

	assert.Contains(t, doc, "    G1 X-7.5 Y-79.6 F3000\n")
	assert.Contains(t, doc, "    G1 X7.5 Y-79.6 E15 F300\n")
	assert.Contains(t, doc, "variable_park_x: 0\n")
	assert.Contains(t, doc, "variable_park_y: 0\n")
	for _, s := range []string{"A", "B", "C", "E"} {
		assert.Contains(t, doc, "[gcode_macro BUZZ_"+s+"]\n")
	}
	assert.NotContains(t, doc, "BUZZ_X")
	assert.Contains(t, doc, "[gcode_macro ENDSTOPS_CALIBRATION]\n")
	assert.Contains(t, doc, "    ENDSTOP_PHASE_CALIBRATE STEPPER=stepper_c\n")
	assert.Contains(t, doc, "    DELTA_CALIBRATE METHOD=manual\n")
	assert.NotContains(t, doc, "MESH_CALIBRATE]")
	assert.NotContains(t, doc, "ALIGN_GANTRY")
}

func TestCartesianOmitsDeltaMacros(t *testing.T) {
	doc := assemble(profile.Default()).String()
	assert.NotContains(t, doc, "ENDSTOPS_CALIBRATION")
	assert.NotContains(t, doc, "DELTA_CALIBRATE")
	assert.Contains(t, doc, "[gcode_macro BUZZ_X]\n")
	assert.Contains(t, doc, "[gcode_macro BUZZ_Z]\n")
}

func TestLightingDisabledLeavesNoReferences(t *testing.T) {
	p := profile.Default()
	p.UseLED = false
	p.UseChamber = true
	doc := assemble(p).String()
	assert.NotContains(t, doc, "LED_")
	assert.NotContains(t, doc, "SET_LED")
}

func TestLightingScaledColors(t *testing.T) {
	p := profile.Default()
	p.LED.Name = "chamber_leds"
	p.LED.IdleColor = profile.Red
	p.LED.PrintColor = profile.White
	p.LED.Brightness = 0.5
	block, ok := assemble(p).Block(BlockLighting)
	require.True(t, ok)

	assert.Contains(t, block.Text, "[gcode_macro LED_IDLE]\ndescription: Idle color (RED)\ngcode:\n    SET_LED LED=chamber_leds RED=0.50 GREEN=0.00 BLUE=0.00 TRANSMIT=1\n")
	assert.Contains(t, block.Text, "    SET_LED LED=chamber_leds RED=0.40 GREEN=0.40 BLUE=0.40 TRANSMIT=1\n")
	assert.Contains(t, block.Text, "[gcode_macro LED_ORANGE]\ngcode:\n    SET_LED LED=chamber_leds RED=1 GREEN=0.5 BLUE=0 TRANSMIT=1\n")
	assert.Contains(t, block.Text, "[gcode_macro LED_OFF]\n")
	assert.Contains(t, block.Text, "[delayed_gcode LED_ANNOUNCE]\ninitial_duration: 1\ngcode:\n    LED_CYCLE\n")
	assert.Equal(t, 6, strings.Count(block.Text, "G4 P100"))
	assert.Contains(t, block.Text, "{% for i in range(4) %}\n")
}

func TestPrintStart(t *testing.T) {
	p := profile.Default()
	doc := assemble(p).String()
	start := macroText(t, doc, "PRINT_START")
	assert.Contains(t, start, "TEMPERATURE_WAIT SENSOR=heater_bed MINIMUM={bedtemp * 0.85}\n")
	assert.Contains(t, start, "    LED_CYCLE\n")
	assert.Contains(t, start, "    LED_PRINT\n")
	assert.Contains(t, start, "    # NO BED MESH\n")
	assert.True(t, strings.HasSuffix(start, "    G90\n    PURGE\n"))
	assert.Less(t, strings.Index(start, "M140"), strings.Index(start, "M104"))
	assert.Less(t, strings.Index(start, "M109"), strings.Index(start, "G28"))

	p.HeatStyle = profile.HeatParallel
	p.UsePurge = false
	p.Probe = profile.ProbeInductive
	p.UseZTilt = true
	p.ApplyMaterial(profile.PETG)
	doc = assemble(p).String()
	start = macroText(t, doc, "PRINT_START")
	assert.NotContains(t, start, "TEMPERATURE_WAIT")
	assert.Contains(t, start, "    ALIGN_GANTRY\n    G28 Z\n    BED_MESH_PROFILE LOAD=PETG\n")
	assert.Contains(t, start, "    # PURGE DISABLED\n")

	// Round beds mesh too; only the gantry alignment is skipped.
	p = profile.Default()
	p.Archetype = kinematics.Delta
	p.Probe = profile.ProbeBLTouch
	p.UseZTilt = true
	p.ApplyMaterial(profile.PETG)
	doc = assemble(p).String()
	start = macroText(t, doc, "PRINT_START")
	assert.Contains(t, start, "    G28\n    BED_MESH_PROFILE LOAD=PETG\n")
	assert.NotContains(t, start, "NO BED MESH")
	assert.NotContains(t, start, "ALIGN_GANTRY")
	assert.Contains(t, macroText(t, doc, "MESH_CALIBRATE"), "    BED_MESH_CALIBRATE PROFILE=PETG\n")
}

// assertOrder checks that each of steps appears in text after the previous one.
func assertOrder(t *testing.T, text string, steps ...string) {
	t.Helper()
	last := -1
	for _, step := range steps {
		i := strings.Index(text[last+1:], step)
		if !assert.GreaterOrEqual(t, i, 0, "%q missing after position %d in:\n%s", step, last, text) {
			return
		}
		last += 1 + i
	}
}

func TestEndPrint(t *testing.T) {
	end := macroText(t, assemble(profile.Default()).String(), "END_PRINT")
	assertOrder(t, end,
		"    G91\n",
		"    G1 E-15 F{printer[\"gcode_macro _USER_VARS\"].retract_speed}\n",
		"    G28\n",
		"    TURN_OFF_HEATERS\n",
		"    LED_CYCLE\n",
		"    M106 S0\n",
		"    M84\n",
	)
	assert.True(t, strings.HasSuffix(end, "    M84\n"))

	p := profile.Default()
	p.UseLED = false
	end = macroText(t, assemble(p).String(), "END_PRINT")
	assert.NotContains(t, end, "LED_")
	assertOrder(t, end, "    G28\n", "    TURN_OFF_HEATERS\n", "    M106 S0\n", "    M84\n")
}

func TestFilamentChange(t *testing.T) {
	change := macroText(t, assemble(profile.Default()).String(), "M600")
	assertOrder(t, change,
		"    SAVE_GCODE_STATE NAME=M600_state\n",
		"    PAUSE\n",
		"    G1 E-0.8 F2700\n",
		"    G1 Z{lift_z} F600\n",
		"    G1 X{printer[\"gcode_macro _USER_VARS\"].park_x} Y{printer[\"gcode_macro _USER_VARS\"].park_y} F",
		"    RESTORE_GCODE_STATE NAME=M600_state\n",
	)
	assert.Contains(t, change, "z_park")
	assert.True(t, strings.HasSuffix(change, "    RESTORE_GCODE_STATE NAME=M600_state\n"))
}

func TestProbeMacros(t *testing.T) {
	p := profile.Default()
	p.Probe = profile.ProbeBLTouch
	p.ApplyMaterial(profile.ABS)
	doc := assemble(p).String()
	assert.Contains(t, doc, "PROBE_ACCURACY SAMPLES=10\n")
	assert.Contains(t, doc, "[gcode_macro PROBE_Z_OFFSET]\n")
	assert.Contains(t, doc, "BED_MESH_CALIBRATE PROFILE=ABS\n")
	assert.NotContains(t, doc, "BED_SCREWS_ADJUST")

	p.Probe = profile.ProbeNone
	doc = assemble(p).String()
	assert.NotContains(t, doc, "PROBE_ACCURACY")
	assert.Contains(t, doc, "[gcode_macro BED_SCREWS]\n")
}

func TestPIDUsesResolvedTemperatures(t *testing.T) {
	p := profile.Default()
	p.ApplyMaterial(profile.ASA)
	doc := assemble(p).String()
	assert.Contains(t, doc, "PID_CALIBRATE HEATER=extruder TARGET=255\n")
	assert.Contains(t, doc, "PID_CALIBRATE HEATER=heater_bed TARGET=100\n")
}

func TestStressMacros(t *testing.T) {
	p := profile.Default()
	doc := assemble(p).String()
	xy := macroText(t, doc, "TORTURE_XY")
	assert.Contains(t, xy, "{% for i in range(10) %}\n")
	assert.Contains(t, xy, "        G1 X195 Y195 F500000\n")
	assert.Contains(t, xy, "        G1 X-195 Y-195 F500000\n")
	assert.Contains(t, macroText(t, doc, "TORTURE_SHAKE"), "{% for i in range(20) %}\n")
	assert.Contains(t, macroText(t, doc, "CYCLE_MOVEMENT"), "{% for i in range(16) %}\n")
	assert.Contains(t, doc, "G1 Y30 F5000\n")

	p.TortureLevel = profile.TortureAggressive
	doc = assemble(p).String()
	assert.Contains(t, doc, "F800000\n")
	assert.NotContains(t, doc, "F500000")
}

func TestUtility(t *testing.T) {
	p := profile.Default()
	doc := assemble(p).String()
	assert.NotContains(t, doc, "HEAT_CHAMBER")
	assert.Contains(t, doc, "[exclude_object]\n")
	assert.Contains(t, doc, "[pause_resume]\n")
	assert.Contains(t, doc, "[display_status]\n")

	load := macroText(t, doc, "LOAD_FILAMENT")
	assert.Contains(t, load, "    _LOW_TEMP_CHECK\n")
	assert.Contains(t, load, `G1 E{printer["gcode_macro _USER_VARS"].bowden} F{printer["gcode_macro _USER_VARS"].retract_speed}`)
	unload := macroText(t, doc, "UNLOAD_FILAMENT")
	assert.Contains(t, unload, `G1 E-{printer["gcode_macro _USER_VARS"].bowden + 50}`)

	p.UseChamber = true
	chamber := macroText(t, assemble(p).String(), "HEAT_CHAMBER")
	assert.Contains(t, chamber, "    M140 S100\n")
	assert.Contains(t, chamber, "    G4 P1800000\n")
	assert.NotContains(t, chamber, "G4 S")
}

func TestOneCommandPerLine(t *testing.T) {
	p := profile.Default()
	p.UseChamber = true
	for _, line := range strings.Split(assemble(p).String(), "\n") {
		if strings.HasPrefix(line, indent) {
			assert.NotContains(t, line, ";", "line %q", line)
		}
	}
}

func TestGenerate(t *testing.T) {
	p := profile.Default()
	doc, res, err := Generate(p)
	require.NoError(t, err)
	assert.True(t, res.Valid())
	assert.NotEmpty(t, doc.Blocks)

	p.SetPrintTemp(270)
	doc, res, err = Generate(p)
	require.NoError(t, err)
	assert.True(t, res.Has(resolve.CodePrintTempLiner))
	assert.NotEmpty(t, doc.Blocks)

	p.Margin = 200
	doc, res, err = Generate(p)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrProfileValidation))
	assert.True(t, res.Has(resolve.CodeMarginRect))
	assert.Empty(t, doc.Blocks)
}

func TestLintCleanForEveryCombination(t *testing.T) {
	archetypes := []kinematics.Archetype{kinematics.CoreXY, kinematics.Bedslinger, kinematics.Delta}
	probes := []profile.ProbeType{profile.ProbeNone, profile.ProbeBLTouch, profile.ProbeInductive, profile.ProbeKlicky}
	heats := []profile.HeatStyle{profile.HeatStaged, profile.HeatParallel}

	for _, a := range archetypes {
		for _, probe := range probes {
			for _, heat := range heats {
				for flags := 0; flags < 16; flags++ {
					p := profile.Default()
					p.Archetype = a
					p.Probe = probe
					p.HeatStyle = heat
					p.UsePurge = flags&1 != 0
					p.UseChamber = flags&2 != 0
					p.UseLED = flags&4 != 0
					p.UseZTilt = flags&8 != 0

					issues := Lint(assemble(p).String())
					if len(issues) > 0 {
						t.Errorf("%s/%s/%s flags=%04b: %d issue(s), first: %s",
							a, probe, heat, flags, len(issues), issues[0])
					}
				}
			}
		}
	}
}

func TestLintFindsProblems(t *testing.T) {
	doc := `[gcode_macro _USER_VARS]
variable_x: 1
variable_bad: hello
gcode:

[gcode_macro A]
gcode:
    FROB
    G1 X{printer["gcode_macro _USER_VARS"].y}
    {% if true %}
    PAUSE
    G91; G1 E50 F60
    SET_LED red

[gcode_macro B]
description: no body

[delayed_gcode C]
initial_duration: -1
gcode:
    A
    {% endfor %}

[exclude_object]
[exclude_object]
`
	issues := Lint(doc)
	var msgs []string
	for _, i := range issues {
		msgs = append(msgs, i.String())
	}
	all := strings.Join(msgs, "\n")

	assert.Contains(t, all, "variable_bad")
	assert.Contains(t, all, "unknown command FROB")
	assert.Contains(t, all, "undeclared variable y")
	assert.Contains(t, all, "unclosed if block")
	assert.Contains(t, all, "PAUSE needs a [pause_resume] section")
	assert.Contains(t, all, "[gcode_macro B]: missing gcode option")
	assert.Contains(t, all, "initial_duration")
	assert.Contains(t, all, "unexpected endfor")
	assert.Contains(t, all, "G1 after ';' is a comment and never runs")
	assert.Contains(t, all, `SET_LED: parameter "red" is not KEY=VALUE`)
	assert.Contains(t, all, "section already defined on line 24")

	for i := 1; i < len(issues); i++ {
		assert.LessOrEqual(t, issues[i-1].Line, issues[i].Line)
	}

	err := LintError(issues)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrMacroLint))
	assert.NoError(t, LintError(nil))
}

func TestLintParseFailure(t *testing.T) {
	issues := Lint("G28\n")
	require.Len(t, issues, 1)
	assert.Equal(t, 1, issues[0].Line)
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, Filename)
	doc := assemble(profile.Default())

	backup, err := WriteFile(path, doc, true)
	require.NoError(t, err)
	assert.Empty(t, backup)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, doc.String(), string(data))

	// Same content: nothing to back up.
	backup, err = WriteFile(path, doc, true)
	require.NoError(t, err)
	assert.Empty(t, backup)

	p := profile.Default()
	p.UseLED = false
	backup, err = WriteFile(path, assemble(p), true)
	require.NoError(t, err)
	require.NotEmpty(t, backup)
	old, err := os.ReadFile(backup)
	require.NoError(t, err)
	assert.Equal(t, doc.String(), string(old))

	_, err = WriteFile(filepath.Join(dir, "missing", Filename), doc, false)
	assert.True(t, errors.Is(err, errors.ErrExport))
}
