package gcode

import (
	"testing"
)

func TestParseTraditional(t *testing.T) {
	cmd, err := ParseLine("g1 X20 y20.5 F3000")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmd.Name != "G1" || !cmd.Traditional() {
		t.Fatalf("expected traditional G1, got %+v", cmd)
	}
	if v, ok := cmd.Arg("y"); !ok || v != "20.5" {
		t.Errorf("expected Y=20.5, got %q (%v)", v, ok)
	}
	if len(cmd.Params) != 3 {
		t.Errorf("expected 3 params, got %d", len(cmd.Params))
	}
}

func TestParseExtended(t *testing.T) {
	cmd, err := ParseLine("SET_LED LED=status_leds RED=0.5 GREEN=0 BLUE=0 TRANSMIT=1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmd.Traditional() {
		t.Error("SET_LED is not traditional")
	}
	if v, _ := cmd.Arg("LED"); v != "status_leds" {
		t.Errorf("expected LED=status_leds, got %q", v)
	}
}

func TestParseTemplateParameters(t *testing.T) {
	tests := []struct {
		line  string
		name  string
		key   string
		value string
	}{
		{"TEMPERATURE_WAIT SENSOR=heater_bed MINIMUM={bedtemp * 0.85}", "TEMPERATURE_WAIT", "MINIMUM", "{bedtemp * 0.85}"},
		{`G1 X{printer["gcode_macro _USER_VARS"].park_x} Y10`, "G1", "X", `{printer["gcode_macro _USER_VARS"].park_x}`},
		{"M109 S{hotendtemp}", "M109", "S", "{hotendtemp}"},
		{"RESPOND MSG={'a;b'}", "RESPOND", "MSG", "{'a;b'}"},
	}
	for _, tt := range tests {
		cmd, err := ParseLine(tt.line)
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tt.line, err)
			continue
		}
		if cmd.Name != tt.name {
			t.Errorf("%s: expected name %s, got %s", tt.line, tt.name, cmd.Name)
		}
		if v, ok := cmd.Arg(tt.key); !ok || v != tt.value {
			t.Errorf("%s: expected %s=%s, got %q", tt.line, tt.key, tt.value, v)
		}
	}
}

func TestParseComment(t *testing.T) {
	cmd, err := ParseLine("G91; G1 E50 F60")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmd.Name != "G91" || len(cmd.Params) != 0 {
		t.Errorf("expected bare G91, got %+v", cmd)
	}
	if cmd.Comment != "G1 E50 F60" {
		t.Errorf("unexpected comment %q", cmd.Comment)
	}

	for _, line := range []string{"", "   ", "; only a comment"} {
		cmd, err := ParseLine(line)
		if err != nil || cmd != nil {
			t.Errorf("%q: expected nil command, got %+v, %v", line, cmd, err)
		}
	}
}

func TestParseErrors(t *testing.T) {
	for _, line := range []string{
		"G1 X=10",
		"G1 {x}",
		"SET_LED status_leds",
		"SET_LED =1",
		"M104 S{temp",
		"M104 S}",
		`RESPOND MSG={"open}`,
	} {
		if _, err := ParseLine(line); err == nil {
			t.Errorf("%q: expected error", line)
		}
	}
}

func TestIsCommandName(t *testing.T) {
	for s, want := range map[string]bool{
		"G1":          true,
		"m600":        true,
		"PRINT_START": true,
		"_USER_VARS":  true,
		"heat":        false,
		"Hello":       false,
		"":            false,
		"A-B":         false,
	} {
		if got := IsCommandName(s); got != want {
			t.Errorf("IsCommandName(%q) = %v, want %v", s, got, want)
		}
	}
}
