package profile

import (
	"fmt"
	"strings"
)

// ProbeType is the bed probe fitted to the machine.
type ProbeType string

const (
	ProbeNone      ProbeType = "none"
	ProbeBLTouch   ProbeType = "bltouch"
	ProbeInductive ProbeType = "inductive"
	ProbeKlicky    ProbeType = "klicky"
)

// HasProbe reports whether a probe is fitted.
func (p ProbeType) HasProbe() bool {
	return p != ProbeNone && p != ""
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *ProbeType) UnmarshalText(text []byte) error {
	v := ProbeType(strings.ToLower(strings.TrimSpace(string(text))))
	switch v {
	case ProbeNone, ProbeBLTouch, ProbeInductive, ProbeKlicky:
		*p = v
		return nil
	case "":
		*p = ProbeNone
		return nil
	}
	return fmt.Errorf("unknown probe type %q", string(text))
}

// HeatStyle selects how the bed and hotend are brought up to temperature.
type HeatStyle string

const (
	// HeatStaged waits for the bed to reach 85% of target before heating the
	// hotend, limiting peak power draw.
	HeatStaged HeatStyle = "staged"

	// HeatParallel heats bed and hotend together.
	HeatParallel HeatStyle = "parallel"
)

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *HeatStyle) UnmarshalText(text []byte) error {
	v := HeatStyle(strings.ToLower(strings.TrimSpace(string(text))))
	switch v {
	case HeatStaged, HeatParallel:
		*h = v
		return nil
	}
	return fmt.Errorf("unknown heat style %q", string(text))
}

// TortureLevel selects the stress-test feed rate.
type TortureLevel string

const (
	TortureStandard   TortureLevel = "standard"
	TortureAggressive TortureLevel = "aggressive"
)

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *TortureLevel) UnmarshalText(text []byte) error {
	v := TortureLevel(strings.ToLower(strings.TrimSpace(string(text))))
	switch v {
	case TortureStandard, TortureAggressive:
		*l = v
		return nil
	}
	return fmt.Errorf("unknown torture level %q", string(text))
}
