package resolve

import (
	"fmt"
	"math"
	"strings"

	"github.com/Kanrog/kanrog.github.io/pkg/kinematics"
	"github.com/Kanrog/kanrog.github.io/pkg/profile"
)

// Severity says whether a violation stops generation.
type Severity int

const (
	// Advisory violations are reported but do not block generation.
	Advisory Severity = iota
	// Blocking violations refuse generation.
	Blocking
)

func (s Severity) String() string {
	if s == Blocking {
		return "blocking"
	}
	return "advisory"
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Severity) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "blocking":
		*s = Blocking
	case "advisory":
		*s = Advisory
	default:
		return fmt.Errorf("unknown severity %q", string(text))
	}
	return nil
}

// Violation codes.
const (
	CodeBedExtent         = "bed_extent"
	CodeBowdenLength      = "bowden_length"
	CodeMarginNegative    = "margin_negative"
	CodeMarginDelta       = "margin_delta"
	CodeMarginRect        = "margin_rect"
	CodePrintTempRange    = "print_temp_range"
	CodePrintTempLiner    = "print_temp_liner"
	CodePrintTempHardware = "print_temp_hardware"
	CodeBedTempRange      = "bed_temp_range"
	CodeBedTempMagnet     = "bed_temp_magnet"
	CodeLEDBrightness     = "led_brightness"
	CodeZTiltIgnored      = "z_tilt_ignored"
)

// Thermal limits in °C.
const (
	MinPrintTemp      = 170.0
	MaxPrintTemp      = 300.0
	PTFELinerTemp     = 260.0
	StockHardwareTemp = 290.0
	MinBedTemp        = 0.0
	MaxBedTemp        = 120.0
	MagnetSheetTemp   = 85.0
)

// Violation is one problem found in a profile.
type Violation struct {
	Code     string   `json:"code"`
	Field    string   `json:"field"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

// Result is the outcome of Validate.
type Result struct {
	Violations []Violation `json:"violations"`
}

// Valid reports whether no blocking violation was found.
func (r Result) Valid() bool {
	for _, v := range r.Violations {
		if v.Severity == Blocking {
			return false
		}
	}
	return true
}

// Blocking returns the blocking violations in check order.
func (r Result) Blocking() []Violation {
	return r.filter(Blocking)
}

// Advisories returns the advisory violations in check order.
func (r Result) Advisories() []Violation {
	return r.filter(Advisory)
}

func (r Result) filter(s Severity) []Violation {
	var out []Violation
	for _, v := range r.Violations {
		if v.Severity == s {
			out = append(out, v)
		}
	}
	return out
}

// Has reports whether a violation with the given code is present.
func (r Result) Has(code string) bool {
	for _, v := range r.Violations {
		if v.Code == code {
			return true
		}
	}
	return false
}

func (r *Result) add(sev Severity, code, field, format string, args ...interface{}) {
	r.Violations = append(r.Violations, Violation{
		Code:     code,
		Field:    field,
		Message:  fmt.Sprintf(format, args...),
		Severity: sev,
	})
}

// Validate checks p against the geometric and thermal safety rules. Checks
// run in a fixed order so reports are stable.
func Validate(p profile.Profile) Result {
	var r Result

	// Comparisons are written so NaN fails them.
	for _, ext := range []struct {
		field string
		v     float64
	}{{"max_x", p.MaxX}, {"max_y", p.MaxY}, {"max_z", p.MaxZ}} {
		if !(ext.v > 0) {
			r.add(Blocking, CodeBedExtent, ext.field, "bed extent must be positive, got %g", ext.v)
		}
	}
	if !(p.Bowden > 0) {
		r.add(Blocking, CodeBowdenLength, "bowden", "bowden length must be positive, got %g", p.Bowden)
	}

	validateMargin(&r, p)
	validatePrintTemp(&r, p.PrintTemp)
	validateBedTemp(&r, p.BedTemp)

	// Delta towers have no independent Z motors to align.
	if p.UseZTilt && p.Archetype == kinematics.Delta {
		r.add(Advisory, CodeZTiltIgnored, "use_z_tilt",
			"z-tilt has no effect on a delta; no gantry alignment is generated")
	}

	if p.UseLED {
		b := p.LED.Brightness
		if math.IsNaN(b) || b < 0 || b > 1 {
			r.add(Advisory, CodeLEDBrightness, "led.brightness",
				"brightness %g outside [0,1], clamped to %g", b, ClampBrightness(b))
		}
	}
	return r
}

func validateMargin(r *Result, p profile.Profile) {
	m := p.Margin
	if math.IsNaN(m) || m < 0 {
		r.add(Blocking, CodeMarginNegative, "margin", "margin must not be negative, got %g", m)
		return
	}
	g := p.Geometry()
	if g.MarginFeasible(m) {
		return
	}
	if g.Circular() {
		r.add(Blocking, CodeMarginDelta, "margin",
			"margin %gmm leaves no usable area on a %gmm delta bed (must be below %g)", m, p.MaxX, p.MaxX/2-10)
		return
	}
	r.add(Blocking, CodeMarginRect, "margin",
		"margin %gmm leaves a safe zone of %gx%gmm (each side must exceed 10)", m, p.MaxX-2*m, p.MaxY-2*m)
}

func validatePrintTemp(r *Result, t float64) {
	switch {
	case math.IsNaN(t) || t < MinPrintTemp || t > MaxPrintTemp:
		r.add(Blocking, CodePrintTempRange, "print_temp",
			"print temperature %g°C outside %g-%g°C", t, MinPrintTemp, MaxPrintTemp)
	case t > StockHardwareTemp:
		r.add(Advisory, CodePrintTempHardware, "print_temp",
			"print temperature %g°C needs an all-metal hotend and a high-temperature thermistor", t)
	case t >= PTFELinerTemp:
		r.add(Advisory, CodePrintTempLiner, "print_temp",
			"print temperature %g°C degrades PTFE-lined hotends", t)
	}
}

func validateBedTemp(r *Result, t float64) {
	switch {
	case math.IsNaN(t) || t < MinBedTemp || t > MaxBedTemp:
		r.add(Blocking, CodeBedTempRange, "bed_temp",
			"bed temperature %g°C outside %g-%g°C", t, MinBedTemp, MaxBedTemp)
	case t > MagnetSheetTemp:
		r.add(Advisory, CodeBedTempMagnet, "bed_temp",
			"bed temperature %g°C can demagnetize flexible sheets", t)
	}
}
