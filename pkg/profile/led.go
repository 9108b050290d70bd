package profile

import (
	"fmt"
	"strings"
)

// Color is a status LED palette entry.
type Color string

const (
	Red    Color = "RED"
	Orange Color = "ORANGE"
	Yellow Color = "YELLOW"
	Green  Color = "GREEN"
	Blue   Color = "BLUE"
	Purple Color = "PURPLE"
	White  Color = "WHITE"
	Off    Color = "OFF"
)

// RGB is a color with channels in [0,1], as SET_LED expects.
type RGB struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
}

var palette = map[Color]RGB{
	Red:    {1, 0, 0},
	Orange: {1, 0.5, 0},
	Yellow: {1, 1, 0},
	Green:  {0, 1, 0},
	Blue:   {0, 0, 1},
	Purple: {1, 0, 1},
	White:  {0.8, 0.8, 0.8},
	Off:    {0, 0, 0},
}

// paletteOrder is the order the per-color macros are emitted in.
var paletteOrder = []Color{Red, Orange, Yellow, Green, Blue, Purple, White, Off}

// cycleOrder is the announce sequence.
var cycleOrder = []Color{Red, Orange, Yellow, Green, Blue, Purple}

// Base returns the full-brightness RGB of c.
func (c Color) Base() RGB {
	return palette[c]
}

// Palette returns every color in emission order.
func Palette() []Color {
	out := make([]Color, len(paletteOrder))
	copy(out, paletteOrder)
	return out
}

// CycleColors returns the colors the announce sequence steps through.
func CycleColors() []Color {
	out := make([]Color, len(cycleOrder))
	copy(out, cycleOrder)
	return out
}

// ParseColor parses a palette name case-insensitively.
func ParseColor(s string) (Color, error) {
	c := Color(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := palette[c]; !ok {
		return White, fmt.Errorf("unknown color %q", s)
	}
	return c, nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Color) UnmarshalText(text []byte) error {
	v, err := ParseColor(string(text))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// LEDSettings configures the status LED macros.
type LEDSettings struct {
	Name       string  `json:"name" yaml:"name"`
	IdleColor  Color   `json:"idle_color" yaml:"idle_color"`
	PrintColor Color   `json:"print_color" yaml:"print_color"`
	Brightness float64 `json:"brightness" yaml:"brightness"`
}
