package resolve

import (
	"math"

	"gonum.org/v1/gonum/floats/scalar"

	"github.com/Kanrog/kanrog.github.io/pkg/profile"
)

// colorPrecision is the number of decimals kept on each LED channel.
const colorPrecision = 2

// ClampBrightness limits b to [0,1]. NaN is treated as full brightness.
func ClampBrightness(b float64) float64 {
	switch {
	case math.IsNaN(b):
		return 1
	case b < 0:
		return 0
	case b > 1:
		return 1
	}
	return b
}

// ScaleColor dims the palette color c by brightness and rounds each channel
// half away from zero to two decimals.
func ScaleColor(c profile.Color, brightness float64) profile.RGB {
	b := ClampBrightness(brightness)
	base := c.Base()
	return profile.RGB{
		R: scalar.Round(base.R*b, colorPrecision),
		G: scalar.Round(base.G*b, colorPrecision),
		B: scalar.Round(base.B*b, colorPrecision),
	}
}
