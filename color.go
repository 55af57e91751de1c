package globe

import (
	"image/color"
	"math"
)

// RGB is a linear color with components in [0,1].
type RGB struct {
	R, G, B float64
}

// Fixed palette.
var (
	Black  = RGB{0, 0, 0}
	White  = RGB{1, 1, 1}
	Red    = RGB{1, 0, 0}
	Green  = RGB{0, 1, 0}
	Blue   = RGB{0, 0, 1}
	Yellow = RGB{1, 1, 0}
)

// Mix linearly interpolates from a to b, like GLSL mix. Mixing a color with
// itself returns it unchanged.
func Mix(a, b RGB, t float64) RGB {
	return RGB{
		R: a.R + (b.R-a.R)*t,
		G: a.G + (b.G-a.G)*t,
		B: a.B + (b.B-a.B)*t,
	}
}

// ToRGBA converts to an opaque 8-bit color.
func (c RGB) ToRGBA() color.RGBA {
	return color.RGBA{R: to8(c.R), G: to8(c.G), B: to8(c.B), A: 0xff}
}

func fromRGBA(c color.RGBA) RGB {
	return RGB{float64(c.R) / 255, float64(c.G) / 255, float64(c.B) / 255}
}

func to8(v float64) uint8 {
	if v <= 0 || math.IsNaN(v) {
		return 0
	}
	if v >= 1 {
		return 0xff
	}
	return uint8(math.Round(v * 255))
}
