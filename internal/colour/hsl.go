package colour

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// HSL is a colour in hue/saturation/lightness form.
// H is in degrees [0, 360); S and L are percentages in [0, 100].
type HSL struct {
	H float64
	S float64
	L float64
}

// Shift is a set of HSL deltas. DH is in degrees, DS and DL in percentage points.
type Shift struct {
	DH float64
	DS float64
	DL float64
}

// RGBToHSL converts the RGB channels of c to HSL. Achromatic colours
// (max == min) report a hue and saturation of 0.
func RGBToHSL(c Color) HSL {
	h, s, l := colorful.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
	}.Hsl()
	return HSL{H: wrapHue(h), S: s * 100, L: l * 100}
}

// HSLToRGB converts an HSL colour to unrounded RGB channels in [0, 255].
// Callers round and clamp when storing the result in a Color.
func HSLToRGB(hsl HSL) (r, g, b float64) {
	c := colorful.Hsl(wrapHue(hsl.H), clampPct(hsl.S)/100, clampPct(hsl.L)/100)
	return c.R * 255, c.G * 255, c.B * 255
}

// AdjustHSL shifts c in HSL space. Hue wraps into [0, 360); saturation and
// lightness clamp to [0, 100]. The input alpha is carried through unchanged.
func AdjustHSL(c Color, d Shift) Color {
	hsl := RGBToHSL(c)
	hsl.H = wrapHue(hsl.H + d.DH)
	hsl.S = clampPct(hsl.S + d.DS)
	hsl.L = clampPct(hsl.L + d.DL)

	r, g, b := HSLToRGB(hsl)
	return Color{
		R: ClampChannel(r),
		G: ClampChannel(g),
		B: ClampChannel(b),
		A: c.A,
	}
}

// wrapHue maps any angle into [0, 360).
func wrapHue(h float64) float64 {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	if h >= 360 {
		h = 0
	}
	return h
}

func clampPct(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}
