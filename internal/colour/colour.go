// Package colour provides the colour model and pure colour maths used by tincture.
package colour

import (
	"fmt"
	"image/color"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Color is an 8-bit RGB colour with a real-valued alpha in [0, 1].
// Channels are always clamped on construction; use New or the Clamp helpers
// rather than building values from unchecked input.
type Color struct {
	R uint8   `json:"r"`
	G uint8   `json:"g"`
	B uint8   `json:"b"`
	A float64 `json:"a"`
}

// Common colours.
var (
	White = Color{R: 255, G: 255, B: 255, A: 1}
	Black = Color{R: 0, G: 0, B: 0, A: 1}
)

// New builds a Color from arbitrary numeric channel values, rounding and
// clamping r, g, b to [0, 255] and a to [0, 1]. NaN inputs become 0.
func New(r, g, b, a float64) Color {
	return Color{
		R: ClampChannel(r),
		G: ClampChannel(g),
		B: ClampChannel(b),
		A: ClampAlpha(a),
	}
}

// ClampChannel rounds v and clamps it to [0, 255]. NaN is treated as 0.
func ClampChannel(v float64) uint8 {
	if math.IsNaN(v) {
		return 0
	}
	v = math.Round(v)
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}

// ClampAlpha clamps v to [0, 1]. NaN is treated as 0.
func ClampAlpha(v float64) float64 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= 1 {
		return 1
	}
	return v
}

// ParseChannel coerces free-form numeric text to a channel value.
// Anything that is not a number becomes 0 before clamping.
func ParseChannel(s string) uint8 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return ClampChannel(v)
}

// ParseAlpha coerces free-form numeric text to an alpha value in [0, 1].
func ParseAlpha(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return ClampAlpha(v)
}

var hexPattern = regexp.MustCompile(`^#?([0-9a-fA-F]{2})([0-9a-fA-F]{2})([0-9a-fA-F]{2})$`)

// ParseHex parses a "#RRGGBB" or "RRGGBB" string. Alpha is set to 1; callers
// applying the result as a partial update keep their existing alpha.
func ParseHex(s string) (Color, bool) {
	m := hexPattern.FindStringSubmatch(s)
	if m == nil {
		return Color{}, false
	}
	var ch [3]uint8
	for i := range ch {
		v, err := strconv.ParseUint(m[i+1], 16, 8)
		if err != nil {
			return Color{}, false
		}
		ch[i] = uint8(v)
	}
	return Color{R: ch[0], G: ch[1], B: ch[2], A: 1}, true
}

// Hex returns the colour as six upper-case hex digits prefixed with '#'.
// Alpha is not included.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// WithRGB returns c with its RGB channels replaced by those of o, keeping c's alpha.
func (c Color) WithRGB(o Color) Color {
	c.R, c.G, c.B = o.R, o.G, o.B
	return c
}

// WithAlpha returns c with the given alpha, clamped.
func (c Color) WithAlpha(a float64) Color {
	c.A = ClampAlpha(a)
	return c
}

// SameRGB reports whether c and o have identical RGB channels.
func (c Color) SameRGB(o Color) bool {
	return c.R == o.R && c.G == o.G && c.B == o.B
}

// Alpha255 returns the alpha quantised to [0, 255].
func (c Color) Alpha255() uint8 {
	return ClampChannel(c.A * 255)
}

// String returns the colour in CSS rgba() form, alpha rounded to two decimals.
func (c Color) String() string {
	return fmt.Sprintf("rgba(%d, %d, %d, %s)", c.R, c.G, c.B,
		strconv.FormatFloat(math.Round(c.A*100)/100, 'f', -1, 64))
}

// RGBA implements color.Color with alpha-premultiplied 16-bit channels.
func (c Color) RGBA() (r, g, b, a uint32) {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.Alpha255()}.RGBA()
}

// FromNRGBA converts a non-premultiplied 8-bit pixel to a Color. Alpha is
// normalised to [0, 1] at three decimal places.
func FromNRGBA(p color.NRGBA) Color {
	return Color{
		R: p.R,
		G: p.G,
		B: p.B,
		A: math.Round(float64(p.A)/255*1000) / 1000,
	}
}
