package colour

import (
	"image/color"
	"math"
	"testing"
)

func TestClampChannel(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want uint8
	}{
		{name: "zero", in: 0, want: 0},
		{name: "in range", in: 128, want: 128},
		{name: "rounds up", in: 12.5, want: 13},
		{name: "rounds down", in: 12.4, want: 12},
		{name: "negative", in: -20, want: 0},
		{name: "too large", in: 300, want: 255},
		{name: "NaN", in: math.NaN(), want: 0},
		{name: "positive infinity", in: math.Inf(1), want: 255},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClampChannel(tt.in); got != tt.want {
				t.Errorf("ClampChannel(%v) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestClampAlpha(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{in: 0.5, want: 0.5},
		{in: -1, want: 0},
		{in: 2, want: 1},
		{in: math.NaN(), want: 0},
	}

	for _, tt := range tests {
		if got := ClampAlpha(tt.in); got != tt.want {
			t.Errorf("ClampAlpha(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseChannel(t *testing.T) {
	tests := []struct {
		in   string
		want uint8
	}{
		{in: "42", want: 42},
		{in: " 200 ", want: 200},
		{in: "12.6", want: 13},
		{in: "abc", want: 0},
		{in: "", want: 0},
		{in: "999", want: 255},
		{in: "-5", want: 0},
	}

	for _, tt := range tests {
		if got := ParseChannel(tt.in); got != tt.want {
			t.Errorf("ParseChannel(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestParseHex(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		want   Color
		wantOK bool
	}{
		{name: "with hash", in: "#1E74E7", want: Color{R: 30, G: 116, B: 231, A: 1}, wantOK: true},
		{name: "without hash", in: "1e74e7", want: Color{R: 30, G: 116, B: 231, A: 1}, wantOK: true},
		{name: "white", in: "#ffffff", want: White, wantOK: true},
		{name: "short form rejected", in: "#fff", wantOK: false},
		{name: "too long", in: "#1E74E7FF", wantOK: false},
		{name: "not hex", in: "#GGGGGG", wantOK: false},
		{name: "empty", in: "", wantOK: false},
		{name: "double hash", in: "##1E74E7", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseHex(tt.in)
			if ok != tt.wantOK {
				t.Fatalf("ParseHex(%q) ok = %v, want %v", tt.in, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("ParseHex(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestHex(t *testing.T) {
	tests := []struct {
		c    Color
		want string
	}{
		{c: Color{R: 30, G: 116, B: 231, A: 1}, want: "#1E74E7"},
		{c: Color{R: 0, G: 0, B: 0, A: 0}, want: "#000000"},
		{c: Color{R: 255, G: 10, B: 171, A: 0.5}, want: "#FF0AAB"},
	}

	for _, tt := range tests {
		if got := tt.c.Hex(); got != tt.want {
			t.Errorf("Hex() = %q, want %q", got, tt.want)
		}
	}
}

func TestHexRoundTrip(t *testing.T) {
	c := Color{R: 200, G: 215, B: 255, A: 0.4}
	got, ok := ParseHex(c.Hex())
	if !ok {
		t.Fatalf("ParseHex(%q) failed", c.Hex())
	}
	if !got.SameRGB(c) {
		t.Errorf("round trip = %+v, want RGB of %+v", got, c)
	}
}

func TestString(t *testing.T) {
	tests := []struct {
		c    Color
		want string
	}{
		{c: Color{R: 30, G: 116, B: 231, A: 1}, want: "rgba(30, 116, 231, 1)"},
		{c: Color{R: 1, G: 2, B: 3, A: 0.456}, want: "rgba(1, 2, 3, 0.46)"},
		{c: Color{R: 1, G: 2, B: 3, A: 0}, want: "rgba(1, 2, 3, 0)"},
	}

	for _, tt := range tests {
		if got := tt.c.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestFromNRGBA(t *testing.T) {
	got := FromNRGBA(color.NRGBA{R: 10, G: 20, B: 30, A: 128})
	want := Color{R: 10, G: 20, B: 30, A: 0.502}
	if got != want {
		t.Errorf("FromNRGBA() = %+v, want %+v", got, want)
	}
}

func TestColorImplementsColor(t *testing.T) {
	var c color.Color = Color{R: 255, G: 0, B: 0, A: 1}
	r, g, b, a := c.RGBA()
	if r != 0xffff || g != 0 || b != 0 || a != 0xffff {
		t.Errorf("RGBA() = (%d, %d, %d, %d), want opaque red", r, g, b, a)
	}
}
