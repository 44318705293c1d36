package palette

import (
	"fmt"
	"math"
	"strings"
)

// Derivation parameter defaults and ranges.
const (
	DefaultLightnessDeltaPct  = 22.0
	DefaultSaturationDeltaPct = -12.0
	DefaultMinContrast        = 4.5

	MinLightnessDeltaPct  = -40.0
	MaxLightnessDeltaPct  = 60.0
	MinSaturationDeltaPct = -50.0
	MaxSaturationDeltaPct = 50.0
	MinMinContrast        = 3.0
	MaxMinContrast        = 14.0
)

// Params controls how Accent and Text are derived from Main.
type Params struct {
	// LightnessDeltaPct is added to Main's HSL lightness to form Accent.
	LightnessDeltaPct float64 `json:"lightnessDeltaPct"`
	// SaturationDeltaPct is added to Main's HSL saturation to form Accent.
	SaturationDeltaPct float64 `json:"saturationDeltaPct"`
	// MinContrast is the advisory Text-vs-Main ratio shown in manual mode.
	MinContrast float64 `json:"minContrast"`
	// SyncEnabled keeps Accent and Text continuously derived from Main.
	SyncEnabled bool `json:"syncEnabled"`
}

// DefaultParams returns the session start parameters.
func DefaultParams() Params {
	return Params{
		LightnessDeltaPct:  DefaultLightnessDeltaPct,
		SaturationDeltaPct: DefaultSaturationDeltaPct,
		MinContrast:        DefaultMinContrast,
		SyncEnabled:        true,
	}
}

// ParamsUpdate is a partial Params. Nil fields are left unchanged.
type ParamsUpdate struct {
	LightnessDeltaPct  *float64
	SaturationDeltaPct *float64
	MinContrast        *float64
	SyncEnabled        *bool
}

// Float returns a pointer to v, for building a ParamsUpdate.
func Float(v float64) *float64 { return &v }

// Bool returns a pointer to v, for building a ParamsUpdate.
func Bool(v bool) *bool { return &v }

// clampRange clamps v into [lo, hi]; NaN is treated as 0 first.
func clampRange(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		v = 0
	}
	return math.Max(lo, math.Min(hi, v))
}

// Target identifies one of the three palette colours.
type Target int

const (
	// TargetMain is the base colour.
	TargetMain Target = iota
	// TargetAccent is the derived or manually set accent.
	TargetAccent
	// TargetText is the label colour.
	TargetText
)

// Targets lists all targets in display order.
func Targets() []Target {
	return []Target{TargetMain, TargetAccent, TargetText}
}

// String returns the target's short name.
func (t Target) String() string {
	switch t {
	case TargetMain:
		return "main"
	case TargetAccent:
		return "accent"
	case TargetText:
		return "text"
	default:
		return fmt.Sprintf("Target(%d)", int(t))
	}
}

// Label returns the human-readable colour name.
func (t Target) Label() string {
	switch t {
	case TargetMain:
		return "Main Colour"
	case TargetAccent:
		return "Accent Colour"
	case TargetText:
		return "Text Colour"
	default:
		return t.String()
	}
}

// ParseTarget parses a target name. "primary" and "secondary" are accepted
// as aliases for main and accent.
func ParseTarget(s string) (Target, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "main", "primary":
		return TargetMain, nil
	case "accent", "secondary":
		return TargetAccent, nil
	case "text":
		return TargetText, nil
	default:
		return 0, fmt.Errorf("unknown target: %q (valid: main, accent, text)", s)
	}
}

// Channel is one of the RGB channels of a colour.
type Channel byte

// Channels.
const (
	ChannelR Channel = 'r'
	ChannelG Channel = 'g'
	ChannelB Channel = 'b'
)

// ParseChannel parses "r", "g" or "b" (case-insensitive, long names allowed).
func ParseChannel(s string) (Channel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "r", "red":
		return ChannelR, nil
	case "g", "green":
		return ChannelG, nil
	case "b", "blue":
		return ChannelB, nil
	default:
		return 0, fmt.Errorf("unknown channel: %q (valid: r, g, b)", s)
	}
}
