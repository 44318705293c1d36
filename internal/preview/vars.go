// Package preview renders a palette as theme variables, a swatch table and a
// mock dex screen drawn in the palette's colours.
package preview

import (
	"fmt"
	"strings"

	"github.com/jmylchreest/tincture/internal/colour"
	"github.com/jmylchreest/tincture/internal/palette"
)

// Edge shifts darken the outlines drawn around Main and Accent surfaces.
var (
	MainEdgeShift   = colour.Shift{DS: -10, DL: -15}
	AccentEdgeShift = colour.Shift{DS: -5, DL: -8}
)

// Theme is the full set of colours the mock UI draws with.
type Theme struct {
	Main       colour.Color
	MainEdge   colour.Color
	Accent     colour.Color
	AccentEdge colour.Color
	Text       colour.Color
}

// NewTheme expands a palette with its edge colours.
func NewTheme(p palette.Palette) Theme {
	return Theme{
		Main:       p.Main,
		MainEdge:   colour.AdjustHSL(p.Main, MainEdgeShift),
		Accent:     p.Accent,
		AccentEdge: colour.AdjustHSL(p.Accent, AccentEdgeShift),
		Text:       p.Text,
	}
}

// Var is one named theme variable.
type Var struct {
	Name  string
	Value colour.Color
}

// Vars lists the theme as CSS custom properties in a fixed order.
func (t Theme) Vars() []Var {
	return []Var{
		{Name: "--c-primary", Value: t.Main},
		{Name: "--c-primary-edge", Value: t.MainEdge},
		{Name: "--c-secondary", Value: t.Accent},
		{Name: "--c-secondary-edge", Value: t.AccentEdge},
		{Name: "--c-text", Value: t.Text},
	}
}

// CSS renders the variables as a :root rule.
func (t Theme) CSS() string {
	var b strings.Builder
	b.WriteString(":root {\n")
	for _, v := range t.Vars() {
		fmt.Fprintf(&b, "  %s: %s;\n", v.Name, v.Value)
	}
	b.WriteString("}\n")
	return b.String()
}
