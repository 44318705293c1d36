package preview

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/jmylchreest/tincture/internal/colour"
	"github.com/jmylchreest/tincture/internal/palette"
)

// Options controls Render.
type Options struct {
	Title    string
	Width    int
	Renderer *lipgloss.Renderer
}

// ContrastAdvice describes Text against Main. With sync on, Text is Main's
// colour and no ratio is shown.
func ContrastAdvice(snap palette.Snapshot) string {
	if snap.Params.SyncEnabled {
		return fmt.Sprintf("Using %s for Text.", palette.TargetMain.Label())
	}
	ratio := colour.ContrastRatio(snap.Palette.Text, snap.Palette.Main)
	advice := fmt.Sprintf("Current contrast vs Main: %.2f:1", ratio)
	if ratio < snap.Params.MinContrast {
		advice += fmt.Sprintf(" (below %.1f:1)", snap.Params.MinContrast)
	}
	return advice
}

// Swatches lists each palette colour with its hex and rgba forms.
func Swatches(r *lipgloss.Renderer, snap palette.Snapshot) string {
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}

	tbl := NewTable("", "Colour", "Hex", "RGBA")
	for _, target := range palette.Targets() {
		c := snap.Palette.Get(target)
		chip := r.NewStyle().Background(lg(c)).Render("    ")
		name := target.Label()
		if target == snap.Active {
			name += " *"
		}
		tbl.AddRow(chip, name, c.Hex(), c.String())
	}

	var b strings.Builder
	b.WriteString(tbl.Render())
	b.WriteString("\n")
	fmt.Fprintf(&b, "Accent: lightness %+g%%, saturation %+g%%; sync %s\n",
		snap.Params.LightnessDeltaPct, snap.Params.SaturationDeltaPct, onOff(snap.Params.SyncEnabled))
	b.WriteString(ContrastAdvice(snap))
	b.WriteString("\n")
	return b.String()
}

// Render combines the dex screen, swatch table and theme variables.
func Render(snap palette.Snapshot, opts Options) string {
	width := opts.Width
	if width <= 0 {
		width = DefaultWidth
	}
	theme := NewTheme(snap.Palette)

	var b strings.Builder
	b.WriteString(Dex(opts.Renderer, theme, opts.Title, width))
	b.WriteString("\n\n")
	b.WriteString(Swatches(opts.Renderer, snap))
	b.WriteString("\n")
	b.WriteString(theme.CSS())
	return b.String()
}

// TerminalWidth returns f's column count when it is a terminal, capped at
// limit, or fallback otherwise.
func TerminalWidth(f *os.File, fallback, limit int) int {
	if f == nil {
		return fallback
	}
	fd := int(f.Fd()) // #nosec G115 - File descriptors fit in int
	if !term.IsTerminal(fd) {
		return fallback
	}
	w, _, err := term.GetSize(fd)
	if err != nil || w <= 0 {
		return fallback
	}
	if limit > 0 && w > limit {
		return limit
	}
	return w
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
