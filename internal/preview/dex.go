package preview

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jmylchreest/tincture/internal/colour"
)

// Region is one row of the mock dex.
type Region struct {
	Name    string
	Caught  int
	Species []string
}

// Regions are the fixed rows shown in the dex.
var Regions = []Region{
	{Name: "Kanto", Caught: 9, Species: []string{"bulbasaur", "charmander", "squirtle"}},
	{Name: "Johto", Caught: 7, Species: []string{"chikorita", "cyndaquil", "totodile"}},
	{Name: "Hoenn", Caught: 11, Species: []string{"treecko", "torchic", "mudkip"}},
}

// DefaultWidth is used when the terminal width is unknown.
const DefaultWidth = 60

const minDexWidth = 36

func lg(c colour.Color) lipgloss.Color {
	return lipgloss.Color(c.Hex())
}

// Dex draws the mock dex screen: a Main header with the upper-cased title and
// one Accent card per region.
func Dex(r *lipgloss.Renderer, t Theme, title string, width int) string {
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}
	width = max(width, minDexWidth)
	inner := width - 2

	header := r.NewStyle().
		Width(inner).
		Align(lipgloss.Center).
		Bold(true).
		Foreground(lg(t.Text)).
		Background(lg(t.Main)).
		Border(lipgloss.ThickBorder()).
		BorderForeground(lg(t.MainEdge)).
		Render(fmt.Sprintf("◀  %s  ▶", strings.ToUpper(title)))

	label := r.NewStyle().Bold(true).Foreground(lg(t.Text)).Background(lg(t.Accent))
	count := r.NewStyle().Foreground(lg(t.Text)).Background(lg(t.Accent))
	sprite := r.NewStyle().
		Padding(0, 1).
		Foreground(lg(t.Text)).
		Background(lg(t.AccentEdge))
	card := r.NewStyle().
		Width(inner).
		Padding(0, 1).
		Background(lg(t.Accent)).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lg(t.AccentEdge))

	cards := make([]string, 0, len(Regions))
	for _, reg := range Regions {
		left := lipgloss.JoinVertical(lipgloss.Left,
			label.Render(reg.Name),
			count.Render(fmt.Sprintf("Caught: %d", reg.Caught)),
		)
		names := make([]string, len(reg.Species))
		for i, s := range reg.Species {
			names[i] = sprite.Render(s)
		}
		right := strings.Join(names, " ")
		cards = append(cards, card.Render(lipgloss.JoinHorizontal(lipgloss.Center, left, "  ", right)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, append([]string{header}, cards...)...)
}
