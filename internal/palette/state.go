// Package palette holds the editable three-colour palette and the rules that
// keep Accent and Text derived from Main.
package palette

import (
	"github.com/jmylchreest/tincture/internal/colour"
)

// Palette is the set of colours being designed.
type Palette struct {
	Main   colour.Color `json:"main"`
	Accent colour.Color `json:"accent"`
	Text   colour.Color `json:"text"`
}

// DefaultPalette returns the colours a new session starts with, before derivation.
func DefaultPalette() Palette {
	return Palette{
		Main:   colour.Color{R: 30, G: 116, B: 231, A: 1},
		Accent: colour.Color{R: 200, G: 215, B: 255, A: 1},
		Text:   colour.Color{R: 30, G: 116, B: 231, A: 1},
	}
}

// Get returns the colour for a target.
func (p Palette) Get(t Target) colour.Color {
	switch t {
	case TargetAccent:
		return p.Accent
	case TargetText:
		return p.Text
	default:
		return p.Main
	}
}

func (p *Palette) set(t Target, c colour.Color) {
	switch t {
	case TargetAccent:
		p.Accent = c
	case TargetText:
		p.Text = c
	default:
		p.Main = c
	}
}

// Derive applies the sync rule to p: Accent becomes Main shifted by params,
// keeping Accent's own alpha, and Text takes Main's RGB, keeping Text's alpha.
func Derive(p Palette, params Params) Palette {
	accent := colour.AdjustHSL(p.Main, colour.Shift{
		DS: params.SaturationDeltaPct,
		DL: params.LightnessDeltaPct,
	})
	accent.A = p.Accent.A

	p.Accent = accent
	p.Text = p.Text.WithRGB(p.Main)
	return p
}

// Snapshot is an immutable view of the state passed to change listeners.
type Snapshot struct {
	Palette Palette
	Params  Params
	Active  Target
}

// ChangeFunc is called after every mutation, once derived colours are settled.
type ChangeFunc func(Snapshot)

// State owns the palette, its derivation parameters and the active eyedrop target.
// It is not safe for concurrent use; all mutations are expected to come from a
// single event loop.
type State struct {
	palette   Palette
	params    Params
	active    Target
	listeners []ChangeFunc
}

// New returns a State with default colours and parameters. Sync starts
// enabled, so Accent and Text are derived immediately.
func New() *State {
	return NewWith(DefaultPalette(), DefaultParams())
}

// NewWith returns a State with the given starting values.
func NewWith(p Palette, params Params) *State {
	s := &State{
		palette: p,
		params:  normaliseParams(params),
		active:  TargetMain,
	}
	s.mainOrParamsChanged()
	return s
}

// OnChange registers fn to be called after each mutation.
func (s *State) OnChange(fn ChangeFunc) {
	s.listeners = append(s.listeners, fn)
}

// Snapshot returns the current state.
func (s *State) Snapshot() Snapshot {
	return Snapshot{Palette: s.palette, Params: s.params, Active: s.active}
}

// Palette returns the current colours.
func (s *State) Palette() Palette { return s.palette }

// Params returns the current derivation parameters.
func (s *State) Params() Params { return s.params }

// Color returns the colour for t.
func (s *State) Color(t Target) colour.Color { return s.palette.Get(t) }

// ActiveTarget returns the colour the next eyedrop sample will overwrite.
func (s *State) ActiveTarget() Target { return s.active }

// SetActiveTarget selects the eyedrop target.
func (s *State) SetActiveTarget(t Target) {
	if t < TargetMain || t > TargetText {
		return
	}
	s.active = t
	s.notify()
}

// SetColor assigns c to t. Setting Main with sync enabled re-derives Accent and
// Text. Setting Accent or Text with sync enabled is applied as-is and will be
// replaced on the next Main or parameter change.
func (s *State) SetColor(t Target, c colour.Color) {
	c.A = colour.ClampAlpha(c.A)
	s.palette.set(t, c)
	if t == TargetMain {
		s.mainOrParamsChanged()
	}
	s.notify()
}

// SetHex sets the RGB channels of t from a hex string, keeping its alpha.
// Malformed input is ignored and reported by a false result.
func (s *State) SetHex(t Target, hex string) bool {
	rgb, ok := colour.ParseHex(hex)
	if !ok {
		return false
	}
	cur := s.palette.Get(t)
	if cur.SameRGB(rgb) {
		return true
	}
	s.SetColor(t, cur.WithRGB(rgb))
	return true
}

// SetChannel sets a single RGB channel of t, clamped to [0, 255].
func (s *State) SetChannel(t Target, ch Channel, value int) {
	v := colour.ClampChannel(float64(value))
	c := s.palette.Get(t)
	switch ch {
	case ChannelR:
		c.R = v
	case ChannelG:
		c.G = v
	case ChannelB:
		c.B = v
	default:
		return
	}
	s.SetColor(t, c)
}

// SetAlpha sets the alpha of t, clamped to [0, 1]. Alpha is never derived.
func (s *State) SetAlpha(t Target, a float64) {
	s.SetColor(t, s.palette.Get(t).WithAlpha(a))
}

// ApplySample assigns an eyedropped colour to the active target.
func (s *State) ApplySample(c colour.Color) {
	s.SetColor(s.active, c)
}

// Replace overwrites all three colours, as an import does. When sync is
// enabled the rules are enforced on the imported Main straight away.
func (s *State) Replace(p Palette) {
	s.palette = p
	s.mainOrParamsChanged()
	s.notify()
}

// SetParams merges u into the parameters, clamping each to its range. A change
// to either delta, or sync being switched on, re-derives Accent and Text.
// MinContrast never touches stored colours.
func (s *State) SetParams(u ParamsUpdate) {
	prev := s.params
	next := prev
	if u.LightnessDeltaPct != nil {
		next.LightnessDeltaPct = *u.LightnessDeltaPct
	}
	if u.SaturationDeltaPct != nil {
		next.SaturationDeltaPct = *u.SaturationDeltaPct
	}
	if u.MinContrast != nil {
		next.MinContrast = *u.MinContrast
	}
	if u.SyncEnabled != nil {
		next.SyncEnabled = *u.SyncEnabled
	}
	next = normaliseParams(next)
	s.params = next

	if next.LightnessDeltaPct != prev.LightnessDeltaPct ||
		next.SaturationDeltaPct != prev.SaturationDeltaPct ||
		(next.SyncEnabled && !prev.SyncEnabled) {
		s.mainOrParamsChanged()
	}
	s.notify()
}

// Resync restores the default deltas and re-derives Accent from Main. Text is
// realigned to Main only when sync is enabled. It works in manual mode too,
// snapping values once without turning sync on.
func (s *State) Resync() {
	s.params.LightnessDeltaPct = DefaultLightnessDeltaPct
	s.params.SaturationDeltaPct = DefaultSaturationDeltaPct

	derived := Derive(s.palette, s.params)
	s.palette.Accent = derived.Accent
	if s.params.SyncEnabled {
		s.palette.Text = derived.Text
	}
	s.notify()
}

// CurrentContrast returns the contrast ratio of Text against Main. It is
// advisory and only meaningful while sync is off.
func (s *State) CurrentContrast() float64 {
	return colour.ContrastRatio(s.palette.Text, s.palette.Main)
}

// MeetsMinContrast reports whether Text against Main reaches MinContrast.
func (s *State) MeetsMinContrast() bool {
	return s.CurrentContrast() >= s.params.MinContrast
}

// mainOrParamsChanged enforces the sync rule inside the mutating call, so no
// caller can observe Main updated but Accent or Text stale.
func (s *State) mainOrParamsChanged() {
	if !s.params.SyncEnabled {
		return
	}
	s.palette = Derive(s.palette, s.params)
}

func (s *State) notify() {
	if len(s.listeners) == 0 {
		return
	}
	snap := s.Snapshot()
	for _, fn := range s.listeners {
		fn(snap)
	}
}

func normaliseParams(p Params) Params {
	p.LightnessDeltaPct = clampRange(p.LightnessDeltaPct, MinLightnessDeltaPct, MaxLightnessDeltaPct)
	p.SaturationDeltaPct = clampRange(p.SaturationDeltaPct, MinSaturationDeltaPct, MaxSaturationDeltaPct)
	p.MinContrast = clampRange(p.MinContrast, MinMinContrast, MaxMinContrast)
	return p
}
