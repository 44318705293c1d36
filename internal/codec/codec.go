// Package codec converts a palette to and from its exported JSON document.
//
// The exported keys are swapped relative to the internal names: "primary"
// carries the Accent colour and "secondary" carries the Main colour. Existing
// exported files depend on this mapping, so it is kept as-is.
package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmylchreest/tincture/internal/colour"
	"github.com/jmylchreest/tincture/internal/palette"
)

// ErrInvalidJSON is returned by Decode when the payload is not a JSON object.
var ErrInvalidJSON = errors.New("invalid JSON: expected keys primary, secondary, text with red/green/blue/alpha (0-255)")

// Channels is one colour in the exported document. All values are 0-255.
type Channels struct {
	Red   int `json:"red"`
	Green int `json:"green"`
	Blue  int `json:"blue"`
	Alpha int `json:"alpha"`
}

// Document is the exported palette. Field order is part of the format.
type Document struct {
	Primary   Channels `json:"primary"`
	Secondary Channels `json:"secondary"`
	Text      Channels `json:"text"`
}

// ToChannels quantises a colour for export.
func ToChannels(c colour.Color) Channels {
	return Channels{
		Red:   int(c.R),
		Green: int(c.G),
		Blue:  int(c.B),
		Alpha: int(c.Alpha255()),
	}
}

// NewDocument maps a palette onto the exported keys.
func NewDocument(p palette.Palette) Document {
	return Document{
		Primary:   ToChannels(p.Accent),
		Secondary: ToChannels(p.Main),
		Text:      ToChannels(p.Text),
	}
}

// Encode renders p as the exported JSON document with two-space indentation.
func Encode(p palette.Palette) ([]byte, error) {
	data, err := json.MarshalIndent(NewDocument(p), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode palette: %w", err)
	}
	return data, nil
}

// Decode parses an exported document and applies it over current. Keys that
// are missing, or are not objects, leave the matching colour unchanged. Within
// a colour, missing or non-numeric channels fall back to the current value.
// Only a payload that is not a JSON object is an error, and then nothing is
// applied.
func Decode(data []byte, current palette.Palette) (palette.Palette, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return current, ErrInvalidJSON
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return current, fmt.Errorf("%w: %w", ErrInvalidJSON, err)
	}

	next := current
	if raw, ok := doc["primary"]; ok {
		next.Accent = coerce(raw, current.Accent)
	}
	if raw, ok := doc["secondary"]; ok {
		next.Main = coerce(raw, current.Main)
	}
	if raw, ok := doc["text"]; ok {
		next.Text = coerce(raw, current.Text)
	}
	return next, nil
}

// coerce reads one colour object, falling back field by field.
func coerce(raw json.RawMessage, fallback colour.Color) colour.Color {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return fallback
	}

	r := number(fields, "red", float64(fallback.R))
	g := number(fields, "green", float64(fallback.G))
	b := number(fields, "blue", float64(fallback.B))
	a := number(fields, "alpha", fallback.A*255)

	return colour.Color{
		R: colour.ClampChannel(r),
		G: colour.ClampChannel(g),
		B: colour.ClampChannel(b),
		A: float64(colour.ClampChannel(a)) / 255,
	}
}

// number returns fields[key] when it is a JSON number, else def.
func number(fields map[string]json.RawMessage, key string, def float64) float64 {
	raw, ok := fields[key]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return def
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return def
	}
	return v
}
