// Package effect turns a hit-tested element into visual feedback: a
// decaying font-variation gradient around a glyph, or a single-element
// class highlight.
package effect

import (
	"fmt"

	"github.com/ayusman/teamfinger/internal/dom"
)

// CurveKind selects which font axis a curve animates.
type CurveKind string

const (
	CurveWeight CurveKind = "weight"
	CurveItalic CurveKind = "italic"
	CurveWidth  CurveKind = "width"
	CurveNone   CurveKind = "none"
)

// CurveParams configures a falloff curve. Zero Base and Amplitude pick the
// defaults for the kind.
type CurveParams struct {
	Kind      CurveKind `mapstructure:"kind" json:"kind" yaml:"kind"`
	Base      float64   `mapstructure:"base" json:"base,omitempty" yaml:"base,omitempty"`
	Amplitude float64   `mapstructure:"amplitude" json:"amplitude,omitempty" yaml:"amplitude,omitempty"`
}

var curveDefaults = map[CurveKind]CurveParams{
	CurveWeight: {Kind: CurveWeight, Base: dom.Neutral.Weight, Amplitude: 500},
	CurveItalic: {Kind: CurveItalic, Base: dom.Neutral.Italic, Amplitude: 100},
	CurveWidth:  {Kind: CurveWidth, Base: dom.Neutral.Width, Amplitude: 36},
	CurveNone:   {Kind: CurveNone},
}

// Curve maps an offset from the hit glyph to the font variation for the
// glyph at that offset. Magnitude decays as amplitude / (i/2 + 1).
type Curve struct {
	kind      CurveKind
	base      float64
	amplitude float64
}

// NewCurve validates p and fills in defaults.
func NewCurve(p CurveParams) (Curve, error) {
	def, ok := curveDefaults[p.Kind]
	if !ok {
		return Curve{}, fmt.Errorf("unknown curve kind %q", p.Kind)
	}
	if p.Kind == CurveNone {
		return Curve{kind: CurveNone}, nil
	}
	if p.Base == 0 {
		p.Base = def.Base
	}
	if p.Amplitude == 0 {
		p.Amplitude = def.Amplitude
	}
	if p.Amplitude < 0 {
		return Curve{}, fmt.Errorf("curve %s: amplitude %g must be positive", p.Kind, p.Amplitude)
	}
	return Curve{kind: p.Kind, base: p.Base, amplitude: p.Amplitude}, nil
}

// Kind returns the animated axis.
func (c Curve) Kind() CurveKind {
	return c.kind
}

// Magnitude returns the curve's offset from base at distance i.
func (c Curve) Magnitude(i int) float64 {
	if c.kind == CurveNone || i < 0 {
		return 0
	}
	return c.amplitude / (float64(i)/2 + 1)
}

// Value returns the font variation at distance i from the hit glyph.
func (c Curve) Value(i int) dom.FontVariation {
	v := dom.Neutral
	m := c.base + c.Magnitude(i)
	switch c.kind {
	case CurveWeight:
		v.Weight = m
	case CurveItalic:
		v.Italic = m
	case CurveWidth:
		v.Width = m
	}
	return v
}
