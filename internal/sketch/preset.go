// Package sketch describes the sketches the detection loop can run and
// builds their documents and effect engines.
package sketch

import (
	"errors"
	"fmt"
	"sort"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/mitchellh/mapstructure"

	"github.com/ayusman/teamfinger/internal/cursor"
	"github.com/ayusman/teamfinger/internal/effect"
)

// Effect kinds.
const (
	EffectGradient  = "gradient"
	EffectHighlight = "highlight"
	EffectNone      = "none"
)

// ErrUnknownPreset is returned by Lookup for names that are not built in.
var ErrUnknownPreset = errors.New("unknown preset")

// CursorVisual controls how the cursor and highlights are drawn.
type CursorVisual struct {
	Radius float64 `yaml:"radius" json:"radius"`
	Color  string  `yaml:"color" json:"color"`
	Accent string  `yaml:"accent" json:"accent"`
}

// EffectSpec selects an effect engine. Params are decoded according to
// Kind into GradientParams or HighlightParams.
type EffectSpec struct {
	Kind   string         `yaml:"kind" json:"kind"`
	Params map[string]any `yaml:"params,omitempty" json:"params,omitempty"`
}

// Preset is the configuration record for one sketch variant.
type Preset struct {
	Name           string       `yaml:"name" json:"name"`
	SmoothingAlpha float64      `yaml:"smoothing_alpha" json:"smoothing_alpha"`
	Mirror         bool         `yaml:"mirror" json:"mirror"`
	Effect         EffectSpec   `yaml:"effect" json:"effect"`
	Cursor         CursorVisual `yaml:"cursor" json:"cursor"`
}

// BlockParams is one text block of a gradient sketch.
type BlockParams struct {
	ID    string             `mapstructure:"id"`
	Text  string             `mapstructure:"text"`
	Curve effect.CurveParams `mapstructure:"curve"`
}

// GradientParams configures the gradient-typography effect.
type GradientParams struct {
	Radius          int           `mapstructure:"radius"`
	LegacyZeroIndex bool          `mapstructure:"legacy_zero_index"`
	Blocks          []BlockParams `mapstructure:"blocks"`
}

// ItemParams is one highlightable element.
type ItemParams struct {
	Label string `mapstructure:"label"`
	Class string `mapstructure:"class"`
}

// HighlightParams configures the class-highlight effect.
type HighlightParams struct {
	Markers []string     `mapstructure:"markers"`
	Class   string       `mapstructure:"class"`
	Items   []ItemParams `mapstructure:"items"`
}

func decodeParams(in map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(in)
}

// Gradient decodes the effect params for a gradient sketch, filling in the
// default blocks when none are given.
func (s EffectSpec) Gradient() (GradientParams, error) {
	var p GradientParams
	if err := decodeParams(s.Params, &p); err != nil {
		return p, fmt.Errorf("gradient params: %w", err)
	}
	if len(p.Blocks) == 0 {
		p.Blocks = DefaultBlocks()
	}
	return p, nil
}

// Highlight decodes the effect params for a highlight sketch.
func (s EffectSpec) Highlight() (HighlightParams, error) {
	var p HighlightParams
	if err := decodeParams(s.Params, &p); err != nil {
		return p, fmt.Errorf("highlight params: %w", err)
	}
	if len(p.Markers) == 0 {
		p.Markers = []string{"word", "card", "button"}
	}
	if len(p.Items) == 0 {
		p.Items = DefaultItems()
	}
	return p, nil
}

// Validate checks every field that would otherwise fail at build time.
func (p Preset) Validate() error {
	if p.Name == "" {
		return errors.New("preset name is required")
	}
	if _, err := cursor.NewSmoother(p.SmoothingAlpha); err != nil {
		return fmt.Errorf("preset %s: %w", p.Name, err)
	}
	for _, c := range []string{p.Cursor.Color, p.Cursor.Accent} {
		if _, err := colorful.Hex(c); err != nil {
			return fmt.Errorf("preset %s: colour %q: %w", p.Name, c, err)
		}
	}
	switch p.Effect.Kind {
	case EffectGradient:
		g, err := p.Effect.Gradient()
		if err != nil {
			return err
		}
		for _, b := range g.Blocks {
			if _, err := effect.NewCurve(b.Curve); err != nil {
				return fmt.Errorf("block %s: %w", b.ID, err)
			}
		}
	case EffectHighlight:
		if _, err := p.Effect.Highlight(); err != nil {
			return err
		}
	case EffectNone:
	default:
		return fmt.Errorf("preset %s: unknown effect %q", p.Name, p.Effect.Kind)
	}
	return nil
}

// DefaultCursor is the teal cursor used by the gradient sketch.
func DefaultCursor() CursorVisual {
	return CursorVisual{Radius: 10, Color: "#32EEDB", Accent: "#FF4F7B"}
}

var builtins = map[string]Preset{
	"gradient": {
		Name:           "gradient",
		SmoothingAlpha: cursor.DefaultAlpha,
		Mirror:         true,
		Effect:         EffectSpec{Kind: EffectGradient},
		Cursor:         DefaultCursor(),
	},
	"highlight": {
		Name:           "highlight",
		SmoothingAlpha: cursor.DefaultAlpha,
		Mirror:         true,
		Effect:         EffectSpec{Kind: EffectHighlight},
		Cursor:         CursorVisual{Radius: 14, Color: "#FFD23F", Accent: "#FFD23F"},
	},
	"pointer": {
		Name:           "pointer",
		SmoothingAlpha: 1,
		Mirror:         true,
		Effect:         EffectSpec{Kind: EffectNone},
		Cursor:         CursorVisual{Radius: 5, Color: "#00FFFF", Accent: "#00FFFF"},
	},
}

// Lookup returns a built-in preset by name.
func Lookup(name string) (Preset, error) {
	p, ok := builtins[name]
	if !ok {
		return Preset{}, fmt.Errorf("%w: %s", ErrUnknownPreset, name)
	}
	return p, nil
}

// Builtins returns the built-in preset names, sorted.
func Builtins() []string {
	names := make([]string, 0, len(builtins))
	for n := range builtins {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
