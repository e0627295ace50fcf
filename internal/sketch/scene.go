package sketch

import (
	"fmt"

	"github.com/ayusman/teamfinger/internal/dom"
	"github.com/ayusman/teamfinger/internal/effect"
)

// Layout constants, in viewport pixels.
const (
	Margin    = 40
	BlockGap  = 32
	ItemGap   = 16
	ItemPadX  = 18
	ItemPadY  = 12
	ItemLines = 1
)

// Scene is a laid-out document with the engine that animates it.
type Scene struct {
	Preset Preset
	Doc    *dom.Document
	Engine effect.Engine
}

// Build lays out the document for p inside a width x height viewport.
func Build(p Preset, width, height float64, m dom.Measurer) (*Scene, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	doc := dom.NewDocument(width, height)
	s := &Scene{Preset: p, Doc: doc}

	var err error
	switch p.Effect.Kind {
	case EffectGradient:
		s.Engine, err = buildGradient(doc, p.Effect, m)
	case EffectHighlight:
		s.Engine, err = buildHighlight(doc, p.Effect, m)
	default:
		s.Engine = effect.None{}
	}
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", p.Name, err)
	}
	return s, nil
}

func buildGradient(doc *dom.Document, spec EffectSpec, m dom.Measurer) (effect.Engine, error) {
	params, err := spec.Gradient()
	if err != nil {
		return nil, err
	}
	g := effect.NewGradientTypography(params.Radius)
	g.LegacyZeroIndex = params.LegacyZeroIndex

	view := doc.Viewport()
	y := float64(Margin)
	for _, b := range params.Blocks {
		curve, err := effect.NewCurve(b.Curve)
		if err != nil {
			return nil, fmt.Errorf("block %s: %w", b.ID, err)
		}
		block := doc.CreateElement("p")
		block.ID = b.ID
		block.Box = dom.Box{X: Margin, Y: y, W: view.W - 2*Margin}
		if err := doc.Append(doc.Root(), block); err != nil {
			return nil, fmt.Errorf("block %s: %w", b.ID, err)
		}
		if _, err := doc.SpanText(block, b.Text, m); err != nil {
			return nil, err
		}
		g.AddBlock(block, curve)
		y += block.Box.H + BlockGap
	}
	return g, nil
}

func buildHighlight(doc *dom.Document, spec EffectSpec, m dom.Measurer) (effect.Engine, error) {
	params, err := spec.Highlight()
	if err != nil {
		return nil, err
	}

	view := doc.Viewport()
	container := doc.CreateElement("div")
	container.ID = "items"
	container.Box = dom.Box{X: Margin, Y: Margin, W: view.W - 2*Margin}
	if err := doc.Append(doc.Root(), container); err != nil {
		return nil, err
	}

	x, y := container.Box.X, container.Box.Y
	right := container.Box.X + container.Box.W
	rowH := m.LineHeight()*ItemLines + 2*ItemPadY
	for i, it := range params.Items {
		w := m.Advance(it.Label) + 2*ItemPadX
		if x+w > right && x > container.Box.X {
			x = container.Box.X
			y += rowH + ItemGap
		}
		el := doc.CreateElement("div")
		el.ID = fmt.Sprintf("item-%d", i)
		el.Text = it.Label
		el.Box = dom.Box{X: x, Y: y, W: w, H: rowH}
		if it.Class != "" {
			el.AddClass(it.Class)
		}
		if err := doc.Append(container, el); err != nil {
			return nil, err
		}
		x += w + ItemGap
	}
	container.Box.H = y + rowH - container.Box.Y

	return effect.NewClassHighlight(doc, params.Markers, params.Class), nil
}
