package effect

import (
	"github.com/ayusman/teamfinger/internal/dom"
	"github.com/ayusman/teamfinger/internal/hittest"
)

// DefaultRadius is the number of glyphs on each side (including the hit
// glyph) that receive a curve value.
const DefaultRadius = 9

type gradientBlock struct {
	el    *dom.Element
	spans []*dom.Element
	curve Curve
}

// GradientTypography restyles the glyphs around a hit span with the curve
// registered for the span's block.
type GradientTypography struct {
	radius int

	// LegacyZeroIndex ignores hits on index 0, as the first version of the
	// sketch did.
	LegacyZeroIndex bool

	blocks  []*gradientBlock
	byBlock map[*dom.Element]*gradientBlock
}

// NewGradientTypography returns an engine with the given radius. A
// non-positive radius uses DefaultRadius.
func NewGradientTypography(radius int) *GradientTypography {
	if radius <= 0 {
		radius = DefaultRadius
	}
	return &GradientTypography{
		radius:  radius,
		byBlock: make(map[*dom.Element]*gradientBlock),
	}
}

// Name implements Engine.
func (g *GradientTypography) Name() string { return "gradient" }

// Radius returns the falloff radius.
func (g *GradientTypography) Radius() int { return g.radius }

// AddBlock registers a laid-out text block and the curve used when one of
// its spans is hit. Its spans are reset to neutral on every applied hit.
func (g *GradientTypography) AddBlock(block *dom.Element, c Curve) {
	b := &gradientBlock{el: block, spans: dom.Spans(block), curve: c}
	if old, ok := g.byBlock[block]; ok {
		*old = *b
		return
	}
	g.blocks = append(g.blocks, b)
	g.byBlock[block] = b
}

// Apply implements Engine.
func (g *GradientTypography) Apply(hit hittest.Hit, ok bool) bool {
	if !ok {
		return false
	}
	k, indexed := hit.Index()
	if !indexed || (k == 0 && g.LegacyZeroIndex) {
		return false
	}
	target, registered := g.byBlock[hit.Block()]
	if !registered {
		return false
	}

	for _, b := range g.blocks {
		for _, s := range b.spans {
			s.Font = dom.Neutral
		}
	}

	n := len(target.spans)
	for i := 0; i < g.radius; i++ {
		v := target.curve.Value(i)
		if j := k + i; j >= 0 && j < n {
			target.spans[j].Font = v
		}
		if j := k - i; j >= 0 && j < n {
			target.spans[j].Font = v
		}
	}
	return true
}
