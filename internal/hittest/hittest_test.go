package hittest

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/teamfinger/internal/dom"
	"github.com/ayusman/teamfinger/internal/mapping"
)

func setup(t *testing.T) (*dom.Document, []*dom.Element) {
	t.Helper()
	d := dom.NewDocument(200, 100)
	block := d.CreateElement("p")
	block.ID = "text"
	block.Box = dom.Box{W: 200}
	require.NoError(t, d.Append(d.Root(), block))
	spans, err := d.SpanText(block, "AB", dom.FixedMeasurer{GlyphWidth: 10, Line: 20})
	require.NoError(t, err)
	return d, spans
}

func TestHitTest(t *testing.T) {
	d, spans := setup(t)
	tester := New(d)

	t.Run("index zero is a real index", func(t *testing.T) {
		hit, ok := tester.HitTest(mapping.Point{X: 5, Y: 5})
		require.True(t, ok)
		assert.Same(t, spans[0], hit.Element)

		idx, ok := hit.Index()
		assert.True(t, ok)
		assert.Equal(t, 0, idx)
		assert.Same(t, d.ElementByID("text"), hit.Block())
	})

	t.Run("second span", func(t *testing.T) {
		hit, ok := tester.HitTest(mapping.Point{X: 15, Y: 5})
		require.True(t, ok)
		idx, ok := hit.Index()
		assert.True(t, ok)
		assert.Equal(t, 1, idx)
	})

	t.Run("element without index", func(t *testing.T) {
		hit, ok := tester.HitTest(mapping.Point{X: 150, Y: 50})
		require.True(t, ok)
		assert.Same(t, d.Root(), hit.Element)
		_, indexed := hit.Index()
		assert.False(t, indexed)
		assert.Nil(t, hit.Block())
	})

	t.Run("outside viewport", func(t *testing.T) {
		for _, p := range []mapping.Point{
			{X: -5, Y: 5},
			{X: 5, Y: 500},
			{X: math.NaN(), Y: 5},
			{X: math.Inf(1), Y: 5},
		} {
			_, ok := tester.HitTest(p)
			assert.False(t, ok, "point %v", p)
		}
	})
}
