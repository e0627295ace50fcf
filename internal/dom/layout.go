package dom

import (
	"strconv"
)

// Measurer reports glyph advances for span layout.
type Measurer interface {
	Advance(s string) float64
	LineHeight() float64
}

// FixedMeasurer lays every glyph out with the same advance.
type FixedMeasurer struct {
	GlyphWidth float64
	Line       float64
}

// Advance implements Measurer.
func (m FixedMeasurer) Advance(s string) float64 {
	n := 0
	for range s {
		n++
	}
	return float64(n) * m.GlyphWidth
}

// LineHeight implements Measurer.
func (m FixedMeasurer) LineHeight() float64 {
	return m.Line
}

// SpanText replaces block's children with one span per rune of text. Each
// span gets a stable data-index, starting at 0. Spans flow left to right
// from the block origin and wrap at the block width or at a newline.
// Newline spans keep their index but have an empty box.
func (d *Document) SpanText(block *Element, text string, m Measurer) ([]*Element, error) {
	block.children = nil
	block.Text = text

	lineHeight := m.LineHeight()
	x, y := block.Box.X, block.Box.Y
	right := block.Box.X + block.Box.W

	var spans []*Element
	i := 0
	for _, r := range text {
		span := newElement("span")
		span.Text = string(r)
		span.SetData(DataIndex, strconv.Itoa(i))

		if r == '\n' {
			span.Box = Box{X: x, Y: y}
			x = block.Box.X
			y += lineHeight
		} else {
			adv := m.Advance(span.Text)
			if block.Box.W > 0 && x+adv > right && x > block.Box.X {
				x = block.Box.X
				y += lineHeight
			}
			span.Box = Box{X: x, Y: y, W: adv, H: lineHeight}
			x += adv
		}

		if err := d.Append(block, span); err != nil {
			return nil, err
		}
		spans = append(spans, span)
		i++
	}

	if h := y + lineHeight - block.Box.Y; h > block.Box.H {
		block.Box.H = h
	}
	return spans, nil
}

// Spans returns the span children of block in index order.
func Spans(block *Element) []*Element {
	var out []*Element
	for _, c := range block.children {
		if c.Tag == "span" {
			out = append(out, c)
		}
	}
	return out
}
