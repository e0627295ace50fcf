// Package hittest resolves a screen point to the element under it.
package hittest

import (
	"math"

	"github.com/ayusman/teamfinger/internal/dom"
	"github.com/ayusman/teamfinger/internal/mapping"
)

// Hit is the result of a successful hit test.
type Hit struct {
	Element *dom.Element
	index   int
	indexed bool
}

// Index returns the span index of the hit element, if it has one.
func (h Hit) Index() (int, bool) {
	return h.index, h.indexed
}

// Block returns the element that owns the hit span, or nil when the hit
// element is not a span.
func (h Hit) Block() *dom.Element {
	if !h.indexed || h.Element == nil {
		return nil
	}
	return h.Element.Parent()
}

// Tester hit-tests points against a document.
type Tester struct {
	doc *dom.Document
}

// New returns a Tester for doc.
func New(doc *dom.Document) *Tester {
	return &Tester{doc: doc}
}

// HitTest returns the topmost element at p. It reports false when p is
// outside the viewport or not finite.
func (t *Tester) HitTest(p mapping.Point) (Hit, bool) {
	if math.IsNaN(p.X) || math.IsNaN(p.Y) {
		return Hit{}, false
	}
	el := t.doc.ElementFromPoint(p.X, p.Y)
	if el == nil {
		return Hit{}, false
	}
	h := Hit{Element: el}
	h.index, h.indexed = el.Index()
	return h, true
}
