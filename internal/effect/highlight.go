package effect

import (
	"github.com/ayusman/teamfinger/internal/dom"
	"github.com/ayusman/teamfinger/internal/hittest"
)

// DefaultHighlightClass marks the highlighted element.
const DefaultHighlightClass = "highlighted"

// ClassHighlight highlights at most one element carrying a marker class.
type ClassHighlight struct {
	doc         *dom.Document
	markers     []string
	highlighted string
}

// NewClassHighlight returns a highlight engine over doc. An empty
// highlighted class uses DefaultHighlightClass.
func NewClassHighlight(doc *dom.Document, markers []string, highlighted string) *ClassHighlight {
	if highlighted == "" {
		highlighted = DefaultHighlightClass
	}
	return &ClassHighlight{
		doc:         doc,
		markers:     append([]string(nil), markers...),
		highlighted: highlighted,
	}
}

// Name implements Engine.
func (c *ClassHighlight) Name() string { return "highlight" }

// Apply implements Engine.
func (c *ClassHighlight) Apply(hit hittest.Hit, ok bool) bool {
	if !ok || hit.Element == nil {
		return false
	}
	el := hit.Element
	if el.HasAnyClass(c.markers) {
		if el.HasClass(c.highlighted) {
			return false
		}
		c.clear()
		el.AddClass(c.highlighted)
		return true
	}
	return c.clear()
}

func (c *ClassHighlight) clear() bool {
	changed := false
	for _, e := range c.doc.ElementsWithClass(c.highlighted) {
		e.RemoveClass(c.highlighted)
		changed = true
	}
	return changed
}
