// Package dom is a small in-memory tree of styleable elements with boxes,
// class sets, and a dataset, enough to hit-test a pointer and restyle
// individual glyphs.
package dom

import (
	"fmt"
	"sort"
	"strconv"
)

// DataIndex is the dataset key holding a span's position in its block.
const DataIndex = "index"

// FontVariation holds the variable-font axes the effects animate.
type FontVariation struct {
	Width  float64 `json:"wdth"`
	Weight float64 `json:"wght"`
	Italic float64 `json:"ital"`
}

// Neutral is the baseline every span starts from and is reset to.
var Neutral = FontVariation{Width: 89, Weight: 400, Italic: 0}

// String renders v as a CSS font-variation-settings value.
func (v FontVariation) String() string {
	return fmt.Sprintf(`"wdth" %g, "wght" %g, "ital" %g`, v.Width, v.Weight, v.Italic)
}

// Box is an axis-aligned layout rectangle in viewport pixels.
type Box struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Contains reports whether (x, y) lies inside b. The right and bottom edges
// are exclusive so adjacent boxes never both claim a point.
func (b Box) Contains(x, y float64) bool {
	return x >= b.X && x < b.X+b.W && y >= b.Y && y < b.Y+b.H
}

// Center returns the middle of the box.
func (b Box) Center() (float64, float64) {
	return b.X + b.W/2, b.Y + b.H/2
}

// Element is one node of a Document.
type Element struct {
	ID   string
	Tag  string
	Text string
	Box  Box
	Font FontVariation

	classes  map[string]struct{}
	dataset  map[string]string
	parent   *Element
	children []*Element
}

func newElement(tag string) *Element {
	return &Element{
		Tag:     tag,
		Font:    Neutral,
		classes: make(map[string]struct{}),
		dataset: make(map[string]string),
	}
}

// Parent returns the parent element, or nil for the root.
func (e *Element) Parent() *Element {
	return e.parent
}

// Children returns the element's children in paint order.
func (e *Element) Children() []*Element {
	return e.children
}

// AddClass adds class to the element's class set.
func (e *Element) AddClass(class string) {
	e.classes[class] = struct{}{}
}

// RemoveClass removes class from the element's class set.
func (e *Element) RemoveClass(class string) {
	delete(e.classes, class)
}

// HasClass reports whether the element carries class.
func (e *Element) HasClass(class string) bool {
	_, ok := e.classes[class]
	return ok
}

// HasAnyClass reports whether the element carries at least one of classes.
func (e *Element) HasAnyClass(classes []string) bool {
	for _, c := range classes {
		if e.HasClass(c) {
			return true
		}
	}
	return false
}

// Classes returns the class set sorted.
func (e *Element) Classes() []string {
	out := make([]string, 0, len(e.classes))
	for c := range e.classes {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// SetData sets a dataset entry.
func (e *Element) SetData(key, value string) {
	e.dataset[key] = value
}

// Data returns a dataset entry.
func (e *Element) Data(key string) (string, bool) {
	v, ok := e.dataset[key]
	return v, ok
}

// Index returns the element's span index when one was attached at layout
// time. Index 0 is a valid index.
func (e *Element) Index() (int, bool) {
	v, ok := e.dataset[DataIndex]
	if !ok {
		return 0, false
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return i, true
}
