package dom

import "errors"

// ErrDuplicateID is returned when an element ID is already registered.
var ErrDuplicateID = errors.New("duplicate element id")

// Document owns an element tree whose root covers the viewport.
type Document struct {
	root *Element
	byID map[string]*Element
}

// NewDocument returns a document whose root box is width x height.
func NewDocument(width, height float64) *Document {
	root := newElement("body")
	root.Box = Box{W: width, H: height}
	return &Document{
		root: root,
		byID: make(map[string]*Element),
	}
}

// Root returns the root element.
func (d *Document) Root() *Element {
	return d.root
}

// Viewport returns the root box.
func (d *Document) Viewport() Box {
	return d.root.Box
}

// CreateElement returns a detached element.
func (d *Document) CreateElement(tag string) *Element {
	return newElement(tag)
}

// Append attaches child as the last child of parent and registers its ID.
func (d *Document) Append(parent, child *Element) error {
	if child.ID != "" {
		if _, exists := d.byID[child.ID]; exists {
			return ErrDuplicateID
		}
		d.byID[child.ID] = child
	}
	child.parent = parent
	parent.children = append(parent.children, child)
	return nil
}

// ElementByID looks up a registered element.
func (d *Document) ElementByID(id string) *Element {
	return d.byID[id]
}

// Walk visits every element in paint order (parents before children,
// earlier siblings before later ones). Returning false stops the walk.
func (d *Document) Walk(fn func(*Element) bool) {
	walk(d.root, fn)
}

func walk(e *Element, fn func(*Element) bool) bool {
	if !fn(e) {
		return false
	}
	for _, c := range e.children {
		if !walk(c, fn) {
			return false
		}
	}
	return true
}

// ElementFromPoint returns the topmost element whose box contains (x, y):
// the last one painted. Points outside the viewport return nil; points
// inside it that hit nothing else return the root.
func (d *Document) ElementFromPoint(x, y float64) *Element {
	if !d.root.Box.Contains(x, y) {
		return nil
	}
	var hit *Element
	d.Walk(func(e *Element) bool {
		if e.Box.Contains(x, y) {
			hit = e
		}
		return true
	})
	return hit
}

// ElementsWithClass returns every element carrying class, in paint order.
func (d *Document) ElementsWithClass(class string) []*Element {
	var out []*Element
	d.Walk(func(e *Element) bool {
		if e.HasClass(class) {
			out = append(out, e)
		}
		return true
	})
	return out
}
