// Package element is the retained widget tree the player renders from.
// Elements carry classes, attributes, numeric style properties and a layout
// box measured in terminal cells.
package element

import (
	"slices"
	"strings"
)

// Rect is a layout box in cells.
type Rect struct {
	X, Y, W, H int
}

// Contains reports whether the cell (x, y) lies inside r.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// Element is a node of the widget tree.
type Element struct {
	Text string

	classes  []string
	attrs    map[string]string
	style    map[string]float64
	box      Rect
	parent   *Element
	children []*Element
	handlers map[string][]*Handler
}

// New creates an element with the given classes.
func New(classes ...string) *Element {
	return &Element{classes: classes}
}

// Parent returns the parent element, or nil for a root.
func (e *Element) Parent() *Element { return e.parent }

// Children returns the child elements.
func (e *Element) Children() []*Element { return e.children }

// AppendChild adds c as the last child of e, detaching it from any previous parent.
func (e *Element) AppendChild(c *Element) {
	e.AppendChildren(c)
}

// AppendChildren attaches all elements in a single operation.
func (e *Element) AppendChildren(cs ...*Element) {
	for _, c := range cs {
		if c.parent != nil {
			c.parent.RemoveChild(c)
		}
		c.parent = e
	}
	e.children = append(e.children, cs...)
}

// RemoveChild detaches c from e. Returns false if c is not a child of e.
func (e *Element) RemoveChild(c *Element) bool {
	i := slices.Index(e.children, c)
	if i < 0 {
		return false
	}
	e.children = slices.Delete(e.children, i, i+1)
	c.parent = nil
	return true
}

// HasClass reports whether e carries class.
func (e *Element) HasClass(class string) bool {
	return slices.Contains(e.classes, class)
}

// AddClass adds class if missing.
func (e *Element) AddClass(class string) {
	if !e.HasClass(class) {
		e.classes = append(e.classes, class)
	}
}

// RemoveClass removes class if present.
func (e *Element) RemoveClass(class string) {
	if i := slices.Index(e.classes, class); i >= 0 {
		e.classes = slices.Delete(e.classes, i, i+1)
	}
}

// ToggleClass adds or removes class.
func (e *Element) ToggleClass(class string, on bool) {
	if on {
		e.AddClass(class)
	} else {
		e.RemoveClass(class)
	}
}

// Classes returns the class list joined by spaces.
func (e *Element) Classes() string {
	return strings.Join(e.classes, " ")
}

// Attr returns an attribute value.
func (e *Element) Attr(name string) string {
	return e.attrs[name]
}

// SetAttr sets an attribute value.
func (e *Element) SetAttr(name, value string) {
	if e.attrs == nil {
		e.attrs = make(map[string]string)
	}
	e.attrs[name] = value
}

// Style returns a numeric style property (0 if unset).
func (e *Element) Style(name string) float64 {
	return e.style[name]
}

// SetStyle sets a numeric style property.
func (e *Element) SetStyle(name string, v float64) {
	if e.style == nil {
		e.style = make(map[string]float64)
	}
	e.style[name] = v
}

// Box returns the layout box.
func (e *Element) Box() Rect { return e.box }

// SetBox sets the layout box.
func (e *Element) SetBox(r Rect) { e.box = r }

// Width returns the layout width in cells.
func (e *Element) Width() int { return e.box.W }

// FindByClass returns the first descendant (depth first) carrying class.
func (e *Element) FindByClass(class string) *Element {
	for _, c := range e.children {
		if c.HasClass(class) {
			return c
		}
		if found := c.FindByClass(class); found != nil {
			return found
		}
	}
	return nil
}

// Closest walks up from e (inclusive) to the first element carrying class.
// The walk stops after an element carrying stop, if stop is not empty.
func (e *Element) Closest(class, stop string) *Element {
	for cur := e; cur != nil; cur = cur.parent {
		if cur.HasClass(class) {
			return cur
		}
		if stop != "" && cur.HasClass(stop) {
			break
		}
	}
	return nil
}

// Contains reports whether other is e or one of its descendants.
func (e *Element) Contains(other *Element) bool {
	for cur := other; cur != nil; cur = cur.parent {
		if cur == e {
			return true
		}
	}
	return false
}

// Walk visits e and its descendants depth first until fn returns false.
func (e *Element) Walk(fn func(*Element) bool) bool {
	if !fn(e) {
		return false
	}
	for _, c := range e.children {
		if !c.Walk(fn) {
			return false
		}
	}
	return true
}

// HitTest returns the deepest element whose box contains (x, y).
func (e *Element) HitTest(x, y int) *Element {
	if !e.box.Contains(x, y) {
		return nil
	}
	// Later children paint over earlier ones.
	for i := len(e.children) - 1; i >= 0; i-- {
		if hit := e.children[i].HitTest(x, y); hit != nil {
			return hit
		}
	}
	return e
}
