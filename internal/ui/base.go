// Package ui holds the pieces shared by the terminal components.
package ui

// Base keeps the area given to a popup. Popups embed it to satisfy the
// SetSize part of popup.Popup.
type Base struct {
	width, height int
}

// SetSize sets the component dimensions.
func (b *Base) SetSize(width, height int) {
	b.width = width
	b.height = height
}

// Width returns the component width.
func (b Base) Width() int { return b.width }

// Height returns the component height.
func (b Base) Height() int { return b.height }

// Hidden reports whether no area was given yet; views render nothing then.
func (b Base) Hidden() bool {
	return b.width <= 0 || b.height <= 0
}
