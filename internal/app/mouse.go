// internal/app/mouse.go
package app

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/llehouerou/tapedeck/internal/ui/element"
)

const wheelStep = 3

// handleMouse turns terminal mouse input into pointer events on the element
// tree. Presses on a shaft start a drag; a release over the pressed element
// is a click.
func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.Popup != nil {
		return m, nil
	}

	switch msg.Button { //nolint:exhaustive // wheel and left button only
	case tea.MouseButtonWheelUp:
		m.Cursor.Move(-wheelStep, selectable(m.Lines), m.listHeight())
		m.layout(false)
		return m, nil
	case tea.MouseButtonWheelDown:
		m.Cursor.Move(wheelStep, selectable(m.Lines), m.listHeight())
		m.layout(false)
		return m, nil
	}

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return m, nil
		}
		return m.pointerDown(msg.X, msg.Y)
	case tea.MouseActionMotion:
		if m.scrub.Dragging() {
			m.scrub.PointerMove(pointer(element.PointerMove, msg.X, msg.Y, nil))
		}
		return m, nil
	case tea.MouseActionRelease:
		return m.pointerUp(msg.X, msg.Y)
	}
	return m, nil
}

func (m Model) pointerDown(x, y int) (tea.Model, tea.Cmd) {
	target := m.hitTest(x, y)
	m.press = nil
	if target == nil {
		return m, nil
	}

	ev := pointer(element.PointerDown, x, y, target)
	m.scrub.PointerDown(ev)
	if ev.DefaultPrevented() {
		return m, TickCmd(true)
	}

	m.press = target
	m.moveCursorTo(target)
	return m, nil
}

func (m Model) pointerUp(x, y int) (tea.Model, tea.Cmd) {
	if m.scrub.Dragging() {
		m.scrub.PointerUp(pointer(element.PointerUp, x, y, nil))
		m.press = nil
		return m, nil
	}

	press := m.press
	m.press = nil
	if press == nil {
		return m, nil
	}
	if target := m.hitTest(x, y); target == press {
		element.Dispatch(target, pointer(element.Click, x, y, target))
	}
	return m, nil
}

// hitTest finds the deepest element at x, y. It must not run with the
// scrubber locked.
func (m Model) hitTest(x, y int) *element.Element {
	m.scrub.Lock()
	defer m.scrub.Unlock()
	return m.root.HitTest(x, y)
}

// moveCursorTo puts the cursor on the line of the row holding el.
func (m *Model) moveCursorTo(el *element.Element) {
	for i, line := range m.Lines {
		if line.Row != nil && line.Row.Contains(el) {
			m.Cursor.Jump(i, selectable(m.Lines), m.listHeight())
			return
		}
	}
}

func pointer(typ string, x, y int, target *element.Element) *element.PointerEvent {
	return &element.PointerEvent{Type: typ, Device: element.Mouse, X: x, Y: y, Target: target}
}
