package element

import "slices"

// Pointer event types.
const (
	Click       = "click"
	PointerDown = "pointerdown"
	PointerMove = "pointermove"
	PointerUp   = "pointerup"
)

// Device identifies the input source of a pointer event.
type Device int

const (
	Mouse Device = iota
	Touch
)

// Point is a position in cells.
type Point struct {
	X, Y int
}

// PointerEvent is a mouse or touch event travelling up the tree.
type PointerEvent struct {
	Type    string
	Device  Device
	X, Y    int
	Touches []Point // changed touches, for Touch events
	Target  *Element

	stopped   bool
	prevented bool
}

// Point returns the coordinates the event refers to: the mouse position,
// or the last changed touch.
func (ev *PointerEvent) Point() Point {
	if ev.Device == Touch && len(ev.Touches) > 0 {
		return ev.Touches[len(ev.Touches)-1]
	}
	return Point{X: ev.X, Y: ev.Y}
}

// StopPropagation prevents ancestors from seeing the event.
func (ev *PointerEvent) StopPropagation() { ev.stopped = true }

// PreventDefault suppresses the host's default action.
func (ev *PointerEvent) PreventDefault() { ev.prevented = true }

// Stopped reports whether propagation was stopped.
func (ev *PointerEvent) Stopped() bool { return ev.stopped }

// DefaultPrevented reports whether the default action was suppressed.
func (ev *PointerEvent) DefaultPrevented() bool { return ev.prevented }

// Handler wraps a pointer event callback. Handlers are compared by pointer.
type Handler struct {
	fn func(*PointerEvent)
}

// NewHandler creates a handler for fn.
func NewHandler(fn func(*PointerEvent)) *Handler {
	return &Handler{fn: fn}
}

// AddHandler registers h for events of type typ on e. Adding the same
// handler twice is a no-op.
func (e *Element) AddHandler(typ string, h *Handler) {
	if h == nil || h.fn == nil {
		return
	}
	if e.handlers == nil {
		e.handlers = make(map[string][]*Handler)
	}
	if slices.Contains(e.handlers[typ], h) {
		return
	}
	e.handlers[typ] = append(e.handlers[typ], h)
}

// RemoveHandler unregisters h for typ on e.
func (e *Element) RemoveHandler(typ string, h *Handler) {
	list := e.handlers[typ]
	if i := slices.Index(list, h); i >= 0 {
		e.handlers[typ] = slices.Delete(slices.Clone(list), i, i+1)
	}
}

// HasHandler reports whether h is registered for typ on e.
func (e *Element) HasHandler(typ string, h *Handler) bool {
	return slices.Contains(e.handlers[typ], h)
}

// Dispatch delivers ev to target and bubbles it up to the root, stopping
// when a handler calls StopPropagation.
func Dispatch(target *Element, ev *PointerEvent) {
	ev.Target = target
	for cur := target; cur != nil; cur = cur.parent {
		for _, h := range slices.Clone(cur.handlers[ev.Type]) {
			h.fn(ev)
		}
		if ev.stopped {
			return
		}
	}
}
