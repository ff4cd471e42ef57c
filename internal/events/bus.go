// Package events provides the named-event bus that decouples media backends
// from the components rendering their state.
package events

import (
	"errors"
	"strings"
	"sync"
)

// ErrNilListener is returned when registering a listener without a function.
var ErrNilListener = errors.New("events: listener is nil")

// Event is passed to listeners on dispatch.
type Event struct {
	Type   string
	Target *Bus
	Data   any
}

// Listener wraps a handler function. Listeners are compared by pointer,
// so registering the same *Listener twice for a type is a no-op.
type Listener struct {
	fn func(Event)
}

// Listen creates a listener for fn.
func Listen(fn func(Event)) *Listener {
	return &Listener{fn: fn}
}

type entry struct {
	l       *Listener
	once    bool
	claimed bool
}

// Bus is a synchronous pub/sub dispatcher. It is safe for concurrent use;
// listeners run on the emitting goroutine, outside of the bus lock.
type Bus struct {
	mu    sync.Mutex
	chain map[string][]*entry
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{chain: make(map[string][]*entry)}
}

// On registers l for every given event type. Each argument may hold several
// space-separated names.
func (b *Bus) On(l *Listener, types ...string) error {
	return b.add(l, false, types)
}

// Once registers l to run on the next dispatch of each type only.
func (b *Bus) Once(l *Listener, types ...string) error {
	return b.add(l, true, types)
}

func (b *Bus) add(l *Listener, once bool, types []string) error {
	if l == nil || l.fn == nil {
		return ErrNilListener
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, t := range splitTypes(types) {
		if b.indexLocked(t, l) >= 0 {
			continue
		}
		b.chain[t] = append(b.chain[t], &entry{l: l, once: once})
	}
	return nil
}

// Has reports whether l is registered for t. With a nil listener it reports
// whether t has any listener at all.
func (b *Bus) Has(t string, l *Listener) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if l == nil {
		return len(b.chain[t]) > 0
	}
	return b.indexLocked(t, l) >= 0
}

// Off removes l from t, or every listener of t when l is nil.
// Returns false if t had no listeners.
func (b *Bus) Off(t string, l *Listener) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	list := b.chain[t]
	if len(list) == 0 {
		return false
	}
	if l == nil {
		delete(b.chain, t)
		return true
	}
	if i := b.indexLocked(t, l); i >= 0 {
		b.removeLocked(t, i)
	}
	return true
}

// Emit dispatches an event of type t to its listeners in registration order.
// Returns false if nobody listens to t.
func (b *Bus) Emit(t string, data any) bool {
	b.mu.Lock()
	list := b.chain[t]
	if len(list) == 0 {
		b.mu.Unlock()
		return false
	}
	snapshot := make([]*entry, 0, len(list))
	for _, e := range list {
		if e.once {
			if e.claimed {
				continue
			}
			e.claimed = true
		}
		snapshot = append(snapshot, e)
	}
	b.mu.Unlock()

	evt := Event{Type: t, Target: b, Data: data}
	for _, e := range snapshot {
		e.l.fn(evt)
	}

	// Once-listeners go away after the full pass.
	b.mu.Lock()
	for _, e := range snapshot {
		if !e.once {
			continue
		}
		for i, cur := range b.chain[t] {
			if cur == e {
				b.removeLocked(t, i)
				break
			}
		}
	}
	b.mu.Unlock()

	return true
}

// indexLocked finds l in the chain of t. Once-entries already claimed by
// a dispatch in progress no longer count as registered.
func (b *Bus) indexLocked(t string, l *Listener) int {
	for i, e := range b.chain[t] {
		if e.l == l && !e.claimed {
			return i
		}
	}
	return -1
}

func (b *Bus) removeLocked(t string, i int) {
	list := b.chain[t]
	next := make([]*entry, 0, len(list)-1)
	next = append(next, list[:i]...)
	next = append(next, list[i+1:]...)
	if len(next) == 0 {
		delete(b.chain, t)
		return
	}
	b.chain[t] = next
}

func splitTypes(types []string) []string {
	var out []string
	for _, t := range types {
		out = append(out, strings.Fields(t)...)
	}
	return out
}
