package playback

import (
	"sync"

	"github.com/llehouerou/tapedeck/internal/events"
)

const eventBufferSize = 64

// Subscription forwards bus events to a channel, for consumers that run
// their own loop such as the TUI program.
type Subscription struct {
	Events <-chan events.Event
	Done   <-chan struct{}

	bus      *events.Bus
	listener *events.Listener
	types    []string
	ch       chan events.Event
	doneCh   chan struct{}
	once     sync.Once
}

// Subscribe forwards the given event types of bus.
func Subscribe(bus *events.Bus, types ...string) *Subscription {
	s := &Subscription{
		bus:    bus,
		types:  types,
		ch:     make(chan events.Event, eventBufferSize),
		doneCh: make(chan struct{}),
	}
	s.Events = s.ch
	s.Done = s.doneCh
	s.listener = events.Listen(s.send)
	_ = bus.On(s.listener, types...)
	return s
}

// Close detaches from the bus and signals Done.
func (s *Subscription) Close() {
	s.once.Do(func() {
		for _, t := range s.types {
			for _, name := range splitNames(t) {
				s.bus.Off(name, s.listener)
			}
		}
		close(s.doneCh)
	})
}

// send never blocks the emitter; events are dropped when the buffer is full.
func (s *Subscription) send(e events.Event) {
	select {
	case <-s.doneCh:
		return
	default:
	}
	select {
	case s.ch <- e:
	default:
	}
}
