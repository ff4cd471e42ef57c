// Package scrubber binds a backend's playback state to the progress
// elements of one player row and turns pointer drags on the shaft into
// seeks.
package scrubber

import (
	"log/slog"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/llehouerou/tapedeck/internal/events"
	"github.com/llehouerou/tapedeck/internal/playback"
	"github.com/llehouerou/tapedeck/internal/ui/element"
)

// Classes the scrubber looks for under the bound element.
const (
	ClassShaft        = "shaft"
	ClassPlayhead     = "playhead"
	ClassProgress     = "progress"
	ClassLoadProgress = "load-progress"
	ClassPlayButton   = "play-button"
	ClassPlaying      = "playing"
)

// Style properties and attributes written by the scrubber.
const (
	StyleLeft         = "left"          // playhead offset in cells
	StyleWidth        = "width"         // progress fill width in cells
	StyleLeftPercent  = "left-percent"  // load fill start
	StyleWidthPercent = "width-percent" // load fill length
	AttrPlayProgress  = "data-play-progress"
)

const playButtonTravel = 20

type dragState struct {
	active          bool
	originX         int
	originOffset    int
	offset          int
	resumeOnRelease bool
}

// Scrubber is the UI context handed to backends on Init. Its lock guards
// the element tree: renderers and other writers hold it while touching
// element state.
type Scrubber struct {
	bus *events.Bus
	log *slog.Logger

	mu           sync.Mutex
	backend      playback.Backend
	root         *element.Element
	shaft        *element.Element
	playhead     *element.Element
	progress     *element.Element
	loadProgress *element.Element
	playButton   *element.Element
	maxTravel    int
	offset       int
	maxProgress  float64
	drag         dragState

	listener *events.Listener
}

// New creates a scrubber reacting to events on bus.
func New(bus *events.Bus, log *slog.Logger) *Scrubber {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	s := &Scrubber{bus: bus, log: log}
	s.listener = events.Listen(s.handle)
	_ = bus.On(s.listener,
		events.Playing, events.Seek, events.LoadProgress, events.Play, events.Pause)
	return s
}

// Lock acquires the element tree lock.
func (s *Scrubber) Lock() { s.mu.Lock() }

// Unlock releases the element tree lock.
func (s *Scrubber) Unlock() { s.mu.Unlock() }

// SetBackend makes b the backend driven by drags.
func (s *Scrubber) SetBackend(b playback.Backend) {
	s.mu.Lock()
	s.backend = b
	s.mu.Unlock()
}

// Backend returns the current backend, or nil.
func (s *Scrubber) Backend() playback.Backend {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backend
}

var _ playback.Context = (*Scrubber)(nil)

// Bind attaches the scrubber to el, unbinding the previous element first.
// Binding the bound element again does nothing.
func (s *Scrubber) Bind(el *element.Element) {
	s.mu.Lock()
	if el == s.root {
		s.mu.Unlock()
		return
	}
	old := s.root
	s.unbindLocked()

	s.root = el
	if el != nil {
		s.shaft = el.FindByClass(ClassShaft)
		s.playhead = el.FindByClass(ClassPlayhead)
		s.progress = el.FindByClass(ClassProgress)
		s.loadProgress = el.FindByClass(ClassLoadProgress)
		s.playButton = el.FindByClass(ClassPlayButton)
		s.measureLocked()
		if s.backend != nil {
			el.ToggleClass(ClassPlaying, s.backend.IsPlaying())
		}
	}
	s.mu.Unlock()

	s.bus.Emit(events.ContextElementChanged, events.ContextChange{Old: old, New: el})
}

// Unbind detaches the scrubber from its element.
func (s *Scrubber) Unbind() {
	s.mu.Lock()
	old := s.root
	s.unbindLocked()
	s.mu.Unlock()

	if old != nil {
		s.bus.Emit(events.ContextElementChanged, events.ContextChange{Old: old})
	}
}

func (s *Scrubber) unbindLocked() {
	s.root = nil
	s.shaft = nil
	s.playhead = nil
	s.progress = nil
	s.loadProgress = nil
	s.playButton = nil
	s.maxTravel = 0
	s.offset = 0
	s.maxProgress = 0
	s.drag = dragState{}
}

// Root returns the bound element, or nil.
func (s *Scrubber) Root() *element.Element {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.root
}

// Relayout recomputes the playhead travel after the bound element was laid
// out again, and redraws the current position.
func (s *Scrubber) Relayout() {
	s.mu.Lock()
	if s.root == nil {
		s.mu.Unlock()
		return
	}
	s.measureLocked()
	b := s.backend
	s.mu.Unlock()

	if b != nil && !s.Dragging() {
		s.UpdateUI(b.Position(), b.Duration())
	}
}

func (s *Scrubber) measureLocked() {
	s.maxTravel = 0
	if s.shaft == nil {
		return
	}
	head := 0
	if s.playhead != nil {
		head = s.playhead.Width()
	}
	s.maxTravel = max(s.shaft.Width()-head, 0)
}

// MaxTravel returns the playhead travel in cells.
func (s *Scrubber) MaxTravel() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxTravel
}

// Offset returns the current playhead offset in cells.
func (s *Scrubber) Offset() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.offset
}

// MaxProgress returns the furthest fraction played on the bound track.
func (s *Scrubber) MaxProgress() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxProgress
}

// Dragging reports whether a drag is in progress.
func (s *Scrubber) Dragging() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drag.active
}

// UpdateUI moves the playhead and progress fill to pos. It does nothing
// while unbound or when dur is unknown.
func (s *Scrubber) UpdateUI(pos, dur time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateUILocked(pos, dur)
}

func (s *Scrubber) updateUILocked(pos, dur time.Duration) {
	if s.root == nil || dur <= 0 {
		return
	}
	f := float64(pos) / float64(dur)
	offset := int(math.Round(float64(s.maxTravel) * f))
	s.setOffsetLocked(offset)
	s.updatePlayProgressLocked(f)
}

func (s *Scrubber) setOffsetLocked(offset int) {
	offset = max(0, min(offset, s.maxTravel))
	s.offset = offset
	if s.playhead != nil {
		s.playhead.SetStyle(StyleLeft, float64(offset))
	}
	if s.progress != nil {
		s.progress.SetStyle(StyleWidth, float64(offset))
	}
}

// UpdatePlayProgress raises the played high-water mark to f.
func (s *Scrubber) UpdatePlayProgress(f float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updatePlayProgressLocked(f)
}

func (s *Scrubber) updatePlayProgressLocked(f float64) {
	if s.root == nil {
		return
	}
	s.maxProgress = max(s.maxProgress, min(f, 1))
	if s.playButton != nil {
		bg := int(math.Round(-playButtonTravel * (1 - s.maxProgress)))
		s.playButton.SetAttr(AttrPlayProgress, strconv.Itoa(bg))
	}
}

func (s *Scrubber) handle(e events.Event) {
	switch e.Type {
	case events.Playing:
		p, ok := e.Data.(events.Position)
		if !ok {
			return
		}
		s.follow(p.Position, p.Duration)
	case events.Seek:
		info, ok := e.Data.(events.SeekInfo)
		if !ok {
			return
		}
		s.follow(info.Position, info.Duration)
	case events.LoadProgress:
		p, ok := e.Data.(events.Progress)
		if !ok {
			return
		}
		s.mu.Lock()
		if s.loadProgress != nil {
			s.loadProgress.SetStyle(StyleLeftPercent, p.Start*100)
			s.loadProgress.SetStyle(StyleWidthPercent, (p.End-p.Start)*100)
		}
		s.mu.Unlock()
	case events.Play, events.Pause:
		s.mu.Lock()
		if s.root != nil {
			s.root.ToggleClass(ClassPlaying, e.Type == events.Play)
		}
		s.mu.Unlock()
	}
}

func (s *Scrubber) follow(pos, dur time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.drag.active {
		return
	}
	s.updateUILocked(pos, dur)
}

// PointerDown starts a drag when ev targets the bound shaft: playback is
// paused and the playhead snaps under the pointer.
func (s *Scrubber) PointerDown(ev *element.PointerEvent) {
	s.mu.Lock()
	if s.shaft == nil || ev.Target == nil || !s.shaft.Contains(ev.Target) {
		s.mu.Unlock()
		return
	}
	b := s.backend
	s.mu.Unlock()

	wasPlaying := b != nil && b.IsPlaying()
	if wasPlaying {
		b.Pause(false)
	}

	pt := ev.Point()
	s.mu.Lock()
	if s.shaft == nil {
		s.mu.Unlock()
		return
	}
	head := 0
	if s.playhead != nil {
		head = s.playhead.Width()
	}
	s.setOffsetLocked(pt.X - s.shaft.Box().X - head/2)
	s.drag = dragState{
		active:          true,
		originX:         pt.X,
		originOffset:    s.offset,
		offset:          s.offset,
		resumeOnRelease: wasPlaying,
	}
	d := events.Drag{Offset: s.offset, MaxTravel: s.maxTravel}
	s.mu.Unlock()

	ev.PreventDefault()
	s.bus.Emit(events.DragStart, d)
}

// PointerMove drags the playhead without seeking.
func (s *Scrubber) PointerMove(ev *element.PointerEvent) {
	s.mu.Lock()
	if !s.drag.active {
		s.mu.Unlock()
		return
	}
	s.setOffsetLocked(s.drag.originOffset + ev.Point().X - s.drag.originX)
	s.drag.offset = s.offset
	d := events.Drag{Offset: s.offset, MaxTravel: s.maxTravel}
	s.mu.Unlock()

	s.bus.Emit(events.DragMove, d)
}

// PointerUp ends a drag with a single seek to the released position and
// resumes playback if it was playing when the drag started.
func (s *Scrubber) PointerUp(*element.PointerEvent) {
	s.mu.Lock()
	drag := s.drag
	s.drag = dragState{}
	b := s.backend
	d := events.Drag{Offset: drag.offset, MaxTravel: s.maxTravel}
	s.mu.Unlock()

	if !drag.active {
		return
	}
	if b != nil {
		// Without travel the offset carries no position.
		if d.MaxTravel > 0 {
			b.SeekPercent(d.Fraction())
		}
		if drag.resumeOnRelease {
			b.Play()
		}
	}
	s.log.Debug("drag released", "offset", d.Offset, "travel", d.MaxTravel)
	s.bus.Emit(events.DragStop, d)
}

// Close stops listening on the bus.
func (s *Scrubber) Close() {
	for _, t := range []string{events.Playing, events.Seek, events.LoadProgress, events.Play, events.Pause} {
		s.bus.Off(t, s.listener)
	}
}
