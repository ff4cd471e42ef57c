package playlist

import (
	"log/slog"
	"slices"

	"github.com/llehouerou/tapedeck/internal/events"
	"github.com/llehouerou/tapedeck/internal/playback"
	"github.com/llehouerou/tapedeck/internal/scrubber"
	"github.com/llehouerou/tapedeck/internal/ui/element"
)

// Options configure a controller.
type Options struct {
	// AutoNext advances to the next row when a track ends.
	AutoNext bool
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{AutoNext: true}
}

// Controller renders one playlist into a container and turns row clicks
// and end-of-track events into backend calls.
type Controller struct {
	bus       *events.Bus
	backend   playback.Backend
	scrubber  *scrubber.Scrubber
	list      *Playlist
	container *element.Element
	rows      []*element.Element
	opts      Options
	log       *slog.Logger

	click    *element.Handler
	ended    *events.Listener
	rebound  *events.Listener
	failed   *events.Listener
	detached bool
}

// NewController builds one row per track, appends them to container and
// starts reacting to clicks and backend events.
func NewController(
	bus *events.Bus,
	backend playback.Backend,
	scrub *scrubber.Scrubber,
	list *Playlist,
	container *element.Element,
	opts Options,
	log *slog.Logger,
) *Controller {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	c := &Controller{
		bus:       bus,
		backend:   backend,
		scrubber:  scrub,
		list:      list,
		container: container,
		opts:      opts,
		log:       log,
	}

	tracks := list.Tracks()
	c.rows = make([]*element.Element, len(tracks))
	for i, t := range tracks {
		row := NewRow(t, i+1)
		row.SetAttr(AttrTrackID, t.ID)
		c.rows[i] = row
	}

	c.click = element.NewHandler(c.HandleClick)
	scrub.Lock()
	container.AppendChildren(c.rows...)
	container.AddHandler(element.Click, c.click)
	scrub.Unlock()

	c.ended = events.Listen(func(events.Event) { c.onEnded() })
	c.rebound = events.Listen(c.onContextChanged)
	c.failed = events.Listen(c.onError)
	_ = bus.On(c.ended, events.Ended)
	_ = bus.On(c.rebound, events.ContextElementChanged)
	_ = bus.On(c.failed, events.Error)

	log.Debug("playlist created", "tracks", len(tracks), "backend", backend.Kind())
	bus.Emit(events.PlaylistCreated, c)
	return c
}

// Playlist returns the controlled playlist.
func (c *Controller) Playlist() *Playlist { return c.list }

// Backend returns the backend driven by the controller.
func (c *Controller) Backend() playback.Backend { return c.backend }

// Container returns the element holding the rows.
func (c *Controller) Container() *element.Element { return c.container }

// Rows returns the player rows in playlist order.
func (c *Controller) Rows() []*element.Element { return slices.Clone(c.rows) }

// SwitchTrack plays the track of row. If row is already the active one,
// playback is toggled instead.
func (c *Controller) SwitchTrack(row *element.Element) {
	if row == nil {
		return
	}
	if c.isActive(row) {
		c.backend.Toggle()
		return
	}

	t, ok := c.FindTrackByElement(row)
	if !ok {
		c.log.Warn("track not found", "id", row.Attr(AttrTrackID))
		return
	}

	c.scrubber.Lock()
	for _, r := range c.rows {
		r.RemoveClass(ClassActive)
	}
	row.AddClass(ClassActive)
	c.scrubber.Unlock()

	// Only one backend plays at a time; the scrubber follows the new one.
	if prev := c.scrubber.Backend(); prev != nil && prev != c.backend {
		prev.Pause(false)
	}
	c.scrubber.SetBackend(c.backend)

	c.backend.SetSource(t)
	c.scrubber.Bind(row)
	c.backend.Play()
}

func (c *Controller) isActive(row *element.Element) bool {
	if c.scrubber.Root() != row {
		return false
	}
	c.scrubber.Lock()
	defer c.scrubber.Unlock()
	return row.HasClass(ClassActive)
}

// HandleClick switches to the row whose play button was clicked.
func (c *Controller) HandleClick(ev *element.PointerEvent) {
	if ev.Target == nil {
		return
	}
	button := ev.Target.Closest(scrubber.ClassPlayButton, ClassRow)
	if button == nil {
		return
	}
	c.SwitchTrack(button.Closest(ClassRow, ""))
	ev.StopPropagation()
}

func (c *Controller) onEnded() {
	idx := c.RowIndex(c.scrubber.Root())
	if idx < 0 || c.backend.Loop() || !c.opts.AutoNext {
		return
	}
	// On the last row the backend already rewound and paused.
	if idx < len(c.rows)-1 {
		c.SwitchTrack(c.rows[idx+1])
	}
}

func (c *Controller) onContextChanged(e events.Event) {
	change, ok := e.Data.(events.ContextChange)
	if !ok || change.Old == nil || !slices.Contains(c.rows, change.Old) {
		return
	}
	c.scrubber.Lock()
	change.Old.RemoveClass(ClassActive)
	c.scrubber.Unlock()
}

func (c *Controller) onError(e events.Event) {
	f, ok := e.Data.(events.Failure)
	if !ok {
		return
	}
	root := c.scrubber.Root()
	t, ok := c.FindTrackByElement(root)
	if !ok || t.Location != f.Source {
		return
	}
	c.log.Warn("track failed", "id", t.ID, "kind", f.Kind, "err", f.Err)
	c.scrubber.Unbind()
}

// Next switches to the row after the active one, or to the first row when
// none of this playlist's rows is active.
func (c *Controller) Next() bool {
	idx := c.RowIndex(c.scrubber.Root())
	if idx+1 >= len(c.rows) {
		return false
	}
	c.SwitchTrack(c.rows[idx+1])
	return true
}

// Previous switches to the row before the active one. On the first row it
// rewinds instead.
func (c *Controller) Previous() bool {
	idx := c.RowIndex(c.scrubber.Root())
	switch {
	case idx < 0:
		return false
	case idx == 0:
		c.backend.Seek(0)
		return true
	}
	c.SwitchTrack(c.rows[idx-1])
	return true
}

// FindTrack returns the track with id.
func (c *Controller) FindTrack(id string) (Track, bool) {
	return c.list.Track(c.TrackIndex(id))
}

// FindTrackByElement returns the track of the row containing el.
func (c *Controller) FindTrackByElement(el *element.Element) (Track, bool) {
	return c.list.Track(c.RowIndex(el))
}

// TrackIndex returns the position of the track with id, or -1.
func (c *Controller) TrackIndex(id string) int {
	if id == "" {
		return -1
	}
	return c.list.Index(id)
}

// RowIndex returns the position of the track whose row contains el, or -1.
func (c *Controller) RowIndex(el *element.Element) int {
	if el == nil {
		return -1
	}
	row := el.Closest(ClassRow, "")
	if row == nil || !slices.Contains(c.rows, row) {
		return -1
	}
	return c.TrackIndex(row.Attr(AttrTrackID))
}

// HasTrackID reports whether the playlist holds a track with id.
func (c *Controller) HasTrackID(id string) bool {
	return c.TrackIndex(id) >= 0
}

// Row returns the row of the track with id, or nil.
func (c *Controller) Row(id string) *element.Element {
	idx := c.TrackIndex(id)
	if idx < 0 {
		return nil
	}
	return c.rows[idx]
}

// Close detaches the controller from its container and the bus.
func (c *Controller) Close() {
	if c.detached {
		return
	}
	c.detached = true
	c.scrubber.Lock()
	c.container.RemoveHandler(element.Click, c.click)
	c.scrubber.Unlock()
	c.bus.Off(events.Ended, c.ended)
	c.bus.Off(events.ContextElementChanged, c.rebound)
	c.bus.Off(events.Error, c.failed)
}
