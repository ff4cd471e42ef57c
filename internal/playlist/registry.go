package playlist

import (
	"slices"
	"sync"

	"github.com/llehouerou/tapedeck/internal/events"
	"github.com/llehouerou/tapedeck/internal/scrubber"
)

// Registry tracks every controller created on a bus and the one holding
// the track that last started playing.
type Registry struct {
	bus      *events.Bus
	scrubber *scrubber.Scrubber

	mu        sync.Mutex
	playlists []*Controller
	active    *Controller

	created *events.Listener
	played  *events.Listener
}

// NewRegistry starts recording controllers announced on bus.
func NewRegistry(bus *events.Bus, scrub *scrubber.Scrubber) *Registry {
	r := &Registry{bus: bus, scrubber: scrub}
	r.created = events.Listen(r.onCreated)
	r.played = events.Listen(func(events.Event) { r.onPlay() })
	_ = bus.On(r.created, events.PlaylistCreated)
	_ = bus.On(r.played, events.Play)
	return r
}

func (r *Registry) onCreated(e events.Event) {
	c, ok := e.Data.(*Controller)
	if !ok {
		return
	}
	r.mu.Lock()
	if !slices.Contains(r.playlists, c) {
		r.playlists = append(r.playlists, c)
	}
	r.mu.Unlock()
}

func (r *Registry) onPlay() {
	c := r.PlaylistForTrack(r.ActiveTrackID())
	if c == nil {
		return
	}
	r.mu.Lock()
	r.active = c
	r.mu.Unlock()
}

// Playlists returns every registered controller in creation order.
func (r *Registry) Playlists() []*Controller {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.playlists)
}

// Active returns the controller of the track that last started playing,
// or nil.
func (r *Registry) Active() *Controller {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// ActiveTrackID returns the ID of the track bound to the scrubber.
func (r *Registry) ActiveTrackID() string {
	root := r.scrubber.Root()
	if root == nil {
		return ""
	}
	r.scrubber.Lock()
	defer r.scrubber.Unlock()
	return root.Attr(AttrTrackID)
}

// PlaylistForTrack returns the first controller holding a track with id.
func (r *Registry) PlaylistForTrack(id string) *Controller {
	if id == "" {
		return nil
	}
	for _, c := range r.Playlists() {
		if c.HasTrackID(id) {
			return c
		}
	}
	return nil
}

// Current returns the active controller, or the first registered one when
// nothing played yet.
func (r *Registry) Current() *Controller {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active != nil {
		return r.active
	}
	if len(r.playlists) > 0 {
		return r.playlists[0]
	}
	return nil
}

// Next moves the current playlist to its next track.
func (r *Registry) Next() bool {
	c := r.Current()
	return c != nil && c.Next()
}

// Previous moves the current playlist to its previous track.
func (r *Registry) Previous() bool {
	c := r.Current()
	return c != nil && c.Previous()
}

// Play resumes the bound track, or starts the current playlist from its
// first track when nothing is loaded.
func (r *Registry) Play() bool {
	c := r.Current()
	if c == nil {
		return false
	}
	if c.Backend().Source() == "" || r.scrubber.Root() == nil {
		return c.Next()
	}
	c.Backend().Play()
	return true
}

// Close stops recording.
func (r *Registry) Close() {
	r.bus.Off(events.PlaylistCreated, r.created)
	r.bus.Off(events.Play, r.played)
}
