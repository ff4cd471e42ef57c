// internal/app/app.go
package app

import (
	"context"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/llehouerou/tapedeck/internal/events"
	"github.com/llehouerou/tapedeck/internal/keymap"
	"github.com/llehouerou/tapedeck/internal/playback"
	"github.com/llehouerou/tapedeck/internal/playlist"
	"github.com/llehouerou/tapedeck/internal/scrubber"
	"github.com/llehouerou/tapedeck/internal/state"
	"github.com/llehouerou/tapedeck/internal/ui"
	"github.com/llehouerou/tapedeck/internal/ui/cursor"
	"github.com/llehouerou/tapedeck/internal/ui/element"
	"github.com/llehouerou/tapedeck/internal/ui/helpbindings"
	"github.com/llehouerou/tapedeck/internal/ui/popup"
	"github.com/llehouerou/tapedeck/internal/ui/textinput"
)

// Opener loads a playlist or music folder at runtime.
type Opener interface {
	Open(ctx context.Context, location string) (*playlist.Controller, error)
}

// Options holds what the TUI drives. Every component shares Bus.
type Options struct {
	Bus      *events.Bus
	Scrubber *scrubber.Scrubber
	Registry *playlist.Registry
	Backends []playback.Backend
	Root     *element.Element
	Opener   Opener        // nil disables the open prompt
	State    state.Interface // nil disables settings persistence
	Log      *slog.Logger
}

// Model is the root application model.
type Model struct {
	bus      *events.Bus
	scrub    *scrubber.Scrubber
	registry *playlist.Registry
	backends []playback.Backend
	root     *element.Element
	opener   Opener
	store    state.Interface
	log      *slog.Logger

	sub      *playback.Subscription
	keys     *keymap.Resolver
	Cursor   cursor.Cursor
	Lines    []Line
	Popup    popup.Popup
	Help     *helpbindings.Model
	Input    *textinput.Model
	press    *element.Element
	Status   string
	StatusOK bool
	version  int // status messages
	Width    int
	Height   int
}

// Line is one line of the playlist view: a playlist header when Row is nil.
type Line struct {
	Playlist *playlist.Controller
	Row      *element.Element
}

// New creates the application model and subscribes to the bus.
func New(opts Options) Model {
	log := opts.Log
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	keys := keymap.NewResolver(keymap.Bindings)
	help := helpbindings.New(keymap.Bindings, keys)
	input := textinput.New()

	return Model{
		bus:      opts.Bus,
		scrub:    opts.Scrubber,
		registry: opts.Registry,
		backends: opts.Backends,
		root:     opts.Root,
		opener:   opts.Opener,
		store:    opts.State,
		log:      log,
		sub:      playback.Subscribe(opts.Bus, watchedEvents...),
		keys:     keys,
		Cursor:   cursor.New(ui.ScrollMargin),
		Help:     &help,
		Input:    &input,
	}
}

// watchedEvents are forwarded to Update. Playing ticks are not: the view is
// refreshed by TickCmd instead.
var watchedEvents = []string{
	events.Play, events.Pause, events.Seek, events.SourceChanged,
	events.Volume, events.LoopingChanged, events.Ended, events.Ready,
	events.Error, events.ContextElementChanged, events.PlaylistCreated,
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.WatchEvents(), TickCmd(false))
}

// Close detaches the model from the bus.
func (m Model) Close() {
	m.sub.Close()
}

// backend returns the backend bound to the scrubber, or nil.
func (m Model) backend() playback.Backend {
	return m.scrub.Backend()
}

// listHeight is the number of playlist lines that fit above the status bar.
func (m Model) listHeight() int {
	return max(m.Height-ui.StatusBarHeight, 0)
}
