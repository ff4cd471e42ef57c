// Package app contains the terminal front end: playlists rendered from the
// element tree, keyboard and mouse input turned into player calls.
package app

import (
	"time"

	"github.com/llehouerou/tapedeck/internal/events"
	"github.com/llehouerou/tapedeck/internal/playlist"
)

// TickMsg is sent periodically to redraw the playhead.
type TickMsg time.Time

// BusEventMsg wraps an event forwarded from the bus.
type BusEventMsg struct {
	Event events.Event
}

// BusClosedMsg is sent when the bus subscription was closed.
type BusClosedMsg struct{}

// SourceOpenedMsg is sent when a source typed in the open prompt was loaded.
type SourceOpenedMsg struct {
	Location   string
	Controller *playlist.Controller
	Err        error
}

// ClearStatusMsg clears the status line if no newer message replaced it.
type ClearStatusMsg struct {
	Version int
}
