// Package playback defines the media backend contract and the state machine
// shared by every backend implementation.
package playback

import (
	"time"

	"github.com/llehouerou/tapedeck/internal/events"
)

// DefaultPollInterval is the rate of playing ticks while a source plays.
const DefaultPollInterval = 15 * time.Millisecond

// Config holds backend options.
type Config struct {
	// BridgeURL is the ws:// or wss:// address of the remote player agent.
	BridgeURL string
	// Provider is forwarded to the remote agent with every load.
	Provider string
	// PollInterval is the playing tick rate. Zero means DefaultPollInterval,
	// a negative value disables polling.
	PollInterval time.Duration
}

// Context is the UI component a backend reports to. Init hands the backend
// to it so the component can issue seeks and pauses.
type Context interface {
	SetBackend(b Backend)
}

// Backend is a media engine able to load a source and report its progress
// on an event bus.
type Backend interface {
	// Init prepares the backend and binds it to ui. Calling it again only
	// rebinds the context.
	Init(cfg Config, ui Context) error
	Events() *events.Bus

	SetSource(t Track)
	Source() string
	Track() Track

	Play()
	Pause(force bool)
	Toggle()
	Seek(pos time.Duration)
	SeekPercent(p float64)

	Position() time.Duration
	Duration() time.Duration
	Ready() bool
	State() State
	IsPlaying() bool

	Volume() float64
	SetVolume(v float64)
	Loop() bool
	SetLoop(loop bool)

	CanPlayType(ext string) bool
	IsSupported() bool
	Kind() string
	Close() error
}
