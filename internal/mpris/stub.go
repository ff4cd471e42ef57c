//go:build !linux

package mpris

import (
	"log/slog"

	"github.com/llehouerou/tapedeck/internal/playback"
)

// Deck is the player driven over D-Bus.
type Deck interface {
	Backend() playback.Backend
}

// Navigator moves through the current playlist.
type Navigator interface {
	Play() bool
	Next() bool
	Previous() bool
}

// Adapter is a no-op on non-Linux platforms.
type Adapter struct{}

// New returns a no-op adapter on non-Linux platforms.
func New(Deck, Navigator, *slog.Logger) (*Adapter, error) {
	return &Adapter{}, nil
}

// Close is a no-op on non-Linux platforms.
func (a *Adapter) Close() error {
	return nil
}
