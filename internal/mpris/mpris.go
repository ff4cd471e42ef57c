//go:build linux

package mpris

import (
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/quarckster/go-mpris-server/pkg/server"
	"github.com/quarckster/go-mpris-server/pkg/types"

	"github.com/llehouerou/tapedeck/internal/playback"
)

var errNoBackend = errors.New("no backend initialized")

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

// Adapter connects the active backend to MPRIS over D-Bus.
type Adapter struct {
	server *server.Server
	log    *slog.Logger
}

// New creates and starts a new MPRIS adapter.
func New(deck Deck, nav Navigator, log *slog.Logger) (*Adapter, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	a := &Adapter{log: log}

	a.server = server.NewServer("tapedeck", &rootAdapter{}, &playerAdapter{deck: deck, nav: nav})

	// Start the server in background
	go func() {
		if err := a.server.Listen(); err != nil {
			a.log.Warn("mpris server stopped", "err", err)
		}
	}()

	return a, nil
}

// Close stops the adapter and releases D-Bus resources.
func (a *Adapter) Close() error {
	return a.server.Stop()
}

// rootAdapter implements OrgMprisMediaPlayer2Adapter.
type rootAdapter struct{}

func (r *rootAdapter) Raise() error {
	return nil // Not supported
}

func (r *rootAdapter) Quit() error {
	return nil // Not supported - app manages its own lifecycle
}

func (r *rootAdapter) CanQuit() (bool, error) {
	return false, nil
}

func (r *rootAdapter) CanRaise() (bool, error) {
	return false, nil
}

func (r *rootAdapter) HasTrackList() (bool, error) {
	return false, nil
}

func (r *rootAdapter) Identity() (string, error) {
	return "Tapedeck", nil
}

//nolint:revive // Method name required by interface.
func (r *rootAdapter) SupportedUriSchemes() ([]string, error) {
	return []string{"file", "http", "https"}, nil
}

func (r *rootAdapter) SupportedMimeTypes() ([]string, error) {
	return []string{"audio/mpeg", "audio/flac", "audio/ogg", "audio/wav", "video/x-flv"}, nil
}

// playerAdapter implements OrgMprisMediaPlayer2PlayerAdapter and the loop
// status extension.
type playerAdapter struct {
	deck Deck
	nav  Navigator
}

func (p *playerAdapter) backend() (playback.Backend, error) {
	b := p.deck.Backend()
	if b == nil {
		return nil, errNoBackend
	}
	return b, nil
}

func (p *playerAdapter) Next() error {
	p.nav.Next()
	return nil
}

func (p *playerAdapter) Previous() error {
	p.nav.Previous()
	return nil
}

func (p *playerAdapter) Pause() error {
	b, err := p.backend()
	if err != nil {
		return err
	}
	b.Pause(false)
	return nil
}

func (p *playerAdapter) PlayPause() error {
	b, err := p.backend()
	if err != nil {
		return err
	}
	if b.Source() == "" {
		p.nav.Play()
		return nil
	}
	b.Toggle()
	return nil
}

// Stop pauses and rewinds; the source stays loaded.
func (p *playerAdapter) Stop() error {
	b, err := p.backend()
	if err != nil {
		return err
	}
	b.Pause(false)
	b.Seek(0)
	return nil
}

func (p *playerAdapter) Play() error {
	p.nav.Play()
	return nil
}

// Seek moves relative to the current position.
func (p *playerAdapter) Seek(offset types.Microseconds) error {
	b, err := p.backend()
	if err != nil {
		return err
	}
	b.Seek(max(0, b.Position()+time.Duration(offset)*time.Microsecond))
	return nil
}

func (p *playerAdapter) SetPosition(_ string, position types.Microseconds) error {
	b, err := p.backend()
	if err != nil {
		return err
	}
	b.Seek(time.Duration(position) * time.Microsecond)
	return nil
}

//nolint:revive // Method name required by interface.
func (p *playerAdapter) OpenUri(_ string) error {
	return nil // Not supported
}

func (p *playerAdapter) PlaybackStatus() (types.PlaybackStatus, error) {
	b := p.deck.Backend()
	if b == nil {
		return types.PlaybackStatusStopped, nil
	}
	switch b.State() {
	case playback.StatePlaying:
		return types.PlaybackStatusPlaying, nil
	case playback.StatePaused, playback.StateReady:
		return types.PlaybackStatusPaused, nil
	case playback.StateLoading:
		if b.IsPlaying() {
			return types.PlaybackStatusPlaying, nil
		}
		return types.PlaybackStatusPaused, nil
	}
	return types.PlaybackStatusStopped, nil
}

func (p *playerAdapter) Rate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) SetRate(_ float64) error {
	return nil // Not supported
}

func (p *playerAdapter) Metadata() (types.Metadata, error) {
	b := p.deck.Backend()
	if b == nil || b.Source() == "" {
		return types.Metadata{}, nil
	}
	track := b.Track()

	length := b.Duration()
	if length == 0 {
		length = track.Duration
	}
	meta := types.Metadata{
		TrackId:     dbus.ObjectPath(formatTrackID(track.ID)),
		Length:      types.Microseconds(length.Microseconds()),
		Title:       track.Title,
		Album:       track.Album,
		TrackNumber: track.TrackNumber,
	}
	if track.Creator != "" {
		meta.Artist = []string{track.Creator}
	}

	if artPath := FindAlbumArt(track.Location); artPath != "" {
		meta.ArtUrl = "file://" + artPath
	}

	return meta, nil
}

func (p *playerAdapter) Volume() (float64, error) {
	b := p.deck.Backend()
	if b == nil {
		return 1.0, nil
	}
	return b.Volume(), nil
}

func (p *playerAdapter) SetVolume(v float64) error {
	b, err := p.backend()
	if err != nil {
		return err
	}
	b.SetVolume(v)
	return nil
}

func (p *playerAdapter) Position() (int64, error) {
	b := p.deck.Backend()
	if b == nil {
		return 0, nil
	}
	return b.Position().Microseconds(), nil
}

func (p *playerAdapter) MinimumRate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) MaximumRate() (float64, error) {
	return 1.0, nil
}

func (p *playerAdapter) CanGoNext() (bool, error) {
	return true, nil
}

func (p *playerAdapter) CanGoPrevious() (bool, error) {
	return true, nil
}

func (p *playerAdapter) CanPlay() (bool, error) {
	return p.deck.Backend() != nil, nil
}

func (p *playerAdapter) CanPause() (bool, error) {
	return true, nil
}

func (p *playerAdapter) CanSeek() (bool, error) {
	b := p.deck.Backend()
	return b != nil && b.Ready(), nil
}

func (p *playerAdapter) CanControl() (bool, error) {
	return true, nil
}

// LoopStatus implements OrgMprisMediaPlayer2PlayerAdapterLoopStatus.
func (p *playerAdapter) LoopStatus() (types.LoopStatus, error) {
	if b := p.deck.Backend(); b != nil && b.Loop() {
		return types.LoopStatusTrack, nil
	}
	return types.LoopStatusNone, nil
}

// SetLoopStatus implements OrgMprisMediaPlayer2PlayerAdapterLoopStatus.
// Playlists never wrap, so only track looping is honoured.
func (p *playerAdapter) SetLoopStatus(status types.LoopStatus) error {
	b, err := p.backend()
	if err != nil {
		return err
	}
	b.SetLoop(status == types.LoopStatusTrack)
	return nil
}

func formatTrackID(id string) string {
	h := fnv.New64a()
	h.Write([]byte(id))
	return fmt.Sprintf("/org/mpris/MediaPlayer2/Track/%x", h.Sum64())
}
