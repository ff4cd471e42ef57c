//go:build linux

package mpris

import (
	"testing"
	"time"

	"github.com/quarckster/go-mpris-server/pkg/types"

	"github.com/llehouerou/tapedeck/internal/events"
	"github.com/llehouerou/tapedeck/internal/playback"
	"github.com/llehouerou/tapedeck/internal/playlist"
	"github.com/llehouerou/tapedeck/internal/scrubber"
	"github.com/llehouerou/tapedeck/internal/ui/element"
)

func newPlayer(t *testing.T) (*playerAdapter, *playback.Mock) {
	t.Helper()
	bus := events.NewBus()
	mock := playback.NewMock(bus, "mp3")
	scrub := scrubber.New(bus, nil)
	reg := playlist.NewRegistry(bus, scrub)
	t.Cleanup(reg.Close)
	if err := mock.Init(playback.Config{}, scrub); err != nil {
		t.Fatal(err)
	}
	list := playlist.NewPlaylist(
		playlist.Track{ID: "a", Location: "/music/a.mp3", Title: "Alpha", Creator: "Band", TrackNumber: 1},
		playlist.Track{ID: "b", Location: "/music/b.mp3", Title: "Beta"},
	)
	playlist.NewController(bus, mock, scrub, list, element.New("playlist"), playlist.DefaultOptions(), nil)
	return &playerAdapter{deck: scrub, nav: reg}, mock
}

func TestPlayerAdapter_Transport(t *testing.T) {
	p, mock := newPlayer(t)

	if status, _ := p.PlaybackStatus(); status != types.PlaybackStatusStopped {
		t.Errorf("PlaybackStatus() = %v before play, want Stopped", status)
	}

	if err := p.PlayPause(); err != nil {
		t.Fatal(err)
	}
	if mock.Source() != "/music/a.mp3" {
		t.Fatalf("PlayPause() with nothing loaded: source %q", mock.Source())
	}
	if status, _ := p.PlaybackStatus(); status != types.PlaybackStatusPlaying {
		t.Errorf("PlaybackStatus() while loading with play requested = %v", status)
	}
	mock.CompleteLoad(time.Minute)

	if err := p.Seek(types.Microseconds(20 * time.Second / time.Microsecond)); err != nil {
		t.Fatal(err)
	}
	if mock.Position() != 20*time.Second {
		t.Errorf("Position() after relative seek = %v, want 20s", mock.Position())
	}
	if err := p.Seek(types.Microseconds(-time.Minute / time.Microsecond)); err != nil {
		t.Fatal(err)
	}
	if mock.Position() != 0 {
		t.Errorf("Position() after seeking before start = %v, want 0", mock.Position())
	}

	_ = p.Pause()
	if status, _ := p.PlaybackStatus(); status != types.PlaybackStatusPaused {
		t.Errorf("PlaybackStatus() = %v after Pause, want Paused", status)
	}

	_ = p.Next()
	if mock.Source() != "/music/b.mp3" {
		t.Errorf("Next() source = %q", mock.Source())
	}
	mock.CompleteLoad(time.Minute)
	_ = p.Previous()
	if mock.Source() != "/music/a.mp3" {
		t.Errorf("Previous() source = %q", mock.Source())
	}
}

func TestPlayerAdapter_Metadata(t *testing.T) {
	p, mock := newPlayer(t)

	if meta, _ := p.Metadata(); meta.Title != "" {
		t.Errorf("Metadata() without source = %+v", meta)
	}

	_ = p.Play()
	mock.CompleteLoad(90 * time.Second)

	meta, err := p.Metadata()
	if err != nil {
		t.Fatal(err)
	}
	if meta.Title != "Alpha" || meta.Album != "" || len(meta.Artist) != 1 || meta.Artist[0] != "Band" {
		t.Errorf("Metadata() = %+v", meta)
	}
	if meta.Length != types.Microseconds((90 * time.Second).Microseconds()) {
		t.Errorf("Length = %d", meta.Length)
	}
	if string(meta.TrackId) != formatTrackID("a") {
		t.Errorf("TrackId = %q", meta.TrackId)
	}
}

func TestPlayerAdapter_VolumeAndLoop(t *testing.T) {
	p, mock := newPlayer(t)

	_ = p.SetVolume(0.4)
	if v, _ := p.Volume(); v != 0.4 || mock.Volume() != 0.4 {
		t.Errorf("Volume() = %v, mock %v", v, mock.Volume())
	}

	_ = p.SetLoopStatus(types.LoopStatusTrack)
	if status, _ := p.LoopStatus(); status != types.LoopStatusTrack || !mock.Loop() {
		t.Errorf("LoopStatus() = %v after enabling", status)
	}
	_ = p.SetLoopStatus(types.LoopStatusPlaylist)
	if mock.Loop() {
		t.Error("playlist loop enabled track looping")
	}
}

type emptyDeck struct{}

func (emptyDeck) Backend() playback.Backend { return nil }

func TestPlayerAdapter_NoBackend(t *testing.T) {
	p := &playerAdapter{deck: emptyDeck{}}

	if err := p.Pause(); err == nil {
		t.Error("Pause() without backend = nil error")
	}
	if ok, _ := p.CanPlay(); ok {
		t.Error("CanPlay() without backend = true")
	}
	if pos, err := p.Position(); pos != 0 || err != nil {
		t.Errorf("Position() = %d, %v", pos, err)
	}
}

func TestFormatTrackID(t *testing.T) {
	if formatTrackID("a") == formatTrackID("b") {
		t.Error("distinct ids share an object path")
	}
	if formatTrackID("a") != formatTrackID("a") {
		t.Error("object path not stable")
	}
}
