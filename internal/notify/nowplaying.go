package notify

import (
	"log/slog"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/llehouerou/tapedeck/internal/events"
	"github.com/llehouerou/tapedeck/internal/mpris"
	"github.com/llehouerou/tapedeck/internal/playback"
)

// Deck gives access to the backend currently bound to the player rows.
type Deck interface {
	Backend() playback.Backend
}

// Options configure now playing notifications.
type Options struct {
	AlbumArt bool          // attach cover art found next to local tracks
	Timeout  time.Duration // 0 uses the server default
}

// NowPlaying replaces a single desktop notification every time a new
// track starts playing.
type NowPlaying struct {
	bus      *events.Bus
	deck     Deck
	notifier Notifier
	opts     Options
	log      *slog.Logger
	listener *events.Listener

	mu     sync.Mutex
	lastID uint32
	last   string // track id
}

// Watch starts announcing tracks played on bus.
func Watch(bus *events.Bus, deck Deck, n Notifier, opts Options, log *slog.Logger) *NowPlaying {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	w := &NowPlaying{bus: bus, deck: deck, notifier: n, opts: opts, log: log}
	w.listener = events.Listen(func(events.Event) { w.announce() })
	_ = bus.On(w.listener, events.Play)
	return w
}

func (w *NowPlaying) announce() {
	b := w.deck.Backend()
	if b == nil {
		return
	}
	t := b.Track()
	if t.ID == "" {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	// Resuming the same track is not announced again.
	if t.ID == w.last {
		return
	}
	w.last = t.ID

	n := nowPlaying(t)
	n.ReplacesID = w.lastID
	n.Timeout = -1
	if w.opts.Timeout > 0 {
		n.Timeout = int32(w.opts.Timeout / time.Millisecond)
	}
	if w.opts.AlbumArt {
		n.Icon = mpris.FindAlbumArt(t.Location)
	}

	id, err := w.notifier.Notify(n)
	if err != nil {
		w.log.Warn("send notification", "id", t.ID, "err", err)
		return
	}
	w.lastID = id
}

// nowPlaying builds the notification text of t.
func nowPlaying(t playback.Track) Notification {
	title := t.Title
	if title == "" {
		title = path.Base(t.Location)
	}
	var parts []string
	for _, s := range []string{t.Creator, t.Album} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return Notification{
		Title:     title,
		Body:      strings.Join(parts, " · "),
		Urgency:   UrgencyLow,
		Transient: true,
	}
}

// Close stops announcing and removes the last notification.
func (w *NowPlaying) Close() {
	w.bus.Off(events.Play, w.listener)

	w.mu.Lock()
	id := w.lastID
	w.lastID = 0
	w.mu.Unlock()
	if id != 0 {
		if err := w.notifier.Close(id); err != nil {
			w.log.Debug("close notification", "err", err)
		}
	}
}
