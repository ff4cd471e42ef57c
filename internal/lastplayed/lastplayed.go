// Package lastplayed remembers where each track was left and resumes
// playback there. It also marks rows of previously heard tracks with their
// progress and the time they were last played.
package lastplayed

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/llehouerou/tapedeck/internal/events"
	"github.com/llehouerou/tapedeck/internal/playback"
	"github.com/llehouerou/tapedeck/internal/playlist"
	"github.com/llehouerou/tapedeck/internal/scrubber"
	"github.com/llehouerou/tapedeck/internal/ui/element"
)

const (
	// Threshold is the played fraction below which a record is not shown
	// in the playlist. Any saved position is still restored.
	Threshold = 0.05
	// StoreInterval is the save period while a track plays.
	StoreInterval = 3 * time.Second

	keyPrefix = "track__"
)

// ClassProgress marks the element showing the saved progress in a shaft.
const ClassProgress = "last-played-progress"

// Store persists records by key.
type Store interface {
	Get(key string) ([]byte, bool, error)
	Put(key string, value []byte) error
}

// Record is the saved state of one track. Time is epoch milliseconds, Pos
// and Max are seconds.
type Record struct {
	Time int64   `json:"time"`
	Pos  float64 `json:"pos"`
	Max  float64 `json:"max"`
	Dur  float64 `json:"dur,omitempty"`
}

// LastPlayed returns the time the record was written.
func (r Record) LastPlayed() time.Time { return time.UnixMilli(r.Time) }

// Fraction returns the furthest played part of the track, using dur or the
// stored duration when dur is unknown.
func (r Record) Fraction(dur time.Duration) float64 {
	total := dur.Seconds()
	if total <= 0 {
		total = r.Dur
	}
	if total <= 0 {
		return 0
	}
	return min(max(r.Max, r.Pos)/total, 1)
}

func key(id string) string { return keyPrefix + id }

// Tracker saves and restores positions for every backend on one bus.
type Tracker struct {
	bus      *events.Bus
	store    Store
	scrubber *scrubber.Scrubber
	log      *slog.Logger
	now      func() time.Time

	mu        sync.Mutex
	dirty     bool
	playing   bool
	timer     *time.Timer
	restored  map[string]bool
	restoring string
	target    time.Duration
	closed    bool

	listener *events.Listener
}

// New starts tracking playback on bus. Rows of the playlists in reg are
// decorated right away; later playlists when they are created.
func New(bus *events.Bus, store Store, scrub *scrubber.Scrubber, reg *playlist.Registry, log *slog.Logger) *Tracker {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	t := &Tracker{
		bus:      bus,
		store:    store,
		scrubber: scrub,
		log:      log,
		now:      time.Now,
		restored: make(map[string]bool),
	}
	t.listener = events.Listen(t.handle)
	_ = bus.On(t.listener,
		events.Playing, events.Play, events.Pause, events.SourceChanged,
		events.ContextElementChanged, events.PlaylistCreated)

	if reg != nil {
		for _, c := range reg.Playlists() {
			t.Decorate(c)
		}
	}
	return t
}

func (t *Tracker) handle(e events.Event) {
	switch e.Type {
	case events.Playing:
		t.mu.Lock()
		t.dirty = true
		t.mu.Unlock()
	case events.Play:
		t.onPlay()
	case events.Pause:
		t.onPause()
	case events.SourceChanged:
		t.restore()
	case events.ContextElementChanged:
		if c, ok := e.Data.(events.ContextChange); ok {
			t.showRestored(c.New)
		}
	case events.PlaylistCreated:
		if c, ok := e.Data.(*playlist.Controller); ok {
			t.Decorate(c)
		}
	}
}

func (t *Tracker) onPlay() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.playing = true
	if t.timer == nil {
		t.timer = time.AfterFunc(StoreInterval, t.tick)
	}
}

func (t *Tracker) onPause() {
	t.mu.Lock()
	t.playing = false
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.mu.Unlock()

	t.Save(true)
}

func (t *Tracker) tick() {
	t.Save(false)

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.playing && !t.closed {
		t.timer = time.AfterFunc(StoreInterval, t.tick)
	} else {
		t.timer = nil
	}
}

func (t *Tracker) backend() playback.Backend {
	if t.scrubber == nil {
		return nil
	}
	return t.scrubber.Backend()
}

// Save writes the record of the current track when something was played
// since the last save, or always when force is set.
func (t *Tracker) Save(force bool) {
	t.mu.Lock()
	if !t.dirty && !force {
		t.mu.Unlock()
		return
	}
	t.dirty = false
	t.mu.Unlock()

	b := t.backend()
	if b == nil || !b.Ready() {
		return
	}
	track := b.Track()
	if track.ID == "" {
		return
	}

	pos := b.Position().Seconds()
	dur := b.Duration().Seconds()
	prev, _ := t.Load(track.ID)
	rec := Record{
		Time: t.now().UnixMilli(),
		Pos:  pos,
		Max:  max(prev.Max, pos),
		Dur:  dur,
	}
	if err := t.put(track.ID, rec); err != nil {
		t.log.Warn("save last played position", "id", track.ID, "err", err)
	}
}

func (t *Tracker) put(id string, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	if err := t.store.Put(key(id), data); err != nil {
		return fmt.Errorf("put record: %w", err)
	}
	return nil
}

// Load returns the saved record of the track with id.
func (t *Tracker) Load(id string) (Record, bool) {
	data, ok, err := t.store.Get(key(id))
	if err != nil {
		t.log.Warn("load last played position", "id", id, "err", err)
		return Record{}, false
	}
	if !ok {
		return Record{}, false
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		t.log.Warn("decode last played position", "id", id, "err", err)
		return Record{}, false
	}
	return rec, true
}

// restore seeks the new source to its saved position, once per track.
// The seek is queued by the backend until the duration is known.
func (t *Tracker) restore() {
	b := t.backend()
	if b == nil {
		return
	}
	track := b.Track()
	if track.ID == "" {
		return
	}

	t.mu.Lock()
	if t.restored[track.ID] {
		t.mu.Unlock()
		return
	}
	t.restored[track.ID] = true
	t.mu.Unlock()

	rec, ok := t.Load(track.ID)
	if !ok || rec.Pos <= 0 {
		return
	}
	pos := time.Duration(rec.Pos * float64(time.Second))

	t.mu.Lock()
	t.restoring = track.ID
	t.target = pos
	t.mu.Unlock()

	t.log.Debug("restoring last played position", "id", track.ID, "pos", pos)
	b.Seek(pos)
	t.showRestored(t.scrubber.Root())
}

// showRestored moves the playhead of row to the restored position as soon
// as the row of the restoring track is bound.
func (t *Tracker) showRestored(row *element.Element) {
	if row == nil {
		return
	}
	t.mu.Lock()
	id, pos := t.restoring, t.target
	t.mu.Unlock()
	if id == "" {
		return
	}

	t.scrubber.Lock()
	match := row.Attr(playlist.AttrTrackID) == id
	t.scrubber.Unlock()
	if !match {
		return
	}

	t.mu.Lock()
	t.restoring = ""
	t.mu.Unlock()

	dur := t.backend().Track().Duration
	if rec, ok := t.Load(id); ok && dur <= 0 {
		dur = time.Duration(rec.Dur * float64(time.Second))
	}
	t.scrubber.UpdateUI(pos, dur)
}

// Decorate marks the rows of c whose tracks were played past the threshold.
func (t *Tracker) Decorate(c *playlist.Controller) {
	for _, track := range c.Playlist().Tracks() {
		rec, ok := t.Load(track.ID)
		if !ok {
			continue
		}
		prc := rec.Fraction(track.Duration)
		if prc < Threshold {
			continue
		}
		row := c.Row(track.ID)
		if row == nil {
			continue
		}
		t.decorateRow(row, rec, prc)
	}
}

func (t *Tracker) decorateRow(row *element.Element, rec Record, prc float64) {
	if t.scrubber != nil {
		t.scrubber.Lock()
		defer t.scrubber.Unlock()
	}

	if button := row.FindByClass(scrubber.ClassPlayButton); button != nil {
		bg := int(math.Round(-20 * (1 - prc)))
		button.SetAttr(scrubber.AttrPlayProgress, strconv.Itoa(bg))
	}
	if label := row.FindByClass(playlist.ClassLastPlay); label != nil {
		label.Text = humanize.RelTime(rec.LastPlayed(), t.now(), "ago", "from now")
	}
	if shaft := row.FindByClass(scrubber.ClassShaft); shaft != nil {
		bar := shaft.FindByClass(ClassProgress)
		if bar == nil {
			bar = element.New(ClassProgress)
			shaft.AppendChild(bar)
		}
		bar.SetStyle(scrubber.StyleWidthPercent, prc*100)
	}
}

// Close stops tracking and saves the current position.
func (t *Tracker) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	t.playing = false
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.mu.Unlock()

	for _, name := range []string{
		events.Playing, events.Play, events.Pause, events.SourceChanged,
		events.ContextElementChanged, events.PlaylistCreated,
	} {
		t.bus.Off(name, t.listener)
	}
	t.Save(false)
}
