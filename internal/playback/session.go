package playback

import (
	"log/slog"
	"sync"
	"time"

	"github.com/llehouerou/tapedeck/internal/events"
)

// Driver is the engine-specific half of a backend. Session decides when to
// call it; the driver reports back through the Session callbacks with the
// token it received in Load.
type Driver interface {
	// Load starts fetching t. It must not block on I/O.
	Load(t Track, token uint64)
	// Unload releases the current source.
	Unload()
	Start()
	Stop()
	SeekTo(pos time.Duration)
	Position() time.Duration
	SetVolume(v float64)
}

// Session implements the backend state machine on top of a Driver. It is
// embedded by every backend so that they share identical event semantics.
//
// Session never holds its lock while calling the driver or emitting events.
type Session struct {
	bus    *events.Bus
	driver Driver
	log    *slog.Logger
	poller *Poller

	mu            sync.Mutex
	state         State
	source        Track
	hasSource     bool
	duration      time.Duration
	pending       *time.Duration
	playRequested bool
	volume        float64
	loop          bool
	token         uint64
}

// NewSession creates an idle session driving d and emitting on bus.
func NewSession(bus *events.Bus, d Driver, log *slog.Logger) *Session {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Session{
		bus:    bus,
		driver: d,
		log:    log,
		poller: NewPoller(DefaultPollInterval),
		volume: 1,
	}
}

// Configure applies the poll interval of cfg.
func (s *Session) Configure(cfg Config) {
	interval := cfg.PollInterval
	if interval == 0 {
		interval = DefaultPollInterval
	}
	s.poller.SetInterval(interval)
}

// Events returns the bus the session emits on.
func (s *Session) Events() *events.Bus { return s.bus }

// SetSource switches to t. Switching to the current location is a no-op.
func (s *Session) SetSource(t Track) {
	if t.Location == "" {
		s.log.Warn("ignoring track without location", "id", t.ID)
		return
	}

	s.mu.Lock()
	if s.hasSource && s.source.Location == t.Location {
		s.mu.Unlock()
		return
	}
	last := ""
	if s.hasSource {
		last = s.source.Location
	}
	wasPlaying := s.state == StatePlaying
	s.mu.Unlock()

	s.bus.Emit(events.SourceBeforeChange, events.SourceChange{Current: last, New: t.Location})

	if wasPlaying {
		s.Pause(false)
	}
	s.poller.Stop()
	s.driver.Unload()

	s.mu.Lock()
	s.token++
	token := s.token
	s.source = t
	s.hasSource = true
	s.state = StateLoading
	s.duration = 0
	s.pending = nil
	s.playRequested = false
	s.mu.Unlock()

	s.log.Debug("loading source", "location", t.Location)
	s.driver.Load(t, token)

	s.bus.Emit(events.SourceChanged, events.SourceChange{Current: t.Location, Last: last})
}

// Source returns the current location, or "" when none is set.
func (s *Session) Source() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.source.Location
}

// Track returns the current track.
func (s *Session) Track() Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.source
}

// Play starts playback. Before metadata is available the request is
// remembered and honoured once the source is ready.
func (s *Session) Play() {
	s.mu.Lock()
	switch s.state {
	case StateIdle, StatePlaying:
		s.mu.Unlock()
		return
	case StateLoading:
		s.playRequested = true
		s.mu.Unlock()
		return
	}
	s.state = StatePlaying
	s.mu.Unlock()

	s.driver.Start()
	s.poller.Start(s.emitPlaying)
	s.bus.Emit(events.Play, nil)
}

// Pause stops playback. It does nothing unless playing, or force is set;
// a forced pause always emits a pause event.
func (s *Session) Pause(force bool) {
	s.mu.Lock()
	playing := s.state == StatePlaying
	requested := s.state == StateLoading && s.playRequested
	if !playing && !requested && !force {
		s.mu.Unlock()
		return
	}
	s.playRequested = false
	if playing {
		s.state = StatePaused
	}
	s.mu.Unlock()

	if playing {
		s.driver.Stop()
	}
	s.poller.Stop()
	s.bus.Emit(events.Pause, nil)
}

// Toggle pauses when playing and plays otherwise.
func (s *Session) Toggle() {
	if s.IsPlaying() {
		s.Pause(false)
		return
	}
	s.Play()
}

// Seek moves to pos. While the duration is unknown the position is queued;
// only the last queued position is applied once metadata arrives.
func (s *Session) Seek(pos time.Duration) {
	s.mu.Lock()
	switch {
	case s.state == StateIdle:
		s.mu.Unlock()
		return
	case !s.state.HasMetadata():
		s.pending = &pos
		s.mu.Unlock()
		return
	}
	dur := s.duration
	s.mu.Unlock()

	pos = max(0, min(pos, dur))
	s.driver.SeekTo(pos)

	var percent float64
	if dur > 0 {
		percent = float64(pos) / float64(dur)
	}
	s.bus.Emit(events.Seek, events.SeekInfo{Position: pos, Percent: percent, Duration: dur})
}

// SeekPercent seeks to a fraction of the duration, clamped to [0,1]. While
// loading, the duration announced by the track is used if any.
func (s *Session) SeekPercent(p float64) {
	p = max(0, min(p, 1))

	s.mu.Lock()
	dur := s.duration
	if dur == 0 {
		dur = s.source.Duration
	}
	s.mu.Unlock()

	s.Seek(time.Duration(p * float64(dur)))
}

// Position returns the playback position, 0 before metadata is known.
func (s *Session) Position() time.Duration {
	s.mu.Lock()
	ready := s.state.HasMetadata()
	s.mu.Unlock()
	if !ready {
		return 0
	}
	return s.driver.Position()
}

// Duration returns the source duration, 0 while unknown.
func (s *Session) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.duration
}

// Ready reports whether metadata for the current source is available.
func (s *Session) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.HasMetadata()
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IsPlaying reports whether the source plays, or will as soon as it is ready.
func (s *Session) IsPlaying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StatePlaying || (s.state == StateLoading && s.playRequested)
}

// Volume returns the volume in [0,1].
func (s *Session) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

// SetVolume clamps v to [0,1], applies it and emits a volume event.
func (s *Session) SetVolume(v float64) {
	v = max(0, min(v, 1))
	s.mu.Lock()
	s.volume = v
	s.mu.Unlock()

	s.driver.SetVolume(v)
	s.bus.Emit(events.Volume, v)
}

// Loop reports whether the source restarts when it ends.
func (s *Session) Loop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loop
}

// SetLoop sets looping and emits a looping-changed event.
func (s *Session) SetLoop(loop bool) {
	s.mu.Lock()
	s.loop = loop
	s.mu.Unlock()

	s.bus.Emit(events.LoopingChanged, loop)
}

// Shutdown stops polling and releases the source.
func (s *Session) Shutdown() {
	s.poller.Stop()
	s.driver.Unload()

	s.mu.Lock()
	s.token++
	s.state = StateIdle
	s.source = Track{}
	s.hasSource = false
	s.duration = 0
	s.pending = nil
	s.playRequested = false
	s.mu.Unlock()
}

// MetadataReady is called by the driver when the duration of the source
// loaded with token is known. Stale tokens are ignored.
func (s *Session) MetadataReady(token uint64, dur time.Duration) {
	s.mu.Lock()
	if token != s.token || s.state != StateLoading {
		s.mu.Unlock()
		return
	}
	s.duration = dur
	s.state = StateReady
	pending := s.pending
	s.pending = nil
	play := s.playRequested
	s.playRequested = false
	s.mu.Unlock()

	s.bus.Emit(events.Ready, events.Position{Duration: dur})

	if pending != nil {
		s.Seek(*pending)
	}
	if play {
		s.Play()
	}
}

// LoadProgress is called by the driver as the source downloads.
func (s *Session) LoadProgress(token uint64, start, end float64) {
	if !s.current(token) {
		return
	}
	s.bus.Emit(events.LoadProgress, events.Progress{Start: start, End: end})
}

// Ended is called by the driver when the source played to its end. The
// session rewinds, then plays again when looping or pauses otherwise, and
// finally emits an ended event.
func (s *Session) Ended(token uint64) {
	s.mu.Lock()
	if token != s.token || s.state != StatePlaying {
		s.mu.Unlock()
		return
	}
	s.state = StatePaused
	loop := s.loop
	s.mu.Unlock()

	s.poller.Stop()
	s.Seek(0)
	if loop {
		s.Play()
	} else {
		s.Pause(true)
	}
	s.bus.Emit(events.Ended, nil)
}

// Tick emits a playing event for the source loaded with token. Drivers that
// receive position reports from their engine call it instead of polling.
func (s *Session) Tick(token uint64) {
	if !s.current(token) {
		return
	}
	s.emitPlaying()
}

// Fail is called by the driver when the source loaded with token cannot be
// played. The session goes back to Idle and forgets the source, so setting
// the same track again retries the load.
func (s *Session) Fail(token uint64, kind events.FailureKind, err error) {
	s.mu.Lock()
	if token != s.token || s.state == StateIdle {
		s.mu.Unlock()
		return
	}
	location := s.source.Location
	s.token++
	s.state = StateIdle
	s.source = Track{}
	s.hasSource = false
	s.duration = 0
	s.pending = nil
	s.playRequested = false
	s.mu.Unlock()

	s.poller.Stop()
	s.driver.Unload()

	s.log.Error("playback failed", "location", location, "kind", kind, "err", err)
	s.bus.Emit(events.Error, events.Failure{Kind: kind, Source: location, Err: err})
}

// Token returns the token of the current load.
func (s *Session) Token() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *Session) current(token uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return token == s.token && s.state != StateIdle
}

func (s *Session) emitPlaying() {
	s.mu.Lock()
	playing := s.state == StatePlaying
	dur := s.duration
	s.mu.Unlock()
	if !playing {
		return
	}
	s.bus.Emit(events.Playing, events.Position{Position: s.driver.Position(), Duration: dur})
}
