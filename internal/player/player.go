// Package player implements the native playback backend: sources are
// decoded with beep and mixed into an Output.
package player

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"

	"github.com/llehouerou/tapedeck/internal/events"
	"github.com/llehouerou/tapedeck/internal/playback"
)

// Kind identifies the native backend.
const Kind = "native"

// Player is the native backend.
type Player struct {
	*playback.Session
	engine *engine
	log    *slog.Logger

	closeOnce sync.Once
}

// New creates a native backend emitting on bus. A nil loader uses an
// HTTPLoader.
func New(bus *events.Bus, out Output, loader Loader, log *slog.Logger) *Player {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if loader == nil {
		loader = NewHTTPLoader(nil)
	}
	e := &engine{
		out:    out,
		loader: loader,
		log:    log,
		level:  1,
		ended:  make(chan uint64, 1),
		done:   make(chan struct{}),
	}
	p := &Player{
		engine: e,
		log:    log,
	}
	p.Session = playback.NewSession(bus, e, log)
	e.session = p.Session
	go e.watch()
	return p
}

// Init applies cfg and binds ui. It may be called again to rebind.
func (p *Player) Init(cfg playback.Config, ui playback.Context) error {
	p.Configure(cfg)
	if ui != nil {
		ui.SetBackend(p)
	}
	return nil
}

// CanPlayType reports whether ext has a native decoder.
func (p *Player) CanPlayType(ext string) bool {
	return slices.Contains(nativeTypes, ext)
}

// IsSupported reports whether an audio output is available.
func (p *Player) IsSupported() bool {
	return p.engine.out != nil
}

func (p *Player) Kind() string { return Kind }

// Close releases the source and stops the end-of-stream watcher.
func (p *Player) Close() error {
	p.closeOnce.Do(func() {
		p.Shutdown()
		close(p.engine.done)
	})
	return nil
}

var _ playback.Backend = (*Player)(nil)

// engine is the playback.Driver of the native backend.
type engine struct {
	session *playback.Session
	out     Output
	loader  Loader
	log     *slog.Logger

	mu       sync.Mutex
	token    uint64
	cancel   context.CancelFunc
	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	volume   *effects.Volume
	level    float64
	queued   bool

	// ended receives the token of a source that played out. The speaker
	// callback only does a non-blocking send here.
	ended chan uint64
	done  chan struct{}
}

func (e *engine) Load(t playback.Track, token uint64) {
	ctx, cancel := context.WithCancel(context.Background())
	e.mu.Lock()
	e.token = token
	e.cancel = cancel
	e.mu.Unlock()

	go e.load(ctx, t, token)
}

func (e *engine) load(ctx context.Context, t playback.Track, token uint64) {
	src, err := e.loader.Open(ctx, t.Location, func(f float64) {
		e.session.LoadProgress(token, 0, f)
	})
	if ctx.Err() != nil {
		if err == nil {
			src.Close()
		}
		return
	}
	if err != nil {
		e.session.Fail(token, events.FailureNetwork, fmt.Errorf("load %s: %w", t.Location, err))
		return
	}

	streamer, format, err := decode(t.Extension(), src)
	if err != nil {
		src.Close()
		e.session.Fail(token, events.FailureDecode, fmt.Errorf("decode %s: %w", t.Location, err))
		return
	}

	if err := e.out.Init(format.SampleRate); err != nil {
		streamer.Close()
		e.session.Fail(token, events.FailureOutput, fmt.Errorf("init output: %w", err))
		return
	}

	var s beep.Streamer = streamer
	if rate := e.out.SampleRate(); rate != format.SampleRate {
		s = beep.Resample(4, format.SampleRate, rate, streamer)
	}

	e.mu.Lock()
	if e.token != token || ctx.Err() != nil {
		e.mu.Unlock()
		streamer.Close()
		return
	}
	e.streamer = streamer
	e.format = format
	e.ctrl = &beep.Ctrl{Streamer: s, Paused: true}
	e.volume = &effects.Volume{
		Streamer: e.ctrl,
		Base:     2,
		Volume:   levelToVolume(e.level),
		Silent:   e.level <= 0,
	}
	e.mu.Unlock()

	dur := format.SampleRate.D(streamer.Len())
	e.log.Debug("source decoded", "location", t.Location, "duration", dur, "rate", format.SampleRate)
	e.session.MetadataReady(token, dur)
}

func (e *engine) Unload() {
	e.mu.Lock()
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.token = 0
	streamer := e.streamer
	queued := e.queued
	e.streamer = nil
	e.ctrl = nil
	e.volume = nil
	e.queued = false
	e.mu.Unlock()

	if queued {
		e.out.Clear()
	}
	if streamer != nil {
		streamer.Close()
	}
}

func (e *engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ctrl == nil {
		return
	}

	if !e.queued {
		token := e.token
		e.out.Play(beep.Seq(e.volume, beep.Callback(func() {
			select {
			case e.ended <- token:
			default:
			}
		})))
		e.queued = true
	}

	e.out.Lock()
	e.ctrl.Paused = false
	e.out.Unlock()
}

func (e *engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.ctrl == nil {
		return
	}
	e.out.Lock()
	e.ctrl.Paused = true
	e.out.Unlock()
}

func (e *engine) SeekTo(pos time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.streamer == nil {
		return
	}
	n := max(0, min(e.format.SampleRate.N(pos), e.streamer.Len()))
	e.out.Lock()
	err := e.streamer.Seek(n)
	e.out.Unlock()
	if err != nil {
		e.log.Warn("seek failed", "pos", pos, "err", err)
	}
}

func (e *engine) Position() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.streamer == nil {
		return 0
	}
	e.out.Lock()
	n := e.streamer.Position()
	e.out.Unlock()
	return e.format.SampleRate.D(n)
}

func (e *engine) SetVolume(v float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.level = v
	if e.volume == nil {
		return
	}
	e.out.Lock()
	e.volume.Volume = levelToVolume(v)
	e.volume.Silent = v <= 0
	e.out.Unlock()
}

// watch forwards end-of-stream signals to the session outside the output lock.
func (e *engine) watch() {
	for {
		select {
		case <-e.done:
			return
		case token := <-e.ended:
			e.mu.Lock()
			current := token == e.token
			if current {
				// The output dropped the finished sequence.
				e.queued = false
			}
			e.mu.Unlock()
			if current {
				e.session.Ended(token)
			}
		}
	}
}
