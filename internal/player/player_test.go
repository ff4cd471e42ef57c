package player

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/gopxl/beep/v2"

	"github.com/llehouerou/tapedeck/internal/events"
	"github.com/llehouerou/tapedeck/internal/playback"
)

// fakeOutput records streamers instead of playing them.
type fakeOutput struct {
	mu        sync.Mutex
	rate      beep.SampleRate
	initErr   error
	streamers []beep.Streamer
	cleared   int
}

func (o *fakeOutput) Init(sr beep.SampleRate) error {
	if o.initErr != nil {
		return o.initErr
	}
	if o.rate == 0 {
		o.rate = sr
	}
	return nil
}

func (o *fakeOutput) SampleRate() beep.SampleRate { return o.rate }

func (o *fakeOutput) Play(s beep.Streamer) {
	o.mu.Lock()
	o.streamers = append(o.streamers, s)
	o.mu.Unlock()
}

func (o *fakeOutput) Clear() {
	o.mu.Lock()
	o.streamers = nil
	o.cleared++
	o.mu.Unlock()
}

func (o *fakeOutput) Lock()   { o.mu.Lock() }
func (o *fakeOutput) Unlock() { o.mu.Unlock() }

func (o *fakeOutput) playing() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.streamers)
}

// drain streams up to n samples from the first streamer, dropping it once
// exhausted, and returns the number of samples produced.
func (o *fakeOutput) drain(n int) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.streamers) == 0 {
		return 0
	}
	buf := make([][2]float64, 512)
	total := 0
	for total < n {
		got, ok := o.streamers[0].Stream(buf[:min(len(buf), n-total)])
		total += got
		if !ok {
			o.streamers = o.streamers[1:]
			break
		}
	}
	return total
}

// memLoader serves fixed bytes for every location.
type memLoader struct {
	data []byte
	err  error
}

func (l memLoader) Open(_ context.Context, _ string, progress func(float64)) (io.ReadSeekCloser, error) {
	if l.err != nil {
		return nil, l.err
	}
	progress(1)
	return nopSeekCloser{bytes.NewReader(l.data)}, nil
}

// wavBytes builds a 16-bit stereo PCM WAV file of the given length.
func wavBytes(rate, frames int) []byte {
	var b bytes.Buffer
	dataLen := frames * 4
	b.WriteString("RIFF")
	_ = binary.Write(&b, binary.LittleEndian, uint32(36+dataLen))
	b.WriteString("WAVEfmt ")
	_ = binary.Write(&b, binary.LittleEndian, uint32(16))
	_ = binary.Write(&b, binary.LittleEndian, uint16(1)) // PCM
	_ = binary.Write(&b, binary.LittleEndian, uint16(2))
	_ = binary.Write(&b, binary.LittleEndian, uint32(rate))
	_ = binary.Write(&b, binary.LittleEndian, uint32(rate*4))
	_ = binary.Write(&b, binary.LittleEndian, uint16(4))
	_ = binary.Write(&b, binary.LittleEndian, uint16(16))
	b.WriteString("data")
	_ = binary.Write(&b, binary.LittleEndian, uint32(dataLen))
	b.Write(make([]byte, dataLen))
	return b.Bytes()
}

type eventLog struct {
	mu     sync.Mutex
	events []events.Event
}

func logEvents(bus *events.Bus, types ...string) *eventLog {
	l := &eventLog{}
	_ = bus.On(events.Listen(func(e events.Event) {
		l.mu.Lock()
		l.events = append(l.events, e)
		l.mu.Unlock()
	}), types...)
	return l
}

func (l *eventLog) find(typ string) (events.Event, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.events {
		if e.Type == typ {
			return e, true
		}
	}
	return events.Event{}, false
}

func newTestPlayer(out *fakeOutput, loader Loader) (*Player, *events.Bus) {
	bus := events.NewBus()
	p := New(bus, out, loader, nil)
	_ = p.Init(playback.Config{PollInterval: -1}, nil)
	return p, bus
}

func TestPlayer_LoadReportsMetadata(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		out := &fakeOutput{}
		p, bus := newTestPlayer(out, memLoader{data: wavBytes(8000, 8000)})
		defer p.Close()
		log := logEvents(bus, events.Ready, events.LoadProgress)

		p.SetSource(playback.Track{Location: "tone.wav"})
		synctest.Wait()

		if !p.Ready() {
			t.Fatalf("State() = %v, want Ready", p.State())
		}
		if p.Duration() != time.Second {
			t.Errorf("Duration() = %v, want 1s", p.Duration())
		}
		if e, ok := log.find(events.LoadProgress); !ok || e.Data.(events.Progress).End != 1 {
			t.Errorf("load-progress = %+v, want end 1", e.Data)
		}
		if _, ok := log.find(events.Ready); !ok {
			t.Error("no ready event")
		}
		if out.playing() != 0 {
			t.Error("source queued on the output before Play")
		}
	})
}

func TestPlayer_PlaysToEndAndRewinds(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		out := &fakeOutput{}
		p, bus := newTestPlayer(out, memLoader{data: wavBytes(8000, 4000)})
		defer p.Close()
		log := logEvents(bus, events.Ended)

		p.SetSource(playback.Track{Location: "tone.wav"})
		p.Play()
		synctest.Wait()

		if p.State() != playback.StatePlaying {
			t.Fatalf("State() = %v, want Playing", p.State())
		}
		if out.playing() != 1 {
			t.Fatalf("output has %d streamers, want 1", out.playing())
		}

		if got := out.drain(1000); got != 1000 {
			t.Errorf("drained %d samples, want 1000", got)
		}
		if pos := p.Position(); pos != 125*time.Millisecond {
			t.Errorf("Position() = %v, want 125ms", pos)
		}

		out.drain(10000)
		synctest.Wait()

		if _, ok := log.find(events.Ended); !ok {
			t.Fatal("no ended event")
		}
		if p.State() != playback.StatePaused {
			t.Errorf("State() = %v, want Paused", p.State())
		}
		if p.Position() != 0 {
			t.Errorf("Position() = %v, want 0", p.Position())
		}
	})
}

func TestPlayer_LoopRequeuesSource(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		out := &fakeOutput{}
		p, _ := newTestPlayer(out, memLoader{data: wavBytes(8000, 800)})
		defer p.Close()

		p.SetLoop(true)
		p.SetSource(playback.Track{Location: "tone.wav"})
		p.Play()
		synctest.Wait()

		out.drain(10000)
		synctest.Wait()

		if p.State() != playback.StatePlaying {
			t.Errorf("State() = %v, want Playing", p.State())
		}
		if out.playing() != 1 {
			t.Errorf("output has %d streamers after loop, want 1", out.playing())
		}
	})
}

func TestPlayer_Failures(t *testing.T) {
	errNet := errors.New("connection refused")
	tests := []struct {
		name     string
		out      *fakeOutput
		loader   Loader
		location string
		want     events.FailureKind
	}{
		{"network", &fakeOutput{}, memLoader{err: errNet}, "a.wav", events.FailureNetwork},
		{"decode", &fakeOutput{}, memLoader{data: []byte("not audio")}, "a.wav", events.FailureDecode},
		{"unsupported", &fakeOutput{}, memLoader{data: wavBytes(8000, 10)}, "a.aiff", events.FailureDecode},
		{"output", &fakeOutput{initErr: errors.New("no device")}, memLoader{data: wavBytes(8000, 10)}, "a.wav", events.FailureOutput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			synctest.Test(t, func(t *testing.T) {
				p, bus := newTestPlayer(tt.out, tt.loader)
				defer p.Close()
				log := logEvents(bus, events.Error)

				p.SetSource(playback.Track{Location: tt.location})
				synctest.Wait()

				e, ok := log.find(events.Error)
				if !ok {
					t.Fatal("no error event")
				}
				if f := e.Data.(events.Failure); f.Kind != tt.want || f.Source != tt.location {
					t.Errorf("failure = %+v, want kind %s", f, tt.want)
				}
				if p.State() != playback.StateIdle {
					t.Errorf("State() = %v, want Idle", p.State())
				}
			})
		})
	}
}

func TestPlayer_SetSourceReleasesPrevious(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		out := &fakeOutput{}
		p, _ := newTestPlayer(out, memLoader{data: wavBytes(8000, 8000)})
		defer p.Close()

		p.SetSource(playback.Track{Location: "a.wav"})
		p.Play()
		synctest.Wait()

		p.SetSource(playback.Track{Location: "b.wav"})
		synctest.Wait()

		if out.cleared != 1 {
			t.Errorf("output cleared %d times, want 1", out.cleared)
		}
		if p.Source() != "b.wav" || !p.Ready() {
			t.Errorf("Source() = %q ready=%v, want b.wav ready", p.Source(), p.Ready())
		}
	})
}

func TestPlayer_Capabilities(t *testing.T) {
	p := New(events.NewBus(), &fakeOutput{}, nil, nil)
	defer p.Close()

	for _, ext := range []string{"mp3", "flac", "wav", "ogg", "opus", "m4a"} {
		if !p.CanPlayType(ext) {
			t.Errorf("CanPlayType(%q) = false", ext)
		}
	}
	if p.CanPlayType("flv") {
		t.Error("CanPlayType(flv) = true, want false")
	}
	if !p.IsSupported() || p.Kind() != Kind {
		t.Errorf("IsSupported() = %v, Kind() = %q", p.IsSupported(), p.Kind())
	}

	unsupported := New(events.NewBus(), nil, nil, nil)
	defer unsupported.Close()
	if unsupported.IsSupported() {
		t.Error("IsSupported() = true without output")
	}
}

func TestLevelToVolume(t *testing.T) {
	tests := []struct {
		level float64
		want  float64
	}{
		{1, 0},
		{1.5, 0},
		{0.5, -1},
		{0.25, -2},
		{0, silentVolume},
		{-1, silentVolume},
		{1e-9, silentVolume},
	}
	for _, tt := range tests {
		if got := levelToVolume(tt.level); got != tt.want {
			t.Errorf("levelToVolume(%v) = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestSkipID3v2(t *testing.T) {
	tag := []byte{'I', 'D', '3', 4, 0, 0, 0, 0, 0, 5, 1, 2, 3, 4, 5}
	r := bytes.NewReader(append(tag, 'f', 'L', 'a', 'C'))
	if err := skipID3v2(r); err != nil {
		t.Fatal(err)
	}
	rest, _ := io.ReadAll(r)
	if string(rest) != "fLaC" {
		t.Errorf("after skip = %q, want fLaC", rest)
	}

	plain := bytes.NewReader([]byte("fLaC0000000000"))
	if err := skipID3v2(plain); err != nil {
		t.Fatal(err)
	}
	if pos, _ := plain.Seek(0, io.SeekCurrent); pos != 0 {
		t.Errorf("position = %d, want 0 without tag", pos)
	}

	short := bytes.NewReader([]byte("ID3"))
	if err := skipID3v2(short); err != nil {
		t.Errorf("short input error = %v", err)
	}
}
