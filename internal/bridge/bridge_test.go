package bridge

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/tapedeck/internal/events"
	"github.com/llehouerou/tapedeck/internal/playback"
)

// fakeAgent is a websocket peer standing in for the remote player.
type fakeAgent struct {
	t        *testing.T
	server   *httptest.Server
	commands chan command

	mu    sync.Mutex
	conn  *websocket.Conn
	dials int
	up    chan struct{}
}

func newFakeAgent(t *testing.T) *fakeAgent {
	t.Helper()
	a := &fakeAgent{
		t:        t,
		commands: make(chan command, 32),
		up:       make(chan struct{}),
	}
	upgrader := websocket.Upgrader{}
	a.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		a.mu.Lock()
		a.conn = conn
		a.dials++
		first := a.dials == 1
		a.mu.Unlock()
		if first {
			close(a.up)
		}
		for {
			var cmd command
			if err := conn.ReadJSON(&cmd); err != nil {
				return
			}
			a.commands <- cmd
		}
	}))
	t.Cleanup(a.server.Close)
	return a
}

func (a *fakeAgent) url() string {
	return "ws" + strings.TrimPrefix(a.server.URL, "http")
}

func (a *fakeAgent) send(msg message) {
	a.t.Helper()
	<-a.up
	a.mu.Lock()
	defer a.mu.Unlock()
	require.NoError(a.t, a.conn.WriteJSON(msg))
}

func (a *fakeAgent) next() command {
	a.t.Helper()
	select {
	case cmd := <-a.commands:
		return cmd
	case <-time.After(2 * time.Second):
		a.t.Fatal("no command from bridge")
		return command{}
	}
}

func (a *fakeAgent) dropConnection() {
	<-a.up
	a.mu.Lock()
	defer a.mu.Unlock()
	_ = a.conn.Close()
}

func (a *fakeAgent) dialCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dials
}

type boundContext struct{ backend playback.Backend }

func (c *boundContext) SetBackend(b playback.Backend) { c.backend = b }

func newConnectedBridge(t *testing.T, a *fakeAgent) (*Bridge, *events.Bus) {
	t.Helper()
	bus := events.NewBus()
	b := New(bus, a.url(), nil)
	t.Cleanup(func() { _ = b.Close() })

	ui := &boundContext{}
	require.NoError(t, b.Init(playback.Config{Provider: "http"}, ui))
	assert.Same(t, b, ui.backend)

	hello := a.next()
	require.Equal(t, cmdHello, hello.Cmd)
	assert.NotEmpty(t, hello.Client)
	return b, bus
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, 2*time.Second, 5*time.Millisecond)
}

func TestBridge_LoadPlayAndTime(t *testing.T) {
	a := newFakeAgent(t)
	b, bus := newConnectedBridge(t, a)

	var mu sync.Mutex
	var positions []events.Position
	_ = bus.On(events.Listen(func(e events.Event) {
		mu.Lock()
		positions = append(positions, e.Data.(events.Position))
		mu.Unlock()
	}), events.Playing)

	b.SetSource(playback.Track{Location: "http://host/a.flv", Duration: 90 * time.Second})
	load := a.next()
	assert.Equal(t, cmdLoad, load.Cmd)
	assert.Equal(t, "http://host/a.flv", load.File)
	assert.Equal(t, "http", load.Provider)
	assert.Equal(t, 90.0, load.Duration)
	assert.Equal(t, b.Token(), load.Token)

	b.Play()
	assert.True(t, b.IsPlaying(), "play before metadata is remembered")

	a.send(message{Event: evtMeta, Token: load.Token, Duration: 120})
	waitFor(t, func() bool { return b.State() == playback.StatePlaying })
	assert.Equal(t, cmdPlay, a.next().Cmd)
	assert.Equal(t, 120*time.Second, b.Duration())

	a.send(message{Event: evtTime, Token: load.Token, Position: 30})
	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(positions) > 0
	})
	mu.Lock()
	assert.Equal(t, 30*time.Second, positions[0].Position)
	mu.Unlock()
	assert.Equal(t, 30*time.Second, b.Position())
}

func TestBridge_Commands(t *testing.T) {
	a := newFakeAgent(t)
	b, _ := newConnectedBridge(t, a)

	b.SetSource(playback.Track{Location: "a.mp3"})
	load := a.next()
	a.send(message{Event: evtMeta, Token: load.Token, Duration: 100})
	waitFor(t, b.Ready)

	b.Seek(25 * time.Second)
	seek := a.next()
	require.Equal(t, cmdSeek, seek.Cmd)
	require.NotNil(t, seek.Position)
	assert.Equal(t, 25.0, *seek.Position)

	b.SetVolume(0.5)
	vol := a.next()
	require.Equal(t, cmdVolume, vol.Cmd)
	require.NotNil(t, vol.Volume)
	assert.Equal(t, 50.0, *vol.Volume)

	b.Play()
	assert.Equal(t, cmdPlay, a.next().Cmd)
	b.Pause(false)
	assert.Equal(t, cmdPause, a.next().Cmd)
}

func TestBridge_BufferProgressStartsAtLastSeek(t *testing.T) {
	a := newFakeAgent(t)
	b, bus := newConnectedBridge(t, a)

	progress := make(chan events.Progress, 4)
	_ = bus.On(events.Listen(func(e events.Event) {
		progress <- e.Data.(events.Progress)
	}), events.LoadProgress)

	b.SetSource(playback.Track{Location: "a.flv"})
	load := a.next()
	a.send(message{Event: evtMeta, Token: load.Token, Duration: 100})
	waitFor(t, b.Ready)

	b.Seek(50 * time.Second)
	a.next()
	a.send(message{Event: evtBuffer, Token: load.Token, BufferPercent: 80})

	select {
	case p := <-progress:
		assert.InDelta(t, 0.5, p.Start, 1e-9)
		assert.InDelta(t, 1.0, p.End, 1e-9)
	case <-time.After(2 * time.Second):
		t.Fatal("no load-progress event")
	}
}

func TestBridge_CompleteRewindsAndEnds(t *testing.T) {
	a := newFakeAgent(t)
	b, bus := newConnectedBridge(t, a)

	ended := make(chan struct{}, 1)
	_ = bus.On(events.Listen(func(events.Event) { ended <- struct{}{} }), events.Ended)

	b.SetSource(playback.Track{Location: "a.flv"})
	load := a.next()
	a.send(message{Event: evtMeta, Token: load.Token, Duration: 10})
	waitFor(t, b.Ready)
	b.Play()
	a.next()

	a.send(message{Event: evtComplete, Token: load.Token})
	select {
	case <-ended:
	case <-time.After(2 * time.Second):
		t.Fatal("no ended event")
	}
	assert.Equal(t, playback.StatePaused, b.State())
	assert.Equal(t, time.Duration(0), b.Position())
}

func TestBridge_IgnoresStaleTokens(t *testing.T) {
	a := newFakeAgent(t)
	b, _ := newConnectedBridge(t, a)

	b.SetSource(playback.Track{Location: "a.flv"})
	first := a.next()
	b.SetSource(playback.Track{Location: "b.flv"})
	second := a.next()
	require.NotEqual(t, first.Token, second.Token)

	a.send(message{Event: evtMeta, Token: first.Token, Duration: 10})
	a.send(message{Event: evtMeta, Token: second.Token, Duration: 20})
	waitFor(t, b.Ready)
	assert.Equal(t, 20*time.Second, b.Duration())
}

func TestBridge_AgentErrorFailsSource(t *testing.T) {
	a := newFakeAgent(t)
	b, bus := newConnectedBridge(t, a)

	failures := make(chan events.Failure, 1)
	_ = bus.On(events.Listen(func(e events.Event) {
		failures <- e.Data.(events.Failure)
	}), events.Error)

	b.SetSource(playback.Track{Location: "a.flv"})
	load := a.next()
	a.send(message{Event: evtError, Token: load.Token, Error: "stream not found"})

	select {
	case f := <-failures:
		assert.Equal(t, events.FailureBridge, f.Kind)
		assert.Equal(t, "a.flv", f.Source)
		assert.ErrorContains(t, f.Err, "stream not found")
	case <-time.After(2 * time.Second):
		t.Fatal("no error event")
	}
	assert.Equal(t, playback.StateIdle, b.State())
}

func TestBridge_ConnectionLossFailsSource(t *testing.T) {
	a := newFakeAgent(t)
	b, _ := newConnectedBridge(t, a)

	b.SetSource(playback.Track{Location: "a.flv"})
	a.next()
	a.dropConnection()

	waitFor(t, func() bool { return b.State() == playback.StateIdle })
	assert.Empty(t, b.Source())
}

func TestBridge_InitRedialsAfterConnectionLoss(t *testing.T) {
	a := newFakeAgent(t)
	b, _ := newConnectedBridge(t, a)

	a.dropConnection()
	waitFor(t, func() bool { return !b.connected() })

	ui := &boundContext{}
	require.NoError(t, b.Init(playback.Config{}, ui))
	assert.Same(t, b, ui.backend)
	assert.True(t, b.connected())
	assert.Equal(t, 2, a.dialCount())

	hello := a.next()
	assert.Equal(t, cmdHello, hello.Cmd)

	b.SetSource(playback.Track{Location: "b.flv"})
	assert.Equal(t, cmdLoad, a.next().Cmd)
}

func TestBridge_Init(t *testing.T) {
	t.Run("requires websocket url", func(t *testing.T) {
		b := New(events.NewBus(), "http://localhost", nil)
		defer b.Close()
		assert.False(t, b.IsSupported())
		assert.ErrorIs(t, b.Init(playback.Config{}, nil), ErrNotConfigured)
	})

	t.Run("second init only rebinds", func(t *testing.T) {
		a := newFakeAgent(t)
		b, _ := newConnectedBridge(t, a)
		ui := &boundContext{}
		require.NoError(t, b.Init(playback.Config{}, ui))
		assert.Same(t, b, ui.backend)
		select {
		case cmd := <-a.commands:
			t.Fatalf("unexpected command %q after rebind", cmd.Cmd)
		case <-time.After(50 * time.Millisecond):
		}
	})

	t.Run("closed", func(t *testing.T) {
		b := New(events.NewBus(), "ws://localhost:1", nil)
		require.NoError(t, b.Close())
		assert.ErrorIs(t, b.Init(playback.Config{}, nil), ErrClosed)
		assert.False(t, b.IsSupported())
	})
}

func TestBridge_CanPlayType(t *testing.T) {
	b := New(events.NewBus(), "ws://localhost:1", nil)
	defer b.Close()
	assert.True(t, b.CanPlayType("flv"))
	assert.True(t, b.CanPlayType("mp3"))
	assert.False(t, b.CanPlayType("flac"))
	assert.Equal(t, Kind, b.Kind())
}
