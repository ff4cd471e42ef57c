// Package bridge implements a playback backend that drives a remote player
// agent over a websocket. The agent plays formats the native backend cannot
// and reports its state back as events.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/llehouerou/tapedeck/internal/events"
	"github.com/llehouerou/tapedeck/internal/playback"
)

// Kind identifies the bridge backend.
const Kind = "plugin"

const (
	dialTimeout = 10 * time.Second
	writeWait   = 10 * time.Second
	pongWait    = 60 * time.Second
	pingPeriod  = pongWait * 9 / 10
	sendBuffer  = 64
)

var (
	// ErrNotConfigured is returned by Init without a ws:// or wss:// URL.
	ErrNotConfigured = errors.New("bridge: no websocket url configured")
	// ErrClosed is returned by Init after Close.
	ErrClosed = errors.New("bridge: closed")
)

var playableTypes = []string{"flv", "mp3"}

// Bridge is the remote plugin backend.
type Bridge struct {
	*playback.Session
	remote *remote
	log    *slog.Logger
	dialer *websocket.Dialer

	mu       sync.Mutex
	url      string
	provider string
	clientID string
	conn     *websocket.Conn
	closed   bool
	done     chan struct{}
}

// New creates a bridge to the agent at rawURL. The connection is made by
// the first Init.
func New(bus *events.Bus, rawURL string, log *slog.Logger) *Bridge {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	r := &remote{send: make(chan command, sendBuffer)}
	b := &Bridge{
		remote:   r,
		log:      log.With("backend", Kind),
		dialer:   websocket.DefaultDialer,
		url:      rawURL,
		clientID: uuid.NewString(),
		done:     make(chan struct{}),
	}
	b.Session = playback.NewSession(bus, r, b.log)
	r.session = b.Session
	r.log = b.log
	r.done = b.done
	// Position reports from the agent drive playing events.
	b.Configure(playback.Config{PollInterval: -1})
	return b
}

// Init connects to the agent when there is no live connection and binds ui.
// Later calls only rebind the context until the connection drops.
func (b *Bridge) Init(cfg playback.Config, ui playback.Context) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	connected := b.conn != nil
	if !connected {
		if cfg.BridgeURL != "" {
			b.url = cfg.BridgeURL
		}
		b.provider = cfg.Provider
	}
	rawURL := b.url
	b.mu.Unlock()

	if !connected {
		if !validURL(rawURL) {
			return ErrNotConfigured
		}
		if err := b.connect(rawURL); err != nil {
			return err
		}
	}

	if ui != nil {
		ui.SetBackend(b)
	}
	return nil
}

func (b *Bridge) connect(rawURL string) error {
	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()

	conn, _, err := b.dialer.DialContext(ctx, rawURL, nil)
	if err != nil {
		return fmt.Errorf("dial agent: %w", err)
	}

	b.mu.Lock()
	b.conn = conn
	b.remote.provider = b.provider
	b.mu.Unlock()

	b.log.Info("connected to agent", "url", rawURL, "client", b.clientID)
	lost, stopped := make(chan struct{}), make(chan struct{})
	go b.writePump(conn, lost, stopped)
	go b.readPump(conn, lost, stopped)

	b.remote.enqueue(command{Cmd: cmdHello, Client: b.clientID})
	return nil
}

// CanPlayType accepts the formats remote players handle.
func (b *Bridge) CanPlayType(ext string) bool {
	return slices.Contains(playableTypes, ext)
}

// IsSupported reports whether an agent URL is configured.
func (b *Bridge) IsSupported() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.closed && validURL(b.url)
}

func (b *Bridge) Kind() string { return Kind }

// Close stops the pumps and closes the connection.
func (b *Bridge) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	conn := b.conn
	close(b.done)
	b.mu.Unlock()

	b.Shutdown()
	if conn == nil {
		return nil
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
	return conn.Close()
}

var _ playback.Backend = (*Bridge)(nil)

func validURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "ws" || u.Scheme == "wss") && u.Host != ""
}

func (b *Bridge) writePump(conn *websocket.Conn, lost <-chan struct{}, stopped chan<- struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer close(stopped)

	for {
		select {
		case <-b.done:
			return
		case <-lost:
			return
		case cmd := <-b.remote.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(cmd); err != nil {
				b.log.Warn("write command", "cmd", cmd.Cmd, "err", err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (b *Bridge) readPump(conn *websocket.Conn, lost chan<- struct{}, stopped <-chan struct{}) {
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-b.done:
			default:
				b.log.Error("agent connection lost", "err", err)
				b.drop(conn, lost, stopped)
				b.Fail(b.Token(), events.FailureBridge, fmt.Errorf("read agent event: %w", err))
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		var msg message
		if err := json.Unmarshal(data, &msg); err != nil {
			b.log.Warn("malformed agent event", "err", err)
			continue
		}
		b.remote.handle(msg)
	}
}

// drop forgets a dead connection so the next Init dials again. conn is
// forgotten only after its writer has exited.
func (b *Bridge) drop(conn *websocket.Conn, lost chan<- struct{}, stopped <-chan struct{}) {
	close(lost)
	_ = conn.Close()
	<-stopped

	b.mu.Lock()
	if b.conn == conn {
		b.conn = nil
	}
	b.mu.Unlock()
}

// connected reports whether a live agent connection exists.
func (b *Bridge) connected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conn != nil
}

// remote is the playback.Driver of the bridge. It mirrors the agent state
// from the events it receives.
type remote struct {
	session  *playback.Session
	log      *slog.Logger
	send     chan command
	done     chan struct{}
	provider string

	mu       sync.Mutex
	token    uint64
	position time.Duration
	duration time.Duration
	lastSeek time.Duration
}

func (r *remote) enqueue(cmd command) {
	select {
	case <-r.done:
	case r.send <- cmd:
	default:
		r.log.Warn("command dropped, agent not keeping up", "cmd", cmd.Cmd)
	}
}

func (r *remote) Load(t playback.Track, token uint64) {
	r.mu.Lock()
	r.token = token
	r.position = 0
	r.duration = 0
	r.lastSeek = 0
	r.mu.Unlock()

	r.enqueue(command{
		Cmd:      cmdLoad,
		Token:    token,
		File:     t.Location,
		Provider: r.provider,
		Duration: seconds(t.Duration),
	})
}

func (r *remote) Unload() {
	r.mu.Lock()
	r.token = 0
	r.mu.Unlock()
}

func (r *remote) Start() { r.enqueue(command{Cmd: cmdPlay}) }
func (r *remote) Stop()  { r.enqueue(command{Cmd: cmdPause}) }

func (r *remote) SeekTo(pos time.Duration) {
	r.mu.Lock()
	r.lastSeek = pos
	r.position = pos
	r.mu.Unlock()

	s := seconds(pos)
	r.enqueue(command{Cmd: cmdSeek, Position: &s})
}

func (r *remote) Position() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.position
}

func (r *remote) SetVolume(v float64) {
	pct := v * 100
	r.enqueue(command{Cmd: cmdVolume, Volume: &pct})
}

func (r *remote) handle(msg message) {
	r.mu.Lock()
	token := r.token
	if msg.Token != 0 && msg.Token != token {
		r.mu.Unlock()
		return
	}
	if msg.Duration > 0 {
		r.duration = fromSeconds(msg.Duration)
	}
	dur := r.duration
	lastSeek := r.lastSeek
	if msg.Event == evtTime {
		r.position = fromSeconds(msg.Position)
	}
	r.mu.Unlock()

	if token == 0 {
		return
	}

	switch msg.Event {
	case evtMeta:
		r.session.MetadataReady(token, dur)
	case evtTime:
		if dur > 0 && !r.session.Ready() {
			r.session.MetadataReady(token, dur)
		}
		r.session.Tick(token)
	case evtBuffer:
		if dur <= 0 {
			return
		}
		start := float64(lastSeek) / float64(dur)
		end := min(start+msg.BufferPercent/100, 1)
		r.session.LoadProgress(token, start, end)
	case evtComplete:
		r.session.Ended(token)
	case evtPlay:
		if r.session.State() != playback.StatePlaying {
			r.session.Play()
		}
	case evtPause:
		r.session.Pause(false)
	case evtError:
		r.session.Fail(token, events.FailureBridge, fmt.Errorf("agent: %s", msg.Error))
	default:
		r.log.Debug("ignoring agent event", "event", msg.Event)
	}
}
