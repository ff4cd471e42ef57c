package playback

import (
	"slices"
	"sync"
	"time"

	"github.com/llehouerou/tapedeck/internal/events"
)

// Mock is a test double for Backend. Loads never complete on their own:
// tests drive them with CompleteLoad, Finish and FailLoad.
type Mock struct {
	*Session
	driver *mockDriver

	mu        sync.Mutex
	kind      string
	types     []string
	supported bool
	ui        Context
	initCalls int
	closed    bool
}

// NewMock creates a supported mock backend able to play the given extensions.
func NewMock(bus *events.Bus, types ...string) *Mock {
	d := &mockDriver{}
	m := &Mock{
		driver:    d,
		kind:      "mock",
		types:     types,
		supported: true,
	}
	m.Session = NewSession(bus, d, nil)
	// Tests emit playing ticks explicitly.
	m.Configure(Config{PollInterval: -1})
	return m
}

func (m *Mock) Init(cfg Config, ui Context) error {
	m.mu.Lock()
	m.initCalls++
	m.ui = ui
	m.mu.Unlock()

	if ui != nil {
		ui.SetBackend(m)
	}
	return nil
}

func (m *Mock) CanPlayType(ext string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Contains(m.types, ext)
}

func (m *Mock) IsSupported() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.supported
}

func (m *Mock) Kind() string { return m.kind }

func (m *Mock) Close() error {
	m.Shutdown()
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

// Test helpers

func (m *Mock) SetSupported(ok bool) {
	m.mu.Lock()
	m.supported = ok
	m.mu.Unlock()
}

func (m *Mock) SetKind(kind string) { m.kind = kind }

func (m *Mock) InitCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.initCalls
}

func (m *Mock) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// CompleteLoad reports metadata for the current source.
func (m *Mock) CompleteLoad(dur time.Duration) {
	m.MetadataReady(m.Token(), dur)
}

// ReportProgress reports a loaded range for the current source.
func (m *Mock) ReportProgress(start, end float64) {
	m.LoadProgress(m.Token(), start, end)
}

// Finish simulates the current source playing to its end.
func (m *Mock) Finish() {
	m.Ended(m.Token())
}

// FailLoad simulates a failure of the current source.
func (m *Mock) FailLoad(kind events.FailureKind, err error) {
	m.Fail(m.Token(), kind, err)
}

// EmitTick emits a playing event at the given position.
func (m *Mock) EmitTick(pos time.Duration) {
	m.driver.setPosition(pos)
	m.Tick(m.Token())
}

// SetPosition sets the position reported by the driver.
func (m *Mock) SetPosition(pos time.Duration) { m.driver.setPosition(pos) }

// Calls returns the driver operations recorded so far, e.g. "load:a.mp3",
// "start", "stop", "seek:30s".
func (m *Mock) Calls() []string { return m.driver.recorded() }

// ResetCalls clears the recorded driver operations.
func (m *Mock) ResetCalls() { m.driver.reset() }

// Verify Mock implements Backend at compile time.
var _ Backend = (*Mock)(nil)

type mockDriver struct {
	mu       sync.Mutex
	calls    []string
	position time.Duration
}

func (d *mockDriver) record(call string) {
	d.mu.Lock()
	d.calls = append(d.calls, call)
	d.mu.Unlock()
}

func (d *mockDriver) recorded() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.calls)
}

func (d *mockDriver) reset() {
	d.mu.Lock()
	d.calls = nil
	d.mu.Unlock()
}

func (d *mockDriver) setPosition(pos time.Duration) {
	d.mu.Lock()
	d.position = pos
	d.mu.Unlock()
}

func (d *mockDriver) Load(t Track, _ uint64) {
	d.setPosition(0)
	d.record("load:" + t.Location)
}

func (d *mockDriver) Unload() { d.record("unload") }
func (d *mockDriver) Start()  { d.record("start") }
func (d *mockDriver) Stop()   { d.record("stop") }

func (d *mockDriver) SeekTo(pos time.Duration) {
	d.setPosition(pos)
	d.record("seek:" + pos.String())
}

func (d *mockDriver) Position() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.position
}

func (d *mockDriver) SetVolume(float64) { d.record("volume") }
