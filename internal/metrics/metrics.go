// Package metrics exposes playback activity as Prometheus collectors on a
// private registry, fed by a listener on the event bus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/llehouerou/tapedeck/internal/events"
)

const namespace = "tapedeck"

// observed lists the bus events recorded by the collectors.
var observed = []string{
	events.Play, events.Pause, events.Seek, events.SourceChanged, events.Volume,
	events.LoadProgress, events.Ended, events.Error,
	events.DragStart, events.DragStop, events.PlaylistCreated,
}

// Metrics holds the collectors and the registry they are registered on.
type Metrics struct {
	Registry *prometheus.Registry

	EventsTotal    *prometheus.CounterVec
	Seeks          prometheus.Counter
	Drags          prometheus.Counter
	TrackSwitches  prometheus.Counter
	TracksEnded    prometheus.Counter
	Errors         *prometheus.CounterVec
	Playlists      prometheus.Counter
	Playing        prometheus.Gauge
	Volume         prometheus.Gauge
	LoadProgress   prometheus.Gauge
	SeekPercentage prometheus.Histogram

	bus      *events.Bus
	listener *events.Listener
}

// New registers the collectors on a fresh registry and starts recording
// the events of bus.
func New(bus *events.Bus) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	m := &Metrics{
		Registry: reg,
		EventsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Total number of events emitted on the bus",
		}, []string{"type"}),
		Seeks: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "seeks_total",
			Help:      "Total number of applied seeks",
		}),
		Drags: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "drags_total",
			Help:      "Total number of completed scrubber drags",
		}),
		TrackSwitches: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "track_switches_total",
			Help:      "Total number of source changes",
		}),
		TracksEnded: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tracks_ended_total",
			Help:      "Total number of tracks played to their end",
		}),
		Errors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "playback_errors_total",
			Help:      "Total number of playback failures",
		}, []string{"kind"}),
		Playlists: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "playlists_created_total",
			Help:      "Total number of playlists set up",
		}),
		Playing: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "playing",
			Help:      "1 while a source plays, 0 otherwise",
		}),
		Volume: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "volume_ratio",
			Help:      "Current volume between 0 and 1",
		}),
		LoadProgress: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "load_progress_ratio",
			Help:      "Loaded part of the current source",
		}),
		SeekPercentage: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "seek_position_ratio",
			Help:      "Seek targets as a fraction of the duration",
			Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10),
		}),
		bus: bus,
	}
	m.listener = events.Listen(m.observe)
	_ = bus.On(m.listener, observed...)
	return m
}

func (m *Metrics) observe(e events.Event) {
	m.EventsTotal.WithLabelValues(e.Type).Inc()

	switch e.Type {
	case events.Play:
		m.Playing.Set(1)
	case events.Pause, events.Ended:
		m.Playing.Set(0)
		if e.Type == events.Ended {
			m.TracksEnded.Inc()
		}
	case events.Seek:
		m.Seeks.Inc()
		if info, ok := e.Data.(events.SeekInfo); ok {
			m.SeekPercentage.Observe(info.Percent)
		}
	case events.SourceChanged:
		m.TrackSwitches.Inc()
		m.LoadProgress.Set(0)
	case events.Volume:
		if v, ok := e.Data.(float64); ok {
			m.Volume.Set(v)
		}
	case events.LoadProgress:
		if p, ok := e.Data.(events.Progress); ok {
			m.LoadProgress.Set(p.End)
		}
	case events.Error:
		m.Playing.Set(0)
		if f, ok := e.Data.(events.Failure); ok {
			m.Errors.WithLabelValues(string(f.Kind)).Inc()
		}
	case events.DragStop:
		m.Drags.Inc()
	case events.PlaylistCreated:
		m.Playlists.Inc()
	}
}

// Close stops recording.
func (m *Metrics) Close() {
	for _, t := range observed {
		m.bus.Off(t, m.listener)
	}
}
