package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/llehouerou/tapedeck/internal/events"
)

func TestObserve(t *testing.T) {
	bus := events.NewBus()
	m := New(bus)
	defer m.Close()

	bus.Emit(events.SourceChanged, events.SourceChange{Current: "a.mp3"})
	bus.Emit(events.LoadProgress, events.Progress{Start: 0, End: 0.4})
	bus.Emit(events.Play, nil)
	bus.Emit(events.Seek, events.SeekInfo{Percent: 0.25})
	bus.Emit(events.DragStop, events.Drag{Offset: 5, MaxTravel: 10})
	bus.Emit(events.Volume, 0.6)
	bus.Emit(events.Error, events.Failure{Kind: events.FailureNetwork, Err: errors.New("x")})

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"track switches", testutil.ToFloat64(m.TrackSwitches), 1},
		{"load progress", testutil.ToFloat64(m.LoadProgress), 0.4},
		{"seeks", testutil.ToFloat64(m.Seeks), 1},
		{"drags", testutil.ToFloat64(m.Drags), 1},
		{"volume", testutil.ToFloat64(m.Volume), 0.6},
		{"playing after error", testutil.ToFloat64(m.Playing), 0},
		{"network errors", testutil.ToFloat64(m.Errors.WithLabelValues("network")), 1},
		{"play events", testutil.ToFloat64(m.EventsTotal.WithLabelValues(events.Play)), 1},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestPlayingGauge(t *testing.T) {
	bus := events.NewBus()
	m := New(bus)
	defer m.Close()

	bus.Emit(events.Play, nil)
	if testutil.ToFloat64(m.Playing) != 1 {
		t.Error("playing gauge not set on play")
	}
	bus.Emit(events.Ended, nil)
	if testutil.ToFloat64(m.Playing) != 0 || testutil.ToFloat64(m.TracksEnded) != 1 {
		t.Error("ended not recorded")
	}
}

func TestClose(t *testing.T) {
	bus := events.NewBus()
	m := New(bus)
	m.Close()

	bus.Emit(events.Seek, events.SeekInfo{})
	if testutil.ToFloat64(m.Seeks) != 0 {
		t.Error("closed metrics still recording")
	}
}

func TestRegistryGathers(t *testing.T) {
	m := New(events.NewBus())
	defer m.Close()

	if n, err := testutil.GatherAndCount(m.Registry, "tapedeck_seeks_total"); err != nil || n != 1 {
		t.Errorf("GatherAndCount() = %d, %v", n, err)
	}
}
