package events

import (
	"time"

	"github.com/llehouerou/tapedeck/internal/ui/element"
)

// Event names dispatched on the bus.
const (
	Play               = "play"
	Pause              = "pause"
	Playing            = "playing"
	Seek               = "seek"
	SourceBeforeChange = "source-before-change"
	SourceChanged      = "source-changed"
	Volume             = "volume"
	LoopingChanged     = "looping-changed"
	LoadProgress       = "load-progress"
	Ended              = "ended"
	Ready              = "ready"
	Error              = "error"

	DragStart = "drag-start"
	DragMove  = "drag-move"
	DragStop  = "drag-stop"

	ContextElementChanged = "context-element-changed"
	PlaylistCreated       = "playlist-created"
)

// Position is the payload of Playing events.
type Position struct {
	Position time.Duration
	Duration time.Duration
}

// SeekInfo is the payload of Seek events.
type SeekInfo struct {
	Position time.Duration
	Percent  float64
	Duration time.Duration
}

// SourceChange is the payload of SourceBeforeChange and SourceChanged.
// Before a change Current is the old source and New the incoming one;
// after a change Current is the new source and Last the previous one.
type SourceChange struct {
	Current string
	New     string
	Last    string
}

// Progress is a loaded range, both ends in [0,1].
type Progress struct {
	Start float64
	End   float64
}

// ContextChange is the payload of ContextElementChanged.
type ContextChange struct {
	Old *element.Element
	New *element.Element
}

// Drag is the payload of drag events.
type Drag struct {
	Offset    int
	MaxTravel int
}

// Fraction returns the playhead offset as a fraction of the travel.
func (d Drag) Fraction() float64 {
	if d.MaxTravel <= 0 {
		return 0
	}
	return float64(d.Offset) / float64(d.MaxTravel)
}

// FailureKind classifies backend failures.
type FailureKind string

const (
	FailureNetwork FailureKind = "network"
	FailureDecode  FailureKind = "decode"
	FailureOutput  FailureKind = "output"
	FailureBridge  FailureKind = "bridge"
)

// Failure is the payload of Error events.
type Failure struct {
	Kind   FailureKind
	Source string
	Err    error
}
