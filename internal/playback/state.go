// internal/playback/state.go
package playback

// State represents the backend state machine.
//
//	┌──────┐ SetSource ┌─────────┐ metadata ┌───────┐  Play  ┌─────────┐
//	│ Idle │──────────▶│ Loading │─────────▶│ Ready │───────▶│ Playing │
//	└──────┘           └─────────┘          └───────┘        └─────────┘
//	    ▲                                                      │    ▲
//	    │ SetSource (implicit pause + reset)             Pause │    │ Play
//	    │                                                      ▼    │
//	    └───────────────────────────────────────────────── ┌─────────┐
//	                                                         │ Paused  │
//	                                                         └─────────┘
//
// End of track without loop seeks to 0 and pauses; with loop it seeks to 0
// and keeps playing.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateReady
	StatePlaying
	StatePaused
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateLoading:
		return "Loading"
	case StateReady:
		return "Ready"
	case StatePlaying:
		return "Playing"
	case StatePaused:
		return "Paused"
	default:
		return "Unknown"
	}
}

// IsActive returns true if playback is active (playing or paused).
func (s State) IsActive() bool {
	return s == StatePlaying || s == StatePaused
}

// HasMetadata returns true once the duration of the source is known.
func (s State) HasMetadata() bool {
	return s == StateReady || s.IsActive()
}
