package bridge

import "time"

// Commands sent to the agent.
const (
	cmdHello  = "hello"
	cmdLoad   = "load"
	cmdPlay   = "play"
	cmdPause  = "pause"
	cmdSeek   = "seek"
	cmdVolume = "volume"
)

// Events pushed by the agent.
const (
	evtPlay     = "play"
	evtPause    = "pause"
	evtComplete = "complete"
	evtTime     = "time"
	evtBuffer   = "buffer"
	evtMeta     = "meta"
	evtError    = "error"
)

// command is a message to the agent. Times are in seconds and volume in
// percent, as remote players expect them.
type command struct {
	Cmd      string   `json:"cmd"`
	Client   string   `json:"client,omitempty"`
	Token    uint64   `json:"token,omitempty"`
	File     string   `json:"file,omitempty"`
	Provider string   `json:"provider,omitempty"`
	Duration float64  `json:"duration,omitempty"`
	Position *float64 `json:"position,omitempty"`
	Volume   *float64 `json:"volume,omitempty"`
}

// message is an event from the agent. Token echoes the token of the load
// the event belongs to; zero means the current source.
type message struct {
	Event         string  `json:"event"`
	Token         uint64  `json:"token,omitempty"`
	Position      float64 `json:"position,omitempty"`
	Duration      float64 `json:"duration,omitempty"`
	BufferPercent float64 `json:"bufferPercent,omitempty"`
	Error         string  `json:"error,omitempty"`
}

func seconds(d time.Duration) float64 {
	return d.Seconds()
}

func fromSeconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
