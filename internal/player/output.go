package player

import (
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

// Output is the audio sink streamers are mixed into.
type Output interface {
	// Init opens the device at sr. Only the first call has an effect;
	// later streams are resampled to the initial rate.
	Init(sr beep.SampleRate) error
	SampleRate() beep.SampleRate
	Play(s beep.Streamer)
	Clear()
	// Lock guards streamer state the output may be reading.
	Lock()
	Unlock()
}

// Speaker is the Output backed by the system audio device.
type Speaker struct {
	mu   sync.Mutex
	rate beep.SampleRate
}

// NewSpeaker returns an uninitialized speaker output.
func NewSpeaker() *Speaker {
	return &Speaker{}
}

func (s *Speaker) Init(sr beep.SampleRate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rate != 0 {
		return nil
	}
	if err := speaker.Init(sr, sr.N(time.Second/10)); err != nil {
		return err
	}
	s.rate = sr
	return nil
}

func (s *Speaker) SampleRate() beep.SampleRate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rate
}

func (s *Speaker) Play(st beep.Streamer) { speaker.Play(st) }
func (s *Speaker) Clear()                { speaker.Clear() }
func (s *Speaker) Lock()                 { speaker.Lock() }
func (s *Speaker) Unlock()               { speaker.Unlock() }
