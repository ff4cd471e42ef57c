package playback

import (
	"sync"
	"time"
)

// Poller calls a function at a fixed interval until stopped.
type Poller struct {
	mu       sync.Mutex
	interval time.Duration
	stop     chan struct{}
}

// NewPoller creates a stopped poller. A non-positive interval disables it.
func NewPoller(interval time.Duration) *Poller {
	return &Poller{interval: interval}
}

// SetInterval changes the interval used by the next Start.
func (p *Poller) SetInterval(d time.Duration) {
	p.mu.Lock()
	p.interval = d
	p.mu.Unlock()
}

// Start begins calling fn every interval. A running ticker is stopped first.
func (p *Poller) Start(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked()
	if p.interval <= 0 {
		return
	}

	stop := make(chan struct{})
	p.stop = stop
	go func(interval time.Duration) {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				fn()
			}
		}
	}(p.interval)
}

// Stop halts the ticker. It does not wait for an in-flight call to return,
// so fn may call Stop.
func (p *Poller) Stop() {
	p.mu.Lock()
	p.stopLocked()
	p.mu.Unlock()
}

// Running reports whether a ticker is active.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stop != nil
}

func (p *Poller) stopLocked() {
	if p.stop != nil {
		close(p.stop)
		p.stop = nil
	}
}
