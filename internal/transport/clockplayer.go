package transport

import (
	"sync"
	"time"
)

// DurationFunc resolves the media duration in seconds for a source. The
// media prober provides one for local files; tests use a fixture map.
type DurationFunc func(src string) (float64, error)

// ClockPlayer is a headless Player that simulates the media clock. It
// resolves the duration through a DurationFunc and advances a position
// counter on a ticker while playing, so the whole engine runs without an
// audio device.
type ClockPlayer struct {
	durations DurationFunc
	interval  time.Duration

	mu       sync.Mutex
	gen      uint64
	cb       Callbacks
	loaded   bool
	playing  bool
	duration float64
	position float64
	rate     float64
	halt     chan struct{}
}

// NewClockPlayer creates a clock player ticking at the given interval.
func NewClockPlayer(durations DurationFunc, interval time.Duration) *ClockPlayer {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	return &ClockPlayer{durations: durations, interval: interval, rate: 1}
}

// Load resolves the duration asynchronously and reports it via OnLoaded.
func (p *ClockPlayer) Load(src string, cb Callbacks) error {
	p.mu.Lock()
	p.gen++
	gen := p.gen
	p.haltLocked()
	p.cb = cb
	p.loaded = false
	p.duration = 0
	p.position = 0
	p.mu.Unlock()

	go func() {
		duration, err := p.durations(src)
		p.mu.Lock()
		if gen != p.gen {
			p.mu.Unlock()
			return
		}
		if err == nil {
			p.loaded = true
			p.duration = duration
		}
		p.mu.Unlock()

		if err != nil {
			if cb.OnError != nil {
				cb.OnError(err)
			}
			return
		}
		if cb.OnLoaded != nil {
			cb.OnLoaded(duration)
		}
	}()
	return nil
}

// Play starts the simulated clock.
func (p *ClockPlayer) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.loaded || p.playing {
		return nil
	}
	p.playing = true
	halt := make(chan struct{})
	p.halt = halt
	go p.run(p.gen, halt)
	return nil
}

// run advances the clock until halted or the end of the media.
func (p *ClockPlayer) run(gen uint64, halt chan struct{}) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-halt:
			return
		case <-ticker.C:
			p.mu.Lock()
			if gen != p.gen || !p.playing {
				p.mu.Unlock()
				return
			}
			p.position += p.interval.Seconds() * p.rate
			ended := p.position >= p.duration
			if ended {
				p.position = p.duration
				p.playing = false
			}
			cb := p.cb
			pos := p.position
			p.mu.Unlock()

			if cb.OnTick != nil {
				cb.OnTick(pos)
			}
			if ended {
				if cb.OnEnded != nil {
					cb.OnEnded()
				}
				return
			}
		}
	}
}

// Pause halts the clock, keeping the position.
func (p *ClockPlayer) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.haltLocked()
	return nil
}

// SetPosition moves the clock.
func (p *ClockPlayer) SetPosition(seconds float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if seconds < 0 {
		seconds = 0
	}
	if p.loaded && seconds > p.duration {
		seconds = p.duration
	}
	p.position = seconds
	return nil
}

// SetRate changes how fast the clock advances.
func (p *ClockPlayer) SetRate(rate float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if rate > 0 {
		p.rate = rate
	}
	return nil
}

// Stop halts the clock and forgets the loaded media.
func (p *ClockPlayer) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gen++
	p.haltLocked()
	p.loaded = false
	p.duration = 0
	p.position = 0
	return nil
}

// Position returns the current clock position.
func (p *ClockPlayer) Position() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.position
}

func (p *ClockPlayer) haltLocked() {
	if p.playing {
		p.playing = false
		close(p.halt)
		p.halt = nil
	}
}
