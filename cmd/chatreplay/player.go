package main

import (
	"sync"
	"time"
)

type eventKind int

const (
	evPlay eventKind = iota
	evPause
	evSeeked
	evEnded
)

func (k eventKind) String() string {
	return [...]string{"play", "pause", "seeked", "ended"}[k]
}

// clockPlayer is a headless player whose position advances with wall time.
// Commands queue events instead of dispatching them, the way a browser
// media element fires events on a later turn of the event loop.
type clockPlayer struct {
	mu       sync.Mutex
	now      func() time.Time
	speed    float64
	duration float64
	pos      float64
	playing  bool
	last     time.Time

	pending []eventKind
	notify  chan struct{}
}

func newClockPlayer(duration, speed float64) *clockPlayer {
	if speed <= 0 {
		speed = 1
	}
	return &clockPlayer{
		now:      time.Now,
		speed:    speed,
		duration: duration,
		notify:   make(chan struct{}, 1),
	}
}

func (p *clockPlayer) emitLocked(k eventKind) {
	p.pending = append(p.pending, k)
	select {
	case p.notify <- struct{}{}:
	default:
	}
}

func (p *clockPlayer) advanceLocked() {
	now := p.now()
	if p.playing {
		p.pos += now.Sub(p.last).Seconds() * p.speed
		if p.duration > 0 && p.pos >= p.duration {
			p.pos = p.duration
			p.playing = false
			p.emitLocked(evEnded)
		}
	}
	p.last = now
}

// Events returns queued events in dispatch order.
func (p *clockPlayer) Events() []eventKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := p.pending
	p.pending = nil
	return out
}

func (p *clockPlayer) CurrentTime() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.advanceLocked()
	return p.pos
}

func (p *clockPlayer) Duration() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.duration
}

func (p *clockPlayer) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.advanceLocked()
	if p.playing {
		return
	}
	p.playing = true
	p.emitLocked(evPlay)
}

func (p *clockPlayer) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.advanceLocked()
	if !p.playing {
		return
	}
	p.playing = false
	p.emitLocked(evPause)
}

func (p *clockPlayer) Seek(seconds float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.advanceLocked()
	if seconds < 0 {
		seconds = 0
	}
	if p.duration > 0 && seconds > p.duration {
		seconds = p.duration
	}
	p.pos = seconds
	p.emitLocked(evSeeked)
}
