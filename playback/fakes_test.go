package playback

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/onnwee/vod-archive/kvstore"
)

// fakeScheduler fires timers only when Advance moves its clock past them.
type fakeScheduler struct {
	mu     sync.Mutex
	now    time.Duration
	seq    int
	timers []*fakeTimer
}

type fakeTimer struct {
	s       *fakeScheduler
	at      time.Duration
	seq     int
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	was := !t.stopped
	t.stopped = true
	return was
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	t := &fakeTimer{s: s, at: s.now + d, seq: s.seq, f: f}
	s.timers = append(s.timers, t)
	return t
}

// Advance moves the clock and runs due callbacks in order, including ones
// scheduled by earlier callbacks.
func (s *fakeScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	end := s.now + d
	s.mu.Unlock()
	for {
		s.mu.Lock()
		sort.SliceStable(s.timers, func(i, j int) bool {
			if s.timers[i].at == s.timers[j].at {
				return s.timers[i].seq < s.timers[j].seq
			}
			return s.timers[i].at < s.timers[j].at
		})
		var next *fakeTimer
		for len(s.timers) > 0 {
			t := s.timers[0]
			if t.stopped {
				s.timers = s.timers[1:]
				continue
			}
			if t.at <= end {
				next = t
				s.timers = s.timers[1:]
			}
			break
		}
		if next == nil {
			s.now = end
			s.mu.Unlock()
			return
		}
		s.now = next.at
		next.stopped = true
		s.mu.Unlock()
		next.f()
	}
}

// Pending counts live timers.
func (s *fakeScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}

type fakePlayer struct {
	mu       sync.Mutex
	current  float64
	duration float64
	playing  bool
	seeks    []float64
	pauses   int
	plays    int
}

func (p *fakePlayer) CurrentTime() float64 { p.mu.Lock(); defer p.mu.Unlock(); return p.current }
func (p *fakePlayer) Duration() float64    { p.mu.Lock(); defer p.mu.Unlock(); return p.duration }
func (p *fakePlayer) Play()                { p.mu.Lock(); p.playing = true; p.plays++; p.mu.Unlock() }
func (p *fakePlayer) Pause()               { p.mu.Lock(); p.playing = false; p.pauses++; p.mu.Unlock() }
func (p *fakePlayer) Seek(t float64) {
	p.mu.Lock()
	p.current = t
	p.seeks = append(p.seeks, t)
	p.mu.Unlock()
}

func (p *fakePlayer) set(current float64) { p.mu.Lock(); p.current = current; p.mu.Unlock() }

func (p *fakePlayer) seekLog() []float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]float64(nil), p.seeks...)
}

// countingStore counts writes reaching the backing store.
type countingStore struct {
	kvstore.Store
	mu   sync.Mutex
	sets int
}

func (c *countingStore) Set(ctx context.Context, key string, value []byte) error {
	c.mu.Lock()
	c.sets++
	c.mu.Unlock()
	return c.Store.Set(ctx, key, value)
}

func (c *countingStore) Sets() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sets
}
