package playback

import "time"

// Timer is a pending callback that can be cancelled.
type Timer interface {
	Stop() bool
}

// Scheduler runs callbacks after a delay. Callbacks run on their own goroutine.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type systemScheduler struct{}

func (systemScheduler) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// SystemScheduler schedules on the wall clock.
var SystemScheduler Scheduler = systemScheduler{}

// ticker is a repeating timer owned by exactly one controller. All methods
// must be called with the owner's lock held; fire runs unlocked and must
// check current(gen) under that lock before acting.
type ticker struct {
	sched Scheduler
	every time.Duration
	timer Timer
	gen   uint64
}

// start replaces any pending tick.
func (t *ticker) start(fire func(gen uint64)) {
	t.stop()
	t.arm(fire)
}

func (t *ticker) arm(fire func(gen uint64)) {
	gen := t.gen
	t.timer = t.sched.AfterFunc(t.every, func() { fire(gen) })
}

// rearm schedules the next tick after fire handled gen.
func (t *ticker) rearm(gen uint64, fire func(gen uint64)) {
	if gen != t.gen {
		return
	}
	t.arm(fire)
}

func (t *ticker) stop() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.gen++
}

func (t *ticker) active() bool { return t.timer != nil }

func (t *ticker) current(gen uint64) bool { return t.timer != nil && gen == t.gen }
