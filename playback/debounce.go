package playback

import "time"

// debouncer coalesces bursts of values into a single commit of the last one,
// window after the final call. Locking follows ticker.
type debouncer struct {
	sched   Scheduler
	window  time.Duration
	timer   Timer
	gen     uint64
	pending float64
}

func (d *debouncer) push(v float64, commit func(gen uint64)) {
	d.cancel()
	d.pending = v
	gen := d.gen
	d.timer = d.sched.AfterFunc(d.window, func() { commit(gen) })
}

// take returns the pending value if gen is still the latest push.
func (d *debouncer) take(gen uint64) (float64, bool) {
	if d.timer == nil || gen != d.gen {
		return 0, false
	}
	d.timer = nil
	d.gen++
	return d.pending, true
}

func (d *debouncer) cancel() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
}

func (d *debouncer) active() bool { return d.timer != nil }
