package playback

import (
	"context"
	"log/slog"
	"math"
	"sync"
)

// Player is the subset of a media player the controller drives. Queries are
// made with the controller's lock held; commands (Play, Pause, Seek) are
// issued after it is released so a player may dispatch events synchronously.
type Player interface {
	CurrentTime() float64
	Duration() float64
	Play()
	Pause()
	Seek(seconds float64)
}

// ResumeState tracks auto-resume progress for the loaded video.
type ResumeState int

const (
	StateNone ResumeState = iota
	StatePendingResume
	StateResuming
	StateResumed
)

func (s ResumeState) String() string {
	switch s {
	case StateNone:
		return "none"
	case StatePendingResume:
		return "pending_resume"
	case StateResuming:
		return "resuming"
	case StateResumed:
		return "resumed"
	}
	return "unknown"
}

// ResumeController restores saved positions and keeps them up to date.
//
// Lifecycle per video: Load picks pendingResume when a resumable record
// exists. The first OnPlay pauses the player and seeks to the saved time
// (resuming); the seeked event that follows resumes playback (resumed). No
// position is written while resuming, so the corrective seek cannot clobber
// the record it is restoring.
type ResumeController struct {
	mu     sync.Mutex
	ctx    context.Context
	player Player
	store  *PositionStore
	logger *slog.Logger

	videoID string
	state   ResumeState
	target  float64
	closed  bool

	saves ticker
	seeks debouncer
}

// NewResumeController wires a controller to player and store. ctx scopes the
// store calls made from events and timers.
func NewResumeController(ctx context.Context, player Player, store *PositionStore, sched Scheduler) *ResumeController {
	if sched == nil {
		sched = SystemScheduler
	}
	return &ResumeController{
		ctx:    ctx,
		player: player,
		store:  store,
		logger: slog.Default().With(slog.String("component", "resume")),
		saves:  ticker{sched: sched, every: store.cfg.SaveInterval},
		seeks:  debouncer{sched: sched, window: store.cfg.SeekDebounce},
	}
}

// Load switches to videoID, cancelling timers that belonged to the previous
// video, and returns the resulting state.
func (c *ResumeController) Load(videoID string) ResumeState {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.saves.stop()
	c.seeks.cancel()
	c.videoID = videoID
	c.state = StateNone
	c.target = 0
	if rec := c.store.Load(c.ctx, videoID); c.store.ShouldResume(rec) {
		c.state = StatePendingResume
		c.target = rec.Time
		c.logger.Debug("resume pending", slog.String("video_id", videoID), slog.Float64("time", rec.Time))
	}
	return c.state
}

// State returns the current resume state.
func (c *ResumeController) State() ResumeState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SaveTickerActive reports whether periodic saving is armed.
func (c *ResumeController) SaveTickerActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.saves.active()
}

// OnPlay handles the player's play event.
func (c *ResumeController) OnPlay() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	switch c.state {
	case StatePendingResume:
		c.state = StateResuming
		c.seeks.cancel()
		target := c.target
		c.mu.Unlock()
		c.player.Pause()
		c.player.Seek(target)
		return
	case StateResuming:
		// playback restarts once the corrective seek lands
	default:
		c.saves.start(c.tick)
	}
	c.mu.Unlock()
}

// OnPause saves once and stops periodic saving.
func (c *ResumeController) OnPause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.state == StateResuming {
		return
	}
	c.saves.stop()
	c.saveLocked()
}

// OnSeeked completes a pending resume, or saves once after a user seek.
// An armed save ticker keeps running; only its period restarts.
func (c *ResumeController) OnSeeked() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if c.state == StateResuming {
		c.state = StateResumed
		c.logger.Debug("resumed", slog.String("video_id", c.videoID), slog.Float64("time", c.target))
		c.mu.Unlock()
		c.player.Play()
		return
	}
	c.saveLocked()
	if c.saves.active() {
		c.saves.start(c.tick)
	}
	c.mu.Unlock()
}

// OnEnded stops saving and forgets the position.
func (c *ResumeController) OnEnded() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.saves.stop()
	c.seeks.cancel()
	if c.videoID != "" {
		c.store.Clear(c.ctx, c.videoID)
	}
}

// OnBeforeUnload saves once before the page or process goes away.
func (c *ResumeController) OnBeforeUnload() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.state == StateResuming {
		return
	}
	c.saveLocked()
}

// RequestSeek coalesces user seeks; only the last target within the debounce
// window reaches the player.
func (c *ResumeController) RequestSeek(t float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.seeks.push(t, c.commitSeek)
}

func (c *ResumeController) commitSeek(gen uint64) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	t, ok := c.seeks.take(gen)
	c.mu.Unlock()
	if ok {
		c.player.Seek(t)
	}
}

// Close cancels every timer. Events after Close are ignored.
func (c *ResumeController) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.saves.stop()
	c.seeks.cancel()
}

func (c *ResumeController) tick(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || !c.saves.current(gen) {
		return
	}
	c.saveLocked()
	c.saves.rearm(gen, c.tick)
}

func (c *ResumeController) saveLocked() {
	if c.state == StateResuming || c.videoID == "" {
		return
	}
	t, d := c.player.CurrentTime(), c.player.Duration()
	if !(t > 0) || !(d > 0) || math.IsInf(d, 0) {
		return
	}
	c.store.Save(c.ctx, c.videoID, t, d)
}
