package chatsync

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"sync"

	"github.com/onnwee/vod-archive/telemetry"
)

// Fetcher loads chat for an inclusive range of seconds. Implementations fail
// soft: errors are logged and reported as no messages.
type Fetcher interface {
	FetchRange(ctx context.Context, videoID string, start, end int) []ChatMessage
}

// Overlay is a secondary view (the fullscreen chat overlay) that mirrors the
// display buffer while Active.
type Overlay interface {
	Active() bool
	Render(msgs []ChatMessage)
}

// Config sizes the engine's buffers.
type Config struct {
	DisplayCap int
	SeenCap    int
	SeenKeep   int
}

func DefaultConfig() Config {
	return Config{DisplayCap: 50, SeenCap: 200, SeenKeep: 100}
}

// Engine drives chat replay from player time updates. Fetches run in the
// background; results that arrive after a video switch or seek are dropped.
type Engine struct {
	mu      sync.Mutex
	fetcher Fetcher
	overlay Overlay
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	videoID    string
	index      *TimecodeIndex
	gen        uint64
	started    bool
	lastSecond int
	buffer     *DisplayBuffer
	seen       *SeenSet
}

// NewEngine returns an engine with no video loaded. overlay may be nil.
func NewEngine(fetcher Fetcher, overlay Overlay, cfg Config) *Engine {
	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		fetcher:    fetcher,
		overlay:    overlay,
		logger:     slog.Default().With(slog.String("component", "chatsync")),
		ctx:        ctx,
		cancel:     cancel,
		lastSecond: -1,
		buffer:     NewDisplayBuffer(cfg.DisplayCap),
		seen:       NewSeenSet(cfg.SeenCap, cfg.SeenKeep),
	}
}

// Load switches to videoID. index may be nil while timecodes are still being
// fetched; supply it later with SetIndex.
func (e *Engine) Load(videoID string, index *TimecodeIndex) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.gen++
	e.videoID = videoID
	e.index = index
	e.started = false
	e.lastSecond = -1
	e.buffer.Reset()
	e.seen.Reset()
}

// SetIndex installs timecodes for videoID; ignored if another video has been
// loaded since.
func (e *Engine) SetIndex(videoID string, index *TimecodeIndex) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if videoID != e.videoID {
		return
	}
	e.index = index
}

// IndexLoaded reports whether timecodes are known for the current video.
func (e *Engine) IndexLoaded() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.index != nil
}

// OnPlay marks playback as started; time updates before it are ignored.
func (e *Engine) OnPlay() {
	e.mu.Lock()
	e.started = true
	e.mu.Unlock()
}

// OnTimeUpdate handles a player time update.
func (e *Engine) OnTimeUpdate(seconds float64) {
	if !(seconds > 0) {
		return
	}
	s := int(math.Floor(seconds))
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.started || s == e.lastSecond {
		return
	}
	e.lastSecond = s
	e.processLocked(s)
}

// OnSeeked clears the buffer and loads the second the player landed on.
func (e *Engine) OnSeeked(seconds float64) {
	e.mu.Lock()
	if !e.started {
		e.mu.Unlock()
		return
	}
	e.gen++
	e.buffer.Reset()
	e.seen.Reset()
	s := int(math.Floor(math.Max(seconds, 0)))
	e.lastSecond = s
	e.processLocked(s)
	mirror := e.mirrorLocked()
	e.mu.Unlock()
	mirror()
}

func (e *Engine) processLocked(s int) {
	if !e.index.Has(s) {
		return
	}
	gen, videoID := e.gen, e.videoID
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		msgs := e.fetcher.FetchRange(e.ctx, videoID, s, s)
		e.apply(gen, videoID, s, msgs)
	}()
}

func (e *Engine) apply(gen uint64, videoID string, second int, msgs []ChatMessage) {
	e.mu.Lock()
	if gen != e.gen || videoID != e.videoID {
		e.mu.Unlock()
		telemetry.IncChatFetch("stale")
		e.logger.Debug("dropping stale chat batch", slog.String("video_id", videoID), slog.Int("second", second))
		return
	}
	if len(msgs) == 0 {
		e.mu.Unlock()
		telemetry.IncChatFetch("empty")
		return
	}
	telemetry.IncChatFetch("ok")
	batch := make([]ChatMessage, 0, len(msgs))
	for _, m := range msgs {
		if e.seen.Add(KeyOf(m)) {
			batch = append(batch, m)
		}
	}
	if len(batch) == 0 {
		e.mu.Unlock()
		return
	}
	sort.SliceStable(batch, func(i, j int) bool {
		if batch[i].VideoTimestamp != batch[j].VideoTimestamp {
			return batch[i].VideoTimestamp < batch[j].VideoTimestamp
		}
		return batch[i].OriginalTimestamp < batch[j].OriginalTimestamp
	})
	e.buffer.Append(batch)
	e.seen.Trim()
	mirror := e.mirrorLocked()
	e.mu.Unlock()
	mirror()
}

// mirrorLocked snapshots the buffer for the overlay; the returned func renders
// it and must be called without the lock.
func (e *Engine) mirrorLocked() func() {
	if e.overlay == nil || !e.overlay.Active() {
		return func() {}
	}
	snap := e.buffer.Snapshot()
	return func() { e.overlay.Render(snap) }
}

// Messages returns a snapshot of the display buffer.
func (e *Engine) Messages() []ChatMessage {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.buffer.Snapshot()
}

// SeenLen is the size of the de-duplication set.
func (e *Engine) SeenLen() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.seen.Len()
}

// Wait blocks until in-flight fetches have been applied or dropped.
func (e *Engine) Wait() { e.wg.Wait() }

// Close cancels in-flight fetches and waits for them.
func (e *Engine) Close() {
	e.cancel()
	e.wg.Wait()
}
