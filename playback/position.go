package playback

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/onnwee/vod-archive/kvstore"
	"github.com/onnwee/vod-archive/telemetry"
)

// PositionKeyPrefix namespaces position records in the backing store.
const PositionKeyPrefix = "video_position_"

// PositionRecord is the persisted playback position of one video.
type PositionRecord struct {
	VideoID   string  `json:"-"`
	Time      float64 `json:"time"`
	Duration  float64 `json:"duration"`
	Timestamp int64   `json:"timestamp"` // epoch ms of the save
}

// ResetCounts reports how many keys a bulk reset removed per namespace.
type ResetCounts struct {
	Positions   int `json:"positions"`
	Preferences int `json:"preferences"`
	Other       int `json:"other"`
}

// Total is the number of keys removed.
func (r ResetCounts) Total() int { return r.Positions + r.Preferences + r.Other }

// PositionStore persists per-video playback positions. Storage failures are
// logged and swallowed; position tracking is best-effort.
type PositionStore struct {
	kv     kvstore.Store
	cfg    Config
	now    func() time.Time
	logger *slog.Logger
}

// NewPositionStore wraps kv with the given tuning.
func NewPositionStore(kv kvstore.Store, cfg Config) *PositionStore {
	return &PositionStore{
		kv:     kv,
		cfg:    cfg,
		now:    time.Now,
		logger: slog.Default().With(slog.String("component", "position_store")),
	}
}

func positionKey(videoID string) string { return PositionKeyPrefix + videoID }

// Save records the position of videoID. Positions too early to be worth
// resuming clear any existing record; positions near the end either leave the
// record alone (last NearEndSkip seconds) or clear it (the band before that).
func (s *PositionStore) Save(ctx context.Context, videoID string, t, duration float64) {
	if videoID == "" || math.IsNaN(t) || math.IsNaN(duration) {
		return
	}
	if t < s.cfg.MinSaveTime {
		s.Clear(ctx, videoID)
		return
	}
	if t > duration-s.cfg.NearEndSkip {
		return
	}
	if t > duration-s.cfg.NearEndClear {
		s.Clear(ctx, videoID)
		return
	}
	rec := PositionRecord{Time: t, Duration: duration, Timestamp: s.now().UnixMilli()}
	data, err := json.Marshal(rec)
	if err != nil {
		s.logger.Warn("encode position", slog.String("video_id", videoID), slog.Any("err", err))
		return
	}
	if err := s.kv.Set(ctx, positionKey(videoID), data); err != nil {
		s.logger.Warn("save position", slog.String("video_id", videoID), slog.Any("err", err))
		return
	}
	telemetry.IncPositionWrite("save")
	s.logger.Debug("position saved", slog.String("video_id", videoID), slog.Float64("time", t))
}

// Load returns the saved record for videoID or nil. A corrupt record is
// deleted and reported as absent.
func (s *PositionStore) Load(ctx context.Context, videoID string) *PositionRecord {
	rec, err := s.read(ctx, positionKey(videoID))
	if err != nil {
		if !errors.Is(err, kvstore.ErrNotFound) {
			s.logger.Warn("load position", slog.String("video_id", videoID), slog.Any("err", err))
		}
		return nil
	}
	return rec
}

// read decodes one record, deleting it when it does not decode.
func (s *PositionStore) read(ctx context.Context, key string) (*PositionRecord, error) {
	data, err := s.kv.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	var rec PositionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		if derr := s.kv.Delete(ctx, key); derr == nil {
			telemetry.IncPositionWrite("purge")
		}
		return nil, fmt.Errorf("corrupt position record %s: %w", key, err)
	}
	rec.VideoID = strings.TrimPrefix(key, PositionKeyPrefix)
	return &rec, nil
}

// Clear removes the record for videoID if any.
func (s *PositionStore) Clear(ctx context.Context, videoID string) {
	if err := s.kv.Delete(ctx, positionKey(videoID)); err != nil {
		s.logger.Warn("clear position", slog.String("video_id", videoID), slog.Any("err", err))
		return
	}
	telemetry.IncPositionWrite("clear")
}

// ShouldResume reports whether rec is far enough in to auto-resume.
func (s *PositionStore) ShouldResume(rec *PositionRecord) bool {
	return rec != nil && rec.Time > s.cfg.ResumeThreshold
}

// PurgeExpired removes records older than ExpireDays along with any that fail
// to decode or carry no save timestamp. It returns the number removed.
func (s *PositionStore) PurgeExpired(ctx context.Context) int {
	keys, err := s.kv.Keys(ctx, PositionKeyPrefix)
	if err != nil {
		s.logger.Warn("list positions", slog.Any("err", err))
		return 0
	}
	cutoff := s.now().Add(-s.cfg.expireAfter()).UnixMilli()
	removed := 0
	for _, key := range keys {
		rec, err := s.read(ctx, key)
		if err != nil {
			if !errors.Is(err, kvstore.ErrNotFound) {
				removed++
			}
			continue
		}
		if rec.Timestamp > 0 && rec.Timestamp >= cutoff {
			continue
		}
		if err := s.kv.Delete(ctx, key); err != nil {
			s.logger.Warn("purge position", slog.String("key", key), slog.Any("err", err))
			continue
		}
		telemetry.IncPositionWrite("purge")
		removed++
	}
	if removed > 0 {
		s.logger.Info("purged expired positions", slog.Int("count", removed))
	}
	return removed
}

// List returns every valid record, most recently saved first.
func (s *PositionStore) List(ctx context.Context) []PositionRecord {
	keys, err := s.kv.Keys(ctx, PositionKeyPrefix)
	if err != nil {
		s.logger.Warn("list positions", slog.Any("err", err))
		return nil
	}
	out := make([]PositionRecord, 0, len(keys))
	for _, key := range keys {
		rec, err := s.read(ctx, key)
		if err != nil {
			continue
		}
		out = append(out, *rec)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp > out[j].Timestamp })
	return out
}

// ClearAll wipes every key in the backing store, positions and preferences
// included.
func (s *PositionStore) ClearAll(ctx context.Context) ResetCounts {
	var counts ResetCounts
	keys, err := s.kv.Keys(ctx, "")
	if err != nil {
		s.logger.Warn("list keys for reset", slog.Any("err", err))
		return counts
	}
	for _, key := range keys {
		if err := s.kv.Delete(ctx, key); err != nil {
			s.logger.Warn("reset key", slog.String("key", key), slog.Any("err", err))
			continue
		}
		switch {
		case strings.HasPrefix(key, PositionKeyPrefix):
			counts.Positions++
		case strings.HasPrefix(key, PreferenceKeyPrefix):
			counts.Preferences++
		default:
			counts.Other++
		}
	}
	telemetry.IncPositionWrite("reset")
	s.logger.Info("cleared all player state",
		slog.Int("positions", counts.Positions),
		slog.Int("preferences", counts.Preferences),
		slog.Int("other", counts.Other))
	return counts
}
