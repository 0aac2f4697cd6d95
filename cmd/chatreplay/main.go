// Command chatreplay plays back a VOD's archived chat against a running
// archive server, persisting the playback position like the web player does.
//
// Usage:
//
//	chatreplay -video 123 [-server URL] [-store memory|badger|redis] [-speed 4] [-seek 600]
//	chatreplay -list | -reset
//
// Positions and chat preferences live in the selected store, so a second run
// against a badger directory or redis resumes where the first stopped.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/onnwee/vod-archive/chatsync"
	"github.com/onnwee/vod-archive/kvstore"
	"github.com/onnwee/vod-archive/playback"
)

type options struct {
	server    string
	video     string
	duration  float64
	speed     float64
	seek      float64
	store     string
	badgerDir string
	redisAddr string
	redisNS   string
	chat      string
	list      bool
	reset     bool
}

func main() {
	var o options
	flag.StringVar(&o.server, "server", "http://localhost:3000", "archive server base URL")
	flag.StringVar(&o.video, "video", "", "VOD id to replay")
	flag.Float64Var(&o.duration, "duration", 0, "video length in seconds (default: looked up from /api/videos)")
	flag.Float64Var(&o.speed, "speed", 1, "playback speed multiplier")
	flag.Float64Var(&o.seek, "seek", -1, "seek to this second once playing")
	flag.StringVar(&o.store, "store", "memory", "position store: memory, badger or redis")
	flag.StringVar(&o.badgerDir, "badger-dir", "chatreplay-data", "badger directory")
	flag.StringVar(&o.redisAddr, "redis-addr", envOr("REDIS_ADDR", "localhost:6379"), "redis address")
	flag.StringVar(&o.redisNS, "redis-namespace", "vodarchive:", "redis key namespace")
	flag.StringVar(&o.chat, "chat", "", "persist chat visibility: on or off")
	flag.BoolVar(&o.list, "list", false, "list saved positions and exit")
	flag.BoolVar(&o.reset, "reset", false, "clear saved positions and preferences and exit")
	logLevel := flag.String("log-level", "info", "debug, info, warn or error")
	flag.Parse()

	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(*logLevel)); err != nil {
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, o, os.Stdout); err != nil {
		slog.Error("chatreplay failed", slog.Any("err", err))
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func openStore(ctx context.Context, o options) (kvstore.Store, error) {
	switch strings.ToLower(o.store) {
	case "", "memory":
		return kvstore.NewMemory(), nil
	case "badger":
		return kvstore.OpenBadger(o.badgerDir)
	case "redis":
		return kvstore.NewRedis(ctx, kvstore.RedisConfig{Addr: o.redisAddr, Namespace: o.redisNS})
	}
	return nil, fmt.Errorf("unknown store %q", o.store)
}

func run(ctx context.Context, o options, out io.Writer) error {
	kv, err := openStore(ctx, o)
	if err != nil {
		return err
	}
	defer func() {
		if err := kv.Close(); err != nil {
			slog.Warn("close store", slog.Any("err", err))
		}
	}()

	positions := playback.NewPositionStore(kv, playback.DefaultConfig())
	prefs := playback.NewPreferences(kv)

	switch {
	case o.reset:
		counts := positions.ClearAll(ctx)
		fmt.Fprintf(out, "cleared %d positions, %d preferences, %d other\n", counts.Positions, counts.Preferences, counts.Other)
		return nil
	case o.list:
		if n := positions.PurgeExpired(ctx); n > 0 {
			slog.Info("purged expired positions", slog.Int("count", n))
		}
		for _, rec := range positions.List(ctx) {
			saved := time.UnixMilli(rec.Timestamp).Format(time.RFC3339)
			fmt.Fprintf(out, "%s\t%s / %s\t%s\n", rec.VideoID, clock(int(rec.Time)), clock(int(rec.Duration)), saved)
		}
		return nil
	}

	if o.video == "" {
		return errors.New("-video is required")
	}
	if err := applyChatFlag(ctx, prefs, o.chat); err != nil {
		return err
	}
	if n := positions.PurgeExpired(ctx); n > 0 {
		slog.Info("purged expired positions", slog.Int("count", n))
	}

	httpClient := &http.Client{Timeout: 10 * time.Second}
	if o.duration <= 0 {
		d, err := lookupDuration(ctx, httpClient, o.server, o.video)
		if err != nil {
			return err
		}
		o.duration = d
	}

	player := newClockPlayer(o.duration, o.speed)
	ctrl := playback.NewResumeController(ctx, player, positions, nil)
	defer ctrl.Close()

	var engine *chatsync.Engine
	// chat defaults to on here; the web player starts with it closed
	if prefs.Bool(ctx, playback.PrefChatOpen, true) {
		fetcher := chatsync.NewHTTPFetcher(o.server, httpClient)
		engine = chatsync.NewEngine(fetcher, newPrinter(out), chatsync.DefaultConfig())
		defer engine.Close()
		engine.Load(o.video, fetcher.LoadTimecodes(ctx, o.video))
	}

	if st := ctrl.Load(o.video); st == playback.StatePendingResume {
		slog.Info("resuming saved position", slog.String("video_id", o.video))
	}
	player.Play()

	seekPending := o.seek >= 0
	tick := time.NewTicker(250 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			ctrl.OnBeforeUnload()
			return nil
		case <-player.notify:
			for _, ev := range player.Events() {
				slog.Debug("player event", slog.String("event", ev.String()), slog.Float64("time", player.CurrentTime()))
				switch ev {
				case evPlay:
					ctrl.OnPlay()
					if engine != nil {
						engine.OnPlay()
					}
				case evPause:
					ctrl.OnPause()
				case evSeeked:
					ctrl.OnSeeked()
					if engine != nil {
						engine.OnSeeked(player.CurrentTime())
					}
				case evEnded:
					ctrl.OnEnded()
					if engine != nil {
						engine.Wait()
					}
					slog.Info("playback finished", slog.String("video_id", o.video))
					return nil
				}
			}
		case <-tick.C:
			if seekPending && ctrl.State() != playback.StateResuming {
				seekPending = false
				ctrl.RequestSeek(o.seek)
			}
			if engine != nil {
				engine.OnTimeUpdate(player.CurrentTime())
			}
		}
	}
}

func applyChatFlag(ctx context.Context, prefs *playback.Preferences, v string) error {
	if v == "" {
		return nil
	}
	c := prefs.Chat(ctx)
	switch strings.ToLower(v) {
	case "on":
		c.Open = true
	case "off":
		c.Open = false
	default:
		return fmt.Errorf("-chat must be on or off, got %q", v)
	}
	prefs.SaveChat(ctx, c)
	return nil
}

// lookupDuration finds the video's length in the server's catalog.
func lookupDuration(ctx context.Context, client *http.Client, server, videoID string) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(server, "/")+"/api/videos", nil)
	if err != nil {
		return 0, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("fetch catalog: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("fetch catalog: status %d", resp.StatusCode)
	}
	var videos []struct {
		VodID    string `json:"vodid"`
		Duration *int   `json:"duration"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&videos); err != nil {
		return 0, fmt.Errorf("decode catalog: %w", err)
	}
	for _, v := range videos {
		if v.VodID != videoID {
			continue
		}
		if v.Duration == nil || *v.Duration <= 0 {
			return 0, fmt.Errorf("video %s has no known duration; pass -duration", videoID)
		}
		return float64(*v.Duration), nil
	}
	return 0, fmt.Errorf("video %s not in catalog", videoID)
}
