package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/onnwee/vod-archive/chatsync"
	"github.com/onnwee/vod-archive/kvstore"
	"github.com/onnwee/vod-archive/playback"
)

type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

func TestClockPlayerEvents(t *testing.T) {
	now := time.Unix(0, 0)
	p := newClockPlayer(10, 2)
	p.now = func() time.Time { return now }

	p.Play()
	now = now.Add(2 * time.Second)
	if got := p.CurrentTime(); got != 4 {
		t.Fatalf("CurrentTime = %v, want 4", got)
	}
	p.Pause()
	now = now.Add(time.Second)
	if got := p.CurrentTime(); got != 4 {
		t.Errorf("paused CurrentTime = %v, want 4", got)
	}
	p.Seek(-3)
	p.Seek(99)
	if got := p.CurrentTime(); got != 10 {
		t.Errorf("clamped seek = %v, want 10", got)
	}
	p.Seek(9)
	p.Play()
	now = now.Add(time.Second)
	p.CurrentTime()

	want := []eventKind{evPlay, evPause, evSeeked, evSeeked, evSeeked, evPlay, evEnded}
	if diff := cmp.Diff(want, p.Events()); diff != "" {
		t.Errorf("events (-want +got):\n%s", diff)
	}
	if len(p.Events()) != 0 {
		t.Error("Events did not drain the queue")
	}
}

func TestPrinterWritesOnce(t *testing.T) {
	var buf bytes.Buffer
	pr := newPrinter(&buf)
	a := chatsync.ChatMessage{VideoTimestamp: 3725, Author: "ann", Body: "hi"}
	b := chatsync.ChatMessage{VideoTimestamp: 3725, Author: "bob", Body: "yo"}
	pr.Render([]chatsync.ChatMessage{a})
	pr.Render([]chatsync.ChatMessage{a, b})

	want := "[01:02:05] ann: hi\n[01:02:05] bob: yo\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()
	kv, err := openStore(ctx, options{store: "memory"})
	if err != nil {
		t.Fatalf("memory store: %v", err)
	}
	_ = kv.Close()

	kv, err = openStore(ctx, options{store: "badger", badgerDir: t.TempDir()})
	if err != nil {
		t.Fatalf("badger store: %v", err)
	}
	_ = kv.Close()

	if _, err := openStore(ctx, options{store: "etcd"}); err == nil {
		t.Error("expected error for unknown store")
	}
}

func TestApplyChatFlag(t *testing.T) {
	ctx := context.Background()
	prefs := playback.NewPreferences(kvstore.NewMemory())
	if err := applyChatFlag(ctx, prefs, "on"); err != nil {
		t.Fatal(err)
	}
	if c := prefs.Chat(ctx); !c.Open || c.Size != "30" {
		t.Errorf("prefs after on = %+v", c)
	}
	if err := applyChatFlag(ctx, prefs, "off"); err != nil {
		t.Fatal(err)
	}
	if prefs.Chat(ctx).Open {
		t.Error("chat still open after off")
	}
	if err := applyChatFlag(ctx, prefs, "maybe"); err == nil {
		t.Error("expected error for invalid value")
	}
}

func TestLookupDuration(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"vodid":"1","duration":120},{"vodid":"2","duration":null}]`)
	}))
	defer srv.Close()
	ctx := context.Background()

	d, err := lookupDuration(ctx, srv.Client(), srv.URL, "1")
	if err != nil || d != 120 {
		t.Errorf("lookupDuration(1) = %v, %v", d, err)
	}
	if _, err := lookupDuration(ctx, srv.Client(), srv.URL, "2"); err == nil {
		t.Error("expected error for unknown duration")
	}
	if _, err := lookupDuration(ctx, srv.Client(), srv.URL, "3"); err == nil {
		t.Error("expected error for missing video")
	}
}

func TestRunReplaysChatAfterSeek(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/chat/42":
			fmt.Fprint(w, `[5]`)
		case "/api/chat/42/5/5":
			fmt.Fprint(w, `[{"video_timestamp":5,"timestamp":5.2,"commenter":{"display_name":"zed"},"message":{"body":"hello"}}]`)
		default:
			fmt.Fprint(w, `[]`)
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	out := &syncBuffer{}
	done := make(chan error, 1)
	go func() {
		done <- run(ctx, options{server: srv.URL, video: "42", duration: 60, speed: 1, seek: 5, store: "memory"}, out)
	}()

	deadline := time.Now().Add(5 * time.Second)
	for !strings.Contains(out.String(), "zed: hello") && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "[00:00:05] zed: hello") {
		t.Errorf("output = %q", out.String())
	}
}

func TestRunListAndReset(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	kv, err := kvstore.OpenBadger(dir)
	if err != nil {
		t.Fatal(err)
	}
	positions := playback.NewPositionStore(kv, playback.DefaultConfig())
	positions.Save(ctx, "7", 125, 3600)
	_ = kv.Close()

	var out bytes.Buffer
	if err := run(ctx, options{store: "badger", badgerDir: dir, list: true}, &out); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out.String(), "7\t00:02:05 / 01:00:00\t") {
		t.Errorf("list output = %q", out.String())
	}

	out.Reset()
	if err := run(ctx, options{store: "badger", badgerDir: dir, reset: true}, &out); err != nil {
		t.Fatal(err)
	}
	if out.String() != "cleared 1 positions, 0 preferences, 0 other\n" {
		t.Errorf("reset output = %q", out.String())
	}
}
