package upstream

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/onnwee/vod-archive/testutil"
)

func TestClientGetStatusError(t *testing.T) {
	srv := testutil.NewMockArchiveServer(t)
	c := New(srv.URL+"/", time.Second)

	_, err := c.Get(context.Background(), "test", "nothing-here", nil)
	if !errors.Is(err, ErrUpstreamStatus) {
		t.Fatalf("err = %v, want ErrUpstreamStatus", err)
	}
	if StatusCode(err) != http.StatusNotFound {
		t.Errorf("StatusCode = %d", StatusCode(err))
	}
	if StatusCode(errors.New("other")) != 0 {
		t.Error("StatusCode of a plain error should be 0")
	}
}

func TestClientTransportError(t *testing.T) {
	c := New("http://127.0.0.1:1", time.Second)
	_, err := c.Get(context.Background(), "test", "x", nil)
	if err == nil || errors.Is(err, ErrUpstreamStatus) {
		t.Fatalf("err = %v, want transport error", err)
	}
}

func TestURL(t *testing.T) {
	c := New("https://archive.example/base/", 0)
	if got := c.URL("/videos.json"); got != "https://archive.example/base/videos.json" {
		t.Errorf("URL = %q", got)
	}
	if got := c.SegmentBase(); got != "https://archive.example/base/videos/" {
		t.Errorf("SegmentBase = %q", got)
	}
}

func TestArchiveEndpoints(t *testing.T) {
	srv := testutil.NewMockArchiveServer(t)
	srv.MockCatalog([]map[string]string{{"vodid": "1", "title": "one"}})
	srv.MockManifest("1", "#EXTM3U\n")
	srv.MockChat("1", []int{3, 5}, map[int][]map[string]any{
		5: {{"commenter": map[string]any{"display_name": "a"}, "message": map[string]any{"body": "hi"}}},
	})
	srv.MockJSON("/cheers.json", map[string]any{"prefixes": []string{"Cheer"}})
	srv.MockEmote("twitch/25/1.0", []byte("png"))
	c := New(srv.URL, 0)
	ctx := context.Background()

	raw, err := c.Catalog(ctx)
	if err != nil || len(raw) == 0 {
		t.Fatalf("Catalog: %v", err)
	}
	if m, err := c.Manifest(ctx, "1"); err != nil || m != "#EXTM3U\n" {
		t.Errorf("Manifest = %q, %v", m, err)
	}
	tc, err := c.ChatTimecodes(ctx, "1")
	if err != nil {
		t.Fatalf("ChatTimecodes: %v", err)
	}
	if diff := cmp.Diff([]int{3, 5}, tc); diff != "" {
		t.Errorf("timecodes (-want +got):\n%s", diff)
	}
	msgs, err := c.ChatSecond(ctx, "1", 5)
	if err != nil || len(msgs) != 1 {
		t.Fatalf("ChatSecond: %v %v", msgs, err)
	}
	if msgs[0]["video_timestamp"] != 5 {
		t.Errorf("video_timestamp = %v", msgs[0]["video_timestamp"])
	}
	if _, err := c.ChatSecond(ctx, "1", 4); !errors.Is(err, ErrUpstreamStatus) {
		t.Errorf("missing second err = %v", err)
	}
	if _, err := c.EmoteList(ctx, "cheers"); err != nil {
		t.Errorf("EmoteList(cheers): %v", err)
	}
	if _, err := c.EmoteList(ctx, "bogus"); err == nil {
		t.Error("EmoteList(bogus) should fail")
	}
	resp, err := c.Emote(ctx, "twitch/25/1.0")
	if err != nil {
		t.Fatalf("Emote: %v", err)
	}
	resp.Body.Close()
}
