package emotes

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/onnwee/vod-archive/testutil"
	"github.com/onnwee/vod-archive/upstream"
)

func TestCacheCheersLifecycle(t *testing.T) {
	srv := testutil.NewMockArchiveServer(t)
	c := NewCache(upstream.New(srv.URL, 0))
	ctx := context.Background()

	got, err := c.Get(ctx, KindCheers)
	if err != nil || string(got) != "{}" {
		t.Fatalf("cheers before refresh = %s, %v", got, err)
	}
	if err := c.Refresh(ctx); err == nil {
		t.Fatal("refresh against empty upstream should fail")
	}

	srv.MockJSON("/cheers.json", map[string]any{"bits": 1})
	if err := c.Refresh(ctx); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if c.RefreshedAt().IsZero() {
		t.Error("RefreshedAt not set")
	}

	// a failed refresh keeps the previous data
	srv.Handle("/cheers.json", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	_ = c.Refresh(ctx)
	got, err = c.Get(ctx, KindCheers)
	if err != nil || string(got) != `{"bits":1}` {
		t.Errorf("cheers after failed refresh = %s, %v", got, err)
	}
}

func TestCacheGetKinds(t *testing.T) {
	srv := testutil.NewMockArchiveServer(t)
	srv.MockJSON("/first_party_emotes.json", []map[string]string{{"id": "25", "name": "Kappa"}})
	c := NewCache(upstream.New(srv.URL, 0))
	ctx := context.Background()

	if _, err := c.Get(ctx, KindFirstParty); err != nil {
		t.Errorf("first-party: %v", err)
	}
	if _, err := c.Get(ctx, KindThirdParty); !errors.Is(err, ErrNotFound) {
		t.Errorf("third-party err = %v, want ErrNotFound", err)
	}
	if _, err := c.Get(ctx, "sticker"); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("unknown kind err = %v, want ErrUnknownKind", err)
	}
}
