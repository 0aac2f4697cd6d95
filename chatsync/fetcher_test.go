package chatsync

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPFetcher(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat/v1", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[30,10,20]`))
	})
	mux.HandleFunc("/api/chat/v1/10/10", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"video_timestamp":10,"timestamp":10.2,"commenter":{"display_name":"a"},"message":{"body":"hey"}}]`))
	})
	mux.HandleFunc("/api/chat/broken", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	})
	mux.HandleFunc("/api/chat/garbled/1/1", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f := NewHTTPFetcher(srv.URL+"/", srv.Client())
	ctx := context.Background()

	idx := f.LoadTimecodes(ctx, "v1")
	if idx.Len() != 3 || !idx.Has(20) {
		t.Errorf("timecodes = %v", idx.Seconds())
	}
	msgs := f.FetchRange(ctx, "v1", 10, 10)
	if len(msgs) != 1 || msgs[0].Author != "a" || msgs[0].Body != "hey" {
		t.Errorf("FetchRange = %+v", msgs)
	}

	broken := f.LoadTimecodes(ctx, "broken")
	if broken == nil || broken.Len() != 0 {
		t.Errorf("failed timecode load should give an empty index, got %v", broken)
	}
	if got := f.FetchRange(ctx, "garbled", 1, 1); got != nil {
		t.Errorf("garbled response should yield nil, got %+v", got)
	}
}
