package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// MockArchiveServer mimics the upstream archive host: catalog, manifests,
// segments, thumbnails, chat and emotes, each registered by path.
type MockArchiveServer struct {
	*httptest.Server

	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
	hits     map[string]int
}

// NewMockArchiveServer starts a server that 404s every path until mocked.
func NewMockArchiveServer(t *testing.T) *MockArchiveServer {
	t.Helper()
	m := &MockArchiveServer{
		handlers: make(map[string]http.HandlerFunc),
		hits:     make(map[string]int),
	}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		m.hits[r.URL.Path]++
		handler, ok := m.handlers[r.URL.Path]
		m.mu.Unlock()
		if ok {
			handler(w, r)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(m.Close)
	return m
}

// Handle registers h for an exact request path.
func (m *MockArchiveServer) Handle(path string, h http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = h
}

// Hits returns how many requests reached path.
func (m *MockArchiveServer) Hits(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hits[path]
}

// MockJSON serves v as JSON at path.
func (m *MockArchiveServer) MockJSON(path string, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("testutil: marshal %s: %v", path, err))
	}
	m.Handle(path, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body) //nolint:errcheck // test mock response
	})
}

// MockCatalog serves videos.json.
func (m *MockArchiveServer) MockCatalog(v any) { m.MockJSON("/videos.json", v) }

// MockManifest serves videos/v{id}.m3u8.
func (m *MockArchiveServer) MockManifest(id, manifest string) {
	m.Handle("/videos/v"+id+".m3u8", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-mpegURL")
		_, _ = w.Write([]byte(manifest)) //nolint:errcheck // test mock response
	})
}

// MockSegment serves videos/{name} with Range support.
func (m *MockArchiveServer) MockSegment(name string, data []byte) {
	m.Handle("/videos/"+name, func(w http.ResponseWriter, r *http.Request) {
		http.ServeContent(w, r, name, time.Time{}, bytes.NewReader(data))
	})
}

// MockThumbnail serves tn/{size}/{id}.webp.
func (m *MockArchiveServer) MockThumbnail(size, id string, data []byte) {
	m.Handle(fmt.Sprintf("/tn/%s/%s.webp", size, id), func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/webp")
		_, _ = w.Write(data) //nolint:errcheck // test mock response
	})
}

// MockChat serves comments/{id}.json and comments/{id}/{second}.json.
func (m *MockArchiveServer) MockChat(id string, timecodes []int, bySecond map[int][]map[string]any) {
	m.MockJSON("/comments/"+id+".json", timecodes)
	for s, msgs := range bySecond {
		m.MockJSON(fmt.Sprintf("/comments/%s/%d.json", id, s), msgs)
	}
}

// MockEmote serves emotes/{path}.
func (m *MockArchiveServer) MockEmote(path string, data []byte) {
	m.Handle("/emotes/"+path, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(data) //nolint:errcheck // test mock response
	})
}
