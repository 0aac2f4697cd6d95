package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/google/renameio/v2"
)

// Store persists catalog entries.
type Store interface {
	// List returns all entries ordered by IndexKey.
	List(ctx context.Context) ([]Entry, error)
	// Add persists new entries in a single write.
	Add(ctx context.Context, entries []Entry) error
}

// RunRecorder is implemented by stores that keep a history of sync runs.
type RunRecorder interface {
	RecordRun(ctx context.Context, run Run) error
}

// Run describes one reconciliation.
type Run struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Added      int
	Err        error
}

// FileStore keeps the catalog in a JSON object keyed by index, replaced
// atomically on every write. A missing or unreadable file is an empty catalog.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore { return &FileStore{path: path} }

func (s *FileStore) List(_ context.Context) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := s.read()
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		out = append(out, e)
	}
	sortEntries(out)
	return out, nil
}

func (s *FileStore) Add(_ context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	current := s.read()
	for _, e := range entries {
		current[e.IndexKey] = e
	}
	doc := make(map[string]Entry, len(current))
	for k, e := range current {
		doc[strconv.Itoa(k)] = e
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create catalog dir: %w", err)
		}
	}
	if err := renameio.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write catalog %s: %w", s.path, err)
	}
	return nil
}

func (s *FileStore) read() map[int]Entry {
	out := map[int]Entry{}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("catalog file unreadable, starting fresh", slog.String("path", s.path), slog.Any("err", err))
		} else {
			slog.Info("no existing catalog file, starting fresh", slog.String("path", s.path))
		}
		return out
	}
	var doc map[string]Entry
	if err := json.Unmarshal(data, &doc); err != nil {
		slog.Warn("catalog file corrupt, starting fresh", slog.String("path", s.path), slog.Any("err", err))
		return out
	}
	for k, e := range doc {
		n, err := strconv.Atoi(k)
		if err != nil {
			slog.Warn("skipping catalog entry with non-numeric key", slog.String("key", k))
			continue
		}
		e.IndexKey = n
		out[n] = e
	}
	return out
}
