// Package catalog keeps the local video catalog in step with the archive.
//
// The reconciler fetches the remote catalog, adds videos it has not seen
// before (identified by VOD id), computes their durations from the HLS
// manifest, and persists the result through a Store. Existing entries are
// never rewritten.
package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"
)

// Entry is one video in the local catalog.
type Entry struct {
	IndexKey    int    `json:"-"`
	VodID       string `json:"vodid"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Date        string `json:"date"`
	Duration    *int   `json:"duration"` // seconds; nil when the manifest was unavailable
	LastUpdated string `json:"lastUpdated"`
}

// RemoteVideo is a normalized row of the upstream catalog.
type RemoteVideo struct {
	Position    int
	VodID       string
	Title       string
	Description string
	Date        string
}

// looseString accepts strings, numbers, booleans and null.
type looseString string

func (s *looseString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*s = ""
		return nil
	}
	if b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = looseString(v)
		return nil
	}
	*s = looseString(b)
	return nil
}

type remoteRow struct {
	VodID       looseString `json:"vodid"`
	Title       looseString `json:"title"`
	Description looseString `json:"description"`
	Date        looseString `json:"date"`
}

// NormalizeRemote accepts the upstream catalog as either an array or an
// object keyed by index and returns it ordered by position. A row without a
// vodid takes its position key as the id. Non-numeric keys are placed after
// the numeric ones.
func NormalizeRemote(raw json.RawMessage) ([]RemoteVideo, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty catalog document")
	}
	switch raw[0] {
	case '[':
		var rows []remoteRow
		if err := json.Unmarshal(raw, &rows); err != nil {
			return nil, fmt.Errorf("decode catalog array: %w", err)
		}
		out := make([]RemoteVideo, 0, len(rows))
		for i, r := range rows {
			out = append(out, r.video(i, strconv.Itoa(i)))
		}
		return out, nil
	case '{':
		var rows map[string]remoteRow
		if err := json.Unmarshal(raw, &rows); err != nil {
			return nil, fmt.Errorf("decode catalog object: %w", err)
		}
		numeric := make([]int, 0, len(rows))
		var named []string
		for k := range rows {
			if n, err := strconv.Atoi(k); err == nil && strconv.Itoa(n) == k {
				numeric = append(numeric, n)
			} else {
				named = append(named, k)
			}
		}
		sort.Ints(numeric)
		sort.Strings(named)
		out := make([]RemoteVideo, 0, len(rows))
		next := 0
		for _, n := range numeric {
			k := strconv.Itoa(n)
			out = append(out, rows[k].video(n, k))
			next = n + 1
		}
		for _, k := range named {
			out = append(out, rows[k].video(next, k))
			next++
		}
		return out, nil
	}
	return nil, fmt.Errorf("catalog document is neither an array nor an object")
}

func (r remoteRow) video(pos int, key string) RemoteVideo {
	id := string(r.VodID)
	if id == "" {
		id = key
	}
	return RemoteVideo{
		Position:    pos,
		VodID:       id,
		Title:       string(r.Title),
		Description: string(r.Description),
		Date:        string(r.Date),
	}
}

// RemoteEntries converts remote rows into entries with unknown durations, as
// served when the catalog is read straight from upstream.
func RemoteEntries(rows []RemoteVideo) []Entry {
	out := make([]Entry, 0, len(rows))
	for _, r := range rows {
		out = append(out, Entry{
			IndexKey:    r.Position,
			VodID:       r.VodID,
			Title:       r.Title,
			Description: r.Description,
			Date:        r.Date,
		})
	}
	return out
}

// timestamp formats t the way the catalog file stores lastUpdated.
func timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

func sortEntries(entries []Entry) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].IndexKey < entries[j].IndexKey })
}
