package server

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

// Cache lifetimes in seconds.
const (
	maxAgeVideos     = 3600
	maxAgeThumbnails = 86400
	maxAgeEmotes     = 86400
	maxAgePlaylist   = 300
	maxAgeMP4        = 3600
)

type errorBody struct {
	Error string `json:"error"`
}

func cacheFor(w http.ResponseWriter, seconds int) {
	w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", seconds))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("write json response", slog.Any("err", err))
	}
}

func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, msg)
}

// relay streams body to w, logging copy failures (usually client disconnects).
func relay(w http.ResponseWriter, body io.Reader, what string) {
	if _, err := io.Copy(w, body); err != nil {
		slog.Debug("relay interrupted", slog.String("what", what), slog.Any("err", err))
	}
}

// parseSecond parses a non-negative integer path parameter.
func parseSecond(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func isoNow() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000Z07:00")
}
