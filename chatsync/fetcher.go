package chatsync

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTPFetcher reads chat from the archive server's API.
type HTTPFetcher struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPFetcher targets the API rooted at baseURL.
func NewHTTPFetcher(baseURL string, client *http.Client) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPFetcher{BaseURL: strings.TrimRight(baseURL, "/"), Client: client}
}

// FetchRange calls GET /api/chat/{id}/{start}/{end}. Failures yield nil.
func (f *HTTPFetcher) FetchRange(ctx context.Context, videoID string, start, end int) []ChatMessage {
	var msgs []ChatMessage
	u := fmt.Sprintf("%s/api/chat/%s/%d/%d", f.BaseURL, url.PathEscape(videoID), start, end)
	if err := f.getJSON(ctx, u, &msgs); err != nil {
		slog.Debug("chat range fetch failed", slog.String("video_id", videoID), slog.Int("start", start), slog.Any("err", err))
		return nil
	}
	return msgs
}

// LoadTimecodes calls GET /api/chat/{id}. Failures yield an empty index so
// playback proceeds without chat.
func (f *HTTPFetcher) LoadTimecodes(ctx context.Context, videoID string) *TimecodeIndex {
	var seconds []int
	u := fmt.Sprintf("%s/api/chat/%s", f.BaseURL, url.PathEscape(videoID))
	if err := f.getJSON(ctx, u, &seconds); err != nil {
		slog.Warn("chat timecodes unavailable", slog.String("video_id", videoID), slog.Any("err", err))
		return NewTimecodeIndex(nil)
	}
	return NewTimecodeIndex(seconds)
}

func (f *HTTPFetcher) getJSON(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("GET %s: status %d", u, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", u, err)
	}
	return nil
}
