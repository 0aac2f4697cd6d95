// Package upstream is a small HTTP client for the archive host that serves the
// video catalog, HLS manifests, MP4 segments, thumbnails, chat and emotes.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/onnwee/vod-archive/telemetry"
)

// ErrUpstreamStatus is wrapped by every non-2xx response error.
var ErrUpstreamStatus = errors.New("upstream returned non-success status")

// StatusError carries the status of a failed upstream request.
type StatusError struct {
	Path       string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream %s: status %d", e.Path, e.StatusCode)
}

func (e *StatusError) Unwrap() error { return ErrUpstreamStatus }

// StatusCode extracts the upstream status from err, or 0.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

// Client talks to one archive host.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// New returns a client rooted at baseURL with a traced transport. A zero
// timeout means requests are bounded only by their context.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func (c *Client) http() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

// URL joins rel onto the base URL.
func (c *Client) URL(rel string) string {
	return c.BaseURL + "/" + strings.TrimLeft(rel, "/")
}

// Get issues a GET for rel. endpoint labels metrics. Non-2xx responses are
// closed and returned as *StatusError; on success the caller owns the body.
func (c *Client) Get(ctx context.Context, endpoint, rel string, header http.Header) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(rel), nil)
	if err != nil {
		return nil, fmt.Errorf("build request %s: %w", rel, err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	start := time.Now()
	resp, err := c.http().Do(req)
	if err != nil {
		telemetry.ObserveUpstream(endpoint, "error", time.Since(start))
		return nil, fmt.Errorf("upstream %s: %w", rel, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		telemetry.ObserveUpstream(endpoint, "status", time.Since(start))
		closeBody(resp)
		return nil, &StatusError{Path: rel, StatusCode: resp.StatusCode}
	}
	telemetry.ObserveUpstream(endpoint, "ok", time.Since(start))
	return resp, nil
}

// GetBytes reads the full body of rel.
func (c *Client) GetBytes(ctx context.Context, endpoint, rel string) ([]byte, error) {
	resp, err := c.Get(ctx, endpoint, rel, nil)
	if err != nil {
		return nil, err
	}
	defer closeBody(resp)
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rel, err)
	}
	return b, nil
}

// GetJSON decodes the body of rel into out.
func (c *Client) GetJSON(ctx context.Context, endpoint, rel string, out any) error {
	resp, err := c.Get(ctx, endpoint, rel, nil)
	if err != nil {
		return err
	}
	defer closeBody(resp)
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", rel, err)
	}
	return nil
}

func closeBody(resp *http.Response) {
	if err := resp.Body.Close(); err != nil {
		slog.Warn("failed to close response body", slog.Any("err", err))
	}
}

// escapeSegments path-escapes each segment of p, keeping the separators.
func escapeSegments(p string) string {
	parts := strings.Split(strings.TrimLeft(p, "/"), "/")
	for i, s := range parts {
		parts[i] = url.PathEscape(s)
	}
	return strings.Join(parts, "/")
}
