package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/onnwee/vod-archive/upstream"
)

// ErrNotFound is returned when upstream has no such manifest or segment, or
// the request names a file outside the segment directory.
var ErrNotFound = errors.New("media not found")

// DefaultMP4Route is where rewritten .mp4 URIs point.
const DefaultMP4Route = "/api/mp4/"

// Proxy fetches media from upstream on behalf of the player.
type Proxy struct {
	client   *upstream.Client
	mp4Route string
}

func NewProxy(client *upstream.Client) *Proxy {
	return &Proxy{client: client, mp4Route: DefaultMP4Route}
}

// Segment is an upstream MP4 response being relayed. Callers must Close it.
type Segment struct {
	Status        int
	ContentRange  string
	AcceptRanges  string
	ContentLength int64 // -1 when unknown
	ContentType   string
	Body          io.ReadCloser
}

func (s *Segment) Close() error { return s.Body.Close() }

// GetPlaylist returns the rewritten manifest for a route video id.
func (p *Proxy) GetPlaylist(ctx context.Context, videoID string) (string, error) {
	id := CleanVideoID(videoID)
	if id == "" || strings.ContainsAny(id, `/\`) {
		return "", ErrNotFound
	}
	manifest, err := p.client.Manifest(ctx, id)
	if err != nil {
		return "", notFound(err)
	}
	return RewritePlaylist(manifest, p.client.SegmentBase(), p.mp4Route), nil
}

// Duration fetches the manifest for a cleaned id and sums its segments.
func (p *Proxy) Duration(ctx context.Context, videoID string) (int, error) {
	manifest, err := p.client.Manifest(ctx, videoID)
	if err != nil {
		return 0, err
	}
	return SumDuration(manifest), nil
}

// GetSegment relays filename with an optional Range header.
func (p *Proxy) GetSegment(ctx context.Context, filename, rangeHeader string) (*Segment, error) {
	if !validFilename(filename) {
		return nil, ErrNotFound
	}
	resp, err := p.client.Segment(ctx, filename, rangeHeader)
	if err != nil {
		return nil, notFound(err)
	}
	return &Segment{
		Status:        resp.StatusCode,
		ContentRange:  resp.Header.Get("Content-Range"),
		AcceptRanges:  resp.Header.Get("Accept-Ranges"),
		ContentLength: resp.ContentLength,
		ContentType:   resp.Header.Get("Content-Type"),
		Body:          resp.Body,
	}, nil
}

func validFilename(name string) bool {
	if name == "" || name == "." || strings.Contains(name, "..") {
		return false
	}
	return !strings.ContainsAny(name, `/\`)
}

// notFound maps upstream status failures to ErrNotFound and keeps transport
// errors as they are.
func notFound(err error) error {
	if errors.Is(err, upstream.ErrUpstreamStatus) {
		slog.Debug("upstream media missing", slog.Any("err", err))
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return err
}
