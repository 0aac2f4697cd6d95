package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// Metric labels for archive endpoints.
const (
	EndpointCatalog   = "catalog"
	EndpointManifest  = "manifest"
	EndpointSegment   = "segment"
	EndpointThumbnail = "thumbnail"
	EndpointEmotes    = "emotes"
	EndpointEmote     = "emote"
	EndpointChat      = "chat"
)

// Emote list kinds and the archive files backing them.
var emoteFiles = map[string]string{
	"first-party": "first_party_emotes.json",
	"third-party": "third_party_emotes.json",
	"cheers":      "cheers.json",
}

// EmoteFile maps an emote kind to its archive file.
func EmoteFile(kind string) (string, bool) {
	f, ok := emoteFiles[kind]
	return f, ok
}

// Catalog returns the raw catalog document (an array or an index-keyed map).
func (c *Client) Catalog(ctx context.Context) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.GetJSON(ctx, EndpointCatalog, "videos.json", &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// Manifest returns the HLS playlist for a cleaned video id.
func (c *Client) Manifest(ctx context.Context, videoID string) (string, error) {
	b, err := c.GetBytes(ctx, EndpointManifest, "videos/v"+url.PathEscape(videoID)+".m3u8")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// SegmentBase is the absolute prefix for relative .ts segment URIs.
func (c *Client) SegmentBase() string { return c.URL("videos") + "/" }

// Segment requests an MP4 fragment, forwarding rangeHeader when set. 200 and
// 206 are both successes; the caller owns the body.
func (c *Client) Segment(ctx context.Context, filename, rangeHeader string) (*http.Response, error) {
	h := http.Header{}
	if rangeHeader != "" {
		h.Set("Range", rangeHeader)
	}
	return c.Get(ctx, EndpointSegment, "videos/"+url.PathEscape(filename), h)
}

// Thumbnail requests tn/{size}/{id}.webp.
func (c *Client) Thumbnail(ctx context.Context, size, videoID string) (*http.Response, error) {
	return c.Get(ctx, EndpointThumbnail, fmt.Sprintf("tn/%s/%s.webp", url.PathEscape(size), url.PathEscape(videoID)), nil)
}

// EmoteList returns the raw JSON for an emote kind.
func (c *Client) EmoteList(ctx context.Context, kind string) (json.RawMessage, error) {
	file, ok := EmoteFile(kind)
	if !ok {
		return nil, fmt.Errorf("unknown emote kind %q", kind)
	}
	var raw json.RawMessage
	if err := c.GetJSON(ctx, EndpointEmotes, file, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// Emote requests an emote image by its archive-relative path.
func (c *Client) Emote(ctx context.Context, path string) (*http.Response, error) {
	return c.Get(ctx, EndpointEmote, "emotes/"+escapeSegments(path), nil)
}

// ChatTimecodes returns the seconds of videoID that have chat.
func (c *Client) ChatTimecodes(ctx context.Context, videoID string) ([]int, error) {
	var seconds []int
	if err := c.GetJSON(ctx, EndpointChat, "comments/"+url.PathEscape(videoID)+".json", &seconds); err != nil {
		return nil, err
	}
	return seconds, nil
}

// ChatSecond returns the raw messages of one second, each annotated with
// video_timestamp so callers can merge seconds.
func (c *Client) ChatSecond(ctx context.Context, videoID string, second int) ([]map[string]any, error) {
	var msgs []map[string]any
	rel := "comments/" + url.PathEscape(videoID) + "/" + strconv.Itoa(second) + ".json"
	if err := c.GetJSON(ctx, EndpointChat, rel, &msgs); err != nil {
		return nil, err
	}
	out := msgs[:0]
	for _, m := range msgs {
		if m == nil {
			continue
		}
		m["video_timestamp"] = second
		out = append(out, m)
	}
	return out, nil
}
