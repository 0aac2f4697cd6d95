// Package emotes serves the archive's emote lists. Cheer data is cached for the
// life of the process and refreshed alongside catalog sync; the first- and
// third-party lists are fetched on demand.
package emotes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/onnwee/vod-archive/upstream"
)

var (
	// ErrUnknownKind is returned for an emote list kind the archive does not have.
	ErrUnknownKind = errors.New("unknown emote kind")
	// ErrNotFound is returned when the archive has no data for a known kind.
	ErrNotFound = errors.New("emotes not found")
)

// Kinds served by Get.
const (
	KindFirstParty = "first-party"
	KindThirdParty = "third-party"
	KindCheers     = "cheers"
)

// Cache holds cheer data fetched from upstream.
type Cache struct {
	client *upstream.Client

	mu        sync.RWMutex
	cheers    json.RawMessage
	refreshed time.Time
}

func NewCache(client *upstream.Client) *Cache {
	return &Cache{client: client}
}

// Refresh reloads cheers. On failure the previous data is kept.
func (c *Cache) Refresh(ctx context.Context) error {
	raw, err := c.client.EmoteList(ctx, KindCheers)
	if err != nil {
		slog.Warn("cheers refresh failed", slog.String("component", "emotes"), slog.Any("err", err))
		return fmt.Errorf("refresh cheers: %w", err)
	}
	c.mu.Lock()
	c.cheers = raw
	c.refreshed = time.Now()
	c.mu.Unlock()
	slog.Debug("cheers refreshed", slog.String("component", "emotes"), slog.Int("bytes", len(raw)))
	return nil
}

// RefreshedAt is the time of the last successful refresh, zero if none.
func (c *Cache) RefreshedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.refreshed
}

// Get returns the JSON for an emote list kind.
func (c *Cache) Get(ctx context.Context, kind string) (json.RawMessage, error) {
	switch kind {
	case KindCheers:
		c.mu.RLock()
		cheers := c.cheers
		c.mu.RUnlock()
		if cheers == nil {
			return json.RawMessage("{}"), nil
		}
		return cheers, nil
	case KindFirstParty, KindThirdParty:
		raw, err := c.client.EmoteList(ctx, kind)
		if err != nil {
			if errors.Is(err, upstream.ErrUpstreamStatus) {
				return nil, fmt.Errorf("%w: %s", ErrNotFound, kind)
			}
			return nil, err
		}
		return raw, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}
