// Package kvstore provides the small keyed store behind player-side persistence
// (playback positions and chat preferences). Keys are namespaced by fixed
// prefixes, so every backend only needs get/set/delete and prefix listing.
package kvstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key is absent.
var ErrNotFound = errors.New("kvstore: key not found")

// Store is a flat string-keyed byte store.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// Keys lists keys starting with prefix. An empty prefix lists everything.
	Keys(ctx context.Context, prefix string) ([]string, error)
	Close() error
}
