// Package persistence stores the colony between runs. Two backends are
// available: plain JSON documents in a directory, or a SQLite database
// that also keeps the feed history.
package persistence

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/talgya/cromulant/internal/ants"
	"github.com/talgya/cromulant/internal/feed"
	"github.com/talgya/cromulant/internal/settings"
)

// ErrUnsupportedBackend is returned by NewStore for an unknown kind.
var ErrUnsupportedBackend = errors.New("unsupported storage backend")

// Backend names accepted by NewStore.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Store persists ants, settings and small metadata values.
type Store interface {
	LoadAnts(ctx context.Context) ([]*ants.Ant, error)
	SaveAnts(ctx context.Context, population []*ants.Ant) error
	LoadSettings(ctx context.Context) (settings.Settings, error)
	SaveSettings(ctx context.Context, s settings.Settings) error
	// GetMeta returns "" for a missing key.
	GetMeta(ctx context.Context, key string) (string, error)
	SaveMeta(ctx context.Context, key, value string) error
	Close() error
}

// NewStore opens a store of the given kind rooted at dir. An empty kind
// means JSON.
func NewStore(kind, dir string) (Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	switch kind {
	case "", BackendJSON:
		return OpenJSON(dir)
	case BackendSQLite:
		return Open(dir + "/cromulant.db")
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedBackend, kind)
}

// FeedLog returns the store as a feed log when the backend keeps history.
func FeedLog(s Store) (feed.Log, bool) {
	l, ok := s.(feed.Log)
	return l, ok
}
