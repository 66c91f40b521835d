package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/talgya/cromulant/internal/ants"
	"github.com/talgya/cromulant/internal/settings"
)

const (
	antsFile     = "ants.json"
	settingsFile = "settings.json"
	metaFile     = "meta.json"
)

// JSONStore keeps one JSON document per concern in a directory.
type JSONStore struct {
	dir string
	mu  sync.Mutex
}

// OpenJSON opens (and creates) a JSON store in dir.
func OpenJSON(dir string) (*JSONStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("open json store: %w", err)
	}
	return &JSONStore{dir: dir}, nil
}

// Close is a no-op.
func (s *JSONStore) Close() error { return nil }

// read decodes a document. found is false when the file does not exist.
func (s *JSONStore) read(name string, into any) (found bool, err error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, into); err != nil {
		return false, fmt.Errorf("decode %s: %w", name, err)
	}
	return true, nil
}

// write replaces a document atomically.
func (s *JSONStore) write(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

func (s *JSONStore) LoadAnts(_ context.Context) ([]*ants.Ant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []*ants.Ant
	if _, err := s.read(antsFile, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *JSONStore) SaveAnts(_ context.Context, population []*ants.Ant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if population == nil {
		population = []*ants.Ant{}
	}
	return s.write(antsFile, population)
}

// LoadSettings overlays the stored document on the defaults. Unknown keys
// are ignored and bad values keep their default.
func (s *JSONStore) LoadSettings(_ context.Context) (settings.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := settings.Default()
	var raw map[string]any
	if _, err := s.read(settingsFile, &raw); err != nil {
		return st, err
	}
	values := make(map[string]string, len(raw))
	for k, v := range raw {
		values[k] = fmt.Sprint(v)
	}
	if err := st.Apply(values); err != nil {
		slog.Warn("ignoring bad stored settings", "error", err)
	}
	return st, nil
}

func (s *JSONStore) SaveSettings(_ context.Context, st settings.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(settingsFile, st)
}

func (s *JSONStore) GetMeta(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	meta := map[string]string{}
	if _, err := s.read(metaFile, &meta); err != nil {
		return "", err
	}
	return meta[key], nil
}

func (s *JSONStore) SaveMeta(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	meta := map[string]string{}
	if _, err := s.read(metaFile, &meta); err != nil {
		return err
	}
	meta[key] = value
	return s.write(metaFile, meta)
}
