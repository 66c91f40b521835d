package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/cromulant/internal/settings"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 250, cfg.Colony.MaxAnts)
	assert.Equal(t, 100, cfg.Colony.DefaultPopulation)
	assert.Equal(t, 10, cfg.Colony.MergeGoal)
	assert.Equal(t, 5*time.Second, cfg.Speeds.Fast)
	assert.Equal(t, time.Minute, cfg.Speeds.Normal)
	assert.Equal(t, 5*time.Minute, cfg.Speeds.Slow)
	assert.Equal(t, 300, cfg.Feed.MaxUpdates)
	assert.Equal(t, "json", cfg.Storage.Backend)
}

func TestLoadOverridesOnlyGivenFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cromulant.yaml")
	require.NoError(t, os.WriteFile(path, []byte("colony:\n  max_ants: 12\n  default_population: 4\nstorage:\n  backend: sqlite\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.Colony.MaxAnts)
	assert.Equal(t, 4, cfg.Colony.DefaultPopulation)
	assert.Equal(t, 10, cfg.Colony.MergeGoal)
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("colony:\n  max_ants: 0\nweights:\n  hit: -1\n"), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), "max_ants")
	assert.Contains(t, err.Error(), "weights.hit")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestIntervals(t *testing.T) {
	cfg := Default()
	d, ok := cfg.Speeds.Interval(settings.SpeedFast)
	assert.True(t, ok)
	assert.Equal(t, 5*time.Second, d)

	_, ok = cfg.Speeds.Interval(settings.SpeedPaused)
	assert.False(t, ok)
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Colony.MaxAnts = 33
	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, cfg.WriteYAML(path))

	back, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, back)
}
