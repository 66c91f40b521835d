// Package config loads the static configuration of the colony daemon.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/talgya/cromulant/internal/settings"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalid marks a configuration that loaded but cannot be used.
var ErrInvalid = errors.New("invalid config")

// Config holds all daemon configuration.
type Config struct {
	Colony  ColonyConfig  `yaml:"colony"`
	Speeds  SpeedConfig   `yaml:"speeds"`
	Weights WeightConfig  `yaml:"weights"`
	Think   ThinkConfig   `yaml:"think"`
	Feed    FeedConfig    `yaml:"feed"`
	Storage StorageConfig `yaml:"storage"`
	API     APIConfig     `yaml:"api"`
}

// ColonyConfig bounds the population.
type ColonyConfig struct {
	MaxAnts           int `yaml:"max_ants"`
	DefaultPopulation int `yaml:"default_population"` // Hatched on first run
	MergeGoal         int `yaml:"merge_goal"`         // Ticks before merge becomes drawable
}

// SpeedConfig maps speed presets to tick intervals.
type SpeedConfig struct {
	Fast   time.Duration `yaml:"fast"`
	Normal time.Duration `yaml:"normal"`
	Slow   time.Duration `yaml:"slow"`
}

// Interval returns the tick interval for a preset. ok is false when the
// preset does not tick at all (paused).
func (c SpeedConfig) Interval(s settings.Speed) (d time.Duration, ok bool) {
	switch s {
	case settings.SpeedFast:
		return c.Fast, true
	case settings.SpeedNormal:
		return c.Normal, true
	case settings.SpeedSlow:
		return c.Slow, true
	}
	return 0, false
}

// WeightConfig holds relative draw weights per event category.
type WeightConfig struct {
	Triumph float64 `yaml:"triumph"`
	Hit     float64 `yaml:"hit"`
	Travel  float64 `yaml:"travel"`
	Think   float64 `yaml:"think"`
	Words   float64 `yaml:"words"`
	Merge   float64 `yaml:"merge"`
}

// ThinkConfig weights what a thinking ant thinks about.
type ThinkConfig struct {
	OtherAnt   float64 `yaml:"other_ant"`
	Glyphs     float64 `yaml:"glyphs"`
	Word       float64 `yaml:"word"`
	GlyphCount int     `yaml:"glyph_count"`
}

// FeedConfig shapes the update feed.
type FeedConfig struct {
	MaxUpdates     int    `yaml:"max_updates"`
	TriumphMessage string `yaml:"triumph_message"`
	HitMessage     string `yaml:"hit_message"`
	TriumphIcon    string `yaml:"triumph_icon"`
	HitIcon        string `yaml:"hit_icon"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Backend   string `yaml:"backend"` // "json" or "sqlite"
	Dir       string `yaml:"dir"`
	NamesFile string `yaml:"names_file"` // Optional name pool override
}

// APIConfig configures the HTTP API.
type APIConfig struct {
	Port        int           `yaml:"port"`
	StreamConns int           `yaml:"stream_conns"`
	AdminRate   int           `yaml:"admin_rate"`
	AdminWindow time.Duration `yaml:"admin_window"`
	TrustProxy  bool          `yaml:"trust_proxy"` // Rate limit on X-Forwarded-For
}

// Default returns the embedded defaults.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the colony cannot run with.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
		}
	}

	check(c.Colony.MaxAnts > 0, "colony.max_ants must be positive, got %d", c.Colony.MaxAnts)
	check(c.Colony.DefaultPopulation >= 0 && c.Colony.DefaultPopulation <= c.Colony.MaxAnts,
		"colony.default_population must be within [0, max_ants], got %d", c.Colony.DefaultPopulation)
	check(c.Colony.MergeGoal >= 0, "colony.merge_goal must not be negative, got %d", c.Colony.MergeGoal)
	check(c.Speeds.Fast > 0 && c.Speeds.Normal > 0 && c.Speeds.Slow > 0, "speeds must be positive")

	w := c.Weights
	for name, v := range map[string]float64{
		"triumph": w.Triumph, "hit": w.Hit, "travel": w.Travel,
		"think": w.Think, "words": w.Words, "merge": w.Merge,
	} {
		check(v >= 0, "weights.%s must not be negative, got %v", name, v)
	}
	check(c.Think.OtherAnt >= 0 && c.Think.Glyphs >= 0 && c.Think.Word >= 0, "think weights must not be negative")
	check(c.Think.GlyphCount > 0, "think.glyph_count must be positive, got %d", c.Think.GlyphCount)
	check(c.Feed.MaxUpdates > 0, "feed.max_updates must be positive, got %d", c.Feed.MaxUpdates)
	check(c.Storage.Backend == "json" || c.Storage.Backend == "sqlite",
		"storage.backend must be json or sqlite, got %q", c.Storage.Backend)
	check(c.API.Port > 0 && c.API.Port < 65536, "api.port out of range: %d", c.API.Port)

	return errors.Join(errs...)
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
