// Package settings holds the runtime switches a user flips while the
// colony runs: speed preset, per-category toggles, merge and verbosity.
package settings

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

var (
	ErrUnknownSpeed  = errors.New("unknown speed")
	ErrUnknownToggle = errors.New("unknown toggle")
)

// Speed is a tick cadence preset.
type Speed string

const (
	SpeedFast   Speed = "fast"
	SpeedNormal Speed = "normal"
	SpeedSlow   Speed = "slow"
	SpeedPaused Speed = "paused"
)

// ParseSpeed accepts any case ("Fast", "NORMAL").
func ParseSpeed(s string) (Speed, error) {
	switch sp := Speed(strings.ToLower(strings.TrimSpace(s))); sp {
	case SpeedFast, SpeedNormal, SpeedSlow, SpeedPaused:
		return sp, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSpeed, s)
}

// Settings is the flat key/value document persisted between runs.
type Settings struct {
	Speed   Speed `json:"speed"`
	Triumph bool  `json:"triumph_enabled"`
	Hit     bool  `json:"hit_enabled"`
	Travel  bool  `json:"travel_enabled"`
	Think   bool  `json:"think_enabled"`
	Words   bool  `json:"words_enabled"`
	Merge   bool  `json:"merge"`
	Verbose bool  `json:"verbose"`
}

// Default has everything enabled at normal speed.
func Default() Settings {
	s := Settings{Speed: SpeedNormal}
	s.EnableAll()
	return s
}

// toggles maps persisted keys to their fields.
func (s *Settings) toggles() map[string]*bool {
	return map[string]*bool{
		"triumph_enabled": &s.Triumph,
		"hit_enabled":     &s.Hit,
		"travel_enabled":  &s.Travel,
		"think_enabled":   &s.Think,
		"words_enabled":   &s.Words,
		"merge":           &s.Merge,
		"verbose":         &s.Verbose,
	}
}

// Toggles lists the toggle keys in a stable order.
func Toggles() []string {
	var s Settings
	keys := make([]string, 0, 7)
	for k := range s.toggles() {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Toggle flips one switch by key and returns its new value.
func (s *Settings) Toggle(key string) (bool, error) {
	ptr, ok := s.toggles()[key]
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknownToggle, key)
	}
	*ptr = !*ptr
	return *ptr, nil
}

// EnableAll turns every switch on.
func (s *Settings) EnableAll() {
	for _, ptr := range s.toggles() {
		*ptr = true
	}
}

// DisableAll turns every switch off.
func (s *Settings) DisableAll() {
	for _, ptr := range s.toggles() {
		*ptr = false
	}
}

// Values flattens the settings into string pairs for key/value storage.
func (s Settings) Values() map[string]string {
	out := map[string]string{"speed": string(s.Speed)}
	for k, ptr := range s.toggles() {
		out[k] = strconv.FormatBool(*ptr)
	}
	return out
}

// Apply overlays stored pairs onto s. Keys that are missing keep their
// current value; malformed values are reported. The legacy
// "score_enabled" key sets both triumph and hit.
func (s *Settings) Apply(values map[string]string) error {
	var errs []error
	if v, ok := values["speed"]; ok {
		sp, err := ParseSpeed(v)
		if err != nil {
			errs = append(errs, err)
		} else {
			s.Speed = sp
		}
	}
	if v, ok := values["score_enabled"]; ok {
		if b, err := strconv.ParseBool(v); err == nil {
			s.Triumph, s.Hit = b, b
		} else {
			errs = append(errs, fmt.Errorf("score_enabled: %w", err))
		}
	}
	for k, ptr := range s.toggles() {
		v, ok := values[k]
		if !ok {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", k, err))
			continue
		}
		*ptr = b
	}
	return errors.Join(errs...)
}
