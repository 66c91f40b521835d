package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	s := Default()
	assert.Equal(t, SpeedNormal, s.Speed)
	assert.True(t, s.Triumph && s.Hit && s.Travel && s.Think && s.Words && s.Merge && s.Verbose)
}

func TestParseSpeed(t *testing.T) {
	sp, err := ParseSpeed(" Fast ")
	require.NoError(t, err)
	assert.Equal(t, SpeedFast, sp)

	_, err = ParseSpeed("ludicrous")
	assert.ErrorIs(t, err, ErrUnknownSpeed)
}

func TestToggle(t *testing.T) {
	s := Default()
	v, err := s.Toggle("merge")
	require.NoError(t, err)
	assert.False(t, v)
	assert.False(t, s.Merge)

	_, err = s.Toggle("dance_enabled")
	assert.ErrorIs(t, err, ErrUnknownToggle)
}

func TestEnableDisableAll(t *testing.T) {
	s := Default()
	s.DisableAll()
	assert.False(t, s.Triumph || s.Hit || s.Travel || s.Think || s.Words || s.Merge || s.Verbose)
	assert.Equal(t, SpeedNormal, s.Speed)
	s.EnableAll()
	assert.True(t, s.Triumph && s.Hit && s.Travel && s.Think && s.Words && s.Merge && s.Verbose)
}

func TestValuesApplyRoundTrip(t *testing.T) {
	s := Default()
	s.Speed = SpeedSlow
	s.Think = false

	var back Settings
	require.NoError(t, back.Apply(s.Values()))
	assert.Equal(t, s, back)
}

func TestApplyLegacyScoreAndErrors(t *testing.T) {
	s := Default()
	err := s.Apply(map[string]string{
		"score_enabled": "false",
		"words_enabled": "nope",
		"speed":         "warp",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownSpeed)
	assert.False(t, s.Triumph)
	assert.False(t, s.Hit)
	assert.True(t, s.Words)
	assert.Equal(t, SpeedNormal, s.Speed)
}

func TestTogglesStableOrder(t *testing.T) {
	assert.Equal(t, []string{
		"hit_enabled", "merge", "think_enabled", "travel_enabled",
		"triumph_enabled", "verbose", "words_enabled",
	}, Toggles())
}
