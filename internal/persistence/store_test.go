package persistence

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/cromulant/internal/ants"
	"github.com/talgya/cromulant/internal/feed"
	"github.com/talgya/cromulant/internal/settings"
)

func sampleAnts() []*ants.Ant {
	now := time.Unix(1_700_000_000, 0)
	a := ants.New("Joan of Arc", now)
	a.Triumph, a.Hits = 3, 1
	a.Status = "Peru"
	a.Method = ants.MethodTravel
	b := ants.New("Ada", now.Add(time.Minute))
	b.Method = ants.MethodHatched
	return []*ants.Ant{a, b}
}

func eachBackend(t *testing.T, fn func(t *testing.T, s Store)) {
	for _, kind := range []string{BackendJSON, BackendSQLite} {
		t.Run(kind, func(t *testing.T) {
			s, err := NewStore(kind, t.TempDir())
			require.NoError(t, err)
			t.Cleanup(func() { s.Close() })
			fn(t, s)
		})
	}
}

func TestNewStoreUnknownBackend(t *testing.T) {
	_, err := NewStore("redis", t.TempDir())
	assert.ErrorIs(t, err, ErrUnsupportedBackend)
}

func TestEmptyStore(t *testing.T) {
	eachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		list, err := s.LoadAnts(ctx)
		require.NoError(t, err)
		assert.Empty(t, list)

		st, err := s.LoadSettings(ctx)
		require.NoError(t, err)
		assert.Equal(t, settings.Default(), st)

		v, err := s.GetMeta(ctx, "tick")
		require.NoError(t, err)
		assert.Empty(t, v)
	})
}

func TestAntsRoundTrip(t *testing.T) {
	eachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		want := sampleAnts()
		require.NoError(t, s.SaveAnts(ctx, want))

		got, err := s.LoadAnts(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got)

		// Saving is a full replace.
		require.NoError(t, s.SaveAnts(ctx, want[1:]))
		got, err = s.LoadAnts(ctx)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Ada", got[0].Name)
	})
}

func TestSettingsRoundTrip(t *testing.T) {
	eachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		st := settings.Default()
		st.Speed = settings.SpeedFast
		st.Hit = false
		st.Verbose = false
		require.NoError(t, s.SaveSettings(ctx, st))

		got, err := s.LoadSettings(ctx)
		require.NoError(t, err)
		assert.Equal(t, st, got)
	})
}

func TestMetaRoundTrip(t *testing.T) {
	eachBackend(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, s.SaveMeta(ctx, "tick", "41"))
		require.NoError(t, s.SaveMeta(ctx, "tick", "42"))
		v, err := s.GetMeta(ctx, "tick")
		require.NoError(t, err)
		assert.Equal(t, "42", v)
	})
}

func TestJSONSettingsLegacyDocument(t *testing.T) {
	dir := t.TempDir()
	doc := `{"speed": "slow", "score_enabled": false, "merge": false, "unknown": 1}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, settingsFile), []byte(doc), 0o644))

	s, err := OpenJSON(dir)
	require.NoError(t, err)
	st, err := s.LoadSettings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, settings.SpeedSlow, st.Speed)
	assert.False(t, st.Triumph)
	assert.False(t, st.Hit)
	assert.False(t, st.Merge)
	assert.True(t, st.Travel)
}

func TestJSONCorruptAnts(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, antsFile), []byte("{"), 0o644))
	s, err := OpenJSON(dir)
	require.NoError(t, err)
	_, err = s.LoadAnts(context.Background())
	assert.Error(t, err)
}

func TestSQLiteFeedHistory(t *testing.T) {
	s, err := NewStore(BackendSQLite, t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	log, ok := FeedLog(s)
	require.True(t, ok)
	ctx := context.Background()
	for i := int64(1); i <= 5; i++ {
		require.NoError(t, log.AppendEntries(ctx, []feed.Entry{{
			ID: i, Time: 1_700_000_000 + i, Ant: "Ada", Method: ants.MethodWords, Message: "hi",
		}}))
	}

	recent, err := log.RecentEntries(ctx, 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, int64(3), recent[0].ID)
	assert.Equal(t, int64(5), recent[2].ID)
	assert.Equal(t, ants.MethodWords, recent[2].Method)
}

func TestJSONHasNoFeedHistory(t *testing.T) {
	s, err := NewStore("", t.TempDir())
	require.NoError(t, err)
	_, ok := FeedLog(s)
	assert.False(t, ok)
}

func TestLoadNamePool(t *testing.T) {
	dir := t.TempDir()
	txt := filepath.Join(dir, "names.txt")
	require.NoError(t, os.WriteFile(txt, []byte("# heroes\nAda\n\n  Joan of Arc  \n"), 0o644))
	names, err := LoadNamePool(txt)
	require.NoError(t, err)
	assert.Equal(t, []string{"Ada", "Joan of Arc"}, names)

	js := filepath.Join(dir, "names.json")
	require.NoError(t, os.WriteFile(js, []byte(`["Bo", "Cy"]`), 0o644))
	names, err = LoadNamePool(js)
	require.NoError(t, err)
	assert.Equal(t, []string{"Bo", "Cy"}, names)

	_, err = LoadNamePool(filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)
}
