package feed

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/cromulant/internal/ants"
	"github.com/talgya/cromulant/internal/config"
	"github.com/talgya/cromulant/internal/engine"
)

type memLog struct {
	entries []Entry
	calls   int
	err     error
}

func (m *memLog) AppendEntries(_ context.Context, entries []Entry) error {
	m.calls++
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, entries...)
	return nil
}

func (m *memLog) RecentEntries(_ context.Context, limit int) ([]Entry, error) {
	if len(m.entries) > limit {
		return m.entries[len(m.entries)-limit:], nil
	}
	return m.entries, nil
}

var t0 = time.Unix(1_700_000_000, 0)

func update(name string, method ants.Method, status string) engine.Update {
	a := ants.New(name, t0)
	a.Status = status
	a.Method = method
	return engine.Update{Ant: a, Method: method, Time: t0}
}

func testConfig(max int) config.FeedConfig {
	cfg := config.Default().Feed
	cfg.MaxUpdates = max
	return cfg
}

func TestFeedBounded(t *testing.T) {
	f := New(testConfig(3), nil)
	for _, n := range []string{"Ada", "Bo", "Cy", "Dee", "Eve"} {
		f.AntUpdated(update(n, ants.MethodHatched, ""))
	}
	assert.Equal(t, 3, f.Len())

	recent := f.Recent(0, "")
	require.Len(t, recent, 3)
	assert.Equal(t, "Cy", recent[0].Ant)
	assert.Equal(t, "Eve", recent[2].Ant)
	assert.Equal(t, int64(5), recent[2].ID)
}

func TestFeedRecentLimitAndFilter(t *testing.T) {
	f := New(testConfig(10), nil)
	f.AntUpdated(update("Ada", ants.MethodTriumph, ""))
	f.AntUpdated(update("Bo", ants.MethodTravel, "Peru"))
	f.AntUpdated(update("Adam", ants.MethodHit, ""))

	recent := f.Recent(1, "")
	require.Len(t, recent, 1)
	assert.Equal(t, "Adam", recent[0].Ant)

	ada := f.Recent(0, "  ADA ")
	require.Len(t, ada, 2)
	assert.Equal(t, "Ada", ada[0].Ant)

	peru := f.Recent(0, "peru")
	require.Len(t, peru, 1)
	assert.Equal(t, "Traveling to Peru", peru[0].Message)

	assert.Empty(t, f.Recent(0, "nobody"))
}

func TestMessage(t *testing.T) {
	cfg := config.Default().Feed
	tests := []struct {
		method ants.Method
		status string
		detail string
		msg    string
		icon   string
	}{
		{ants.MethodHatched, "", "", "Hatched", ""},
		{ants.MethodTerminated, "", "", "Terminated", ""},
		{ants.MethodTriumph, "", "", "Scored a triumph", "😀"},
		{ants.MethodHit, "", "", "Took a hit", "🎃"},
		{ants.MethodTravel, "Chile", "", "Traveling to Chile", ""},
		{ants.MethodThink, "Ada", "", "Thinking about Ada", ""},
		{ants.MethodWords, "The ant sleeps.", "", "The ant sleeps.", ""},
		{ants.MethodMerge, "", "Ada + Bo", "Merged from Ada + Bo", ""},
	}
	for _, tt := range tests {
		t.Run(string(tt.method), func(t *testing.T) {
			u := update("Zed", tt.method, tt.status)
			u.Detail = tt.detail
			msg, icon := Message(cfg, u)
			assert.Equal(t, tt.msg, msg)
			assert.Equal(t, tt.icon, icon)
		})
	}
}

func TestSubscribe(t *testing.T) {
	f := New(testConfig(10), nil)
	id, ch := f.Subscribe()

	f.AntUpdated(update("Ada", ants.MethodTriumph, ""))
	select {
	case e := <-ch:
		assert.Equal(t, "Ada", e.Ant)
		assert.Equal(t, "😀", e.Icon)
	case <-time.After(time.Second):
		t.Fatal("no entry delivered")
	}

	f.Unsubscribe(id)
	_, open := <-ch
	assert.False(t, open)
	f.Unsubscribe(id)
}

func TestSlowSubscriberDoesNotBlock(t *testing.T) {
	f := New(testConfig(500), nil)
	_, ch := f.Subscribe()
	for i := 0; i < subBuffer*2; i++ {
		f.AntUpdated(update("Ada", ants.MethodHit, ""))
	}
	assert.Len(t, ch, subBuffer)
}

func TestPopulation(t *testing.T) {
	f := New(testConfig(10), nil)
	n, top := f.Population()
	assert.Zero(t, n)
	assert.Nil(t, top)

	f.PopulationChanged(4, ants.New("Ada", t0))
	n, top = f.Population()
	assert.Equal(t, 4, n)
	assert.Equal(t, "Ada", top.Name)
}

func TestFeedPersistsAndRestores(t *testing.T) {
	log := &memLog{}
	f := New(testConfig(2), log)
	f.AntUpdated(update("Ada", ants.MethodHatched, ""))
	f.AntUpdated(update("Bo", ants.MethodHatched, ""))
	f.AntUpdated(update("Cy", ants.MethodHatched, ""))
	assert.Empty(t, log.entries, "persisted when the operation ends")
	f.PopulationChanged(3, nil)
	require.Len(t, log.entries, 3)

	restored := New(testConfig(2), log)
	require.NoError(t, restored.Restore(context.Background()))
	recent := restored.Recent(0, "")
	require.Len(t, recent, 2)
	assert.Equal(t, "Bo", recent[0].Ant)

	restored.AntUpdated(update("Dee", ants.MethodHatched, ""))
	assert.Equal(t, int64(4), restored.Recent(1, "")[0].ID, "ids continue after restore")
}

func TestFeedLogErrorKeepsEntry(t *testing.T) {
	log := &memLog{err: errors.New("locked")}
	f := New(testConfig(10), log)
	f.AntUpdated(update("Ada", ants.MethodHatched, ""))
	err := f.Flush(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, log.err)
	assert.Equal(t, 1, f.Len())

	log.err = nil
	require.NoError(t, f.Flush(context.Background()))
	assert.Empty(t, log.entries, "a failed batch is not retried")
}

func TestFeedPersistsOneBatchPerOperation(t *testing.T) {
	log := &memLog{}
	f := New(testConfig(10), log)

	f.AntUpdated(update("Ada", ants.MethodTerminated, ""))
	f.AntUpdated(update("Bo", ants.MethodTerminated, ""))
	f.AntUpdated(update("Ada Bo", ants.MethodMerge, ""))
	f.PopulationChanged(1, nil)
	assert.Equal(t, 1, log.calls)
	require.Len(t, log.entries, 3)
	assert.Equal(t, []int64{1, 2, 3}, []int64{log.entries[0].ID, log.entries[1].ID, log.entries[2].ID})

	f.PopulationChanged(1, nil)
	require.NoError(t, f.Flush(context.Background()))
	assert.Equal(t, 1, log.calls, "nothing pending, nothing written")

	f.AntUpdated(update("Cy", ants.MethodHatched, ""))
	require.NoError(t, f.Flush(context.Background()))
	assert.Equal(t, 2, log.calls)
	assert.Len(t, log.entries, 4)
}

func TestWriteCSV(t *testing.T) {
	f := New(testConfig(10), nil)
	f.AntUpdated(update("Ada", ants.MethodTriumph, ""))
	f.AntUpdated(update("Bo", ants.MethodWords, "The ant, it sleeps."))

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, f.Recent(0, "")))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "id,time,ant_id,ant,method,message,icon,score,color", lines[0])
	assert.Contains(t, lines[1], "Scored a triumph")
	assert.Contains(t, lines[2], `"The ant, it sleeps."`)
}
