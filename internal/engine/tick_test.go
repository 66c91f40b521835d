package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/cromulant/internal/config"
	"github.com/talgya/cromulant/internal/settings"
)

var testSpeeds = config.SpeedConfig{
	Fast:   2 * time.Millisecond,
	Normal: 5 * time.Millisecond,
	Slow:   time.Hour,
}

func startEngine(t *testing.T, e *Engine) <-chan error {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- e.Run(context.Background()) }()
	require.Eventually(t, e.Running, time.Second, time.Millisecond)
	t.Cleanup(e.Stop)
	return done
}

func TestEngineTicks(t *testing.T) {
	e := NewEngine(testSpeeds, settings.SpeedFast)
	seen := make(chan uint64, 100)
	e.OnTick = func(_ context.Context, tick uint64) {
		select {
		case seen <- tick:
		default:
		}
	}
	done := startEngine(t, e)

	require.Eventually(t, func() bool { return e.Tick() >= 3 }, time.Second, time.Millisecond)
	assert.Equal(t, uint64(1), <-seen)
	assert.Equal(t, uint64(2), <-seen)

	e.Stop()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("engine did not stop")
	}
	assert.False(t, e.Running())
}

func TestEngineRejectsSecondRun(t *testing.T) {
	e := NewEngine(testSpeeds, settings.SpeedPaused)
	startEngine(t, e)
	assert.ErrorIs(t, e.Run(context.Background()), ErrRunning)
}

func TestEngineSetSpeedReschedules(t *testing.T) {
	// Slow would not tick within the test; switching to fast must not wait
	// out the pending slow interval.
	e := NewEngine(testSpeeds, settings.SpeedSlow)
	startEngine(t, e)
	assert.Zero(t, e.Tick())

	e.SetSpeed(settings.SpeedFast)
	require.Eventually(t, func() bool { return e.Tick() >= 2 }, time.Second, time.Millisecond)
	assert.Equal(t, settings.SpeedFast, e.Speed())

	e.SetSpeed(settings.SpeedPaused)
	time.Sleep(20 * time.Millisecond)
	paused := e.Tick()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, paused, e.Tick(), "paused engine must not tick")
}

func TestEngineDo(t *testing.T) {
	e := NewEngine(testSpeeds, settings.SpeedPaused)
	startEngine(t, e)

	ran := false
	require.NoError(t, e.Do(context.Background(), func() { ran = true }))
	assert.True(t, ran)
}

func TestEngineDoHonoursContext(t *testing.T) {
	e := NewEngine(testSpeeds, settings.SpeedPaused)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := e.Do(ctx, func() {})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestEngineSetTick(t *testing.T) {
	e := NewEngine(testSpeeds, settings.SpeedPaused)
	e.SetTick(41)
	assert.Equal(t, uint64(41), e.Tick())
}
