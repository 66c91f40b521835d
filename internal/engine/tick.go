// Package engine runs the colony: the population store, the event
// scheduler and the tick loop that drives them.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/talgya/cromulant/internal/config"
	"github.com/talgya/cromulant/internal/settings"
)

// ErrRunning is returned by Run when the engine is already running.
var ErrRunning = errors.New("engine already running")

// Engine drives the colony forward. Every tick and every Do call runs on
// the Run goroutine, one at a time.
type Engine struct {
	// OnTick runs once per tick. Populated during setup.
	OnTick func(ctx context.Context, tick uint64)

	tick   atomic.Uint64
	speeds config.SpeedConfig

	mu      sync.Mutex
	speed   settings.Speed
	running bool
	cancel  context.CancelFunc

	rearm chan struct{}
	ops   chan op
}

type op struct {
	fn   func()
	done chan struct{}
}

// NewEngine creates an engine that ticks at the given preset.
func NewEngine(speeds config.SpeedConfig, speed settings.Speed) *Engine {
	return &Engine{
		speeds: speeds,
		speed:  speed,
		rearm:  make(chan struct{}, 1),
		ops:    make(chan op),
	}
}

// Tick is the number of ticks run so far.
func (e *Engine) Tick() uint64 { return e.tick.Load() }

// SetTick restores the tick counter, e.g. after loading saved state.
func (e *Engine) SetTick(n uint64) { e.tick.Store(n) }

// Speed is the current preset.
func (e *Engine) Speed() settings.Speed {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.speed
}

// Running reports whether Run is active.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// SetSpeed changes the cadence. A running engine drops its pending tick
// and schedules the next one at the new interval; paused schedules none.
func (e *Engine) SetSpeed(speed settings.Speed) {
	e.mu.Lock()
	e.speed = speed
	e.mu.Unlock()
	select {
	case e.rearm <- struct{}{}:
	default:
	}
}

// Do runs fn on the engine goroutine and waits for it to finish. It blocks
// until the engine picks it up or ctx is done.
func (e *Engine) Do(ctx context.Context, fn func()) error {
	o := op{fn: fn, done: make(chan struct{})}
	select {
	case e.ops <- o:
	case <-ctx.Done():
		return ctx.Err()
	}
	<-o.done
	return nil
}

// Run ticks until ctx is cancelled or Stop is called.
func (e *Engine) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return ErrRunning
	}
	e.running = true
	e.cancel = cancel
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		e.running = false
		e.cancel = nil
		e.mu.Unlock()
	}()

	var timer *time.Timer
	var next <-chan time.Time
	arm := func() {
		if timer != nil {
			timer.Stop()
			timer, next = nil, nil
		}
		if d, ok := e.speeds.Interval(e.Speed()); ok {
			timer = time.NewTimer(d)
			next = timer.C
		}
	}
	arm()
	slog.Info("colony engine started", "tick", e.Tick(), "speed", e.Speed())

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			slog.Info("colony engine stopped", "tick", e.Tick())
			return nil
		case <-e.rearm:
			arm()
			slog.Info("colony speed changed", "speed", e.Speed())
		case o := <-e.ops:
			o.fn()
			close(o.done)
		case <-next:
			e.step(ctx)
			arm()
		}
	}
}

// Stop cancels a running engine.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		e.cancel()
	}
}

// step advances the colony by one tick.
func (e *Engine) step(ctx context.Context) {
	n := e.tick.Add(1)
	if e.OnTick != nil {
		e.OnTick(ctx, n)
	}
}
