package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/chaoswave/core"
	"github.com/lixenwraith/chaoswave/parameter"
)

// ErrLoopRunning is returned when Run is called on a loop that is already running
var ErrLoopRunning = errors.New("loop already running")

// StepFunc advances the simulation by dt of game time
// dt is zero while the clock is paused; the step still runs so queued commands drain
type StepFunc func(dt time.Duration)

// Loop drives a StepFunc on a fixed tick with drift correction
type Loop struct {
	clock        *PausableClock
	tickInterval time.Duration
	maxStep      time.Duration // Game time per tick is capped after stalls
	step         StepFunc
	log          *slog.Logger

	lastElapsed time.Duration
	tickCount   atomic.Uint64
	failures    atomic.Uint64
	running     atomic.Bool
}

// NewLoop creates a loop ticking every tickInterval of wall time
func NewLoop(clock *PausableClock, tickInterval time.Duration, step StepFunc, log *slog.Logger) *Loop {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if tickInterval <= 0 {
		tickInterval = 16 * time.Millisecond
	}
	return &Loop{
		clock:        clock,
		tickInterval: tickInterval,
		maxStep:      tickInterval * parameter.TickStallFactor,
		step:         step,
		log:          log,
		lastElapsed:  clock.Elapsed(),
	}
}

// Tick runs exactly one step using game time elapsed since the previous tick
func (l *Loop) Tick() {
	elapsed := l.clock.Elapsed()
	dt := elapsed - l.lastElapsed
	if dt < 0 {
		dt = 0
	}
	if dt > l.maxStep {
		l.log.Debug("tick stall clamped", "dt", dt, "max", l.maxStep)
		dt = l.maxStep
	}
	l.lastElapsed = elapsed

	if err := core.SafeCall(func() { l.step(dt) }); err != nil {
		l.failures.Add(1)
		l.log.Error("simulation step failed", "tick", l.tickCount.Load(), "error", err)
	}
	l.tickCount.Add(1)
}

// Run blocks ticking until ctx is cancelled
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrLoopRunning
	}
	defer l.running.Store(false)

	l.log.Info("loop started", "tick_interval", l.tickInterval)
	defer l.log.Info("loop stopped", "ticks", l.tickCount.Load())

	nextDeadline := l.clock.RealTime().Add(l.tickInterval)
	timer := time.NewTimer(l.tickInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}

		l.Tick()

		now := l.clock.RealTime()
		nextDeadline = nextDeadline.Add(l.tickInterval)
		// Fell too far behind: resync instead of bursting catch-up ticks
		if now.Sub(nextDeadline) > l.tickInterval*2 {
			nextDeadline = now.Add(l.tickInterval)
		}
		sleep := nextDeadline.Sub(now)
		if sleep < 0 {
			sleep = 0
		}
		timer.Reset(sleep)
	}
}

func (l *Loop) TickCount() uint64 {
	return l.tickCount.Load()
}

func (l *Loop) Failures() uint64 {
	return l.failures.Load()
}

func (l *Loop) IsRunning() bool {
	return l.running.Load()
}
