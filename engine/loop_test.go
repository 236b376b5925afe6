package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lixenwraith/chaoswave/parameter"
)

func TestPausableClockExcludesPause(t *testing.T) {
	mock := newSteppedTime(epoch)
	pc := NewPausableClock(mock)

	mock.step(time.Second)
	if got := pc.Elapsed(); got != time.Second {
		t.Fatalf("Elapsed() = %v, want 1s", got)
	}

	pc.Pause()
	mock.step(5 * time.Second)
	if got := pc.Elapsed(); got != time.Second {
		t.Errorf("Elapsed() while paused = %v, want 1s", got)
	}
	if got := pc.TotalPauseDuration(); got != 5*time.Second {
		t.Errorf("TotalPauseDuration() = %v, want 5s", got)
	}

	pc.Resume()
	mock.step(2 * time.Second)
	if got := pc.Elapsed(); got != 3*time.Second {
		t.Errorf("Elapsed() after resume = %v, want 3s", got)
	}
	if pc.IsPaused() {
		t.Error("IsPaused() after Resume")
	}
	// Repeated calls are no-ops
	pc.Resume()
	pc.Pause()
	pc.Pause()
	mock.step(time.Second)
	if got := pc.TotalPauseDuration(); got != 6*time.Second {
		t.Errorf("TotalPauseDuration() = %v, want 6s", got)
	}
}

func TestLoopTickUsesGameDelta(t *testing.T) {
	mock := newSteppedTime(epoch)
	pc := NewPausableClock(mock)
	var steps []time.Duration
	loop := NewLoop(pc, 10*time.Millisecond, func(dt time.Duration) { steps = append(steps, dt) }, nil)

	mock.step(10 * time.Millisecond)
	loop.Tick()
	pc.Pause()
	mock.step(10 * time.Millisecond)
	loop.Tick()
	pc.Resume()
	mock.step(time.Second) // stall
	loop.Tick()

	want := []time.Duration{10 * time.Millisecond, 0, 10 * time.Millisecond * parameter.TickStallFactor}
	for i := range want {
		if steps[i] != want[i] {
			t.Errorf("step %d dt = %v, want %v", i, steps[i], want[i])
		}
	}
	if loop.TickCount() != 3 {
		t.Errorf("TickCount() = %d, want 3", loop.TickCount())
	}
}

func TestLoopRecoversStepPanic(t *testing.T) {
	pc := NewPausableClock(newSteppedTime(epoch))
	loop := NewLoop(pc, time.Millisecond, func(time.Duration) { panic("step") }, nil)
	loop.Tick()
	loop.Tick()
	if loop.Failures() != 2 {
		t.Errorf("Failures() = %d, want 2", loop.Failures())
	}
}

func TestLoopRunStopsOnCancel(t *testing.T) {
	pc := NewPausableClock(nil)
	ticks := make(chan struct{}, 64)
	loop := NewLoop(pc, 2*time.Millisecond, func(time.Duration) {
		select {
		case ticks <- struct{}{}:
		default:
		}
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	<-ticks
	<-ticks
	if err := loop.Run(ctx); !errors.Is(err, ErrLoopRunning) {
		t.Errorf("second Run = %v, want ErrLoopRunning", err)
	}
	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Run returned %v, want context.Canceled", err)
	}
}
