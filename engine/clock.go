package engine

import "time"

// Timer identifies a scheduled callback; zero is never issued
type Timer uint64

// Clock is the cooperative time source handed to every component
// Callbacks run on the loop goroutine between ticks and never preempt each other
type Clock interface {
	// Now returns current game time (frozen while paused)
	Now() time.Time

	// After schedules fn once, d from now
	After(d time.Duration, fn func()) Timer

	// Every schedules fn repeatedly with period d, first run d from now
	Every(d time.Duration, fn func()) Timer

	// Cancel disposes a timer; unknown or fired timers are ignored
	Cancel(t Timer)
}
