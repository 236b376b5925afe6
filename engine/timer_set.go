package engine

import "time"

// TimerSet tracks the timers one component owns so teardown can dispose all of them
type TimerSet struct {
	clock  Clock
	timers map[Timer]struct{}
}

func NewTimerSet(clock Clock) *TimerSet {
	return &TimerSet{
		clock:  clock,
		timers: make(map[Timer]struct{}),
	}
}

// After schedules a one-shot timer that forgets itself once fired
func (ts *TimerSet) After(d time.Duration, fn func()) Timer {
	var id Timer
	id = ts.clock.After(d, func() {
		delete(ts.timers, id)
		fn()
	})
	if id != 0 {
		ts.timers[id] = struct{}{}
	}
	return id
}

func (ts *TimerSet) Every(d time.Duration, fn func()) Timer {
	id := ts.clock.Every(d, fn)
	if id != 0 {
		ts.timers[id] = struct{}{}
	}
	return id
}

// Cancel disposes one owned timer, zero is ignored
func (ts *TimerSet) Cancel(id Timer) {
	if id == 0 {
		return
	}
	if _, ok := ts.timers[id]; !ok {
		return
	}
	delete(ts.timers, id)
	ts.clock.Cancel(id)
}

// CancelAll disposes every owned timer
func (ts *TimerSet) CancelAll() {
	for id := range ts.timers {
		ts.clock.Cancel(id)
	}
	clear(ts.timers)
}

func (ts *TimerSet) Len() int {
	return len(ts.timers)
}

func (ts *TimerSet) Has(id Timer) bool {
	_, ok := ts.timers[id]
	return ok
}
