package engine

import (
	"testing"
	"time"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestSchedulerFiresInDueOrder(t *testing.T) {
	s := NewScheduler(epoch, nil)
	var order []string

	s.After(300*time.Millisecond, func() { order = append(order, "c") })
	s.After(100*time.Millisecond, func() { order = append(order, "a") })
	s.After(200*time.Millisecond, func() { order = append(order, "b") })
	s.After(100*time.Millisecond, func() { order = append(order, "a2") })

	if ran := s.Advance(250 * time.Millisecond); ran != 3 {
		t.Fatalf("Advance ran %d callbacks, want 3", ran)
	}
	want := []string{"a", "a2", "b"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want prefix %v", order, want)
		}
	}
	if !s.Now().Equal(epoch.Add(250 * time.Millisecond)) {
		t.Errorf("Now() = %v after advance", s.Now())
	}
	s.Advance(time.Second)
	if len(order) != 4 || order[3] != "c" {
		t.Errorf("order = %v, want c last", order)
	}
}

func TestSchedulerNowInsideCallbackIsDueTime(t *testing.T) {
	s := NewScheduler(epoch, nil)
	var seen time.Time
	s.After(40*time.Millisecond, func() { seen = s.Now() })
	s.Advance(time.Second)
	if !seen.Equal(epoch.Add(40 * time.Millisecond)) {
		t.Errorf("callback saw %v, want due time", seen)
	}
}

func TestSchedulerEveryAndCancel(t *testing.T) {
	s := NewScheduler(epoch, nil)
	count := 0
	id := s.Every(100*time.Millisecond, func() { count++ })

	s.Advance(1050 * time.Millisecond)
	if count != 10 {
		t.Fatalf("periodic count = %d, want 10", count)
	}

	s.Cancel(id)
	s.Advance(time.Second)
	if count != 10 {
		t.Errorf("cancelled timer kept firing: %d", count)
	}
	if s.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", s.Pending())
	}
	// Double cancel is harmless
	s.Cancel(id)
}

func TestSchedulerSelfCancelInsideCallback(t *testing.T) {
	s := NewScheduler(epoch, nil)
	count := 0
	var id Timer
	id = s.Every(10*time.Millisecond, func() {
		count++
		if count == 3 {
			s.Cancel(id)
		}
	})
	s.Advance(time.Second)
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}
}

func TestSchedulerChainedTimersFireWithinOneAdvance(t *testing.T) {
	s := NewScheduler(epoch, nil)
	var hits []time.Duration
	s.After(10*time.Millisecond, func() {
		hits = append(hits, s.Now().Sub(epoch))
		s.After(10*time.Millisecond, func() {
			hits = append(hits, s.Now().Sub(epoch))
		})
	})
	s.Advance(100 * time.Millisecond)
	if len(hits) != 2 || hits[1] != 20*time.Millisecond {
		t.Errorf("hits = %v, want [10ms 20ms]", hits)
	}
}

func TestSchedulerPanicDoesNotStopDispatch(t *testing.T) {
	s := NewScheduler(epoch, nil)
	after := false
	periodic := 0
	s.After(10*time.Millisecond, func() { panic("bad callback") })
	s.After(20*time.Millisecond, func() { after = true })
	s.Every(5*time.Millisecond, func() {
		periodic++
		if periodic == 1 {
			panic("first tick fails")
		}
	})

	s.Advance(50 * time.Millisecond)
	if !after {
		t.Error("callback after a panicking one did not run")
	}
	if periodic != 10 {
		t.Errorf("periodic ran %d times, want 10", periodic)
	}
	st := s.Stats()
	if st.Failed != 2 {
		t.Errorf("Failed = %d, want 2", st.Failed)
	}
}

func TestSchedulerCancelAll(t *testing.T) {
	s := NewScheduler(epoch, nil)
	fired := 0
	for i := 0; i < 5; i++ {
		s.After(time.Duration(i+1)*time.Millisecond, func() { fired++ })
	}
	s.Every(time.Millisecond, func() { fired++ })
	s.CancelAll()
	s.Advance(time.Second)
	if fired != 0 {
		t.Errorf("fired = %d after CancelAll", fired)
	}
}

func TestTimerSetOwnership(t *testing.T) {
	s := NewScheduler(epoch, nil)
	ts := NewTimerSet(s)
	fired := 0

	ts.After(10*time.Millisecond, func() { fired++ })
	ts.After(20*time.Millisecond, func() { fired++ })
	ts.Every(5*time.Millisecond, func() {})
	if ts.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", ts.Len())
	}

	s.Advance(15 * time.Millisecond)
	if fired != 1 || ts.Len() != 2 {
		t.Fatalf("fired=%d len=%d, want 1 and 2", fired, ts.Len())
	}

	ts.CancelAll()
	s.Advance(time.Second)
	if fired != 1 {
		t.Errorf("timer fired after CancelAll")
	}
	if ts.Len() != 0 || s.Pending() != 0 {
		t.Errorf("leaked timers: set=%d scheduler=%d", ts.Len(), s.Pending())
	}
}
