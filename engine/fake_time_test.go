package engine

import (
	"sync"
	"time"
)

// steppedTime is a TimeProvider that moves only when a test says so
type steppedTime struct {
	mu  sync.Mutex
	now time.Time
}

func newSteppedTime(start time.Time) *steppedTime {
	return &steppedTime{now: start}
}

func (s *steppedTime) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

func (s *steppedTime) step(d time.Duration) {
	s.mu.Lock()
	s.now = s.now.Add(d)
	s.mu.Unlock()
}
