package engine

import (
	"container/heap"
	"io"
	"log/slog"
	"time"

	"github.com/lixenwraith/chaoswave/core"
)

// minPeriod bounds repeating timers so a zero interval cannot spin a single Advance
const minPeriod = time.Millisecond

type task struct {
	id     Timer
	due    time.Time
	period time.Duration // 0 = one-shot
	seq    uint64        // Registration order, ties broken FIFO
	fn     func()
	index  int // Heap position, -1 when removed
}

type taskHeap []*task

func (h taskHeap) Len() int { return len(h) }
func (h taskHeap) Less(i, j int) bool {
	if h[i].due.Equal(h[j].due) {
		return h[i].seq < h[j].seq
	}
	return h[i].due.Before(h[j].due)
}
func (h taskHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *taskHeap) Push(x any) {
	t := x.(*task)
	t.index = len(*h)
	*h = append(*h, t)
}
func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}

// SchedulerStats counts dispatch outcomes
type SchedulerStats struct {
	Pending   int
	Fired     uint64
	Failed    uint64
	Cancelled uint64
}

// Scheduler is the single-threaded Clock implementation
// Game time only moves on Advance; due callbacks fire in due-time order with Now() equal to their due time
type Scheduler struct {
	now    time.Time
	seq    uint64
	nextID Timer
	queue  taskHeap
	tasks  map[Timer]*task
	log    *slog.Logger

	fired     uint64
	failed    uint64
	cancelled uint64
}

// NewScheduler creates a scheduler whose game time starts at start
func NewScheduler(start time.Time, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Scheduler{
		now:   start,
		tasks: make(map[Timer]*task),
		log:   log,
	}
}

func (s *Scheduler) Now() time.Time {
	return s.now
}

func (s *Scheduler) After(d time.Duration, fn func()) Timer {
	if d < 0 {
		d = 0
	}
	return s.schedule(d, 0, fn)
}

func (s *Scheduler) Every(d time.Duration, fn func()) Timer {
	if d < minPeriod {
		d = minPeriod
	}
	return s.schedule(d, d, fn)
}

func (s *Scheduler) schedule(delay, period time.Duration, fn func()) Timer {
	if fn == nil {
		return 0
	}
	s.nextID++
	s.seq++
	t := &task{
		id:     s.nextID,
		due:    s.now.Add(delay),
		period: period,
		seq:    s.seq,
		fn:     fn,
	}
	s.tasks[t.id] = t
	heap.Push(&s.queue, t)
	return t.id
}

func (s *Scheduler) Cancel(id Timer) {
	t, ok := s.tasks[id]
	if !ok {
		return
	}
	delete(s.tasks, id)
	if t.index >= 0 {
		heap.Remove(&s.queue, t.index)
	}
	s.cancelled++
}

// CancelAll disposes every pending timer
func (s *Scheduler) CancelAll() {
	s.cancelled += uint64(len(s.tasks))
	s.tasks = make(map[Timer]*task)
	s.queue = s.queue[:0]
}

// Advance moves game time forward by dt and dispatches everything that became due
// Timers scheduled by callbacks also fire within this call if their due time is reached
// Returns number of callbacks run
func (s *Scheduler) Advance(dt time.Duration) int {
	if dt < 0 {
		dt = 0
	}
	return s.AdvanceTo(s.now.Add(dt))
}

// AdvanceTo dispatches due timers up to target; targets in the past only flush overdue work
func (s *Scheduler) AdvanceTo(target time.Time) int {
	if target.Before(s.now) {
		target = s.now
	}

	ran := 0
	for len(s.queue) > 0 {
		next := s.queue[0]
		if next.due.After(target) {
			break
		}
		heap.Pop(&s.queue)
		s.now = next.due

		if next.period > 0 {
			// Re-arm before running so the callback may cancel itself
			s.seq++
			next.seq = s.seq
			next.due = next.due.Add(next.period)
			heap.Push(&s.queue, next)
		} else {
			delete(s.tasks, next.id)
		}

		s.dispatch(next)
		ran++
	}
	s.now = target
	return ran
}

func (s *Scheduler) dispatch(t *task) {
	if err := core.SafeCall(t.fn); err != nil {
		s.failed++
		s.log.Error("timer callback failed", "timer", uint64(t.id), "error", err)
		return
	}
	s.fired++
}

// Pending returns number of live timers
func (s *Scheduler) Pending() int {
	return len(s.tasks)
}

// Stats returns dispatch counters
func (s *Scheduler) Stats() SchedulerStats {
	return SchedulerStats{
		Pending:   len(s.tasks),
		Fired:     s.fired,
		Failed:    s.failed,
		Cancelled: s.cancelled,
	}
}
