package event

import (
	"sync/atomic"

	"github.com/lixenwraith/chaoswave/parameter"
)

// Queue is a lock-free MPSC ring buffer handing events to another goroutine
// Thread-Safety:
//   - Push: Lock-free CAS, multiple producers OK
//   - Drain: Single consumer
//   - Published flags prevent reading partial writes
//
// Overflow: Oldest events overwritten when full, counted in Overwritten
type Queue struct {
	events      [parameter.EventQueueSize]Event
	published   [parameter.EventQueueSize]atomic.Bool // True = slot fully written
	head        atomic.Uint64                         // Read index
	tail        atomic.Uint64                         // Write index
	overwritten atomic.Uint64
}

func NewQueue() *Queue {
	return &Queue{}
}

// Push adds event using lock-free CAS with published flags pattern
func (q *Queue) Push(e Event) {
	for {
		currentTail := q.tail.Load()
		nextTail := currentTail + 1

		if q.tail.CompareAndSwap(currentTail, nextTail) {
			idx := currentTail & parameter.EventBufferMask

			q.events[idx] = e
			q.published[idx].Store(true) // MUST be after write

			currentHead := q.head.Load()
			if nextTail-currentHead > parameter.EventQueueSize {
				if q.head.CompareAndSwap(currentHead, nextTail-parameter.EventQueueSize) {
					q.overwritten.Add(nextTail - parameter.EventQueueSize - currentHead)
				}
			}
			return
		}
	}
}

// Drain returns pending events in FIFO order and advances head
func (q *Queue) Drain() []Event {
	for {
		currentHead := q.head.Load()
		currentTail := q.tail.Load()

		if currentTail == currentHead {
			return nil
		}

		available := currentTail - currentHead
		if available > parameter.EventQueueSize {
			available = parameter.EventQueueSize
			currentHead = currentTail - parameter.EventQueueSize
		}

		result := make([]Event, 0, available)
		for i := uint64(0); i < available; i++ {
			idx := (currentHead + i) & parameter.EventBufferMask
			if !q.published[idx].Load() {
				break // Writer incomplete
			}
			result = append(result, q.events[idx])
			q.published[idx].Store(false)
		}

		if q.head.CompareAndSwap(currentHead, currentHead+uint64(len(result))) {
			if len(result) == 0 {
				return nil
			}
			return result
		}
	}
}

// Len returns approximate pending event count
func (q *Queue) Len() int {
	head := q.head.Load()
	tail := q.tail.Load()
	if tail <= head {
		return 0
	}
	diff := int(tail - head)
	if diff > parameter.EventQueueSize {
		return parameter.EventQueueSize
	}
	return diff
}

// Overwritten returns how many unread events were lost to overflow
func (q *Queue) Overwritten() uint64 {
	return q.overwritten.Load()
}

// QueueSink publishes into a Queue
type QueueSink struct {
	Queue *Queue
}

func (s QueueSink) Publish(e Event) {
	s.Queue.Push(e)
}
