package parameter

import "time"

// Loop & Scheduling
const (
	// TickInterval is the simulation step interval (game time per tick at normal speed)
	TickInterval = 50 * time.Millisecond

	// TickStallFactor caps game time consumed by one tick after a stall, in ticks
	TickStallFactor = 4

	// CommandQueueSize is the buffered capacity of the external command channel
	CommandQueueSize = 64

	// SnapshotEventHistory is the number of recent events kept in the published snapshot
	SnapshotEventHistory = 16
)

// Event Queue
const (
	// EventQueueSize is the fixed capacity of the event ring buffer
	EventQueueSize = 1024

	// EventBufferMask is the bitmask for fast modulo operations (1024 - 1)
	EventBufferMask = 1023
)
