package parameter

import "time"

// Debug Server
const (
	ServerAddr           = "127.0.0.1:8088"
	ServerFrameInterval  = 250 * time.Millisecond
	ServerWriteTimeout   = 2 * time.Second
	ServerShutdownGrace  = 3 * time.Second
	ServerClientBuffer   = 32
	ServerMaxEventsFrame = 64
)

// Journal
const (
	JournalPath          = "chaoswave.db"
	JournalBufferSize    = 512
	JournalBatchSize     = 64
	JournalFlushInterval = 500 * time.Millisecond
)

// HUD
const (
	HUDFrameInterval = 100 * time.Millisecond
	HUDChaosBarWidth = 41
	HUDEventLines    = 8
)
