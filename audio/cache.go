package audio

import (
	"sync"

	"github.com/gopxl/beep"
)

// soundCache stores pre-generated unity-gain cue buffers for one sample rate
type soundCache struct {
	rate  beep.SampleRate
	mu    sync.RWMutex
	store [cueCount]floatBuffer
	ready [cueCount]bool
}

func newSoundCache(rate beep.SampleRate) *soundCache {
	return &soundCache{rate: rate}
}

// get returns cached buffer or generates on demand
func (c *soundCache) get(cue Cue) floatBuffer {
	if cue < 0 || cue >= cueCount {
		return nil
	}

	c.mu.RLock()
	if c.ready[cue] {
		buf := c.store[cue]
		c.mu.RUnlock()
		return buf
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check after acquiring write lock
	if c.ready[cue] {
		return c.store[cue]
	}

	buf := synthesize(cue, c.rate)
	c.store[cue] = buf
	c.ready[cue] = true
	return buf
}

// preload generates every cue up front
func (c *soundCache) preload() {
	for cue := Cue(0); cue < cueCount; cue++ {
		c.get(cue)
	}
}
