// Package audio turns selected simulation events into short synthesized cues
package audio

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep"

	"github.com/lixenwraith/chaoswave/core"
	"github.com/lixenwraith/chaoswave/event"
	"github.com/lixenwraith/chaoswave/status"
)

// Cues is an event.Sink that plays a cue per notable event on its own goroutine
// Publish never blocks; cues are dropped when the queue is full or closer than CueMinGap
type Cues struct {
	cfg    Config
	player Player
	cache  *soundCache
	log    *slog.Logger
	now    func() time.Time

	queue    chan Cue
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	started  atomic.Bool

	last time.Time // Loop goroutine only

	mPlayed  *atomic.Int64
	mDropped *atomic.Int64
}

func NewCues(cfg Config, player Player, log *slog.Logger, reg *status.Registry) *Cues {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	reg = status.OrNew(reg)
	c := &Cues{
		cfg:      cfg,
		player:   player,
		cache:    newSoundCache(beep.SampleRate(cfg.SampleRate)),
		log:      log.With("component", "audio"),
		now:      time.Now,
		queue:    make(chan Cue, max(cfg.QueueSize, 1)),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		mPlayed:  reg.Ints.Get("audio.played"),
		mDropped: reg.Ints.Get("audio.dropped"),
	}
	c.cache.preload()
	return c
}

func (c *Cues) Name() string {
	return "audio"
}

func (c *Cues) Publish(e event.Event) {
	cue, ok := CueFor(e.Type)
	if !ok {
		return
	}
	select {
	case c.queue <- cue:
	default:
		c.mDropped.Add(1)
	}
}

func (c *Cues) Start(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return nil
	}
	core.Go(func() { c.loop(ctx) }, func(err error) {
		c.log.Error("audio loop crashed", "error", err)
	})
	return nil
}

func (c *Cues) Stop() error {
	c.stopOnce.Do(func() { close(c.stop) })
	if c.started.Load() {
		<-c.done
	}
	return nil
}

func (c *Cues) Played() int64 {
	return c.mPlayed.Load()
}

func (c *Cues) Dropped() int64 {
	return c.mDropped.Load()
}

func (c *Cues) loop(ctx context.Context) {
	defer close(c.done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stop:
			return
		case cue := <-c.queue:
			c.play(cue)
		}
	}
}

func (c *Cues) play(cue Cue) {
	now := c.now()
	if !c.last.IsZero() && now.Sub(c.last) < c.cfg.CueMinGap {
		c.mDropped.Add(1)
		return
	}
	c.last = now
	c.player.Play(withVolume(newStreamer(c.cache.get(cue)), c.cfg.Volume))
	c.mPlayed.Add(1)
	c.log.Debug("cue", "cue", cue.String())
}
