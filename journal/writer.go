package journal

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/chaoswave/core"
	"github.com/lixenwraith/chaoswave/event"
	"github.com/lixenwraith/chaoswave/status"
)

type item struct {
	run *RunRecord
	ev  event.Event
}

// Writer is an event.Sink that journals events on its own goroutine
// Publish never blocks; events are dropped and counted when the buffer is full
type Writer struct {
	cfg   Config
	store *Store
	log   *slog.Logger

	items    chan item
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	started  atomic.Bool
	pending  atomic.Pointer[RunRecord] // Run marker that found the buffer full

	run   string // Writer goroutine only
	waves int

	mWritten *atomic.Int64
	mDropped *atomic.Int64
	mFailed  *atomic.Int64
}

func NewWriter(cfg Config, store *Store, log *slog.Logger, reg *status.Registry) *Writer {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	reg = status.OrNew(reg)
	return &Writer{
		cfg:      cfg,
		store:    store,
		log:      log.With("component", "journal"),
		items:    make(chan item, max(cfg.BufferSize, 1)),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		mWritten: reg.Ints.Get("journal.written"),
		mDropped: reg.Ints.Get("journal.dropped"),
		mFailed:  reg.Ints.Get("journal.failed"),
	}
}

func (w *Writer) Name() string {
	return "journal"
}

// Start launches the writer goroutine; ctx cancellation behaves like Stop
func (w *Writer) Start(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return nil
	}
	core.Go(func() { w.loop(ctx) }, func(err error) {
		w.log.Error("journal writer crashed", "error", err)
	})
	return nil
}

// Stop flushes queued events and waits for the writer goroutine
func (w *Writer) Stop() error {
	w.stopOnce.Do(func() { close(w.stop) })
	if w.started.Load() {
		<-w.done
	}
	return nil
}

// Publish queues e for the current run
func (w *Writer) Publish(e event.Event) {
	if !w.flushPending() {
		w.dropped()
		return
	}
	select {
	case w.items <- item{ev: e}:
	default:
		w.dropped()
	}
}

// BeginRun switches subsequent events to run id without blocking
// On a full buffer the marker is parked and queued ahead of the next event
func (w *Writer) BeginRun(id string, seed int64, at time.Time) {
	r := &RunRecord{ID: id, Seed: seed, StartedAt: at.UnixMilli()}
	if w.flushPending() {
		select {
		case w.items <- item{run: r}:
			return
		default:
		}
	}
	if prev := w.pending.Swap(r); prev != nil {
		w.log.Warn("journal run marker superseded while buffer full", "run", prev.ID)
	}
}

// flushPending queues a parked run marker; false while it still does not fit
func (w *Writer) flushPending() bool {
	r := w.pending.Swap(nil)
	if r == nil {
		return true
	}
	select {
	case w.items <- item{run: r}:
		return true
	default:
		w.pending.CompareAndSwap(nil, r)
		return false
	}
}

func (w *Writer) dropped() {
	if n := w.mDropped.Add(1); n == 1 || n%100 == 0 {
		w.log.Warn("journal buffer full, events dropped", "dropped", n)
	}
}

// Dropped returns the number of events discarded on a full buffer
func (w *Writer) Dropped() int64 {
	return w.mDropped.Load()
}

func (w *Writer) Written() int64 {
	return w.mWritten.Load()
}

func (w *Writer) loop(ctx context.Context) {
	defer close(w.done)

	interval := w.cfg.FlushInterval
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	batch := make([]EventRecord, 0, max(w.cfg.BatchSize, 1))
	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := w.store.SaveEvents(batch); err != nil {
			w.mFailed.Add(int64(len(batch)))
			w.log.Error("journal write failed", "events", len(batch), "error", err)
		} else {
			w.mWritten.Add(int64(len(batch)))
		}
		batch = batch[:0]
	}
	handle := func(it item) {
		if it.run != nil {
			flush()
			w.run, w.waves = it.run.ID, 0
			if err := w.store.BeginRun(*it.run); err != nil {
				w.log.Error("journal run insert failed", "run", it.run.ID, "error", err)
			}
			return
		}
		if w.run == "" {
			return // Events before the first run are not journaled
		}
		rec, err := RecordOf(w.run, it.ev)
		if err != nil {
			w.mFailed.Add(1)
			w.log.Warn("journal encode failed", "error", err)
			return
		}
		batch = append(batch, rec)
		w.finish(it.ev)
		if len(batch) >= cap(batch) {
			flush()
		}
	}

	for {
		select {
		case it := <-w.items:
			handle(it)
		case <-ticker.C:
			flush()
		case <-w.stop:
			w.drain(handle)
			flush()
			return
		case <-ctx.Done():
			w.drain(handle)
			flush()
			return
		}
	}
}

// finish tracks wave progress and closes the run row on victory
func (w *Writer) finish(e event.Event) {
	switch p := e.Payload.(type) {
	case event.WaveCompletedPayload:
		w.waves = p.Wave
	case event.VictoryPayload:
		if err := w.store.FinishRun(w.run, e.Time, p.Waves, true); err != nil {
			w.log.Error("journal run finish failed", "run", w.run, "error", err)
		}
	}
}

func (w *Writer) drain(handle func(item)) {
	for {
		select {
		case it := <-w.items:
			handle(it)
		default:
			if r := w.pending.Swap(nil); r != nil {
				handle(item{run: r})
			}
			return
		}
	}
}
