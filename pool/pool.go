// Package pool provides a fixed-growth object pool addressed by generation-checked handles
package pool

import (
	"sync/atomic"

	"github.com/lixenwraith/chaoswave/core"
	"github.com/lixenwraith/chaoswave/parameter"
	"github.com/lixenwraith/chaoswave/status"
)

// Resetter is implemented by pooled objects
// Reset must overwrite every field a previous user could have set, child resources included
type Resetter interface {
	Reset()
}

// Handle addresses one acquisition of a slot
// Generation starts at 1 and is bumped on every acquire, so the zero Handle never resolves
type Handle struct {
	Index      uint32
	Generation uint32
}

func (h Handle) IsZero() bool {
	return h.Generation == 0
}

// Entity packs the handle into an entity id: generation high, index low
func (h Handle) Entity() core.Entity {
	return core.Entity(uint64(h.Generation)<<32 | uint64(h.Index))
}

// HandleOf unpacks an entity id produced by Handle.Entity
func HandleOf(e core.Entity) Handle {
	return Handle{Index: uint32(uint64(e)), Generation: uint32(uint64(e) >> 32)}
}

// Config sizes a pool
type Config struct {
	Name            string `yaml:"-"`
	GrowthIncrement int    `yaml:"growth_increment"`
	MaxSize         int    `yaml:"max_size"`
	Prewarm         int    `yaml:"prewarm"`
}

func DefaultConfig(name string, maxSize, prewarm int) Config {
	return Config{
		Name:            name,
		GrowthIncrement: parameter.PoolGrowthIncrement,
		MaxSize:         maxSize,
		Prewarm:         prewarm,
	}
}

// Stats counts pool usage over its lifetime
type Stats struct {
	Total     int    `json:"total"`
	Active    int    `json:"active"`
	Created   uint64 `json:"created"`
	Reused    uint64 `json:"reused"`
	Exhausted uint64 `json:"exhausted"`
}

type slot[T Resetter] struct {
	obj    T
	gen    uint32
	active bool
	used   bool
}

// Pool stores objects of pointer type T in slots that are never freed, only recycled
// Not safe for concurrent use; owned by the simulation goroutine
type Pool[T Resetter] struct {
	cfg   Config
	newFn func() T
	slots []slot[T]
	free  []uint32 // LIFO of inactive slot indices
	stats Stats

	mTotal     *atomic.Int64
	mActive    *atomic.Int64
	mExhausted *atomic.Int64
}

// New creates a pool and prewarms it; reg may be nil
func New[T Resetter](cfg Config, newFn func() T, reg *status.Registry) *Pool[T] {
	if cfg.GrowthIncrement <= 0 {
		cfg.GrowthIncrement = parameter.PoolGrowthIncrement
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = cfg.GrowthIncrement
	}
	if cfg.Name == "" {
		cfg.Name = "objects"
	}
	reg = status.OrNew(reg)
	p := &Pool[T]{
		cfg:        cfg,
		newFn:      newFn,
		mTotal:     reg.Ints.Get("pool." + cfg.Name + ".total"),
		mActive:    reg.Ints.Get("pool." + cfg.Name + ".active"),
		mExhausted: reg.Ints.Get("pool." + cfg.Name + ".exhausted"),
	}
	p.Prewarm(cfg.Prewarm)
	return p
}

// grow adds up to n inactive slots without exceeding MaxSize, returns slots added
func (p *Pool[T]) grow(n int) int {
	room := p.cfg.MaxSize - len(p.slots)
	if n > room {
		n = room
	}
	for i := 0; i < n; i++ {
		obj := p.newFn()
		obj.Reset()
		p.slots = append(p.slots, slot[T]{obj: obj})
		p.free = append(p.free, uint32(len(p.slots)-1))
		p.stats.Created++
	}
	if n > 0 {
		p.mTotal.Store(int64(len(p.slots)))
	}
	return max(n, 0)
}

// Prewarm grows the pool to at least n slots, bounded by MaxSize
func (p *Pool[T]) Prewarm(n int) {
	if n > len(p.slots) {
		p.grow(n - len(p.slots))
	}
}

// Acquire returns a freshly reset object, ok=false when the pool is full and every slot active
func (p *Pool[T]) Acquire() (Handle, T, bool) {
	if len(p.free) == 0 && p.grow(p.cfg.GrowthIncrement) == 0 {
		p.stats.Exhausted++
		p.mExhausted.Store(int64(p.stats.Exhausted))
		var zero T
		return Handle{}, zero, false
	}

	idx := p.free[len(p.free)-1]
	p.free = p.free[:len(p.free)-1]

	s := &p.slots[idx]
	s.gen++
	if s.gen == 0 {
		s.gen = 1
	}
	if s.used {
		p.stats.Reused++
	}
	s.used = true
	s.active = true
	s.obj.Reset()

	p.stats.Active++
	p.mActive.Store(int64(p.stats.Active))
	return Handle{Index: idx, Generation: s.gen}, s.obj, true
}

func (p *Pool[T]) live(h Handle) (*slot[T], bool) {
	if h.IsZero() || int(h.Index) >= len(p.slots) {
		return nil, false
	}
	s := &p.slots[h.Index]
	if !s.active || s.gen != h.Generation {
		return nil, false
	}
	return s, true
}

// Release returns the object to the pool; stale or inactive handles are a no-op
// Returns true when the handle was live
func (p *Pool[T]) Release(h Handle) bool {
	s, ok := p.live(h)
	if !ok {
		return false
	}
	s.obj.Reset()
	s.active = false
	p.free = append(p.free, h.Index)
	p.stats.Active--
	p.mActive.Store(int64(p.stats.Active))
	return true
}

// Get resolves a live handle
func (p *Pool[T]) Get(h Handle) (T, bool) {
	s, ok := p.live(h)
	if !ok {
		var zero T
		return zero, false
	}
	return s.obj, true
}

// Alive reports whether h addresses a live acquisition
func (p *Pool[T]) Alive(h Handle) bool {
	_, ok := p.live(h)
	return ok
}

// Each visits active objects in slot order; fn may release the visited handle
func (p *Pool[T]) Each(fn func(h Handle, obj T)) {
	for i := range p.slots {
		s := &p.slots[i]
		if s.active {
			fn(Handle{Index: uint32(i), Generation: s.gen}, s.obj)
		}
	}
}

// ReleaseAll deactivates every slot, invalidating all outstanding handles
func (p *Pool[T]) ReleaseAll() {
	p.Each(func(h Handle, _ T) { p.Release(h) })
}

func (p *Pool[T]) Active() int {
	return p.stats.Active
}

func (p *Pool[T]) Name() string {
	return p.cfg.Name
}

func (p *Pool[T]) Stats() Stats {
	st := p.stats
	st.Total = len(p.slots)
	return st
}
