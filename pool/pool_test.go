package pool

import (
	"math/rand"
	"testing"

	"github.com/lixenwraith/chaoswave/core"
	"github.com/lixenwraith/chaoswave/status"
)

type probe struct {
	x, y    float64
	faction core.FactionID
	trail   []int
	resets  int
}

func (p *probe) Reset() {
	p.x, p.y = 0, 0
	p.faction = core.FactionNeutral
	p.trail = p.trail[:0]
	p.resets++
}

func newProbePool(max int) *Pool[*probe] {
	cfg := Config{Name: "probe", GrowthIncrement: 1, MaxSize: max}
	return New(cfg, func() *probe { return &probe{} }, nil)
}

func TestPoolExhaustionAndReuse(t *testing.T) {
	p := newProbePool(2)

	h1, o1, ok1 := p.Acquire()
	_, _, ok2 := p.Acquire()
	if !ok1 || !ok2 {
		t.Fatal("first two acquires should succeed")
	}
	if _, _, ok := p.Acquire(); ok {
		t.Fatal("third acquire on a full pool should fail")
	}

	o1.x, o1.y = 10, 20
	o1.faction = core.FactionA
	o1.trail = append(o1.trail, 1, 2, 3)

	if !p.Release(h1) {
		t.Fatal("Release of live handle returned false")
	}
	h3, o3, ok := p.Acquire()
	if !ok {
		t.Fatal("acquire after release should succeed")
	}
	if o3.x != 0 || o3.y != 0 || o3.faction != core.FactionNeutral || len(o3.trail) != 0 {
		t.Errorf("reused object not reset: %+v", o3)
	}
	if h3 == h1 {
		t.Error("reused slot kept the old generation")
	}

	st := p.Stats()
	if st.Total != 2 || st.Active != 2 || st.Created != 2 || st.Reused != 1 || st.Exhausted != 1 {
		t.Errorf("Stats() = %+v", st)
	}
}

func TestPoolStaleAndDoubleRelease(t *testing.T) {
	p := newProbePool(4)
	h, _, _ := p.Acquire()

	if !p.Release(h) {
		t.Fatal("first release failed")
	}
	if p.Release(h) {
		t.Error("double release should be a no-op")
	}
	if p.Active() != 0 {
		t.Errorf("Active() = %d after double release", p.Active())
	}

	h2, _, _ := p.Acquire()
	if _, ok := p.Get(h); ok {
		t.Error("stale handle resolved after slot reuse")
	}
	if p.Release(h) {
		t.Error("stale release should not free the new occupant")
	}
	if !p.Alive(h2) {
		t.Error("new occupant was released by stale handle")
	}
	if p.Release(Handle{}) {
		t.Error("zero handle released")
	}
}

func TestPoolNeverHandsOutActiveSlot(t *testing.T) {
	p := newProbePool(16)
	rng := rand.New(rand.NewSource(7))
	live := make(map[uint32]Handle)

	for i := 0; i < 2000; i++ {
		if rng.Intn(2) == 0 {
			h, _, ok := p.Acquire()
			if !ok {
				if len(live) != 16 {
					t.Fatalf("exhausted with %d live", len(live))
				}
				continue
			}
			if _, dup := live[h.Index]; dup {
				t.Fatalf("slot %d handed out while active", h.Index)
			}
			live[h.Index] = h
		} else {
			for idx, h := range live {
				p.Release(h)
				delete(live, idx)
				break
			}
		}
		if p.Active() != len(live) {
			t.Fatalf("Active() = %d, tracked %d", p.Active(), len(live))
		}
	}
}

func TestPoolEachAndReleaseAll(t *testing.T) {
	reg := status.NewRegistry()
	p := New(Config{Name: "probe", MaxSize: 8, Prewarm: 4}, func() *probe { return &probe{} }, reg)
	if p.Stats().Total != 4 {
		t.Fatalf("prewarm total = %d, want 4", p.Stats().Total)
	}
	for i := 0; i < 5; i++ {
		_, o, _ := p.Acquire()
		o.x = float64(i)
	}

	visited := 0
	p.Each(func(h Handle, o *probe) {
		visited++
		if o.x == 2 {
			p.Release(h)
		}
	})
	if visited != 5 || p.Active() != 4 {
		t.Errorf("visited=%d active=%d", visited, p.Active())
	}
	if got := reg.Ints.Get("pool.probe.active").Load(); got != 4 {
		t.Errorf("active metric = %d, want 4", got)
	}

	p.ReleaseAll()
	if p.Active() != 0 {
		t.Errorf("Active() = %d after ReleaseAll", p.Active())
	}
}

func TestHandleEntityRoundTrip(t *testing.T) {
	h := Handle{Index: 12, Generation: 3}
	e := h.Entity()
	if e == 0 {
		t.Fatal("live handle packed to zero entity")
	}
	if HandleOf(e) != h {
		t.Errorf("HandleOf(%d) = %+v, want %+v", e, HandleOf(e), h)
	}
}
