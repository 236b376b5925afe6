package faction

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/lixenwraith/chaoswave/core"
	"github.com/lixenwraith/chaoswave/engine"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func newTestRegistry(seed int64) (*Registry, *engine.Scheduler) {
	clock := engine.NewScheduler(epoch, nil)
	return New(DefaultConfig(), clock, rand.New(rand.NewSource(seed)), nil, nil), clock
}

func checkInvariant(t *testing.T, r *Registry, ctx string) {
	t.Helper()
	w := r.Weights()
	if math.Abs(w[0]+w[1]-100) > 1e-9 {
		t.Fatalf("%s: weights %v do not sum to 100", ctx, w)
	}
	if w[0] < 20-1e-9 || w[1] < 20-1e-9 {
		t.Fatalf("%s: weight below floor: %v", ctx, w)
	}
}

func TestBalancedStart(t *testing.T) {
	r, _ := newTestRegistry(1)
	if w := r.Weights(); w[0] != 50 || w[1] != 50 {
		t.Errorf("Weights() = %v, want 50/50", w)
	}
}

func TestBiasFavorsLosingFaction(t *testing.T) {
	tests := []struct {
		value float64
		wantA float64
	}{
		{0, 50},
		{50, 50 + math.Pow(0.5, 1.3)*35},
		{-50, 50 - math.Pow(0.5, 1.3)*35},
		{100, 80},
		{-100, 20},
	}
	for _, tt := range tests {
		r, _ := newTestRegistry(1)
		r.UpdateWeights(tt.value)
		if got := r.Weight(core.FactionA); math.Abs(got-tt.wantA) > 1e-6 {
			t.Errorf("value %v: weight A = %v, want %v", tt.value, got, tt.wantA)
		}
		checkInvariant(t, r, "bias")
	}
}

func TestWeightInvariantUnderRandomInputs(t *testing.T) {
	r, clock := newTestRegistry(3)
	rng := rand.New(rand.NewSource(5))
	for i := 0; i < 3000; i++ {
		switch rng.Intn(5) {
		case 0:
			r.UpdateWeights(rng.Float64()*300 - 150)
		case 1:
			r.RegisterKill(core.Combatants[rng.Intn(2)])
		case 2:
			r.TemporaryBoost(core.Combatants[rng.Intn(2)], rng.Float64()*5, time.Duration(rng.Intn(5000))*time.Millisecond)
		case 3:
			clock.Advance(time.Duration(rng.Intn(2000)) * time.Millisecond)
		case 4:
			r.RegisterKill(core.FactionID(rng.Intn(5)))
		}
		checkInvariant(t, r, "random")
	}
}

func TestReinforcementBiasesAndDecays(t *testing.T) {
	r, clock := newTestRegistry(1)
	for i := 0; i < 100; i++ {
		r.RegisterKill(core.FactionB)
	}
	cfg := DefaultConfig()
	want := (50 + cfg.ReinforcementMax) / (100 + cfg.ReinforcementMax) * 100
	if got := r.Weight(core.FactionB); math.Abs(got-want) > 1e-9 {
		t.Errorf("reinforced B = %v, want %v (bounded by max)", got, want)
	}

	clock.Advance(time.Minute)
	if got := r.Weight(core.FactionB); math.Abs(got-50) > 0.01 {
		t.Errorf("B after decay = %v, want ~50", got)
	}
}

func TestTemporaryBoostReverts(t *testing.T) {
	r, clock := newTestRegistry(1)
	r.TemporaryBoost(core.FactionA, 1.5, 3*time.Second)
	if got := r.Weight(core.FactionA); math.Abs(got-60) > 1e-9 {
		t.Fatalf("boosted A = %v, want 60", got)
	}

	// Replacing the boost resets its window
	clock.Advance(2 * time.Second)
	r.TemporaryBoost(core.FactionA, 3, 3*time.Second)
	clock.Advance(2 * time.Second)
	if got := r.Weight(core.FactionA); math.Abs(got-75) > 1e-9 {
		t.Errorf("replaced boost A = %v, want 75", got)
	}
	clock.Advance(2 * time.Second)
	if got := r.Weight(core.FactionA); got != 50 {
		t.Errorf("A after expiry = %v, want 50", got)
	}

	r.TemporaryBoost(core.FactionNeutral, 2, time.Second)
	r.TemporaryBoost(core.FactionB, 0, time.Second)
	if got := r.Weight(core.FactionB); got != 50 {
		t.Errorf("invalid boost applied: B = %v", got)
	}
}

func TestNextSpawnFactionDistribution(t *testing.T) {
	r, _ := newTestRegistry(42)
	r.UpdateWeights(100)

	countA := 0
	const draws = 20000
	for i := 0; i < draws; i++ {
		if r.NextSpawnFaction() == core.FactionA {
			countA++
		}
	}
	share := float64(countA) / draws
	if math.Abs(share-0.8) > 0.02 {
		t.Errorf("A share = %v, want ~0.8", share)
	}
}

func TestMembership(t *testing.T) {
	r, clock := newTestRegistry(1)
	r.Assign(1, core.FactionA)
	r.Assign(2, core.FactionA)
	r.Assign(3, core.FactionB)
	r.Assign(4, core.FactionNeutral)
	r.Assign(2, core.FactionB)

	if r.MemberCount(core.FactionA) != 1 || r.MemberCount(core.FactionB) != 2 {
		t.Errorf("counts A=%d B=%d", r.MemberCount(core.FactionA), r.MemberCount(core.FactionB))
	}
	if r.FactionOf(4) != core.FactionNeutral {
		t.Error("neutral entity tracked")
	}
	if r.Unassign(3) != core.FactionB || r.Unassign(3) != core.FactionNeutral {
		t.Error("Unassign should report the faction once")
	}
	if r.MemberCount(core.FactionB) != 1 {
		t.Errorf("B count = %d after unassign", r.MemberCount(core.FactionB))
	}

	r.TemporaryBoost(core.FactionA, 2, time.Hour)
	r.Reset()
	clock.Advance(2 * time.Hour)
	if r.MemberCount(core.FactionA) != 0 || r.Weight(core.FactionA) != 50 {
		t.Error("Reset left state behind")
	}
	fs := r.Factions()
	if len(fs) != 2 || fs[0].ID != core.FactionA || fs[1].Boost != 1 {
		t.Errorf("Factions() = %+v", fs)
	}
}
