// Package faction assigns spawns to the two combatant factions and tracks their members
package faction

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/chaoswave/core"
	"github.com/lixenwraith/chaoswave/engine"
	"github.com/lixenwraith/chaoswave/parameter"
	"github.com/lixenwraith/chaoswave/status"
)

type Config struct {
	BaseWeight float64 `yaml:"base_weight"`
	MinWeight  float64 `yaml:"min_weight"`
	BiasExp    float64 `yaml:"bias_exp"`
	BiasScale  float64 `yaml:"bias_scale"`

	ReinforcementPerKill       float64       `yaml:"reinforcement_per_kill"`
	ReinforcementMax           float64       `yaml:"reinforcement_max"`
	ReinforcementDecayInterval time.Duration `yaml:"reinforcement_decay_interval"`
	ReinforcementDecayFactor   float64       `yaml:"reinforcement_decay_factor"`
}

func DefaultConfig() Config {
	return Config{
		BaseWeight:                 parameter.FactionBaseWeight,
		MinWeight:                  parameter.FactionMinWeight,
		BiasExp:                    parameter.FactionBiasExp,
		BiasScale:                  parameter.FactionBiasScale,
		ReinforcementPerKill:       parameter.ReinforcementPerKill,
		ReinforcementMax:           parameter.ReinforcementMax,
		ReinforcementDecayInterval: parameter.ReinforcementDecayInterval,
		ReinforcementDecayFactor:   parameter.ReinforcementDecayFactor,
	}
}

func (c Config) Validate() error {
	var errs []error
	if c.MinWeight < 0 || c.MinWeight*2 > parameter.FactionWeightTotal {
		errs = append(errs, fmt.Errorf("min_weight %v outside [0, %v]", c.MinWeight, parameter.FactionWeightTotal/2))
	}
	if c.BaseWeight <= 0 {
		errs = append(errs, errors.New("base_weight must be positive"))
	}
	if c.ReinforcementMax < 0 || c.ReinforcementPerKill < 0 {
		errs = append(errs, errors.New("reinforcement values must not be negative"))
	}
	if c.ReinforcementDecayFactor < 0 || c.ReinforcementDecayFactor > 1 {
		errs = append(errs, fmt.Errorf("reinforcement_decay_factor %v outside [0, 1]", c.ReinforcementDecayFactor))
	}
	return errors.Join(errs...)
}

// Faction is a read-only view of one combatant faction
type Faction struct {
	ID            core.FactionID `json:"id"`
	Weight        float64        `json:"weight"`
	MemberCount   int            `json:"member_count"`
	Reinforcement float64        `json:"reinforcement"`
	Boost         float64        `json:"boost"`
}

// Registry owns spawn weights and faction membership
// Weights are percentages over A and B, always sum to 100 and never drop below MinWeight
type Registry struct {
	cfg    Config
	clock  engine.Clock
	timers *engine.TimerSet
	rng    *rand.Rand
	log    *slog.Logger

	value      float64
	reinforce  [2]float64
	boost      [2]float64
	boostTimer [2]engine.Timer
	weights    [2]float64

	members map[core.Entity]core.FactionID
	counts  [2]int

	recomputes uint64

	mWeight     [2]*status.Float
	mMembers    [2]*atomic.Int64
	mRecomputes *atomic.Int64
}

// New creates a registry with balanced weights and starts reinforcement decay
func New(cfg Config, clock engine.Clock, rng *rand.Rand, log *slog.Logger, reg *status.Registry) *Registry {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if rng == nil {
		rng = core.NewRand(0)
	}
	reg = status.OrNew(reg)
	r := &Registry{
		cfg:         cfg,
		clock:       clock,
		timers:      engine.NewTimerSet(clock),
		rng:         rng,
		log:         log.With("component", "faction"),
		members:     make(map[core.Entity]core.FactionID),
		mRecomputes: reg.Ints.Get("faction.recomputes"),
	}
	for i, f := range core.Combatants {
		key := "faction." + f.String()
		r.mWeight[i] = reg.Floats.Get(key + ".weight")
		r.mMembers[i] = reg.Ints.Get(key + ".members")
	}
	r.Reset()
	return r
}

// Reset cancels boosts and decay, clears membership and restores balanced weights
func (r *Registry) Reset() {
	r.timers.CancelAll()
	r.value = 0
	r.reinforce = [2]float64{}
	r.boost = [2]float64{1, 1}
	r.boostTimer = [2]engine.Timer{}
	clear(r.members)
	r.counts = [2]int{}
	r.recompute()
	for i := range r.counts {
		r.mMembers[i].Store(0)
	}

	if r.cfg.ReinforcementDecayInterval > 0 {
		r.timers.Every(r.cfg.ReinforcementDecayInterval, r.decay)
	}
}

// UpdateWeights recomputes weights for a new balance value
func (r *Registry) UpdateWeights(value float64) {
	r.value = math.Max(parameter.ChaosMin, math.Min(parameter.ChaosMax, value))
	r.recompute()
}

// RegisterKill records a player kill, reinforcing the weakened faction
func (r *Registry) RegisterKill(f core.FactionID) {
	i := f.Normalize().Index()
	if i < 0 {
		return
	}
	r.reinforce[i] = math.Min(r.reinforce[i]+r.cfg.ReinforcementPerKill, r.cfg.ReinforcementMax)
	r.recompute()
}

func (r *Registry) decay() {
	changed := false
	for i := range r.reinforce {
		if r.reinforce[i] == 0 {
			continue
		}
		r.reinforce[i] *= r.cfg.ReinforcementDecayFactor
		if r.reinforce[i] < 0.01 {
			r.reinforce[i] = 0
		}
		changed = true
	}
	if changed {
		r.recompute()
	}
}

// TemporaryBoost multiplies f's raw spawn weight for duration, replacing any active boost on f
func (r *Registry) TemporaryBoost(f core.FactionID, multiplier float64, duration time.Duration) {
	i := f.Normalize().Index()
	if i < 0 || multiplier <= 0 || duration <= 0 {
		return
	}
	r.timers.Cancel(r.boostTimer[i])
	r.boost[i] = multiplier
	r.boostTimer[i] = r.timers.After(duration, func() {
		r.boost[i] = 1
		r.boostTimer[i] = 0
		r.recompute()
		r.log.Debug("faction boost expired", "faction", core.Combatants[i].String())
	})
	r.recompute()
	r.log.Debug("faction boost applied", "faction", f.String(), "multiplier", multiplier, "duration", duration)
}

// recompute derives weights from balance value, reinforcement and boosts
func (r *Registry) recompute() {
	adj := math.Pow(math.Abs(r.value/parameter.ChaosMax), r.cfg.BiasExp) * r.cfg.BiasScale

	var raw [2]float64
	raw[0], raw[1] = r.cfg.BaseWeight, r.cfg.BaseWeight
	// Positive value: A is losing and gets the extra weight
	switch {
	case r.value > 0:
		raw[0] += adj
		raw[1] -= adj
	case r.value < 0:
		raw[0] -= adj
		raw[1] += adj
	}
	for i := range raw {
		raw[i] = math.Max(raw[i]+r.reinforce[i], 0) * r.boost[i]
	}

	total := raw[0] + raw[1]
	if total <= 0 {
		raw = [2]float64{1, 1}
		total = 2
	}
	a := raw[0] / total * parameter.FactionWeightTotal
	lo, hi := r.cfg.MinWeight, parameter.FactionWeightTotal-r.cfg.MinWeight
	a = math.Max(lo, math.Min(hi, a))
	r.weights = [2]float64{a, parameter.FactionWeightTotal - a}

	r.recomputes++
	r.mRecomputes.Store(int64(r.recomputes))
	for i := range r.weights {
		r.mWeight[i].Store(r.weights[i])
	}
}

// NextSpawnFaction draws A or B by current weights
func (r *Registry) NextSpawnFaction() core.FactionID {
	if r.rng.Float64()*parameter.FactionWeightTotal < r.weights[0] {
		return core.FactionA
	}
	return core.FactionB
}

// Weights returns current percentages for A and B
func (r *Registry) Weights() [2]float64 {
	return r.weights
}

func (r *Registry) Weight(f core.FactionID) float64 {
	if i := f.Normalize().Index(); i >= 0 {
		return r.weights[i]
	}
	return 0
}

// Assign records e as a member of f; neutral entities are not tracked
func (r *Registry) Assign(e core.Entity, f core.FactionID) {
	i := f.Normalize().Index()
	if e == 0 || i < 0 {
		return
	}
	if prev, ok := r.members[e]; ok {
		if prev == f {
			return
		}
		r.adjustCount(prev.Index(), -1)
	}
	r.members[e] = f
	r.adjustCount(i, 1)
}

// Unassign forgets e and returns its former faction
func (r *Registry) Unassign(e core.Entity) core.FactionID {
	f, ok := r.members[e]
	if !ok {
		return core.FactionNeutral
	}
	delete(r.members, e)
	r.adjustCount(f.Index(), -1)
	return f
}

func (r *Registry) adjustCount(i, delta int) {
	r.counts[i] += delta
	if r.counts[i] < 0 {
		r.log.Warn("faction member count underflow", "faction", core.Combatants[i].String())
		r.counts[i] = 0
	}
	r.mMembers[i].Store(int64(r.counts[i]))
}

// FactionOf returns the recorded faction of e, neutral when unknown
func (r *Registry) FactionOf(e core.Entity) core.FactionID {
	if f, ok := r.members[e]; ok {
		return f
	}
	return core.FactionNeutral
}

func (r *Registry) MemberCount(f core.FactionID) int {
	if i := f.Normalize().Index(); i >= 0 {
		return r.counts[i]
	}
	return 0
}

// Factions returns views of A and B
func (r *Registry) Factions() []Faction {
	out := make([]Faction, 0, len(core.Combatants))
	for i, f := range core.Combatants {
		out = append(out, Faction{
			ID:            f,
			Weight:        r.weights[i],
			MemberCount:   r.counts[i],
			Reinforcement: r.reinforce[i],
			Boost:         r.boost[i],
		})
	}
	return out
}
