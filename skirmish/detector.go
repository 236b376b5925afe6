// Package skirmish detects mixed-faction clusters and resolves autonomous battles between them
package skirmish

import (
	"io"
	"log/slog"
	"math"
	"math/rand"
	"slices"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/lixenwraith/chaoswave/core"
	"github.com/lixenwraith/chaoswave/engine"
	"github.com/lixenwraith/chaoswave/event"
	"github.com/lixenwraith/chaoswave/spatial"
	"github.com/lixenwraith/chaoswave/status"
	"github.com/lixenwraith/chaoswave/vmath"
)

// Balance is the chaos source consulted before detection and nudged by outcomes
type Balance interface {
	Value() float64
	Nudge(delta float64) bool
}

// Reinforcer applies temporary spawn weight boosts
type Reinforcer interface {
	TemporaryBoost(f core.FactionID, multiplier float64, duration time.Duration)
}

// WaveCounter accepts enemies spawned outside the wave spawn timer
type WaveCounter interface {
	RegisterExternalEnemySpawn(count int)
}

type Status uint8

const (
	StatusFighting Status = iota
	StatusResolved
)

func (s Status) String() string {
	if s == StatusResolved {
		return "resolved"
	}
	return "fighting"
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Pairing is one 1:1 duel; Winner is neutral until resolved
type Pairing struct {
	A      core.Entity    `json:"a"`
	B      core.Entity    `json:"b"`
	Winner core.FactionID `json:"winner"`
}

type Skirmish struct {
	ID        string         `json:"id"`
	Position  vmath.Vec2     `json:"position"`
	TeamA     []core.Entity  `json:"team_a"`
	TeamB     []core.Entity  `json:"team_b"`
	Pairings  []Pairing      `json:"pairings"`
	Status    Status         `json:"status"`
	StartedAt time.Time      `json:"started_at"`
	Winner    core.FactionID `json:"winner"`
}

func (s *Skirmish) clone() Skirmish {
	c := *s
	c.TeamA = slices.Clone(s.TeamA)
	c.TeamB = slices.Clone(s.TeamB)
	c.Pairings = slices.Clone(s.Pairings)
	return c
}

// Deps are the collaborators a Detector acts on; all are required
type Deps struct {
	Clock    engine.Clock
	Index    *spatial.Index
	Factory  core.EntityFactory
	Balance  Balance
	Factions Reinforcer
	Waves    WaveCounter
}

// Detector runs on its own periodic timer, independent of wave state
// Single-threaded: calls and timer callbacks run on the simulation goroutine
type Detector struct {
	cfg     Config
	deps    Deps
	timers  *engine.TimerSet
	booster core.StatBooster // Nil when the factory cannot boost
	rng     *rand.Rand
	sink    event.Sink
	log     *slog.Logger

	skirmishes  []*Skirmish // Start order
	engaged     map[core.Entity]string
	lastTrigger time.Time
	triggered   bool

	mActive   *atomic.Int64
	mStarted  *atomic.Int64
	mResolved *atomic.Int64
	mSurges   *atomic.Int64
}

// New creates a detector and arms its periodic check
func New(cfg Config, deps Deps, rng *rand.Rand, sink event.Sink, log *slog.Logger, reg *status.Registry) *Detector {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if rng == nil {
		rng = core.NewRand(0)
	}
	reg = status.OrNew(reg)
	d := &Detector{
		cfg:       cfg,
		deps:      deps,
		timers:    engine.NewTimerSet(deps.Clock),
		rng:       rng,
		sink:      event.OrNop(sink),
		log:       log.With("component", "skirmish"),
		engaged:   make(map[core.Entity]string),
		mActive:   reg.Ints.Get("skirmish.active"),
		mStarted:  reg.Ints.Get("skirmish.started"),
		mResolved: reg.Ints.Get("skirmish.resolved"),
		mSurges:   reg.Ints.Get("skirmish.surges"),
	}
	if b, ok := deps.Factory.(core.StatBooster); ok {
		d.booster = b
	}
	d.Reset()
	return d
}

// Reset drops every skirmish and pending resolution, then re-arms the periodic check
func (d *Detector) Reset() {
	d.timers.CancelAll()
	d.skirmishes = nil
	clear(d.engaged)
	d.triggered = false
	d.lastTrigger = time.Time{}
	d.mActive.Store(0)
	d.timers.Every(d.cfg.CheckInterval, d.Check)
}

// Check runs one detection pass and triggers at most one skirmish
func (d *Detector) Check() {
	if math.Abs(d.deps.Balance.Value()) < d.cfg.ChaosThreshold {
		return
	}
	if d.fighting() >= d.cfg.MaxActive {
		return
	}
	now := d.deps.Clock.Now()
	if d.triggered && now.Sub(d.lastTrigger) < d.cfg.Cooldown {
		return
	}

	d.deps.Index.Refresh(now, d.candidates)
	clusters := FindClusters(d.deps.Index, d.cfg.RequiredPerFaction, d.isEngaged)
	if len(clusters) == 0 {
		return
	}
	d.trigger(clusters[0])
}

func (d *Detector) candidates() []core.EntityView {
	all := d.deps.Factory.EnumerateActive(core.KindAny)
	out := make([]core.EntityView, 0, len(all))
	for _, v := range all {
		if v.Kind.IsEnemy() && v.Faction.IsCombatant() && !d.isEngaged(v.Entity) {
			out = append(out, v)
		}
	}
	return out
}

func (d *Detector) isEngaged(e core.Entity) bool {
	_, ok := d.engaged[e]
	return ok
}

func (d *Detector) fighting() int {
	n := 0
	for _, s := range d.skirmishes {
		if s.Status == StatusFighting {
			n++
		}
	}
	return n
}

// sample returns up to n members in random order
func (d *Detector) sample(members []core.EntityView, n int) []core.Entity {
	ids := make([]core.Entity, len(members))
	for i, v := range members {
		ids[i] = v.Entity
	}
	d.rng.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
	return ids[:min(n, len(ids))]
}

func (d *Detector) trigger(c Cluster) {
	now := d.deps.Clock.Now()
	sk := &Skirmish{
		ID:        uuid.NewString(),
		Position:  c.Centroid,
		TeamA:     d.sample(c.MembersA, d.cfg.RequiredPerFaction),
		TeamB:     d.sample(c.MembersB, d.cfg.RequiredPerFaction),
		Status:    StatusFighting,
		StartedAt: now,
	}
	for i := 0; i < min(len(sk.TeamA), len(sk.TeamB)); i++ {
		sk.Pairings = append(sk.Pairings, Pairing{A: sk.TeamA[i], B: sk.TeamB[i]})
	}
	for _, e := range sk.TeamA {
		d.engaged[e] = sk.ID
	}
	for _, e := range sk.TeamB {
		d.engaged[e] = sk.ID
	}

	d.skirmishes = append(d.skirmishes, sk)
	d.triggered = true
	d.lastTrigger = now
	d.mStarted.Add(1)
	d.mActive.Store(int64(d.fighting()))

	d.log.Info("skirmish started", "battle", sk.ID, "x", sk.Position.X, "y", sk.Position.Y, "pairings", len(sk.Pairings))
	d.sink.Publish(event.New(now, event.BattleStartPayload{
		BattleID: sk.ID,
		Position: sk.Position,
		CountA:   len(sk.TeamA),
		CountB:   len(sk.TeamB),
	}))
	d.timers.After(d.cfg.ResolveDelay, func() { d.resolve(sk) })
}

// resolve settles every pairing stat-blind; losers die through the factory
// Handles sampled at trigger time are re-checked: a pairing with one dead member
// goes to the survivor, a pairing with both dead is void
func (d *Detector) resolve(sk *Skirmish) {
	live := d.liveSet()
	winsA, winsB := 0, 0
	var survivors [2][]core.Entity
	for i := range sk.Pairings {
		p := &sk.Pairings[i]
		_, aLive := live[p.A]
		_, bLive := live[p.B]
		switch {
		case !aLive && !bLive:
			continue
		case aLive && !bLive:
			p.Winner = core.FactionA
		case bLive && !aLive:
			p.Winner = core.FactionB
		case d.rng.Float64() < d.cfg.WinProbability:
			p.Winner = core.FactionA
			d.deps.Factory.ApplyFatalDamage(p.B)
		default:
			p.Winner = core.FactionB
			d.deps.Factory.ApplyFatalDamage(p.A)
		}
		if p.Winner == core.FactionA {
			winsA++
			survivors[0] = append(survivors[0], p.A)
		} else {
			winsB++
			survivors[1] = append(survivors[1], p.B)
		}
	}

	switch {
	case winsA > winsB:
		sk.Winner = core.FactionA
	case winsB > winsA:
		sk.Winner = core.FactionB
	default:
		sk.Winner = core.FactionNeutral
	}
	sk.Status = StatusResolved
	for _, e := range sk.TeamA {
		delete(d.engaged, e)
	}
	for _, e := range sk.TeamB {
		delete(d.engaged, e)
	}
	d.mResolved.Add(1)
	d.mActive.Store(int64(d.fighting()))

	d.log.Info("skirmish resolved", "battle", sk.ID, "winner", sk.Winner.String(), "wins_a", winsA, "wins_b", winsB)
	d.sink.Publish(event.New(d.deps.Clock.Now(), event.BattleEndPayload{
		BattleID: sk.ID,
		Winner:   sk.Winner,
		WinsA:    winsA,
		WinsB:    winsB,
	}))

	if i := sk.Winner.Index(); i >= 0 {
		// Positive chaos is B dominance
		nudge := d.cfg.BalanceNudge
		if sk.Winner == core.FactionA {
			nudge = -nudge
		}
		d.deps.Balance.Nudge(nudge)

		if d.booster != nil && d.cfg.WinnerBoost > 0 {
			for _, e := range survivors[i] {
				d.booster.ApplyStatBoost(e, d.cfg.WinnerBoost, d.cfg.WinnerBoostDuration)
			}
		}
		if d.rng.Float64() < d.cfg.SurgeChance {
			d.Surge(sk.Winner.Opponent(), sk.Position)
		}
	}

	d.timers.After(d.cfg.CleanupDelay, func() { d.remove(sk.ID) })
}

func (d *Detector) liveSet() map[core.Entity]struct{} {
	views := d.deps.Factory.EnumerateActive(core.KindAny)
	live := make(map[core.Entity]struct{}, len(views))
	for _, v := range views {
		live[v.Entity] = struct{}{}
	}
	return live
}

func (d *Detector) remove(id string) {
	d.skirmishes = slices.DeleteFunc(d.skirmishes, func(s *Skirmish) bool { return s.ID == id })
}

// Surge spawns a reinforcement group of f near pos and boosts f's spawn weight
// Returns the number of confirmed spawns
func (d *Detector) Surge(f core.FactionID, pos vmath.Vec2) int {
	if !f.IsCombatant() {
		return 0
	}
	spawned := d.deps.Factory.SpawnGroup(d.cfg.SurgeKind, pos, d.cfg.SurgeGroupSize, d.cfg.SurgeSpread, f)
	if len(spawned) == 0 {
		d.log.Debug("surge produced no spawns", "faction", f.String())
		return 0
	}
	d.deps.Factions.TemporaryBoost(f, d.cfg.SurgeWeightBoost, d.cfg.SurgeBoostDuration)
	d.deps.Waves.RegisterExternalEnemySpawn(len(spawned))
	d.mSurges.Add(1)

	id := uuid.NewString()
	d.log.Info("faction surge", "group", id, "faction", f.String(), "strength", len(spawned))
	d.sink.Publish(event.New(d.deps.Clock.Now(), event.SurgePayload{
		GroupID:  id,
		Faction:  f,
		Strength: len(spawned),
		Position: pos,
	}))
	return len(spawned)
}

// Active returns copies of live skirmishes, resolved ones included until cleanup
func (d *Detector) Active() []Skirmish {
	out := make([]Skirmish, 0, len(d.skirmishes))
	for _, s := range d.skirmishes {
		out = append(out, s.clone())
	}
	return out
}

// Engaged reports the battle id e is fighting in
func (d *Detector) Engaged(e core.Entity) (string, bool) {
	id, ok := d.engaged[e]
	return id, ok
}
