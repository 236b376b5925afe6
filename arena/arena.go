// Package arena is the in-process entity factory: pooled enemies and bullets, a headless
// auto-firing player and bullet collision through a spatial grid
package arena

import (
	"io"
	"log/slog"
	"math"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/chaoswave/behavior"
	"github.com/lixenwraith/chaoswave/core"
	"github.com/lixenwraith/chaoswave/engine"
	"github.com/lixenwraith/chaoswave/pool"
	"github.com/lixenwraith/chaoswave/spatial"
	"github.com/lixenwraith/chaoswave/status"
	"github.com/lixenwraith/chaoswave/vmath"
)

// bulletTag marks bullet entity ids so they never collide with enemy ids
const bulletTag core.Entity = 1 << 63

// MultiplierSource supplies faction stat multipliers
type MultiplierSource interface {
	Multipliers(f core.FactionID) core.Multipliers
}

type identityMultipliers struct{}

func (identityMultipliers) Multipliers(core.FactionID) core.Multipliers {
	return core.IdentityMultipliers
}

// Stats counts arena activity since the last Reset
type Stats struct {
	Enemies     pool.Stats `json:"enemies"`
	Bullets     pool.Stats `json:"bullets"`
	Shots       uint64     `json:"shots"`
	Hits        uint64     `json:"hits"`
	Dodges      uint64     `json:"dodges"`
	Kills       uint64     `json:"kills"`
	Culled      uint64     `json:"culled"`
	DamageTaken float64    `json:"damage_taken"`
}

// Arena implements core.EntityFactory, core.StatBooster and core.PlayerPositionProvider
// Single-threaded: owned by the simulation goroutine
type Arena struct {
	cfg     Config
	clock   engine.Clock
	enemies *pool.Pool[*Enemy]
	bullets *pool.Pool[*Bullet]
	grid    *spatial.Index
	rng     *rand.Rand
	log     *slog.Logger

	mult    MultiplierSource
	moods   *behavior.Moods
	onDeath func(Death)

	player     vmath.Vec2
	orbitAngle float64
	lastFire   time.Time
	pending    []Death
	stats      Stats

	mKills  *atomic.Int64
	mShots  *atomic.Int64
	mDamage *status.Float
}

// New creates an empty arena with the player at the origin
func New(cfg Config, clock engine.Clock, rng *rand.Rand, log *slog.Logger, reg *status.Registry) *Arena {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if rng == nil {
		rng = core.NewRand(0)
	}
	if cfg.Archetypes == nil {
		cfg.Archetypes = DefaultArchetypes()
	}
	reg = status.OrNew(reg)
	cfg.Enemies.Name, cfg.Bullets.Name = "enemies", "bullets"
	a := &Arena{
		cfg:     cfg,
		clock:   clock,
		enemies: pool.New(cfg.Enemies, func() *Enemy { return &Enemy{} }, reg),
		bullets: pool.New(cfg.Bullets, func() *Bullet { return &Bullet{Trail: make([]vmath.Vec2, 0, cfg.TrailLen)} }, reg),
		grid:    spatial.New(spatial.Config{CellSize: cfg.CellSize}),
		rng:     rng,
		log:     log.With("component", "arena"),
		mult:    identityMultipliers{},
		moods:   &behavior.Moods{},
		mKills:  reg.Ints.Get("arena.kills"),
		mShots:  reg.Ints.Get("arena.shots"),
		mDamage: reg.Floats.Get("arena.damage_taken"),
	}
	a.lastFire = clock.Now()
	return a
}

// SetMultipliers wires faction stat multipliers; nil restores identity
func (a *Arena) SetMultipliers(m MultiplierSource) {
	if m == nil {
		m = identityMultipliers{}
	}
	a.mult = m
}

// SetMoods shares the faction mood table the enemies converge on
func (a *Arena) SetMoods(m *behavior.Moods) {
	if m != nil {
		a.moods = m
	}
}

// OnDeath registers the death callback, called after the entity is released
func (a *Arena) OnDeath(fn func(Death)) {
	a.onDeath = fn
}

// Reset releases every entity without death notifications and recentres the player
func (a *Arena) Reset() {
	a.enemies.ReleaseAll()
	a.bullets.ReleaseAll()
	a.pending = a.pending[:0]
	a.player = vmath.Vec2{}
	a.orbitAngle = 0
	a.lastFire = a.clock.Now()
	a.stats = Stats{}
	a.mKills.Store(0)
	a.mShots.Store(0)
	a.mDamage.Store(0)
}

func (a *Arena) PlayerPosition() vmath.Vec2 {
	return a.player
}

// Spawn places one enemy; bosses and ordinary kinds only
func (a *Arena) Spawn(kind core.Kind, pos vmath.Vec2, faction core.FactionID) (core.Entity, bool) {
	arch, ok := a.cfg.Archetypes[kind]
	if !ok {
		a.log.Warn("spawn of kind without archetype", "kind", kind.String())
		return 0, false
	}
	h, e, ok := a.enemies.Acquire()
	if !ok {
		return 0, false
	}
	faction = faction.Normalize()
	hp := arch.Health * a.mult.Multipliers(faction).HP
	e.Kind = kind
	e.Faction = faction
	e.Pos = pos
	e.Health, e.MaxHealth = hp, hp
	e.Speed = arch.Speed
	e.Dir = vmath.V2Toward(pos, a.player)
	return h.Entity(), true
}

// SpawnGroup scatters up to count enemies uniformly within spread of center
func (a *Arena) SpawnGroup(kind core.Kind, center vmath.Vec2, count int, spread float64, faction core.FactionID) []core.Entity {
	out := make([]core.Entity, 0, max(count, 0))
	for i := 0; i < count; i++ {
		angle := a.rng.Float64() * 2 * math.Pi
		r := spread * math.Sqrt(a.rng.Float64())
		pos := vmath.V2(center.X+r*math.Cos(angle), center.Y+r*math.Sin(angle))
		e, ok := a.Spawn(kind, pos, faction)
		if !ok {
			break
		}
		out = append(out, e)
	}
	return out
}

// ApplyFatalDamage kills e immediately; stale handles are ignored
func (a *Arena) ApplyFatalDamage(e core.Entity) {
	if e&bulletTag != 0 {
		a.bullets.Release(pool.HandleOf(e &^ bulletTag))
		return
	}
	h := pool.HandleOf(e)
	if a.kill(h, CauseSkirmish) {
		a.flush()
	}
}

// ApplyStatBoost speeds up e by multiplier for duration
func (a *Arena) ApplyStatBoost(e core.Entity, multiplier float64, duration time.Duration) {
	if en, ok := a.enemies.Get(pool.HandleOf(e)); ok && e&bulletTag == 0 {
		en.Boost = multiplier
		en.BoostUntil = a.clock.Now().Add(duration)
	}
}

// EnumerateActive lists live entities of kind in slot order, KindAny includes bullets
func (a *Arena) EnumerateActive(kind core.Kind) []core.EntityView {
	var out []core.EntityView
	if kind != core.KindBullet {
		out = a.enemyViews(kind)
	}
	if kind == core.KindAny || kind == core.KindBullet {
		a.bullets.Each(func(h pool.Handle, b *Bullet) {
			out = append(out, core.EntityView{
				Entity:      h.Entity() | bulletTag,
				Kind:        core.KindBullet,
				Position:    b.Pos,
				HasPosition: true,
			})
		})
	}
	return out
}

func (a *Arena) enemyViews(kind core.Kind) []core.EntityView {
	out := make([]core.EntityView, 0, a.enemies.Active())
	a.enemies.Each(func(h pool.Handle, e *Enemy) {
		if kind == core.KindAny || e.Kind == kind {
			out = append(out, core.EntityView{
				Entity:      h.Entity(),
				Kind:        e.Kind,
				Faction:     e.Faction,
				Position:    e.Pos,
				HasPosition: true,
				Health:      e.Health,
			})
		}
	})
	return out
}

// Enemy resolves a live enemy record
func (a *Arena) Enemy(e core.Entity) (*Enemy, bool) {
	if e&bulletTag != 0 {
		return nil, false
	}
	return a.enemies.Get(pool.HandleOf(e))
}

// kill releases the enemy and queues its death, false for stale handles
func (a *Arena) kill(h pool.Handle, cause Cause) bool {
	e, ok := a.enemies.Get(h)
	if !ok {
		return false
	}
	d := Death{Entity: h.Entity(), Kind: e.Kind, Faction: e.Faction, Pos: e.Pos, Cause: cause}
	a.enemies.Release(h)
	switch cause {
	case CausePlayer:
		a.stats.Kills++
		a.mKills.Store(int64(a.stats.Kills))
	case CauseCulled:
		a.stats.Culled++
	}
	a.pending = append(a.pending, d)
	return true
}

// flush reports queued deaths; callbacks may spawn or kill again
func (a *Arena) flush() {
	for len(a.pending) > 0 {
		d := a.pending[0]
		a.pending = a.pending[1:]
		if a.onDeath != nil {
			a.onDeath(d)
		}
	}
	a.pending = a.pending[:0]
}

// Update advances the arena by dt of game time
func (a *Arena) Update(dt time.Duration) {
	if dt <= 0 {
		return
	}
	now := a.clock.Now()
	sec := dt.Seconds()

	a.movePlayer(sec)
	a.moveEnemies(now, sec)
	a.fire(now)
	a.moveBullets(now, sec)
	a.flush()
}

func (a *Arena) movePlayer(sec float64) {
	a.orbitAngle += a.cfg.OrbitSpeed * sec
	a.player = vmath.V2(math.Cos(a.orbitAngle)*a.cfg.OrbitRadius, math.Sin(a.orbitAngle)*a.cfg.OrbitRadius)
}

func (a *Arena) moveEnemies(now time.Time, sec float64) {
	threat := core.PlayerPositionFunc(a.PlayerPosition)
	a.enemies.Each(func(h pool.Handle, e *Enemy) {
		e.Mood = behavior.Transition(e.Mood, a.moods.Get(e.Faction).Stimulus(now, threat))

		dist := vmath.V2Dist(e.Pos, a.player)
		_, panicking := e.Mood.(behavior.Panicking)
		if dist <= a.cfg.EngageDist && !panicking {
			m := a.mult.Multipliers(e.Faction)
			taken := a.cfg.ContactDPS * sec * m.Damage * m.FireRate
			a.stats.DamageTaken += taken
			a.mDamage.Add(taken)
			e.Vel = vmath.Vec2{}
			return
		}

		speed := e.Speed * behavior.SpeedFactor(e.Mood, a.cfg.EnragedSpeed, a.cfg.PanicSpeed) * e.boost(now)
		e.Dir = behavior.Heading(e.Mood, e.Pos, a.player)
		e.Vel = vmath.V2Scale(e.Dir, speed)
		e.Pos = vmath.V2Add(e.Pos, vmath.V2Scale(e.Vel, sec))

		if a.cfg.Bounds > 0 && vmath.V2Dist(e.Pos, a.player) > a.cfg.Bounds {
			a.kill(h, CauseCulled)
		}
	})
}

// target picks the enemy to shoot by targeting policy within fire range
func (a *Arena) target() (vmath.Vec2, bool) {
	want := core.FactionNeutral
	switch a.cfg.Targeting {
	case TargetFactionA:
		want = core.FactionA
	case TargetFactionB:
		want = core.FactionB
	}
	rangeSq := a.cfg.FireRange * a.cfg.FireRange
	var best, bestPreferred vmath.Vec2
	bestD, bestPD := math.Inf(1), math.Inf(1)
	a.enemies.Each(func(_ pool.Handle, e *Enemy) {
		d := vmath.V2DistSq(e.Pos, a.player)
		if d > rangeSq {
			return
		}
		if d < bestD {
			best, bestD = e.Pos, d
		}
		if want != core.FactionNeutral && e.Faction == want && d < bestPD {
			bestPreferred, bestPD = e.Pos, d
		}
	})
	if !math.IsInf(bestPD, 1) {
		return bestPreferred, true
	}
	return best, !math.IsInf(bestD, 1)
}

func (a *Arena) fire(now time.Time) {
	if now.Sub(a.lastFire) < a.cfg.FireInterval {
		return
	}
	pos, ok := a.target()
	if !ok {
		return
	}
	_, b, ok := a.bullets.Acquire()
	if !ok {
		return
	}
	a.lastFire = now
	b.Pos = a.player
	b.Vel = vmath.V2Scale(vmath.V2Toward(a.player, pos), a.cfg.BulletSpeed)
	b.Expires = now.Add(a.cfg.BulletLifetime)
	b.pushTrail(a.cfg.TrailLen)
	a.stats.Shots++
	a.mShots.Store(int64(a.stats.Shots))
}

func (a *Arena) moveBullets(now time.Time, sec float64) {
	if a.bullets.Active() == 0 {
		return
	}
	a.grid.Rebuild(a.enemyViews(core.KindAny), 0)
	hitDist := a.cfg.EnemyRadius + a.cfg.BulletRadius
	hitSq := hitDist * hitDist
	radius := int(math.Ceil(hitDist / a.grid.CellSize()))

	a.bullets.Each(func(bh pool.Handle, b *Bullet) {
		if !now.Before(b.Expires) {
			a.bullets.Release(bh)
			return
		}
		b.Pos = vmath.V2Add(b.Pos, vmath.V2Scale(b.Vel, sec))
		b.pushTrail(a.cfg.TrailLen)

		for _, v := range a.grid.QueryNeighborhood(b.Pos.X, b.Pos.Y, radius) {
			if vmath.V2DistSq(v.Position, b.Pos) > hitSq {
				continue
			}
			eh := pool.HandleOf(v.Entity)
			e, ok := a.enemies.Get(eh)
			if !ok {
				continue // Killed earlier this tick
			}
			a.bullets.Release(bh)
			a.hit(eh, e)
			return
		}
	})
}

// hit applies one bullet to e; dodge chance grows with the faction's dodge multiplier
func (a *Arena) hit(h pool.Handle, e *Enemy) {
	m := a.mult.Multipliers(e.Faction)
	if m.Dodge > 1 && a.rng.Float64() < 1-1/m.Dodge {
		a.stats.Dodges++
		return
	}
	a.stats.Hits++
	e.Health -= a.cfg.Damage
	if e.Health <= 0 {
		a.kill(h, CausePlayer)
	}
}

// Stats returns arena counters including pool usage
func (a *Arena) Stats() Stats {
	st := a.stats
	st.Enemies = a.enemies.Stats()
	st.Bullets = a.bullets.Stats()
	return st
}
