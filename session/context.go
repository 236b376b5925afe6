// Package session is the composition root: it wires pool, spatial, balance, faction, wave,
// skirmish and arena into one simulation and owns the kill fan-out and restart lifecycle
package session

import (
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/lixenwraith/chaoswave/arena"
	"github.com/lixenwraith/chaoswave/balance"
	"github.com/lixenwraith/chaoswave/behavior"
	"github.com/lixenwraith/chaoswave/core"
	"github.com/lixenwraith/chaoswave/engine"
	"github.com/lixenwraith/chaoswave/event"
	"github.com/lixenwraith/chaoswave/faction"
	"github.com/lixenwraith/chaoswave/parameter"
	"github.com/lixenwraith/chaoswave/skirmish"
	"github.com/lixenwraith/chaoswave/spatial"
	"github.com/lixenwraith/chaoswave/status"
	"github.com/lixenwraith/chaoswave/vmath"
	"github.com/lixenwraith/chaoswave/wave"
)

// Run identifies one playthrough between restarts
type Run struct {
	ID        string    `json:"id"`
	Seed      int64     `json:"seed"`
	StartedAt time.Time `json:"started_at"` // Game time
}

// WallClock is the real-time clock feeding the loop, frozen while the session is paused
// engine.PausableClock implements it
type WallClock interface {
	Pause()
	Resume()
	TotalPauseDuration() time.Duration
}

// Options carries the ambient collaborators of a Context; every field is optional
type Options struct {
	Sink     event.Sink // Receives every component event after session handling
	Log      *slog.Logger
	Registry *status.Registry
	Start    time.Time // Game time origin, defaults to now
	Wall     WallClock
}

// Context owns every component and the game clock
// All methods except Submit and Snapshot must be called from the loop goroutine
type Context struct {
	cfg  Config
	log  *slog.Logger
	reg  *status.Registry
	sink event.Sink
	seed int64

	clock    *engine.Scheduler
	arena    *arena.Arena
	factory  trackedFactory
	meter    *balance.Meter
	factions *faction.Registry
	waves    *wave.Scheduler
	skirmish *skirmish.Detector
	index    *spatial.Index
	moods    *behavior.Moods

	run      Run
	listen   []func(Run)
	wall     WallClock
	paused   bool
	tick     uint64
	commands chan Command
	history  *history
	snapshot atomic.Pointer[Snapshot]

	mRestarts *atomic.Int64
	mKills    *atomic.Int64
}

// New wires a simulation from cfg; call Start to begin the first run
func New(cfg Config, opts Options) (*Context, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("session config: %w", err)
	}
	log := opts.Log
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	reg := status.OrNew(opts.Registry)
	start := opts.Start
	if start.IsZero() {
		start = time.Now()
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	root := core.NewRand(seed)
	derive := func() *rand.Rand { return core.NewRand(root.Int63() | 1) }

	c := &Context{
		cfg:       cfg,
		log:       log.With("component", "session"),
		reg:       reg,
		sink:      event.OrNop(opts.Sink),
		seed:      seed,
		wall:      opts.Wall,
		clock:     engine.NewScheduler(start, log),
		index:     spatial.New(cfg.Spatial),
		moods:     &behavior.Moods{},
		commands:  make(chan Command, parameter.CommandQueueSize),
		history:   newHistory(parameter.SnapshotEventHistory),
		mRestarts: reg.Ints.Get("session.restarts"),
		mKills:    reg.Ints.Get("session.kills"),
	}
	sink := event.SinkFunc(c.handle)

	c.arena = arena.New(cfg.Arena, c.clock, derive(), log, reg)
	c.meter = balance.New(cfg.Balance, c.clock, sink, log, reg)
	c.factions = faction.New(cfg.Faction, c.clock, derive(), log, reg)
	c.factory = trackedFactory{Arena: c.arena, factions: c.factions}
	c.waves = wave.New(cfg.Wave, c.clock, c.factory, c.factions, c.arena, derive(), sink, log, reg)
	c.skirmish = skirmish.New(cfg.Skirmish, skirmish.Deps{
		Clock:    c.clock,
		Index:    c.index,
		Factory:  c.factory,
		Balance:  c.meter,
		Factions: c.factions,
		Waves:    c.waves,
	}, derive(), sink, log, reg)

	c.meter.SetWeightListener(c.factions)
	c.arena.SetMultipliers(c.meter)
	c.arena.SetMoods(c.moods)
	c.arena.OnDeath(c.OnEntityKilled)
	c.publish()
	return c, nil
}

// OnRun registers fn to be told about every run start, including restarts
func (c *Context) OnRun(fn func(Run)) {
	if fn != nil {
		c.listen = append(c.listen, fn)
	}
}

// Start begins the first run
func (c *Context) Start() {
	c.begin()
}

func (c *Context) begin() {
	c.run = Run{ID: uuid.NewString(), Seed: c.seed, StartedAt: c.clock.Now()}
	c.setPaused(false)
	c.log.Info("run started", "run", c.run.ID, "seed", c.seed)
	for _, fn := range c.listen {
		fn(c.run)
	}
	if c.cfg.AutoStart {
		if err := c.waves.StartNextWave(); err != nil {
			c.log.Warn("auto start failed", "error", err)
		}
	}
	c.publish()
}

// Restart resets every component and begins a new run
// Entities are released silently; no kill notifications are emitted
func (c *Context) Restart() {
	c.arena.Reset()
	c.factions.Reset()
	c.meter.Reset()
	c.waves.Reset()
	c.skirmish.Reset()
	c.moods.Reset()
	c.index.Invalidate()
	c.history.reset()
	c.mRestarts.Add(1)
	c.begin()
}

// OnEntityKilled fans a death out in fixed order: wave counters, balance, faction
func (c *Context) OnEntityKilled(d arena.Death) {
	f := c.factions.Unassign(d.Entity)
	if f == core.FactionNeutral {
		f = d.Faction
	}
	c.mKills.Add(1)

	c.waves.OnEnemyKilled(d.Kind.IsBoss())
	if !f.IsCombatant() {
		return
	}
	if d.Cause == arena.CausePlayer {
		c.meter.RegisterKill(f)
	}
	if d.Cause != arena.CauseCulled {
		c.factions.RegisterKill(f)
	}
}

// handle reacts to component events, records them, then forwards them outward
func (c *Context) handle(e event.Event) {
	switch p := e.Payload.(type) {
	case event.MajorChaosPayload:
		c.onMajorChaos(p)
	case event.ChaosUnlockedPayload:
		c.moods.Reset()
	}
	c.history.push(ViewOf(e))
	c.sink.Publish(e)
}

// onMajorChaos panics the dominant faction, enrages the disadvantaged one and surges it
func (c *Context) onMajorChaos(p event.MajorChaosPayload) {
	dominant := p.Faction
	if !dominant.IsCombatant() {
		return
	}
	weak := dominant.Opponent()
	now := c.clock.Now()
	c.moods.Set(dominant, behavior.PanicMood())
	c.moods.Set(weak, behavior.RageMood(now.Add(c.cfg.Arena.EnrageDuration)))

	n := c.skirmish.Surge(weak, c.surgePoint(weak))
	c.log.Info("major chaos response", "dominant", dominant.String(), "surge", n)
}

// surgePoint is the centroid of f's live members, else the view edge beside the player
func (c *Context) surgePoint(f core.FactionID) vmath.Vec2 {
	var mean vmath.MeanAccumulator
	for _, v := range c.arena.EnumerateActive(core.KindAny) {
		if v.Faction == f && v.HasPosition {
			mean.Add(v.Position)
		}
	}
	if mean.Count() > 0 {
		return mean.Mean()
	}
	p := c.arena.PlayerPosition()
	return vmath.V2(p.X+c.cfg.Arena.ViewWidth/2, p.Y)
}

// Apply executes cmd immediately; loop goroutine only
func (c *Context) Apply(cmd Command) error {
	switch cmd {
	case CommandNextWave:
		if err := c.waves.StartNextWave(); err != nil {
			return err
		}
	case CommandRestart:
		c.Restart()
	case CommandPause:
		c.setPaused(!c.paused)
	case CommandResume:
		c.setPaused(false)
	default:
		return fmt.Errorf("unknown command %d", cmd)
	}
	c.log.Debug("command applied", "command", cmd.String(), "paused", c.paused)
	c.publish()
	return nil
}

// setPaused freezes game time; the wall clock, when wired, stops feeding elapsed time to the loop
func (c *Context) setPaused(p bool) {
	c.paused = p
	if c.wall == nil {
		return
	}
	if p {
		c.wall.Pause()
	} else {
		c.wall.Resume()
	}
}

// Step drains commands then advances timers and the arena by dt
func (c *Context) Step(dt time.Duration) {
	c.drain()
	if !c.paused && dt > 0 {
		c.clock.Advance(dt)
		c.arena.Update(dt)
	}
	c.tick++
	c.publish()
}

func (c *Context) publish() {
	wv := c.waves.Snapshot()
	snap := &Snapshot{
		RunID:  c.run.ID,
		Tick:   c.tick,
		Time:   c.clock.Now(),
		Paused: c.paused,
		Wave:   wv,
		Chaos: ChaosView{
			Value:      c.meter.Value(),
			Percentage: c.meter.Percentage(),
			Polarity:   c.meter.Polarity(),
			Momentum:   c.meter.Momentum(),
			Locked:     c.meter.Locked(),
			Dominant:   c.meter.Dominant(),
		},
		Player:     c.arena.PlayerPosition(),
		Arena:      c.arena.Stats(),
		Skirmishes: c.skirmish.Active(),
		Events:     c.history.list(),
	}
	for _, f := range c.factions.Factions() {
		snap.Factions = append(snap.Factions, FactionView{
			ID:          f.ID,
			Weight:      f.Weight,
			Members:     f.MemberCount,
			Multipliers: c.meter.Multipliers(f.ID),
			Mood:        c.moods.Get(f.ID).String(),
		})
	}
	if c.wall != nil {
		snap.PausedFor = c.wall.TotalPauseDuration()
	}
	c.snapshot.Store(snap)
}

// Snapshot returns the latest published snapshot; safe from any goroutine
func (c *Context) Snapshot() *Snapshot {
	return c.snapshot.Load()
}

func (c *Context) Run() Run {
	return c.run
}

func (c *Context) Paused() bool {
	return c.paused
}

func (c *Context) Registry() *status.Registry {
	return c.reg
}

func (c *Context) Clock() *engine.Scheduler       { return c.clock }
func (c *Context) Arena() *arena.Arena            { return c.arena }
func (c *Context) Meter() *balance.Meter          { return c.meter }
func (c *Context) Factions() *faction.Registry    { return c.factions }
func (c *Context) Waves() *wave.Scheduler         { return c.waves }
func (c *Context) Skirmishes() *skirmish.Detector { return c.skirmish }
