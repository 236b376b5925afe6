package session

import (
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/lixenwraith/chaoswave/arena"
	"github.com/lixenwraith/chaoswave/core"
	"github.com/lixenwraith/chaoswave/engine"
	"github.com/lixenwraith/chaoswave/event"
	"github.com/lixenwraith/chaoswave/vmath"
	"github.com/lixenwraith/chaoswave/wave"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// fakeWall is a hand-stepped engine.TimeProvider
type fakeWall struct{ now time.Time }

func (w *fakeWall) Now() time.Time { return w.now }

// quietConfig stops wave spawning and pins the player and enemies in place
func quietConfig() Config {
	cfg := DefaultConfig()
	cfg.Seed = 42
	cfg.Wave.SpawnInterval = time.Hour
	cfg.Wave.SpawnIntervalMin = time.Hour
	cfg.Arena.OrbitRadius = 0
	cfg.Arena.OrbitSpeed = 0
	cfg.Arena.Archetypes = arena.DefaultArchetypes()
	for k, a := range cfg.Arena.Archetypes {
		a.Speed = 0
		cfg.Arena.Archetypes[k] = a
	}
	return cfg
}

func newContext(t *testing.T, cfg Config) (*Context, *event.Recorder) {
	t.Helper()
	rec := event.NewRecorder(0)
	c, err := New(cfg, Options{Sink: rec, Start: epoch})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	c.Start()
	return c, rec
}

func stepFor(c *Context, d, step time.Duration) {
	for elapsed := time.Duration(0); elapsed < d; elapsed += step {
		c.Step(step)
	}
}

// spawnExternal places one tracked enemy outside the wave spawn timer
func spawnExternal(t *testing.T, c *Context, pos vmath.Vec2, f core.FactionID) core.Entity {
	t.Helper()
	e, ok := c.factory.Spawn(core.KindGrunt, pos, f)
	if !ok {
		t.Fatal("spawn failed")
	}
	c.waves.RegisterExternalEnemySpawn(1)
	return e
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Arena.Targeting = "everyone"
	cfg.Balance.BaseWeight = 0
	_, err := New(cfg, Options{})
	if err == nil {
		t.Fatal("New accepted invalid config")
	}
}

func TestStartPublishesRun(t *testing.T) {
	rec := event.NewRecorder(0)
	c, err := New(quietConfig(), Options{Sink: rec, Start: epoch})
	if err != nil {
		t.Fatal(err)
	}
	var runs []Run
	c.OnRun(func(r Run) { runs = append(runs, r) })
	c.Start()

	if len(runs) != 1 || runs[0].ID == "" || runs[0].Seed != 42 {
		t.Fatalf("runs = %+v", runs)
	}
	snap := c.Snapshot()
	if snap.RunID != runs[0].ID || snap.Wave.Number != 1 || snap.Wave.State != wave.StateActive {
		t.Errorf("snapshot = %+v", snap.Wave)
	}
	if rec.Count(event.WaveStart) != 1 {
		t.Error("wave-start not forwarded to the outer sink")
	}
	if len(snap.Events) != 1 || snap.Events[0].Type != event.WaveStart {
		t.Errorf("snapshot events = %+v", snap.Events)
	}
}

func TestPlayerKillFanOut(t *testing.T) {
	c, _ := newContext(t, quietConfig())
	spawnExternal(t, c, vmath.V2(150, 0), core.FactionA)
	if got := c.factions.MemberCount(core.FactionA); got != 1 {
		t.Fatalf("members after spawn = %d, want 1", got)
	}

	stepFor(c, 2*time.Second, 50*time.Millisecond)

	if c.arena.Stats().Kills != 1 {
		t.Fatalf("kills = %d, want 1", c.arena.Stats().Kills)
	}
	if got := c.meter.Value(); got != c.cfg.Balance.BaseWeight {
		t.Errorf("chaos = %v, want %v (A kill pushes toward B)", got, c.cfg.Balance.BaseWeight)
	}
	if got := c.factions.MemberCount(core.FactionA); got != 0 {
		t.Errorf("members after kill = %d, want 0", got)
	}
	if w := c.waves.Snapshot(); w.ActiveEnemies != 0 {
		t.Errorf("active enemies = %d, want 0", w.ActiveEnemies)
	}
	if f := c.factions.Factions()[0]; f.Reinforcement <= 0 {
		t.Errorf("A reinforcement = %v, want > 0", f.Reinforcement)
	}
}

func TestSkirmishKillSkipsBalance(t *testing.T) {
	c, _ := newContext(t, quietConfig())
	e := spawnExternal(t, c, vmath.V2(900, 900), core.FactionB)

	c.arena.ApplyFatalDamage(e)

	if c.meter.Value() != 0 {
		t.Errorf("chaos = %v, want 0 after skirmish death", c.meter.Value())
	}
	if c.factions.MemberCount(core.FactionB) != 0 {
		t.Error("member not unassigned")
	}
	if f := c.factions.Factions()[1]; f.Reinforcement <= 0 {
		t.Errorf("B reinforcement = %v, want > 0", f.Reinforcement)
	}
	if w := c.waves.Snapshot(); w.ActiveEnemies != 0 {
		t.Errorf("active enemies = %d, want 0", w.ActiveEnemies)
	}
}

func TestCulledOnlyTouchesWave(t *testing.T) {
	c, _ := newContext(t, quietConfig())
	spawnExternal(t, c, vmath.V2(c.cfg.Arena.Bounds+50, 0), core.FactionA)

	c.Step(50 * time.Millisecond)

	if c.arena.Stats().Culled != 1 {
		t.Fatal("enemy not culled")
	}
	if c.meter.Value() != 0 {
		t.Error("cull moved chaos")
	}
	if f := c.factions.Factions()[0]; f.Reinforcement != 0 {
		t.Errorf("cull reinforced A: %v", f.Reinforcement)
	}
	if w := c.waves.Snapshot(); w.ActiveEnemies != 0 {
		t.Errorf("active enemies = %d, want 0", w.ActiveEnemies)
	}
}

func TestMajorChaosResponse(t *testing.T) {
	c, rec := newContext(t, quietConfig())

	c.meter.SetValue(100)
	c.Step(0)

	if rec.Count(event.MajorChaos) != 1 || rec.Count(event.ChaosLocked) != 1 {
		t.Fatalf("major=%d locked=%d", rec.Count(event.MajorChaos), rec.Count(event.ChaosLocked))
	}
	surge, ok := rec.Last(event.Surge)
	if !ok {
		t.Fatal("no surge for the disadvantaged faction")
	}
	if p := surge.Payload.(event.SurgePayload); p.Faction != core.FactionA || p.Strength != c.cfg.Skirmish.SurgeGroupSize {
		t.Errorf("surge = %+v", p)
	}
	if got := c.factions.MemberCount(core.FactionA); got != c.cfg.Skirmish.SurgeGroupSize {
		t.Errorf("A members = %d, want %d", got, c.cfg.Skirmish.SurgeGroupSize)
	}

	snap := c.Snapshot()
	if snap.Faction(core.FactionB).Mood != "panic" || snap.Faction(core.FactionA).Mood != "rage" {
		t.Errorf("moods A=%s B=%s", snap.Faction(core.FactionA).Mood, snap.Faction(core.FactionB).Mood)
	}
	if !snap.Chaos.Locked || snap.Chaos.Dominant != core.FactionB {
		t.Errorf("chaos view = %+v", snap.Chaos)
	}

	stepFor(c, c.cfg.Balance.LockoutDuration+time.Second, 500*time.Millisecond)

	if rec.Count(event.ChaosUnlocked) != 1 {
		t.Fatal("lockout did not end")
	}
	snap = c.Snapshot()
	if snap.Faction(core.FactionB).Mood != "calm" || snap.Faction(core.FactionA).Mood != "calm" {
		t.Errorf("moods after unlock A=%s B=%s", snap.Faction(core.FactionA).Mood, snap.Faction(core.FactionB).Mood)
	}
}

func TestRestartResetsSilently(t *testing.T) {
	c, rec := newContext(t, quietConfig())
	var runs []string
	c.OnRun(func(r Run) { runs = append(runs, r.ID) })
	first := c.Run().ID

	spawnExternal(t, c, vmath.V2(900, 0), core.FactionA)
	c.meter.SetValue(50)
	kills := c.reg.Ints.Get("session.kills").Load()

	if err := c.Submit(CommandRestart); err != nil {
		t.Fatal(err)
	}
	c.Step(0)

	if len(runs) != 1 || runs[0] == first {
		t.Fatalf("restart runs = %v", runs)
	}
	if got := c.reg.Ints.Get("session.kills").Load(); got != kills {
		t.Errorf("restart emitted kills: %d -> %d", kills, got)
	}
	snap := c.Snapshot()
	if snap.Chaos.Value != 0 || snap.Wave.Number != 1 || snap.Wave.ActiveEnemies != 0 {
		t.Errorf("snapshot after restart: chaos=%v wave=%+v", snap.Chaos.Value, snap.Wave)
	}
	if n := len(c.arena.EnumerateActive(core.KindAny)); n != 0 {
		t.Errorf("entities after restart = %d", n)
	}
	if c.factions.MemberCount(core.FactionA) != 0 {
		t.Error("membership survived restart")
	}
	if rec.Count(event.WaveStart) != 2 {
		t.Errorf("wave starts = %d, want 2", rec.Count(event.WaveStart))
	}
	if got := c.reg.Ints.Get("session.restarts").Load(); got != 1 {
		t.Errorf("restarts = %d", got)
	}
}

func TestPauseFreezesWallClock(t *testing.T) {
	wall := &fakeWall{now: epoch}
	pc := engine.NewPausableClock(wall)
	c, err := New(quietConfig(), Options{Start: epoch, Wall: pc})
	if err != nil {
		t.Fatal(err)
	}
	c.Start()

	c.Submit(CommandPause)
	c.Step(0)
	if !pc.IsPaused() {
		t.Fatal("pause command did not pause the wall clock")
	}
	wall.now = wall.now.Add(3 * time.Second)
	if got := pc.Elapsed(); got != 0 {
		t.Errorf("wall elapsed while paused = %v, want 0", got)
	}

	c.Submit(CommandPause) // Toggles back
	c.Step(0)
	if pc.IsPaused() {
		t.Fatal("second pause command did not resume the wall clock")
	}
	if got := c.Snapshot().PausedFor; got != 3*time.Second {
		t.Errorf("PausedFor = %v, want 3s", got)
	}

	c.Submit(CommandPause)
	c.Step(0)
	c.Restart()
	if pc.IsPaused() || c.Snapshot().Paused {
		t.Error("restart left the session paused")
	}
}

func TestPauseCommand(t *testing.T) {
	c, _ := newContext(t, quietConfig())
	before := c.clock.Now()

	c.Submit(CommandPause)
	c.Step(time.Second)
	if !c.Snapshot().Paused || !c.clock.Now().Equal(before) {
		t.Fatal("paused step advanced game time")
	}

	c.Submit(CommandResume)
	c.Step(time.Second)
	if c.Snapshot().Paused || !c.clock.Now().Equal(before.Add(time.Second)) {
		t.Error("resumed step did not advance")
	}
}

func TestCommandErrors(t *testing.T) {
	c, _ := newContext(t, quietConfig())
	if err := c.Apply(CommandNextWave); !errors.Is(err, wave.ErrWaveActive) {
		t.Errorf("next wave during active wave: %v", err)
	}
	if err := c.Apply(Command(99)); err == nil {
		t.Error("unknown command accepted")
	}

	var err error
	for i := 0; i <= cap(c.commands); i++ {
		err = c.Submit(CommandPause)
	}
	if !errors.Is(err, ErrCommandQueueFull) {
		t.Errorf("overflow submit: %v", err)
	}
}

func TestSimulationInvariants(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Seed = 7
	cfg.Wave.AutoAdvanceDelay = time.Second
	c, rec := newContext(t, cfg)

	for i := 0; i < 2400; i++ {
		c.Step(50 * time.Millisecond)
		snap := c.Snapshot()
		if math.Abs(snap.Chaos.Value) > 100 {
			t.Fatalf("step %d: chaos %v out of range", i, snap.Chaos.Value)
		}
		sum := 0.0
		for _, f := range snap.Factions {
			if f.Weight < cfg.Faction.MinWeight-1e-9 {
				t.Fatalf("step %d: faction %v weight %v below floor", i, f.ID, f.Weight)
			}
			sum += f.Weight
		}
		if math.Abs(sum-100) > 1e-6 {
			t.Fatalf("step %d: weights sum %v", i, sum)
		}
		w := snap.Wave
		if w.ActiveEnemies < 0 || w.ActiveBosses < 0 || w.EnemiesSpawned > w.EnemiesToSpawn {
			t.Fatalf("step %d: wave counters %+v", i, w)
		}
	}

	if c.arena.Stats().Kills == 0 {
		t.Error("two minutes without a player kill")
	}
	seen := map[int]int{}
	for _, e := range rec.OfType(event.WaveCompleted) {
		seen[e.Payload.(event.WaveCompletedPayload).Wave]++
	}
	for n, count := range seen {
		if count != 1 {
			t.Errorf("wave %d completed %d times", n, count)
		}
	}
}

func TestSnapshotConcurrentReaders(t *testing.T) {
	c, _ := newContext(t, DefaultConfig())
	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				if s := c.Snapshot(); s == nil || len(s.Factions) != 2 {
					t.Error("incomplete snapshot")
					return
				}
				_ = c.Submit(CommandResume)
			}
		}()
	}
	stepFor(c, 5*time.Second, 50*time.Millisecond)
	close(stop)
	wg.Wait()
}

func TestHistoryRing(t *testing.T) {
	h := newHistory(3)
	for i := 1; i <= 5; i++ {
		h.push(EventView{Fields: map[string]any{"i": i}})
	}
	got := h.list()
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	for j, want := range []int{3, 4, 5} {
		if got[j].Fields["i"] != want {
			t.Errorf("entry %d = %v, want %d", j, got[j].Fields["i"], want)
		}
	}
	h.reset()
	if len(h.list()) != 0 {
		t.Error("reset left entries")
	}
}
