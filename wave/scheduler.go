// Package wave runs the wave progression state machine and its spawn timing
package wave

import (
	"errors"
	"io"
	"log/slog"
	"math/rand"
	"sync/atomic"

	"github.com/lixenwraith/chaoswave/core"
	"github.com/lixenwraith/chaoswave/engine"
	"github.com/lixenwraith/chaoswave/event"
	"github.com/lixenwraith/chaoswave/status"
)

var (
	ErrWaveActive = errors.New("wave already active")
	ErrVictory    = errors.New("all waves completed")
)

// State of the wave machine; Active is left only through wave completion or Reset
type State uint8

const (
	StateIdle State = iota
	StateActive
	StatePaused // Between waves
	StateVictory
)

var stateNames = [...]string{"idle", "active", "paused", "victory"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Wave is the live wave's counters; all counters stay >= 0
type Wave struct {
	Number         int   `json:"number"`
	IsBossWave     bool  `json:"is_boss_wave"`
	EnemiesToSpawn int   `json:"enemies_to_spawn"`
	EnemiesSpawned int   `json:"enemies_spawned"`
	ActiveEnemies  int   `json:"active_enemies"`
	ActiveBosses   int   `json:"active_bosses"`
	BossSpawned    bool  `json:"boss_spawned"`
	State          State `json:"state"`
}

// FactionSource picks the faction of each ordinary spawn
type FactionSource interface {
	NextSpawnFaction() core.FactionID
}

// Scheduler owns wave progression
// Single-threaded: calls and timer callbacks run on the simulation goroutine
type Scheduler struct {
	cfg       Config
	clock     engine.Clock
	timers    *engine.TimerSet
	factory   core.EntityFactory
	factions  FactionSource
	placer    *placer
	rng       *rand.Rand
	sink      event.Sink
	log       *slog.Logger

	wave          Wave
	lastCompleted int

	spawnTimer     engine.Timer
	reconcileTimer engine.Timer
	advanceTimer   engine.Timer

	mNumber    *atomic.Int64
	mToSpawn   *atomic.Int64
	mSpawned   *atomic.Int64
	mActive    *atomic.Int64
	mBosses    *atomic.Int64
	mDrift     *atomic.Int64
	mSkipped   *atomic.Int64
	mUnderflow *atomic.Int64
	mState     *status.Label
}

// New creates an idle scheduler; factory, factions and player are required
func New(cfg Config, clock engine.Clock, factory core.EntityFactory, factions FactionSource,
	player core.PlayerPositionProvider, rng *rand.Rand, sink event.Sink, log *slog.Logger, reg *status.Registry) *Scheduler {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if rng == nil {
		rng = core.NewRand(0)
	}
	reg = status.OrNew(reg)
	s := &Scheduler{
		cfg:        cfg,
		clock:      clock,
		timers:     engine.NewTimerSet(clock),
		factory:    factory,
		factions:   factions,
		placer:     newPlacer(cfg, player, rng),
		rng:        rng,
		sink:       event.OrNop(sink),
		log:        log.With("component", "wave"),
		mNumber:    reg.Ints.Get("wave.number"),
		mToSpawn:   reg.Ints.Get("wave.to_spawn"),
		mSpawned:   reg.Ints.Get("wave.spawned"),
		mActive:    reg.Ints.Get("wave.active"),
		mBosses:    reg.Ints.Get("wave.bosses"),
		mDrift:     reg.Ints.Get("wave.drift_corrections"),
		mSkipped:   reg.Ints.Get("wave.spawns_skipped"),
		mUnderflow: reg.Ints.Get("wave.underflows"),
		mState:     reg.Labels.Get("wave.state"),
	}
	s.Reset()
	return s
}

// Reset cancels every wave timer and returns to Idle before wave 1
func (s *Scheduler) Reset() {
	s.timers.CancelAll()
	s.spawnTimer, s.reconcileTimer, s.advanceTimer = 0, 0, 0
	s.wave = Wave{State: StateIdle}
	s.lastCompleted = 0
	s.placer.reset()
	s.publishMetrics()
}

// StartNextWave advances to the next wave and starts its spawn timer
func (s *Scheduler) StartNextWave() error {
	switch s.wave.State {
	case StateActive:
		return ErrWaveActive
	case StateVictory:
		return ErrVictory
	}
	s.timers.Cancel(s.advanceTimer)
	s.advanceTimer = 0

	n := s.wave.Number + 1
	carried := 0
	for _, v := range s.factory.EnumerateActive(core.KindAny) {
		if v.Kind.IsEnemy() {
			carried++
		}
	}
	s.wave = Wave{
		Number:         n,
		IsBossWave:     s.cfg.IsBossWave(n),
		EnemiesToSpawn: s.cfg.EnemyCount(n),
		ActiveEnemies:  carried,
		State:          StateActive,
	}

	s.spawnTimer = s.timers.Every(s.cfg.SpawnIntervalFor(n), s.spawnTick)
	s.reconcileTimer = s.timers.Every(s.cfg.ReconcileInterval, s.Reconcile)
	s.publishMetrics()

	s.log.Info("wave started", "wave", n, "boss", s.wave.IsBossWave, "enemies", s.wave.EnemiesToSpawn, "carried", carried)
	s.sink.Publish(event.New(s.clock.Now(), event.WaveStartPayload{
		Wave:       n,
		IsBossWave: s.wave.IsBossWave,
		EnemyCount: s.wave.EnemiesToSpawn,
	}))
	return nil
}

func (s *Scheduler) spawnTick() {
	if s.wave.State != StateActive {
		return
	}
	band := s.cfg.BandFor(s.wave.Number)
	for i := 0; i < s.cfg.SpawnBatch && s.wave.EnemiesSpawned < s.wave.EnemiesToSpawn; i++ {
		kind := pickKind(band, s.rng)
		faction := s.factions.NextSpawnFaction()
		_, ok := s.factory.Spawn(kind, s.placer.next(), faction)
		if !ok {
			s.mSkipped.Add(1)
			s.log.Debug("spawn skipped, factory full", "wave", s.wave.Number, "kind", kind.String())
			break
		}
		s.wave.EnemiesSpawned++
		s.wave.ActiveEnemies++
	}
	s.trySpawnBoss()
	s.publishMetrics()
	s.checkCompletion()
}

// trySpawnBoss spawns the boss once the ordinary quota is exhausted, retried until it succeeds
func (s *Scheduler) trySpawnBoss() {
	if !s.wave.IsBossWave || s.wave.BossSpawned || s.wave.EnemiesSpawned < s.wave.EnemiesToSpawn {
		return
	}
	_, ok := s.factory.Spawn(core.KindBoss, s.placer.next(), core.FactionNeutral)
	if !ok {
		s.log.Debug("boss spawn deferred", "wave", s.wave.Number)
		return
	}
	s.wave.BossSpawned = true
	s.wave.ActiveBosses++
	s.log.Info("boss spawned", "wave", s.wave.Number)
}

// OnEnemyKilled decrements the live counters, clamped at zero
func (s *Scheduler) OnEnemyKilled(isBoss bool) {
	if s.wave.State != StateActive {
		return
	}
	counter, name := &s.wave.ActiveEnemies, "active_enemies"
	if isBoss {
		counter, name = &s.wave.ActiveBosses, "active_bosses"
	}
	if *counter == 0 {
		s.mUnderflow.Add(1)
		s.log.Warn("kill with no tracked enemies", "wave", s.wave.Number, "counter", name)
	} else {
		*counter--
	}
	s.publishMetrics()
	s.checkCompletion()
}

// RegisterExternalEnemySpawn counts enemies spawned outside the spawn timer into the live wave
func (s *Scheduler) RegisterExternalEnemySpawn(count int) {
	if s.wave.State != StateActive || count <= 0 {
		return
	}
	s.wave.EnemiesToSpawn += count
	s.wave.EnemiesSpawned += count
	s.wave.ActiveEnemies += count
	s.publishMetrics()
}

// Reconcile recounts live enemies from the factory and overwrites drifted counters
func (s *Scheduler) Reconcile() {
	if s.wave.State != StateActive {
		return
	}
	enemies, bosses := 0, 0
	for _, v := range s.factory.EnumerateActive(core.KindAny) {
		switch {
		case v.Kind.IsBoss():
			bosses++
		case v.Kind.IsEnemy():
			enemies++
		}
	}
	if enemies != s.wave.ActiveEnemies {
		s.mDrift.Add(1)
		s.log.Info("wave counter drift corrected", "wave", s.wave.Number, "counter", "active_enemies",
			"tracked", s.wave.ActiveEnemies, "actual", enemies)
		s.wave.ActiveEnemies = enemies
	}
	if bosses != s.wave.ActiveBosses {
		s.mDrift.Add(1)
		s.log.Info("wave counter drift corrected", "wave", s.wave.Number, "counter", "active_bosses",
			"tracked", s.wave.ActiveBosses, "actual", bosses)
		s.wave.ActiveBosses = bosses
	}
	s.trySpawnBoss()
	s.publishMetrics()
	s.checkCompletion()
}

func (s *Scheduler) checkCompletion() {
	w := &s.wave
	if w.State != StateActive || w.EnemiesSpawned < w.EnemiesToSpawn || w.ActiveEnemies > 0 {
		return
	}
	if w.IsBossWave && (!w.BossSpawned || w.ActiveBosses > 0) {
		return
	}
	s.completeWave()
}

func (s *Scheduler) completeWave() {
	n := s.wave.Number
	if n <= s.lastCompleted {
		return
	}
	s.lastCompleted = n
	s.timers.Cancel(s.spawnTimer)
	s.timers.Cancel(s.reconcileTimer)
	s.spawnTimer, s.reconcileTimer = 0, 0

	last := s.cfg.MaxWaves > 0 && n >= s.cfg.MaxWaves
	if last {
		s.wave.State = StateVictory
	} else {
		s.wave.State = StatePaused
	}
	s.publishMetrics()

	s.log.Info("wave completed", "wave", n, "last", last)
	s.sink.Publish(event.New(s.clock.Now(), event.WaveCompletedPayload{Wave: n, IsLastWave: last}))
	if last {
		s.sink.Publish(event.New(s.clock.Now(), event.VictoryPayload{Waves: n}))
		return
	}
	if s.cfg.AutoAdvanceDelay > 0 {
		s.advanceTimer = s.timers.After(s.cfg.AutoAdvanceDelay, func() {
			s.advanceTimer = 0
			if err := s.StartNextWave(); err != nil {
				s.log.Warn("auto advance failed", "error", err)
			}
		})
	}
}

func (s *Scheduler) publishMetrics() {
	s.mNumber.Store(int64(s.wave.Number))
	s.mToSpawn.Store(int64(s.wave.EnemiesToSpawn))
	s.mSpawned.Store(int64(s.wave.EnemiesSpawned))
	s.mActive.Store(int64(s.wave.ActiveEnemies))
	s.mBosses.Store(int64(s.wave.ActiveBosses))
	s.mState.Store(s.wave.State.String())
}

// Snapshot returns a copy of the live wave
func (s *Scheduler) Snapshot() Wave {
	return s.wave
}

func (s *Scheduler) State() State {
	return s.wave.State
}

func (s *Scheduler) Config() Config {
	return s.cfg
}
