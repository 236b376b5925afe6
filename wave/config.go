package wave

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/lixenwraith/chaoswave/core"
	"github.com/lixenwraith/chaoswave/parameter"
)

// KindWeight is one row of an archetype table
type KindWeight struct {
	Kind   core.Kind `yaml:"kind"`
	Weight float64   `yaml:"weight"`
}

// ArchetypeBand applies from FromWave until the next band starts
type ArchetypeBand struct {
	FromWave int          `yaml:"from_wave"`
	Kinds    []KindWeight `yaml:"kinds"`
}

type Config struct {
	BaseEnemyCount  int     `yaml:"base_enemy_count"`
	GrowthRate      float64 `yaml:"growth_rate"`
	MaxEnemies      int     `yaml:"max_enemies"`
	MaxWaves        int     `yaml:"max_waves"`     // 0 = endless
	BossInterval    int     `yaml:"boss_interval"` // 0 = no boss waves
	BossCountFactor float64 `yaml:"boss_count_factor"`

	SpawnInterval     time.Duration `yaml:"spawn_interval"`
	SpawnIntervalStep time.Duration `yaml:"spawn_interval_step"`
	SpawnIntervalMin  time.Duration `yaml:"spawn_interval_min"`
	SpawnBatch        int           `yaml:"spawn_batch"`
	ReconcileInterval time.Duration `yaml:"reconcile_interval"`
	AutoAdvanceDelay  time.Duration `yaml:"auto_advance_delay"` // 0 = wait for StartNextWave

	ViewWidth    float64 `yaml:"view_width"`
	ViewHeight   float64 `yaml:"view_height"`
	SpawnMargin  float64 `yaml:"spawn_margin"`
	CornerChance float64 `yaml:"corner_chance"`
	NoiseScale   float64 `yaml:"noise_scale"`

	Archetypes []ArchetypeBand `yaml:"archetypes"`
}

// DefaultArchetypes shifts the mix toward heavier kinds as waves progress
func DefaultArchetypes() []ArchetypeBand {
	return []ArchetypeBand{
		{FromWave: 1, Kinds: []KindWeight{{core.KindGrunt, 80}, {core.KindRunner, 20}}},
		{FromWave: 3, Kinds: []KindWeight{{core.KindGrunt, 60}, {core.KindRunner, 30}, {core.KindTank, 10}}},
		{FromWave: 5, Kinds: []KindWeight{{core.KindGrunt, 45}, {core.KindRunner, 30}, {core.KindTank, 20}, {core.KindElite, 5}}},
		{FromWave: 8, Kinds: []KindWeight{{core.KindGrunt, 30}, {core.KindRunner, 30}, {core.KindTank, 25}, {core.KindElite, 15}}},
	}
}

func DefaultConfig() Config {
	return Config{
		BaseEnemyCount:    parameter.WaveBaseEnemyCount,
		GrowthRate:        parameter.WaveGrowthRate,
		MaxEnemies:        parameter.WaveMaxEnemies,
		MaxWaves:          parameter.WaveMaxWaves,
		BossInterval:      parameter.WaveBossInterval,
		BossCountFactor:   parameter.WaveBossCountFactor,
		SpawnInterval:     parameter.WaveSpawnInterval,
		SpawnIntervalStep: parameter.WaveSpawnIntervalStep,
		SpawnIntervalMin:  parameter.WaveSpawnIntervalMin,
		SpawnBatch:        parameter.WaveSpawnBatch,
		ReconcileInterval: parameter.WaveReconcileInterval,
		AutoAdvanceDelay:  parameter.WaveAutoAdvanceDelay,
		ViewWidth:         parameter.ArenaViewWidth,
		ViewHeight:        parameter.ArenaViewHeight,
		SpawnMargin:       parameter.SpawnMargin,
		CornerChance:      parameter.SpawnCornerChance,
		NoiseScale:        parameter.SpawnNoiseScale,
		Archetypes:        DefaultArchetypes(),
	}
}

func (c Config) Validate() error {
	var errs []error
	if c.BaseEnemyCount < 0 || c.MaxEnemies < 0 {
		errs = append(errs, errors.New("enemy counts must not be negative"))
	}
	if c.GrowthRate <= 0 {
		errs = append(errs, fmt.Errorf("growth_rate must be positive, got %v", c.GrowthRate))
	}
	if c.SpawnInterval <= 0 || c.SpawnIntervalMin <= 0 {
		errs = append(errs, errors.New("spawn intervals must be positive"))
	}
	if c.SpawnBatch <= 0 {
		errs = append(errs, errors.New("spawn_batch must be positive"))
	}
	if c.ReconcileInterval <= 0 {
		errs = append(errs, errors.New("reconcile_interval must be positive"))
	}
	if c.CornerChance < 0 || c.CornerChance > 1 {
		errs = append(errs, fmt.Errorf("corner_chance %v outside [0, 1]", c.CornerChance))
	}
	if len(c.Archetypes) == 0 {
		errs = append(errs, errors.New("archetypes must not be empty"))
	}
	for i, band := range c.Archetypes {
		total := 0.0
		for _, kw := range band.Kinds {
			if !kw.Kind.IsEnemy() {
				errs = append(errs, fmt.Errorf("archetype band %d: %v is not an ordinary enemy kind", i, kw.Kind))
			}
			total += kw.Weight
		}
		if total <= 0 {
			errs = append(errs, fmt.Errorf("archetype band %d has no weight", i))
		}
		if i > 0 && band.FromWave <= c.Archetypes[i-1].FromWave {
			errs = append(errs, fmt.Errorf("archetype band %d: from_wave must increase", i))
		}
	}
	return errors.Join(errs...)
}

// IsBossWave reports whether wave n spawns a boss
func (c Config) IsBossWave(n int) bool {
	return c.BossInterval > 0 && n > 0 && n%c.BossInterval == 0
}

// EnemyCount is the ordinary enemy quota of wave n
func (c Config) EnemyCount(n int) int {
	if n < 1 {
		return 0
	}
	count := math.Round(float64(c.BaseEnemyCount) * math.Pow(c.GrowthRate, float64(n-1)))
	if c.IsBossWave(n) {
		count = math.Round(count * c.BossCountFactor)
	}
	return min(int(count), c.MaxEnemies)
}

// SpawnIntervalFor shrinks the spawn tick with wave number down to the floor
func (c Config) SpawnIntervalFor(n int) time.Duration {
	d := c.SpawnInterval - time.Duration(max(n-1, 0))*c.SpawnIntervalStep
	return max(d, c.SpawnIntervalMin)
}

// BandFor returns the archetype band in force for wave n
func (c Config) BandFor(n int) ArchetypeBand {
	var band ArchetypeBand
	for _, b := range c.Archetypes {
		if b.FromWave > n {
			break
		}
		band = b
	}
	if len(band.Kinds) == 0 && len(c.Archetypes) > 0 {
		band = c.Archetypes[0]
	}
	return band
}
