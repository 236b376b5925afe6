package arena

import (
	"errors"
	"fmt"
	"time"

	"github.com/lixenwraith/chaoswave/core"
	"github.com/lixenwraith/chaoswave/parameter"
	"github.com/lixenwraith/chaoswave/pool"
)

// Archetype is the base stat line of an enemy kind before multipliers
type Archetype struct {
	Health float64 `yaml:"health"`
	Speed  float64 `yaml:"speed"`
}

// Targeting selects which enemy the auto-firing player aims at
type Targeting string

const (
	TargetNearest  Targeting = "nearest"
	TargetFactionA Targeting = "faction_a" // Nearest A member, else nearest
	TargetFactionB Targeting = "faction_b"
)

type Config struct {
	ViewWidth  float64 `yaml:"view_width"`
	ViewHeight float64 `yaml:"view_height"`
	Bounds     float64 `yaml:"bounds"`
	CellSize   float64 `yaml:"cell_size"`

	Targeting    Targeting     `yaml:"targeting"`
	FireInterval time.Duration `yaml:"fire_interval"`
	FireRange    float64       `yaml:"fire_range"`
	Damage       float64       `yaml:"damage"`
	OrbitRadius  float64       `yaml:"orbit_radius"`
	OrbitSpeed   float64       `yaml:"orbit_speed"`

	BulletSpeed    float64       `yaml:"bullet_speed"`
	BulletRadius   float64       `yaml:"bullet_radius"`
	BulletLifetime time.Duration `yaml:"bullet_lifetime"`
	TrailLen       int           `yaml:"trail_len"`

	Archetypes     map[core.Kind]Archetype `yaml:"archetypes"`
	EnemyRadius    float64                 `yaml:"enemy_radius"`
	EngageDist     float64                 `yaml:"engage_dist"`
	ContactDPS     float64                 `yaml:"contact_dps"`
	EnragedSpeed   float64                 `yaml:"enraged_speed"`
	PanicSpeed     float64                 `yaml:"panic_speed"`
	EnrageDuration time.Duration           `yaml:"enrage_duration"`

	Enemies pool.Config `yaml:"enemies"`
	Bullets pool.Config `yaml:"bullets"`
}

func DefaultArchetypes() map[core.Kind]Archetype {
	return map[core.Kind]Archetype{
		core.KindGrunt:  {Health: parameter.GruntHealth, Speed: parameter.GruntSpeed},
		core.KindRunner: {Health: parameter.RunnerHealth, Speed: parameter.RunnerSpeed},
		core.KindTank:   {Health: parameter.TankHealth, Speed: parameter.TankSpeed},
		core.KindElite:  {Health: parameter.EliteHealth, Speed: parameter.EliteSpeed},
		core.KindBoss:   {Health: parameter.BossHealth, Speed: parameter.BossSpeed},
	}
}

func DefaultConfig() Config {
	return Config{
		ViewWidth:      parameter.ArenaViewWidth,
		ViewHeight:     parameter.ArenaViewHeight,
		Bounds:         parameter.ArenaBounds,
		CellSize:       parameter.SpatialCellSize,
		Targeting:      TargetNearest,
		FireInterval:   parameter.PlayerFireInterval,
		FireRange:      parameter.PlayerFireRange,
		Damage:         parameter.PlayerDamage,
		OrbitRadius:    parameter.PlayerOrbitRadius,
		OrbitSpeed:     parameter.PlayerOrbitSpeed,
		BulletSpeed:    parameter.BulletSpeed,
		BulletRadius:   parameter.BulletRadius,
		BulletLifetime: parameter.BulletLifetime,
		TrailLen:       parameter.BulletTrailLen,
		Archetypes:     DefaultArchetypes(),
		EnemyRadius:    parameter.EnemyRadius,
		EngageDist:     parameter.EnemyEngageDist,
		ContactDPS:     parameter.EnemyContactDPS,
		EnragedSpeed:   parameter.EnragedSpeedFactor,
		PanicSpeed:     parameter.PanicSpeedFactor,
		EnrageDuration: parameter.EnrageDuration,
		Enemies:        pool.DefaultConfig("enemies", parameter.EnemyPoolMax, parameter.EnemyPoolWarm),
		Bullets:        pool.DefaultConfig("bullets", parameter.BulletPoolMax, parameter.BulletPoolWarm),
	}
}

func (c Config) Validate() error {
	var errs []error
	switch c.Targeting {
	case TargetNearest, TargetFactionA, TargetFactionB:
	default:
		errs = append(errs, fmt.Errorf("unknown targeting %q", c.Targeting))
	}
	if c.FireInterval <= 0 || c.BulletLifetime <= 0 {
		errs = append(errs, errors.New("fire_interval and bullet_lifetime must be positive"))
	}
	if c.Enemies.MaxSize <= 0 || c.Bullets.MaxSize <= 0 {
		errs = append(errs, errors.New("pool max_size must be positive"))
	}
	for _, k := range []core.Kind{core.KindGrunt, core.KindRunner, core.KindTank, core.KindElite, core.KindBoss} {
		if a, ok := c.Archetypes[k]; !ok || a.Health <= 0 {
			errs = append(errs, fmt.Errorf("archetype %v missing or without health", k))
		}
	}
	return errors.Join(errs...)
}
