package skirmish

import (
	"errors"
	"fmt"
	"time"

	"github.com/lixenwraith/chaoswave/core"
	"github.com/lixenwraith/chaoswave/parameter"
)

type Config struct {
	CheckInterval      time.Duration `yaml:"check_interval"`
	ChaosThreshold     float64       `yaml:"chaos_threshold"`
	RequiredPerFaction int           `yaml:"required_per_faction"`
	CellSize           float64       `yaml:"cell_size"`

	Cooldown     time.Duration `yaml:"cooldown"`
	MaxActive    int           `yaml:"max_active"`
	ResolveDelay time.Duration `yaml:"resolve_delay"`
	CleanupDelay time.Duration `yaml:"cleanup_delay"`

	WinProbability      float64       `yaml:"win_probability"` // Chance the A side wins a pairing
	BalanceNudge        float64       `yaml:"balance_nudge"`
	WinnerBoost         float64       `yaml:"winner_boost"`
	WinnerBoostDuration time.Duration `yaml:"winner_boost_duration"`

	SurgeChance        float64       `yaml:"surge_chance"`
	SurgeKind          core.Kind     `yaml:"surge_kind"`
	SurgeGroupSize     int           `yaml:"surge_group_size"`
	SurgeSpread        float64       `yaml:"surge_spread"`
	SurgeWeightBoost   float64       `yaml:"surge_weight_boost"`
	SurgeBoostDuration time.Duration `yaml:"surge_boost_duration"`
}

func DefaultConfig() Config {
	return Config{
		CheckInterval:       parameter.SkirmishCheckInterval,
		ChaosThreshold:      parameter.SkirmishChaosThreshold,
		RequiredPerFaction:  parameter.SkirmishRequired,
		CellSize:            parameter.SkirmishCellSize,
		Cooldown:            parameter.SkirmishCooldown,
		MaxActive:           parameter.SkirmishMaxActive,
		ResolveDelay:        parameter.SkirmishResolveDelay,
		CleanupDelay:        parameter.SkirmishCleanupDelay,
		WinProbability:      parameter.SkirmishWinProbability,
		BalanceNudge:        parameter.SkirmishBalanceNudge,
		WinnerBoost:         parameter.SkirmishWinnerBoost,
		WinnerBoostDuration: parameter.SkirmishWinnerBoostDuration,
		SurgeChance:         parameter.SurgeChance,
		SurgeKind:           core.KindGrunt,
		SurgeGroupSize:      parameter.SurgeGroupSize,
		SurgeSpread:         parameter.SurgeSpread,
		SurgeWeightBoost:    parameter.SurgeWeightBoost,
		SurgeBoostDuration:  parameter.SurgeBoostDuration,
	}
}

func (c Config) Validate() error {
	var errs []error
	if c.CheckInterval <= 0 {
		errs = append(errs, errors.New("check_interval must be positive"))
	}
	if c.RequiredPerFaction < 1 {
		errs = append(errs, fmt.Errorf("required_per_faction must be >= 1, got %d", c.RequiredPerFaction))
	}
	if c.MaxActive < 1 {
		errs = append(errs, errors.New("max_active must be >= 1"))
	}
	if c.WinProbability < 0 || c.WinProbability > 1 {
		errs = append(errs, fmt.Errorf("win_probability %v outside [0, 1]", c.WinProbability))
	}
	if c.SurgeChance < 0 || c.SurgeChance > 1 {
		errs = append(errs, fmt.Errorf("surge_chance %v outside [0, 1]", c.SurgeChance))
	}
	if !c.SurgeKind.IsEnemy() {
		errs = append(errs, fmt.Errorf("surge_kind %v is not an ordinary enemy kind", c.SurgeKind))
	}
	return errors.Join(errs...)
}
