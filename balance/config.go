package balance

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/lixenwraith/chaoswave/parameter"
)

// Curve maps normalized chaos magnitude f in [0,1] to 1 + f^Exp * Scale
type Curve struct {
	Exp   float64 `yaml:"exp"`
	Scale float64 `yaml:"scale"`
}

func (c Curve) Apply(f float64) float64 {
	if f <= 0 {
		return 1
	}
	return 1 + math.Pow(f, c.Exp)*c.Scale
}

type Config struct {
	BaseWeight        float64       `yaml:"base_weight"`
	MomentumIncrement float64       `yaml:"momentum_increment"`
	MomentumCap       float64       `yaml:"momentum_cap"`
	MomentumWindow    time.Duration `yaml:"momentum_window"` // 0 keeps chains alive indefinitely

	Thresholds           []float64     `yaml:"thresholds"` // Magnitudes, applied to both polarities
	Hysteresis           float64       `yaml:"hysteresis"`
	LockoutDuration      time.Duration `yaml:"lockout_duration"`
	GraceFraction        float64       `yaml:"grace_fraction"`
	WeightRecomputeDelta float64       `yaml:"weight_recompute_delta"`

	HP       Curve `yaml:"hp"`
	Damage   Curve `yaml:"damage"`
	FireRate Curve `yaml:"fire_rate"`
	Dodge    Curve `yaml:"dodge"`
}

func DefaultConfig() Config {
	return Config{
		BaseWeight:           parameter.ChaosBaseWeight,
		MomentumIncrement:    parameter.MomentumIncrement,
		MomentumCap:          parameter.MomentumCap,
		MomentumWindow:       parameter.MomentumWindow,
		Thresholds:           []float64{parameter.ChaosThresholdMinor, parameter.ChaosThresholdMajor},
		Hysteresis:           parameter.ChaosHysteresis,
		LockoutDuration:      parameter.ChaosLockoutDuration,
		GraceFraction:        parameter.ChaosGraceFraction,
		WeightRecomputeDelta: parameter.WeightRecomputeDelta,
		HP:                   Curve{Exp: parameter.HPMultiplierExp, Scale: parameter.HPMultiplierScale},
		Damage:               Curve{Exp: parameter.DamageMultiplierExp, Scale: parameter.DamageMultiplierScale},
		FireRate:             Curve{Exp: parameter.FireRateMultiplierExp, Scale: parameter.FireRateMultiplierScale},
		Dodge:                Curve{Exp: parameter.DodgeMultiplierExp, Scale: parameter.DodgeMultiplierScale},
	}
}

// Validate reports every invalid field
func (c Config) Validate() error {
	var errs []error
	if c.BaseWeight <= 0 {
		errs = append(errs, fmt.Errorf("base_weight must be positive, got %v", c.BaseWeight))
	}
	if c.MomentumIncrement < 0 || c.MomentumCap < c.MomentumIncrement {
		errs = append(errs, fmt.Errorf("momentum_cap %v must be >= momentum_increment %v >= 0", c.MomentumCap, c.MomentumIncrement))
	}
	for _, th := range c.Thresholds {
		if th <= 0 || th >= parameter.ChaosMax {
			errs = append(errs, fmt.Errorf("threshold %v outside (0, %v)", th, parameter.ChaosMax))
		}
	}
	if c.Hysteresis < 0 {
		errs = append(errs, errors.New("hysteresis must not be negative"))
	}
	if c.LockoutDuration <= 0 {
		errs = append(errs, errors.New("lockout_duration must be positive"))
	}
	if c.GraceFraction < 0 || c.GraceFraction >= 1 {
		errs = append(errs, fmt.Errorf("grace_fraction %v outside [0, 1)", c.GraceFraction))
	}
	if c.WeightRecomputeDelta < 0 {
		errs = append(errs, errors.New("weight_recompute_delta must not be negative"))
	}
	return errors.Join(errs...)
}
