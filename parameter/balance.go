package parameter

import "time"

// Chaos Bounds
const (
	ChaosMin = -100.0
	ChaosMax = 100.0
)

// Kill Weighting
const (
	// ChaosBaseWeight is the chaos step of a single kill at zero momentum
	ChaosBaseWeight = 2.0

	// MomentumIncrement is added per consecutive same-faction kill, and is the starting momentum of a new chain
	MomentumIncrement = 0.1

	// MomentumCap bounds accumulated momentum
	MomentumCap = 1.5

	// MomentumWindow breaks a kill chain when consecutive kills are further apart
	MomentumWindow = 8 * time.Second
)

// Thresholds & Lockout
const (
	ChaosThresholdMinor = 40.0
	ChaosThresholdMajor = 70.0

	// ChaosHysteresis is how far value must retreat below a threshold before it re-arms
	ChaosHysteresis = 10.0

	// ChaosLockoutDuration is how long kills are ignored after reaching an extreme
	ChaosLockoutDuration = 10 * time.Second

	// ChaosGraceFraction is the fraction of the extreme value restored when lockout ends
	ChaosGraceFraction = 0.25

	// WeightRecomputeDelta is the minimum value movement before faction weights are recomputed
	WeightRecomputeDelta = 5.0
)

// Stat Multipliers, 1 + f^Exp * Scale with f = |value|/100
const (
	HPMultiplierExp         = 1.5
	HPMultiplierScale       = 0.8
	DamageMultiplierExp     = 1.3
	DamageMultiplierScale   = 0.6
	FireRateMultiplierExp   = 1.8
	FireRateMultiplierScale = 0.5
	DodgeMultiplierExp      = 2.0
	DodgeMultiplierScale    = 0.4
)
