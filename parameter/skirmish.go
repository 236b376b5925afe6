package parameter

import "time"

// Detection
const (
	SkirmishCheckInterval  = 1 * time.Second
	SkirmishChaosThreshold = 30.0
	SkirmishRequired       = 4
	SkirmishCellSize       = 96.0
)

// Limits & Timing
const (
	SkirmishCooldown     = 6 * time.Second
	SkirmishMaxActive    = 2
	SkirmishResolveDelay = 3 * time.Second
	SkirmishCleanupDelay = 5 * time.Second
)

// Resolution
const (
	SkirmishWinProbability = 0.5
	SkirmishBalanceNudge   = 5.0

	// SkirmishWinnerBoost and SkirmishWinnerBoostDuration apply to surviving winners
	SkirmishWinnerBoost         = 1.25
	SkirmishWinnerBoostDuration = 8 * time.Second
)

// Surge
const (
	SurgeChance        = 0.35
	SurgeGroupSize     = 6
	SurgeSpread        = 48.0
	SurgeWeightBoost   = 1.5
	SurgeBoostDuration = 10 * time.Second
)
