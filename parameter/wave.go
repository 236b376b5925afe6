package parameter

import "time"

// Wave Sizing
const (
	WaveBaseEnemyCount  = 20
	WaveGrowthRate      = 1.2
	WaveMaxEnemies      = 300
	WaveMaxWaves        = 30
	WaveBossInterval    = 10
	WaveBossCountFactor = 0.7
)

// Wave Timing
const (
	// WaveSpawnInterval is the spawn tick interval on wave 1
	WaveSpawnInterval = 800 * time.Millisecond

	// WaveSpawnIntervalStep is subtracted per wave number down to the floor
	WaveSpawnIntervalStep = 25 * time.Millisecond
	WaveSpawnIntervalMin  = 200 * time.Millisecond

	// WaveSpawnBatch is the number of ordinary spawns attempted per tick
	WaveSpawnBatch = 2

	// WaveReconcileInterval is the counter reconciliation period while a wave is active
	WaveReconcileInterval = 2 * time.Second

	// WaveAutoAdvanceDelay starts the next wave automatically after a completion
	// Zero keeps PauseBetweenWaves until an explicit start-next-wave command
	WaveAutoAdvanceDelay = 0
)

// Spawn Placement
const (
	// SpawnMargin is the distance outside the view edge where spawns are placed
	SpawnMargin = 40.0

	// SpawnCornerChance is the probability a spawn uses a corner instead of an edge
	SpawnCornerChance = 0.15

	// SpawnNoiseScale converts tick count to noise-space step for edge offset
	SpawnNoiseScale = 0.35
)
