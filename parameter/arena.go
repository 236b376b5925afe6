package parameter

import "time"

// Arena Geometry, the visible region centred on the player
const (
	ArenaViewWidth  = 1280.0
	ArenaViewHeight = 720.0

	// ArenaBounds is the half-extent enemies are culled beyond, measured from the player
	ArenaBounds = 1400.0
)

// Player
const (
	PlayerFireInterval = 250 * time.Millisecond
	PlayerFireRange    = 520.0
	PlayerDamage       = 10.0
	PlayerOrbitRadius  = 120.0
	PlayerOrbitSpeed   = 0.4 // Radians per second
)

// Bullets
const (
	BulletSpeed    = 900.0
	BulletRadius   = 6.0
	BulletLifetime = 1200 * time.Millisecond
	BulletTrailLen = 6
)

// Enemy Archetypes
const (
	GruntHealth  = 20.0
	GruntSpeed   = 60.0
	RunnerHealth = 12.0
	RunnerSpeed  = 120.0
	TankHealth   = 80.0
	TankSpeed    = 35.0
	EliteHealth  = 50.0
	EliteSpeed   = 80.0
	BossHealth   = 600.0
	BossSpeed    = 30.0

	EnemyRadius     = 14.0
	EnemyEngageDist = 28.0 // Enemies stop advancing at this distance from the player
	EnemyContactDPS = 4.0  // Damage per second an engaged enemy deals to the player

	// EnragedSpeedFactor and PanicSpeedFactor scale movement by mood
	EnragedSpeedFactor = 1.4
	PanicSpeedFactor   = 1.2
	EnrageDuration     = 6 * time.Second
)
