package parameter

// Pool Sizing
const (
	PoolGrowthIncrement = 32

	EnemyPoolMax   = 512
	EnemyPoolWarm  = 64
	BulletPoolMax  = 256
	BulletPoolWarm = 32
)
