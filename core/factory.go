package core

import (
	"time"

	"github.com/lixenwraith/chaoswave/vmath"
)

// EntityView is a read-only copy of an entity's simulation-relevant fields
// Returned by enumeration; holding one does not extend the entity's lifetime
type EntityView struct {
	Entity      Entity
	Kind        Kind
	Faction     FactionID
	Position    vmath.Vec2
	HasPosition bool
	Health      float64
}

// EntityFactory is the spawn/kill boundary implemented by the embedding game
type EntityFactory interface {
	// Spawn returns false when the entity could not be created (pool exhausted)
	Spawn(kind Kind, pos vmath.Vec2, faction FactionID) (Entity, bool)

	// SpawnGroup spawns up to count entities scattered within spread of center
	// Returned slice holds only confirmed spawns
	SpawnGroup(kind Kind, center vmath.Vec2, count int, spread float64, faction FactionID) []Entity

	// ApplyFatalDamage kills the entity; stale handles are ignored
	ApplyFatalDamage(e Entity)

	// EnumerateActive lists live entities of the kind, KindAny for all
	EnumerateActive(kind Kind) []EntityView
}

// StatBooster is an optional EntityFactory capability for temporary per-entity buffs
type StatBooster interface {
	ApplyStatBoost(e Entity, multiplier float64, duration time.Duration)
}

// PlayerPositionProvider reports the player's world position
type PlayerPositionProvider interface {
	PlayerPosition() vmath.Vec2
}

// PlayerPositionFunc adapts a function to PlayerPositionProvider
type PlayerPositionFunc func() vmath.Vec2

func (f PlayerPositionFunc) PlayerPosition() vmath.Vec2 {
	return f()
}
