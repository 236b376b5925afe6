package session

import (
	"github.com/lixenwraith/chaoswave/arena"
	"github.com/lixenwraith/chaoswave/core"
	"github.com/lixenwraith/chaoswave/faction"
	"github.com/lixenwraith/chaoswave/vmath"
)

// trackedFactory records faction membership for every confirmed spawn
// The embedded arena supplies the remaining factory, booster and player capabilities
type trackedFactory struct {
	*arena.Arena
	factions *faction.Registry
}

func (t trackedFactory) Spawn(kind core.Kind, pos vmath.Vec2, f core.FactionID) (core.Entity, bool) {
	e, ok := t.Arena.Spawn(kind, pos, f)
	if ok {
		t.factions.Assign(e, f)
	}
	return e, ok
}

func (t trackedFactory) SpawnGroup(kind core.Kind, center vmath.Vec2, count int, spread float64, f core.FactionID) []core.Entity {
	spawned := t.Arena.SpawnGroup(kind, center, count, spread, f)
	for _, e := range spawned {
		t.factions.Assign(e, f)
	}
	return spawned
}

var (
	_ core.EntityFactory          = trackedFactory{}
	_ core.StatBooster            = trackedFactory{}
	_ core.PlayerPositionProvider = trackedFactory{}
)
