package skirmish

import (
	"github.com/lixenwraith/chaoswave/core"
	"github.com/lixenwraith/chaoswave/spatial"
	"github.com/lixenwraith/chaoswave/vmath"
)

// Cluster is a cell holding enough members of both factions to fight
type Cluster struct {
	Cell     spatial.CellKey
	Centroid vmath.Vec2 // Mean of the first required members per side, in cell order
	MembersA []core.EntityView
	MembersB []core.EntityView
}

// FindClusters scans cells in row-major order for candidate battles
// Only non-boss A/B members count; skip may exclude already engaged entities
func FindClusters(idx *spatial.Index, required int, skip func(core.Entity) bool) []Cluster {
	if required < 1 {
		required = 1
	}
	var out []Cluster
	for _, key := range idx.Cells() {
		var a, b []core.EntityView
		for _, v := range idx.QueryCell(key.X, key.Y) {
			if !v.Kind.IsEnemy() || (skip != nil && skip(v.Entity)) {
				continue
			}
			switch v.Faction {
			case core.FactionA:
				a = append(a, v)
			case core.FactionB:
				b = append(b, v)
			}
		}
		if len(a) < required || len(b) < required {
			continue
		}

		var mean vmath.MeanAccumulator
		for i := 0; i < required; i++ {
			mean.Add(a[i].Position)
			mean.Add(b[i].Position)
		}
		out = append(out, Cluster{Cell: key, Centroid: mean.Mean(), MembersA: a, MembersB: b})
	}
	return out
}
