package wave

import (
	"math"
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/lixenwraith/chaoswave/core"
	"github.com/lixenwraith/chaoswave/vmath"
)

// pickKind draws an archetype from the band's weights
func pickKind(band ArchetypeBand, rng *rand.Rand) core.Kind {
	total := 0.0
	for _, kw := range band.Kinds {
		total += kw.Weight
	}
	if total <= 0 {
		return core.KindGrunt
	}
	r := rng.Float64() * total
	for _, kw := range band.Kinds {
		if r < kw.Weight {
			return kw.Kind
		}
		r -= kw.Weight
	}
	return band.Kinds[len(band.Kinds)-1].Kind
}

// Edges of the view rectangle, clockwise from top
const (
	edgeTop = iota
	edgeRight
	edgeBottom
	edgeLeft
)

// placer picks off-screen spawn points around the player
// Offsets along an edge follow coherent noise so consecutive spawns cluster
type placer struct {
	player       core.PlayerPositionProvider
	rng          *rand.Rand
	noise        opensimplex.Noise
	halfW, halfH float64
	corner       float64
	scale        float64
	step         int
}

func newPlacer(cfg Config, player core.PlayerPositionProvider, rng *rand.Rand) *placer {
	return &placer{
		player: player,
		rng:    rng,
		noise:  opensimplex.NewNormalized(rng.Int63()),
		halfW:  cfg.ViewWidth/2 + cfg.SpawnMargin,
		halfH:  cfg.ViewHeight/2 + cfg.SpawnMargin,
		corner: cfg.CornerChance,
		scale:  cfg.NoiseScale,
	}
}

func (p *placer) reset() {
	p.step = 0
}

func (p *placer) next() vmath.Vec2 {
	center := vmath.Vec2{}
	if p.player != nil {
		center = p.player.PlayerPosition()
	}
	p.step++

	if p.rng.Float64() < p.corner {
		sx, sy := 1.0, 1.0
		if p.rng.Intn(2) == 0 {
			sx = -1
		}
		if p.rng.Intn(2) == 0 {
			sy = -1
		}
		return vmath.V2(center.X+sx*p.halfW, center.Y+sy*p.halfH)
	}

	edge := p.rng.Intn(4)
	// Normalized noise in [0,1] mapped to [-1,1] along the edge
	t := p.noise.Eval2(float64(p.step)*p.scale, float64(edge)*7.3)*2 - 1
	t = math.Max(-1, math.Min(1, t))
	switch edge {
	case edgeTop:
		return vmath.V2(center.X+t*p.halfW, center.Y-p.halfH)
	case edgeRight:
		return vmath.V2(center.X+p.halfW, center.Y+t*p.halfH)
	case edgeBottom:
		return vmath.V2(center.X+t*p.halfW, center.Y+p.halfH)
	default:
		return vmath.V2(center.X-p.halfW, center.Y+t*p.halfH)
	}
}
