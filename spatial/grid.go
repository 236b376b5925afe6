// Package spatial buckets entity snapshots into a uniform grid for neighbourhood queries
package spatial

import (
	"math"
	"slices"
	"time"

	"github.com/lixenwraith/chaoswave/core"
	"github.com/lixenwraith/chaoswave/parameter"
)

// CellKey identifies one grid cell by floored cell coordinates
type CellKey struct {
	X int
	Y int
}

type Config struct {
	CellSize        float64       `yaml:"cell_size"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
}

func DefaultConfig() Config {
	return Config{
		CellSize:        parameter.SpatialCellSize,
		RefreshInterval: parameter.SpatialRefreshInterval,
	}
}

type Stats struct {
	Rebuilds uint64
	Skipped  uint64
	Entities int
	Cells    int
}

// Index is rebuilt from scratch each refresh, there is no incremental update
// Queries between rebuilds read the last snapshot: positions may be one interval old
// and entities spawned since the last rebuild are invisible
type Index struct {
	cellSize    float64
	invCellSize float64
	interval    time.Duration

	cells   map[CellKey][]core.EntityView
	keys    []CellKey // Sorted Y then X
	count   int
	builtAt time.Time
	built   bool
	stats   Stats
}

func New(cfg Config) *Index {
	if cfg.CellSize <= 0 {
		cfg.CellSize = parameter.SpatialCellSize
	}
	return &Index{
		cellSize:    cfg.CellSize,
		invCellSize: 1.0 / cfg.CellSize,
		interval:    cfg.RefreshInterval,
		cells:       make(map[CellKey][]core.EntityView),
	}
}

// Rebuild replaces the snapshot; cellSize <= 0 keeps the current size
// Entities without a position are excluded; cell members keep input order
func (idx *Index) Rebuild(entities []core.EntityView, cellSize float64) {
	if cellSize > 0 && cellSize != idx.cellSize {
		idx.cellSize = cellSize
		idx.invCellSize = 1.0 / cellSize
	}

	clear(idx.cells)
	idx.keys = idx.keys[:0]
	idx.count = 0
	for _, e := range entities {
		if !e.HasPosition {
			continue
		}
		key := idx.CellOf(e.Position.X, e.Position.Y)
		bucket, ok := idx.cells[key]
		if !ok {
			idx.keys = append(idx.keys, key)
		}
		idx.cells[key] = append(bucket, e)
		idx.count++
	}
	slices.SortFunc(idx.keys, func(a, b CellKey) int {
		if a.Y != b.Y {
			return a.Y - b.Y
		}
		return a.X - b.X
	})

	idx.stats.Rebuilds++
	idx.built = true
}

// Refresh rebuilds at most once per interval; source is only called when a rebuild happens
// Returns true when the snapshot was rebuilt
func (idx *Index) Refresh(now time.Time, source func() []core.EntityView) bool {
	if idx.built && now.Sub(idx.builtAt) < idx.interval {
		idx.stats.Skipped++
		return false
	}
	idx.Rebuild(source(), 0)
	idx.builtAt = now
	return true
}

// Invalidate forces the next Refresh to rebuild
func (idx *Index) Invalidate() {
	idx.built = false
}

func (idx *Index) CellOf(x, y float64) CellKey {
	return CellKey{
		X: int(math.Floor(x * idx.invCellSize)),
		Y: int(math.Floor(y * idx.invCellSize)),
	}
}

// QueryCell returns members of one cell; the slice is owned by the index until the next rebuild
func (idx *Index) QueryCell(cx, cy int) []core.EntityView {
	return idx.cells[CellKey{X: cx, Y: cy}]
}

// QueryNeighborhood returns members of every cell within radiusInCells of the cell holding (x, y)
func (idx *Index) QueryNeighborhood(x, y float64, radiusInCells int) []core.EntityView {
	if radiusInCells < 0 {
		radiusInCells = 0
	}
	center := idx.CellOf(x, y)
	var out []core.EntityView
	for cy := center.Y - radiusInCells; cy <= center.Y+radiusInCells; cy++ {
		for cx := center.X - radiusInCells; cx <= center.X+radiusInCells; cx++ {
			out = append(out, idx.cells[CellKey{X: cx, Y: cy}]...)
		}
	}
	return out
}

// Cells returns occupied cell keys in row-major order
func (idx *Index) Cells() []CellKey {
	return slices.Clone(idx.keys)
}

func (idx *Index) CellSize() float64 {
	return idx.cellSize
}

// Len returns the number of indexed entities
func (idx *Index) Len() int {
	return idx.count
}

func (idx *Index) BuiltAt() time.Time {
	return idx.builtAt
}

func (idx *Index) Stats() Stats {
	st := idx.stats
	st.Entities = idx.count
	st.Cells = len(idx.keys)
	return st
}
