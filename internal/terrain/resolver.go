package terrain

import (
	"sort"

	"github.com/Garsondee/elevation-ruler/internal/geom"
)

// Level is a named vertical band, e.g. one floor of a building.
type Level struct {
	Name   string
	Bottom float64 // grid units, inclusive
	Top    float64 // grid units, exclusive
}

// Contains reports whether elevation e falls inside the level.
func (l Level) Contains(e float64) bool { return e >= l.Bottom && e < l.Top }

// Resolver answers terrain questions at canvas points. Both fields are optional:
// a Resolver with no tiles reports ground elevation and no movement penalty.
type Resolver struct {
	Tiles  *TileMap
	Levels []Level
}

// NewResolver returns a resolver over tiles with levels sorted by bottom.
func NewResolver(tiles *TileMap, levels ...Level) *Resolver {
	sorted := append([]Level(nil), levels...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Bottom < sorted[j].Bottom })
	return &Resolver{Tiles: tiles, Levels: sorted}
}

// ElevationAt returns the terrain elevation in grid units under p.
// Points outside the tile map sit at ground level.
func (r *Resolver) ElevationAt(p geom.Point) float64 {
	if r == nil || r.Tiles == nil {
		return 0
	}
	col, row := r.Tiles.CellAt(p.X, p.Y)
	return r.Tiles.Elevation(col, row)
}

// LevelAt returns the level covering elevation e, if any.
func (r *Resolver) LevelAt(e float64) (Level, bool) {
	if r == nil {
		return Level{}, false
	}
	for _, l := range r.Levels {
		if l.Contains(e) {
			return l, true
		}
	}
	return Level{}, false
}

// cellsBetween returns the tiles crossed by the planar line a→b.
func (r *Resolver) cellsBetween(a, b geom.Point) []Cell {
	c0, r0 := r.Tiles.CellAt(a.X, a.Y)
	c1, r1 := r.Tiles.CellAt(b.X, b.Y)
	return LineCells(Cell{c0, r0}, Cell{c1, r1})
}

// MoveCostFactor is the mean movement cost multiplier (≥1) over the tiles
// crossed by a→b. Open ground costs 1; mud at half speed costs 2.
func (r *Resolver) MoveCostFactor(a, b geom.Point) float64 {
	if r == nil || r.Tiles == nil {
		return 1
	}
	cells := r.cellsBetween(a, b)
	total := 0.0
	for _, c := range cells {
		total += 1 / r.Tiles.MovementMul(c.Col, c.Row)
	}
	return total / float64(len(cells))
}

// HasPenalty reports whether any tile crossed by a→b slows movement.
func (r *Resolver) HasPenalty(a, b geom.Point) bool {
	if r == nil || r.Tiles == nil {
		return false
	}
	for _, c := range r.cellsBetween(a, b) {
		if r.Tiles.MovementMul(c.Col, c.Row) < 1 {
			return true
		}
	}
	return false
}
