package scene

import (
	"math"

	"github.com/Garsondee/elevation-ruler/internal/geom"
	"gonum.org/v1/gonum/spatial/r3"
)

// GridType selects how the canvas is divided.
type GridType int

const (
	Gridless GridType = iota
	Square
)

// String returns the grid type name.
func (t GridType) String() string {
	if t == Square {
		return "square"
	}
	return "gridless"
}

// DiagonalRule controls how diagonal steps are counted on a square grid.
type DiagonalRule int

const (
	DiagonalEquidistant DiagonalRule = iota // every diagonal step costs one cell
	DiagonalAlternating                     // 5/10/5: every second diagonal costs two
	DiagonalEuclidean                       // true length in cells
)

// Grid describes the canvas grid and its measurement units.
type Grid struct {
	Type      GridType
	Size      float64 // pixels per cell
	Distance  float64 // units per cell
	Units     string
	Diagonals DiagonalRule
}

// DefaultGrid is a 100px square grid at 5 ft per cell.
func DefaultGrid() Grid {
	return Grid{Type: Square, Size: 100, Distance: 5, Units: "ft"}
}

// IsGridless reports whether the canvas has no discrete cells.
func (g Grid) IsGridless() bool { return g.Type == Gridless }

// PixelsPerUnit converts one grid unit to pixels.
func (g Grid) PixelsPerUnit() float64 { return g.Size / g.Distance }

// ToPixels converts grid units to pixels.
func (g Grid) ToPixels(units float64) float64 { return units * g.PixelsPerUnit() }

// ToUnits converts pixels to grid units.
func (g Grid) ToUnits(px float64) float64 { return px / g.PixelsPerUnit() }

// CellAt returns the cell containing p.
func (g Grid) CellAt(p geom.Point) (col, row int) {
	return int(math.Floor(p.X / g.Size)), int(math.Floor(p.Y / g.Size))
}

// SnapHalf rounds v to the nearest half cell.
func (g Grid) SnapHalf(v float64) float64 {
	half := g.Size / 2
	return math.Round(v/half) * half
}

// MeasureDistance returns the distance a→b in grid units. Square grids count
// whole cells per axis and fold elevation in as a third axis using the same
// diagonal rule; gridless canvases use the straight 3D length.
func (g Grid) MeasureDistance(a, b r3.Vec) float64 {
	if g.IsGridless() {
		return g.ToUnits(r3.Norm(r3.Sub(b, a)))
	}
	nx := math.Round(math.Abs(b.X-a.X) / g.Size)
	ny := math.Round(math.Abs(b.Y-a.Y) / g.Size)
	nz := math.Round(math.Abs(b.Z-a.Z) / g.Size)
	return g.combine(g.combine(nx, ny), nz) * g.Distance
}

func (g Grid) combine(n1, n2 float64) float64 {
	switch g.Diagonals {
	case DiagonalAlternating:
		nd := math.Min(n1, n2)
		ns := math.Max(n1, n2) - nd
		return ns + nd + math.Floor(nd/2)
	case DiagonalEuclidean:
		return math.Hypot(n1, n2)
	default:
		return math.Max(n1, n2)
	}
}
