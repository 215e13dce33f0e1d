package pathfind

import (
	"math"

	"github.com/Garsondee/elevation-ruler/internal/geom"
	"gonum.org/v1/gonum/spatial/r3"
)

// maxSnapRadius is how many cells an endpoint may be moved off a padded cell.
const maxSnapRadius = 3

// Path is the result of one search: the goal cell linked back to the start,
// plus the exact requested endpoints. snapStart and snapGoal record endpoints
// whose own cell was blocked, so their search cell is kept as a waypoint.
type Path struct {
	end        *pathNode
	start, dst r3.Vec

	snapStart, snapGoal bool
}

// Pathfinder searches a prebuilt NavGrid. Building the grid is the expensive
// part, so one Pathfinder is kept per token and reused across drags.
type Pathfinder struct {
	grid  *NavGrid
	walls Walls
}

// New returns a pathfinder over grid. walls are used to straighten results.
func New(grid *NavGrid, walls Walls) *Pathfinder {
	return &Pathfinder{grid: grid, walls: walls}
}

// Grid exposes the underlying walkability grid.
func (pf *Pathfinder) Grid() *NavGrid { return pf.grid }

// RunPath searches from start to end. Returns nil if no path exists. An
// endpoint standing in a wall's padding searches from the nearest open cell it
// can reach in a straight line.
func (pf *Pathfinder) RunPath(start, end r3.Vec) *Path {
	scx, scy, snapStart, ok := pf.openCell(start)
	if !ok {
		return nil
	}
	gcx, gcy, snapGoal, ok := pf.openCell(end)
	if !ok {
		return nil
	}
	node := pf.grid.search(scx, scy, gcx, gcy)
	if node == nil {
		return nil
	}
	return &Path{end: node, start: start, dst: end, snapStart: snapStart, snapGoal: snapGoal}
}

// openCell returns the search cell for p and whether it had to be moved off
// p's own cell.
func (pf *Pathfinder) openCell(p r3.Vec) (cx, cy int, snapped, ok bool) {
	cx, cy = pf.grid.WorldToCell(p.X, p.Y)
	if !pf.grid.IsBlocked(cx, cy) {
		return cx, cy, false, true
	}
	for r := 1; r <= maxSnapRadius; r++ {
		best := math.Inf(1)
		bx, by := 0, 0
		for dy := -r; dy <= r; dy++ {
			for dx := -r; dx <= r; dx++ {
				if max(dx, -dx, dy, -dy) != r {
					continue // interior of the ring was searched already
				}
				nx, ny := cx+dx, cy+dy
				if pf.grid.IsBlocked(nx, ny) {
					continue
				}
				wx, wy := pf.grid.CellToWorld(nx, ny)
				c := r3.Vec{X: wx, Y: wy, Z: p.Z}
				if pf.walls.HasCollision(p, c) {
					continue
				}
				if d := r3.Norm2(r3.Sub(c, p)); d < best {
					best, bx, by = d, nx, ny
				}
			}
		}
		if !math.IsInf(best, 1) {
			return bx, by, true, true
		}
	}
	return 0, 0, false, false
}

// PathPoints flattens a path into canvas points. The first and last points are
// the exact requested endpoints; intermediate cell centres sit at the start
// height.
func (pf *Pathfinder) PathPoints(p *Path) []r3.Vec {
	if p == nil {
		return nil
	}
	var cells [][2]int
	for n := p.end; n != nil; n = n.parent {
		cells = append(cells, [2]int{n.cx, n.cy})
	}
	// Reverse
	for i, j := 0, len(cells)-1; i < j; i, j = i+1, j-1 {
		cells[i], cells[j] = cells[j], cells[i]
	}

	lo, hi := 1, len(cells)-1
	if p.snapStart {
		lo = 0
	}
	if p.snapGoal {
		hi = len(cells)
	}
	pts := make([]r3.Vec, 0, len(cells)+2)
	pts = append(pts, p.start)
	for i := lo; i < hi; i++ {
		wx, wy := pf.grid.CellToWorld(cells[i][0], cells[i][1])
		pts = append(pts, r3.Vec{X: wx, Y: wy, Z: p.start.Z})
	}
	if p.start == p.dst {
		return pts
	}
	return append(pts, p.dst)
}

// CleanPath drops duplicate and collinear points, then removes any point whose
// neighbours can see each other directly over ground no costlier than the
// route they replace.
func (pf *Pathfinder) CleanPath(points []r3.Vec) []r3.Vec {
	if len(points) < 2 {
		return points
	}

	dedup := []r3.Vec{points[0]}
	for _, p := range points[1:] {
		if geom.AlmostEqual(p, dedup[len(dedup)-1], 1e-6) {
			continue
		}
		dedup = append(dedup, p)
	}

	straight := []r3.Vec{dedup[0]}
	for i := 1; i < len(dedup)-1; i++ {
		a := geom.Planar(straight[len(straight)-1])
		b := geom.Planar(dedup[i])
		c := geom.Planar(dedup[i+1])
		if geom.Collinear(a, b, c, 1e-6) {
			continue
		}
		straight = append(straight, dedup[i])
	}
	if len(dedup) > 1 {
		straight = append(straight, dedup[len(dedup)-1])
	}

	// Greedy line-of-sight shortcutting from each anchor to the furthest
	// visible point.
	out := []r3.Vec{straight[0]}
	for i := 0; i < len(straight)-1; {
		next := i + 1
		for j := len(straight) - 1; j > i+1; j-- {
			if pf.walls.HasCollision(straight[i], straight[j]) {
				continue
			}
			if pf.lineCost(straight[i], straight[j]) <= pf.routeCost(straight[i:j+1])+1e-6 {
				next = j
				break
			}
		}
		out = append(out, straight[next])
		i = next
	}
	return out
}

// lineCost is the length of a→b weighted by the mean cost of the cells it
// crosses, sampled every half cell.
func (pf *Pathfinder) lineCost(a, b r3.Vec) float64 {
	d := math.Hypot(b.X-a.X, b.Y-a.Y)
	if d == 0 {
		return 0
	}
	n := max(1, int(math.Ceil(d/(pf.grid.cellSize/2))))
	sum := 0.0
	for k := 0; k < n; k++ {
		t := (float64(k) + 0.5) / float64(n)
		cx, cy := pf.grid.WorldToCell(a.X+(b.X-a.X)*t, a.Y+(b.Y-a.Y)*t)
		sum += pf.grid.CellCost(cx, cy)
	}
	return d * sum / float64(n)
}

func (pf *Pathfinder) routeCost(pts []r3.Vec) float64 {
	c := 0.0
	for i := 1; i < len(pts); i++ {
		c += pf.lineCost(pts[i-1], pts[i])
	}
	return c
}

// FindPath runs the search and returns raw, uncleaned points.
func (pf *Pathfinder) FindPath(start, end r3.Vec) []r3.Vec {
	return pf.PathPoints(pf.RunPath(start, end))
}
