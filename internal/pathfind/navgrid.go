package pathfind

import (
	"container/heap"
	"math"
)

// CostFunc returns the movement cost multiplier (≥1) at a canvas point.
type CostFunc func(x, y float64) float64

// NavGrid is a 2D walkability grid over the canvas where true = blocked.
type NavGrid struct {
	cols     int
	rows     int
	cellSize float64
	blocked  []bool
	cost     []float64
}

// NewNavGrid builds a walkability grid for a width×height canvas. Walls that
// span height z block every cell they overlap after padding by pad pixels.
// cost may be nil for uniform cost.
func NewNavGrid(width, height, cellSize float64, walls Walls, pad, z float64, cost CostFunc) *NavGrid {
	cols := int(math.Ceil(width / cellSize))
	rows := int(math.Ceil(height / cellSize))
	ng := &NavGrid{
		cols:     cols,
		rows:     rows,
		cellSize: cellSize,
		blocked:  make([]bool, cols*rows),
		cost:     make([]float64, cols*rows),
	}

	for _, w := range walls {
		if !w.BlocksAt(z) {
			continue
		}
		// Expand wall bounds by pad so paths keep clearance.
		bx0 := w.X - pad
		by0 := w.Y - pad
		bx1 := w.X + w.W + pad
		by1 := w.Y + w.H + pad

		cMinX := max(0, int(math.Floor(bx0/cellSize)))
		cMinY := max(0, int(math.Floor(by0/cellSize)))
		cMaxX := min(cols-1, int(math.Ceil(bx1/cellSize))-1)
		cMaxY := min(rows-1, int(math.Ceil(by1/cellSize))-1)

		for cy := cMinY; cy <= cMaxY; cy++ {
			for cx := cMinX; cx <= cMaxX; cx++ {
				ng.blocked[cy*cols+cx] = true
			}
		}
	}

	for cy := 0; cy < rows; cy++ {
		for cx := 0; cx < cols; cx++ {
			c := 1.0
			if cost != nil {
				wx, wy := ng.CellToWorld(cx, cy)
				c = math.Max(1, cost(wx, wy))
			}
			ng.cost[cy*cols+cx] = c
		}
	}
	return ng
}

// IsBlocked returns true if the cell at (cx, cy) is not walkable.
func (ng *NavGrid) IsBlocked(cx, cy int) bool {
	if cx < 0 || cy < 0 || cx >= ng.cols || cy >= ng.rows {
		return true
	}
	return ng.blocked[cy*ng.cols+cx]
}

// CellCost returns the movement cost of a cell. Cells off the grid cost 1.
func (ng *NavGrid) CellCost(cx, cy int) float64 {
	if cx < 0 || cy < 0 || cx >= ng.cols || cy >= ng.rows {
		return 1
	}
	return ng.cost[cy*ng.cols+cx]
}

// WorldToCell converts canvas pixel coordinates to grid cell coordinates.
func (ng *NavGrid) WorldToCell(wx, wy float64) (int, int) {
	return int(math.Floor(wx / ng.cellSize)), int(math.Floor(wy / ng.cellSize))
}

// CellToWorld converts grid cell coordinates to the canvas pixel center.
func (ng *NavGrid) CellToWorld(cx, cy int) (float64, float64) {
	return (float64(cx) + 0.5) * ng.cellSize, (float64(cy) + 0.5) * ng.cellSize
}

// --- A* pathfinding ---

type pathNode struct {
	cx, cy int
	g, h   float64
	parent *pathNode
	index  int // heap index
}

type openList []*pathNode

func (ol openList) Len() int           { return len(ol) }
func (ol openList) Less(i, j int) bool { return (ol[i].g + ol[i].h) < (ol[j].g + ol[j].h) }
func (ol openList) Swap(i, j int) {
	ol[i], ol[j] = ol[j], ol[i]
	ol[i].index = i
	ol[j].index = j
}
func (ol *openList) Push(x any) {
	n := x.(*pathNode)
	n.index = len(*ol)
	*ol = append(*ol, n)
}
func (ol *openList) Pop() any {
	old := *ol
	n := old[len(old)-1]
	old[len(old)-1] = nil
	*ol = old[:len(old)-1]
	return n
}

var dirs = [8][2]int{
	{1, 0}, {-1, 0}, {0, 1}, {0, -1},
	{1, 1}, {1, -1}, {-1, 1}, {-1, -1},
}

// search runs A* between two cells and returns the goal node, or nil.
func (ng *NavGrid) search(scx, scy, gcx, gcy int) *pathNode {
	if ng.IsBlocked(scx, scy) || ng.IsBlocked(gcx, gcy) {
		return nil
	}

	key := func(cx, cy int) int { return cy*ng.cols + cx }
	heuristic := func(ax, ay, bx, by int) float64 {
		dx := math.Abs(float64(ax - bx))
		dy := math.Abs(float64(ay - by))
		return dx + dy + (math.Sqrt2-2)*math.Min(dx, dy)
	}

	start := &pathNode{cx: scx, cy: scy, g: 0, h: heuristic(scx, scy, gcx, gcy)}
	ol := &openList{start}
	heap.Init(ol)

	closed := make(map[int]bool)
	best := make(map[int]*pathNode)
	best[key(scx, scy)] = start

	for ol.Len() > 0 {
		cur := heap.Pop(ol).(*pathNode)
		if cur.cx == gcx && cur.cy == gcy {
			return cur
		}
		k := key(cur.cx, cur.cy)
		if closed[k] {
			continue
		}
		closed[k] = true

		for _, d := range dirs {
			nx, ny := cur.cx+d[0], cur.cy+d[1]
			if ng.IsBlocked(nx, ny) {
				continue
			}
			// Prevent diagonal corner-cutting through blocked cells.
			if d[0] != 0 && d[1] != 0 {
				if ng.IsBlocked(cur.cx+d[0], cur.cy) || ng.IsBlocked(cur.cx, cur.cy+d[1]) {
					continue
				}
			}
			nk := key(nx, ny)
			if closed[nk] {
				continue
			}
			step := 1.0
			if d[0] != 0 && d[1] != 0 {
				step = math.Sqrt2
			}
			g := cur.g + step*ng.cost[nk]
			if prev, ok := best[nk]; ok && g >= prev.g {
				continue
			}
			node := &pathNode{cx: nx, cy: ny, g: g, h: heuristic(nx, ny, gcx, gcy), parent: cur}
			best[nk] = node
			heap.Push(ol, node)
		}
	}
	return nil
}
