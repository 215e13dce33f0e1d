package terrain

// Cell is a tile coordinate.
type Cell struct {
	Col, Row int
}

// LineCells returns every tile crossed by the straight line between two cells,
// endpoints included, using Bresenham stepping.
func LineCells(c0, c1 Cell) []Cell {
	dx := abs(c1.Col - c0.Col)
	dy := -abs(c1.Row - c0.Row)
	sx, sy := 1, 1
	if c0.Col > c1.Col {
		sx = -1
	}
	if c0.Row > c1.Row {
		sy = -1
	}
	err := dx + dy

	cells := make([]Cell, 0, max(dx, -dy)+1)
	cur := c0
	for {
		cells = append(cells, cur)
		if cur == c1 {
			return cells
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			cur.Col += sx
		}
		if e2 <= dx {
			err += dx
			cur.Row += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
