// Package terrain models ground surfaces and heights under the canvas.
package terrain

// GroundType identifies the base surface of a tile.
type GroundType uint8

const (
	GroundOpen     GroundType = iota // Default open ground
	GroundRough                      // Scrub / long grass
	GroundMud                        // Wet / churned ground
	GroundSand                       // Sandy patches
	GroundRubble                     // Dense rubble field
	GroundWater                      // Shallow water
	GroundRoad                       // Paved surface
	groundTypeCount                  // sentinel
)

// String returns the ground name.
func (g GroundType) String() string {
	switch g {
	case GroundOpen:
		return "open"
	case GroundRough:
		return "rough"
	case GroundMud:
		return "mud"
	case GroundSand:
		return "sand"
	case GroundRubble:
		return "rubble"
	case GroundWater:
		return "water"
	case GroundRoad:
		return "road"
	default:
		return "unknown"
	}
}

// ParseGround maps a ground name back to its type.
func ParseGround(s string) (GroundType, bool) {
	for g := GroundType(0); g < groundTypeCount; g++ {
		if g.String() == s {
			return g, true
		}
	}
	return GroundOpen, false
}

// movementMul returns the speed multiplier for a ground type. 1 is unimpeded.
func movementMul(g GroundType) float64 {
	switch g {
	case GroundRough:
		return 0.8
	case GroundMud:
		return 0.5
	case GroundSand:
		return 0.75
	case GroundRubble:
		return 0.5
	case GroundWater:
		return 0.5
	default:
		return 1.0
	}
}

// Tile is one grid cell of terrain.
type Tile struct {
	Ground    GroundType
	Elevation float64 // grid units above ground level
}

// TileMap is the per-cell terrain representation, aligned to the scene grid.
type TileMap struct {
	Cols     int
	Rows     int
	CellSize float64 // pixels per tile
	Tiles    []Tile  // row-major: index = row*Cols + col
}

// NewTileMap creates a tile map of open ground at elevation 0.
func NewTileMap(cols, rows int, cellSize float64) *TileMap {
	return &TileMap{
		Cols:     cols,
		Rows:     rows,
		CellSize: cellSize,
		Tiles:    make([]Tile, cols*rows),
	}
}

func (tm *TileMap) inBounds(col, row int) bool {
	return tm != nil && col >= 0 && col < tm.Cols && row >= 0 && row < tm.Rows
}

// At returns a pointer to the tile at (col, row), or nil if out of bounds.
func (tm *TileMap) At(col, row int) *Tile {
	if !tm.inBounds(col, row) {
		return nil
	}
	return &tm.Tiles[row*tm.Cols+col]
}

// CellAt converts a pixel position to tile coordinates.
func (tm *TileMap) CellAt(x, y float64) (col, row int) {
	if tm == nil || tm.CellSize <= 0 {
		return -1, -1
	}
	return floorDiv(x, tm.CellSize), floorDiv(y, tm.CellSize)
}

// Ground returns the ground type at (col, row). Out of bounds is open ground.
func (tm *TileMap) Ground(col, row int) GroundType {
	if t := tm.At(col, row); t != nil {
		return t.Ground
	}
	return GroundOpen
}

// Elevation returns the tile elevation at (col, row). Out of bounds is 0.
func (tm *TileMap) Elevation(col, row int) float64 {
	if t := tm.At(col, row); t != nil {
		return t.Elevation
	}
	return 0
}

// MovementMul returns the speed multiplier at (col, row).
func (tm *TileMap) MovementMul(col, row int) float64 {
	return movementMul(tm.Ground(col, row))
}

// SetGround sets the ground type at (col, row).
func (tm *TileMap) SetGround(col, row int, g GroundType) {
	if t := tm.At(col, row); t != nil {
		t.Ground = g
	}
}

// SetElevation sets the tile elevation at (col, row).
func (tm *TileMap) SetElevation(col, row int, e float64) {
	if t := tm.At(col, row); t != nil {
		t.Elevation = e
	}
}

// FillRect applies fn to every in-bounds tile of the col/row rectangle.
func (tm *TileMap) FillRect(col, row, w, h int, fn func(*Tile)) {
	for r := row; r < row+h; r++ {
		for c := col; c < col+w; c++ {
			if t := tm.At(c, r); t != nil {
				fn(t)
			}
		}
	}
}

func floorDiv(v, size float64) int {
	q := int(v / size)
	if v < 0 && float64(q)*size != v {
		q--
	}
	return q
}
