package render

import (
	"fmt"
	"image/color"
	"math"

	"github.com/Garsondee/elevation-ruler/internal/scene"
	"github.com/Garsondee/elevation-ruler/internal/terrain"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// groundColors is the base fill per ground type.
var groundColors = map[terrain.GroundType]color.RGBA{
	terrain.GroundOpen:  {R: 28, G: 42, B: 28, A: 255},
	terrain.GroundMud:   {R: 74, G: 56, B: 34, A: 255},
	terrain.GroundWater: {R: 30, G: 52, B: 90, A: 255},
}

// elevationShade lightens a tile by its height so raised ground reads at a
// glance. Capped so tall stacks stay legible.
func elevationShade(c color.RGBA, e float64) color.RGBA {
	lift := math.Min(e*3, 90)
	if lift <= 0 {
		return c
	}
	add := func(v uint8) uint8 { return uint8(math.Min(float64(v)+lift, 255)) }
	return color.RGBA{R: add(c.R), G: add(c.G), B: add(c.B), A: c.A}
}

// DrawScene paints terrain, grid lines, walls and tokens in canvas pixels.
func DrawScene(dst *ebiten.Image, sc *scene.Scene) {
	w, h := float32(sc.Width), float32(sc.Height)
	vector.FillRect(dst, 0, 0, w, h, groundColors[terrain.GroundOpen], false)

	if sc.Terrain != nil && sc.Terrain.Tiles != nil {
		drawTiles(dst, sc.Terrain.Tiles)
	}
	if !sc.Grid.IsGridless() {
		drawGrid(dst, int(sc.Width), int(sc.Height), int(sc.Grid.Size), color.RGBA{R: 45, G: 62, B: 45, A: 255})
	}

	for _, wall := range sc.Walls {
		c := color.RGBA{R: 150, G: 140, B: 120, A: 255}
		if !math.IsInf(wall.Top, 1) {
			// partial-height walls are drawn lighter
			c = color.RGBA{R: 120, G: 110, B: 95, A: 200}
		}
		vector.FillRect(dst, float32(wall.X), float32(wall.Y), float32(wall.W), float32(wall.H), c, false)
	}

	for _, t := range sc.Tokens() {
		drawToken(dst, t)
	}
}

func drawTiles(dst *ebiten.Image, tm *terrain.TileMap) {
	size := float32(tm.CellSize)
	for row := 0; row < tm.Rows; row++ {
		for col := 0; col < tm.Cols; col++ {
			g := tm.Ground(col, row)
			e := tm.Elevation(col, row)
			if g == terrain.GroundOpen && e == 0 {
				continue
			}
			base, ok := groundColors[g]
			if !ok {
				base = groundColors[terrain.GroundOpen]
			}
			vector.FillRect(dst, float32(col)*size, float32(row)*size, size, size, elevationShade(base, e), false)
		}
	}
}

func drawGrid(dst *ebiten.Image, w, h, spacing int, c color.Color) {
	if spacing <= 0 {
		return
	}
	for x := 0; x <= w; x += spacing {
		xf := float32(x)
		vector.StrokeLine(dst, xf, 0, xf, float32(h), 1.0, c, false)
	}
	for y := 0; y <= h; y += spacing {
		yf := float32(y)
		vector.StrokeLine(dst, 0, yf, float32(w), yf, 1.0, c, false)
	}
}

func drawToken(dst *ebiten.Image, t scene.Token) {
	cx, cy := float32(t.X+t.W/2), float32(t.Y+t.H/2)
	r := float32(math.Min(t.W, t.H)/2) - 3
	vector.FillCircle(dst, cx, cy, r, color.RGBA{R: 200, G: 60, B: 50, A: 255}, true)
	vector.StrokeCircle(dst, cx, cy, r, 2, color.RGBA{R: 240, G: 220, B: 200, A: 255}, true)

	name := t.Name
	if name == "" {
		name = t.ID
	}
	ebitenutil.DebugPrintAt(dst, name, int(t.X)+2, int(t.Y)+2)
	if t.Elevation != 0 {
		ebitenutil.DebugPrintAt(dst, fmt.Sprintf("%g", t.Elevation), int(t.X)+2, int(t.Y+t.H)-16)
	}
}
