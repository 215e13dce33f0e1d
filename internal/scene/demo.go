package scene

import "github.com/Garsondee/elevation-ruler/internal/terrain"

// Demo token IDs.
const (
	DemoScout  = "scout"
	DemoArcher = "archer"
)

// Demo builds the sample canvas used by the desktop app and rulerctl: a 50px
// square grid with a walled courtyard, a muddy ford, a raised balcony and two
// tokens. Extra options are applied on top, so callers can flip combat or
// swap the grid.
func Demo(extra ...Option) *Scene {
	opts := []Option{
		WithGrid(Grid{Type: Square, Size: 50, Distance: 5, Units: "ft"}),
		WithSize(1400, 900),

		// courtyard with a gap on the south side
		WithWall(500, 200, 400, 20),
		WithWall(500, 200, 20, 400),
		WithWall(880, 200, 20, 400),
		WithWall(500, 580, 150, 20),
		WithWall(750, 580, 150, 20),
		// low garden wall, 5 ft tall: climbing over it clears it
		WithWallHeight(200, 650, 200, 20, 0, 5),

		WithGround(3, 2, 4, 6, terrain.GroundMud),
		WithGround(20, 12, 5, 3, terrain.GroundWater),
		WithElevation(11, 5, 6, 3, 10),

		WithLevel("Ground", 0, 10),
		WithLevel("Balcony", 10, 20),
		WithLevel("Roof", 20, 40),

		WithAnimation(12),

		WithToken(Token{ID: DemoScout, Name: "Scout", X: 100, Y: 100, Speed: 30}),
		WithToken(Token{ID: DemoArcher, Name: "Archer", X: 1100, Y: 700, W: 100, H: 100, Speed: 25}),
	}
	return New(append(opts, extra...)...)
}
