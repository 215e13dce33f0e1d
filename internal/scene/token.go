package scene

import "github.com/Garsondee/elevation-ruler/internal/geom"

// Token is a placed piece on the canvas.
type Token struct {
	ID        string
	Name      string
	X, Y      float64 // top-left, pixels
	W, H      float64 // footprint, pixels
	Elevation float64 // grid units

	// Speed is the walking budget in grid units; 0 means no speed tiers.
	Speed float64
	// LastMoveDistance is the distance already moved this combat round.
	LastMoveDistance float64
}

// Position is the token's top-left corner.
func (t Token) Position() geom.Point { return geom.Pt(t.X, t.Y) }

// CenterOffset is the vector from the top-left corner to the centre.
func (t Token) CenterOffset() geom.Point { return geom.Pt(t.W/2, t.H/2) }

// Center is the token's planar centre.
func (t Token) Center() geom.Point { return t.Position().Add(t.CenterOffset()) }
