package ruler

import (
	"github.com/Garsondee/elevation-ruler/internal/geom"
	"github.com/Garsondee/elevation-ruler/internal/scene"
	"github.com/Garsondee/elevation-ruler/internal/settings"
	"github.com/Garsondee/elevation-ruler/internal/terrain"
	"gonum.org/v1/gonum/spatial/r3"
)

// ElevationSource resolves terrain elevation in grid units.
type ElevationSource interface {
	ElevationAt(p geom.Point) float64
}

// LevelSource names the vertical level covering an elevation.
type LevelSource interface {
	LevelAt(e float64) (terrain.Level, bool)
}

// MoveCost returns the terrain cost multiplier along a planar line.
type MoveCost interface {
	MoveCostFactor(a, b geom.Point) float64
}

// CollisionChecker reports whether a token moving a→b hits an obstacle.
type CollisionChecker interface {
	HasCollision(a, b r3.Vec, t scene.Token) bool
}

// TerrainPenalty reports whether a→b crosses ground that slows the token.
type TerrainPenalty interface {
	HasTerrainPenalty(a, b r3.Vec, t scene.Token) bool
}

// World is everything the pipeline asks of the canvas. *scene.Scene satisfies it.
type World interface {
	ElevationSource
	LevelSource
	MoveCost
	CollisionChecker
	TerrainPenalty
}

// Pathfinder searches for an obstacle-free route.
type Pathfinder interface {
	// FindPath returns raw points from a to b, or nil when no route exists.
	FindPath(a, b r3.Vec) []r3.Vec
	CleanPath(points []r3.Vec) []r3.Vec
}

// PathfinderSource hands out the pathfinder for a token, building it lazily.
type PathfinderSource interface {
	PathfinderFor(t scene.Token) Pathfinder
}

// Context is the ambient canvas state a measurement runs under.
type Context struct {
	Grid           scene.Grid
	Settings       settings.Settings
	InCombat       bool
	LevelsUIActive bool

	// Token is the token being dragged, if any.
	Token *scene.Token
	// Owner is false for rulers mirrored from another user; those never pathfind.
	Owner bool
}

// ContextFor snapshots the scene state for a drag of tok.
func ContextFor(sc *scene.Scene, s settings.Settings, tok *scene.Token) Context {
	return Context{
		Grid:           sc.Grid,
		Settings:       s,
		InCombat:       sc.InCombat(),
		LevelsUIActive: sc.LevelsUIActive(),
		Token:          tok,
		Owner:          true,
	}
}

// Pass is one run of the pipeline.
type Pass struct {
	Context
	Waypoints   []Waypoint
	Destination geom.Point
	Increments  int
}

// Stage consumes and returns a segment list.
type Stage interface {
	Apply(p *Pass, segs []Segment) []Segment
}

// StageFunc adapts a function to Stage.
type StageFunc func(p *Pass, segs []Segment) []Segment

// Apply calls f.
func (f StageFunc) Apply(p *Pass, segs []Segment) []Segment { return f(p, segs) }

// Pipeline runs stages in order.
type Pipeline []Stage

// Run feeds segs through every stage.
func (pl Pipeline) Run(p *Pass, segs []Segment) []Segment {
	for _, st := range pl {
		segs = st.Apply(p, segs)
	}
	return segs
}

// MarkEnds flags the first and last segments.
var MarkEnds = StageFunc(func(_ *Pass, segs []Segment) []Segment {
	for i := range segs {
		segs[i].First = i == 0
		segs[i].Last = i == len(segs)-1
	}
	return segs
})
