// Package ruler turns a drag gesture into elevation-aware, pathfinding-corrected
// movement segments and the labels and highlights drawn for them.
package ruler

import (
	"image/color"
	"math"

	"github.com/Garsondee/elevation-ruler/internal/geom"
	"github.com/Garsondee/elevation-ruler/internal/scene"
	"github.com/google/uuid"
)

// minSegmentDistSq is the squared planar distance below which two waypoints
// count as the same point.
const minSegmentDistSq = 100

// Waypoint is a user-placed point along the drag path.
type Waypoint struct {
	geom.Point
	TerrainElevation        float64 `json:"terrain_elevation"` // pixels
	UserElevationIncrements int     `json:"increments"`
}

// Elevation is the waypoint height in pixels. One increment is one grid step.
func (w Waypoint) Elevation(g scene.Grid) float64 {
	return w.TerrainElevation + float64(w.UserElevationIncrements)*g.Size
}

// Label is the text drawn at the end of a measured leg. The ID ties it to its
// segment when a ruler is mirrored elsewhere.
type Label struct {
	ID       uuid.UUID  `json:"id"`
	Text     string     `json:"text"`
	Position geom.Point `json:"position"`
}

func newLabel() *Label { return &Label{ID: uuid.New()} }

// SpeedTier is one movement budget band. Limit is a multiple of token speed.
type SpeedTier struct {
	Name  string
	Limit float64
	Color color.RGBA
}

// DefaultSpeedTiers are walk (1× speed), dash (2×) and anything further.
var DefaultSpeedTiers = []SpeedTier{
	{Name: "walk", Limit: 1, Color: color.RGBA{0x32, 0xcd, 0x32, 0xff}},
	{Name: "dash", Limit: 2, Color: color.RGBA{0xff, 0xd7, 0x00, 0xff}},
	{Name: "maximum", Limit: math.Inf(1), Color: color.RGBA{0xdc, 0x14, 0x3c, 0xff}},
}

// Segment is one leg, or part of a leg, of the measured path.
type Segment struct {
	Ray   geom.Ray3d
	Label *Label
	Speed *SpeedTier
	First bool
	Last  bool

	// Leg is the index of the waypoint pair this segment belongs to.
	Leg int

	Distance     float64 // grid units, this segment only
	MoveDistance float64 // Distance scaled by terrain cost

	// Waypoint totals cover the whole leg regardless of how it was split.
	WaypointDistance           float64
	WaypointMoveDistance       float64
	WaypointElevationIncrement float64 // grid units

	expanded bool
}

// split cuts the segment at parameter t. Distances divide proportionally and
// only the tail keeps the label.
func (s Segment) split(t float64) (Segment, Segment) {
	mid := s.Ray.At(t)
	head, tail := s, s

	head.Ray = geom.NewRay3d(s.Ray.A, mid)
	head.Ray.Pathfinding = s.Ray.Pathfinding
	head.Label = nil
	head.Last = false
	head.Distance = s.Distance * t
	head.MoveDistance = s.MoveDistance * t

	tail.Ray = geom.NewRay3d(mid, s.Ray.B)
	tail.Ray.Pathfinding = s.Ray.Pathfinding
	tail.First = false
	tail.Distance = s.Distance - head.Distance
	tail.MoveDistance = s.MoveDistance - head.MoveDistance
	return head, tail
}

// baseSegments builds flat segments between consecutive points, reusing one
// label per leg. Legs shorter than the degenerate threshold are dropped.
func baseSegments(points []geom.Point, labels func(leg int) *Label) []Segment {
	var segs []Segment
	for i := 1; i < len(points); i++ {
		a, b := points[i-1], points[i]
		if geom.DistSq(a, b) < minSegmentDistSq {
			continue
		}
		leg := len(segs)
		segs = append(segs, Segment{
			Ray:   geom.NewRay2d(a, b),
			Label: labels(leg),
			Leg:   leg,
		})
	}
	return segs
}
