package ruler

import (
	"github.com/Garsondee/elevation-ruler/internal/geom"
	"github.com/Garsondee/elevation-ruler/internal/scene"
)

// Elevator lifts flat segments into 3D using waypoint elevations.
type Elevator struct {
	Source ElevationSource
}

// Waypoint resolves the terrain elevation under p. A nil source means flat ground.
func (e Elevator) Waypoint(g scene.Grid, p geom.Point, increments int) Waypoint {
	w := Waypoint{Point: p, UserElevationIncrements: increments}
	if e.Source != nil {
		w.TerrainElevation = g.ToPixels(e.Source.ElevationAt(p))
	}
	return w
}

// Apply appends the live destination and elevates segs against the pass waypoints.
func (e Elevator) Apply(p *Pass, segs []Segment) []Segment {
	dest := e.Waypoint(p.Grid, p.Destination, p.Increments)
	waypoints := make([]Waypoint, 0, len(p.Waypoints)+1)
	waypoints = append(waypoints, p.Waypoints...)
	waypoints = append(waypoints, dest)
	return ElevateSegments(p.Grid, waypoints, segs)
}

// ElevateSegments promotes each segment's ray to 3D from consecutive waypoint
// pairs. Pairs closer than the degenerate threshold are skipped without
// consuming a segment, and the walk stops at whichever list runs out first.
func ElevateSegments(g scene.Grid, waypoints []Waypoint, segs []Segment) []Segment {
	j := 0
	for i := 1; i < len(waypoints) && j < len(segs); i++ {
		a, b := waypoints[i-1], waypoints[i]
		if geom.DistSq(a.Point, b.Point) < minSegmentDistSq {
			continue
		}
		s := &segs[j]
		j++

		pathfinding := s.Ray.Pathfinding
		s.Ray = geom.NewRay3d(a.Vec(a.Elevation(g)), b.Vec(b.Elevation(g)))
		s.Ray.Pathfinding = pathfinding
		s.WaypointElevationIncrement = g.ToUnits(s.Ray.DeltaZ())
	}
	return segs
}
