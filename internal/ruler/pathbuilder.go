package ruler

import (
	"fmt"

	"github.com/Garsondee/elevation-ruler/internal/eventlog"
	"github.com/Garsondee/elevation-ruler/internal/geom"
	"github.com/Garsondee/elevation-ruler/internal/scene"
	"gonum.org/v1/gonum/spatial/r3"
)

// PathBuilder reroutes the segment being dragged around obstacles and splices
// cached routes back into earlier segments.
//
// The segment map is keyed by the planar origin of the segment it replaces.
// Only the last segment's entry is ever recomputed, so legs that were settled
// before a waypoint was dropped keep their route.
type PathBuilder struct {
	World CollisionTerrain
	Paths PathfinderSource
	Log   *eventlog.Log

	avoidTerrain bool
	segmentMap   map[geom.Point][]r3.Vec
}

// CollisionTerrain is the part of World the builder needs.
type CollisionTerrain interface {
	CollisionChecker
	TerrainPenalty
}

// NewPathBuilder returns a builder with an empty cache.
func NewPathBuilder(world CollisionTerrain, paths PathfinderSource, log *eventlog.Log) *PathBuilder {
	return &PathBuilder{
		World:      world,
		Paths:      paths,
		Log:        log,
		segmentMap: make(map[geom.Point][]r3.Vec),
	}
}

// Apply recomputes the last segment's route when pathfinding is on for this
// pass, then expands every cached segment.
func (b *PathBuilder) Apply(p *Pass, segs []Segment) []Segment {
	if len(segs) == 0 {
		b.Clear()
		return segs
	}
	if p.Token == nil || !p.Owner || !p.Settings.PathfindingActive() {
		return segs
	}

	b.avoidTerrain = p.Settings.AvoidDifficultTerrain
	last := segs[len(segs)-1]
	pts := b.CalculatePathPointsForSegment(last, *p.Token)
	b.UpdateCache(p.Token.ID, geom.Planar(last.Ray.A), pts)
	return b.ConstructPathfindingSegments(segs, b.segmentMap)
}

// CalculatePathPointsForSegment returns a cleaned route for seg, or nil when
// the straight line is usable. The search only runs once the cheap collision
// and terrain checks say the line is not clear.
func (b *PathBuilder) CalculatePathPointsForSegment(seg Segment, t scene.Token) []r3.Vec {
	a, dst := seg.Ray.A, seg.Ray.B
	blocked := b.World.HasCollision(a, dst, t)
	if !blocked && !(b.avoidTerrain && b.World.HasTerrainPenalty(a, dst, t)) {
		return nil
	}

	pf := b.Paths.PathfinderFor(t)
	if pf == nil {
		return nil
	}
	pts := pf.CleanPath(pf.FindPath(a, dst))
	b.Log.Add(t.ID, "pathfind", "search", fmt.Sprintf("blocked=%v points=%d", blocked, len(pts)), float64(len(pts)))
	if len(pts) < 2 {
		return nil
	}
	return pts
}

// UpdateCache stores a route for origin when it detours (three or more
// points) and drops any stale entry otherwise.
func (b *PathBuilder) UpdateCache(tokenID string, origin geom.Point, pts []r3.Vec) {
	if len(pts) >= 3 {
		b.segmentMap[origin] = pts
		b.Log.Addf(tokenID, "pathfind", "cache_set", float64(len(pts)), "(%.0f,%.0f) %d points", origin.X, origin.Y, len(pts))
		return
	}
	if _, ok := b.segmentMap[origin]; ok {
		delete(b.segmentMap, origin)
		b.Log.Addf(tokenID, "pathfind", "cache_delete", 0, "(%.0f,%.0f)", origin.X, origin.Y)
	}
}

// Clear empties the cache so the next search starts cold.
func (b *PathBuilder) Clear() {
	if len(b.segmentMap) == 0 {
		return
	}
	n := len(b.segmentMap)
	clear(b.segmentMap)
	b.Log.Add("", "pathfind", "cache_clear", fmt.Sprintf("%d entries", n), float64(n))
}

// Cached returns the route stored for origin.
func (b *PathBuilder) Cached(origin geom.Point) ([]r3.Vec, bool) {
	pts, ok := b.segmentMap[origin]
	return pts, ok
}

// CacheLen is the number of cached routes.
func (b *PathBuilder) CacheLen() int { return len(b.segmentMap) }

// ConstructPathfindingSegments replaces every segment with a cached route by
// the hops of that route. The first hop starts at the segment's A and the last
// ends at its B, so the leg keeps its elevation change; intermediate points
// keep the height the route was searched at. Only the final hop keeps the
// label and is not marked as pathfinding. Segments already produced by an
// earlier expansion pass through untouched.
func (b *PathBuilder) ConstructPathfindingSegments(segs []Segment, segmentMap map[geom.Point][]r3.Vec) []Segment {
	if len(segmentMap) == 0 {
		return segs
	}
	out := make([]Segment, 0, len(segs))
	for _, s := range segs {
		if s.expanded {
			out = append(out, s)
			continue
		}
		pts, ok := segmentMap[geom.Planar(s.Ray.A)]
		if !ok || len(pts) < 2 {
			out = append(out, s)
			continue
		}
		out = append(out, expand(s, pts)...)
	}
	return out
}

func expand(s Segment, pts []r3.Vec) []Segment {
	n := len(pts)
	subs := make([]Segment, 0, n-1)
	for i := 1; i < n; i++ {
		a, dst := pts[i-1], pts[i]
		if i == 1 {
			a = s.Ray.A
		}
		if i == n-1 {
			dst = s.Ray.B
		}
		sub := s
		sub.Ray = geom.NewRay3d(a, dst)
		sub.Ray.Pathfinding = i < n-1
		sub.expanded = true
		if sub.Ray.Pathfinding {
			sub.Label = nil
		}
		subs = append(subs, sub)
	}
	return subs
}
