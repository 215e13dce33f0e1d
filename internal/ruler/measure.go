package ruler

import (
	"math"

	"github.com/Garsondee/elevation-ruler/internal/geom"
)

// DistanceStage measures each segment on the grid, applies terrain cost, and
// totals every leg across the segments it was split into.
type DistanceStage struct {
	Cost MoveCost
}

// Apply implements Stage.
func (d DistanceStage) Apply(p *Pass, segs []Segment) []Segment {
	legDist := make(map[int]float64)
	legMove := make(map[int]float64)
	for i := range segs {
		s := &segs[i]
		s.Distance = p.Grid.MeasureDistance(s.Ray.A, s.Ray.B)
		factor := 1.0
		if d.Cost != nil {
			factor = d.Cost.MoveCostFactor(geom.Planar(s.Ray.A), geom.Planar(s.Ray.B))
		}
		s.MoveDistance = s.Distance * factor
		legDist[s.Leg] += s.Distance
		legMove[s.Leg] += s.MoveDistance
	}
	for i := range segs {
		segs[i].WaypointDistance = legDist[segs[i].Leg]
		segs[i].WaypointMoveDistance = legMove[segs[i].Leg]
	}
	return segs
}

// SpeedStage splits segments where cumulative movement crosses a speed tier
// limit and tags every piece with its tier.
type SpeedStage struct {
	Tiers []SpeedTier
}

// Apply implements Stage. It is a no-op without a token speed or when speed
// highlighting is off for the current combat state.
func (st SpeedStage) Apply(p *Pass, segs []Segment) []Segment {
	if p.Token == nil || p.Token.Speed <= 0 || !p.Settings.SpeedHighlightingActive(p.InCombat) {
		return segs
	}
	tiers := st.Tiers
	if len(tiers) == 0 {
		tiers = DefaultSpeedTiers
	}

	moved := 0.0
	if p.InCombat && p.Settings.CombatHistoryHighlighting {
		moved = p.Token.LastMoveDistance
	}
	out := make([]Segment, 0, len(segs))
	for _, s := range segs {
		out = append(out, splitBySpeed(s, &moved, p.Token.Speed, tiers)...)
	}
	return out
}

func tierIndex(moved, speed float64, tiers []SpeedTier) int {
	for i, t := range tiers {
		if moved < speed*t.Limit {
			return i
		}
	}
	return len(tiers) - 1
}

func splitBySpeed(s Segment, moved *float64, speed float64, tiers []SpeedTier) []Segment {
	var pieces []Segment
	for {
		i := tierIndex(*moved, speed, tiers)
		limit := speed * tiers[i].Limit
		if math.IsInf(limit, 1) || *moved >= limit || *moved+s.MoveDistance <= limit {
			s.Speed = &tiers[i]
			*moved += s.MoveDistance
			return append(pieces, s)
		}
		head, tail := s.split((limit - *moved) / s.MoveDistance)
		head.Speed = &tiers[i]
		*moved = limit
		pieces = append(pieces, head)
		s = tail
	}
}
