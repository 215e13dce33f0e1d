package ruler

import (
	"github.com/Garsondee/elevation-ruler/internal/geom"
	"github.com/Garsondee/elevation-ruler/internal/scene"
	"github.com/google/uuid"
)

// SegmentState is the wire form of a Segment. LabelID is uuid.Nil for
// segments without a label.
type SegmentState struct {
	Ray     geom.Ray3d `json:"ray"`
	LabelID uuid.UUID  `json:"label_id"`
	Speed   string     `json:"speed,omitempty"`
	First   bool       `json:"first,omitempty"`
	Last    bool       `json:"last,omitempty"`
	Leg     int        `json:"leg"`

	Distance                   float64 `json:"distance"`
	MoveDistance               float64 `json:"move_distance"`
	WaypointDistance           float64 `json:"waypoint_distance"`
	WaypointMoveDistance       float64 `json:"waypoint_move_distance"`
	WaypointElevationIncrement float64 `json:"waypoint_elevation_increment"`
}

// Snapshot is everything another user needs to draw this ruler.
type Snapshot struct {
	User        string         `json:"user"`
	TokenID     string         `json:"token_id,omitempty"`
	Grid        scene.Grid     `json:"grid"`
	Waypoints   []Waypoint     `json:"waypoints"`
	Destination geom.Point     `json:"destination"`
	Segments    []SegmentState `json:"segments"`
	Labels      []Label        `json:"labels"`
}

// Snapshot captures the measured path.
func (r *Ruler) Snapshot() Snapshot {
	s := Snapshot{
		User:        r.User,
		TokenID:     r.tokenID(),
		Grid:        r.ctx.Grid,
		Waypoints:   r.Waypoints(),
		Destination: r.destination,
		Labels:      r.Labels(),
	}
	for _, seg := range r.segments {
		st := SegmentState{
			Ray:                        geom.NewRay3d(seg.Ray.A, seg.Ray.B),
			First:                      seg.First,
			Last:                       seg.Last,
			Leg:                        seg.Leg,
			Distance:                   seg.Distance,
			MoveDistance:               seg.MoveDistance,
			WaypointDistance:           seg.WaypointDistance,
			WaypointMoveDistance:       seg.WaypointMoveDistance,
			WaypointElevationIncrement: seg.WaypointElevationIncrement,
		}
		st.Ray.Pathfinding = seg.Ray.Pathfinding
		if seg.Label != nil {
			st.LabelID = seg.Label.ID
		}
		if seg.Speed != nil {
			st.Speed = seg.Speed.Name
		}
		s.Segments = append(s.Segments, st)
	}
	return s
}

// Replay shows another user's ruler. Segments arrive already measured, so
// nothing is recomputed and no pathfinding runs. Labels are matched to
// segments by ID; a segment whose label is missing is drawn without one.
// Highlighting uses the snapshot's grid, or the ruler's own when the snapshot
// has none.
func (r *Ruler) Replay(s Snapshot) []Segment {
	r.Clear()
	r.ctx.Owner = false
	if s.Grid.Size > 0 {
		r.ctx.Grid = s.Grid
	}
	r.active = true
	r.waypoints = append([]Waypoint(nil), s.Waypoints...)
	r.destination = s.Destination

	labels := make(map[uuid.UUID]*Label, len(s.Labels))
	for _, l := range s.Labels {
		lc := l
		labels[l.ID] = &lc
	}
	tiers := r.tiers
	if len(tiers) == 0 {
		tiers = DefaultSpeedTiers
	}

	segs := make([]Segment, 0, len(s.Segments))
	for _, st := range s.Segments {
		seg := Segment{
			Ray:                        geom.NewRay3d(st.Ray.A, st.Ray.B),
			First:                      st.First,
			Last:                       st.Last,
			Leg:                        st.Leg,
			Distance:                   st.Distance,
			MoveDistance:               st.MoveDistance,
			WaypointDistance:           st.WaypointDistance,
			WaypointMoveDistance:       st.WaypointMoveDistance,
			WaypointElevationIncrement: st.WaypointElevationIncrement,
		}
		seg.Ray.Pathfinding = st.Ray.Pathfinding
		if st.LabelID != uuid.Nil {
			seg.Label = labels[st.LabelID]
		}
		for i := range tiers {
			if tiers[i].Name == st.Speed {
				seg.Speed = &tiers[i]
				break
			}
		}
		segs = append(segs, seg)
	}
	r.segments = segs

	if r.highlight != nil {
		r.highlight.Apply(&Pass{Context: r.ctx, Waypoints: r.waypoints, Destination: r.destination}, r.segments)
	}
	r.log.Addf(s.TokenID, "ruler", "replay", float64(len(segs)), "%s: %d segments", s.User, len(segs))
	return r.Segments()
}
