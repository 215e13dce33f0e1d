package ruler

import (
	"image/color"

	"github.com/Garsondee/elevation-ruler/internal/eventlog"
	"github.com/Garsondee/elevation-ruler/internal/geom"
)

// DefaultColor is the ruler colour when no speed tier applies.
var DefaultColor = color.RGBA{0x00, 0xbf, 0xff, 0xff}

// Ruler tracks one drag gesture. It owns its segments and pathfinding cache
// and is driven from a single goroutine.
type Ruler struct {
	User string

	world     World
	builder   *PathBuilder
	highlight *Highlighter
	tiers     []SpeedTier
	log       *eventlog.Log
	pipeline  Pipeline

	ctx         Context
	active      bool
	waypoints   []Waypoint
	increments  int
	destination geom.Point
	legLabels   []*Label
	segments    []Segment
}

// Option configures a Ruler.
type Option func(*Ruler)

// WithUser names the ruler's owner.
func WithUser(name string) Option { return func(r *Ruler) { r.User = name } }

// WithLog attaches an event log.
func WithLog(l *eventlog.Log) Option { return func(r *Ruler) { r.log = l } }

// WithHighlighter paints segments onto target after every measurement.
func WithHighlighter(target GridHighlighter, c color.RGBA) Option {
	return func(r *Ruler) {
		r.highlight = &Highlighter{Target: target, Color: c}
	}
}

// WithSpeedTiers replaces the default walk/dash/maximum tiers.
func WithSpeedTiers(tiers ...SpeedTier) Option {
	return func(r *Ruler) { r.tiers = tiers }
}

// New returns an idle ruler measuring against world. paths may be nil, which
// disables pathfinding.
func New(world World, paths PathfinderSource, opts ...Option) *Ruler {
	r := &Ruler{world: world, User: "local"}
	for _, o := range opts {
		o(r)
	}
	r.builder = NewPathBuilder(world, paths, r.log)
	if r.highlight != nil {
		r.highlight.Layer = "ruler." + r.User
	}

	stages := Pipeline{Elevator{Source: world}}
	if paths != nil {
		stages = append(stages, r.builder)
	}
	stages = append(stages,
		DistanceStage{Cost: world},
		SpeedStage{Tiers: r.tiers},
		MarkEnds,
		LabelComposer{Levels: world},
	)
	if r.highlight != nil {
		stages = append(stages, r.highlight)
	}
	r.pipeline = stages
	return r
}

// Start begins a measurement at origin. When c has a token the origin takes
// the token's elevation rather than the terrain's.
func (r *Ruler) Start(c Context, origin geom.Point) {
	r.Clear()
	r.ctx = c
	r.active = true

	wp := Elevator{Source: r.world}.Waypoint(c.Grid, origin, 0)
	if c.Token != nil {
		wp.TerrainElevation = c.Grid.ToPixels(c.Token.Elevation)
	}
	r.waypoints = []Waypoint{wp}
	r.destination = origin
	r.log.Addf(r.tokenID(), "ruler", "start", 0, "(%.0f,%.0f) by %s", origin.X, origin.Y, r.User)
}

// SetContext refreshes the ambient state, e.g. after combat starts or a
// toggle key changes the settings snapshot.
func (r *Ruler) SetContext(c Context) { r.ctx = c }

// Context returns the ambient state of the current measurement.
func (r *Ruler) Context() Context { return r.ctx }

// Active reports whether a measurement is in progress.
func (r *Ruler) Active() bool { return r.active }

// AddWaypoint fixes p as the next waypoint, carrying the current elevation
// increments.
func (r *Ruler) AddWaypoint(p geom.Point) []Segment {
	if !r.active {
		return nil
	}
	wp := Elevator{Source: r.world}.Waypoint(r.ctx.Grid, p, r.increments)
	r.waypoints = append(r.waypoints, wp)
	r.log.Addf(r.tokenID(), "ruler", "waypoint", float64(len(r.waypoints)), "(%.0f,%.0f)", p.X, p.Y)
	return r.Measure(p)
}

// RemoveWaypoint drops the most recent waypoint. Removing the origin ends the
// measurement.
func (r *Ruler) RemoveWaypoint() []Segment {
	if !r.active {
		return nil
	}
	if len(r.waypoints) <= 1 {
		r.Clear()
		return nil
	}
	r.waypoints = r.waypoints[:len(r.waypoints)-1]
	r.increments = r.waypoints[len(r.waypoints)-1].UserElevationIncrements
	return r.Measure(r.destination)
}

// IncrementElevation raises the destination by one grid step.
func (r *Ruler) IncrementElevation() []Segment {
	r.increments++
	return r.Measure(r.destination)
}

// DecrementElevation lowers the destination by one grid step.
func (r *Ruler) DecrementElevation() []Segment {
	r.increments--
	return r.Measure(r.destination)
}

// Increments is the pending elevation change in grid steps.
func (r *Ruler) Increments() int { return r.increments }

// Measure runs the pipeline towards dest and stores the result.
func (r *Ruler) Measure(dest geom.Point) []Segment {
	if !r.active {
		return nil
	}
	r.destination = dest

	points := make([]geom.Point, 0, len(r.waypoints)+1)
	for _, w := range r.waypoints {
		points = append(points, w.Point)
	}
	points = append(points, dest)

	p := &Pass{
		Context:     r.ctx,
		Waypoints:   r.waypoints,
		Destination: dest,
		Increments:  r.increments,
	}
	r.segments = r.pipeline.Run(p, baseSegments(points, r.labelFor))
	return r.Segments()
}

func (r *Ruler) labelFor(leg int) *Label {
	for len(r.legLabels) <= leg {
		r.legLabels = append(r.legLabels, newLabel())
	}
	return r.legLabels[leg]
}

// Segments returns a copy of the measured segments.
func (r *Ruler) Segments() []Segment {
	return append([]Segment(nil), r.segments...)
}

// Labels returns the labels of the measured path in traversal order.
func (r *Ruler) Labels() []Label {
	var out []Label
	for _, s := range r.segments {
		if s.Label != nil {
			out = append(out, *s.Label)
		}
	}
	return out
}

// Waypoints returns the fixed waypoints, origin first.
func (r *Ruler) Waypoints() []Waypoint { return append([]Waypoint(nil), r.waypoints...) }

// Destination is the live end of the ruler.
func (r *Ruler) Destination() geom.Point { return r.destination }

// TotalDistance sums the measured distance in grid units.
func (r *Ruler) TotalDistance() float64 {
	total := 0.0
	for _, s := range r.segments {
		total += s.Distance
	}
	return total
}

// TotalMoveDistance sums the terrain-adjusted distance in grid units.
func (r *Ruler) TotalMoveDistance() float64 {
	total := 0.0
	for _, s := range r.segments {
		total += s.MoveDistance
	}
	return total
}

// PathBuilder exposes the pathfinding stage, mainly for inspection.
func (r *Ruler) PathBuilder() *PathBuilder { return r.builder }

// Clear ends the measurement and drops all cached state.
func (r *Ruler) Clear() {
	if r.active {
		r.log.Add(r.tokenID(), "ruler", "clear", r.User, 0)
	}
	r.active = false
	r.waypoints = nil
	r.increments = 0
	r.segments = nil
	r.legLabels = nil
	r.builder.Clear()
	if r.highlight != nil && r.highlight.Target != nil {
		r.highlight.Target.ClearLayer(r.highlight.Layer)
	}
}

func (r *Ruler) tokenID() string {
	if r.ctx.Token == nil {
		return ""
	}
	return r.ctx.Token.ID
}
