package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Garsondee/elevation-ruler/internal/eventlog"
	"github.com/Garsondee/elevation-ruler/internal/geom"
	"github.com/Garsondee/elevation-ruler/internal/movement"
	"github.com/Garsondee/elevation-ruler/internal/ruler"
	"github.com/Garsondee/elevation-ruler/internal/scene"
	"github.com/Garsondee/elevation-ruler/internal/settings"
)

// errRulerDisabled is returned when ELEVATION_RULER_ENABLED turns the token
// ruler off.
var errRulerDisabled = errors.New("token ruler is disabled")

// session is one headless canvas with a ruler bound to it.
type session struct {
	scene *scene.Scene
	log   *eventlog.Log
	svc   *movement.Service
	ruler *ruler.Ruler
	s     settings.Settings
}

func newSession() (*session, error) {
	s, err := settings.Load()
	if err != nil {
		return nil, err
	}
	s.ForcePathfindingToggle = forcePath

	log := eventlog.New(verbose)
	opts := []scene.Option{
		scene.WithLog(log),
		scene.WithAnimation(0),
		scene.WithCombat(combat),
		scene.WithLevelsUI(levelsUI),
	}
	if gridless {
		opts = append(opts, scene.WithGrid(scene.Grid{Type: scene.Gridless, Size: 50, Distance: 5, Units: "ft"}))
	}
	sc := scene.Demo(opts...)
	svc := movement.NewService(sc, log)
	return &session{
		scene: sc,
		log:   log,
		svc:   svc,
		ruler: ruler.New(sc, svc, ruler.WithUser("cli"), ruler.WithLog(log)),
		s:     s,
	}, nil
}

// measure runs the ruler from the token through points. The last point is the
// destination; the elevation change applies to it only.
func (ss *session) measure(id string, points []geom.Point, steps int) ([]ruler.Segment, error) {
	if !ss.s.RulerEnabled {
		return nil, errRulerDisabled
	}
	tok, ok := ss.scene.Token(id)
	if !ok {
		return nil, fmt.Errorf("token %q: %w", id, scene.ErrUnknownToken)
	}
	ss.ruler.Start(ruler.ContextFor(ss.scene, ss.s, &tok), tok.Center())
	for _, p := range points[:len(points)-1] {
		ss.ruler.AddWaypoint(p)
	}
	for ; steps > 0; steps-- {
		ss.ruler.IncrementElevation()
	}
	for ; steps < 0; steps++ {
		ss.ruler.DecrementElevation()
	}
	return ss.ruler.Measure(points[len(points)-1]), nil
}

// parsePoints reads "x,y" arguments.
func parsePoints(args []string) ([]geom.Point, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("at least one point is required")
	}
	out := make([]geom.Point, 0, len(args))
	for _, a := range args {
		xs, ys, ok := strings.Cut(a, ",")
		if !ok {
			return nil, fmt.Errorf("point %q: want x,y", a)
		}
		x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
		if err != nil {
			return nil, fmt.Errorf("point %q: %w", a, err)
		}
		y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
		if err != nil {
			return nil, fmt.Errorf("point %q: %w", a, err)
		}
		out = append(out, geom.Pt(x, y))
	}
	return out, nil
}

func printSegments(w io.Writer, segs []ruler.Segment, units string) {
	fmt.Fprintf(w, "%-4s %-26s %-26s %9s %9s %-8s\n", "leg", "from", "to", "dist", "move", "speed")
	for _, s := range segs {
		speed := "-"
		if s.Speed != nil {
			speed = s.Speed.Name
		}
		a, b := s.Ray.A, s.Ray.B
		fmt.Fprintf(w, "%-4d %-26s %-26s %9g %9g %-8s\n", s.Leg,
			fmt.Sprintf("(%.0f,%.0f,%.0f)", a.X, a.Y, a.Z),
			fmt.Sprintf("(%.0f,%.0f,%.0f)", b.X, b.Y, b.Z),
			s.Distance, s.MoveDistance, speed)
	}
	fmt.Fprintf(w, "units: %s\n", units)
}

func printLabels(w io.Writer, labels []ruler.Label) {
	for _, l := range labels {
		fmt.Fprintf(w, "\n@(%.0f,%.0f)\n%s\n", l.Position.X, l.Position.Y, l.Text)
	}
}

func printLog(w io.Writer, log *eventlog.Log) {
	if !verbose {
		return
	}
	fmt.Fprintf(w, "\n%s", log.Format())
}
