package ruler

import (
	"encoding/json"
	"image/color"
	"math"
	"strings"
	"testing"

	"github.com/Garsondee/elevation-ruler/internal/eventlog"
	"github.com/Garsondee/elevation-ruler/internal/geom"
	"github.com/Garsondee/elevation-ruler/internal/scene"
	"github.com/Garsondee/elevation-ruler/internal/settings"
	"github.com/Garsondee/elevation-ruler/internal/terrain"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"gonum.org/v1/gonum/spatial/r3"
)

// --- fakes ---------------------------------------------------------------

type scenePaths struct{ sc *scene.Scene }

func (s scenePaths) PathfinderFor(t scene.Token) Pathfinder { return s.sc.NewPathfinder(t) }

type countingPaths struct {
	next  PathfinderSource
	calls int
}

func (c *countingPaths) PathfinderFor(t scene.Token) Pathfinder {
	c.calls++
	return c.next.PathfinderFor(t)
}

type highlightCall struct {
	layer string
	color color.RGBA
	shape Shape
}

type recordingHighlighter struct {
	calls   []highlightCall
	cleared int
	panicOn int
}

func (h *recordingHighlighter) Highlight(layer string, c color.RGBA, shape Shape) {
	h.calls = append(h.calls, highlightCall{layer, c, shape})
	if h.panicOn > 0 && len(h.calls) == h.panicOn {
		panic("render failed")
	}
}

func (h *recordingHighlighter) ClearLayer(string) { h.cleared++ }

var segmentCmp = []cmp.Option{
	cmp.AllowUnexported(Segment{}),
	cmpopts.IgnoreUnexported(geom.Ray3d{}),
}

// blockedScene has a wall straight across the line (0,0)→(200,0) and a token
// centred on the origin.
func blockedScene(opts ...scene.Option) (*scene.Scene, scene.Token) {
	tok := scene.Token{ID: "tok1", X: -50, Y: -50, W: 100, H: 100}
	opts = append(opts, scene.WithWall(90, -100, 20, 160), scene.WithToken(tok))
	sc := scene.New(opts...)
	tok, _ = sc.Token("tok1")
	return sc, tok
}

func ownerPass(sc *scene.Scene, s settings.Settings, tok *scene.Token) *Pass {
	return &Pass{Context: ContextFor(sc, s, tok)}
}

// --- Segment Elevator ----------------------------------------------------

func TestElevateSegments_SkipsDegeneratePairs(t *testing.T) {
	g := scene.DefaultGrid()
	wps := []Waypoint{
		{Point: geom.Pt(0, 0)},
		{Point: geom.Pt(5, 5)}, // doubled-back click
		{Point: geom.Pt(300, 0), UserElevationIncrements: 1},
		{Point: geom.Pt(600, 0)},
	}
	points := []geom.Point{wps[0].Point, wps[1].Point, wps[2].Point, wps[3].Point}
	segs := baseSegments(points, func(int) *Label { return newLabel() })
	if len(segs) != 2 {
		t.Fatalf("expected the 5px pair to be dropped, got %d segments", len(segs))
	}

	segs = ElevateSegments(g, wps, segs)
	for i, s := range segs {
		if geom.DistSq(geom.Planar(s.Ray.A), geom.Planar(s.Ray.B)) < minSegmentDistSq {
			t.Fatalf("segment %d is degenerate: %+v", i, s.Ray)
		}
	}
	want := []geom.Ray3d{
		geom.NewRay3d(r3.Vec{X: 5, Y: 5, Z: 0}, r3.Vec{X: 300, Y: 0, Z: 100}),
		geom.NewRay3d(r3.Vec{X: 300, Y: 0, Z: 100}, r3.Vec{X: 600, Y: 0, Z: 0}),
	}
	got := []geom.Ray3d{segs[0].Ray, segs[1].Ray}
	if diff := cmp.Diff(want, got, cmpopts.IgnoreUnexported(geom.Ray3d{})); diff != "" {
		t.Fatalf("elevated rays mismatch (-want +got):\n%s", diff)
	}
	if segs[0].WaypointElevationIncrement != 5 || segs[1].WaypointElevationIncrement != -5 {
		t.Fatalf("unexpected increments %v, %v", segs[0].WaypointElevationIncrement, segs[1].WaypointElevationIncrement)
	}
}

func TestElevateSegments_StopsAtShorterList(t *testing.T) {
	g := scene.DefaultGrid()
	wps := []Waypoint{{Point: geom.Pt(0, 0)}, {Point: geom.Pt(200, 0)}, {Point: geom.Pt(400, 0)}}

	one := []Segment{{Ray: geom.NewRay2d(geom.Pt(0, 0), geom.Pt(200, 0))}}
	if got := ElevateSegments(g, wps, one); len(got) != 1 {
		t.Fatalf("segment list should keep its length, got %d", len(got))
	}

	three := make([]Segment, 3)
	got := ElevateSegments(g, wps, three)
	if got[2].Ray != (geom.Ray3d{}) {
		t.Fatalf("segment without a waypoint pair should be left alone, got %+v", got[2].Ray)
	}
}

func TestElevator_DestinationUsesTerrainAndIncrements(t *testing.T) {
	sc := scene.New(scene.WithElevation(3, 0, 1, 1, 10))
	e := Elevator{Source: sc}
	wp := e.Waypoint(sc.Grid, geom.Pt(350, 50), 2)
	if wp.TerrainElevation != 200 {
		t.Fatalf("10 ft of terrain should be 200px, got %v", wp.TerrainElevation)
	}
	if z := wp.Elevation(sc.Grid); z != 400 {
		t.Fatalf("two increments should add two grid steps, got %v", z)
	}
	if ground := e.Waypoint(sc.Grid, geom.Pt(-500, -500), 0); ground.TerrainElevation != 0 {
		t.Fatalf("point off the map should sit on the ground, got %v", ground.TerrainElevation)
	}
}

// --- Pathfinding Segment Builder -----------------------------------------

func TestPathBuilder_ClearLineSkipsSearch(t *testing.T) {
	sc := scene.New(scene.WithToken(scene.Token{ID: "tok1"}))
	tok, _ := sc.Token("tok1")
	paths := &countingPaths{next: scenePaths{sc}}
	b := NewPathBuilder(sc, paths, nil)

	seg := Segment{Ray: geom.NewRay3d(r3.Vec{}, r3.Vec{X: 100}), Label: newLabel()}
	if pts := b.CalculatePathPointsForSegment(seg, tok); len(pts) != 0 {
		t.Fatalf("clear line should need no path, got %v", pts)
	}
	if paths.calls != 0 {
		t.Fatalf("pathfinder should not be built for a clear line, built %d times", paths.calls)
	}

	in := []Segment{seg}
	out := b.Apply(ownerPass(sc, settings.Default(), &tok), append([]Segment(nil), in...))
	if diff := cmp.Diff(in, out, segmentCmp...); diff != "" {
		t.Fatalf("clear segment should be unaltered (-want +got):\n%s", diff)
	}
}

func TestPathBuilder_DetourSplicesSubSegments(t *testing.T) {
	sc, tok := blockedScene()
	log := eventlog.New(false)
	b := NewPathBuilder(sc, scenePaths{sc}, log)

	label := newLabel()
	seg := Segment{Ray: geom.NewRay3d(r3.Vec{}, r3.Vec{X: 200}), Label: label}
	pts := b.CalculatePathPointsForSegment(seg, tok)
	if len(pts) < 2 {
		t.Fatalf("blocked line should produce a path, got %v", pts)
	}

	out := b.Apply(ownerPass(sc, settings.Default(), &tok), []Segment{seg})
	if len(out) < 2 {
		t.Fatalf("expected at least 2 sub-segments, got %d", len(out))
	}
	for i, s := range out[:len(out)-1] {
		if !s.Ray.Pathfinding || s.Label != nil {
			t.Fatalf("sub-segment %d should be an unlabelled pathfinding hop: %+v", i, s)
		}
	}
	last := out[len(out)-1]
	if last.Ray.Pathfinding || last.Label != label {
		t.Fatalf("final hop should be a normal segment carrying the original label: %+v", last)
	}
	if out[0].Ray.A != seg.Ray.A || last.Ray.B != seg.Ray.B {
		t.Fatalf("route should keep the original endpoints, got %v … %v", out[0].Ray.A, last.Ray.B)
	}
	for i, s := range out {
		if sc.Walls.HasCollision(s.Ray.A, s.Ray.B) {
			t.Fatalf("hop %d crosses the wall", i)
		}
	}
	if b.CacheLen() != 1 || log.Count("pathfind", "cache_set") != 1 {
		t.Fatalf("detour should be cached once, cache=%d log=%d", b.CacheLen(), log.Count("pathfind", "cache_set"))
	}
}

func TestRuler_TokenAgainstWallStillDetours(t *testing.T) {
	// The token's centre cell sits inside the wall's padding.
	tok := scene.Token{ID: "tok1", X: 100, Y: 200}
	sc := scene.New(scene.WithSize(1000, 800), scene.WithWall(200, 0, 10, 400), scene.WithToken(tok))
	tok, _ = sc.Token("tok1")
	r := New(sc, scenePaths{sc})

	r.Start(ContextFor(sc, settings.Default(), &tok), tok.Center())
	segs := r.Measure(geom.Pt(450, 250))
	if len(segs) < 2 || r.PathBuilder().CacheLen() != 1 {
		t.Fatalf("drag past an adjacent wall should detour, segments=%d cache=%d", len(segs), r.PathBuilder().CacheLen())
	}
	for i, s := range segs {
		if sc.Walls.HasCollision(s.Ray.A, s.Ray.B) {
			t.Fatalf("hop %d (%v → %v) crosses the wall", i, s.Ray.A, s.Ray.B)
		}
	}
	if got := geom.Planar(segs[0].Ray.A); got != tok.Center() {
		t.Fatalf("route should start at the token centre, got %v", got)
	}
}

func TestPathBuilder_AvoidDifficultTerrain(t *testing.T) {
	// Mud across the top row between x=100 and x=400; nothing blocks the line.
	sc := scene.New(scene.WithGround(1, 0, 3, 1, terrain.GroundMud), scene.WithToken(scene.Token{ID: "tok1"}))
	tok, _ := sc.Token("tok1")
	seg := Segment{Ray: geom.NewRay3d(r3.Vec{X: 50, Y: 50}, r3.Vec{X: 550, Y: 50}), Label: newLabel()}
	if sc.HasCollision(seg.Ray.A, seg.Ray.B, tok) || !sc.HasTerrainPenalty(seg.Ray.A, seg.Ray.B, tok) {
		t.Fatal("line should be clear of walls but cross mud")
	}

	for _, avoid := range []bool{false, true} {
		s := settings.Default()
		s.AvoidDifficultTerrain = avoid
		paths := &countingPaths{next: scenePaths{sc}}
		b := NewPathBuilder(sc, paths, nil)
		out := b.Apply(ownerPass(sc, s, &tok), []Segment{seg})

		if !avoid {
			if paths.calls != 0 || len(out) != 1 || b.CacheLen() != 0 {
				t.Fatalf("avoidance off: line should stand (calls=%d segments=%d cache=%d)",
					paths.calls, len(out), b.CacheLen())
			}
			continue
		}
		if paths.calls != 1 {
			t.Fatalf("avoidance on: expected one search, got %d", paths.calls)
		}
		if len(out) < 2 || b.CacheLen() != 1 {
			t.Fatalf("avoidance on: expected a cached detour, segments=%d cache=%d", len(out), b.CacheLen())
		}
		if out[0].Ray.A != seg.Ray.A || out[len(out)-1].Ray.B != seg.Ray.B {
			t.Fatalf("detour should keep the endpoints, got %v … %v", out[0].Ray.A, out[len(out)-1].Ray.B)
		}
		below := false
		for _, o := range out {
			if o.Ray.B.Y >= 100 {
				below = true
			}
		}
		if !below {
			t.Fatalf("detour should leave the mud row, got %+v", out)
		}
	}
}

func TestConstructPathfindingSegments_Idempotent(t *testing.T) {
	b := NewPathBuilder(nil, nil, nil)
	label := newLabel()
	segs := []Segment{
		{Ray: geom.NewRay3d(r3.Vec{X: 0, Y: 0, Z: 10}, r3.Vec{X: 200, Y: 0, Z: 30}), Label: label},
		{Ray: geom.NewRay3d(r3.Vec{X: 200, Y: 0, Z: 30}, r3.Vec{X: 400, Y: 0, Z: 30}), Label: newLabel(), Leg: 1},
	}
	cache := map[geom.Point][]r3.Vec{
		geom.Pt(0, 0): {{X: 0, Y: 0}, {X: 50, Y: 80}, {X: 150, Y: 80}, {X: 200, Y: 0}},
	}

	once := b.ConstructPathfindingSegments(segs, cache)
	if len(once) != 4 {
		t.Fatalf("expected 3 hops plus the untouched leg, got %d", len(once))
	}
	if once[0].Ray.A.Z != 10 || once[1].Ray.A.Z != 0 || once[2].Ray.B.Z != 30 {
		t.Fatalf("hop heights wrong: %+v", []geom.Ray3d{once[0].Ray, once[1].Ray, once[2].Ray})
	}
	if once[2].Label != label || once[0].Label != nil {
		t.Fatal("only the final hop should carry the leg label")
	}

	twice := b.ConstructPathfindingSegments(once, cache)
	if diff := cmp.Diff(once, twice, segmentCmp...); diff != "" {
		t.Fatalf("second expansion changed segments (-once +twice):\n%s", diff)
	}
}

func TestConstructPathfindingSegments_EmptyCacheIsNoop(t *testing.T) {
	b := NewPathBuilder(nil, nil, nil)
	segs := []Segment{{Ray: geom.NewRay2d(geom.Pt(0, 0), geom.Pt(100, 0))}}
	out := b.ConstructPathfindingSegments(segs, map[geom.Point][]r3.Vec{})
	if diff := cmp.Diff(segs, out, segmentCmp...); diff != "" {
		t.Fatalf("empty cache should pass segments through:\n%s", diff)
	}
}

func TestPathBuilder_UpdateCacheKeepsOnlyDetours(t *testing.T) {
	log := eventlog.New(false)
	b := NewPathBuilder(nil, nil, log)
	origin := geom.Pt(10, 10)

	b.UpdateCache("tok1", origin, []r3.Vec{{X: 10, Y: 10}, {X: 50, Y: 90}, {X: 100, Y: 10}})
	if _, ok := b.Cached(origin); !ok {
		t.Fatal("three-point route should be cached")
	}
	b.UpdateCache("tok1", origin, []r3.Vec{{X: 10, Y: 10}, {X: 100, Y: 10}})
	if _, ok := b.Cached(origin); ok {
		t.Fatal("straight route should drop the cache entry")
	}
	if log.Count("pathfind", "cache_delete") != 1 {
		t.Fatalf("expected one delete entry, got %d", log.Count("pathfind", "cache_delete"))
	}
}

func TestPathBuilder_InactiveCases(t *testing.T) {
	sc, tok := blockedScene()
	seg := Segment{Ray: geom.NewRay3d(r3.Vec{}, r3.Vec{X: 200}), Label: newLabel()}

	toggled := settings.Default()
	toggled.ForcePathfindingToggle = true // inverts the enabled setting

	remote := ownerPass(sc, settings.Default(), &tok)
	remote.Owner = false

	cases := []struct {
		name string
		pass *Pass
	}{
		{"force toggle inverts enabled", ownerPass(sc, toggled, &tok)},
		{"remote ruler", remote},
		{"no token", ownerPass(sc, settings.Default(), nil)},
	}
	for _, c := range cases {
		paths := &countingPaths{next: scenePaths{sc}}
		b := NewPathBuilder(sc, paths, nil)
		out := b.Apply(c.pass, []Segment{seg})
		if len(out) != 1 || paths.calls != 0 || b.CacheLen() != 0 {
			t.Fatalf("%s: pathfinding should not run (segments=%d calls=%d cache=%d)",
				c.name, len(out), paths.calls, b.CacheLen())
		}
	}
}

func TestRuler_RetractToOriginClearsCache(t *testing.T) {
	sc, tok := blockedScene()
	paths := &countingPaths{next: scenePaths{sc}}
	log := eventlog.New(false)
	r := New(sc, paths, WithLog(log))

	origin := tok.Center()
	r.Start(ContextFor(sc, settings.Default(), &tok), origin)
	r.Measure(geom.Pt(200, 0))
	if r.PathBuilder().CacheLen() != 1 {
		t.Fatalf("blocked drag should cache a route, cache=%d", r.PathBuilder().CacheLen())
	}

	if segs := r.Measure(origin); len(segs) != 0 {
		t.Fatalf("drag back to origin should leave no segments, got %d", len(segs))
	}
	if r.PathBuilder().CacheLen() != 0 || !log.HasEntry("pathfind", "cache_clear", "1 entries") {
		t.Fatal("retracting to the origin should clear the cache")
	}

	before := paths.calls
	r.Measure(geom.Pt(200, 0))
	if paths.calls != before+1 || r.PathBuilder().CacheLen() != 1 {
		t.Fatalf("next drag should search again from cold (calls %d→%d)", before, paths.calls)
	}
}

func TestRuler_EarlierLegsKeepCachedRoute(t *testing.T) {
	sc, tok := blockedScene()
	paths := &countingPaths{next: scenePaths{sc}}
	r := New(sc, paths)

	r.Start(ContextFor(sc, settings.Default(), &tok), tok.Center())
	r.AddWaypoint(geom.Pt(200, 0))
	segs := r.Measure(geom.Pt(200, 300))

	if r.PathBuilder().CacheLen() != 1 {
		t.Fatalf("first leg's route should stay cached, cache=%d", r.PathBuilder().CacheLen())
	}
	labelled := 0
	for _, s := range segs {
		if s.Label != nil {
			labelled++
		}
	}
	if labelled != 2 {
		t.Fatalf("expected one label per leg, got %d", labelled)
	}
	if !segs[len(segs)-1].Last || !segs[0].First {
		t.Fatal("first and last segments should be flagged")
	}
}

// --- distances, speed and labels ------------------------------------------

func TestDistanceStage_LegTotalsCoverSubSegments(t *testing.T) {
	sc, tok := blockedScene()
	r := New(sc, scenePaths{sc})
	r.Start(ContextFor(sc, settings.Default(), &tok), tok.Center())
	segs := r.Measure(geom.Pt(200, 0))

	sum := 0.0
	for _, s := range segs {
		sum += s.Distance
	}
	last := segs[len(segs)-1]
	if math.Abs(last.WaypointDistance-sum) > 1e-9 {
		t.Fatalf("leg distance %v should equal the sum of its hops %v", last.WaypointDistance, sum)
	}
	if !strings.HasPrefix(last.Label.Text, formatNum(sum)+" ft") {
		t.Fatalf("label should report the leg distance, got %q", last.Label.Text)
	}
}

func TestElevationArrowMatchesSign(t *testing.T) {
	c := Context{Grid: scene.DefaultGrid(), Settings: settings.Default()}
	lc := LabelComposer{}
	for _, delta := range []float64{5, 2.5, 0.3, 0, -0.3, -5, -12.5} {
		want := arrowFlat
		if delta > 0 {
			want = arrowUp
		} else if delta < 0 {
			want = arrowDown
		}
		if got := ElevationArrow(delta); got != want {
			t.Fatalf("delta %v: arrow %q, want %q", delta, got, want)
		}
		seg := Segment{WaypointElevationIncrement: delta, WaypointDistance: 5, WaypointMoveDistance: 5}
		line := strings.Split(lc.SegmentLabel(c, seg, 5, false), "\n")[1]
		if !strings.HasPrefix(line, want+" ") {
			t.Fatalf("delta %v: elevation line %q should start with %q", delta, line, want)
		}
	}
}

func TestLabelComposer_Rounding(t *testing.T) {
	lc := LabelComposer{}
	c := Context{Grid: scene.DefaultGrid(), Settings: settings.Default()}
	c.Settings.RoundToMultiple = 5

	inputs := [][3]float64{{7.3, 11.2, 18.9}, {2.4, 2.6, 102.49}, {0, 0.1, 12.5}}
	for _, in := range inputs {
		d, m, tot := lc.Round(c, in[0], in[1], in[2])
		for _, v := range []float64{d, m, tot} {
			if math.Mod(v, 5) != 0 {
				t.Fatalf("round(%v) gave %v, not a multiple of 5", in, v)
			}
		}
	}

	c.Settings.RoundToMultiple = 0
	d, m, tot := lc.Round(c, 7.3333, 3.14159, 18.987)
	if d != 7.3333 || tot != 18.987 || m != 3.14 {
		t.Fatalf("without a multiple only move distance rounds: got %v %v %v", d, m, tot)
	}

	c.Settings.RoundToMultiple = 5
	c.Grid.Type = scene.Gridless
	if d, _, _ := lc.Round(c, 7.3, 0, 0); d != 7.3 {
		t.Fatalf("gridless canvas should not round to a multiple, got %v", d)
	}
}

func TestRuler_LabelsForTwoLegs(t *testing.T) {
	sc := scene.New(
		scene.WithLevel("Balcony", 5, 15),
		scene.WithToken(scene.Token{ID: "tok1"}),
	)
	tok, _ := sc.Token("tok1")
	r := New(sc, nil)
	r.Start(ContextFor(sc, settings.Default(), &tok), tok.Center())

	r.IncrementElevation()
	r.AddWaypoint(geom.Pt(350, 50))
	r.Measure(geom.Pt(350, 250))

	got := r.Labels()
	want := []string{
		"15 ft\n↑ 5 ft [5 ft] Balcony",
		"10 ft [25 ft]\n↕ 0 ft [5 ft] Balcony",
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d labels, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].Text != want[i] {
			t.Fatalf("label %d:\n got %q\nwant %q", i, got[i].Text, want[i])
		}
	}
	if got[1].Position != geom.Pt(350, 250) {
		t.Fatalf("label should sit at the leg end, got %+v", got[1].Position)
	}
}

func TestRuler_LevelNameFollowsLabelMode(t *testing.T) {
	sc := scene.New(scene.WithLevel("Cellar", -10, 0), scene.WithToken(scene.Token{ID: "tok1"}))
	tok, _ := sc.Token("tok1")
	s := settings.Default()
	s.LevelsLabels = settings.LevelsUI

	r := New(sc, nil)
	r.Start(ContextFor(sc, s, &tok), tok.Center())
	r.DecrementElevation()
	r.Measure(geom.Pt(350, 50))
	if text := r.Labels()[0].Text; strings.Contains(text, "Cellar") {
		t.Fatalf("level name needs the levels UI open, got %q", text)
	}

	sc.SetLevelsUI(true)
	r.SetContext(ContextFor(sc, s, &tok))
	r.Measure(geom.Pt(350, 50))
	if text := r.Labels()[0].Text; !strings.Contains(text, "↓ 5 ft [-5 ft] Cellar") {
		t.Fatalf("expected cellar level on the elevation line, got %q", text)
	}
}

func TestRuler_TerrainAndCombatLines(t *testing.T) {
	sc := scene.New(
		scene.WithGround(1, 0, 2, 1, terrain.GroundMud),
		scene.WithCombat(true),
		scene.WithToken(scene.Token{ID: "tok1", LastMoveDistance: 10}),
	)
	tok, _ := sc.Token("tok1")
	r := New(sc, nil)
	r.Start(ContextFor(sc, settings.Default(), &tok), tok.Center())
	r.Measure(geom.Pt(350, 50))

	lines := strings.Split(r.Labels()[0].Text, "\n")
	if len(lines) != 4 {
		t.Fatalf("expected distance, elevation, terrain and prior lines, got %q", lines)
	}
	if lines[2] != "🥾 22.5 ft" {
		t.Fatalf("terrain line: got %q", lines[2])
	}
	if lines[3] != "Prior: 10 ft" {
		t.Fatalf("prior move line: got %q", lines[3])
	}
}

func TestSpeedStage_SplitsAtTierLimits(t *testing.T) {
	sc := scene.New(scene.WithToken(scene.Token{ID: "tok1", Speed: 30}))
	tok, _ := sc.Token("tok1")
	s := settings.Default()
	s.SpeedHighlighting = settings.SpeedAlways

	r := New(sc, nil)
	r.Start(ContextFor(sc, s, &tok), tok.Center())
	segs := r.Measure(geom.Pt(1450, 50)) // 14 cells = 70 ft

	if len(segs) != 3 {
		t.Fatalf("expected walk/dash/maximum pieces, got %d", len(segs))
	}
	wantNames := []string{"walk", "dash", "maximum"}
	wantDist := []float64{30, 30, 10}
	for i, seg := range segs {
		if seg.Speed == nil || seg.Speed.Name != wantNames[i] {
			t.Fatalf("piece %d: speed %+v, want %s", i, seg.Speed, wantNames[i])
		}
		if math.Abs(seg.Distance-wantDist[i]) > 1e-9 {
			t.Fatalf("piece %d: distance %v, want %v", i, seg.Distance, wantDist[i])
		}
		if (seg.Label != nil) != (i == 2) {
			t.Fatalf("only the last piece should keep the label (piece %d)", i)
		}
	}
	if math.Abs(segs[0].Ray.B.X-650) > 1e-6 || segs[1].Ray.A != segs[0].Ray.B {
		t.Fatalf("walk should end 30 ft out at x=650, got %v", segs[0].Ray.B)
	}
}

func TestSpeedStage_CombatHistoryShiftsTiers(t *testing.T) {
	sc := scene.New(
		scene.WithCombat(true),
		scene.WithToken(scene.Token{ID: "tok1", Speed: 30, LastMoveDistance: 20}),
	)
	tok, _ := sc.Token("tok1")
	r := New(sc, nil)
	r.Start(ContextFor(sc, settings.Default(), &tok), tok.Center())
	segs := r.Measure(geom.Pt(1450, 50))

	wantDist := []float64{10, 30, 30}
	if len(segs) != len(wantDist) {
		t.Fatalf("expected %d pieces, got %d", len(wantDist), len(segs))
	}
	for i, seg := range segs {
		if math.Abs(seg.Distance-wantDist[i]) > 1e-9 {
			t.Fatalf("piece %d: distance %v, want %v", i, seg.Distance, wantDist[i])
		}
	}
}

func TestSpeedStage_OffOutsideCombat(t *testing.T) {
	sc := scene.New(scene.WithToken(scene.Token{ID: "tok1", Speed: 30}))
	tok, _ := sc.Token("tok1")
	r := New(sc, nil)
	r.Start(ContextFor(sc, settings.Default(), &tok), tok.Center())
	segs := r.Measure(geom.Pt(1450, 50))
	if len(segs) != 1 || segs[0].Speed != nil {
		t.Fatalf("combat-only highlighting should leave the path whole, got %d segments", len(segs))
	}
}

// --- highlighting ---------------------------------------------------------

func TestHighlighter_PlanarCellsAndRestore(t *testing.T) {
	target := &recordingHighlighter{}
	h := &Highlighter{Target: target, Layer: "ruler.test", Color: DefaultColor}
	tok := scene.Token{ID: "tok1", Speed: 30}
	s := settings.Default()
	s.SpeedHighlighting = settings.SpeedAlways
	p := &Pass{Context: Context{Grid: scene.DefaultGrid(), Settings: s, Token: &tok}}

	tier := DefaultSpeedTiers[1]
	seg := Segment{Ray: geom.NewRay3d(r3.Vec{}, r3.Vec{X: 300, Z: 400}), Speed: &tier}
	h.HighlightSegment(p, &seg)

	if len(target.calls) != 1 {
		t.Fatalf("expected one highlight call, got %d", len(target.calls))
	}
	call := target.calls[0]
	wantCells := []geom.Point{geom.Pt(0, 0), geom.Pt(100, 0), geom.Pt(200, 0), geom.Pt(300, 0)}
	if diff := cmp.Diff(wantCells, call.shape.Cells); diff != "" {
		t.Fatalf("cells should follow the planar length (-want +got):\n%s", diff)
	}
	if call.color != tier.Color {
		t.Fatalf("segment should paint in its tier colour, got %v", call.color)
	}
	if h.Color != DefaultColor {
		t.Fatalf("ruler colour should be restored, got %v", h.Color)
	}
	if d := seg.Ray.HighlightDistance(); math.Abs(d-500) > 1e-9 {
		t.Fatalf("ray distance should be restored to 500, got %v", d)
	}
}

func TestHighlighter_RestoresAfterPanic(t *testing.T) {
	target := &recordingHighlighter{panicOn: 1}
	h := &Highlighter{Target: target, Color: DefaultColor}
	tok := scene.Token{ID: "tok1"}
	s := settings.Default()
	s.SpeedHighlighting = settings.SpeedAlways
	p := &Pass{Context: Context{Grid: scene.DefaultGrid(), Settings: s, Token: &tok}}
	tier := DefaultSpeedTiers[2]
	seg := Segment{Ray: geom.NewRay3d(r3.Vec{}, r3.Vec{X: 0, Y: 300, Z: 400}), Speed: &tier}

	func() {
		defer func() { _ = recover() }()
		h.HighlightSegment(p, &seg)
	}()
	if h.Color != DefaultColor {
		t.Fatalf("colour should be restored after a failed render, got %v", h.Color)
	}
	if d := seg.Ray.HighlightDistance(); math.Abs(d-500) > 1e-9 {
		t.Fatalf("distance override should be released after a failed render, got %v", d)
	}
}

func TestHighlighter_GridlessBand(t *testing.T) {
	target := &recordingHighlighter{}
	h := &Highlighter{Target: target, Color: DefaultColor}
	g := scene.Grid{Type: scene.Gridless, Size: 100, Distance: 5, Units: "ft"}
	p := &Pass{Context: Context{Grid: g, Settings: settings.Default()}}
	seg := Segment{Ray: geom.NewRay2d(geom.Pt(0, 0), geom.Pt(300, 0))}

	h.HighlightSegment(p, &seg)
	want := []geom.Point{geom.Pt(0, 25), geom.Pt(300, 25), geom.Pt(300, -25), geom.Pt(0, -25)}
	if diff := cmp.Diff(want, target.calls[0].shape.Polygon); diff != "" {
		t.Fatalf("band polygon mismatch (-want +got):\n%s", diff)
	}
}

func TestRuler_HighlightsEveryMeasure(t *testing.T) {
	sc := scene.New(scene.WithToken(scene.Token{ID: "tok1"}))
	tok, _ := sc.Token("tok1")
	target := &recordingHighlighter{}
	r := New(sc, nil, WithUser("gm"), WithHighlighter(target, DefaultColor))
	r.Start(ContextFor(sc, settings.Default(), &tok), tok.Center())
	r.AddWaypoint(geom.Pt(350, 50))
	r.Measure(geom.Pt(350, 350))

	if len(target.calls) != 3 {
		t.Fatalf("expected 1 + 2 highlight calls over two measures, got %d", len(target.calls))
	}
	if target.calls[0].layer != "ruler.gm" {
		t.Fatalf("layer should be named after the user, got %q", target.calls[0].layer)
	}
}

// --- remote replay ----------------------------------------------------------

func TestRuler_SnapshotReplayUsesLabelIDs(t *testing.T) {
	sc, tok := blockedScene()
	local := New(sc, scenePaths{sc}, WithUser("alice"))
	local.Start(ContextFor(sc, settings.Default(), &tok), tok.Center())
	local.AddWaypoint(geom.Pt(200, 0))
	local.Measure(geom.Pt(200, 300))

	raw, err := json.Marshal(local.Snapshot())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if snap.Grid != sc.Grid {
		t.Fatalf("snapshot should carry the grid, got %+v", snap.Grid)
	}

	paths := &countingPaths{next: scenePaths{sc}}
	hl := &recordingHighlighter{}
	remote := New(sc, paths, WithUser("bob"), WithHighlighter(hl, DefaultColor))
	got := remote.Replay(snap)

	if paths.calls != 0 {
		t.Fatalf("remote ruler should never pathfind, built %d pathfinders", paths.calls)
	}
	if diff := cmp.Diff(local.Segments(), got, cmpopts.IgnoreUnexported(Segment{}, geom.Ray3d{})); diff != "" {
		t.Fatalf("replayed segments differ (-local +remote):\n%s", diff)
	}
	if remote.Context().Grid != sc.Grid || len(hl.calls) == 0 {
		t.Fatalf("replay should highlight on the snapshot's grid, grid=%+v calls=%d", remote.Context().Grid, len(hl.calls))
	}
	cells := 0
	for _, c := range hl.calls {
		for _, cell := range c.shape.Cells {
			cells++
			if math.Mod(cell.X, sc.Grid.Size) != 0 || math.Mod(cell.Y, sc.Grid.Size) != 0 {
				t.Fatalf("highlighted cell should sit on the grid, got %+v", cell)
			}
		}
	}
	if cells == 0 {
		t.Fatal("replay should highlight grid cells")
	}

	// Drop the first label: its segment replays without one.
	snap.Labels = snap.Labels[1:]
	got = remote.Replay(snap)
	labelled := 0
	for _, s := range got {
		if s.Label != nil {
			labelled++
		}
	}
	if labelled != 1 {
		t.Fatalf("expected one surviving label, got %d", labelled)
	}
}

func TestRuler_RemoveWaypointAndClear(t *testing.T) {
	sc := scene.New(scene.WithToken(scene.Token{ID: "tok1"}))
	tok, _ := sc.Token("tok1")
	r := New(sc, nil)
	r.Start(ContextFor(sc, settings.Default(), &tok), tok.Center())
	r.IncrementElevation()
	r.AddWaypoint(geom.Pt(350, 50))
	r.IncrementElevation()
	r.Measure(geom.Pt(650, 50))

	r.RemoveWaypoint()
	if r.Increments() != 0 {
		t.Fatalf("removing a waypoint should restore the origin's increments, got %d", r.Increments())
	}
	if n := len(r.Segments()); n != 1 {
		t.Fatalf("expected a single leg after removal, got %d", n)
	}
	r.RemoveWaypoint()
	if r.Active() || len(r.Segments()) != 0 {
		t.Fatal("removing the origin should end the measurement")
	}
}
