package ruler

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Garsondee/elevation-ruler/internal/geom"
)

// Elevation arrows, by sign of the leg's elevation change.
const (
	arrowUp   = "↑"
	arrowDown = "↓"
	arrowFlat = "↕"
)

// LabelComposer writes the text of every labelled segment.
type LabelComposer struct {
	Levels LevelSource
}

// Apply implements Stage. The running total shows on the last label once the
// path has more than one leg.
func (lc LabelComposer) Apply(p *Pass, segs []Segment) []Segment {
	lastLabelled, labelled := -1, 0
	for i, s := range segs {
		if s.Label != nil {
			lastLabelled = i
			labelled++
		}
	}

	total := 0.0
	for i := range segs {
		s := &segs[i]
		if s.Label == nil {
			continue
		}
		total += s.WaypointDistance
		s.Label.Text = lc.SegmentLabel(p.Context, *s, total, labelled > 1 && i == lastLabelled)
		s.Label.Position = geom.Planar(s.Ray.B)
	}
	return segs
}

// Round applies the rounding policy to a segment distance, its move distance
// and the running total.
func (lc LabelComposer) Round(c Context, dist, move, total float64) (float64, float64, float64) {
	if m := c.Settings.RoundToMultiple; m > 0 && !c.Grid.IsGridless() {
		return roundMultiple(dist, m), roundMultiple(move, m), roundMultiple(total, m)
	}
	return dist, math.Round(move*100) / 100, total
}

// SegmentLabel composes the multi-line label for seg.
func (lc LabelComposer) SegmentLabel(c Context, seg Segment, total float64, showTotal bool) string {
	units := c.Grid.Units
	dist, move, total := lc.Round(c, seg.WaypointDistance, seg.WaypointMoveDistance, total)

	first := fmt.Sprintf("%s %s", formatNum(dist), units)
	if showTotal {
		first += fmt.Sprintf(" [%s %s]", formatNum(total), units)
	}
	lines := []string{first, lc.elevationLine(c, seg)}

	if move != dist {
		lines = append(lines, fmt.Sprintf("%s %s %s", c.Settings.TerrainGlyph, formatNum(move), units))
	}
	if c.InCombat && c.Settings.CombatHistoryHighlighting && c.Token != nil && c.Token.LastMoveDistance > 0 {
		lines = append(lines, fmt.Sprintf("Prior: %s %s", formatNum(c.Token.LastMoveDistance), units))
	}
	return strings.Join(lines, "\n")
}

func (lc LabelComposer) elevationLine(c Context, seg Segment) string {
	units := c.Grid.Units
	delta := seg.WaypointElevationIncrement
	current := c.Grid.ToUnits(seg.Ray.B.Z)

	line := fmt.Sprintf("%s %s %s [%s %s]",
		ElevationArrow(delta), formatNum(math.Round(math.Abs(delta)*10)/10), units,
		formatNum(current), units)
	if lc.Levels != nil && c.Settings.ShowLevelName(c.LevelsUIActive) {
		if lvl, ok := lc.Levels.LevelAt(current); ok && lvl.Name != "" {
			line += " " + lvl.Name
		}
	}
	return line
}

// ElevationArrow maps the sign of an elevation change to its glyph.
func ElevationArrow(delta float64) string {
	switch {
	case delta > 0:
		return arrowUp
	case delta < 0:
		return arrowDown
	default:
		return arrowFlat
	}
}

func roundMultiple(v, m float64) float64 { return math.Round(v/m) * m }

// formatNum prints at most two decimals and trims trailing zeros.
func formatNum(v float64) string {
	v = math.Round(v*100) / 100
	if v == 0 {
		v = 0 // drop negative zero
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
