package ruler

import (
	"image/color"
	"math"

	"github.com/Garsondee/elevation-ruler/internal/geom"
)

// Shape is what one highlight call paints: whole grid cells (top-left
// corners) and, on gridless canvases, a polygon.
type Shape struct {
	Cells   []geom.Point
	Polygon []geom.Point
}

// GridHighlighter is the host's grid highlighting primitive.
type GridHighlighter interface {
	Highlight(layer string, c color.RGBA, shape Shape)
	ClearLayer(layer string)
}

// bandWidth is the half-width of the gridless band as a fraction of a cell.
const bandWidth = 0.25

// Highlighter paints measured segments on the grid in the ruler colour, or in
// the segment's speed tier colour when speed highlighting is on.
type Highlighter struct {
	Target GridHighlighter
	Layer  string
	Color  color.RGBA
}

// Apply implements Stage. It repaints the layer and returns segs unchanged.
func (h *Highlighter) Apply(p *Pass, segs []Segment) []Segment {
	if h.Target == nil {
		return segs
	}
	h.Target.ClearLayer(h.Layer)
	for i := range segs {
		h.HighlightSegment(p, &segs[i])
	}
	return segs
}

// acquire sets up the render state for seg: the ray's highlight distance
// becomes its planar length, since cell sampling does not know about
// elevation, and the colour switches to the speed tier. release undoes both.
func (h *Highlighter) acquire(p *Pass, seg *Segment) (release func()) {
	restoreDist := seg.Ray.OverrideDistance(seg.Ray.PlanarDistance())
	prev := h.Color
	if seg.Speed != nil && p.Token != nil && p.Settings.SpeedHighlightingActive(p.InCombat) {
		h.Color = seg.Speed.Color
	}
	return func() {
		h.Color = prev
		restoreDist()
	}
}

// HighlightSegment paints one segment.
func (h *Highlighter) HighlightSegment(p *Pass, seg *Segment) {
	release := h.acquire(p, seg)
	defer release()

	shape := Shape{Cells: sampleCells(p, seg.Ray.HighlightDistance(), seg)}
	if p.Grid.IsGridless() {
		shape.Polygon = band(seg, p.Grid.Size*bandWidth)
	}
	h.Target.Highlight(h.Layer, h.Color, shape)
}

// sampleCells walks the ray at just under one cell diagonal per step and
// collects each distinct cell it lands in.
func sampleCells(p *Pass, dist float64, seg *Segment) []geom.Point {
	size := p.Grid.Size
	if size <= 0 {
		return nil
	}
	n := max(int(math.Floor(dist/(math.Sqrt(0.5)*size))), 1)
	seen := make(map[geom.Point]bool, n+1)
	var cells []geom.Point
	for i := 0; i <= n; i++ {
		pt := geom.Planar(seg.Ray.At(float64(i) / float64(n)))
		col, row := p.Grid.CellAt(pt)
		tl := geom.Pt(float64(col)*size, float64(row)*size)
		if seen[tl] {
			continue
		}
		seen[tl] = true
		cells = append(cells, tl)
	}
	return cells
}

// band returns the rectangle around the planar ray offset by w on each side.
func band(seg *Segment, w float64) []geom.Point {
	a, b := geom.Planar(seg.Ray.A), geom.Planar(seg.Ray.B)
	d := geom.Dist(a, b)
	if d == 0 {
		return nil
	}
	off := geom.Pt(-(b.Y-a.Y)/d*w, (b.X-a.X)/d*w)
	return []geom.Point{a.Add(off), b.Add(off), b.Sub(off), a.Sub(off)}
}
