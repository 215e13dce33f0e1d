// Package render draws the scene, ruler highlights, labels and the event log
// with ebiten.
package render

import (
	"image/color"
	"sort"
	"sync"

	"github.com/Garsondee/elevation-ruler/internal/ruler"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// cellAlpha is the fill alpha for highlighted grid cells.
const cellAlpha = 90

type paint struct {
	color color.RGBA
	shape ruler.Shape
}

// Layers is the grid highlight surface. Each ruler paints into its own named
// layer; Draw composites every layer onto the world image.
type Layers struct {
	CellSize float64

	mu     sync.Mutex
	layers map[string][]paint
}

// NewLayers returns an empty highlight surface for cells of the given size.
func NewLayers(cellSize float64) *Layers {
	return &Layers{CellSize: cellSize, layers: make(map[string][]paint)}
}

// Highlight implements ruler.GridHighlighter.
func (l *Layers) Highlight(layer string, c color.RGBA, shape ruler.Shape) {
	l.mu.Lock()
	l.layers[layer] = append(l.layers[layer], paint{color: c, shape: shape})
	l.mu.Unlock()
}

// ClearLayer implements ruler.GridHighlighter.
func (l *Layers) ClearLayer(layer string) {
	l.mu.Lock()
	delete(l.layers, layer)
	l.mu.Unlock()
}

// CellCount is the number of distinct cells painted in a layer.
func (l *Layers) CellCount(layer string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	seen := map[[2]float64]bool{}
	for _, p := range l.layers[layer] {
		for _, c := range p.shape.Cells {
			seen[[2]float64{c.X, c.Y}] = true
		}
	}
	return len(seen)
}

// Names lists the non-empty layers in sorted order.
func (l *Layers) Names() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	names := make([]string, 0, len(l.layers))
	for n := range l.layers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Draw paints every layer. A cell painted twice in one layer keeps the later
// colour, so speed tiers read correctly where segments meet.
func (l *Layers) Draw(dst *ebiten.Image) {
	size := float32(l.CellSize)
	for _, name := range l.Names() {
		l.mu.Lock()
		paints := append([]paint(nil), l.layers[name]...)
		l.mu.Unlock()

		cells := map[[2]float64]color.RGBA{}
		var order [][2]float64
		for _, p := range paints {
			for _, c := range p.shape.Cells {
				k := [2]float64{c.X, c.Y}
				if _, ok := cells[k]; !ok {
					order = append(order, k)
				}
				cells[k] = p.color
			}
		}
		for _, k := range order {
			c := cells[k]
			c.A = cellAlpha
			vector.FillRect(dst, float32(k[0]), float32(k[1]), size, size, c, false)
		}

		for _, p := range paints {
			if len(p.shape.Polygon) < 3 {
				continue
			}
			var path vector.Path
			path.MoveTo(float32(p.shape.Polygon[0].X), float32(p.shape.Polygon[0].Y))
			for _, pt := range p.shape.Polygon[1:] {
				path.LineTo(float32(pt.X), float32(pt.Y))
			}
			path.Close()

			op := &vector.DrawPathOptions{AntiAlias: true}
			c := p.color
			c.A = cellAlpha
			op.ColorScale.ScaleWithColor(c)
			vector.FillPath(dst, &path, &vector.FillOptions{}, op)
		}
	}
}
