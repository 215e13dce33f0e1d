package render

import (
	"bytes"
	"fmt"
	"image/color"

	"github.com/Garsondee/elevation-ruler/internal/ruler"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	labelFontSize    = 14
	labelLineSpacing = 18
	labelPad         = 4
)

// LabelDrawer draws ruler labels as boxed multi-line text.
type LabelDrawer struct {
	face *text.GoTextFace
}

// NewLabelDrawer loads the bundled Go Regular face.
func NewLabelDrawer() (*LabelDrawer, error) {
	src, err := text.NewGoTextFaceSource(bytes.NewReader(goregular.TTF))
	if err != nil {
		return nil, fmt.Errorf("load label font: %w", err)
	}
	return &LabelDrawer{face: &text.GoTextFace{Source: src, Size: labelFontSize}}, nil
}

// Draw renders each label just below and right of its anchor.
func (d *LabelDrawer) Draw(dst *ebiten.Image, labels []ruler.Label) {
	for _, l := range labels {
		if l.Text == "" {
			continue
		}
		w, h := text.Measure(l.Text, d.face, labelLineSpacing)
		x := float32(l.Position.X) + 8
		y := float32(l.Position.Y) + 8
		vector.FillRect(dst, x, y, float32(w)+2*labelPad, float32(h)+2*labelPad, color.RGBA{R: 10, G: 12, B: 10, A: 210}, false)
		vector.StrokeRect(dst, x, y, float32(w)+2*labelPad, float32(h)+2*labelPad, 1, color.RGBA{R: 90, G: 110, B: 90, A: 255}, false)

		op := &text.DrawOptions{}
		op.GeoM.Translate(float64(x+labelPad), float64(y+labelPad))
		op.ColorScale.ScaleWithColor(color.White)
		op.LineSpacing = labelLineSpacing
		text.Draw(dst, l.Text, d.face, op)
	}
}
