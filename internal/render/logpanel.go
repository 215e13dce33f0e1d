package render

import (
	"image/color"
	"sync"

	"github.com/Garsondee/elevation-ruler/internal/eventlog"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

const (
	LogPanelWidth = 360
	logMaxEntries = 60
	logLineHeight = 14
)

// LogPanel is a ring buffer of recent events shown beside the canvas. It is
// fed through eventlog.Log.SetSink, which may fire from the movement goroutine.
type LogPanel struct {
	mu      sync.Mutex
	entries []eventlog.Entry
	head    int
	count   int
}

// NewLogPanel creates a panel with a fixed capacity.
func NewLogPanel() *LogPanel {
	return &LogPanel{entries: make([]eventlog.Entry, logMaxEntries)}
}

// Add appends an entry, overwriting the oldest when full.
func (lp *LogPanel) Add(e eventlog.Entry) {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	lp.entries[lp.head] = e
	lp.head = (lp.head + 1) % logMaxEntries
	if lp.count < logMaxEntries {
		lp.count++
	}
}

// Recent returns entries oldest first.
func (lp *LogPanel) Recent() []eventlog.Entry {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	out := make([]eventlog.Entry, lp.count)
	for i := 0; i < lp.count; i++ {
		out[i] = lp.entries[(lp.head-lp.count+i+logMaxEntries)%logMaxEntries]
	}
	return out
}

// categoryColor tints the marker beside each row.
func categoryColor(category string) color.RGBA {
	switch category {
	case "pathfind":
		return color.RGBA{R: 200, G: 120, B: 240, A: 255}
	case "move":
		return color.RGBA{R: 90, G: 200, B: 110, A: 255}
	case "ruler":
		return color.RGBA{R: 0, G: 190, B: 255, A: 255}
	default:
		return color.RGBA{R: 150, G: 150, B: 150, A: 255}
	}
}

// Draw renders the panel at panelX with the newest entry at the bottom.
func (lp *LogPanel) Draw(screen *ebiten.Image, panelX, panelH int) {
	vector.FillRect(screen, float32(panelX), 0, LogPanelWidth, float32(panelH), color.RGBA{R: 10, G: 12, B: 10, A: 248}, false)
	vector.StrokeLine(screen, float32(panelX), 0, float32(panelX), float32(panelH), 1.0, color.RGBA{R: 50, G: 70, B: 50, A: 255}, false)

	vector.FillRect(screen, float32(panelX), 0, LogPanelWidth, 16, color.RGBA{R: 20, G: 30, B: 20, A: 255}, false)
	ebitenutil.DebugPrintAt(screen, "EVENTS", panelX+8, 0)

	entries := lp.Recent()
	maxVisible := (panelH - 24) / logLineHeight
	if len(entries) > maxVisible {
		entries = entries[len(entries)-maxVisible:]
	}

	y := 20
	for i, e := range entries {
		if i >= len(entries)-3 {
			vector.FillRect(screen, float32(panelX+2), float32(y), LogPanelWidth-4, logLineHeight, color.RGBA{R: 30, G: 40, B: 30, A: 160}, false)
		}
		vector.FillRect(screen, float32(panelX+5), float32(y+4), 3, 6, categoryColor(e.Category), false)
		ebitenutil.DebugPrintAt(screen, e.Token+" "+e.Key+" "+e.Value, panelX+12, y)
		y += logLineHeight
	}
}
