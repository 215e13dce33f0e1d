// Package app is the desktop front end: an ebiten game that drives the ruler
// from mouse and keyboard and drops tokens along the measured path.
package app

import (
	"context"
	"errors"
	"fmt"
	"image/color"

	"github.com/Garsondee/elevation-ruler/internal/eventlog"
	"github.com/Garsondee/elevation-ruler/internal/geom"
	"github.com/Garsondee/elevation-ruler/internal/movement"
	"github.com/Garsondee/elevation-ruler/internal/render"
	"github.com/Garsondee/elevation-ruler/internal/ruler"
	"github.com/Garsondee/elevation-ruler/internal/scene"
	"github.com/Garsondee/elevation-ruler/internal/settings"
	"github.com/atotto/clipboard"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// borderWidth is the pixel gap between the window edge and the canvas.
const borderWidth = 24

// Game implements ebiten.Game.
type Game struct {
	width, height int
	offX, offY    int

	scene    *scene.Scene
	settings settings.Settings
	log      *eventlog.Log
	svc      *movement.Service
	ruler    *ruler.Ruler

	layers   *render.Layers
	labels   *render.LabelDrawer
	logPanel *render.LogPanel
	worldBuf *ebiten.Image

	prevKeys map[ebiten.Key]bool
	dragging string // token being measured from, "" when idle
	lastDest geom.Point
	showHUD  bool

	// A drop runs on its own goroutine while Update keeps stepping animations.
	moving   bool
	moveDone chan error
}

// New builds the game over sc. The ruler highlights into its own layer and
// every log entry is mirrored to the side panel.
func New(sc *scene.Scene, s settings.Settings, log *eventlog.Log) (*Game, error) {
	labels, err := render.NewLabelDrawer()
	if err != nil {
		return nil, err
	}
	panel := render.NewLogPanel()
	log.SetSink(panel.Add)

	layers := render.NewLayers(sc.Grid.Size)
	svc := movement.NewService(sc, log)
	r := ruler.New(sc, svc,
		ruler.WithLog(log),
		ruler.WithHighlighter(layers, ruler.DefaultColor),
	)

	w, h := int(sc.Width), int(sc.Height)
	g := &Game{
		width:    borderWidth + w + borderWidth + render.LogPanelWidth,
		height:   borderWidth + h + borderWidth,
		offX:     borderWidth,
		offY:     borderWidth,
		scene:    sc,
		settings: s,
		log:      log,
		svc:      svc,
		ruler:    r,
		layers:   layers,
		labels:   labels,
		logPanel: panel,
		worldBuf: ebiten.NewImage(w, h),
		prevKeys: make(map[ebiten.Key]bool),
		showHUD:  true,
		moveDone: make(chan error, 1),
	}
	log.Addf("", "config", "settings", 0, "ruler=%t pathfinding=%t speed=%s levels=%s round=%g",
		s.RulerEnabled, s.PathfindingEnabled, s.SpeedHighlighting, s.LevelsLabels, s.RoundToMultiple)
	return g, nil
}

// Size is the window size the game lays out to.
func (g *Game) Size() (int, int) { return g.width, g.height }

func (g *Game) Update() error {
	g.scene.Step()

	if g.moving {
		select {
		case err := <-g.moveDone:
			g.moving = false
			g.finishMove(err)
		default:
			// the ruler belongs to the drop until it finishes
			return nil
		}
	}

	g.handleInput()
	return nil
}

func (g *Game) finishMove(err error) {
	// A blocked drop leaves the ruler up so the path can be corrected.
	if err == nil || errors.Is(err, movement.ErrMovementBlocked) {
		return
	}
	g.log.Add("", "move", "error", err.Error(), 0)
	g.ruler.Clear()
}

// justPressed reports a key going down this frame.
func (g *Game) justPressed(current map[ebiten.Key]bool, k ebiten.Key) bool {
	current[k] = ebiten.IsKeyPressed(k)
	return current[k] && !g.prevKeys[k]
}

func (g *Game) mouse() geom.Point {
	mx, my := ebiten.CursorPosition()
	return geom.Pt(float64(mx-g.offX), float64(my-g.offY))
}

func (g *Game) handleInput() {
	current := map[ebiten.Key]bool{}
	defer func() { g.prevKeys = current }()

	if g.justPressed(current, ebiten.KeyH) {
		g.showHUD = !g.showHUD
	}
	if g.justPressed(current, ebiten.KeyK) {
		g.scene.SetCombat(!g.scene.InCombat())
		g.log.Addf("", "config", "combat", 0, "combat %t", g.scene.InCombat())
		g.refreshContext()
	}
	if g.justPressed(current, ebiten.KeyN) && g.scene.InCombat() {
		round := g.scene.NextRound()
		g.log.Addf("", "config", "round", float64(round), "round %d", round)
		g.refreshContext()
	}
	if g.justPressed(current, ebiten.KeyL) {
		g.scene.SetLevelsUI(!g.scene.LevelsUIActive())
		g.refreshContext()
	}

	// Holding F inverts the configured pathfinding setting.
	held := ebiten.IsKeyPressed(ebiten.KeyF)
	if held != g.settings.ForcePathfindingToggle {
		g.settings.ForcePathfindingToggle = held
		g.refreshContext()
	}

	left := ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
	p := g.mouse()

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		g.beginDrag(p)
	}

	if g.ruler.Active() {
		if g.justPressed(current, ebiten.KeySpace) {
			g.ruler.AddWaypoint(p)
		}
		if g.justPressed(current, ebiten.KeyBackspace) {
			g.ruler.RemoveWaypoint()
		}
		if g.justPressed(current, ebiten.KeyBracketRight) {
			g.ruler.IncrementElevation()
		}
		if g.justPressed(current, ebiten.KeyBracketLeft) {
			g.ruler.DecrementElevation()
		}
		if g.justPressed(current, ebiten.KeyC) {
			g.copyLabel()
		}
		if g.justPressed(current, ebiten.KeyEscape) {
			g.ruler.Clear()
			g.dragging = ""
			return
		}
		if left && p != g.lastDest {
			g.ruler.Measure(p)
			g.lastDest = p
		}
	}

	if inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft) {
		g.endDrag(p)
	}
}

// beginDrag starts a ruler at p: from the token under the cursor when the
// token ruler is enabled, otherwise a free measurement with nothing to drop.
// A disabled token ruler leaves a press on a token alone.
func (g *Game) beginDrag(p geom.Point) {
	tok, ok := g.scene.TokenAt(p)
	if !ok {
		g.ruler.Start(ruler.ContextFor(g.scene, g.settings, nil), p)
		return
	}
	if !g.settings.RulerEnabled {
		return
	}
	g.dragging = tok.ID
	g.ruler.Start(ruler.ContextFor(g.scene, g.settings, &tok), tok.Center())
}

// endDrag drops the dragged token along the measured path. It reports whether
// a move was started.
func (g *Game) endDrag(p geom.Point) bool {
	if g.dragging == "" {
		return false
	}
	g.dragging = ""
	if !g.settings.RulerEnabled || !g.ruler.Active() {
		return false
	}
	g.ruler.Measure(p)
	g.moving = true
	go func() { g.moveDone <- g.svc.MoveToken(context.Background(), g.ruler) }()
	return true
}

// refreshContext re-reads combat and toggle state into an active ruler and
// re-measures so highlighting and pathing follow immediately.
func (g *Game) refreshContext() {
	if !g.ruler.Active() {
		return
	}
	var tokp *scene.Token
	if c := g.ruler.Context(); c.Token != nil {
		if tok, ok := g.scene.Token(c.Token.ID); ok {
			tokp = &tok
		}
	}
	g.ruler.SetContext(ruler.ContextFor(g.scene, g.settings, tokp))
	g.ruler.Measure(g.ruler.Destination())
}

// copyLabel puts the destination label on the system clipboard.
func (g *Game) copyLabel() {
	labels := g.ruler.Labels()
	if len(labels) == 0 {
		return
	}
	text := labels[len(labels)-1].Text
	if err := clipboard.WriteAll(text); err != nil {
		g.log.Add("", "ruler", "clipboard", err.Error(), 0)
		return
	}
	g.log.Add("", "ruler", "clipboard", "copied label", 0)
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{R: 12, G: 14, B: 12, A: 255})

	g.worldBuf.Clear()
	render.DrawScene(g.worldBuf, g.scene)
	g.layers.Draw(g.worldBuf)
	if !g.moving {
		g.drawRulerPath(g.worldBuf)
		g.labels.Draw(g.worldBuf, g.ruler.Labels())
	}

	var blit ebiten.DrawImageOptions
	blit.GeoM.Translate(float64(g.offX), float64(g.offY))
	screen.DrawImage(g.worldBuf, &blit)

	ox, oy := float32(g.offX), float32(g.offY)
	gw, gh := float32(g.scene.Width), float32(g.scene.Height)
	vector.StrokeRect(screen, ox-1, oy-1, gw+2, gh+2, 2.0, color.RGBA{R: 65, G: 90, B: 65, A: 255}, false)

	g.logPanel.Draw(screen, g.offX+int(g.scene.Width)+g.offX, g.height)

	if g.showHUD {
		g.drawHUD(screen)
	}
}

// drawRulerPath strokes each segment in its speed colour.
func (g *Game) drawRulerPath(dst *ebiten.Image) {
	for _, s := range g.ruler.Segments() {
		c := ruler.DefaultColor
		if s.Speed != nil {
			c = s.Speed.Color
		}
		a, b := s.Ray.A, s.Ray.B
		vector.StrokeLine(dst, float32(a.X), float32(a.Y), float32(b.X), float32(b.Y), 3, c, true)
	}
	for _, w := range g.ruler.Waypoints() {
		vector.StrokeCircle(dst, float32(w.X), float32(w.Y), 6, 2, ruler.DefaultColor, true)
	}
}

func (g *Game) drawHUD(screen *ebiten.Image) {
	status := fmt.Sprintf("combat:%t  pathfinding:%t  levels-ui:%t",
		g.scene.InCombat(), g.settings.PathfindingActive(), g.scene.LevelsUIActive())
	if !g.moving && g.ruler.Active() {
		status += fmt.Sprintf("  elev:%+d  total:%g %s",
			g.ruler.Increments(), g.ruler.TotalDistance(), g.scene.Grid.Units)
	}
	ebitenutil.DebugPrintAt(screen, status, g.offX+6, 4)
	ebitenutil.DebugPrintAt(screen,
		"drag token: measure  space: waypoint  backspace: undo  [ ]: elevation  F: toggle pathing  K: combat  N: round  L: levels  C: copy  esc: cancel  H: hud",
		g.offX+6, g.height-borderWidth+4)
}

func (g *Game) Layout(_, _ int) (int, int) {
	return g.width, g.height
}
