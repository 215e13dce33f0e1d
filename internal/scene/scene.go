// Package scene models the host canvas the ruler runs against: grid, walls,
// terrain, tokens, combat state and the token update primitive.
package scene

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/Garsondee/elevation-ruler/internal/eventlog"
	"github.com/Garsondee/elevation-ruler/internal/geom"
	"github.com/Garsondee/elevation-ruler/internal/pathfind"
	"github.com/Garsondee/elevation-ruler/internal/terrain"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	ErrUnknownToken = errors.New("unknown token")
	ErrNoChange     = errors.New("token update changes nothing")
)

// Scene is the canvas state. Token state is guarded because animations are
// advanced by the render loop while a drop handler waits on them.
type Scene struct {
	Grid    Grid
	Width   float64
	Height  float64
	Walls   pathfind.Walls
	Terrain *terrain.Resolver
	Log     *eventlog.Log

	mu        sync.Mutex
	tokens    map[string]*Token
	order     []string
	inCombat  bool
	round     int
	levelsUI  bool
	animTicks int
	tweens    []*tween

	onUpdate []func(TokenUpdate)
	onRemove []func(id string)

	// option staging
	levels     []terrain.Level
	tileEdit   []func(*terrain.TileMap)
	afterInfra []func(*Scene)
}

// optionKind controls the pass in which an option is applied.
type optionKind int

const (
	optInfra   optionKind = iota // grid, size, walls, log: applied first
	optTerrain                   // tile edits: applied once the tile map exists
	optToken                     // tokens: applied last
)

// Option is a builder function applied to a Scene during construction.
type Option struct {
	kind optionKind
	fn   func(*Scene)
}

// WithGrid sets the grid.
func WithGrid(g Grid) Option {
	return Option{optInfra, func(s *Scene) { s.Grid = g }}
}

// WithSize sets the canvas dimensions in pixels.
func WithSize(w, h float64) Option {
	return Option{optInfra, func(s *Scene) {
		s.Width = w
		s.Height = h
	}}
}

// WithWall adds a full-height wall rectangle in pixels.
func WithWall(x, y, w, h float64) Option {
	return Option{optInfra, func(s *Scene) {
		s.Walls = append(s.Walls, pathfind.FullHeight(x, y, w, h))
	}}
}

// WithWallHeight adds a wall spanning [bottom, top) grid units.
func WithWallHeight(x, y, w, h, bottom, top float64) Option {
	return Option{optInfra, func(s *Scene) {
		// Heights convert once the grid is final.
		s.afterInfra = append(s.afterInfra, func(s *Scene) {
			s.Walls = append(s.Walls, pathfind.Wall{
				X: x, Y: y, W: w, H: h,
				Bottom: s.Grid.ToPixels(bottom),
				Top:    s.Grid.ToPixels(top),
			})
		})
	}}
}

// WithLog attaches an event log.
func WithLog(l *eventlog.Log) Option {
	return Option{optInfra, func(s *Scene) { s.Log = l }}
}

// WithCombat starts the scene inside a combat encounter.
func WithCombat(active bool) Option {
	return Option{optInfra, func(s *Scene) { s.inCombat = active }}
}

// WithLevelsUI marks the levels UI as open.
func WithLevelsUI(active bool) Option {
	return Option{optInfra, func(s *Scene) { s.levelsUI = active }}
}

// WithAnimation makes token updates animate over the given number of Step calls.
func WithAnimation(ticks int) Option {
	return Option{optInfra, func(s *Scene) { s.animTicks = ticks }}
}

// WithLevel adds a named vertical level.
func WithLevel(name string, bottom, top float64) Option {
	return Option{optInfra, func(s *Scene) {
		s.levels = append(s.levels, terrain.Level{Name: name, Bottom: bottom, Top: top})
	}}
}

// WithGround paints ground over a cell rectangle.
func WithGround(col, row, w, h int, g terrain.GroundType) Option {
	return Option{optTerrain, func(s *Scene) {
		s.tileEdit = append(s.tileEdit, func(tm *terrain.TileMap) {
			tm.FillRect(col, row, w, h, func(t *terrain.Tile) { t.Ground = g })
		})
	}}
}

// WithElevation raises a cell rectangle to e grid units.
func WithElevation(col, row, w, h int, e float64) Option {
	return Option{optTerrain, func(s *Scene) {
		s.tileEdit = append(s.tileEdit, func(tm *terrain.TileMap) {
			tm.FillRect(col, row, w, h, func(t *terrain.Tile) { t.Elevation = e })
		})
	}}
}

// WithToken places a token. W and H default to one grid cell.
func WithToken(t Token) Option {
	return Option{optToken, func(s *Scene) {
		if t.W == 0 {
			t.W = s.Grid.Size
		}
		if t.H == 0 {
			t.H = s.Grid.Size
		}
		s.addToken(t)
	}}
}

// New builds a scene. Options are applied in passes (infra → terrain → tokens)
// so ordering among them does not matter.
func New(opts ...Option) *Scene {
	s := &Scene{
		Grid:   DefaultGrid(),
		Width:  2000,
		Height: 2000,
		tokens: make(map[string]*Token),
	}
	s.apply(opts, optInfra)
	for _, fn := range s.afterInfra {
		fn(s)
	}
	s.apply(opts, optTerrain)
	s.buildTerrain()
	s.apply(opts, optToken)
	return s
}

func (s *Scene) apply(opts []Option, kind optionKind) {
	for _, o := range opts {
		if o.kind == kind {
			o.fn(s)
		}
	}
}

func (s *Scene) buildTerrain() {
	cols := int(math.Ceil(s.Width / s.Grid.Size))
	rows := int(math.Ceil(s.Height / s.Grid.Size))
	tm := terrain.NewTileMap(cols, rows, s.Grid.Size)
	for _, edit := range s.tileEdit {
		edit(tm)
	}
	s.Terrain = terrain.NewResolver(tm, s.levels...)
	s.tileEdit = nil
	s.afterInfra = nil
}

func (s *Scene) addToken(t Token) {
	if _, ok := s.tokens[t.ID]; !ok {
		s.order = append(s.order, t.ID)
	}
	tc := t
	s.tokens[t.ID] = &tc
}

// AddToken places or replaces a token.
func (s *Scene) AddToken(t Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.W == 0 {
		t.W = s.Grid.Size
	}
	if t.H == 0 {
		t.H = s.Grid.Size
	}
	s.addToken(t)
}

// RemoveToken deletes a token and notifies removal hooks.
func (s *Scene) RemoveToken(id string) error {
	s.mu.Lock()
	if _, ok := s.tokens[id]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("remove %q: %w", id, ErrUnknownToken)
	}
	delete(s.tokens, id)
	for i, o := range s.order {
		if o == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	hooks := append([]func(string){}, s.onRemove...)
	s.mu.Unlock()

	s.Log.Add(id, "scene", "token_removed", id, 0)
	for _, fn := range hooks {
		fn(id)
	}
	return nil
}

// Token returns a copy of the token with the given id.
func (s *Scene) Token(id string) (Token, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[id]
	if !ok {
		return Token{}, false
	}
	return *t, true
}

// Tokens returns copies of all tokens in placement order.
func (s *Scene) Tokens() []Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Token, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.tokens[id])
	}
	return out
}

// TokenAt returns the topmost token whose footprint contains p.
func (s *Scene) TokenAt(p geom.Point) (Token, bool) {
	toks := s.Tokens()
	for i := len(toks) - 1; i >= 0; i-- {
		t := toks[i]
		if p.X >= t.X && p.X < t.X+t.W && p.Y >= t.Y && p.Y < t.Y+t.H {
			return t, true
		}
	}
	return Token{}, false
}

// OnUpdate registers a hook called for every accepted token update.
func (s *Scene) OnUpdate(fn func(TokenUpdate)) {
	s.mu.Lock()
	s.onUpdate = append(s.onUpdate, fn)
	s.mu.Unlock()
}

// OnRemove registers a hook called after a token is removed.
func (s *Scene) OnRemove(fn func(id string)) {
	s.mu.Lock()
	s.onRemove = append(s.onRemove, fn)
	s.mu.Unlock()
}

// InCombat reports whether a combat encounter is active.
func (s *Scene) InCombat() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inCombat
}

// SetCombat starts or ends the encounter. Ending it clears movement history.
func (s *Scene) SetCombat(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inCombat = active
	s.round = 0
	if !active {
		for _, t := range s.tokens {
			t.LastMoveDistance = 0
		}
	}
}

// NextRound advances the encounter and clears per-round movement history.
func (s *Scene) NextRound() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.round++
	for _, t := range s.tokens {
		t.LastMoveDistance = 0
	}
	return s.round
}

// AddMoveDistance accumulates combat movement for a token.
func (s *Scene) AddMoveDistance(id string, d float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[id]
	if !ok {
		return fmt.Errorf("record move for %q: %w", id, ErrUnknownToken)
	}
	t.LastMoveDistance += d
	return nil
}

// LevelsUIActive reports whether the levels UI is open.
func (s *Scene) LevelsUIActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.levelsUI
}

// SetLevelsUI opens or closes the levels UI.
func (s *Scene) SetLevelsUI(active bool) {
	s.mu.Lock()
	s.levelsUI = active
	s.mu.Unlock()
}

// HasCollision reports whether a token moving a→b would pass through a wall.
func (s *Scene) HasCollision(a, b r3.Vec, _ Token) bool {
	return s.Walls.HasCollision(a, b)
}

// HasTerrainPenalty reports whether a→b crosses slowing ground.
func (s *Scene) HasTerrainPenalty(a, b r3.Vec, _ Token) bool {
	return s.Terrain.HasPenalty(geom.Planar(a), geom.Planar(b))
}

// ElevationAt returns terrain elevation in grid units.
func (s *Scene) ElevationAt(p geom.Point) float64 { return s.Terrain.ElevationAt(p) }

// LevelAt returns the level covering an elevation.
func (s *Scene) LevelAt(e float64) (terrain.Level, bool) { return s.Terrain.LevelAt(e) }

// MoveCostFactor returns the terrain cost multiplier along a→b.
func (s *Scene) MoveCostFactor(a, b geom.Point) float64 { return s.Terrain.MoveCostFactor(a, b) }

// NewPathfinder builds a search grid for one token at its current elevation.
// Cells are half a grid square; walls are padded by a quarter of the token.
func (s *Scene) NewPathfinder(t Token) *pathfind.Pathfinder {
	cost := func(x, y float64) float64 {
		return s.Terrain.MoveCostFactor(geom.Pt(x, y), geom.Pt(x, y))
	}
	pad := math.Min(t.W, t.H) / 4
	grid := pathfind.NewNavGrid(s.Width, s.Height, s.Grid.Size/2, s.Walls, pad, s.Grid.ToPixels(t.Elevation), cost)
	return pathfind.New(grid, s.Walls)
}
