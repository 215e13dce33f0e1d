// Package movement owns per-token movement state and executes ruler drops.
package movement

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Garsondee/elevation-ruler/internal/eventlog"
	"github.com/Garsondee/elevation-ruler/internal/pathfind"
	"github.com/Garsondee/elevation-ruler/internal/ruler"
	"github.com/Garsondee/elevation-ruler/internal/scene"
)

var (
	ErrMovementBlocked = errors.New("movement blocked by a wall")
	ErrNoToken         = errors.New("ruler is not measuring a token")
)

// Service keeps one pathfinder per token and carries out drops. Building a
// pathfinder rasterises every wall, so it is reused until the token leaves the
// scene or changes elevation.
type Service struct {
	Scene *scene.Scene
	Log   *eventlog.Log

	mu          sync.Mutex
	pathfinders map[string]*pathfind.Pathfinder
}

// NewService returns a service bound to sc. Cached pathfinders are evicted
// when their token is removed.
func NewService(sc *scene.Scene, log *eventlog.Log) *Service {
	s := &Service{
		Scene:       sc,
		Log:         log,
		pathfinders: make(map[string]*pathfind.Pathfinder),
	}
	sc.OnRemove(s.Evict)
	return s
}

// PathfinderFor returns the cached pathfinder for t, building it on first use.
func (s *Service) PathfinderFor(t scene.Token) ruler.Pathfinder {
	s.mu.Lock()
	defer s.mu.Unlock()
	if pf, ok := s.pathfinders[t.ID]; ok {
		return pf
	}
	pf := s.Scene.NewPathfinder(t)
	s.pathfinders[t.ID] = pf
	s.Log.Addf(t.ID, "pathfind", "build", t.Elevation, "elevation %g", t.Elevation)
	return pf
}

// Cached reports whether a pathfinder is held for the token.
func (s *Service) Cached(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pathfinders[id]
	return ok
}

// Evict drops the token's pathfinder.
func (s *Service) Evict(id string) {
	s.mu.Lock()
	_, ok := s.pathfinders[id]
	delete(s.pathfinders, id)
	s.mu.Unlock()
	if ok {
		s.Log.Add(id, "pathfind", "evict", "", 0)
	}
}

// MoveToken carries out the ruler's measured path for its token. A collision
// anywhere along the path aborts before the token moves. On success the
// movement is recorded for combat and the ruler is cleared.
func (s *Service) MoveToken(ctx context.Context, r *ruler.Ruler) error {
	c := r.Context()
	if !r.Active() || c.Token == nil {
		return ErrNoToken
	}
	id := c.Token.ID
	tok, ok := s.Scene.Token(id)
	if !ok {
		return fmt.Errorf("move %q: %w", id, scene.ErrUnknownToken)
	}

	segs := r.Segments()
	if len(segs) == 0 {
		r.Clear()
		return nil
	}

	anim := Animator{Scene: s.Scene, Log: s.Log}
	if anim.HasSegmentCollision(tok, segs) {
		return fmt.Errorf("move %q: %w", id, ErrMovementBlocked)
	}
	if err := anim.MoveSegments(ctx, tok, segs); err != nil {
		return err
	}

	if s.Scene.InCombat() {
		if err := s.Scene.AddMoveDistance(id, r.TotalMoveDistance()); err != nil {
			return err
		}
	}
	if after, ok := s.Scene.Token(id); ok && after.Elevation != tok.Elevation {
		s.Evict(id)
	}
	s.Log.Addf(id, "move", "done", r.TotalMoveDistance(), "%d segments, %g %s",
		len(segs), r.TotalMoveDistance(), s.Scene.Grid.Units)
	r.Clear()
	return nil
}
