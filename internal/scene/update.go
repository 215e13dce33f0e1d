package scene

import (
	"context"
	"fmt"

	"github.com/Garsondee/elevation-ruler/internal/geom"
	"gonum.org/v1/gonum/spatial/r3"
)

// TokenChange is a partial token update. Nil fields are left alone.
type TokenChange struct {
	Position  *geom.Point
	Elevation *float64 // grid units
}

// UpdateOptions is free-form metadata passed to update hooks so downstream
// listeners can tell partial multi-segment moves from atomic ones.
type UpdateOptions struct {
	RulerSegment       bool
	FirstRulerSegment  bool
	LastRulerSegment   bool
	SegmentOrigin      r3.Vec
	SegmentDestination r3.Vec
}

// TokenUpdate is what update hooks observe.
type TokenUpdate struct {
	TokenID string
	Before  Token
	After   Token
	Change  TokenChange
	Options UpdateOptions
}

// Animation completes when the host has finished moving the token.
type Animation struct {
	done chan struct{}
}

func newAnimation() *Animation { return &Animation{done: make(chan struct{})} }

func completedAnimation() *Animation {
	a := newAnimation()
	close(a.done)
	return a
}

// Done is closed when the animation finishes.
func (a *Animation) Done() <-chan struct{} { return a.done }

// Wait blocks until the animation finishes or ctx is cancelled.
func (a *Animation) Wait(ctx context.Context) error {
	select {
	case <-a.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type tween struct {
	id       string
	from, to Token
	ticks    int
	elapsed  int
	anim     *Animation
}

// UpdateToken applies change to a token. With animation enabled the token
// moves over subsequent Step calls; otherwise it lands immediately. Updates
// that would change nothing are rejected with ErrNoChange.
func (s *Scene) UpdateToken(ctx context.Context, id string, change TokenChange, opts UpdateOptions) (*Animation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	cur, ok := s.tokens[id]
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("update %q: %w", id, ErrUnknownToken)
	}
	before := *cur
	after := before
	if change.Position != nil {
		after.X, after.Y = change.Position.X, change.Position.Y
	}
	if change.Elevation != nil {
		after.Elevation = *change.Elevation
	}
	if after == before {
		s.mu.Unlock()
		return nil, fmt.Errorf("update %q: %w", id, ErrNoChange)
	}

	var anim *Animation
	if s.animTicks > 0 {
		anim = newAnimation()
		s.tweens = append(s.tweens, &tween{id: id, from: before, to: after, ticks: s.animTicks, anim: anim})
	} else {
		*cur = after
		anim = completedAnimation()
	}
	hooks := append([]func(TokenUpdate){}, s.onUpdate...)
	s.mu.Unlock()

	u := TokenUpdate{TokenID: id, Before: before, After: after, Change: change, Options: opts}
	for _, fn := range hooks {
		fn(u)
	}
	return anim, nil
}

// Step advances running animations by one tick and reports how many remain.
func (s *Scene) Step() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	live := s.tweens[:0]
	for _, tw := range s.tweens {
		tw.elapsed++
		t, ok := s.tokens[tw.id]
		if !ok {
			close(tw.anim.done)
			continue
		}
		if tw.elapsed >= tw.ticks {
			t.X, t.Y, t.Elevation = tw.to.X, tw.to.Y, tw.to.Elevation
			close(tw.anim.done)
			continue
		}
		f := float64(tw.elapsed) / float64(tw.ticks)
		t.X = tw.from.X + (tw.to.X-tw.from.X)*f
		t.Y = tw.from.Y + (tw.to.Y-tw.from.Y)*f
		t.Elevation = tw.from.Elevation + (tw.to.Elevation-tw.from.Elevation)*f
		live = append(live, tw)
	}
	for i := len(live); i < len(s.tweens); i++ {
		s.tweens[i] = nil
	}
	s.tweens = live
	return len(live)
}
