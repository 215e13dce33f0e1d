package movement

import (
	"context"
	"fmt"

	"github.com/Garsondee/elevation-ruler/internal/eventlog"
	"github.com/Garsondee/elevation-ruler/internal/geom"
	"github.com/Garsondee/elevation-ruler/internal/ruler"
	"github.com/Garsondee/elevation-ruler/internal/scene"
	"gonum.org/v1/gonum/spatial/r3"
)

// Animator moves a token along measured segments one at a time.
type Animator struct {
	Scene *scene.Scene
	Log   *eventlog.Log
}

// snappedOffset is the token's centre offset rounded to half a grid cell.
func (a Animator) snappedOffset(t scene.Token) geom.Point {
	off := t.CenterOffset()
	return geom.Pt(a.Scene.Grid.SnapHalf(off.X), a.Scene.Grid.SnapHalf(off.Y))
}

// adjustedDestination is where the token's top-left corner lands when its
// centre reaches p.
func (a Animator) adjustedDestination(t scene.Token, p r3.Vec) geom.Point {
	return geom.Planar(p).Sub(a.snappedOffset(t))
}

// HasSegmentCollision walks the segments from the token's position and
// reports whether any step would hit a wall.
func (a Animator) HasSegmentCollision(t scene.Token, segs []ruler.Segment) bool {
	off := a.snappedOffset(t)
	pos := t.Position()
	for _, s := range segs {
		dest := a.adjustedDestination(t, s.Ray.B)
		from := pos.Add(off).Vec(s.Ray.A.Z)
		to := dest.Add(off).Vec(s.Ray.B.Z)
		if a.Scene.HasCollision(from, to, t) {
			a.Log.Addf(t.ID, "move", "blocked", 0, "(%.0f,%.0f) → (%.0f,%.0f)", from.X, from.Y, to.X, to.Y)
			return true
		}
		pos = dest
	}
	return false
}

// MoveSegments animates t along segs. Each segment moves the token first and
// then, if the segment climbs or falls, changes its elevation; every update is
// awaited before the next is issued.
func (a Animator) MoveSegments(ctx context.Context, t scene.Token, segs []ruler.Segment) error {
	multi := len(segs) > 1
	cur := t
	for i, s := range segs {
		opts := scene.UpdateOptions{
			RulerSegment:       multi,
			FirstRulerSegment:  i == 0,
			LastRulerSegment:   i == len(segs)-1,
			SegmentOrigin:      s.Ray.A,
			SegmentDestination: s.Ray.B,
		}

		dest := a.adjustedDestination(t, s.Ray.B)
		if dest != cur.Position() {
			if err := a.update(ctx, t.ID, scene.TokenChange{Position: &dest}, opts); err != nil {
				return err
			}
			a.Log.Addf(t.ID, "move", "position", float64(i), "(%.0f,%.0f) → (%.0f,%.0f)", cur.X, cur.Y, dest.X, dest.Y)
		}

		if s.Ray.A.Z != s.Ray.B.Z {
			elev := a.Scene.Grid.ToUnits(s.Ray.B.Z)
			if elev != cur.Elevation {
				if err := a.update(ctx, t.ID, scene.TokenChange{Elevation: &elev}, opts); err != nil {
					return err
				}
				a.Log.Addf(t.ID, "move", "elevation", elev, "%g → %g", cur.Elevation, elev)
			}
		}

		next, ok := a.Scene.Token(t.ID)
		if !ok {
			return fmt.Errorf("move %q: %w", t.ID, scene.ErrUnknownToken)
		}
		cur = next
	}
	return nil
}

func (a Animator) update(ctx context.Context, id string, change scene.TokenChange, opts scene.UpdateOptions) error {
	anim, err := a.Scene.UpdateToken(ctx, id, change, opts)
	if err != nil {
		return fmt.Errorf("update %q: %w", id, err)
	}
	if err := anim.Wait(ctx); err != nil {
		return fmt.Errorf("await %q: %w", id, err)
	}
	return nil
}
