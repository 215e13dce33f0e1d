// Package pathfind finds obstacle-avoiding routes for tokens across the canvas.
package pathfind

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Wall is an axis-aligned blocking rectangle with a vertical extent.
// Bottom and Top are canvas pixels; Top may be +Inf for full-height walls.
type Wall struct {
	X, Y, W, H  float64
	Bottom, Top float64
}

// FullHeight returns a wall that blocks at every elevation.
func FullHeight(x, y, w, h float64) Wall {
	return Wall{X: x, Y: y, W: w, H: h, Bottom: math.Inf(-1), Top: math.Inf(1)}
}

// BlocksAt reports whether the wall spans height z.
func (w Wall) BlocksAt(z float64) bool { return z >= w.Bottom && z < w.Top }

// Walls is the obstacle set of a scene.
type Walls []Wall

// HasCollision returns true if the 3D segment a→b passes through any wall
// while inside that wall's vertical extent.
func (ws Walls) HasCollision(a, b r3.Vec) bool {
	_, hit := ws.FirstHit(a, b)
	return hit
}

// FirstHit returns the smallest segment parameter at which a→b enters a wall.
func (ws Walls) FirstHit(a, b r3.Vec) (float64, bool) {
	best := math.Inf(1)
	for _, w := range ws {
		t0, t1, ok := rayAABBInterval(a.X, a.Y, b.X, b.Y, w.X, w.Y, w.X+w.W, w.Y+w.H)
		if !ok {
			continue
		}
		// Height of the segment over the part of it inside the footprint.
		z0 := a.Z + (b.Z-a.Z)*t0
		z1 := a.Z + (b.Z-a.Z)*t1
		lo, hi := math.Min(z0, z1), math.Max(z0, z1)
		if hi < w.Bottom || lo >= w.Top {
			continue
		}
		if t0 < best {
			best = t0
		}
	}
	if math.IsInf(best, 1) {
		return 0, false
	}
	return best, true
}

// rayAABBInterval returns the parameter interval [tMin,tMax] ⊆ [0,1] over which
// the segment (ox,oy)->(ex,ey) lies inside the AABB. The bool is false when the
// segment misses the box.
func rayAABBInterval(ox, oy, ex, ey, minX, minY, maxX, maxY float64) (float64, float64, bool) {
	dx := ex - ox
	dy := ey - oy

	tMin := 0.0
	tMax := 1.0

	// Check X slab
	if math.Abs(dx) < 1e-12 {
		if ox < minX || ox > maxX {
			return 0, 0, false
		}
	} else {
		invD := 1.0 / dx
		t1 := (minX - ox) * invD
		t2 := (maxX - ox) * invD
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tMin = math.Max(tMin, t1)
		tMax = math.Min(tMax, t2)
		if tMin > tMax {
			return 0, 0, false
		}
	}

	// Check Y slab
	if math.Abs(dy) < 1e-12 {
		if oy < minY || oy > maxY {
			return 0, 0, false
		}
	} else {
		invD := 1.0 / dy
		t1 := (minY - oy) * invD
		t2 := (maxY - oy) * invD
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tMin = math.Max(tMin, t1)
		tMax = math.Min(tMax, t2)
		if tMin > tMax {
			return 0, 0, false
		}
	}

	if tMax < 0 || tMin > 1 {
		return 0, 0, false
	}
	return tMin, tMax, true
}
