// Package geom holds the small set of planar and 3D primitives shared by the
// ruler pipeline. Coordinates are canvas pixels; z is pixels as well.
package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Point is a planar canvas coordinate. It is comparable so it can key maps.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is shorthand for Point{x, y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

// Vec promotes p to 3D at height z.
func (p Point) Vec(z float64) r3.Vec { return r3.Vec{X: p.X, Y: p.Y, Z: z} }

// Add returns p+q.
func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }

// Sub returns p-q.
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

// Planar drops z.
func Planar(v r3.Vec) Point { return Point{X: v.X, Y: v.Y} }

// DistSq returns the squared planar distance between a and b.
func DistSq(a, b Point) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	return dx*dx + dy*dy
}

// Dist returns the planar distance between a and b.
func Dist(a, b Point) float64 { return math.Sqrt(DistSq(a, b)) }

// AlmostEqual reports whether a and b are within eps on every axis.
func AlmostEqual(a, b r3.Vec, eps float64) bool {
	return math.Abs(a.X-b.X) <= eps && math.Abs(a.Y-b.Y) <= eps && math.Abs(a.Z-b.Z) <= eps
}

// Lerp interpolates between a and b.
func Lerp(a, b r3.Vec, t float64) r3.Vec {
	return r3.Add(a, r3.Scale(t, r3.Sub(b, a)))
}

// Collinear reports whether b lies on the line a→c within tolerance, ignoring z.
func Collinear(a, b, c Point, tol float64) bool {
	cross := (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
	return math.Abs(cross) <= tol
}
