package geom

import "gonum.org/v1/gonum/spatial/r3"

// Ray3d is one straight leg between two 3D points.
type Ray3d struct {
	A r3.Vec `json:"a"`
	B r3.Vec `json:"b"`

	// Pathfinding marks a sub-segment synthesized by the pathfinder.
	Pathfinding bool `json:"pathfinding,omitempty"`

	distanceOverride *float64
}

// NewRay3d returns the ray A→B.
func NewRay3d(a, b r3.Vec) Ray3d { return Ray3d{A: a, B: b} }

// NewRay2d returns a flat ray at z=0.
func NewRay2d(a, b Point) Ray3d { return Ray3d{A: a.Vec(0), B: b.Vec(0)} }

// Distance is the true 3D length.
func (r Ray3d) Distance() float64 { return r3.Norm(r3.Sub(r.B, r.A)) }

// PlanarDistance ignores z.
func (r Ray3d) PlanarDistance() float64 { return Dist(Planar(r.A), Planar(r.B)) }

// HighlightDistance is the length used when sampling grid cells. It is the 3D
// length unless an override is held.
func (r Ray3d) HighlightDistance() float64 {
	if r.distanceOverride != nil {
		return *r.distanceOverride
	}
	return r.Distance()
}

// OverrideDistance replaces HighlightDistance until the returned func is called.
func (r *Ray3d) OverrideDistance(d float64) (restore func()) {
	prev := r.distanceOverride
	r.distanceOverride = &d
	return func() { r.distanceOverride = prev }
}

// At returns the point at parameter t in [0,1].
func (r Ray3d) At(t float64) r3.Vec { return Lerp(r.A, r.B, t) }

// DeltaZ is B.z - A.z.
func (r Ray3d) DeltaZ() float64 { return r.B.Z - r.A.Z }
