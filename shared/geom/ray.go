// Package geom provides shared geometry functionality for use by workers and the master.
package geom

// Ray represents a half-line with an origin and a direction.
// Rays built with NewRay have a normalized direction.
// Rays moved into a primitive's local space keep an unnormalized direction so that
// distances along them match distances along the original ray.
type Ray struct {
	Origin Vector
	Dir    Vector
}

// NewRay returns a ray starting at origin and heading along dir (normalized).
func NewRay(origin, dir Vector) Ray {
	return Ray{Origin: origin, Dir: dir.Norm()}
}

// At returns the point a distance t along the ray r.
func (r Ray) At(t float64) Vector {
	return r.Origin.Add(r.Dir.Scale(t))
}

// Degenerate returns whether r cannot be traced (no direction, or non-finite components).
func (r Ray) Degenerate() bool {
	return r.Dir.Zero() || !r.Dir.Finite() || !r.Origin.Finite()
}
