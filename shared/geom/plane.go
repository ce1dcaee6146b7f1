// Package geom provides shared geometry functionality for use by workers and the master.
package geom

import "math"

// Plane represents an infinite plane through Point, facing along Normal.
type Plane struct {
	Point  Vector `json:"point"`
	Normal Vector `json:"normal"`
}

// Intersection returns the distance greater than tMin at which r crosses p.
// Rays parallel to p never cross it.
func (p Plane) Intersection(r Ray, tMin float64) (float64, bool) {
	n := p.Normal.Norm()
	denominator := r.Dir.Dot(n)
	if math.Abs(denominator) < parallelEpsilon {
		return 0, false
	}

	dist := p.Point.Sub(r.Origin).Dot(n) / denominator
	if !finite(dist) || dist <= tMin {
		return 0, false
	}
	return dist, true
}
