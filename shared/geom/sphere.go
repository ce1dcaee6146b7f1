// Package geom provides shared geometry functionality for use by workers and the master.
package geom

import "math"

// Sphere represents a sphere in 3-dimensional space.
type Sphere struct {
	Center Vector  `json:"center"`
	Radius float64 `json:"radius"`
}

// Bounds returns the axis-aligned box containing s.
func (s Sphere) Bounds() Box {
	extent := Vector{s.Radius, s.Radius, s.Radius}
	return Box{MinCorner: s.Center.Sub(extent), MaxCorner: s.Center.Add(extent)}
}

// Normal returns the outward unit normal of s at the surface point p.
func (s Sphere) Normal(p Vector) Vector {
	return p.Sub(s.Center).Scale(1.0 / s.Radius)
}

// Intersection returns the nearest distance greater than tMin at which r crosses s.
// The direction of r does not need to be normalized.
// The last return value is false if there is no such crossing.
func (s Sphere) Intersection(r Ray, tMin float64) (float64, bool) {
	// Solve |o + t*d - c|^2 = radius^2 for t.
	oc := r.Origin.Sub(s.Center)
	a := r.Dir.Dot(r.Dir)
	halfB := oc.Dot(r.Dir)
	c := oc.Dot(oc) - s.Radius*s.Radius

	discriminant := halfB*halfB - a*c
	if a == 0.0 || discriminant < 0.0 || !finite(discriminant) {
		return 0, false
	}
	sqrtD := math.Sqrt(discriminant)

	// Try the closer root first, then the farther one.
	if root := (-halfB - sqrtD) / a; root > tMin {
		return root, true
	}
	if root := (-halfB + sqrtD) / a; root > tMin {
		return root, true
	}
	return 0, false
}
