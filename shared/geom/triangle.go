// Package geom provides shared geometry functionality for use by workers and the master.
package geom

import "math"

// parallelEpsilon is the smallest determinant treated as a ray crossing a triangle's plane.
const parallelEpsilon = 1e-12

// Triangle represents a triangle in 3-dimensional space.
type Triangle struct {
	P1 Vector `json:"p1"`
	P2 Vector `json:"p2"`
	P3 Vector `json:"p3"`
}

// Normal returns the unit normal of t, following the winding P1 -> P2 -> P3.
func (t Triangle) Normal() Vector {
	return t.P2.Sub(t.P1).Cross(t.P3.Sub(t.P1)).Norm()
}

// Degenerate returns whether t has no area.
func (t Triangle) Degenerate() bool {
	return t.P2.Sub(t.P1).Cross(t.P3.Sub(t.P1)).Zero()
}

// Bounds returns the axis-aligned box containing t.
func (t Triangle) Bounds() Box {
	return EmptyBox().Extend(t.P1).Extend(t.P2).Extend(t.P3)
}

// Intersection returns the distance along r at which it crosses t, and the barycentric weights
// of P2 and P3 at that point.
// The last return value is false if r misses t or only meets it at a distance of tMin or less.
func (t Triangle) Intersection(r Ray, tMin float64) (float64, float64, float64, bool) {
	// This is the Möller-Trumbore algorithm.
	edge1 := t.P2.Sub(t.P1)
	edge2 := t.P3.Sub(t.P1)

	// Make sure that the ray's direction is not parallel to the triangle's plane.
	h := r.Dir.Cross(edge2)
	det := edge1.Dot(h)
	if math.Abs(det) < parallelEpsilon {
		return 0, 0, 0, false
	}

	f := 1.0 / det
	s := r.Origin.Sub(t.P1)
	u := f * s.Dot(h)
	if u < 0.0 || u > 1.0 {
		return 0, 0, 0, false
	}

	q := s.Cross(edge1)
	v := f * r.Dir.Dot(q)
	if v < 0.0 || u+v > 1.0 {
		return 0, 0, 0, false
	}

	// Make sure that the intersection point is ahead of the ray.
	dist := f * edge2.Dot(q)
	if !finite(dist) || dist <= tMin {
		return 0, 0, 0, false
	}

	return dist, u, v, true
}
