// Package geom provides shared geometry objects for use by workers and the master.
package geom

import "math"

// This array contains the normal vectors for the six sides of an axis-aligned 3D box.
// This should be const, but Go doesn't let us have const structs.  Treat it as read-only.
var boxNormals = [6]Vector{
	{1, 0, 0}, {-1, 0, 0},
	{0, 1, 0}, {0, -1, 0},
	{0, 0, 1}, {0, 0, -1},
}

// Box represents a rectangular 3-dimensional axis-aligned box.
type Box struct {
	MinCorner Vector `json:"min"` // The position of the corner with the smallest coordinate values.
	MaxCorner Vector `json:"max"` // The position of the corner with the largest coordinate values.
}

// EmptyBox returns a box that contains nothing, ready to be grown with Extend.
func EmptyBox() Box {
	inf := math.Inf(1)
	return Box{MinCorner: Vector{inf, inf, inf}, MaxCorner: Vector{-inf, -inf, -inf}}
}

// Extend returns the smallest box containing both b and the point p.
func (b Box) Extend(p Vector) Box {
	return Box{MinCorner: b.MinCorner.Min(p), MaxCorner: b.MaxCorner.Max(p)}
}

// Union returns the smallest box containing both a and b.
func (b Box) Union(o Box) Box {
	return Box{MinCorner: b.MinCorner.Min(o.MinCorner), MaxCorner: b.MaxCorner.Max(o.MaxCorner)}
}

// Valid returns whether b has finite corners that are correctly ordered.
func (b Box) Valid() bool {
	return b.MinCorner.Finite() && b.MaxCorner.Finite() &&
		b.MinCorner.X <= b.MaxCorner.X && b.MinCorner.Y <= b.MaxCorner.Y && b.MinCorner.Z <= b.MaxCorner.Z
}

// Corners returns the eight corners of b.
func (b Box) Corners() [8]Vector {
	lo, hi := b.MinCorner, b.MaxCorner
	return [8]Vector{
		{lo.X, lo.Y, lo.Z}, {hi.X, lo.Y, lo.Z}, {lo.X, hi.Y, lo.Z}, {hi.X, hi.Y, lo.Z},
		{lo.X, lo.Y, hi.Z}, {hi.X, lo.Y, hi.Z}, {lo.X, hi.Y, hi.Z}, {hi.X, hi.Y, hi.Z},
	}
}

// Span returns the range of ray distances [tNear, tFar] for which r is inside b.
// The last return value is false if r never enters b.
func (b Box) Span(r Ray) (float64, float64, bool) {
	tNear, tFar := math.Inf(-1), math.Inf(1)

	// Clip the ray against each pair of parallel sides.
	for axis := 0; axis < 3; axis++ {
		o, d := r.Origin.Axis(axis), r.Dir.Axis(axis)
		lo, hi := b.MinCorner.Axis(axis), b.MaxCorner.Axis(axis)

		if d == 0.0 {
			// The ray is parallel to these sides, so it has to start between them.
			if o < lo || o > hi {
				return 0, 0, false
			}
			continue
		}

		t0, t1 := (lo-o)/d, (hi-o)/d
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		tNear = math.Max(tNear, t0)
		tFar = math.Min(tFar, t1)
		if tNear > tFar {
			return 0, 0, false
		}
	}

	return tNear, tFar, true
}

// Intersect determines whether a ray intersects the box b ahead of its origin.
func (b Box) Intersect(r Ray) bool {
	_, tFar, hit := b.Span(r)
	return hit && tFar >= 0.0
}

// Intersection returns the nearest distance greater than tMin at which r crosses the surface of b.
// The last return value is false if there is no such crossing.
func (b Box) Intersection(r Ray, tMin float64) (float64, bool) {
	tNear, tFar, hit := b.Span(r)
	if !hit {
		return 0, false
	}
	if tNear > tMin {
		return tNear, true
	}
	if tFar > tMin {
		return tFar, true
	}
	return 0, false
}

// Normal returns the outward normal of the side of b closest to the surface point p.
func (b Box) Normal(p Vector) Vector {
	best, bestDist := boxNormals[0], math.Inf(1)

	// For each side of the box, measure how far p is from that side's plane.
	for _, sNormal := range boxNormals {
		var sPoint Vector
		if sNormal.Dot(Vector{1, 1, 1}) < 0 {
			sPoint = b.MinCorner
		} else {
			sPoint = b.MaxCorner
		}

		if dist := math.Abs(p.Sub(sPoint).Dot(sNormal)); dist < bestDist {
			best, bestDist = sNormal, dist
		}
	}

	return best
}
