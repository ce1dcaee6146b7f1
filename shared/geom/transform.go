// Package geom provides shared geometry functionality for use by workers and the master.
package geom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Identity returns the transform that leaves every point where it is.
func Identity() mgl64.Mat4 {
	return mgl64.Ident4()
}

// Translation returns a transform that moves points by v.
func Translation(v Vector) mgl64.Mat4 {
	return mgl64.Translate3D(v.X, v.Y, v.Z)
}

// Scaling returns a transform that scales points by v along each axis.
func Scaling(v Vector) mgl64.Mat4 {
	return mgl64.Scale3D(v.X, v.Y, v.Z)
}

// Rotation returns a transform that rotates points theta radians around axis.
func Rotation(axis Vector, theta float64) mgl64.Mat4 {
	a := axis.Norm()
	return mgl64.HomogRotate3D(theta, mgl64.Vec3{a.X, a.Y, a.Z})
}

// Affine returns whether m is an invertible affine transform.
func Affine(m mgl64.Mat4) bool {
	for _, v := range m {
		if !finite(v) {
			return false
		}
	}
	if m.Row(3) != (mgl64.Vec4{0, 0, 0, 1}) {
		return false
	}
	return math.Abs(m.Det()) > 1e-12
}

// TransformPoint applies m to the point p.
func TransformPoint(m mgl64.Mat4, p Vector) Vector {
	v := m.Mul4x1(mgl64.Vec4{p.X, p.Y, p.Z, 1})
	return Vector{v[0], v[1], v[2]}
}

// TransformDir applies m to the direction d, ignoring translation.
func TransformDir(m mgl64.Mat4, d Vector) Vector {
	v := m.Mul4x1(mgl64.Vec4{d.X, d.Y, d.Z, 0})
	return Vector{v[0], v[1], v[2]}
}

// TransformNormal maps a local-space normal to world space given the world-to-local matrix inv.
func TransformNormal(inv mgl64.Mat4, n Vector) Vector {
	return TransformDir(inv.Transpose(), n).Norm()
}

// TransformRay applies m to r without renormalizing its direction.
func TransformRay(m mgl64.Mat4, r Ray) Ray {
	return Ray{Origin: TransformPoint(m, r.Origin), Dir: TransformDir(m, r.Dir)}
}

// TransformBox returns the axis-aligned box containing b after applying m.
func TransformBox(m mgl64.Mat4, b Box) Box {
	out := EmptyBox()
	for _, c := range b.Corners() {
		out = out.Extend(TransformPoint(m, c))
	}
	return out
}
