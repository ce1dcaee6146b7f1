// Package geom provides shared geometry functionality for use by workers and the master.
package geom

import "math"

// Vector represents a vector in 3-dimensional space.
type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Add returns the sum of vectors a and b.
func (a Vector) Add(b Vector) Vector {
	return Vector{X: a.X + b.X, Y: a.Y + b.Y, Z: a.Z + b.Z}
}

// Sub returns the difference of vectors a and b.
func (a Vector) Sub(b Vector) Vector {
	return Vector{X: a.X - b.X, Y: a.Y - b.Y, Z: a.Z - b.Z}
}

// Scale returns the vector a multiplied by the scalar s.
func (a Vector) Scale(s float64) Vector {
	return Vector{X: s * a.X, Y: s * a.Y, Z: s * a.Z}
}

// Neg returns the vector a pointing the other way.
func (a Vector) Neg() Vector {
	return Vector{X: -a.X, Y: -a.Y, Z: -a.Z}
}

// Dot returns the dot product of the vectors a and b.
func (a Vector) Dot(b Vector) float64 {
	return a.X*b.X + a.Y*b.Y + a.Z*b.Z
}

// Cross returns the cross product of the vectors a and b.
func (a Vector) Cross(b Vector) Vector {
	return Vector{X: a.Y*b.Z - a.Z*b.Y, Y: a.Z*b.X - a.X*b.Z, Z: a.X*b.Y - a.Y*b.X}
}

// Rotate returns the vector a rotated theta radians around the (normalized) vector b.
func (a Vector) Rotate(b Vector, theta float64) Vector {
	// This uses Rodrigues' rotation formula.
	return a.Scale(math.Cos(theta)).Add(b.Cross(a).Scale(math.Sin(theta))).Add(b.Scale(b.Dot(a) * (1.0 - math.Cos(theta))))
}

// Reflect returns the vector a mirrored about the (normalized) normal n.
func (a Vector) Reflect(n Vector) Vector {
	return a.Sub(n.Scale(2 * a.Dot(n)))
}

// Zero returns whether the vector a is a zero vector.
func (a Vector) Zero() bool {
	return a.X == 0.0 && a.Y == 0.0 && a.Z == 0.0
}

// Finite returns whether every component of a is a real number.
func (a Vector) Finite() bool {
	return finite(a.X) && finite(a.Y) && finite(a.Z)
}

// Norm returns the normalized form of the vector a.
// The zero vector has no direction, so it is returned unchanged.
func (a Vector) Norm() Vector {
	mag := a.Len()
	if mag == 0.0 {
		return a
	}
	return Vector{X: a.X / mag, Y: a.Y / mag, Z: a.Z / mag}
}

// Len returns the length of the vector a.
func (a Vector) Len() float64 {
	return math.Sqrt(a.X*a.X + a.Y*a.Y + a.Z*a.Z)
}

// Axis returns the i-th component of a (0 for X, 1 for Y, anything else for Z).
func (a Vector) Axis(i int) float64 {
	switch i {
	case 0:
		return a.X
	case 1:
		return a.Y
	default:
		return a.Z
	}
}

// Min returns the component-wise minimum of a and b.
func (a Vector) Min(b Vector) Vector {
	return Vector{X: math.Min(a.X, b.X), Y: math.Min(a.Y, b.Y), Z: math.Min(a.Z, b.Z)}
}

// Max returns the component-wise maximum of a and b.
func (a Vector) Max(b Vector) Vector {
	return Vector{X: math.Max(a.X, b.X), Y: math.Max(a.Y, b.Y), Z: math.Max(a.Z, b.Z)}
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
