// Package state provides shared state information for use by workers and the master.
package state

import (
	"math"

	"github.com/mwindels/remote-raytracer/shared/geom"
)

// GlobalUp is the up vector used when a projection does not name one.
// Because Go doesn't support constant structures, this has to be a variable.
var GlobalUp = geom.Vector{X: 0, Y: 1, Z: 0}

// ImagePlane spans the image explicitly in world space.
// Corner is the top-left edge of pixel (0, 0); Horizontal reaches the top-right edge and Vertical the bottom-left edge.
type ImagePlane struct {
	Corner     geom.Vector
	Horizontal geom.Vector
	Vertical   geom.Vector
}

// Projection represents a pinhole camera and the resolution of the image it takes.
type Projection struct {
	Eye       geom.Vector
	Direction geom.Vector // Where the camera looks.
	Up        geom.Vector // Roughly which way is up in the image; need not be perpendicular to Direction.
	Fov       float64     // Horizontal field of view, in radians.

	Width, Height int

	Plane *ImagePlane // If set, used instead of Direction, Up and Fov.
}

// NewProjection returns a projection from eye towards lookAt.
func NewProjection(eye, lookAt geom.Vector, fov float64, width, height int) Projection {
	return Projection{Eye: eye, Direction: lookAt.Sub(eye), Up: GlobalUp, Fov: fov, Width: width, Height: height}
}

// Basis returns the unit forward, right and up vectors of p's camera.
func (p Projection) Basis() (geom.Vector, geom.Vector, geom.Vector) {
	forward := p.Direction.Norm()
	right := forward.Cross(p.Up).Norm()
	up := right.Cross(forward) // This is already normalized.
	return forward, right, up
}

// Validate checks that p describes a usable camera.
func (p Projection) Validate() error {
	if p.Width <= 0 || p.Height <= 0 {
		return Errorf(KindInvalidProjection, "resolution %dx%d must be positive", p.Width, p.Height)
	}
	if !p.Eye.Finite() {
		return Errorf(KindInvalidProjection, "eye position %v is not finite", p.Eye)
	}

	if p.Plane != nil {
		if !p.Plane.Corner.Finite() || !p.Plane.Horizontal.Finite() || !p.Plane.Vertical.Finite() {
			return Errorf(KindInvalidProjection, "image plane is not finite")
		}
		if p.Plane.Horizontal.Cross(p.Plane.Vertical).Zero() {
			return Errorf(KindInvalidProjection, "image plane spans are parallel")
		}
		if p.Plane.Corner.Sub(p.Eye).Dot(p.Plane.Horizontal.Cross(p.Plane.Vertical)) == 0 {
			return Errorf(KindInvalidProjection, "eye lies on the image plane")
		}
		return nil
	}

	if !p.Direction.Finite() || p.Direction.Zero() {
		return Errorf(KindInvalidProjection, "viewing direction must be finite and non-zero")
	}
	if !p.Up.Finite() || p.Direction.Cross(p.Up).Zero() {
		return Errorf(KindInvalidProjection, "up vector %v is zero or parallel to the viewing direction", p.Up)
	}
	if !finite(p.Fov) || p.Fov <= 0 || p.Fov >= math.Pi {
		return Errorf(KindInvalidProjection, "field of view %v must be within (0, pi)", p.Fov)
	}

	return nil
}

// PixelCoordinate identifies one pixel; (0, 0) is the top-left of the image.
type PixelCoordinate struct {
	X, Y int
}

// CoordinateFromSlice converts a wire coordinate to a PixelCoordinate.
// Anything other than exactly two values is rejected.
func CoordinateFromSlice(v []int32) (PixelCoordinate, error) {
	if len(v) != 2 {
		return PixelCoordinate{}, Errorf(KindInvalidCoordinate, "coordinate has %d values, want 2", len(v))
	}
	return PixelCoordinate{X: int(v[0]), Y: int(v[1])}, nil
}

// Slice converts c to its wire form.
func (c PixelCoordinate) Slice() []int32 {
	return []int32{int32(c.X), int32(c.Y)}
}

// Contains checks that c lies within p's image.
func (p Projection) Contains(c PixelCoordinate) error {
	if c.X < 0 || c.X >= p.Width || c.Y < 0 || c.Y >= p.Height {
		return Errorf(KindInvalidCoordinate, "pixel (%d, %d) is outside [0, %d)x[0, %d)", c.X, c.Y, p.Width, p.Height)
	}
	return nil
}
