// Package tracer provides ray-tracing functionality shared by the distributed and sequential workers.
package tracer

import (
	"math"

	"github.com/mwindels/remote-raytracer/shared/colour"
	"github.com/mwindels/remote-raytracer/shared/geom"
	"github.com/mwindels/remote-raytracer/shared/state"
)

// These constants control the numeric tolerances and recursion of the tracer.
const (
	// Epsilon is the smallest distance along a ray at which a hit counts.
	Epsilon = 1e-6

	// ShadowBias is how far secondary rays start off a surface, along its normal.
	ShadowBias = 1e-4

	// MaxReflectionDepth is how many mirror bounces are followed before a reflective surface is shaded as if it were not reflective.
	MaxReflectionDepth = 5
)

// Background is the colour of every ray that hits nothing.
var Background = colour.Black

// PixelToRay builds the ray from the camera's eye through the centre of pixel c.
// Coordinates outside the image are rejected before anything else is computed.
func PixelToRay(c state.PixelCoordinate, p state.Projection) (geom.Ray, error) {
	if err := p.Contains(c); err != nil {
		return geom.Ray{}, err
	}

	// Find the centre of the pixel as a fraction of the image's width and height.
	u := (float64(c.X) + 0.5) / float64(p.Width)
	v := (float64(c.Y) + 0.5) / float64(p.Height)

	// An explicit image plane maps the fractions directly.
	if p.Plane != nil {
		point := p.Plane.Corner.Add(p.Plane.Horizontal.Scale(u)).Add(p.Plane.Vertical.Scale(v))
		return geom.NewRay(p.Eye, point.Sub(p.Eye)), nil
	}

	// Otherwise, the projection plane is exactly one unit in front of the camera.
	forward, right, up := p.Basis()
	projHalfWidth := math.Tan(p.Fov / 2.0)
	projHalfHeight := projHalfWidth * float64(p.Height) / float64(p.Width)
	rightOffset := right.Scale(projHalfWidth * (2.0*u - 1.0))
	upOffset := up.Scale(projHalfHeight * (1.0 - 2.0*v))

	return geom.NewRay(p.Eye, forward.Add(rightOffset).Add(upOffset)), nil
}

// Shade calculates the colour of a hit using Phong shading.
// Lights blocked by other geometry contribute nothing; reflective materials trace a mirror ray while depth allows.
func (s *Scene) Shade(r geom.Ray, hit Hit, lights []state.Light, depth int) colour.RGB {
	material := hit.Material

	// Start with the surface's colour when it is unlit.
	c := material.Ambient

	// Secondary rays start slightly above the surface to avoid hitting it again.
	origin := hit.Point.Add(hit.Normal.Scale(ShadowBias))
	camDir := r.Dir.Norm().Neg()

	// For every light, add the diffuse and specular lighting.
	for _, l := range lights {
		lightDir, lightDistance, ok := towards(l, hit.Point)
		if !ok {
			continue
		}

		// Surfaces facing away from the light get nothing from it.
		incidence := hit.Normal.Dot(lightDir)
		if incidence <= 0.0 {
			continue
		}

		// Make sure the surface is not in shadow.
		if _, shaded := s.intersect(geom.Ray{Origin: origin, Dir: lightDir}, lightDistance); shaded {
			continue
		}

		intensity := l.Col.Scale(l.Intensity)
		reflectDir := lightDir.Neg().Reflect(hit.Normal)

		// Add diffuse lighting for light l.
		contribution := material.Diffuse.Multiply(intensity).Scale(incidence)

		// Add specular lighting for light l.
		if material.Specular > 0.0 {
			contribution = contribution.Add(intensity.Scale(material.Specular * math.Pow(math.Max(reflectDir.Dot(camDir), 0.0), material.Shininess)))
		}

		// A light whose numbers went bad is treated as if it missed the surface.
		if contribution.Finite() {
			c = c.Add(contribution)
		}
	}

	// Mix in whatever the surface mirrors.
	if material.Reflectivity > 0.0 && depth < MaxReflectionDepth {
		reflected := s.traceRay(geom.NewRay(origin, r.Dir.Reflect(hit.Normal)), lights, depth+1)
		c = c.Clamp().Scale(1.0 - material.Reflectivity).Add(reflected.Scale(material.Reflectivity))
	}

	return c.Clamp()
}

// towards returns the unit direction from p to the light l, and how far away the light is.
// The last return value is false if no direction exists.
func towards(l state.Light, p geom.Vector) (geom.Vector, float64, bool) {
	switch l.Kind {
	case state.LightPoint:
		toLight := l.Pos.Sub(p)
		dist := toLight.Len()
		if dist == 0.0 || !toLight.Finite() {
			return geom.Vector{}, 0, false
		}
		return toLight.Scale(1.0 / dist), dist, true
	case state.LightDirectional:
		return l.Dir.Norm().Neg(), math.Inf(1), true
	}
	return geom.Vector{}, 0, false
}

// traceRay traces a single ray into the scene and shades whatever it hits.
func (s *Scene) traceRay(r geom.Ray, lights []state.Light, depth int) colour.RGB {
	if hit, valid := s.Intersect(r); valid {
		return s.Shade(r, hit, lights, depth)
	}
	return Background
}

// TraceRay traces a primary ray into the scene and returns the colour it sees.
func (s *Scene) TraceRay(r geom.Ray, lights []state.Light) colour.RGB {
	return s.traceRay(r, lights, 0)
}

// Trace traces a single ray through the pixel c and into a scene.
// The lights and projection are validated first; an empty light set is allowed.
func Trace(s *Scene, lights []state.Light, p state.Projection, c state.PixelCoordinate) (colour.RGB, error) {
	if err := state.ValidateLights(lights); err != nil {
		return colour.RGB{}, err
	}
	if err := p.Validate(); err != nil {
		return colour.RGB{}, err
	}

	r, err := PixelToRay(c, p)
	if err != nil {
		return colour.RGB{}, err
	}

	return s.TraceRay(r, lights), nil
}
