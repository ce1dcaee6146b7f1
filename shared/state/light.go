// Package state provides shared state information for use by workers and the master.
package state

import (
	"github.com/mwindels/remote-raytracer/shared/colour"
	"github.com/mwindels/remote-raytracer/shared/geom"
)

// LightKind says how a light illuminates the scene.
type LightKind uint8

// These constants are the kinds of light a light set may contain.
const (
	LightPoint LightKind = iota + 1
	LightDirectional
)

func (k LightKind) String() string {
	switch k {
	case LightPoint:
		return "point"
	case LightDirectional:
		return "directional"
	}
	return "unknown"
}

// Light represents a source of light in 3-dimensional space.
type Light struct {
	Kind      LightKind
	Pos       geom.Vector // Where a point light sits.
	Dir       geom.Vector // The direction a directional light travels in.
	Col       colour.RGB
	Intensity float64
}

// NewPointLight returns a light radiating from pos.
func NewPointLight(pos geom.Vector, col colour.RGB, intensity float64) Light {
	return Light{Kind: LightPoint, Pos: pos, Col: col, Intensity: intensity}
}

// NewDirectionalLight returns a light arriving everywhere along dir.
func NewDirectionalLight(dir geom.Vector, col colour.RGB, intensity float64) Light {
	return Light{Kind: LightDirectional, Dir: dir, Col: col, Intensity: intensity}
}

// Validate checks that l is well-formed.
func (l Light) Validate() error {
	if !l.Col.Valid() {
		return Errorf(KindInvalidLight, "light colour %v is outside [0, 1]", l.Col)
	}
	if !finite(l.Intensity) || l.Intensity < 0 {
		return Errorf(KindInvalidLight, "light intensity %v must be a non-negative number", l.Intensity)
	}

	switch l.Kind {
	case LightPoint:
		if !l.Pos.Finite() {
			return Errorf(KindInvalidLight, "point light position %v is not finite", l.Pos)
		}
	case LightDirectional:
		if !l.Dir.Finite() || l.Dir.Zero() {
			return Errorf(KindInvalidLight, "directional light needs a finite, non-zero direction")
		}
	default:
		return Errorf(KindInvalidLight, "unknown light kind %d", l.Kind)
	}

	return nil
}

// ValidateLights checks every light in lights.
// An empty light set is valid.
func ValidateLights(lights []Light) error {
	for i, l := range lights {
		if err := l.Validate(); err != nil {
			return Errorf(KindInvalidLight, "light %d: %v", i, err.(*Error).Msg)
		}
	}
	return nil
}
