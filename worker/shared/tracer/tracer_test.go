package tracer

import (
	"math"
	"testing"

	"github.com/mwindels/remote-raytracer/shared/colour"
	"github.com/mwindels/remote-raytracer/shared/geom"
	"github.com/mwindels/remote-raytracer/shared/state"
)

// sphereScene is a red unit sphere at the origin, framed by a 100x100 camera at (0, 0, 5).
func sphereScene(t *testing.T) (*Scene, state.Projection) {
	t.Helper()
	s := mustCompile(t, state.NewSphere(geom.Vector{}, 1, red))
	fov := 2 * math.Atan(1.0/5.0)
	return s, state.NewProjection(geom.Vector{Z: 5}, geom.Vector{}, fov, 100, 100)
}

func closeTo(a, b colour.RGB) bool {
	const tolerance = 1e-9
	return math.Abs(a.R-b.R) < tolerance && math.Abs(a.G-b.G) < tolerance && math.Abs(a.B-b.B) < tolerance
}

func TestTrace_CentrePixelIsLitRed(t *testing.T) {
	s, proj := sphereScene(t)

	for _, pos := range []geom.Vector{{Y: 5}, {Y: 5, Z: 5}} {
		lights := []state.Light{state.NewPointLight(pos, white, 1)}

		got, err := Trace(s, lights, proj, state.PixelCoordinate{X: 50, Y: 50})
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}

		// Work out the expected colour from the hit point's incidence angle.
		r, _ := PixelToRay(state.PixelCoordinate{X: 50, Y: 50}, proj)
		hit, ok := s.Intersect(r)
		if !ok {
			t.Fatal("Expected the centre ray to hit the sphere")
		}
		incidence := math.Max(0, hit.Normal.Dot(pos.Sub(hit.Point).Norm()))
		expected := colour.RGB{R: 0.1 + incidence}.Clamp()

		if !closeTo(got, expected) {
			t.Errorf("Light at %v: expected %v, got %v", pos, expected, got)
		}
		if got == Background {
			t.Errorf("Light at %v: expected sphere colour, got background", pos)
		}
		if got.G != 0 || got.B != 0 {
			t.Errorf("Light at %v: expected pure red, got %v", pos, got)
		}
	}
}

func TestTrace_CornerPixelIsBackground(t *testing.T) {
	s, proj := sphereScene(t)
	lights := []state.Light{state.NewPointLight(geom.Vector{Y: 5}, white, 1)}

	got, err := Trace(s, lights, proj, state.PixelCoordinate{X: 0, Y: 0})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got != Background {
		t.Errorf("Expected background %v, got %v", Background, got)
	}
}

func TestTrace_EmptyLightSet(t *testing.T) {
	s, proj := sphereScene(t)

	hitColour, err := Trace(s, nil, proj, state.PixelCoordinate{X: 50, Y: 50})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if hitColour != red.Ambient {
		t.Errorf("Expected the unlit colour %v, got %v", red.Ambient, hitColour)
	}

	missColour, err := Trace(s, []state.Light{}, proj, state.PixelCoordinate{X: 0, Y: 99})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if missColour != Background {
		t.Errorf("Expected background %v, got %v", Background, missColour)
	}
}

func TestTrace_Rejections(t *testing.T) {
	s, proj := sphereScene(t)

	for _, c := range []state.PixelCoordinate{{X: 100, Y: 0}, {X: 0, Y: 100}, {X: -1, Y: 5}} {
		if _, err := Trace(s, nil, proj, c); state.KindOf(err) != state.KindInvalidCoordinate {
			t.Errorf("Coordinate %v: expected %v, got %v", c, state.KindInvalidCoordinate, err)
		}
	}

	bad := []state.Light{state.NewPointLight(geom.Vector{}, white, -2)}
	if _, err := Trace(s, bad, proj, state.PixelCoordinate{}); state.KindOf(err) != state.KindInvalidLight {
		t.Errorf("Expected %v, got %v", state.KindInvalidLight, err)
	}
}

func TestTrace_Deterministic(t *testing.T) {
	s, proj := sphereScene(t)
	lights := []state.Light{
		state.NewPointLight(geom.Vector{X: 2, Y: 5, Z: 5}, white, 0.7),
		state.NewDirectionalLight(geom.Vector{X: -1, Y: -1, Z: -1}, colour.RGB{B: 1}, 0.5),
	}

	for y := 0; y < proj.Height; y += 7 {
		for x := 0; x < proj.Width; x += 7 {
			c := state.PixelCoordinate{X: x, Y: y}
			first, _ := Trace(s, lights, proj, c)
			for i := 0; i < 3; i++ {
				if again, _ := Trace(s, lights, proj, c); again != first {
					t.Fatalf("Pixel %v: expected %v every time, got %v", c, first, again)
				}
			}
		}
	}
}

func TestShade_OccluderBlocksLight(t *testing.T) {
	floor := state.NewPlane(geom.Vector{Y: -1}, geom.Vector{Y: 1}, state.Material{Diffuse: white})
	occluder := state.NewSphere(geom.Vector{Y: 2}, 0.5, red)
	r := geom.NewRay(geom.Vector{X: 2}, geom.Vector{X: -2, Y: -1})

	tests := []struct {
		name  string
		light state.Light
	}{
		{"point", state.NewPointLight(geom.Vector{Y: 5}, white, 1)},
		{"directional", state.NewDirectionalLight(geom.Vector{Y: -1}, white, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lights := []state.Light{tt.light}

			open := mustCompile(t, state.NewGroup(floor, state.NewGroup()))
			lit := open.TraceRay(r, lights)
			if lit.R <= 0 {
				t.Fatalf("Expected the floor to be lit without the occluder, got %v", lit)
			}

			blocked := mustCompile(t, state.NewGroup(floor, occluder))
			if shadowed := blocked.TraceRay(r, lights); shadowed != colour.Black {
				t.Errorf("Expected no light behind the occluder, got %v", shadowed)
			}
		})
	}
}

func TestShade_LightInFrontOfOccluderStillLights(t *testing.T) {
	// The sphere sits beyond the light, so it cannot shadow the floor.
	floor := state.NewPlane(geom.Vector{Y: -1}, geom.Vector{Y: 1}, state.Material{Diffuse: white})
	beyond := state.NewSphere(geom.Vector{Y: 8}, 0.5, red)
	s := mustCompile(t, state.NewGroup(floor, beyond))

	r := geom.NewRay(geom.Vector{X: 2}, geom.Vector{X: -2, Y: -1})
	if c := s.TraceRay(r, []state.Light{state.NewPointLight(geom.Vector{Y: 5}, white, 1)}); c.R <= 0 {
		t.Errorf("Expected the floor to be lit, got %v", c)
	}
}

func TestShade_ReflectionTerminates(t *testing.T) {
	left := state.Material{Ambient: colour.RGB{R: 1}, Reflectivity: 0.5}
	right := state.Material{Ambient: colour.RGB{G: 1}, Reflectivity: 0.5}
	s := mustCompile(t, state.NewGroup(
		state.NewPlane(geom.Vector{X: -1}, geom.Vector{X: 1}, left),
		state.NewPlane(geom.Vector{X: 1}, geom.Vector{X: -1}, right),
	))

	// The ray bounces between the mirrors, hitting the right one at even depths.
	// The last bounce is shaded without reflection, then each earlier one blends half of it in.
	ambientAt := func(depth int) colour.RGB {
		if depth%2 == 0 {
			return right.Ambient
		}
		return left.Ambient
	}
	expected := ambientAt(MaxReflectionDepth)
	for depth := MaxReflectionDepth - 1; depth >= 0; depth-- {
		expected = ambientAt(depth).Scale(0.5).Add(expected.Scale(0.5))
	}

	c := s.TraceRay(geom.NewRay(geom.Vector{}, geom.Vector{X: 1}), nil)
	if !closeTo(c, expected) {
		t.Errorf("Expected %v after %d bounces, got %v", expected, MaxReflectionDepth, c)
	}

	// With the default depth of 5 the chain ends on the left mirror.
	if !closeTo(c, colour.RGB{R: 0.34375, G: 0.65625}) {
		t.Errorf("Expected {0.34375 0.65625 0}, got %v", c)
	}
}

func TestShade_ReflectionPicksUpMirroredColour(t *testing.T) {
	mirror := state.Material{Reflectivity: 1}
	target := state.Material{Ambient: colour.RGB{G: 1}}
	s := mustCompile(t, state.NewGroup(
		state.NewPlane(geom.Vector{Y: -1}, geom.Vector{Y: 1}, mirror),
		state.NewSphere(geom.Vector{X: -2, Y: 1}, 1, target),
	))

	// The ray bounces off the floor at (0, -1, 0) straight into the sphere.
	c := s.TraceRay(geom.NewRay(geom.Vector{X: 2, Y: 1}, geom.Vector{X: -1, Y: -1}), nil)
	if !closeTo(c, colour.RGB{G: 1}) {
		t.Errorf("Expected the mirrored green sphere, got %v", c)
	}
}

func TestShade_Specular(t *testing.T) {
	shiny := state.Material{Specular: 1, Shininess: 10}
	s := mustCompile(t, state.NewSphere(geom.Vector{}, 1, shiny))

	// Light and eye sit on the same axis, so the highlight is at its peak.
	r := geom.NewRay(geom.Vector{Z: 5}, geom.Vector{Z: -1})
	c := s.TraceRay(r, []state.Light{state.NewPointLight(geom.Vector{Z: 5}, white, 0.5)})
	if !closeTo(c, colour.RGB{R: 0.5, G: 0.5, B: 0.5}) {
		t.Errorf("Expected a half-intensity white highlight, got %v", c)
	}
}
