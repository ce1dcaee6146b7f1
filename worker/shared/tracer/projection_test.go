package tracer

import (
	"math"
	"testing"

	"github.com/mwindels/remote-raytracer/shared/geom"
	"github.com/mwindels/remote-raytracer/shared/state"
)

func TestPixelToRay_CentreLooksForward(t *testing.T) {
	proj := state.NewProjection(geom.Vector{Z: 5}, geom.Vector{}, math.Pi/2, 101, 101)

	r, err := PixelToRay(state.PixelCoordinate{X: 50, Y: 50}, proj)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if r.Origin != proj.Eye {
		t.Errorf("Expected ray to start at the eye, got %v", r.Origin)
	}
	if math.Abs(r.Dir.Z+1) > 1e-12 || math.Abs(r.Dir.X) > 1e-12 || math.Abs(r.Dir.Y) > 1e-12 {
		t.Errorf("Expected direction (0, 0, -1), got %v", r.Dir)
	}
}

func TestPixelToRay_Orientation(t *testing.T) {
	proj := state.NewProjection(geom.Vector{Z: 5}, geom.Vector{}, math.Pi/2, 10, 10)

	topLeft, _ := PixelToRay(state.PixelCoordinate{X: 0, Y: 0}, proj)
	if topLeft.Dir.X >= 0 || topLeft.Dir.Y <= 0 {
		t.Errorf("Expected pixel (0, 0) to look up and left, got %v", topLeft.Dir)
	}

	bottomRight, _ := PixelToRay(state.PixelCoordinate{X: 9, Y: 9}, proj)
	if bottomRight.Dir.X <= 0 || bottomRight.Dir.Y >= 0 {
		t.Errorf("Expected pixel (9, 9) to look down and right, got %v", bottomRight.Dir)
	}
}

func TestPixelToRay_DistinctPixelsDistinctRays(t *testing.T) {
	proj := state.NewProjection(geom.Vector{X: 1, Y: 2, Z: 3}, geom.Vector{}, math.Pi/3, 40, 30)

	seen := make(map[geom.Vector]state.PixelCoordinate)
	for y := 0; y < proj.Height; y++ {
		for x := 0; x < proj.Width; x++ {
			c := state.PixelCoordinate{X: x, Y: y}
			r, err := PixelToRay(c, proj)
			if err != nil {
				t.Fatalf("Pixel %v: unexpected error %v", c, err)
			}
			if other, exists := seen[r.Dir]; exists {
				t.Fatalf("Pixels %v and %v share the direction %v", c, other, r.Dir)
			}
			seen[r.Dir] = c
		}
	}
}

func TestPixelToRay_ImagePlane(t *testing.T) {
	proj := state.Projection{
		Eye:    geom.Vector{Z: 1},
		Width:  2,
		Height: 2,
		Plane: &state.ImagePlane{
			Corner:     geom.Vector{X: -1, Y: 1},
			Horizontal: geom.Vector{X: 2},
			Vertical:   geom.Vector{Y: -2},
		},
	}
	if err := proj.Validate(); err != nil {
		t.Fatalf("Expected valid projection, got %v", err)
	}

	r, _ := PixelToRay(state.PixelCoordinate{X: 1, Y: 0}, proj)
	expected := geom.Vector{X: 0.5, Y: 0.5, Z: -1}.Norm()
	if math.Abs(r.Dir.X-expected.X) > 1e-12 || math.Abs(r.Dir.Y-expected.Y) > 1e-12 || math.Abs(r.Dir.Z-expected.Z) > 1e-12 {
		t.Errorf("Expected %v, got %v", expected, r.Dir)
	}
}

func TestPixelToRay_OutOfRange(t *testing.T) {
	proj := state.NewProjection(geom.Vector{Z: 5}, geom.Vector{}, math.Pi/2, 10, 10)

	for _, c := range []state.PixelCoordinate{{X: 10, Y: 0}, {X: 0, Y: 10}, {X: -1, Y: 0}, {X: 0, Y: -1}} {
		if _, err := PixelToRay(c, proj); state.KindOf(err) != state.KindInvalidCoordinate {
			t.Errorf("Pixel %v: expected %v, got %v", c, state.KindInvalidCoordinate, err)
		}
	}
}
