package colour

import (
	"math"
	"testing"
)

func TestRGB_Clamp(t *testing.T) {
	got := RGB{R: 1.5, G: -0.25, B: math.NaN()}.Clamp()
	if got != (RGB{R: 1, G: 0, B: 0}) {
		t.Errorf("Expected {1 0 0}, got %v", got)
	}
}

func TestRGB_Conversions(t *testing.T) {
	c := NewRGB(0xFF, 0x80, 0x00)

	r, g, b := c.RGB()
	if r != 0xFF || g != 0x80 || b != 0x00 {
		t.Errorf("Expected (255, 128, 0), got (%d, %d, %d)", r, g, b)
	}

	r32, _, _, a32 := c.RGBA()
	if r32 != 0xFFFF || a32 != 0xFFFF {
		t.Errorf("Expected opaque full red channel, got r=%#x a=%#x", r32, a32)
	}
}

func TestRGB_Valid(t *testing.T) {
	if !(RGB{R: 0.5, G: 1, B: 0}).Valid() {
		t.Error("Expected in-range colour to be valid")
	}
	if (RGB{R: 1.01}).Valid() {
		t.Error("Expected out-of-range colour to be invalid")
	}
	if (RGB{G: math.Inf(1)}).Valid() {
		t.Error("Expected infinite channel to be invalid")
	}
}
