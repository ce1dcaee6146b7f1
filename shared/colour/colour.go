// Package colour provides shared a colour object for use by workers and the master.
//
// Colours travel over the wire as three float64 channels normalized to [0, 1].
package colour

import "math"

// RGB represents a colour with red, green, and blue channels.
// Channels of a finished colour are within the range [0, 1]; intermediate sums may exceed it until Clamp is called.
type RGB struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
}

// Black is the colour with every channel off.
var Black = RGB{}

// NewRGB returns a new RGB object with the specified 8-bit colours.
func NewRGB(r, g, b uint8) RGB {
	return RGB{R: float64(r) / 255.0, G: float64(g) / 255.0, B: float64(b) / 255.0}
}

// NewRGBFromFloats returns a new RGB object with the specified colours (after clamping them to the range [0, 1]).
func NewRGBFromFloats(r, g, b float32) RGB {
	return RGB{R: float64(r), G: float64(g), B: float64(b)}.Clamp()
}

// Add returns the sum of the RGB objects a and b.
func (a RGB) Add(b RGB) RGB {
	return RGB{R: a.R + b.R, G: a.G + b.G, B: a.B + b.B}
}

// Scale returns the RGB object a scaled by the scalar s.
func (a RGB) Scale(s float64) RGB {
	return RGB{R: s * a.R, G: s * a.G, B: s * a.B}
}

// Multiply returns the product of the RGB objects a and b.
func (a RGB) Multiply(b RGB) RGB {
	return RGB{R: a.R * b.R, G: a.G * b.G, B: a.B * b.B}
}

// Clamp returns a with every channel forced into [0, 1].
// Channels that are not numbers become 0.
func (a RGB) Clamp() RGB {
	return RGB{R: clamp(a.R), G: clamp(a.G), B: clamp(a.B)}
}

// Finite returns whether every channel of a is a real number.
func (a RGB) Finite() bool {
	for _, c := range [3]float64{a.R, a.G, a.B} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// Valid returns whether every channel of a is within [0, 1].
func (a RGB) Valid() bool {
	return a.Finite() && a == a.Clamp()
}

// RGBA returns the colour channels of an RGB object in the 16-bit range used by image/color, fully opaque.
// This function allows RGB objects to be used with the Color (image/color) interface.
func (a RGB) RGBA() (uint32, uint32, uint32, uint32) {
	c := a.Clamp()
	return uint32(math.Round(0xFFFF * c.R)), uint32(math.Round(0xFFFF * c.G)), uint32(math.Round(0xFFFF * c.B)), 0xFFFF
}

// RGB returns the three colour channels of an RGB object in the range [0, 255].
func (a RGB) RGB() (uint8, uint8, uint8) {
	c := a.Clamp()
	return uint8(math.Round(255 * c.R)), uint8(math.Round(255 * c.G)), uint8(math.Round(255 * c.B))
}

func clamp(c float64) float64 {
	if math.IsNaN(c) {
		return 0.0
	}
	return math.Max(0.0, math.Min(c, 1.0))
}
