// Package screen provides frame-related functionality for use by the master or a sequential worker.
package screen

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"github.com/mwindels/remote-raytracer/shared/colour"
	"github.com/mwindels/remote-raytracer/shared/state"
	"golang.org/x/image/draw"
)

// Frame holds the colour of every pixel in a rendered image.
// Distinct pixels may be written concurrently.
type Frame struct {
	Width, Height int
	pixels        []colour.RGB
	unresolved    []bool
}

// NewFrame creates a black frame of the given resolution.
func NewFrame(width, height int) *Frame {
	return &Frame{
		Width:      width,
		Height:     height,
		pixels:     make([]colour.RGB, width*height),
		unresolved: make([]bool, width*height),
	}
}

// index returns where c is stored, panicking if c is outside the frame.
func (f *Frame) index(c state.PixelCoordinate) int {
	if c.X < 0 || c.X >= f.Width || c.Y < 0 || c.Y >= f.Height {
		panic(fmt.Sprintf("pixel (%d, %d) is outside a %dx%d frame", c.X, c.Y, f.Width, f.Height))
	}
	return c.Y*f.Width + c.X
}

// Set sets the colour of pixel c.
func (f *Frame) Set(c state.PixelCoordinate, col colour.RGB) {
	f.pixels[f.index(c)] = col
}

// At returns the colour of pixel c.
func (f *Frame) At(c state.PixelCoordinate) colour.RGB {
	return f.pixels[f.index(c)]
}

// MarkUnresolved records that no colour could be computed for pixel c.
func (f *Frame) MarkUnresolved(c state.PixelCoordinate) {
	f.unresolved[f.index(c)] = true
}

// Unresolved returns every pixel marked unresolved, in row order.
func (f *Frame) Unresolved() []state.PixelCoordinate {
	var out []state.PixelCoordinate
	for i, u := range f.unresolved {
		if u {
			out = append(out, state.PixelCoordinate{X: i % f.Width, Y: i / f.Width})
		}
	}
	return out
}

// Image converts the frame to an 8-bit image.
func (f *Frame) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	for i, c := range f.pixels {
		r, g, b := c.RGB()
		offset := img.PixOffset(i%f.Width, i/f.Width)
		img.Pix[offset] = r
		img.Pix[offset+1] = g
		img.Pix[offset+2] = b
		img.Pix[offset+3] = 0xFF
	}
	return img
}

// Scaled converts the frame to an 8-bit image scale times larger in each direction.
func (f *Frame) Scaled(scale int) image.Image {
	src := f.Image()
	if scale <= 1 {
		return src
	}

	dst := image.NewRGBA(image.Rect(0, 0, f.Width*scale, f.Height*scale))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

// Save writes img to path, choosing PNG or WebP from the file's extension.
func Save(path string, img image.Image) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".png" && ext != ".webp" {
		return fmt.Errorf("unsupported image format %q", ext)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if ext == ".webp" {
		if err := nativewebp.Encode(file, img, nil); err != nil {
			return fmt.Errorf("WebP encode: %w", err)
		}
	} else if err := png.Encode(file, img); err != nil {
		return fmt.Errorf("PNG encode: %w", err)
	}

	return file.Close()
}
