package model

import (
	"errors"
	"fmt"
	"image/color"
)

// ErrMalformedGrid is wrapped by every PixelGrid validation failure.
var ErrMalformedGrid = errors.New("malformed pixel grid")

// PixelGrid is a decoded image: straight (non-premultiplied) RGBA samples,
// row-major, four bytes per pixel.
type PixelGrid struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewPixelGrid allocates a zeroed grid of the given size.
func NewPixelGrid(width, height int) PixelGrid {
	return PixelGrid{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*4),
	}
}

// Validate checks that the sample count matches the dimensions.
func (g PixelGrid) Validate() error {
	if g.Width < 0 || g.Height < 0 {
		return fmt.Errorf("%w: negative dimensions %dx%d", ErrMalformedGrid, g.Width, g.Height)
	}
	if want := g.Width * g.Height * 4; len(g.Pix) != want {
		return fmt.Errorf("%w: %d samples for %dx%d, want %d", ErrMalformedGrid, len(g.Pix), g.Width, g.Height, want)
	}
	return nil
}

// Empty reports whether the grid has no pixels.
func (g PixelGrid) Empty() bool {
	return g.Width == 0 || g.Height == 0
}

// Clone returns a deep copy.
func (g PixelGrid) Clone() PixelGrid {
	pix := make([]uint8, len(g.Pix))
	copy(pix, g.Pix)
	return PixelGrid{Width: g.Width, Height: g.Height, Pix: pix}
}

// At returns the pixel at (x, y). It panics when out of range, like slice indexing.
func (g PixelGrid) At(x, y int) color.NRGBA {
	i := (y*g.Width + x) * 4
	return color.NRGBA{R: g.Pix[i], G: g.Pix[i+1], B: g.Pix[i+2], A: g.Pix[i+3]}
}

// Set writes the pixel at (x, y).
func (g PixelGrid) Set(x, y int, c color.NRGBA) {
	i := (y*g.Width + x) * 4
	g.Pix[i], g.Pix[i+1], g.Pix[i+2], g.Pix[i+3] = c.R, c.G, c.B, c.A
}
