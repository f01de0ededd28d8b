// Package imaging converts between encoded payloads and PixelGrids.
package imaging

import (
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"snapmeta/internal/model"
)

// DefaultMaxPixels bounds the declared width*height Decode will allocate for.
const DefaultMaxPixels = 40_000_000

// Decode decodes buf with DefaultMaxPixels.
func Decode(buf model.ByteBuffer) (model.PixelGrid, error) {
	return DecodeLimited(buf, DefaultMaxPixels)
}

// DecodeLimited decodes buf into straight RGBA samples. The container is
// detected from the byte signature; a MIME type outside image/* is rejected
// up front, and so is any header declaring more than maxPixels pixels.
// maxPixels <= 0 disables the check.
func DecodeLimited(buf model.ByteBuffer, maxPixels int64) (model.PixelGrid, error) {
	if mt := buf.MIME(); mt != "" && !strings.HasPrefix(mt, "image/") {
		return model.PixelGrid{}, &UnsupportedFormatError{MIME: mt}
	}

	if maxPixels > 0 {
		cfg, _, err := DecodeConfig(buf)
		if err != nil {
			return model.PixelGrid{}, err
		}
		if int64(cfg.Width)*int64(cfg.Height) > maxPixels {
			return model.PixelGrid{}, &TooManyPixelsError{Width: cfg.Width, Height: cfg.Height, Limit: maxPixels}
		}
	}

	img, _, err := image.Decode(buf.Reader())
	if err != nil {
		return model.PixelGrid{}, &UnsupportedFormatError{MIME: buf.MIME(), Err: err}
	}
	return FromImage(img), nil
}

// DecodeConfig reports the dimensions and container name without decoding pixels.
func DecodeConfig(buf model.ByteBuffer) (image.Config, string, error) {
	cfg, format, err := image.DecodeConfig(buf.Reader())
	if err != nil {
		return image.Config{}, "", &UnsupportedFormatError{MIME: buf.MIME(), Err: err}
	}
	return cfg, format, nil
}

// FromImage copies img into a PixelGrid anchored at (0, 0).
func FromImage(img image.Image) model.PixelGrid {
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return model.PixelGrid{Width: b.Dx(), Height: b.Dy(), Pix: dst.Pix}
}

// ToImage wraps a copy of g as an image.NRGBA.
func ToImage(g model.PixelGrid) *image.NRGBA {
	pix := make([]uint8, len(g.Pix))
	copy(pix, g.Pix)
	return &image.NRGBA{
		Pix:    pix,
		Stride: g.Width * 4,
		Rect:   image.Rect(0, 0, g.Width, g.Height),
	}
}
