package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image/jpeg"
	"image/png"
	"strings"

	"snapmeta/internal/model"
	"snapmeta/internal/source"
)

const (
	FormatJPEG = "jpeg"
	FormatPNG  = "png"

	// DefaultQuality is the JPEG quality used when none is configured.
	DefaultQuality = 0.92
)

var errNonPositive = errors.New("non-positive dimensions")

// Encoder serializes PixelGrids. The zero value encodes JPEG at DefaultQuality.
type Encoder struct {
	Format  string
	Quality float64
}

// NewEncoder validates format and quality. Quality must lie in (0, 1].
func NewEncoder(format string, quality float64) (Encoder, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	switch format {
	case "", "jpg", FormatJPEG:
		format = FormatJPEG
	case FormatPNG:
	default:
		return Encoder{}, fmt.Errorf("unknown encode format %q", format)
	}
	if quality == 0 {
		quality = DefaultQuality
	}
	if quality < 0 || quality > 1 {
		return Encoder{}, fmt.Errorf("encode quality %.2f out of range (0, 1]", quality)
	}
	return Encoder{Format: format, Quality: quality}, nil
}

// MIME returns the media type produced by Encode.
func (e Encoder) MIME() string {
	if e.Format == FormatPNG {
		return "image/png"
	}
	return "image/jpeg"
}

func (e Encoder) format() string {
	if e.Format == "" {
		return FormatJPEG
	}
	return e.Format
}

// Encode serializes g. The result carries no capture origin.
func (e Encoder) Encode(g model.PixelGrid) (model.ByteBuffer, error) {
	if err := g.Validate(); err != nil {
		return model.ByteBuffer{}, &EncodeError{Format: e.format(), Err: err}
	}
	if g.Width <= 0 || g.Height <= 0 {
		return model.ByteBuffer{}, &EncodeError{
			Format: e.format(),
			Err:    fmt.Errorf("%w: %w %dx%d", model.ErrMalformedGrid, errNonPositive, g.Width, g.Height),
		}
	}

	img := ToImage(g)
	var buf bytes.Buffer
	var err error
	switch e.format() {
	case FormatPNG:
		err = png.Encode(&buf, img)
	case FormatJPEG:
		q := e.Quality
		if q == 0 {
			q = DefaultQuality
		}
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: source.JPEGQuality(q)})
	default:
		err = fmt.Errorf("unknown format %q", e.Format)
	}
	if err != nil {
		return model.ByteBuffer{}, &EncodeError{Format: e.format(), Err: err}
	}
	return model.NewByteBuffer(buf.Bytes(), e.MIME(), model.OriginUnknown), nil
}

// EncodeDataURI encodes g and renders it as a data: URI.
func (e Encoder) EncodeDataURI(g model.PixelGrid) (string, error) {
	buf, err := e.Encode(g)
	if err != nil {
		return "", err
	}
	return buf.DataURI(), nil
}
