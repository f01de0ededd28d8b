// Package source normalizes uploads, data URIs and camera frames into model.ByteBuffer.
package source

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"math"
	"mime"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/image/draw"

	"snapmeta/internal/model"
)

const (
	// DefaultMIME is assumed when a data URI header carries no media type.
	DefaultMIME = "image/jpeg"
	// DefaultFrameWidth and DefaultFrameHeight are the live-capture target resolution.
	DefaultFrameWidth  = 1280
	DefaultFrameHeight = 720
	// DefaultFrameQuality is the JPEG quality for live-capture snapshots, as a 0..1 fraction.
	DefaultFrameQuality = 0.95
	// DefaultMaxFrameWidth and DefaultMaxFrameHeight bound requested capture resolutions.
	DefaultMaxFrameWidth  = 3840
	DefaultMaxFrameHeight = 2160
)

var mimePattern = regexp.MustCompile(`:(.*?);`)

// FrameOptions controls how a live frame is normalized before hand-off.
type FrameOptions struct {
	Width   int
	Height  int
	Quality float64
}

// Merge fills zero fields of o from defaults.
func (o FrameOptions) Merge(defaults FrameOptions) FrameOptions {
	if o.Width <= 0 {
		o.Width = defaults.Width
	}
	if o.Height <= 0 {
		o.Height = defaults.Height
	}
	if o.Quality <= 0 || o.Quality > 1 {
		o.Quality = defaults.Quality
	}
	return o
}

// Adapter turns the supported input kinds into ByteBuffers.
type Adapter struct {
	maxBytes  int64
	frame     FrameOptions
	maxWidth  int
	maxHeight int
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithFrameLimit bounds the resolution a capture may request. Non-positive
// values keep the defaults.
func WithFrameLimit(width, height int) Option {
	return func(a *Adapter) {
		if width > 0 {
			a.maxWidth = width
		}
		if height > 0 {
			a.maxHeight = height
		}
	}
}

// NewAdapter creates an Adapter. maxBytes <= 0 disables the size limit.
func NewAdapter(maxBytes int64, frame FrameOptions, opts ...Option) *Adapter {
	a := &Adapter{
		maxBytes: maxBytes,
		frame: frame.Merge(FrameOptions{
			Width:   DefaultFrameWidth,
			Height:  DefaultFrameHeight,
			Quality: DefaultFrameQuality,
		}),
		maxWidth:  DefaultMaxFrameWidth,
		maxHeight: DefaultMaxFrameHeight,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// CheckFrame merges opts with the defaults and rejects resolutions over the limit.
func (a *Adapter) CheckFrame(opts FrameOptions) (FrameOptions, error) {
	opts = opts.Merge(a.frame)
	if opts.Width > a.maxWidth || opts.Height > a.maxHeight {
		return opts, &FrameSizeError{
			Width:     opts.Width,
			Height:    opts.Height,
			MaxWidth:  a.maxWidth,
			MaxHeight: a.maxHeight,
		}
	}
	return opts, nil
}

// FromDataURI decodes a data: URI. The header and payload are split on the first comma.
func (a *Adapter) FromDataURI(uri string, origin model.Origin) (model.ByteBuffer, error) {
	header, payload, ok := strings.Cut(uri, ",")
	if !ok {
		return model.ByteBuffer{}, &MalformedURIError{Reason: "missing comma separator"}
	}
	if !strings.HasPrefix(strings.ToLower(header), "data:") {
		return model.ByteBuffer{}, &MalformedURIError{Reason: "missing data: scheme"}
	}

	mediaType := DefaultMIME
	if m := mimePattern.FindStringSubmatch(header); m != nil && m[1] != "" {
		mediaType = m[1]
	}

	var data []byte
	var err error
	if strings.HasSuffix(strings.ToLower(header), ";base64") {
		data, err = decodeBase64(payload)
	} else {
		var s string
		s, err = url.PathUnescape(payload)
		data = []byte(s)
	}
	if err != nil {
		return model.ByteBuffer{}, &MalformedURIError{Reason: "payload", Err: err}
	}
	if len(data) == 0 {
		return model.ByteBuffer{}, &EmptySourceError{Source: "data URI"}
	}
	if a.maxBytes > 0 && int64(len(data)) > a.maxBytes {
		return model.ByteBuffer{}, &TooLargeError{Limit: a.maxBytes}
	}

	return model.NewByteBuffer(data, mediaType, origin), nil
}

// decodeBase64 accepts padded and unpadded standard encodings.
func decodeBase64(payload string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(payload)
	if err == nil {
		return data, nil
	}
	if raw, rawErr := base64.RawStdEncoding.DecodeString(payload); rawErr == nil {
		return raw, nil
	}
	return nil, err
}

// FromReader reads a file-like source verbatim. The declared MIME type wins when it
// names a concrete image type; otherwise the content is sniffed.
func (a *Adapter) FromReader(r io.Reader, declaredMIME string, origin model.Origin) (model.ByteBuffer, error) {
	if r == nil {
		return model.ByteBuffer{}, &EmptySourceError{Source: "file"}
	}

	limited := r
	if a.maxBytes > 0 {
		limited = io.LimitReader(r, a.maxBytes+1)
	}
	data, err := io.ReadAll(limited)
	if err != nil {
		return model.ByteBuffer{}, fmt.Errorf("failed to read source: %w", err)
	}
	if len(data) == 0 {
		return model.ByteBuffer{}, &EmptySourceError{Source: "file"}
	}
	if a.maxBytes > 0 && int64(len(data)) > a.maxBytes {
		return model.ByteBuffer{}, &TooLargeError{Limit: a.maxBytes}
	}

	mediaType := normalizeMIME(declaredMIME)
	if mediaType == "" {
		mediaType = Sniff(data)
	}
	return model.NewByteBuffer(data, mediaType, origin), nil
}

// FromFrame scales a live frame to the target resolution and encodes it as JPEG.
func (a *Adapter) FromFrame(frame image.Image, opts FrameOptions) (model.ByteBuffer, error) {
	if frame == nil || frame.Bounds().Empty() {
		return model.ByteBuffer{}, &EmptySourceError{Source: "camera frame"}
	}
	opts, err := a.CheckFrame(opts)
	if err != nil {
		return model.ByteBuffer{}, err
	}

	img := frame
	if b := frame.Bounds(); b.Dx() != opts.Width || b.Dy() != opts.Height {
		dst := image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height))
		draw.CatmullRom.Scale(dst, dst.Bounds(), frame, b, draw.Src, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality(opts.Quality)}); err != nil {
		return model.ByteBuffer{}, fmt.Errorf("failed to encode camera frame: %w", err)
	}
	if buf.Len() == 0 {
		return model.ByteBuffer{}, &EmptySourceError{Source: "camera frame"}
	}
	return model.NewByteBuffer(buf.Bytes(), "image/jpeg", model.OriginCamera), nil
}

// JPEGQuality maps a 0..1 quality fraction onto image/jpeg's 1..100 scale.
func JPEGQuality(q float64) int {
	v := int(math.Round(q * 100))
	if v < 1 {
		return 1
	}
	if v > 100 {
		return 100
	}
	return v
}

// Sniff detects the MIME type of data, without parameters.
func Sniff(data []byte) string {
	sniffed := http.DetectContentType(data)
	if mediaType, _, err := mime.ParseMediaType(sniffed); err == nil {
		return mediaType
	}
	return sniffed
}

// normalizeMIME strips parameters and returns "" for anything that is not a concrete image type.
func normalizeMIME(v string) string {
	mediaType, _, err := mime.ParseMediaType(v)
	if err != nil {
		return ""
	}
	if !strings.HasPrefix(mediaType, "image/") || mediaType == "image/*" {
		return ""
	}
	return mediaType
}
