package pipeline

import (
	"io"

	"snapmeta/internal/model"
)

// Input is one of FileInput, DataURIInput or CameraInput.
type Input interface {
	Origin() model.Origin
	input()
}

// FileInput is an uploaded file. MIME is the declared type and may be empty.
type FileInput struct {
	Reader io.Reader
	MIME   string
	// From overrides the origin; zero means file upload.
	From model.Origin
}

func (f FileInput) Origin() model.Origin {
	if f.From == model.OriginUnknown {
		return model.OriginFileUpload
	}
	return f.From
}

func (FileInput) input() {}

// DataURIInput is a base64 data: URI, as produced by browser canvases.
type DataURIInput struct {
	URI  string
	From model.Origin
}

func (d DataURIInput) Origin() model.Origin {
	if d.From == model.OriginUnknown {
		return model.OriginFileUpload
	}
	return d.From
}

func (DataURIInput) input() {}

// CameraInput requests a single live frame. Zero fields use the configured defaults.
type CameraInput struct {
	Width   int
	Height  int
	Quality float64
}

func (CameraInput) Origin() model.Origin { return model.OriginCamera }
func (CameraInput) input()               {}
