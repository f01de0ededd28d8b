// Package cvtransform provides OpenCV-backed transforms for the registry.
package cvtransform

import (
	"fmt"

	"gocv.io/x/gocv"

	"snapmeta/internal/imaging"
	"snapmeta/internal/model"
)

const (
	// DefaultThreshold matches the change level used for motion masks.
	DefaultThreshold = 30
	DefaultEdgeLow   = 50
	DefaultEdgeHigh  = 150
)

// Edges renders a Canny edge map: white edges on black.
type Edges struct {
	Low  float32
	High float32
}

func (Edges) Name() string { return "edges" }

func (e Edges) Apply(g model.PixelGrid) (model.PixelGrid, error) {
	low, high := e.Low, e.High
	if low <= 0 && high <= 0 {
		low, high = DefaultEdgeLow, DefaultEdgeHigh
	}
	return withGray(g, func(gray gocv.Mat, dst *gocv.Mat) {
		gocv.Canny(gray, dst, low, high)
	})
}

// Threshold maps every pixel whose luminance exceeds Level to white and the rest to black.
type Threshold struct {
	Level float32
}

func (Threshold) Name() string { return "threshold" }

func (t Threshold) Apply(g model.PixelGrid) (model.PixelGrid, error) {
	level := t.Level
	if level <= 0 {
		level = DefaultThreshold
	}
	return withGray(g, func(gray gocv.Mat, dst *gocv.Mat) {
		gocv.Threshold(gray, dst, level, 255, gocv.ThresholdBinary)
	})
}

// withGray converts g to a single-channel Mat, runs op and converts the
// result back to RGBA. Alpha is reset to opaque.
func withGray(g model.PixelGrid, op func(gray gocv.Mat, dst *gocv.Mat)) (model.PixelGrid, error) {
	if err := g.Validate(); err != nil {
		return model.PixelGrid{}, err
	}
	if g.Empty() {
		return g.Clone(), nil
	}

	src, err := gocv.ImageToMatRGBA(imaging.ToImage(g))
	if err != nil {
		return model.PixelGrid{}, fmt.Errorf("failed to convert grid to mat: %v", err)
	}
	defer src.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(src, &gray, gocv.ColorRGBAToGray)

	out := gocv.NewMat()
	defer out.Close()
	op(gray, &out)
	if out.Empty() {
		return model.PixelGrid{}, fmt.Errorf("opencv produced an empty result")
	}

	img, err := out.ToImage()
	if err != nil {
		return model.PixelGrid{}, fmt.Errorf("failed to convert mat to image: %v", err)
	}
	return imaging.FromImage(img), nil
}
