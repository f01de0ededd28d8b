// Package webcam opens local V4L/DirectShow devices through OpenCV.
package webcam

import (
	"context"
	"fmt"
	"image"
	"os"
	"runtime"
	"sync"

	"gocv.io/x/gocv"

	"snapmeta/internal/camera"
)

// Opener opens the device at DeviceID and discards Warmup frames before
// returning the first real one, since many sensors deliver dark frames
// while auto-exposure settles.
type Opener struct {
	DeviceID int
	Warmup   int
}

// NewOpener creates an Opener for the given device index.
func NewOpener(deviceID, warmup int) *Opener {
	if warmup < 0 {
		warmup = 0
	}
	return &Opener{DeviceID: deviceID, Warmup: warmup}
}

// Open implements camera.Opener.
func (o *Opener) Open(ctx context.Context, req camera.Request) (camera.Device, error) {
	if err := checkPermission(o.DeviceID); err != nil {
		return nil, err
	}

	vc, err := gocv.OpenVideoCapture(o.DeviceID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", camera.ErrUnavailable, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("%w: device %d did not open", camera.ErrUnavailable, o.DeviceID)
	}

	if req.Width > 0 {
		vc.Set(gocv.VideoCaptureFrameWidth, float64(req.Width))
	}
	if req.Height > 0 {
		vc.Set(gocv.VideoCaptureFrameHeight, float64(req.Height))
	}

	return &device{vc: vc, warmup: o.Warmup}, nil
}

// checkPermission surfaces EACCES on the device node as a denial
// instead of letting OpenCV report a generic open failure.
func checkPermission(id int) error {
	if runtime.GOOS != "linux" {
		return nil
	}
	path := fmt.Sprintf("/dev/video%d", id)
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		if os.IsPermission(err) {
			return fmt.Errorf("%w: %s", camera.ErrPermissionDenied, path)
		}
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", camera.ErrUnavailable, path)
		}
		return nil
	}
	return f.Close()
}

type device struct {
	vc     *gocv.VideoCapture
	warmup int

	mu     sync.Mutex
	closed bool
}

func (d *device) Frame(ctx context.Context) (image.Image, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, camera.ErrUnavailable
	}

	mat := gocv.NewMat()
	defer mat.Close()

	for i := 0; i <= d.warmup; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if ok := d.vc.Read(&mat); !ok {
			return nil, fmt.Errorf("%w: read failed", camera.ErrUnavailable)
		}
	}
	if mat.Empty() {
		return nil, fmt.Errorf("%w: empty frame", camera.ErrUnavailable)
	}

	img, err := mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("failed to convert frame: %v", err)
	}
	return img, nil
}

func (d *device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	return d.vc.Close()
}
