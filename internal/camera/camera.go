// Package camera models live-frame acquisition as a scoped resource:
// open the device, grab one frame, always release it.
package camera

import (
	"context"
	"errors"
	"fmt"
	"image"

	"go.uber.org/multierr"
)

var (
	// ErrPermissionDenied is returned by openers when the user or OS refused access.
	ErrPermissionDenied = errors.New("camera permission denied")
	// ErrUnavailable is returned when no usable device exists or it stopped delivering frames.
	ErrUnavailable = errors.New("camera unavailable")
)

// Request describes the frame the caller wants from the device.
type Request struct {
	Width  int
	Height int
}

// Device is an open camera stream. Close must be safe to call once per Open.
type Device interface {
	Frame(ctx context.Context) (image.Image, error)
	Close() error
}

// Opener negotiates access to a device. Open may block on a permission prompt.
type Opener interface {
	Open(ctx context.Context, req Request) (Device, error)
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(ctx context.Context, req Request) (Device, error)

func (f OpenerFunc) Open(ctx context.Context, req Request) (Device, error) {
	return f(ctx, req)
}

// DeviceAccessError wraps every failure to open, read or release a device.
type DeviceAccessError struct {
	Op  string
	Err error
}

func (e *DeviceAccessError) Error() string {
	return fmt.Sprintf("camera %s: %v", e.Op, e.Err)
}

func (e *DeviceAccessError) Unwrap() error { return e.Err }

// Denied reports whether access was refused rather than unavailable.
func (e *DeviceAccessError) Denied() bool {
	return errors.Is(e.Err, ErrPermissionDenied)
}

// Use opens a device, runs fn with it and releases it on every exit path,
// including cancellation while Open is still pending and panics inside fn.
func Use(ctx context.Context, opener Opener, req Request, fn func(ctx context.Context, dev Device) error) (err error) {
	if opener == nil {
		return &DeviceAccessError{Op: "open", Err: ErrUnavailable}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	dev, err := open(ctx, opener, req)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := dev.Close(); cerr != nil {
			err = multierr.Append(err, &DeviceAccessError{Op: "release", Err: cerr})
		}
	}()

	return fn(ctx, dev)
}

type openResult struct {
	dev Device
	err error
}

func open(ctx context.Context, opener Opener, req Request) (Device, error) {
	done := make(chan openResult, 1)
	go func() {
		dev, err := opener.Open(ctx, req)
		done <- openResult{dev: dev, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			if res.dev != nil {
				res.dev.Close()
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, &DeviceAccessError{Op: "open", Err: res.err}
		}
		if res.dev == nil {
			return nil, &DeviceAccessError{Op: "open", Err: ErrUnavailable}
		}
		return res.dev, nil
	case <-ctx.Done():
		// The opener may still hand back a device after we stopped waiting.
		go func() {
			if res := <-done; res.dev != nil {
				res.dev.Close()
			}
		}()
		return nil, ctx.Err()
	}
}

// Capture grabs a single frame inside a Use scope.
func Capture(ctx context.Context, opener Opener, req Request) (image.Image, error) {
	var frame image.Image
	err := Use(ctx, opener, req, func(ctx context.Context, dev Device) error {
		img, err := dev.Frame(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return &DeviceAccessError{Op: "frame", Err: err}
		}
		if img == nil || img.Bounds().Empty() {
			return &DeviceAccessError{Op: "frame", Err: ErrUnavailable}
		}
		frame = img
		return nil
	})
	if err != nil {
		return nil, err
	}
	return frame, nil
}
