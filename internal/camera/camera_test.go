package camera

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockOpener counts acquisitions and releases of mockDevice handles.
type mockOpener struct {
	acquired atomic.Int32
	released atomic.Int32

	openErr  error
	frameErr error
	closeErr error
	gate     chan struct{}
	entered  chan struct{}
}

type mockDevice struct {
	owner *mockOpener
	frame image.Image
}

func (o *mockOpener) Open(ctx context.Context, req Request) (Device, error) {
	if o.entered != nil {
		close(o.entered)
	}
	if o.gate != nil {
		<-o.gate
	}
	if o.openErr != nil {
		return nil, o.openErr
	}
	o.acquired.Add(1)
	img := image.NewRGBA(image.Rect(0, 0, req.Width, req.Height))
	img.Set(0, 0, color.White)
	return &mockDevice{owner: o, frame: img}, nil
}

func (d *mockDevice) Frame(ctx context.Context) (image.Image, error) {
	if d.owner.frameErr != nil {
		return nil, d.owner.frameErr
	}
	return d.frame, nil
}

func (d *mockDevice) Close() error {
	d.owner.released.Add(1)
	return d.owner.closeErr
}

func TestCapture_ReleasesDevice(t *testing.T) {
	opener := &mockOpener{}

	frame, err := Capture(context.Background(), opener, Request{Width: 4, Height: 3})
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4, 3), frame.Bounds())
	assert.Equal(t, int32(1), opener.acquired.Load())
	assert.Equal(t, int32(1), opener.released.Load())
}

func TestCapture_PermissionDenied(t *testing.T) {
	opener := &mockOpener{openErr: ErrPermissionDenied}

	_, err := Capture(context.Background(), opener, Request{Width: 4, Height: 3})

	var accessErr *DeviceAccessError
	require.True(t, errors.As(err, &accessErr))
	assert.True(t, accessErr.Denied())
	assert.Equal(t, "open", accessErr.Op)
	assert.Equal(t, opener.acquired.Load(), opener.released.Load())
}

func TestCapture_FrameFailureStillReleases(t *testing.T) {
	opener := &mockOpener{frameErr: errors.New("usb reset")}

	_, err := Capture(context.Background(), opener, Request{Width: 4, Height: 3})

	var accessErr *DeviceAccessError
	require.True(t, errors.As(err, &accessErr))
	assert.False(t, accessErr.Denied())
	assert.Equal(t, int32(1), opener.acquired.Load())
	assert.Equal(t, int32(1), opener.released.Load())
}

func TestCapture_ReleaseErrorIsReported(t *testing.T) {
	opener := &mockOpener{closeErr: errors.New("busy")}

	frame, err := Capture(context.Background(), opener, Request{Width: 2, Height: 2})

	require.Error(t, err)
	assert.Nil(t, frame)
	var accessErr *DeviceAccessError
	require.True(t, errors.As(err, &accessErr))
	assert.Equal(t, "release", accessErr.Op)
}

func TestCapture_EmptyFrameIsUnavailable(t *testing.T) {
	opener := &mockOpener{}

	_, err := Capture(context.Background(), opener, Request{})

	assert.True(t, errors.Is(err, ErrUnavailable))
	assert.Equal(t, int32(1), opener.released.Load())
}

func TestCapture_CancelledWhileOpening(t *testing.T) {
	opener := &mockOpener{gate: make(chan struct{}), entered: make(chan struct{})}
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() {
		_, err := Capture(ctx, opener, Request{Width: 2, Height: 2})
		errCh <- err
	}()

	<-opener.entered
	cancel()
	err := <-errCh
	assert.True(t, errors.Is(err, context.Canceled))

	// The permission prompt resolves after the user already closed the view.
	close(opener.gate)
	require.Eventually(t, func() bool {
		return opener.acquired.Load() == 1 && opener.released.Load() == 1
	}, time.Second, 5*time.Millisecond)
}

func TestCapture_AlreadyCancelled(t *testing.T) {
	opener := &mockOpener{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Capture(ctx, opener, Request{Width: 2, Height: 2})

	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, int32(0), opener.acquired.Load())
}

func TestUse_ReleasesOnPanic(t *testing.T) {
	opener := &mockOpener{}

	assert.Panics(t, func() {
		_ = Use(context.Background(), opener, Request{Width: 1, Height: 1}, func(ctx context.Context, dev Device) error {
			panic("boom")
		})
	})
	assert.Equal(t, int32(1), opener.released.Load())
}

func TestUse_NilOpener(t *testing.T) {
	err := Use(context.Background(), nil, Request{}, func(ctx context.Context, dev Device) error { return nil })

	var accessErr *DeviceAccessError
	require.True(t, errors.As(err, &accessErr))
	assert.True(t, errors.Is(err, ErrUnavailable))
}
