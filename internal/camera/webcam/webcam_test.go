package webcam

import (
	"context"
	"errors"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"

	"snapmeta/internal/camera"
)

func TestNewOpener_ClampsWarmup(t *testing.T) {
	o := NewOpener(2, -3)
	assert.Equal(t, 2, o.DeviceID)
	assert.Equal(t, 0, o.Warmup)
}

func TestOpen_MissingDeviceNode(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("device nodes are only checked on linux")
	}

	_, err := NewOpener(4242, 0).Open(context.Background(), camera.Request{Width: 640, Height: 480})
	assert.True(t, errors.Is(err, camera.ErrUnavailable))
}
