package app

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snapmeta/internal/camera"
	"snapmeta/internal/config"
	"snapmeta/internal/logger"
)

var noCamera = camera.OpenerFunc(func(ctx context.Context, req camera.Request) (camera.Device, error) {
	return nil, camera.ErrUnavailable
})

func testConfig(t *testing.T, backend string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.StoreBackend = backend
	cfg.StorePath = t.TempDir()
	cfg.LogDirectory = t.TempDir()
	cfg.EncodeFormat = "png"
	return cfg
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func pngBody(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestOpenStore_Backends(t *testing.T) {
	for _, backend := range []string{config.StoreMemory, config.StoreSQLite, config.StoreBadger} {
		t.Run(backend, func(t *testing.T) {
			repo, err := OpenStore(testConfig(t, backend))
			require.NoError(t, err)
			defer repo.Close()

			ctx := context.Background()
			require.NoError(t, repo.Write(ctx, "capturedImage", []byte("data:image/png;base64,AA==")))
			got, ok, err := repo.Read(ctx, "capturedImage")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "data:image/png;base64,AA==", string(got))
		})
	}
}

func TestOpenStore_UnknownBackend(t *testing.T) {
	_, err := OpenStore(testConfig(t, "etcd"))
	assert.Error(t, err)
}

func TestNewProcessor_RejectsBadTransform(t *testing.T) {
	cfg := testConfig(t, config.StoreMemory)
	cfg.Transform = "grayscale,sepia"

	_, err := NewProcessor(cfg, noCamera, logger.NewNopLogger())
	assert.ErrorContains(t, err, "sepia")
}

func TestNewApp_InvalidConfig(t *testing.T) {
	cfg := testConfig(t, config.StoreMemory)
	cfg.QueueSize = 0

	_, err := NewApp(cfg, Options{Opener: noCamera, Logger: logger.NewNopLogger()})
	assert.Error(t, err)
}

func TestApp_UploadThroughHandler(t *testing.T) {
	a, err := NewApp(testConfig(t, config.StoreSQLite), Options{Opener: noCamera, Logger: logger.NewNopLogger()})
	require.NoError(t, err)
	t.Cleanup(func() {
		a.manager.Stop()
		a.Close()
	})

	server := httptest.NewServer(a.Handler())
	defer server.Close()

	resp, err := http.Post(server.URL+"/api/upload", "image/png", bytes.NewReader(pngBody(t)))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	pending, err := a.slotService.Load(context.Background(), "")
	require.NoError(t, err)
	assert.Contains(t, pending.ImageURI, "data:image/png;base64,")

	resp, err = http.Post(server.URL+"/api/capture", "", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	cfg := testConfig(t, config.StoreBadger)
	cfg.Port = freePort(t)
	a, err := NewApp(cfg, Options{Opener: noCamera})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + cfg.Addr() + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestTransforms_IncludeOpenCV(t *testing.T) {
	assert.Equal(t, []string{"edges", "grayscale", "none", "threshold"}, Transforms().Names())
}
