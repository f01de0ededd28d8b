package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"snapmeta/internal/camera"
	"snapmeta/internal/camera/webcam"
	"snapmeta/internal/config"
	"snapmeta/internal/imaging"
	"snapmeta/internal/logger"
	"snapmeta/internal/metadata"
	"snapmeta/internal/pipeline"
	"snapmeta/internal/repository"
	"snapmeta/internal/repository/badgerstore"
	"snapmeta/internal/repository/memory"
	"snapmeta/internal/repository/sqlite"
	"snapmeta/internal/route"
	"snapmeta/internal/service"
	"snapmeta/internal/service/storage"
	"snapmeta/internal/service/websocket"
	"snapmeta/internal/source"
	"snapmeta/internal/transform"
	"snapmeta/internal/transform/cvtransform"

	"go.uber.org/multierr"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config      *config.Config
	logger      *logger.Logger
	repo        repository.SlotRepository
	slotService *storage.SlotService
	hubService  *websocket.HubService
	manager     *service.Manager
}

// Options overrides parts of the wiring, mainly for tests.
type Options struct {
	// Opener replaces the local webcam.
	Opener camera.Opener
	// Logger replaces the file-backed logger.
	Logger *logger.Logger
}

func NewApp(cfg *config.Config, opts Options) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := opts.Logger
	if log == nil {
		var err error
		log, err = logger.NewLogger(cfg)
		if err != nil {
			return nil, err
		}
	}

	processor, err := NewProcessor(cfg, opts.Opener, log)
	if err != nil {
		log.Close()
		return nil, err
	}

	repo, err := OpenStore(cfg)
	if err != nil {
		log.Close()
		return nil, err
	}

	slots := storage.NewSlotService(repo, cfg.ImageSlotKey, cfg.MetadataSlotKey, log)
	hub := websocket.NewHubService(log)
	mng := service.NewManager(processor, slots, hub, cfg, log)

	return &App{
		config:      cfg,
		logger:      log,
		repo:        repo,
		slotService: slots,
		hubService:  hub,
		manager:     mng,
	}, nil
}

// NewProcessor builds the pipeline from cfg. A nil opener means the local webcam.
func NewProcessor(cfg *config.Config, opener camera.Opener, log *logger.Logger) (*pipeline.Processor, error) {
	tr, err := Transforms().Parse(cfg.Transform)
	if err != nil {
		return nil, err
	}
	encoder, err := imaging.NewEncoder(cfg.EncodeFormat, cfg.EncodeQuality)
	if err != nil {
		return nil, err
	}
	if opener == nil {
		opener = webcam.NewOpener(cfg.CameraDevice, cfg.CameraWarmupFrames)
	}

	adapter := source.NewAdapter(cfg.MaxUploadBytes(), source.FrameOptions{
		Width:   cfg.CameraWidth,
		Height:  cfg.CameraHeight,
		Quality: cfg.CameraQuality,
	}, source.WithFrameLimit(cfg.CameraMaxWidth, cfg.CameraMaxHeight))

	return pipeline.NewProcessor(adapter, opener, metadata.NewExtractor(), tr, encoder, cfg.CaptureTimeout, log,
		pipeline.WithMaxPixels(int64(cfg.MaxImagePixels))), nil
}

// Transforms is the registry of every transform TRANSFORM may name.
func Transforms() *transform.Registry {
	return transform.NewRegistry(cvtransform.Edges{}, cvtransform.Threshold{})
}

// OpenStore opens the slot repository selected by cfg.StoreBackend.
func OpenStore(cfg *config.Config) (repository.SlotRepository, error) {
	switch cfg.StoreBackend {
	case config.StoreMemory:
		return memory.NewSlotRepository(), nil
	case config.StoreSQLite:
		if err := os.MkdirAll(cfg.StorePath, 0755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
		db, err := sqlite.New(filepath.Join(cfg.StorePath, "snapmeta.db"))
		if err != nil {
			return nil, err
		}
		return sqlite.NewSlotRepository(db), nil
	case config.StoreBadger:
		return badgerstore.NewSlotRepository(badgerstore.StoreConfig{Path: filepath.Join(cfg.StorePath, "badger")})
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

func (a *App) Handler() http.Handler {
	return route.SetupRoutes(a.manager, a.hubService, a.config, a.logger)
}

// Run serves until ctx is cancelled, then drains the workers and closes the store.
func (a *App) Run(ctx context.Context) error {
	hubCtx, stopHub := context.WithCancel(context.Background())
	go a.hubService.Run(hubCtx)

	server := &http.Server{
		Addr:              a.config.Addr(),
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	fmt.Printf("🚀 snapmeta\n")
	fmt.Printf("📍 URL: http://%s\n", a.config.Addr())
	fmt.Printf("💾 Store: %s\n", a.config.StoreBackend)
	fmt.Printf("🎨 Transform: %s\n", a.config.Transform)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	var err error
	select {
	case err = <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
	case <-ctx.Done():
		a.logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		err = server.Shutdown(shutdownCtx)
		cancel()
	}

	a.manager.Stop()
	stopHub()
	return multierr.Combine(err, a.Close())
}

// Close releases the store and log files.
func (a *App) Close() error {
	return multierr.Combine(a.repo.Close(), a.logger.Close())
}
