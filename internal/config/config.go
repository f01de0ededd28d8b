package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
	StoreBadger = "badger"
)

type Config struct {
	Host            string
	Port            int
	LogDirectory    string
	LogLevel        string
	StoreBackend    string // memory, sqlite or badger
	StorePath       string
	ImageSlotKey    string
	MetadataSlotKey string

	CameraDevice       int
	CameraWidth        int
	CameraHeight       int
	CameraQuality      float64 // JPEG quality of live snapshots, 0..1
	CameraWarmupFrames int
	CameraMaxWidth     int // largest resolution a capture request may ask for
	CameraMaxHeight    int
	CaptureTimeout     time.Duration

	EncodeFormat      string
	EncodeQuality     float64
	Transform         string // comma-separated transform names
	ProcessingWorkers int
	QueueSize         int
	MaxUploadMB       int
	MaxImagePixels    int // declared width*height above which decoding is refused
}

// Default returns the configuration used when no environment is set.
func Default() *Config {
	return &Config{
		Host:               "127.0.0.1",
		Port:               8080,
		LogDirectory:       filepath.Join(".", "logs"),
		LogLevel:           "info",
		StoreBackend:       StoreMemory,
		StorePath:          filepath.Join(".", "data"),
		ImageSlotKey:       "capturedImage",
		MetadataSlotKey:    "metadata",
		CameraDevice:       0,
		CameraWidth:        1280,
		CameraHeight:       720,
		CameraQuality:      0.95,
		CameraWarmupFrames: 3,
		CameraMaxWidth:     3840,
		CameraMaxHeight:    2160,
		CaptureTimeout:     15 * time.Second,
		EncodeFormat:       "jpeg",
		EncodeQuality:      0.92,
		Transform:          "grayscale",
		ProcessingWorkers:  1,
		QueueSize:          4,
		MaxUploadMB:        20,
		MaxImagePixels:     40_000_000,
	}
}

// Load reads the optional .env files (missing files are ignored) and
// applies environment overrides on top of Default.
func Load(files ...string) *Config {
	_ = godotenv.Load(files...)

	d := Default()
	return &Config{
		Host:               getEnv("HOST", d.Host),
		Port:               getEnvAsInt("PORT", d.Port),
		LogDirectory:       getEnv("LOG_DIR", d.LogDirectory),
		LogLevel:           getEnv("LOG_LEVEL", d.LogLevel),
		StoreBackend:       strings.ToLower(getEnv("STORE_BACKEND", d.StoreBackend)),
		StorePath:          getEnv("STORE_PATH", d.StorePath),
		ImageSlotKey:       getEnv("IMAGE_SLOT_KEY", d.ImageSlotKey),
		MetadataSlotKey:    getEnv("METADATA_SLOT_KEY", d.MetadataSlotKey),
		CameraDevice:       getEnvAsInt("CAMERA_DEVICE", d.CameraDevice),
		CameraWidth:        getEnvAsInt("CAMERA_WIDTH", d.CameraWidth),
		CameraHeight:       getEnvAsInt("CAMERA_HEIGHT", d.CameraHeight),
		CameraQuality:      getEnvAsFloat("CAMERA_QUALITY", d.CameraQuality),
		CameraWarmupFrames: getEnvAsInt("CAMERA_WARMUP_FRAMES", d.CameraWarmupFrames),
		CameraMaxWidth:     getEnvAsInt("CAMERA_MAX_WIDTH", d.CameraMaxWidth),
		CameraMaxHeight:    getEnvAsInt("CAMERA_MAX_HEIGHT", d.CameraMaxHeight),
		CaptureTimeout:     getEnvAsDuration("CAPTURE_TIMEOUT", d.CaptureTimeout),
		EncodeFormat:       strings.ToLower(getEnv("ENCODE_FORMAT", d.EncodeFormat)),
		EncodeQuality:      getEnvAsFloat("ENCODE_QUALITY", d.EncodeQuality),
		Transform:          getEnv("TRANSFORM", d.Transform),
		ProcessingWorkers:  getEnvAsInt("PROCESSING_WORKERS", d.ProcessingWorkers),
		QueueSize:          getEnvAsInt("QUEUE_SIZE", d.QueueSize),
		MaxUploadMB:        getEnvAsInt("MAX_UPLOAD_MB", d.MaxUploadMB),
		MaxImagePixels:     getEnvAsInt("MAX_IMAGE_PIXELS", d.MaxImagePixels),
	}
}

// Validate rejects values the services cannot start with.
func (c *Config) Validate() error {
	switch {
	case c.Port <= 0 || c.Port > 65535:
		return fmt.Errorf("PORT %d out of range", c.Port)
	case c.StoreBackend != StoreMemory && c.StoreBackend != StoreSQLite && c.StoreBackend != StoreBadger:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	case c.ImageSlotKey == "" || c.MetadataSlotKey == "":
		return fmt.Errorf("slot keys must not be empty")
	case c.ImageSlotKey == c.MetadataSlotKey:
		return fmt.Errorf("image and metadata slots share key %q", c.ImageSlotKey)
	case c.CameraWidth <= 0 || c.CameraHeight <= 0:
		return fmt.Errorf("camera resolution %dx%d must be positive", c.CameraWidth, c.CameraHeight)
	case c.CameraWidth > c.CameraMaxWidth || c.CameraHeight > c.CameraMaxHeight:
		return fmt.Errorf("camera resolution %dx%d exceeds CAMERA_MAX_WIDTH/HEIGHT %dx%d",
			c.CameraWidth, c.CameraHeight, c.CameraMaxWidth, c.CameraMaxHeight)
	case c.CameraQuality <= 0 || c.CameraQuality > 1:
		return fmt.Errorf("CAMERA_QUALITY %.2f out of range (0, 1]", c.CameraQuality)
	case c.EncodeQuality <= 0 || c.EncodeQuality > 1:
		return fmt.Errorf("ENCODE_QUALITY %.2f out of range (0, 1]", c.EncodeQuality)
	case c.CaptureTimeout <= 0:
		return fmt.Errorf("CAPTURE_TIMEOUT must be positive")
	case c.ProcessingWorkers < 1:
		return fmt.Errorf("PROCESSING_WORKERS must be at least 1")
	case c.QueueSize < 1:
		return fmt.Errorf("QUEUE_SIZE must be at least 1")
	case c.MaxUploadMB < 1:
		return fmt.Errorf("MAX_UPLOAD_MB must be at least 1")
	case c.MaxImagePixels < 1:
		return fmt.Errorf("MAX_IMAGE_PIXELS must be at least 1")
	}
	return nil
}

// FrameTooLarge reports whether a requested capture resolution exceeds the
// configured maximum. Zero dimensions fall back to the defaults and pass.
func (c *Config) FrameTooLarge(width, height int) bool {
	return width > c.CameraMaxWidth || height > c.CameraMaxHeight
}

// Addr is the listen address for the HTTP host.
func (c *Config) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// MaxUploadBytes converts MaxUploadMB to bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
