package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"snapmeta/internal/config"
	"snapmeta/internal/dto"
	"snapmeta/internal/logger"
	"snapmeta/internal/pipeline"
	"snapmeta/internal/service"
	"snapmeta/internal/source"
)

// CaptureHandler handles POST /api/capture. The body is an optional
// dto.CaptureRequest; an empty body captures at the configured defaults.
// The request context scopes the device, so a client that disconnects
// releases the camera. Resolutions over CAMERA_MAX_WIDTH/HEIGHT are refused
// before the request is queued.
func CaptureHandler(manager *service.Manager, cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodPost) {
			return
		}

		var req dto.CaptureRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, 4096)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			http.Error(w, "Invalid capture request", http.StatusBadRequest)
			return
		}
		if cfg.FrameTooLarge(req.Width, req.Height) {
			writeError(w, logger, &source.FrameSizeError{
				Width:     req.Width,
				Height:    req.Height,
				MaxWidth:  cfg.CameraMaxWidth,
				MaxHeight: cfg.CameraMaxHeight,
			})
			return
		}

		result, err := manager.Submit(r.Context(), pipeline.CameraInput{
			Width:   req.Width,
			Height:  req.Height,
			Quality: req.Quality,
		})
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, result)
	}
}
