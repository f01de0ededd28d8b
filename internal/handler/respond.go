package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"snapmeta/internal/camera"
	"snapmeta/internal/dto"
	"snapmeta/internal/imaging"
	"snapmeta/internal/logger"
	"snapmeta/internal/service"
	"snapmeta/internal/service/storage"
	"snapmeta/internal/source"
)

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, logger *logger.Logger, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Error encoding JSON response: %v", err)
	}
}

// writeError maps a pipeline error onto a status and an ErrorResponse.
func writeError(w http.ResponseWriter, logger *logger.Logger, err error) {
	status, body := classify(err)
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed (%s): %v", body.Kind, err)
	}
	writeJSON(w, logger, status, body)
}

func classify(err error) (int, dto.ErrorResponse) {
	resp := dto.ErrorResponse{Error: err.Error()}

	var (
		empty       *source.EmptySourceError
		malformed   *source.MalformedURIError
		tooLarge    *source.TooLargeError
		frameSize   *source.FrameSizeError
		tooMany     *imaging.TooManyPixelsError
		unsupported *imaging.UnsupportedFormatError
		encodeErr   *imaging.EncodeError
		accessErr   *camera.DeviceAccessError
	)

	switch {
	case errors.As(err, &empty):
		resp.Kind = "empty_source"
		return http.StatusBadRequest, resp
	case errors.As(err, &malformed):
		resp.Kind = "malformed_uri"
		return http.StatusBadRequest, resp
	case errors.As(err, &tooLarge):
		resp.Kind = "too_large"
		return http.StatusRequestEntityTooLarge, resp
	case errors.As(err, &frameSize):
		resp.Kind = "frame_too_large"
		return http.StatusBadRequest, resp
	case errors.As(err, &tooMany):
		resp.Kind = "image_too_large"
		return http.StatusRequestEntityTooLarge, resp
	case errors.As(err, &unsupported):
		resp.Kind = "unsupported_format"
		return http.StatusUnsupportedMediaType, resp
	case errors.As(err, &accessErr):
		resp.Kind = "device_unavailable"
		if accessErr.Denied() {
			resp.Kind = "permission_denied"
		}
		resp.Retry = true
		return http.StatusServiceUnavailable, resp
	case errors.Is(err, service.ErrBusy):
		resp.Kind = "busy"
		resp.Retry = true
		return http.StatusServiceUnavailable, resp
	case errors.Is(err, service.ErrStopped):
		resp.Kind = "stopped"
		return http.StatusServiceUnavailable, resp
	case errors.Is(err, context.DeadlineExceeded):
		resp.Kind = "timeout"
		resp.Retry = true
		return http.StatusGatewayTimeout, resp
	case errors.Is(err, context.Canceled):
		resp.Kind = "cancelled"
		resp.Retry = true
		return http.StatusServiceUnavailable, resp
	case errors.Is(err, storage.ErrNoPendingEvent):
		resp.Kind = "no_pending_event"
		return http.StatusNotFound, resp
	case errors.As(err, &encodeErr):
		resp.Kind = "encode"
		resp.Retry = true
		return http.StatusInternalServerError, resp
	default:
		resp.Kind = "internal"
		return http.StatusInternalServerError, resp
	}
}

// allowMethod rejects requests whose method is not m.
func allowMethod(w http.ResponseWriter, r *http.Request, m string) bool {
	if r.Method != m {
		w.Header().Set("Allow", m)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}
