package handler

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"snapmeta/internal/config"
	"snapmeta/internal/dto"
	"snapmeta/internal/logger"
	"snapmeta/internal/model"
	"snapmeta/internal/pipeline"
	"snapmeta/internal/service"
	"snapmeta/internal/source"
)

// multipartOverhead is the allowance for form boundaries and headers on top of the payload limit.
const multipartOverhead = 1 << 20

// UploadHandler handles POST /api/upload. The image is either the "file"
// field of a multipart form or the raw request body.
func UploadHandler(manager *service.Manager, cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodPost) {
			return
		}

		in := pipeline.FileInput{Reader: r.Body, MIME: r.Header.Get("Content-Type")}

		if mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mediaType == "multipart/form-data" {
			r.Body = http.MaxBytesReader(w, r.Body, cfg.MaxUploadBytes()+multipartOverhead)
			file, header, err := r.FormFile("file")
			if err != nil {
				var tooBig *http.MaxBytesError
				if errors.As(err, &tooBig) {
					writeError(w, logger, &source.TooLargeError{Limit: cfg.MaxUploadBytes()})
					return
				}
				logger.Warning("Upload without a usable file field: %v", err)
				writeError(w, logger, &source.EmptySourceError{Source: "upload form"})
				return
			}
			defer file.Close()
			in = pipeline.FileInput{Reader: file, MIME: header.Header.Get("Content-Type")}
		}

		result, err := manager.Submit(r.Context(), in)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, result)
	}
}

// DataURIUploadHandler handles POST /api/upload/datauri with a dto.DataURIRequest body.
func DataURIUploadHandler(manager *service.Manager, cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodPost) {
			return
		}

		// base64 inflates the payload by a third.
		r.Body = http.MaxBytesReader(w, r.Body, cfg.MaxUploadBytes()*4/3+multipartOverhead)

		var req dto.DataURIRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			var tooBig *http.MaxBytesError
			if errors.As(err, &tooBig) {
				writeError(w, logger, &source.TooLargeError{Limit: cfg.MaxUploadBytes()})
				return
			}
			writeError(w, logger, &source.MalformedURIError{Reason: "request body is not valid JSON", Err: err})
			return
		}

		origin := model.OriginFileUpload
		if req.Source == "camera" {
			origin = model.OriginCamera
		}

		result, err := manager.Submit(r.Context(), pipeline.DataURIInput{URI: req.DataURI, From: origin})
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, result)
	}
}
