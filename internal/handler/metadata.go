package handler

import (
	"net/http"

	"snapmeta/internal/logger"
	"snapmeta/internal/service"
)

// MetadataHandler handles GET /api/metadata?key=, re-rendering the stored
// image and its metadata without running the pipeline.
func MetadataHandler(manager *service.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowMethod(w, r, http.MethodGet) {
			return
		}

		result, err := manager.Redisplay(r.Context(), r.URL.Query().Get("key"))
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, logger, http.StatusOK, result)
	}
}
