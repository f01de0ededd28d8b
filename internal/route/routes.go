package route

import (
	"net/http"
	"os"
	"path/filepath"

	"snapmeta/internal/config"
	"snapmeta/internal/handler"
	"snapmeta/internal/logger"
	"snapmeta/internal/middleware"
	"snapmeta/internal/service"
	hub "snapmeta/internal/service/websocket"
)

// staticDir holds the optional viewer page.
const staticDir = "static"

// dynamicHTMLHandler serves /path as /static/path.html if the file exists; otherwise 404.
func dynamicHTMLHandler(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	if path == "/" {
		path = "/index"
	}

	filePath := filepath.Join(staticDir, filepath.Clean("/"+path)+".html")

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		http.NotFound(w, r)
		return
	}

	http.ServeFile(w, r, filePath)
}

// SetupRoutes registers the API, log and static endpoints and wraps the
// mux with request logging and panic recovery.
func SetupRoutes(manager *service.Manager, hubService *hub.HubService, cfg *config.Config, logger *logger.Logger) http.Handler {
	mux := http.NewServeMux()

	// Static files
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))

	// API endpoints
	mux.HandleFunc("/api/upload", handler.UploadHandler(manager, cfg, logger))
	mux.HandleFunc("/api/upload/datauri", handler.DataURIUploadHandler(manager, cfg, logger))
	mux.HandleFunc("/api/capture", handler.CaptureHandler(manager, cfg, logger))
	mux.HandleFunc("/api/metadata", handler.MetadataHandler(manager, logger))
	mux.HandleFunc("/api/events", handler.EventsWebsocketHandler(hubService, logger))
	mux.HandleFunc("/healthz", handler.HealthHandler(manager, hubService, cfg, logger))

	// Log endpoints
	for _, name := range []string{"info", "warning", "error"} {
		file := name + ".log"
		mux.HandleFunc("/logs/"+name, handler.ShowLogsHandler(logger, file))
		mux.HandleFunc("/logs/"+name+"/clear", handler.ClearLogsHandler(logger, file))
	}

	// Automatic HTML handler mapping for example: /viewer -> /static/viewer.html
	mux.HandleFunc("/", dynamicHTMLHandler)

	return middleware.Recover(logger)(middleware.RequestLogger(logger)(mux))
}
