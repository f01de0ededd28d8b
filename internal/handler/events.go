package handler

import (
	"net/http"

	"github.com/gorilla/websocket"

	"snapmeta/internal/config"
	"snapmeta/internal/dto"
	"snapmeta/internal/logger"
	"snapmeta/internal/service"
	hub "snapmeta/internal/service/websocket"
)

// Upgrader upgrades HTTP connections to WebSocket; CheckOrigin allows all origins.
var Upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// EventsWebsocketHandler registers viewers in the hub so they are told
// when an event becomes Ready.
func EventsWebsocketHandler(hubService *hub.HubService, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		connection, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("WebSocket upgrade error: %v", err)
			return
		}

		hubService.Register(connection)
		defer hubService.Unregister(connection)

		logger.Info("Viewer connected")

		for {
			if _, _, err := connection.ReadMessage(); err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					logger.Info("Viewer disconnected normally")
				} else {
					logger.Warning("Viewer disconnected with error: %v", err)
				}
				break
			}
		}
	}
}

// HealthHandler reports liveness plus the current event, if any.
func HealthHandler(manager *service.Manager, hubService *hub.HubService, cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := dto.HealthResponse{
			Status:  "ok",
			Store:   cfg.StoreBackend,
			Viewers: hubService.ClientCount(),
		}
		if ev := manager.Current(); ev != nil {
			resp.CurrentEvent = ev.ID
			resp.CurrentState = ev.State().String()
		}
		writeJSON(w, logger, http.StatusOK, resp)
	}
}
