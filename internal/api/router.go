package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mlg-games/duelrelay/internal/api/handler"
	"github.com/mlg-games/duelrelay/internal/api/middleware"
	"github.com/mlg-games/duelrelay/internal/relay"
	"github.com/mlg-games/duelrelay/internal/services/registry"
	"github.com/mlg-games/duelrelay/internal/services/room"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger          *slog.Logger
	RoomController  *room.Controller
	RegistryService *registry.Service
	RelayManager    *relay.Manager
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	socketHandler := handler.NewSocketHandler(cfg.RelayManager, cfg.Logger)
	lobbyHandler := handler.NewLobbyHandler(cfg.RegistryService)
	roomHandler := handler.NewRoomHandler(cfg.RoomController)

	// Create middleware
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)

	// Websocket endpoint for room participants
	r.HandleFunc("/rooms/{id}", socketHandler.Serve).Methods(http.MethodGet)

	// REST API
	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/lobbies", lobbyHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/rooms/{id}", roomHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
