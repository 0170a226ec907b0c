package handler

import (
	"net/http"

	"github.com/mlg-games/duelrelay/internal/api/response"
	"github.com/mlg-games/duelrelay/internal/services/registry"
)

// LobbyHandler serves the public listing of open rooms
type LobbyHandler struct {
	registry *registry.Service
}

// NewLobbyHandler creates a new lobby handler
func NewLobbyHandler(registry *registry.Service) *LobbyHandler {
	return &LobbyHandler{registry: registry}
}

// List handles GET /api/v1/lobbies
func (h *LobbyHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.registry.List(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.LobbyListFromEntries(entries))
}
