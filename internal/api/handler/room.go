package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mlg-games/duelrelay/internal/api/response"
	"github.com/mlg-games/duelrelay/internal/model"
	"github.com/mlg-games/duelrelay/internal/services/room"
)

// RoomHandler serves read-only room state
type RoomHandler struct {
	rooms *room.Controller
}

// NewRoomHandler creates a new room handler
func NewRoomHandler(rooms *room.Controller) *RoomHandler {
	return &RoomHandler{rooms: rooms}
}

// Get handles GET /api/v1/rooms/{id}
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := model.RoomID(mux.Vars(r)["id"])

	room, err := h.rooms.Get(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RoomFromModel(room))
}
