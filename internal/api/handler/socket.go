package handler

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/mlg-games/duelrelay/internal/model"
	"github.com/mlg-games/duelrelay/internal/protocol"
	"github.com/mlg-games/duelrelay/internal/relay"
	"github.com/mlg-games/duelrelay/internal/ws"
)

const maxRoomIDLength = 128

// SocketHandler upgrades room connections to websockets and bridges them
// into the relay.
type SocketHandler struct {
	relay  *relay.Manager
	logger *slog.Logger

	upgrader websocket.Upgrader
}

// NewSocketHandler creates a new websocket handler
func NewSocketHandler(relayManager *relay.Manager, logger *slog.Logger) *SocketHandler {
	return &SocketHandler{
		relay:  relayManager,
		logger: logger.With(slog.String("component", "socket")),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Browser clients connect from arbitrary game origins
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Serve handles GET /rooms/{id}. The connection is upgraded first so that
// a refused join can still be reported in-band as an error frame before
// the close frame.
func (h *SocketHandler) Serve(w http.ResponseWriter, r *http.Request) {
	roomID := model.RoomID(mux.Vars(r)["id"])
	if roomID == "" || len(roomID) > maxRoomIDLength {
		WriteError(w, NewInvalidRequestError("invalid room id"))
		return
	}
	tanked := r.URL.Query().Get("tanked") == "true"

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written its own response
		h.logger.Debug("websocket upgrade failed", slog.Any("error", err))
		return
	}

	client := ws.NewClient(conn, h.logger)

	sess, participant, err := h.relay.Join(r.Context(), roomID, tanked, client)
	if err != nil {
		client.Reject(protocol.Error(err.Error()), err.Error())
		return
	}
	connID := participant.ConnectionID

	go client.WritePump()
	client.ReadPump(func(frame []byte) {
		h.dispatch(r, sess, connID, client, frame)
	})

	sess.Disconnect(connID)
}

func (h *SocketHandler) dispatch(
	r *http.Request,
	sess *relay.Session,
	connID model.ConnectionID,
	client *ws.Client,
	frame []byte,
) {
	env, err := protocol.Decode(frame)
	if err != nil {
		h.logger.Debug("malformed frame",
			slog.String("room", string(sess.RoomID())),
			slog.String("conn", string(connID)))
		client.Send(protocol.Error("invalid message"))
		return
	}

	switch env.Type {
	case protocol.TypeUpdate:
		if err := sess.Relay(r.Context(), connID, frame); err != nil {
			client.Send(protocol.Error(err.Error()))
		}
	case protocol.TypeStart:
		if err := sess.Start(r.Context(), connID); err != nil {
			client.Send(protocol.Error(err.Error()))
		}
	default:
		client.Send(protocol.Error("unknown message type: " + string(env.Type)))
	}
}
