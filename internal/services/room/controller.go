package room

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mlg-games/duelrelay/internal/dependencies/clock"
	"github.com/mlg-games/duelrelay/internal/dependencies/ident"
	"github.com/mlg-games/duelrelay/internal/model"
	"github.com/mlg-games/duelrelay/internal/storage"
)

// Controller manages room lifecycle and membership against storage.
//
// Controller methods perform check-then-act sequences on a room; callers
// must serialize calls for a given room ID (the relay routes all mutations
// for a room through its session goroutine).
type Controller struct {
	storage storage.Storage
	clock   clock.Clock
	ident   ident.Generator
	logger  *slog.Logger
}

// NewController creates a new room Controller
func NewController(
	storage storage.Storage,
	clock clock.Clock,
	ident ident.Generator,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		storage: storage,
		clock:   clock,
		ident:   ident,
		logger:  logger.With(slog.String("component", "room")),
	}
}

// Attach adds a new connection to the room with the given ID, creating the
// room if it does not exist. The connection that creates the room becomes
// its host. Joining a full room fails with ErrRoomFull; joining a started
// room fails with ErrRoomInProgress.
func (c *Controller) Attach(ctx context.Context, id model.RoomID, tanked bool) (*model.Room, *model.Participant, error) {
	now := c.clock.Now()

	room, err := c.storage.GetRoom(ctx, id)
	switch {
	case err == nil:
		if room.Started {
			return nil, nil, model.ErrRoomInProgress
		}
		if room.IsFull() {
			return nil, nil, model.ErrRoomFull
		}
	case errors.Is(err, model.ErrRoomNotFound):
		room = &model.Room{
			ID:        id,
			Tanked:    tanked,
			CreatedAt: now,
		}
	default:
		return nil, nil, err
	}

	participant := model.Participant{
		ConnectionID: model.ConnectionID(c.ident.NewConnectionID()),
		IsHost:       len(room.Participants) == 0,
		JoinedAt:     now,
	}
	if participant.IsHost {
		room.HostID = participant.ConnectionID
	}

	room.Participants = append(room.Participants, participant)
	room.UpdatedAt = now

	if err := c.storage.SaveRoom(ctx, room); err != nil {
		return nil, nil, err
	}

	return room, &participant, nil
}

// Start marks the room as started. Only the host may start, and only once
// both participants are present; the transition happens at most once.
func (c *Controller) Start(ctx context.Context, id model.RoomID, connID model.ConnectionID) (*model.Room, error) {
	room, err := c.storage.GetRoom(ctx, id)
	if err != nil {
		return nil, err
	}

	participant := room.GetParticipant(connID)
	if participant == nil {
		return nil, model.ErrNotInRoom
	}
	if !participant.IsHost {
		return nil, model.ErrNotHost
	}
	if room.Started {
		return nil, model.ErrAlreadyStarted
	}
	if !room.IsFull() {
		return nil, model.ErrPeerNotJoined
	}

	room.Started = true
	room.UpdatedAt = c.clock.Now()

	if err := c.storage.SaveRoom(ctx, room); err != nil {
		return nil, err
	}

	return room, nil
}

// Detach removes a connection from its room. When the last participant
// leaves, the room is deleted and Detach returns a nil room. If the host
// leaves a room that has not started, the remaining participant is
// promoted to host so the room can be re-opened for a new peer.
func (c *Controller) Detach(ctx context.Context, id model.RoomID, connID model.ConnectionID) (*model.Room, error) {
	room, err := c.storage.GetRoom(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrRoomNotFound) {
			// Already gone; nothing to clean up
			return nil, nil
		}
		return nil, err
	}

	participant := room.GetParticipant(connID)
	if participant == nil {
		return nil, model.ErrNotInRoom
	}
	wasHost := participant.IsHost

	for i := range room.Participants {
		if room.Participants[i].ConnectionID == connID {
			room.Participants = append(room.Participants[:i], room.Participants[i+1:]...)
			break
		}
	}

	if len(room.Participants) == 0 {
		if err := c.storage.DeleteRoom(ctx, id); err != nil {
			return nil, err
		}
		return nil, nil
	}

	if wasHost && !room.Started {
		room.Participants[0].IsHost = true
		room.HostID = room.Participants[0].ConnectionID
		c.logger.Info("host left before start, promoting remaining participant",
			slog.String("room", string(id)),
			slog.String("new_host", string(room.HostID)))
	}

	room.UpdatedAt = c.clock.Now()
	if err := c.storage.SaveRoom(ctx, room); err != nil {
		return nil, err
	}

	return room, nil
}

// Get retrieves a room by ID
func (c *Controller) Get(ctx context.Context, id model.RoomID) (*model.Room, error) {
	return c.storage.GetRoom(ctx, id)
}
