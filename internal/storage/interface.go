package storage

import (
	"context"

	"github.com/mlg-games/duelrelay/internal/model"
)

// Storage defines the interface for room and lobby-entry persistence.
// The default backend is in-memory; a Redis backend exists for deployments
// that want relay state to survive a process handing off to another.
type Storage interface {
	// Room operations
	SaveRoom(ctx context.Context, room *model.Room) error
	GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error)
	DeleteRoom(ctx context.Context, id model.RoomID) error
	RoomExists(ctx context.Context, id model.RoomID) (bool, error)

	// Lobby registry operations
	SaveLobbyEntry(ctx context.Context, entry *model.LobbyEntry) error
	DeleteLobbyEntry(ctx context.Context, id model.RoomID) error
	ListLobbyEntries(ctx context.Context) ([]*model.LobbyEntry, error)
}
