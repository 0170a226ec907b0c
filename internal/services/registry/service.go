package registry

import (
	"context"
	"log/slog"
	"sort"

	"github.com/mlg-games/duelrelay/internal/model"
	"github.com/mlg-games/duelrelay/internal/storage"
)

// Service maintains the discoverable list of rooms that are open for a
// second player to join. State lives in storage and carries no guarantee
// across restarts.
type Service struct {
	storage storage.Storage
	logger  *slog.Logger
}

// New creates a new registry Service
func New(storage storage.Storage, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		logger:  logger.With(slog.String("component", "registry")),
	}
}

// Publish lists a room in the public registry
func (s *Service) Publish(ctx context.Context, room *model.Room) error {
	entry := &model.LobbyEntry{
		Room:    room.ID,
		Tanked:  room.Tanked,
		Players: len(room.Participants),
	}
	if err := s.storage.SaveLobbyEntry(ctx, entry); err != nil {
		return err
	}
	s.logger.Info("room published", slog.String("room", string(room.ID)))
	return nil
}

// Unpublish removes a room from the public registry. Removing a room that
// was never listed is a no-op.
func (s *Service) Unpublish(ctx context.Context, id model.RoomID) error {
	if err := s.storage.DeleteLobbyEntry(ctx, id); err != nil {
		return err
	}
	s.logger.Info("room unpublished", slog.String("room", string(id)))
	return nil
}

// List returns an at-call-time snapshot of the open rooms, ordered by room
// ID for stable output. It is not a live subscription.
//
// Room and lobby records expire independently in storage, so an entry can
// outlive its room; List drops those and removes the stale record.
func (s *Service) List(ctx context.Context) ([]model.LobbyEntry, error) {
	stored, err := s.storage.ListLobbyEntries(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]model.LobbyEntry, 0, len(stored))
	for _, e := range stored {
		exists, err := s.storage.RoomExists(ctx, e.Room)
		if err != nil {
			return nil, err
		}
		if !exists {
			if err := s.storage.DeleteLobbyEntry(ctx, e.Room); err != nil {
				s.logger.Warn("failed to remove stale lobby entry",
					slog.String("room", string(e.Room)),
					slog.String("error", err.Error()))
			}
			continue
		}
		entries = append(entries, *e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Room < entries[j].Room
	})
	return entries, nil
}
