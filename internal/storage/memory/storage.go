package memory

import (
	"context"
	"sync"

	"github.com/mlg-games/duelrelay/internal/model"
	"github.com/mlg-games/duelrelay/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	rooms   map[model.RoomID]*model.Room
	lobbies map[model.RoomID]*model.LobbyEntry
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		rooms:   make(map[model.RoomID]*model.Room),
		lobbies: make(map[model.RoomID]*model.LobbyEntry),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Room operations

func (s *Storage) SaveRoom(ctx context.Context, room *model.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Store a clone so the caller cannot mutate stored state after the save,
	// and later readers never alias the caller's Participants slice.
	s.rooms[room.ID] = room.Clone()
	return nil
}

func (s *Storage) GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[id]
	if !ok {
		return nil, model.ErrRoomNotFound
	}
	return room.Clone(), nil
}

func (s *Storage) DeleteRoom(ctx context.Context, id model.RoomID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, id)
	return nil
}

func (s *Storage) RoomExists(ctx context.Context, id model.RoomID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.rooms[id]
	return ok, nil
}

// Lobby registry operations

func (s *Storage) SaveLobbyEntry(ctx context.Context, entry *model.LobbyEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *entry
	s.lobbies[entry.Room] = &stored
	return nil
}

func (s *Storage) DeleteLobbyEntry(ctx context.Context, id model.RoomID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.lobbies, id)
	return nil
}

func (s *Storage) ListLobbyEntries(ctx context.Context) ([]*model.LobbyEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := make([]*model.LobbyEntry, 0, len(s.lobbies))
	for _, entry := range s.lobbies {
		e := *entry
		entries = append(entries, &e)
	}
	return entries, nil
}
