package relay

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/mlg-games/duelrelay/internal/model"
	"github.com/mlg-games/duelrelay/internal/services/registry"
	"github.com/mlg-games/duelrelay/internal/services/room"
)

// Manager tracks one live Session per room and spins them up on demand.
// Sessions remove themselves when their last participant disconnects.
type Manager struct {
	rooms    *room.Controller
	registry *registry.Service
	logger   *slog.Logger

	mu       sync.Mutex
	sessions map[model.RoomID]*Session
}

func NewManager(rooms *room.Controller, registry *registry.Service, logger *slog.Logger) *Manager {
	return &Manager{
		rooms:    rooms,
		registry: registry,
		logger:   logger.With(slog.String("component", "relay")),
		sessions: make(map[model.RoomID]*Session),
	}
}

// Join attaches a connection to the room's session, creating the session
// (and the room) if needed. A session that is tearing down between lookup
// and join is retried against a fresh one.
func (m *Manager) Join(ctx context.Context, roomID model.RoomID, tanked bool, conn Conn) (*Session, *model.Participant, error) {
	for {
		sess := m.getOrCreate(roomID, tanked)
		participant, err := sess.Join(ctx, conn)
		if errors.Is(err, model.ErrRoomClosed) {
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		return sess, participant, nil
	}
}

// Get returns the live session for a room, if any
func (m *Manager) Get(roomID model.RoomID) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[roomID]
	return sess, ok
}

// Count returns the number of live sessions
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) getOrCreate(roomID model.RoomID, tanked bool) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sess, ok := m.sessions[roomID]; ok {
		select {
		case <-sess.Done():
			// Dead session still in the map; replace it
		default:
			return sess
		}
	}

	sess := newSession(roomID, tanked, m.rooms, m.registry, m.logger)
	sess.onEmpty = func() { m.evict(roomID, sess) }
	m.sessions[roomID] = sess
	go sess.run()
	return sess
}

// evict removes a session from the map, but only if the map still holds
// that exact instance; a replacement created in the meantime stays.
func (m *Manager) evict(roomID model.RoomID, sess *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sessions[roomID] == sess {
		delete(m.sessions, roomID)
	}
}
