package response

import (
	"time"

	"github.com/mlg-games/duelrelay/internal/model"
)

// Participant represents a room participant in API responses
type Participant struct {
	ConnectionID string    `json:"connection_id"`
	IsHost       bool      `json:"is_host"`
	JoinedAt     time.Time `json:"joined_at"`
}

// Room represents a room in API responses
type Room struct {
	ID           string        `json:"id"`
	Tanked       bool          `json:"tanked"`
	Started      bool          `json:"started"`
	Participants []Participant `json:"participants"`
	CreatedAt    time.Time     `json:"created_at"`
}

// RoomFromModel converts a model.Room to a response Room
func RoomFromModel(r *model.Room) Room {
	participants := make([]Participant, 0, len(r.Participants))
	for _, p := range r.Participants {
		participants = append(participants, Participant{
			ConnectionID: string(p.ConnectionID),
			IsHost:       p.IsHost,
			JoinedAt:     p.JoinedAt,
		})
	}
	return Room{
		ID:           string(r.ID),
		Tanked:       r.Tanked,
		Started:      r.Started,
		Participants: participants,
		CreatedAt:    r.CreatedAt,
	}
}

// Lobby represents an open room in the public lobby listing. The field
// names match what browser clients polling the listing already consume.
type Lobby struct {
	Room    string `json:"room"`
	Tanked  bool   `json:"tanked"`
	Players int    `json:"players"`
}

// LobbyFromEntry converts a model.LobbyEntry to a response Lobby
func LobbyFromEntry(e model.LobbyEntry) Lobby {
	return Lobby{
		Room:    string(e.Room),
		Tanked:  e.Tanked,
		Players: e.Players,
	}
}

// LobbyList is the response for the lobby listing endpoint
type LobbyList struct {
	Lobbies []Lobby `json:"lobbies"`
}

// LobbyListFromEntries converts registry entries to a LobbyList
func LobbyListFromEntries(entries []model.LobbyEntry) LobbyList {
	lobbies := make([]Lobby, 0, len(entries))
	for _, e := range entries {
		lobbies = append(lobbies, LobbyFromEntry(e))
	}
	return LobbyList{Lobbies: lobbies}
}
