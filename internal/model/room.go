package model

import "time"

// RoomID identifies a room. It is chosen by the creating client and is
// unique among live rooms.
type RoomID string

// ConnectionID identifies a single live transport connection.
type ConnectionID string

// MaxParticipants is the hard cap on connections attached to one room.
const MaxParticipants = 2

// Participant represents a connection's membership in a room.
type Participant struct {
	ConnectionID ConnectionID
	IsHost       bool
	JoinedAt     time.Time
}

// Room is a rendezvous context pairing at most two connections for one
// game session.
type Room struct {
	ID           RoomID
	Tanked       bool // ruleset variant flag, opaque to the relay
	HostID       ConnectionID
	Participants []Participant
	Started      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// GetParticipant returns the participant with the given connection ID, or
// nil if the connection is not in the room.
func (r *Room) GetParticipant(id ConnectionID) *Participant {
	for i := range r.Participants {
		if r.Participants[i].ConnectionID == id {
			return &r.Participants[i]
		}
	}
	return nil
}

// Peer returns the other participant relative to the given connection, or
// nil if the peer has not joined.
func (r *Room) Peer(id ConnectionID) *Participant {
	for i := range r.Participants {
		if r.Participants[i].ConnectionID != id {
			return &r.Participants[i]
		}
	}
	return nil
}

// Host returns the host participant, or nil if the room has none.
func (r *Room) Host() *Participant {
	for i := range r.Participants {
		if r.Participants[i].IsHost {
			return &r.Participants[i]
		}
	}
	return nil
}

// IsFull reports whether the room is at the participant cap.
func (r *Room) IsFull() bool {
	return len(r.Participants) >= MaxParticipants
}

// IsOpen reports whether the room should be discoverable in the public
// lobby registry: exactly one participant and not yet started.
func (r *Room) IsOpen() bool {
	return len(r.Participants) == 1 && !r.Started
}

// Clone returns a deep copy of the room. Storage backends hand out clones
// so REST readers never share a Participants slice with the session
// goroutine mutating it.
func (r *Room) Clone() *Room {
	clone := *r
	clone.Participants = make([]Participant, len(r.Participants))
	copy(clone.Participants, r.Participants)
	return &clone
}

// LobbyEntry is the public registry's view of an open room.
type LobbyEntry struct {
	Room    RoomID `json:"room"`
	Tanked  bool   `json:"tanked"`
	Players int    `json:"players"`
}
