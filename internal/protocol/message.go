// Package protocol defines the JSON wire messages exchanged between the
// relay and its clients. Every frame is a small object carrying a "type"
// discriminator; inbound frames are decoded exactly once at the transport
// boundary and dispatched on their type.
package protocol

import (
	"encoding/json"
	"errors"
)

// Type discriminates wire messages.
type Type string

const (
	// Server -> client
	TypeRoomCreated  Type = "room-created"
	TypeRoomJoined   Type = "room-joined"
	TypeReadyToStart Type = "ready-to-start"
	TypeOpponentLeft Type = "opponent-left"
	TypeError        Type = "error"

	// Client -> server
	TypeStart  Type = "start"
	TypeUpdate Type = "update"
)

// ErrMalformedMessage indicates an inbound frame that could not be parsed
// as a protocol envelope.
var ErrMalformedMessage = errors.New("malformed message")

// Envelope is the decoded form of an inbound frame. Update payloads are
// kept as raw JSON: the relay forwards them verbatim and never interprets
// game state.
type Envelope struct {
	Type    Type            `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Decode parses an inbound frame. Frames that are not JSON objects or that
// lack a type discriminator are rejected with ErrMalformedMessage.
func Decode(raw []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, ErrMalformedMessage
	}
	if env.Type == "" {
		return nil, ErrMalformedMessage
	}
	return &env, nil
}

// ack is the shape of the room-created and room-joined acknowledgments.
// Field names match what the browser client expects.
type ack struct {
	Type     Type   `json:"type"`
	ClientID string `json:"clientId"`
	IsHost   bool   `json:"isHost"`
}

type signal struct {
	Type Type `json:"type"`
}

type errorFrame struct {
	Type  Type   `json:"type"`
	Error string `json:"error"`
}

func mustMarshal(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		// All frame structs marshal without error; reaching this is a bug.
		panic(err)
	}
	return data
}

// RoomCreated acknowledges room creation to the host.
func RoomCreated(clientID string) []byte {
	return mustMarshal(ack{Type: TypeRoomCreated, ClientID: clientID, IsHost: true})
}

// RoomJoined acknowledges a successful join to the second participant.
func RoomJoined(clientID string) []byte {
	return mustMarshal(ack{Type: TypeRoomJoined, ClientID: clientID, IsHost: false})
}

// ReadyToStart tells the host that the second participant has joined.
func ReadyToStart() []byte {
	return mustMarshal(signal{Type: TypeReadyToStart})
}

// Start tells both participants that the host has started the game. The
// joiner already knows which side it plays from the isHost flag in its
// room-joined ack.
func Start() []byte {
	return mustMarshal(signal{Type: TypeStart})
}

// OpponentLeft tells the remaining participant that its peer disconnected.
func OpponentLeft() []byte {
	return mustMarshal(signal{Type: TypeOpponentLeft})
}

// Error reports a malformed request or rejected action to a client.
func Error(msg string) []byte {
	return mustMarshal(errorFrame{Type: TypeError, Error: msg})
}
