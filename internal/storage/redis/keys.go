package redis

import (
	"fmt"

	"github.com/mlg-games/duelrelay/internal/model"
)

// Key prefix for all relay data
const keyPrefix = "duelrelay"

// roomKey returns the Redis key for a Room
func roomKey(id model.RoomID) string {
	return fmt.Sprintf("%s:room:%s", keyPrefix, id)
}

// lobbyKey returns the Redis key for a public lobby entry
func lobbyKey(id model.RoomID) string {
	return fmt.Sprintf("%s:lobby:%s", keyPrefix, id)
}

// lobbyIndexKey returns the Redis key for the SET of listed lobby keys
func lobbyIndexKey() string {
	return fmt.Sprintf("%s:idx:lobbies", keyPrefix)
}
