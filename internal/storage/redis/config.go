package redis

import "time"

// Config holds Redis connection and behavior settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379)
	URL string

	// Pool settings
	PoolSize     int
	MinIdleConns int

	// TTL settings. Rooms and lobby entries age out if nothing touches
	// them, so a crashed client cannot leave a room listed forever.
	RoomTTL  time.Duration
	LobbyTTL time.Duration
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		URL:          "redis://localhost:6379",
		PoolSize:     10,
		MinIdleConns: 2,
		RoomTTL:      6 * time.Hour,
		LobbyTTL:     6 * time.Hour,
	}
}
