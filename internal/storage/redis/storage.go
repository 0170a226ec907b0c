package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mlg-games/duelrelay/internal/model"
	"github.com/mlg-games/duelrelay/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Room operations

func (s *Storage) SaveRoom(ctx context.Context, room *model.Room) error {
	data, err := json.Marshal(room)
	if err != nil {
		return err
	}

	return s.client.Set(ctx, roomKey(room.ID), data, s.cfg.RoomTTL).Err()
}

func (s *Storage) GetRoom(ctx context.Context, id model.RoomID) (*model.Room, error) {
	data, err := s.client.Get(ctx, roomKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrRoomNotFound
		}
		return nil, err
	}

	var room model.Room
	if err := json.Unmarshal(data, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

func (s *Storage) DeleteRoom(ctx context.Context, id model.RoomID) error {
	return s.client.Del(ctx, roomKey(id)).Err()
}

func (s *Storage) RoomExists(ctx context.Context, id model.RoomID) (bool, error) {
	exists, err := s.client.Exists(ctx, roomKey(id)).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}

// Lobby registry operations

func (s *Storage) SaveLobbyEntry(ctx context.Context, entry *model.LobbyEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	key := lobbyKey(entry.Room)
	indexKey := lobbyIndexKey()

	// Use pipeline for atomic save + index update
	pipe := s.client.Pipeline()
	pipe.Set(ctx, key, data, s.cfg.LobbyTTL)
	pipe.SAdd(ctx, indexKey, key)
	pipe.Expire(ctx, indexKey, s.cfg.LobbyTTL) // Keep index TTL in sync
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) DeleteLobbyEntry(ctx context.Context, id model.RoomID) error {
	key := lobbyKey(id)

	pipe := s.client.Pipeline()
	pipe.Del(ctx, key)
	pipe.SRem(ctx, lobbyIndexKey(), key)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Storage) ListLobbyEntries(ctx context.Context) ([]*model.LobbyEntry, error) {
	indexKey := lobbyIndexKey()

	lobbyKeys, err := s.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return nil, err
	}

	if len(lobbyKeys) == 0 {
		return []*model.LobbyEntry{}, nil
	}

	values, err := s.client.MGet(ctx, lobbyKeys...).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]*model.LobbyEntry, 0, len(values))
	for _, val := range values {
		if val == nil {
			continue // Entry may have expired ahead of the index
		}
		var entry model.LobbyEntry
		if err := json.Unmarshal([]byte(val.(string)), &entry); err != nil {
			continue // Skip invalid data
		}
		entries = append(entries, &entry)
	}

	return entries, nil
}
