package factory

import (
	"errors"
	"io"
	"log/slog"

	"github.com/mlg-games/duelrelay/internal/dependencies/clock"
	"github.com/mlg-games/duelrelay/internal/dependencies/ident"
	"github.com/mlg-games/duelrelay/internal/relay"
	"github.com/mlg-games/duelrelay/internal/services/registry"
	"github.com/mlg-games/duelrelay/internal/services/room"
	"github.com/mlg-games/duelrelay/internal/storage"
	"github.com/mlg-games/duelrelay/internal/storage/memory"
	redisstorage "github.com/mlg-games/duelrelay/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock clock.Clock
	Ident ident.Generator

	// Services
	RoomController  *room.Controller
	RegistryService *registry.Service
	RelayManager    *relay.Manager
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	return newWithDependencies(store, clock.New(), ident.New(), logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, idGen ident.Generator, logger *slog.Logger) *App {
	roomController := room.NewController(store, clk, idGen, logger)
	registryService := registry.New(store, logger)
	relayManager := relay.NewManager(roomController, registryService, logger)

	return &App{
		Storage:         store,
		Clock:           clk,
		Ident:           idGen,
		RoomController:  roomController,
		RegistryService: registryService,
		RelayManager:    relayManager,
	}
}
