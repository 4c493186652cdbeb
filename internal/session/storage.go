package session

import (
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/danesh-portal/danesh/storage"
)

// StorageType selects where sessions are kept
type StorageType string

// Supported session storage types
const (
	StorageMemory   StorageType = "memory"
	StorageDatabase StorageType = "database"
	StorageRedis    StorageType = "redis"
	StorageBadger   StorageType = "badger"
)

// StorageOptions holds what the different storage types need
type StorageOptions struct {
	Type StorageType
	// Warehouse is used by StorageDatabase
	Warehouse *storage.Storage
	// Redis and RedisPrefix are used by StorageRedis
	Redis       redis.UniversalClient
	RedisPrefix string
	// BadgerDir is used by StorageBadger
	BadgerDir string
}

// NewStorage returns the fiber.Storage for the passed options. For
// StorageMemory it returns nil, which makes the session middleware fall back
// to its in-memory storage.
func NewStorage(opts StorageOptions) (fiber.Storage, error) {
	switch opts.Type {
	case "", StorageMemory:
		return nil, nil
	case StorageDatabase:
		if opts.Warehouse == nil {
			return nil, errors.New("database session storage needs a database")
		}
		return opts.Warehouse.SessionStorage(), nil
	case StorageRedis:
		if opts.Redis == nil {
			return nil, errors.New("redis session storage needs a redis client")
		}
		prefix := opts.RedisPrefix
		if prefix == "" {
			prefix = "danesh:session:"
		}
		return NewRedisStorage(opts.Redis, prefix), nil
	case StorageBadger:
		if opts.BadgerDir == "" {
			return nil, errors.New("badger session storage needs a directory")
		}
		s, err := NewBadgerStorage(opts.BadgerDir)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, errors.Errorf("unsupported session storage '%s'", opts.Type)
	}
}
