package session

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const redisOpTimeout = 3 * time.Second

// RedisStorage keeps sessions in redis. It satisfies fiber.Storage.
type RedisStorage struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStorage returns a RedisStorage storing keys below prefix
func NewRedisStorage(client redis.UniversalClient, prefix string) *RedisStorage {
	return &RedisStorage{
		client: client,
		prefix: prefix,
	}
}

func (s *RedisStorage) key(k string) string {
	return s.prefix + k
}

func opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), redisOpTimeout)
}

// Get returns the stored value or nil if the key does not exist
func (s *RedisStorage) Get(key string) ([]byte, error) {
	if key == "" {
		return nil, nil
	}
	ctx, cancel := opContext()
	defer cancel()
	val, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return val, errors.Wrap(err, "redis: get failed")
}

// Set stores val under key; exp of 0 means no expiry
func (s *RedisStorage) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}
	ctx, cancel := opContext()
	defer cancel()
	return errors.Wrap(s.client.Set(ctx, s.key(key), val, exp).Err(), "redis: set failed")
}

// Delete removes key
func (s *RedisStorage) Delete(key string) error {
	if key == "" {
		return nil
	}
	ctx, cancel := opContext()
	defer cancel()
	return errors.Wrap(s.client.Del(ctx, s.key(key)).Err(), "redis: delete failed")
}

// Reset removes all keys below the prefix
func (s *RedisStorage) Reset() error {
	ctx, cancel := opContext()
	defer cancel()
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return errors.Wrap(err, "redis: scan failed")
	}
	if len(keys) == 0 {
		return nil
	}
	return errors.Wrap(s.client.Del(ctx, keys...).Err(), "redis: reset failed")
}

// Close closes the redis client
func (s *RedisStorage) Close() error {
	return s.client.Close()
}
