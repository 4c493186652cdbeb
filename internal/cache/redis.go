package cache

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// Redis is a Cache shared between instances through redis
type Redis struct {
	client redis.UniversalClient
	prefix string
}

// NewRedis creates a new redis cache; all keys are namespaced with prefix
func NewRedis(client redis.UniversalClient, prefix string) *Redis {
	if prefix == "" {
		prefix = "danesh:cache:"
	}
	return &Redis{
		client: client,
		prefix: prefix,
	}
}

func (r *Redis) Get(ctx context.Context, key string, target any) (bool, error) {
	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, errors.Wrap(err, "cache: redis get failed")
	}
	return true, decode(data, target)
}

func (r *Redis) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := encode(value)
	if err != nil {
		return err
	}
	return errors.Wrap(r.client.Set(ctx, r.prefix+key, data, ttl).Err(), "cache: redis set failed")
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	return errors.Wrap(r.client.Del(ctx, r.prefix+key).Err(), "cache: redis delete failed")
}

func (r *Redis) Clear(ctx context.Context, prefix string) error {
	iter := r.client.Scan(ctx, 0, r.prefix+prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return errors.Wrap(err, "cache: redis scan failed")
	}
	if len(keys) == 0 {
		return nil
	}
	return errors.Wrap(r.client.Del(ctx, keys...).Err(), "cache: redis delete failed")
}

func (r *Redis) Close() error {
	return nil
}
