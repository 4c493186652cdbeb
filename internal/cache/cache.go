// Package cache caches rendered public listings so repeated anonymous reads
// do not hit the database.
package cache

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
)

// Cache stores msgpack encoded values under string keys
type Cache interface {
	// Get decodes the value stored under key into target and reports whether
	// the key was present
	Get(ctx context.Context, key string, target any) (bool, error)
	// Set stores value under key for ttl
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	// Delete removes a single key
	Delete(ctx context.Context, key string) error
	// Clear removes all keys starting with prefix
	Clear(ctx context.Context, prefix string) error
	// Close releases resources held by the backend
	Close() error
}

// Key joins the parts into a cache key
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}

func encode(value any) ([]byte, error) {
	data, err := msgpack.Marshal(value)
	return data, errors.Wrap(err, "cache: failed to encode value")
}

func decode(data []byte, target any) error {
	return errors.Wrap(msgpack.Unmarshal(data, target), "cache: failed to decode value")
}

// Noop is a Cache that never stores anything
type Noop struct{}

func (Noop) Get(context.Context, string, any) (bool, error) { return false, nil }
func (Noop) Set(context.Context, string, any, time.Duration) error { return nil }
func (Noop) Delete(context.Context, string) error { return nil }
func (Noop) Clear(context.Context, string) error { return nil }
func (Noop) Close() error { return nil }
