package cache

import (
	"context"
	"time"

	"github.com/TwiN/gocache/v2"
)

// DefaultMaxEntries bounds the in-memory cache
const DefaultMaxEntries = 10000

// Memory is an in-process Cache backed by gocache
type Memory struct {
	c *gocache.Cache
}

// NewMemory creates a new in-memory cache holding at most maxEntries values
func NewMemory(maxEntries int) *Memory {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Memory{
		c: gocache.NewCache().WithMaxSize(maxEntries).WithEvictionPolicy(gocache.LeastRecentlyUsed),
	}
}

// StartJanitor starts the background removal of expired entries
func (m *Memory) StartJanitor() error {
	return m.c.StartJanitor()
}

// Len returns the number of stored entries
func (m *Memory) Len() int {
	return m.c.Count()
}

func (m *Memory) Get(_ context.Context, key string, target any) (bool, error) {
	v, ok := m.c.Get(key)
	if !ok {
		return false, nil
	}
	data, ok := v.([]byte)
	if !ok {
		m.c.Delete(key)
		return false, nil
	}
	return true, decode(data, target)
}

func (m *Memory) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	data, err := encode(value)
	if err != nil {
		return err
	}
	m.c.SetWithTTL(key, data, ttl)
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.c.Delete(key)
	return nil
}

func (m *Memory) Clear(_ context.Context, prefix string) error {
	if prefix == "" {
		m.c.Clear()
		return nil
	}
	m.c.DeleteAll(m.c.GetKeysByPattern(prefix+"*", 0))
	return nil
}

func (m *Memory) Close() error {
	m.c.StopJanitor()
	return nil
}
