package config

import (
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/zachmann/go-utils/duration"
)

type cachingConf struct {
	RedisAddr   string                  `yaml:"redis_addr"`
	Username    string                  `yaml:"username"`
	Password    string                  `yaml:"password"`
	RedisDB     int                     `yaml:"redis_db"`
	Disabled    bool                    `yaml:"disabled"`
	MaxLifetime duration.DurationOption `yaml:"max_lifetime"`
	// MaxEntries bounds the in-memory cache
	MaxEntries int `yaml:"max_entries"`
}

var defaultCachingConf = cachingConf{
	MaxLifetime: duration.DurationOption(time.Minute),
	MaxEntries:  10000,
}

// RedisClient returns a client for the configured redis server or nil if
// none is configured
func (c cachingConf) RedisClient() redis.UniversalClient {
	if c.RedisAddr == "" {
		return nil
	}
	return redis.NewClient(
		&redis.Options{
			Addr:     c.RedisAddr,
			Username: c.Username,
			Password: c.Password,
			DB:       c.RedisDB,
		},
	)
}
