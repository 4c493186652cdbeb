package config

import (
	"time"

	"github.com/pkg/errors"
	"github.com/zachmann/go-utils/duration"
	"tideland.dev/go/slices"

	"github.com/danesh-portal/danesh/internal/session"
)

var supportedSessionStorages = []session.StorageType{
	session.StorageDatabase,
	session.StorageMemory,
	session.StorageRedis,
	session.StorageBadger,
}

// sessionConf holds the configuration under the `session` key.
//
// YAML example:
//
//	session:
//	  ttl: 168h
//	  cookie_name: session_id
//	  secure_cookie: true # defaults to true in production mode
//	  refresh_identity: false
//	  storage:
//	    type: database
//	    cleanup_schedule: "@every 1h"
type sessionConf struct {
	TTL        duration.DurationOption `yaml:"ttl"`
	CookieName string                  `yaml:"cookie_name"`
	Secure     *bool                   `yaml:"secure_cookie"`
	SameSite   string                  `yaml:"same_site"`
	Domain     string                  `yaml:"domain"`
	// RefreshIdentity re-reads the user on every guarded request, so role
	// changes and disabling take effect before the session expires
	RefreshIdentity bool               `yaml:"refresh_identity"`
	Storage         sessionStorageConf `yaml:"storage"`
}

type sessionStorageConf struct {
	Type session.StorageType `yaml:"type"`
	// BadgerDir is the database directory for the badger storage
	BadgerDir string `yaml:"badger_dir"`
	// CleanupSchedule is the cron schedule for deleting expired sessions
	// from the database storage
	CleanupSchedule string `yaml:"cleanup_schedule"`
}

var defaultSessionConf = sessionConf{
	TTL:        duration.DurationOption(session.DefaultTTL),
	CookieName: session.DefaultCookieName,
	Storage: sessionStorageConf{
		Type:            session.StorageDatabase,
		CleanupSchedule: "@every 1h",
	},
}

func (s *sessionConf) validate(caching cachingConf) error {
	if s.TTL.Duration() < time.Minute {
		return errors.New("error in session conf: ttl must be at least one minute")
	}
	if !slices.IsMember(s.Storage.Type, supportedSessionStorages) {
		return errors.Errorf("error in session conf: unsupported storage type '%s'", s.Storage.Type)
	}
	switch s.Storage.Type {
	case session.StorageRedis:
		if caching.RedisAddr == "" {
			return errors.New("error in session conf: redis storage requires cache.redis_addr")
		}
	case session.StorageBadger:
		if s.Storage.BadgerDir == "" {
			return errors.New("error in session conf: badger storage requires badger_dir")
		}
	}
	return nil
}

// applyMode fills in mode dependent defaults that were not set explicitly
func (s *sessionConf) applyMode(production bool) {
	if s.Secure == nil {
		s.Secure = &production
	}
}

// ManagerConfig returns the session.Config without storage
func (s sessionConf) ManagerConfig() session.Config {
	return session.Config{
		TTL:        s.TTL.Duration(),
		CookieName: s.CookieName,
		Secure:     s.Secure != nil && *s.Secure,
		SameSite:   s.SameSite,
		Domain:     s.Domain,
	}
}
