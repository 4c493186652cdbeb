package config

import (
	"time"

	"github.com/pkg/errors"
	"github.com/zachmann/go-utils/duration"

	"github.com/danesh-portal/danesh/storage"
)

// apiConf holds API-related configuration
type apiConf struct {
	Argon2idParams storage.Argon2idParams `yaml:"password_hashing"`
	BootstrapAdmin storage.BootstrapAdmin `yaml:"bootstrap_admin"`
	RateLimit      rateLimitConf          `yaml:"rate_limit"`
	// MetricsEnabled mounts the prometheus endpoint under /metrics
	MetricsEnabled bool `yaml:"metrics_enabled"`
}

// rateLimitConf limits login and registration attempts per client IP
type rateLimitConf struct {
	Disabled bool                    `yaml:"disabled"`
	Max      int                     `yaml:"max"`
	Window   duration.DurationOption `yaml:"window"`
}

var defaultAPIConf = apiConf{
	Argon2idParams: storage.Argon2idParams{
		Time:        1,
		MemoryKiB:   64 * 1024,
		Parallelism: 4,
		KeyLen:      32,
		SaltLen:     16,
	},
	BootstrapAdmin: storage.BootstrapAdmin{
		Username: "admin",
		Name:     "مدیر سامانه",
	},
	RateLimit: rateLimitConf{
		Max:    10,
		Window: duration.DurationOption(time.Minute),
	},
	MetricsEnabled: true,
}

func (a *apiConf) validate() error {
	p := a.Argon2idParams
	if p.Time == 0 || p.MemoryKiB == 0 || p.Parallelism == 0 {
		return errors.New("error in api conf: password_hashing time, memory_kib and parallelism must be positive")
	}
	if p.KeyLen < 16 || p.SaltLen < 8 {
		return errors.New("error in api conf: password_hashing key_len must be >= 16 and salt_len >= 8")
	}
	if !a.RateLimit.Disabled && (a.RateLimit.Max <= 0 || a.RateLimit.Window.Duration() <= 0) {
		return errors.New("error in api conf: rate_limit needs a positive max and window")
	}
	return nil
}
