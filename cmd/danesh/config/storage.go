package config

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/danesh-portal/danesh/storage"
	"github.com/danesh-portal/danesh/storage/model"
)

type storageConf struct {
	Driver  storage.DriverType `yaml:"driver"`
	DataDir string             `yaml:"data_dir"`
	DSN     string             `yaml:"dsn"`
	Debug   bool               `yaml:"debug"`

	storage.DSNConf `yaml:",inline"`
}

func (c *storageConf) validate() error {
	if c.Driver == storage.DriverSQLite {
		if c.DataDir == "" && c.DSN == "" {
			return errors.New("error in storage conf: data_dir must be specified")
		}
		return nil
	}
	var err error
	if c.DSN == "" {
		c.DSN, err = storage.DSN(c.Driver, c.DSNConf)
	}
	return err
}

var defaultStorageConf = storageConf{
	Driver: storage.DriverSQLite,
	DSNConf: storage.DSNConf{
		User: "danesh",
		Host: "localhost",
		DB:   "danesh",
	},
	Debug: false,
}

// LoadStorageBackends opens the database of the passed Config and returns
// its backends and the warehouse itself
func LoadStorageBackends(c *Config) (model.Backends, *storage.Storage, error) {
	cfg := storage.Config{
		Driver:    c.Storage.Driver,
		DSN:       c.Storage.DSN,
		DataDir:   c.Storage.DataDir,
		Debug:     c.Storage.Debug,
		UsersHash: c.API.Argon2idParams,
	}
	backs, warehouse, err := storage.LoadStorageBackends(cfg)
	if err != nil {
		return model.Backends{}, nil, err
	}
	log.WithField("driver", cfg.Driver).Info("Loaded storage backend")
	return backs, warehouse, nil
}
