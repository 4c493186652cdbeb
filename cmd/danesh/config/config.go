// Package config loads the configuration of the danesh server.
package config

import (
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/zachmann/go-utils/fileutils"
	"gopkg.in/yaml.v3"

	"github.com/danesh-portal/danesh"
)

const (
	// EnvConfigFile names the environment variable that points to the config file
	EnvConfigFile = "DANESH_CONFIG"
	// EnvMode names the environment variable used when the config sets no mode
	EnvMode = "DANESH_ENV"
)

// Run modes
const (
	ModeDevelopment = "development"
	ModeProduction  = "production"
)

// Config holds the configuration of the danesh server
type Config struct {
	// Mode is either development or production; production turns on secure
	// defaults such as secure session cookies
	Mode    string            `yaml:"mode"`
	Server  danesh.ServerConf `yaml:"server"`
	Storage storageConf       `yaml:"storage"`
	Session sessionConf       `yaml:"session"`
	Caching cachingConf       `yaml:"cache"`
	Logging loggingConf       `yaml:"logging"`
	API     apiConf           `yaml:"api"`
	Upload  uploadConf        `yaml:"upload"`
	I18n    i18nConf          `yaml:"i18n"`
}

var c *Config

var possibleConfigLocations = []string{
	"config.yaml",
	"/config/config.yaml",
	"/etc/danesh/config.yaml",
}

// Get returns the loaded Config
func Get() *Config {
	return c
}

func defaultConfig() *Config {
	return &Config{
		Server:  defaultServerConf,
		Storage: defaultStorageConf,
		Session: defaultSessionConf,
		Caching: defaultCachingConf,
		Logging: defaultLoggingConf,
		API:     defaultAPIConf,
		Upload:  defaultUploadConf,
	}
}

// Parse parses a yaml config. Environment variables referenced as ${VAR}
// are expanded before parsing.
func Parse(data []byte) (*Config, error) {
	conf := defaultConfig()
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), conf); err != nil {
		return nil, errors.Wrap(err, "could not parse config")
	}
	if conf.Mode == "" {
		conf.Mode = os.Getenv(EnvMode)
	}
	if conf.Mode == "" {
		conf.Mode = ModeDevelopment
	}
	if err := conf.validate(); err != nil {
		return nil, err
	}
	conf.Session.applyMode(conf.Production())
	return conf, nil
}

// Production reports whether the server runs in production mode
func (conf *Config) Production() bool {
	return conf.Mode == ModeProduction
}

// Load reads the config file and makes it available through Get. If
// filename is empty, the file named by DANESH_CONFIG is used, then the first
// existing default location.
func Load(filename string) error {
	if filename == "" {
		filename = os.Getenv(EnvConfigFile)
	}
	if filename == "" {
		for _, l := range possibleConfigLocations {
			if fileutils.FileExists(l) {
				filename = l
				break
			}
		}
	}
	if filename == "" {
		return errors.New("could not find config file in any of the possible locations")
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return errors.Wrap(err, "could not read config file")
	}
	conf, err := Parse(data)
	if err != nil {
		return err
	}
	c = conf
	log.WithField("file", filename).Debug("read config file")
	return nil
}

func (conf *Config) validate() error {
	if conf.Mode != ModeDevelopment && conf.Mode != ModeProduction {
		return errors.Errorf("invalid mode '%s': must be '%s' or '%s'", conf.Mode, ModeDevelopment, ModeProduction)
	}
	if err := validateServer(&conf.Server); err != nil {
		return err
	}
	if err := conf.Storage.validate(); err != nil {
		return err
	}
	if err := conf.Session.validate(conf.Caching); err != nil {
		return err
	}
	if err := conf.Logging.validate(); err != nil {
		return err
	}
	if err := conf.API.validate(); err != nil {
		return err
	}
	if err := conf.Upload.validate(); err != nil {
		return err
	}
	return conf.I18n.validate()
}
