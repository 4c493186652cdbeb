package config

import (
	"github.com/pkg/errors"
	"github.com/zachmann/go-utils/fileutils"

	"github.com/danesh-portal/danesh/internal/logger"
)

// loggingConf holds all logging-related configuration under the `logging` key.
//
// YAML example:
//
//	logging:
//	  access:
//	    dir: /var/log/danesh
//	    stderr: false
//	  internal:
//	    dir: /var/log/danesh
//	    stderr: false
//	    level: INFO
//	    smart:
//	      enabled: false
//	      dir: /var/log/danesh/smart
//	  banner:
//	    version: true
type loggingConf struct {
	Access   LoggerConf         `yaml:"access"`
	Internal internalLoggerConf `yaml:"internal"`
	Banner   bannerConf         `yaml:"banner"`
}

// bannerConf controls whether the version banner is printed on startup.
type bannerConf struct {
	Version bool `yaml:"version"`
}

// internalLoggerConf configures application-internal logging.
// Level accepts standard log levels (e.g. DEBUG, INFO, WARN, ERROR).
// When Smart logging is enabled, errors are duplicated to a dedicated directory.
type internalLoggerConf struct {
	LoggerConf `yaml:",inline"`
	// Level sets the verbosity for internal logs (e.g. DEBUG, INFO).
	Level string `yaml:"level"`
	// Smart enables additional error-focused logging alongside general logs.
	Smart smartLoggerConf `yaml:"smart"`
}

// LoggerConf holds configuration related to logging
type LoggerConf struct {
	Dir    string `yaml:"dir"`
	StdErr bool   `yaml:"stderr"`
}

// smartLoggerConf enables and configures 'smart' logging.
// If Enabled, error logs are also written to `Dir`. If `Dir` is empty, it
// falls back to the internal logger's `Dir`.
type smartLoggerConf struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

func checkLoggingDirExists(dir string) error {
	if dir != "" && !fileutils.FileExists(dir) {
		return errors.Errorf("logging directory '%s' does not exist", dir)
	}
	return nil
}

func (log *loggingConf) validate() error {
	if err := checkLoggingDirExists(log.Access.Dir); err != nil {
		return err
	}
	if err := checkLoggingDirExists(log.Internal.Dir); err != nil {
		return err
	}
	if log.Internal.Smart.Enabled {
		if log.Internal.Smart.Dir == "" {
			log.Internal.Smart.Dir = log.Internal.Dir
		}
		if err := checkLoggingDirExists(log.Internal.Smart.Dir); err != nil {
			return err
		}
	}
	return nil
}

var defaultLoggingConf = loggingConf{
	Banner: bannerConf{
		Version: true,
	},
	Internal: internalLoggerConf{
		Level: "INFO",
	},
}

// Options returns the logger.Options for this configuration
func (log loggingConf) Options() logger.Options {
	return logger.Options{
		AccessDir:      log.Access.Dir,
		AccessStdErr:   log.Access.StdErr,
		InternalDir:    log.Internal.Dir,
		InternalStdErr: log.Internal.StdErr,
		Level:          log.Internal.Level,
		SmartEnabled:   log.Internal.Smart.Enabled,
		SmartDir:       log.Internal.Smart.Dir,
	}
}
