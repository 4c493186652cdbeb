package config

import (
	"github.com/pkg/errors"
	"github.com/zachmann/go-utils/fileutils"
)

type i18nConf struct {
	// GeoIPDB is the path of a MaxMind country database; it is used to pick
	// the language when the client sends no preference
	GeoIPDB string `yaml:"geoip_db"`
}

func (i *i18nConf) validate() error {
	if i.GeoIPDB != "" && !fileutils.FileExists(i.GeoIPDB) {
		return errors.Errorf("error in i18n conf: geoip database '%s' does not exist", i.GeoIPDB)
	}
	return nil
}
