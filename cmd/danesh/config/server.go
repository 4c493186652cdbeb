package config

import (
	"github.com/pkg/errors"

	"github.com/danesh-portal/danesh"
)

var defaultServerConf = danesh.ServerConf{
	Port:      8080,
	BodyLimit: danesh.DefaultBodyLimit,
}

func validateServer(s *danesh.ServerConf) error {
	if s.TLS.Enabled && (s.TLS.Cert == "" || s.TLS.Key == "") {
		return errors.New("error in server conf: tls requires cert and key")
	}
	if !s.TLS.Enabled && (s.Port <= 0 || s.Port > 65535) {
		return errors.Errorf("error in server conf: invalid port %d", s.Port)
	}
	return nil
}
