package config

import (
	"github.com/pkg/errors"

	"github.com/danesh-portal/danesh/internal/upload"
)

// Upload backends
const (
	UploadBackendFileSystem = "filesystem"
	UploadBackendS3         = "s3"
)

// uploadConf configures where uploaded media files are kept.
//
// YAML example:
//
//	upload:
//	  backend: s3
//	  max_size: 20971520
//	  s3:
//	    endpoint: https://s3.ir-thr-at1.arvanstorage.ir
//	    region: ir-thr-at1
//	    bucket: danesh-media
//	    access_key: ${S3_ACCESS_KEY}
//	    secret_key: ${S3_SECRET_KEY}
type uploadConf struct {
	Disabled     bool     `yaml:"disabled"`
	Backend      string   `yaml:"backend"`
	MaxSize      int64    `yaml:"max_size"`
	AllowedTypes []string `yaml:"allowed_types"`
	// Dir is the directory of the filesystem backend; its files are served
	// under /uploads
	Dir string `yaml:"dir"`
	S3  s3Conf `yaml:"s3"`
}

type s3Conf struct {
	Endpoint     string `yaml:"endpoint"`
	Region       string `yaml:"region"`
	Bucket       string `yaml:"bucket"`
	AccessKey    string `yaml:"access_key"`
	SecretKey    string `yaml:"secret_key"`
	PublicURL    string `yaml:"public_url"`
	UsePathStyle bool   `yaml:"use_path_style"`
}

// Options returns the upload.S3Options
func (s s3Conf) Options() upload.S3Options {
	return upload.S3Options{
		Endpoint:     s.Endpoint,
		Region:       s.Region,
		Bucket:       s.Bucket,
		AccessKey:    s.AccessKey,
		SecretKey:    s.SecretKey,
		PublicURL:    s.PublicURL,
		UsePathStyle: s.UsePathStyle,
	}
}

var defaultUploadConf = uploadConf{
	Backend: UploadBackendFileSystem,
	MaxSize: upload.DefaultMaxSize,
	Dir:     "uploads",
}

func (u *uploadConf) validate() error {
	if u.Disabled {
		return nil
	}
	if u.MaxSize <= 0 {
		return errors.New("error in upload conf: max_size must be positive")
	}
	switch u.Backend {
	case UploadBackendFileSystem:
		if u.Dir == "" {
			return errors.New("error in upload conf: dir must be specified")
		}
	case UploadBackendS3:
		if u.S3.Bucket == "" {
			return errors.New("error in upload conf: s3 bucket must be specified")
		}
	default:
		return errors.Errorf("error in upload conf: unsupported backend '%s'", u.Backend)
	}
	return nil
}
