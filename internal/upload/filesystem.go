package upload

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// FileSystem stores uploads below a directory that is served statically
type FileSystem struct {
	dir       string
	urlPrefix string
}

// NewFileSystem creates the directory if needed; urlPrefix is the path the
// directory is served under, e.g. /uploads
func NewFileSystem(dir, urlPrefix string) (*FileSystem, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, errors.Wrapf(err, "upload: failed to create directory '%s'", dir)
	}
	return &FileSystem{
		dir:       dir,
		urlPrefix: strings.TrimSuffix(urlPrefix, "/"),
	}, nil
}

// Dir returns the base directory
func (fs *FileSystem) Dir() string {
	return fs.dir
}

func (fs *FileSystem) path(key string) (string, error) {
	p := filepath.Join(fs.dir, filepath.FromSlash(key))
	rel, err := filepath.Rel(fs.dir, p)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", errors.Errorf("upload: invalid key '%s'", key)
	}
	return p, nil
}

func (fs *FileSystem) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) (string, error) {
	p, err := fs.path(key)
	if err != nil {
		return "", err
	}
	if err = os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
		return "", errors.WithStack(err)
	}
	f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return "", errors.WithStack(err)
	}
	if _, err = io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(p)
		return "", errors.Wrap(err, "upload: failed to write file")
	}
	if err = f.Close(); err != nil {
		return "", errors.WithStack(err)
	}
	return fs.urlPrefix + "/" + key, nil
}

func (fs *FileSystem) Delete(_ context.Context, key string) error {
	p, err := fs.path(key)
	if err != nil {
		return err
	}
	if err = os.Remove(p); err != nil && !os.IsNotExist(err) {
		return errors.WithStack(err)
	}
	return nil
}
