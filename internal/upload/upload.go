// Package upload stores uploaded media files on the local filesystem or in an
// S3 compatible object store.
package upload

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"tideland.dev/go/slices"

	"github.com/danesh-portal/danesh/internal/metrics"
	"github.com/danesh-portal/danesh/storage/model"
)

// DefaultMaxSize is the default upload limit (20 MiB)
const DefaultMaxSize int64 = 20 << 20

// DefaultAllowedTypes lists the MIME types accepted when none are configured
var DefaultAllowedTypes = []string{
	"image/jpeg",
	"image/png",
	"image/gif",
	"image/webp",
	"application/pdf",
	"video/mp4",
	"audio/mpeg",
}

// Errors returned by Uploader.Store
var (
	ErrTooLarge       = model.ValidationError("file too large")
	ErrTypeNotAllowed = model.ValidationError("file type not allowed")
)

// Backend persists uploaded objects
type Backend interface {
	// Put stores the content under key and returns its public URL
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// Uploader validates uploads and hands them to a Backend
type Uploader struct {
	backend      Backend
	maxSize      int64
	allowedTypes []string
}

// NewUploader creates a new Uploader; zero values select the defaults
func NewUploader(backend Backend, maxSize int64, allowedTypes []string) *Uploader {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if len(allowedTypes) == 0 {
		allowedTypes = DefaultAllowedTypes
	}
	return &Uploader{
		backend:      backend,
		maxSize:      maxSize,
		allowedTypes: allowedTypes,
	}
}

// MaxSize returns the upload limit in bytes
func (u *Uploader) MaxSize() int64 {
	return u.maxSize
}

// NewKey returns a new storage key for a file name, bucketed by date
func NewKey(fileName string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	return path.Join(
		fmt.Sprintf("%04d", now.Year()), fmt.Sprintf("%02d", now.Month()), uuid.NewString()+ext,
	)
}

// Store validates the file, writes it to the backend and returns the
// (unsaved) media library entry describing it
func (u *Uploader) Store(ctx context.Context, fh *multipart.FileHeader) (*model.MediaItem, error) {
	if fh.Size > u.maxSize {
		return nil, ErrTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return nil, errors.Wrap(err, "upload: failed to open file")
	}
	defer f.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, errors.Wrap(err, "upload: failed to read file")
	}
	head = head[:n]
	contentType := http.DetectContentType(head)
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	if !slices.IsMember(contentType, u.allowedTypes) {
		return nil, ErrTypeNotAllowed
	}

	if _, err = f.Seek(0, io.SeekStart); err != nil {
		return nil, errors.Wrap(err, "upload: failed to rewind file")
	}

	key := NewKey(fh.Filename, time.Now())
	url, err := u.backend.Put(ctx, key, f, fh.Size, contentType)
	if err != nil {
		return nil, err
	}
	metrics.UploadedBytesTotal.Add(float64(fh.Size))

	name := filepath.Base(fh.Filename)
	return &model.MediaItem{
		ContentBase: model.ContentBase{
			Title:  strings.TrimSuffix(name, filepath.Ext(name)),
			Status: model.StatusPublished,
		},
		FileName:   name,
		URL:        url,
		MIMEType:   contentType,
		Size:       fh.Size,
		StorageKey: key,
	}, nil
}

// Remove deletes a stored object
func (u *Uploader) Remove(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	return u.backend.Delete(ctx, key)
}
