// Package logger sets up the internal logrus logger and the access log
// writer used by the HTTP server.
package logger

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	internalLogFile = "danesh.log"
	accessLogFile   = "access.log"
	errorLogFile    = "errors.log"
)

// Options configures logging
type Options struct {
	AccessDir      string
	AccessStdErr   bool
	InternalDir    string
	InternalStdErr bool
	Level          string
	// SmartEnabled duplicates error entries into SmartDir
	SmartEnabled bool
	SmartDir     string
}

var (
	accessMu     sync.RWMutex
	accessWriter io.Writer = os.Stderr
)

// Init configures the global logrus logger and the access log writer
func Init(opts Options) error {
	level := log.InfoLevel
	if opts.Level != "" {
		var err error
		level, err = log.ParseLevel(opts.Level)
		if err != nil {
			return errors.Wrap(err, "invalid log level")
		}
	}
	log.SetLevel(level)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	internal, err := openOutput(opts.InternalDir, internalLogFile, opts.InternalStdErr)
	if err != nil {
		return err
	}
	log.SetOutput(internal)

	access, err := openOutput(opts.AccessDir, accessLogFile, opts.AccessStdErr)
	if err != nil {
		return err
	}
	accessMu.Lock()
	accessWriter = access
	accessMu.Unlock()

	if opts.SmartEnabled {
		dir := opts.SmartDir
		if dir == "" {
			dir = opts.InternalDir
		}
		out, err := openOutput(dir, errorLogFile, false)
		if err != nil {
			return err
		}
		log.AddHook(newErrorHook(out))
	}
	return nil
}

// AccessWriter returns the writer for the HTTP access log
func AccessWriter() io.Writer {
	accessMu.RLock()
	defer accessMu.RUnlock()
	return accessWriter
}

func openOutput(dir, name string, alsoStdErr bool) (io.Writer, error) {
	if dir == "" {
		return os.Stderr, nil
	}
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o640)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open log file in '%s'", dir)
	}
	if alsoStdErr {
		return io.MultiWriter(f, os.Stderr), nil
	}
	return f, nil
}

// errorHook writes error, fatal and panic entries to a separate output
type errorHook struct {
	mu        sync.Mutex
	out       io.Writer
	formatter log.Formatter
}

func newErrorHook(out io.Writer) *errorHook {
	return &errorHook{
		out:       out,
		formatter: &log.JSONFormatter{},
	}
}

// Levels implements the logrus.Hook interface
func (*errorHook) Levels() []log.Level {
	return []log.Level{log.PanicLevel, log.FatalLevel, log.ErrorLevel}
}

// Fire implements the logrus.Hook interface
func (h *errorHook) Fire(e *log.Entry) error {
	b, err := h.formatter.Format(e)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	_, err = h.out.Write(b)
	return err
}
