// Package xlog holds the base logrus logger and carries request scoped loggers in a context.
package xlog

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

type loggerKey struct{}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// FileConfig is the configuration for the rotating log file
type FileConfig struct {
	Path       string `yaml:"path"`         // Path of the log file, empty keeps logging on stderr
	MaxSizeMB  int    `yaml:"max_size_mb"`  // MaxSizeMB size in megabytes before the file is rotated
	MaxBackups int    `yaml:"max_backups"`  // MaxBackups number of rotated files to keep
	MaxAgeDays int    `yaml:"max_age_days"` // MaxAgeDays days to keep rotated files
	Compress   bool   `yaml:"compress"`     // Compress rotated files with gzip
}

var baseLogger = logrus.NewEntry(logrus.New())

// Base returns the process wide logger
func Base() logrus.FieldLogger {
	return baseLogger
}

// SetLevel sets the level of the base logger
func SetLevel(level logrus.Level) {
	baseLogger.Logger.SetLevel(level)
}

// SetOutput redirects the base logger
func SetOutput(w io.Writer) {
	baseLogger.Logger.SetOutput(w)
}

// Configure applies the level and, when a file path is given, switches the base logger to a rotating file.
// The returned closer releases the file and is a no-op when logging to stderr.
func Configure(level string, file *FileConfig) (io.Closer, error) {
	log := baseLogger.WithField("func", "Configure")

	parsed, err := ParseLevel(level)
	if err != nil {
		log.WithError(err).Warn("failed to parse log level, initializing with default")
	}
	SetLevel(parsed)

	if file == nil || strings.TrimSpace(file.Path) == "" {
		return nopCloser{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(file.Path), 0o755); err != nil {
		return nil, errors.Wrapf(err, "failed to create log directory for %s", file.Path)
	}

	writer := &lumberjack.Logger{
		Filename:   file.Path,
		MaxSize:    file.MaxSizeMB,
		MaxBackups: file.MaxBackups,
		MaxAge:     file.MaxAgeDays,
		Compress:   file.Compress,
		LocalTime:  true,
	}
	SetOutput(writer)
	log.Debugf("logging to %s", file.Path)
	return writer, nil
}

// ParseLevel parses the level, an empty value yields info
func ParseLevel(level string) (logrus.Level, error) {
	if strings.TrimSpace(level) == "" {
		return logrus.InfoLevel, nil
	}

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return logrus.InfoLevel, err
	}
	return parsed, nil
}

// NewContext returns a new context with a logger named after the caller
func NewContext(name string) context.Context {
	return WithLogger(context.Background(), baseLogger.WithField("name", name))
}

// WithLogger returns a copy of ctx carrying the logger
func WithLogger(ctx context.Context, logger logrus.FieldLogger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// Lookup returns the logger carried by ctx, if any
func Lookup(ctx context.Context) (logrus.FieldLogger, bool) {
	if ctx == nil {
		return nil, false
	}

	logger, ok := ctx.Value(loggerKey{}).(logrus.FieldLogger)
	return logger, ok && logger != nil
}

// FromContext returns the logger carried by ctx, or the base logger
func FromContext(ctx context.Context) logrus.FieldLogger {
	if logger, ok := Lookup(ctx); ok {
		return logger
	}
	return baseLogger
}
