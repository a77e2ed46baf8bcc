// Package logging configures the process-wide logrus logger.
package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/johan/sads-console/internal/config"
)

// Setup applies cfg to the standard logrus logger and returns a closer for
// the rotating file, if one was opened.
func Setup(cfg config.LoggingConfig) (io.Closer, error) {
	return configure(logrus.StandardLogger(), cfg, os.Stdout)
}

func configure(logger *logrus.Logger, cfg config.LoggingConfig, console io.Writer) (io.Closer, error) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, errors.Wrapf(err, "log level %q", cfg.Level)
	}
	logger.SetLevel(level)

	switch cfg.Format {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"})
	default:
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "06-01-02 15:04:05",
		})
	}

	if cfg.File == "" {
		logger.SetOutput(console)
		return nopCloser{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
		return nil, errors.Wrap(err, "creating log directory")
	}
	file := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   true,
		LocalTime:  true,
	}
	logger.SetOutput(io.MultiWriter(console, file))
	return file, nil
}

// Component returns a logger tagged with the component name.
func Component(name string) *logrus.Entry {
	return logrus.WithField("component", name)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
