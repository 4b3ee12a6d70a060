// Package logging builds the logrus loggers shared by the CLI commands.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Options selects the level and outputs of a logger.
type Options struct {
	Level    string
	File     string
	MaxBytes int64
	// Stderr overrides the console output; nil means os.Stderr.
	Stderr   io.Writer
}

// New returns a logger writing to stderr and, when File is set, to a
// rotating file. The returned closer releases the file.
func New(opts Options) (*logrus.Logger, io.Closer, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}
	console := opts.Stderr
	if console == nil {
		console = os.Stderr
	}

	logger := logrus.New()
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02T15:04:05.000000Z07:00",
	})

	var closer io.Closer = nopWriteCloser{io.Discard}
	out := console
	if strings.TrimSpace(opts.File) != "" {
		file, err := NewRotatingWriter(opts.File, opts.MaxBytes)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		closer = file
		out = io.MultiWriter(console, file)
	}
	logger.SetOutput(out)
	return logger, closer, nil
}

// ParseLevel maps config level names onto logrus levels; empty means info.
func ParseLevel(s string) (logrus.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return logrus.InfoLevel, nil
	case "debug":
		return logrus.DebugLevel, nil
	case "warn", "warning":
		return logrus.WarnLevel, nil
	case "error":
		return logrus.ErrorLevel, nil
	default:
		return logrus.InfoLevel, fmt.Errorf("unknown log level %q", s)
	}
}

// Component returns an entry carrying the component and environment fields.
func Component(logger logrus.FieldLogger, env, name string) *logrus.Entry {
	return logger.WithFields(logrus.Fields{
		"component": "datastream/" + name,
		"env":       env,
	})
}
