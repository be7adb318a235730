// Package logging builds the logrus logger shared by every cashcast component.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/theirongolddev/cashcast/internal/config"
)

// New returns a logger configured from cfg. An unparseable level falls back to warn.
func New(cfg config.LogConfig, out io.Writer) *logrus.Logger {
	logger := logrus.New()
	if out == nil {
		out = os.Stderr
	}
	logger.SetOutput(out)

	switch cfg.Format {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		logger.SetFormatter(&logrus.TextFormatter{
			DisableTimestamp: false,
			FullTimestamp:    true,
		})
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.WarnLevel
	}
	logger.SetLevel(level)
	return logger
}

// Discard returns a logger that drops everything. Tests use it when the
// output is not under assertion.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
