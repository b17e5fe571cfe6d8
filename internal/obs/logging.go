// Package obs centralizes logger construction so every package that takes
// a *logrus.Logger (internal/gdsii, the adapters) is wired to the same
// formatting and level policy, the way a CLI entry point configures
// logging once and threads it through.
package obs

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Config selects the logger's output, level and format.
type Config struct {
	Level  logrus.Level
	Output io.Writer
	JSON   bool
}

// DefaultConfig logs human-readable text at Info level to stderr, matching
// the CLI's default verbosity.
func DefaultConfig() Config {
	return Config{Level: logrus.InfoLevel, Output: os.Stderr}
}

// New builds a standalone *logrus.Logger from cfg, suitable for injection
// into internal/gdsii.Build and the format adapters.
func New(cfg Config) *logrus.Logger {
	log := logrus.New()
	log.SetLevel(cfg.Level)
	if cfg.Output != nil {
		log.SetOutput(cfg.Output)
	}
	if cfg.JSON {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log
}

// SetVerbose raises log's level to Debug, for a CLI --verbose flag.
func SetVerbose(log *logrus.Logger, verbose bool) {
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}
}
