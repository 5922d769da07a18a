// Package logging sets up the session log file. The TUI owns the terminal,
// so logs always go to a file.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures the global logger to write JSON to file at the given
// level. It returns a closer to flush at exit.
func Setup(level, file string) (func(), error) {
	closer := func() {}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return closer, fmt.Errorf("parse log level: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return closer, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return closer, err
	}
	closer = func() { _ = f.Close() }

	log.Logger = zerolog.New(f).With().Timestamp().Logger().Level(lvl)
	return closer, nil
}

// Component returns a logger tagged with a component identifier.
func Component(name string) zerolog.Logger {
	return log.With().Str("cmp", name).Logger()
}

// DefaultFile returns the default log file location.
func DefaultFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "vix.log"
	}
	return filepath.Join(dir, "vix", "vix.log")
}
