// Package rtlog provides the runtime's leveled logger, wired to the
// same -v verbosity convention the teacher binary's "verbose" flag
// used, generalized from ad hoc fmt.Fprintf calls to a structured
// log/slog logger so registry mutations and ABI-boundary errors carry
// consistent key=value fields.
package rtlog

import (
	"log/slog"
	"os"
)

var logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

// SetVerbose switches the package logger between warn-and-above (the
// default, matching `-v` unset) and debug-and-above (matching `-v`
// set), mirroring the teacher's *verbose flag.
func SetVerbose(v bool) {
	level := slog.LevelWarn
	if v {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// Debugf logs at debug level, visible only when SetVerbose(true) was
// called.
func Debugf(msg string, args ...any) { logger.Debug(msg, args...) }

// Infof logs at info level.
func Infof(msg string, args ...any) { logger.Info(msg, args...) }

// Warnf logs at warn level.
func Warnf(msg string, args ...any) { logger.Warn(msg, args...) }

// Errorf logs at error level.
func Errorf(msg string, args ...any) { logger.Error(msg, args...) }
