// Package logging holds the *slog.Logger used by the form engine packages.
package logging

import (
	"log/slog"
	"strings"
	"sync/atomic"
)

// logger is nil until SetLogger is called, in which case Logger returns a discard logger.
var logger atomic.Pointer[slog.Logger]

// SetLogger replaces the package-level logger. Passing nil silences logging.
//
// SetLogger is safe for concurrent use.
func SetLogger(sl *slog.Logger) {
	if sl == nil {
		sl = slog.New(slog.DiscardHandler)
	}
	logger.Store(sl)
}

// Logger returns the package-level logger.
func Logger() *slog.Logger {
	l := logger.Load()
	if l == nil {
		l = slog.New(slog.DiscardHandler)
		logger.Store(l)
	}
	return l
}

// ParseLevel maps a configured log level name onto a slog.Level.
// Unknown names fall back to info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
