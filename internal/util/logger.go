// Package util provides helper functions for logging events
package util

import (
	"fmt"
	"log"
	"strings"
	"sync/atomic"
)

// Log levels, lowest first.
const (
	LevelDebug int32 = iota
	LevelInfo
	LevelWarn
	LevelError
)

var threshold atomic.Int32

func init() {
	threshold.Store(LevelInfo)
}

// SetupLogger configures the standard logger and the minimum level printed
// by Debug, Info, Warn and Error. Unknown levels fall back to info.
func SetupLogger(level string) {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	threshold.Store(ParseLevel(level))
}

// ParseLevel maps debug|info|warn|error to a level constant.
func ParseLevel(level string) int32 {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Enabled reports whether messages at level are printed.
func Enabled(level int32) bool {
	return level >= threshold.Load()
}

// Debug prints verbose diagnostics.
func Debug(msg string, args ...any) { logAt(LevelDebug, "DEBUG", msg, args...) }

// Info prints general system information messages.
func Info(msg string, args ...any) { logAt(LevelInfo, "INFO", msg, args...) }

// Warn prints degraded-but-running conditions.
func Warn(msg string, args ...any) { logAt(LevelWarn, "WARN", msg, args...) }

// Error prints error messages.
func Error(msg string, args ...any) { logAt(LevelError, "ERROR", msg, args...) }

func logAt(level int32, tag, msg string, args ...any) {
	if !Enabled(level) {
		return
	}
	log.Printf("[%s] %s", tag, fmt.Sprintf(msg, args...))
}
