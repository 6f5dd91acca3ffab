// Package debug provides the build-time debug logger. The generated code and
// the runtime client never log; only the generator pipeline and CLI do.
package debug

import (
	"io"
	"log/slog"
	"os"
	"sync"
)

// EnvVar enables debug logging when set to a non-empty value other than "0".
const EnvVar = "STATICSQL_DEBUG"

var (
	// logger is the global debug logger instance
	logger = slog.New(slog.DiscardHandler)
	// enabled indicates if debug logging is enabled
	enabled bool
	// mu protects the logger and enabled flag
	mu sync.RWMutex
)

// Init enables or disables debug logging to os.Stderr.
func Init(enable bool) {
	InitWithWriter(enable, os.Stderr)
}

// InitWithWriter enables or disables debug logging to w.
// When disabled, records are discarded without being formatted.
func InitWithWriter(enable bool, w io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	enabled = enable
	if !enable {
		logger = slog.New(slog.DiscardHandler)
		return
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})
	logger = slog.New(handler).With("component", "staticsql")
}

// FromEnv reports whether EnvVar asks for debug logging.
func FromEnv() bool {
	v := os.Getenv(EnvVar)
	return v != "" && v != "0"
}

// Enabled returns whether debug logging is enabled
func Enabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return enabled
}

// Debug logs a debug message
func Debug(msg string, args ...any) {
	Logger().Debug(msg, args...)
}

// Info logs an info message
func Info(msg string, args ...any) {
	Logger().Info(msg, args...)
}

// Warn logs a warning message
func Warn(msg string, args ...any) {
	Logger().Warn(msg, args...)
}

// Error logs an error message
func Error(msg string, args ...any) {
	Logger().Error(msg, args...)
}

// With returns a logger with the given attributes
func With(args ...any) *slog.Logger {
	return Logger().With(args...)
}

// Logger returns the underlying slog.Logger instance
func Logger() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}
