// Package logger provides the process-wide structured logger used across
// the edgemcp runtime. It wraps a single slog.Logger singleton so that every
// package can log without threading a logger value through constructors.
package logger

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"sync/atomic"

	"github.com/go-logr/logr"
	"github.com/stacklok/toolhive-core/env"
	"github.com/stacklok/toolhive-core/logging"
)

var singleton atomic.Pointer[slog.Logger]

func init() {
	singleton.Store(logging.New(logging.WithOutput(os.Stderr)))
}

// Initialize sets up the singleton logger from the process environment.
// It should be called once, early, from the CLI's PersistentPreRun.
func Initialize() {
	InitializeWithEnv(env.OSReader{})
}

// InitializeWithEnv builds the singleton logger using the given environment
// reader, split out so tests can substitute a mock reader. The level is
// debug when EDGEMCP_DEBUG parses as true and info otherwise; the root
// command's --debug flag is not consulted. UNSTRUCTURED_LOGS does not
// change the handler built here: unstructuredLogsWithEnv reads it, but
// InitializeWithEnv does not call it.
func InitializeWithEnv(r env.Reader) {
	opts := []logging.Option{logging.WithOutput(os.Stderr)}
	if debugEnabled(r) {
		opts = append(opts, logging.WithLevel(slog.LevelDebug))
	} else {
		opts = append(opts, logging.WithLevel(slog.LevelInfo))
	}
	singleton.Store(logging.New(opts...))
}

// unstructuredLogsWithEnv reports whether UNSTRUCTURED_LOGS should select the
// human-readable text handler. Defaults to true: unset or unparsable values
// fall back to the friendlier format rather than failing closed to JSON.
func unstructuredLogsWithEnv(r env.Reader) bool {
	v := r.Getenv("UNSTRUCTURED_LOGS")
	if v == "" {
		return true
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return true
	}
	return b
}

func debugEnabled(r env.Reader) bool {
	b, _ := strconv.ParseBool(r.Getenv("EDGEMCP_DEBUG"))
	return b
}

// Get returns the current singleton logger.
func Get() *slog.Logger {
	return singleton.Load()
}

// NewLogr adapts the singleton slog.Logger to the logr.Logger interface,
// for the handful of dependencies (controller-runtime-adjacent libraries)
// that only accept logr.
func NewLogr() logr.Logger {
	return logr.FromSlogHandler(singleton.Load().Handler())
}

func log(level slog.Level, msg string, kv ...any) {
	singleton.Load().Log(context.Background(), level, msg, kv...)
}

// Debug logs msg at debug level.
func Debug(msg string) { log(slog.LevelDebug, msg) }

// Debugf logs a printf-style message at debug level.
func Debugf(format string, args ...any) { log(slog.LevelDebug, sprintf(format, args...)) }

// Debugw logs msg at debug level with structured key/value pairs.
func Debugw(msg string, kv ...any) { log(slog.LevelDebug, msg, kv...) }

// Info logs msg at info level.
func Info(msg string) { log(slog.LevelInfo, msg) }

// Infof logs a printf-style message at info level.
func Infof(format string, args ...any) { log(slog.LevelInfo, sprintf(format, args...)) }

// Infow logs msg at info level with structured key/value pairs.
func Infow(msg string, kv ...any) { log(slog.LevelInfo, msg, kv...) }

// Warn logs msg at warn level.
func Warn(msg string) { log(slog.LevelWarn, msg) }

// Warnf logs a printf-style message at warn level.
func Warnf(format string, args ...any) { log(slog.LevelWarn, sprintf(format, args...)) }

// Warnw logs msg at warn level with structured key/value pairs.
func Warnw(msg string, kv ...any) { log(slog.LevelWarn, msg, kv...) }

// Error logs msg at error level.
func Error(msg string) { log(slog.LevelError, msg) }

// Errorf logs a printf-style message at error level.
func Errorf(format string, args ...any) { log(slog.LevelError, sprintf(format, args...)) }

// Errorw logs msg at error level with structured key/value pairs.
func Errorw(msg string, kv ...any) { log(slog.LevelError, msg, kv...) }

// DPanic logs msg at error level. Unlike Panic, it does not panic; it is
// meant for invariant violations that should be loud in development but
// must not crash an embedded device in the field.
func DPanic(msg string) { log(slog.LevelError, msg) }

// DPanicf is the printf-style variant of DPanic.
func DPanicf(format string, args ...any) { log(slog.LevelError, sprintf(format, args...)) }

// DPanicw is the structured variant of DPanic.
func DPanicw(msg string, kv ...any) { log(slog.LevelError, msg, kv...) }

// Fatalf logs msg at error level and terminates the process. Reserved for
// startup failures (§7 "Fatal" errors): registry allocation failure, an
// unreachable KV backend, or a persisted auth config that cannot be parsed.
func Fatalf(format string, args ...any) {
	log(slog.LevelError, sprintf(format, args...))
	os.Exit(1)
}

// Panic logs msg at error level then panics.
func Panic(msg string) {
	log(slog.LevelError, msg)
	panic(msg)
}

// Panicf is the printf-style variant of Panic.
func Panicf(format string, args ...any) {
	msg := sprintf(format, args...)
	log(slog.LevelError, msg)
	panic(msg)
}

// Panicw is the structured variant of Panic.
func Panicw(msg string, kv ...any) {
	log(slog.LevelError, msg, kv...)
	panic(msg)
}

func sprintf(format string, args ...any) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
