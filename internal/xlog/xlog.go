// Package xlog is the subsystem-tagged structured logger used throughout the
// runtime. It is deliberately small: the library is linked into a host
// process and must never assume ownership of that process's log output, so
// xlog only ever writes through a single slog.Logger supplied by the caller
// (or a sensible stderr default if none is supplied).
package xlog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
)

var defaultLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

// SetOutput replaces the package-level logger. Nodes constructed with
// WithLogger call this so every subsystem shares one handler.
func SetOutput(logger *slog.Logger) {
	if logger == nil {
		return
	}
	defaultLogger = logger
}

func logInternal(ctx context.Context, level slog.Level, subsystem string, err error, messageFmt string, args ...interface{}) {
	if !defaultLogger.Enabled(ctx, level) {
		return
	}
	msg := messageFmt
	if len(args) > 0 {
		msg = fmt.Sprintf(messageFmt, args...)
	}
	attrs := []slog.Attr{slog.String("subsystem", subsystem)}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	defaultLogger.LogAttrs(ctx, level, msg, attrs...)
}

// Debug logs a debug-level message tagged with the given subsystem.
func Debug(subsystem string, messageFmt string, args ...interface{}) {
	logInternal(context.Background(), slog.LevelDebug, subsystem, nil, messageFmt, args...)
}

// Info logs an info-level message tagged with the given subsystem.
func Info(subsystem string, messageFmt string, args ...interface{}) {
	logInternal(context.Background(), slog.LevelInfo, subsystem, nil, messageFmt, args...)
}

// Warn logs a warning tagged with the given subsystem.
func Warn(subsystem string, messageFmt string, args ...interface{}) {
	logInternal(context.Background(), slog.LevelWarn, subsystem, nil, messageFmt, args...)
}

// Error logs an error tagged with the given subsystem. err is attached as a
// structured attribute rather than interpolated into the message.
func Error(subsystem string, err error, messageFmt string, args ...interface{}) {
	logInternal(context.Background(), slog.LevelError, subsystem, err, messageFmt, args...)
}
