// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package cascade

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip message formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

// loggerSinks are backend packages that keep their own logger copy.
var (
	sinksMu     sync.Mutex
	loggerSinks []func(*slog.Logger)
)

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for cascade and every registered backend.
// By default nothing is logged. Pass nil to restore the silent default.
//
// Log levels used:
//   - [slog.LevelDebug]: buffer sizing, per-stage dispatch detail
//   - [slog.LevelInfo]: lifecycle events (Init, Shutdown, device selected)
//   - [slog.LevelWarn]: non-fatal issues (GPU unavailable, release errors)
//
// Example:
//
//	cascade.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)

	sinksMu.Lock()
	sinks := append([]func(*slog.Logger){}, loggerSinks...)
	sinksMu.Unlock()
	for _, s := range sinks {
		s(l)
	}
}

// Logger returns the current logger. Safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// RegisterLoggerSink registers fn to receive the logger on every SetLogger
// call. fn is invoked immediately with the current logger. Backends call
// this from init so that they share the cascade logger without an import
// cycle in the other direction.
func RegisterLoggerSink(fn func(*slog.Logger)) {
	if fn == nil {
		return
	}
	sinksMu.Lock()
	loggerSinks = append(loggerSinks, fn)
	sinksMu.Unlock()
	fn(Logger())
}
