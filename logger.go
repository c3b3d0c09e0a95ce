// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rhi

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

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

// liveDrivers holds the drivers of open renderers so SetLogger can reach them.
var (
	liveMu      sync.Mutex
	liveDrivers = make(map[Driver]struct{})
)

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for rhi and every backend driver in use.
// By default rhi produces no log output.
//
// SetLogger is safe for concurrent use. Pass nil to restore the silent
// default.
//
// Log levels used by rhi:
//   - [slog.LevelDebug]: native call diagnostics (bind elision, driver calls)
//   - [slog.LevelInfo]: lifecycle events (driver opened, capabilities detected)
//   - [slog.LevelWarn]: degraded behavior (leaked resources at Close, extra Release)
//   - [slog.LevelError]: contract violations (renderer mismatch, missing vertex array)
//
// Example:
//
//	rhi.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)

	liveMu.Lock()
	defer liveMu.Unlock()
	for d := range liveDrivers {
		propagateLogger(d, l)
	}
}

// Logger returns the current logger used by rhi.
// Backend packages call this to share the same logger configuration.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// loggerSetter is implemented by drivers that accept a logger.
type loggerSetter interface {
	SetLogger(*slog.Logger)
}

// propagateLogger passes the logger to a driver if it implements loggerSetter.
func propagateLogger(d Driver, l *slog.Logger) {
	if ls, ok := d.(loggerSetter); ok {
		ls.SetLogger(l)
	}
}

func trackDriver(d Driver) {
	liveMu.Lock()
	liveDrivers[d] = struct{}{}
	liveMu.Unlock()
	propagateLogger(d, Logger())
}

func untrackDriver(d Driver) {
	liveMu.Lock()
	delete(liveDrivers, d)
	liveMu.Unlock()
}
