// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rhi

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// loggingDriver records the logger handed to it. Only SetLogger is
// implemented; the embedded Driver is nil.
type loggingDriver struct {
	Driver
	logger *slog.Logger
}

func (d *loggingDriver) SetLogger(l *slog.Logger) { d.logger = l }

func TestSilentByDefault(t *testing.T) {
	ctx := context.Background()
	h := nopHandler{}
	for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
		if h.Enabled(ctx, level) || Logger().Enabled(ctx, level) {
			t.Errorf("%v enabled on the silent logger", level)
		}
	}
	if err := h.Handle(ctx, slog.Record{}); err != nil {
		t.Errorf("Handle = %v", err)
	}
	if _, ok := h.WithAttrs([]slog.Attr{slog.String("driver", "null")}).(nopHandler); !ok {
		t.Error("WithAttrs left the silent handler")
	}
	if _, ok := h.WithGroup("rhi").(nopHandler); !ok {
		t.Error("WithGroup left the silent handler")
	}
}

func TestSetLogger(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	var buf bytes.Buffer
	custom := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	SetLogger(custom)
	if Logger() != custom {
		t.Fatal("Logger() is not the logger passed to SetLogger")
	}
	Logger().Debug("rhi: bind elided", "unit", 3)
	if !strings.Contains(buf.String(), "bind elided") || !strings.Contains(buf.String(), "unit=3") {
		t.Errorf("log output = %q", buf.String())
	}

	SetLogger(nil)
	if l := Logger(); l == nil || l.Enabled(context.Background(), slog.LevelError) {
		t.Error("SetLogger(nil) did not restore the silent logger")
	}
}

func TestSetLoggerPropagatesToDrivers(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	drv := &loggingDriver{}
	trackDriver(drv)
	t.Cleanup(func() { untrackDriver(drv) })

	if drv.logger != orig {
		t.Error("trackDriver did not hand over the current logger")
	}

	custom := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	SetLogger(custom)
	if drv.logger != custom {
		t.Error("SetLogger did not propagate to a tracked driver")
	}

	untrackDriver(drv)
	SetLogger(orig)
	if drv.logger != custom {
		t.Error("SetLogger reached an untracked driver")
	}
}

func TestLoggerConcurrentAccess(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	drv := &loggingDriver{}
	trackDriver(drv)
	t.Cleanup(func() { untrackDriver(drv) })

	var wg sync.WaitGroup
	for range 50 {
		wg.Go(func() {
			Logger().Debug("rhi: draw", "vertices", 3)
		})
		wg.Go(func() {
			SetLogger(slog.Default())
			SetLogger(nil)
		})
	}
	wg.Wait()
}

func BenchmarkLoggerDisabledLog(b *testing.B) {
	l := Logger()
	b.ReportAllocs()
	for b.Loop() {
		l.Debug("message", "key", "value")
	}
}
