// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rhi

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/gogpu/gpucontext"
)

// Driver names used by the backend packages.
const (
	DriverNative   = "native"
	DriverD3D11    = "d3d11"
	DriverOpenGL   = "opengl"
	DriverOpenGLES = "opengles"
	DriverD3D9     = "d3d9"
	DriverNull     = "null"
)

// driverPriority is the order OpenDefault tries drivers in.
var driverPriority = []string{DriverNative, DriverD3D11, DriverOpenGL, DriverOpenGLES, DriverD3D9, DriverNull}

// DriverConfig carries what a driver factory needs to open a device.
type DriverConfig struct {
	// Bindings holds the injected native entry points. Each backend
	// documents the type it expects.
	Bindings any

	// Provider supplies an existing device to backends that share one.
	Provider gpucontext.DeviceProvider

	// Debug enables native validation and debug naming where available.
	Debug bool
}

// DriverFactory opens a driver.
type DriverFactory func(cfg DriverConfig) (Driver, error)

var drivers = gpucontext.NewRegistry[DriverFactory](gpucontext.WithPriority(driverPriority...))

// Register registers a driver factory under name. Backend packages call it
// from init. A factory registered under an existing name replaces it.
func Register(name string, factory DriverFactory) {
	drivers.Register(name, func() DriverFactory { return factory })
}

// Unregister removes a driver factory. This is useful for testing.
func Unregister(name string) {
	drivers.Unregister(name)
}

// Available returns the registered driver names in priority order.
func Available() []string {
	names := drivers.Available()
	slices.SortFunc(names, func(a, b string) int {
		if d := priorityOf(a) - priorityOf(b); d != 0 {
			return d
		}
		return strings.Compare(a, b)
	})
	return names
}

// IsRegistered reports whether a driver factory is registered under name.
func IsRegistered(name string) bool {
	return drivers.Has(name)
}

func priorityOf(name string) int {
	if i := slices.Index(driverPriority, name); i >= 0 {
		return i
	}
	return len(driverPriority)
}

// Open opens the named driver and creates a renderer over it.
func Open(name string, cfg DriverConfig, opts ...Option) (*Renderer, error) {
	factory := drivers.Get(name)
	if factory == nil {
		return nil, fmt.Errorf("%w: %q", ErrBackendNotAvailable, name)
	}
	drv, err := factory(cfg)
	if err != nil {
		return nil, fmt.Errorf("rhi: open %s: %w", name, err)
	}
	r, err := New(drv, opts...)
	if err != nil {
		drv.Close()
		return nil, err
	}
	Logger().Info("rhi: driver opened", "driver", name)
	return r, nil
}

// OpenDefault opens the first registered driver, in priority order, that
// accepts cfg.
func OpenDefault(cfg DriverConfig, opts ...Option) (*Renderer, error) {
	var errs []error
	for _, name := range Available() {
		r, err := Open(name, cfg, opts...)
		if err == nil {
			return r, nil
		}
		Logger().Debug("rhi: driver skipped", "driver", name, "err", err)
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil, ErrBackendNotAvailable
	}
	return nil, fmt.Errorf("%w: %w", ErrBackendNotAvailable, errors.Join(errs...))
}
