// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rhi

// Option configures a Renderer during creation.
//
// Example:
//
//	drv, _ := null.Open(null.Options{})
//	r, err := rhi.New(drv, rhi.WithDebugEvents(true), rhi.WithLabel("main"))
type Option func(*options)

// options holds optional configuration for Renderer creation.
type options struct {
	debugEvents bool
	cpuMipmaps  bool
	label       string
}

// defaultOptions returns the default renderer options.
func defaultOptions() options {
	return options{}
}

// WithDebugEvents brackets resource creation with debug events and forwards
// BeginDebugEvent, EndDebugEvent and SetDebugMarker to drivers that support
// them. Off by default.
func WithDebugEvents(enabled bool) Option {
	return func(o *options) {
		o.debugEvents = enabled
	}
}

// WithCPUMipmaps forces mip chain generation on the CPU even when the
// driver can generate mipmaps itself.
func WithCPUMipmaps(enabled bool) Option {
	return func(o *options) {
		o.cpuMipmaps = enabled
	}
}

// WithLabel names the renderer in log output.
func WithLabel(label string) Option {
	return func(o *options) {
		o.label = label
	}
}
