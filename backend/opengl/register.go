// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package opengl

import (
	"fmt"

	"github.com/gogpu/rhi"
)

func init() {
	rhi.Register(rhi.DriverOpenGL, func(cfg rhi.DriverConfig) (rhi.Driver, error) {
		return openConfig(cfg, false)
	})
	rhi.Register(rhi.DriverOpenGLES, func(cfg rhi.DriverConfig) (rhi.Driver, error) {
		return openConfig(cfg, true)
	})
}

// openConfig opens a driver from registry configuration. Bindings may be
// Options, *Options or Functions. The context must match the requested
// flavor: the "opengl" entry rejects ES contexts and "opengles" the others.
func openConfig(cfg rhi.DriverConfig, es bool) (rhi.Driver, error) {
	var opts Options
	switch b := cfg.Bindings.(type) {
	case Options:
		opts = b
	case *Options:
		if b == nil {
			return nil, rhi.ErrInvalidBindings
		}
		opts = *b
	case Functions:
		opts.Functions = b
	default:
		return nil, fmt.Errorf("%w: %T, want opengl.Options or opengl.Functions", rhi.ErrInvalidBindings, cfg.Bindings)
	}
	opts.Debug = opts.Debug || cfg.Debug
	d, err := Open(opts)
	if err != nil {
		return nil, err
	}
	if d.version.es != es {
		d.Close()
		return nil, fmt.Errorf("%w: context is %v", rhi.ErrUnsupported, d.version)
	}
	return d, nil
}
