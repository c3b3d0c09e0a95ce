// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package d3d11

import (
	"fmt"

	"github.com/gogpu/rhi"
)

func init() {
	rhi.Register(rhi.DriverD3D11, openConfig)
}

// openConfig opens a driver from registry configuration. Bindings is an
// Options or *Options.
func openConfig(cfg rhi.DriverConfig) (rhi.Driver, error) {
	var opts Options
	switch b := cfg.Bindings.(type) {
	case Options:
		opts = b
	case *Options:
		if b == nil {
			return nil, rhi.ErrInvalidBindings
		}
		opts = *b
	default:
		return nil, fmt.Errorf("%w: %T, want d3d11.Options", rhi.ErrInvalidBindings, cfg.Bindings)
	}
	opts.Debug = opts.Debug || cfg.Debug
	if opts.Compiler == nil {
		if c, err := SystemCompiler(); err == nil {
			opts.Compiler = c
		} else {
			rhi.Logger().Debug("d3d11: no system shader compiler", "err", err)
		}
	}
	return Open(opts)
}
