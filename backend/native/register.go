// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import (
	"fmt"

	"github.com/gogpu/rhi"
)

func init() {
	rhi.Register(rhi.DriverNative, openConfig)
}

// openConfig opens a driver from registry configuration. Bindings is an
// Options or *Options. Without Bindings the driver shares the device of
// DriverConfig.Provider, or opens its own when there is none.
func openConfig(cfg rhi.DriverConfig) (rhi.Driver, error) {
	var opts Options
	switch b := cfg.Bindings.(type) {
	case nil:
		if cfg.Provider != nil {
			opts.Debug = cfg.Debug
			return NewFromProvider(cfg.Provider, opts)
		}
	case Options:
		opts = b
	case *Options:
		if b == nil {
			return nil, rhi.ErrInvalidBindings
		}
		opts = *b
	default:
		return nil, fmt.Errorf("%w: %T, want native.Options", rhi.ErrInvalidBindings, cfg.Bindings)
	}
	opts.Debug = opts.Debug || cfg.Debug
	return Open(opts)
}
