// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package opengl

import (
	"fmt"

	"github.com/gogpu/rhi"
)

// Surface is a window surface sharing the driver's context. The Window of
// a swap chain descriptor must implement it.
type Surface interface {
	SwapBuffers() error
}

// SwapIntervalSurface is implemented by surfaces that control vertical
// synchronization.
type SwapIntervalSurface interface {
	SetSwapInterval(interval int) error
}

// ResizableSurface is implemented by surfaces that must be told about
// size changes.
type ResizableSurface interface {
	Resize(width, height uint32) error
}

// CurrentSurface is implemented by surfaces that make their context
// current when bound as a render target.
type CurrentSurface interface {
	MakeCurrent() error
}

// swapChain presents through the default framebuffer of a surface.
type swapChain struct {
	object
	surface       Surface
	width, height uint32
	interval      int
}

func (d *Driver) NewSwapChain(desc *rhi.SwapChainDescriptor) (rhi.NativeSwapChain, error) {
	s, ok := desc.Window.(Surface)
	if !ok {
		return nil, fmt.Errorf("%w: window %T does not implement opengl.Surface", rhi.ErrInvalidDescriptor, desc.Window)
	}
	return &swapChain{
		object:   d.newObject("swap chain"),
		surface:  s,
		width:    desc.Width,
		height:   desc.Height,
		interval: -1,
	}, nil
}

func (sc *swapChain) Present(vsync bool) error {
	if sc.destroyed {
		return errDestroyed
	}
	if setter, ok := sc.surface.(SwapIntervalSurface); ok {
		interval := 0
		if vsync {
			interval = 1
		}
		if interval != sc.interval {
			if err := setter.SetSwapInterval(interval); err != nil {
				sc.d.logger().Warn("opengl: set swap interval", "interval", interval, "err", err)
			}
			sc.interval = interval
		}
	}
	return sc.surface.SwapBuffers()
}

func (sc *swapChain) Resize(width, height uint32) error {
	if sc.destroyed {
		return errDestroyed
	}
	if r, ok := sc.surface.(ResizableSurface); ok {
		if err := r.Resize(width, height); err != nil {
			return err
		}
	}
	sc.width, sc.height = width, height
	return nil
}

func (sc *swapChain) makeCurrent() {
	if c, ok := sc.surface.(CurrentSurface); ok {
		if err := c.MakeCurrent(); err != nil {
			sc.d.logger().Warn("opengl: make surface current", "err", err)
		}
	}
}

func (sc *swapChain) Destroy() {
	if sc.release() && sc.d.bound.target == rhi.NativeObject(sc) {
		sc.d.bound.target = nil
	}
}
