// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rhi

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// SwapChainDescriptor describes a presentable surface. Window is the
// platform window handle the driver presents into; its type is defined by
// the backend.
type SwapChainDescriptor struct {
	Label  string
	Window any
	Width  uint32
	Height uint32
	Format gputypes.TextureFormat
	VSync  bool
}

// SwapChain is a presentable render target.
type SwapChain struct {
	resource
	desc   SwapChainDescriptor
	handle NativeSwapChain
}

// Size returns the back buffer size.
func (sc *SwapChain) Size() (width, height uint32) { return sc.desc.Width, sc.desc.Height }

// Format returns the back buffer format.
func (sc *SwapChain) Format() gputypes.TextureFormat { return sc.desc.Format }

// Native returns the wrapped driver handle.
func (sc *SwapChain) Native() NativeSwapChain { return sc.handle }

func (sc *SwapChain) nativeTarget() NativeObject {
	if sc.handle == nil {
		return nil
	}
	return sc.handle
}

// Present shows the back buffer. Failures are logged.
func (sc *SwapChain) Present() {
	if sc.handle == nil || sc.released.Load() {
		return
	}
	if err := sc.handle.Present(sc.desc.VSync); err != nil {
		Logger().Warn("rhi: present failed", "name", sc.name, "err", err)
	}
}

// Resize changes the back buffer size. Zero sizes are ignored, which is
// what minimized windows report.
func (sc *SwapChain) Resize(width, height uint32) error {
	if width == 0 || height == 0 {
		return nil
	}
	if sc.handle == nil || sc.released.Load() {
		return ErrNotInitialized
	}
	if width == sc.desc.Width && height == sc.desc.Height {
		return nil
	}
	if err := sc.handle.Resize(width, height); err != nil {
		return fmt.Errorf("rhi: resize swap chain: %w", err)
	}
	sc.desc.Width, sc.desc.Height = width, height
	return nil
}

// CreateSwapChain creates a swap chain. A zero Format selects BGRA8.
func (r *Renderer) CreateSwapChain(desc SwapChainDescriptor) (*SwapChain, error) {
	if err := r.checkReady(); err != nil {
		return nil, err
	}
	const typ = ResourceTypeSwapChain
	if desc.Width == 0 || desc.Height == 0 {
		return nil, r.creationFailed(typ, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, desc.Width, desc.Height))
	}
	if desc.Format == gputypes.TextureFormatUndefined {
		desc.Format = gputypes.TextureFormatBGRA8Unorm
	}

	defer r.debugEvent("CreateSwapChain")()
	handle, err := r.driver.NewSwapChain(&desc)
	if err != nil {
		return nil, r.creationFailed(typ, err)
	}
	sc := &SwapChain{desc: desc, handle: handle}
	sc.init(r, typ, handle, nil)
	if desc.Label != "" {
		sc.SetDebugName(desc.Label)
	}
	return sc, nil
}
