// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package d3d9

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/rhi"
)

// swapChain is an additional swap chain. It renders without a depth
// buffer; attach one through a framebuffer when needed.
type swapChain struct {
	object
	sc     SwapChain
	pp     PresentParameters
	back   Surface
	vsync  bool
	width  uint32
	height uint32
}

// NewSwapChain creates an additional swap chain for desc.Window. The
// device must implement SwapChainDevice. The presentation interval is
// fixed when the swap chain is created.
func (d *Driver) NewSwapChain(desc *rhi.SwapChainDescriptor) (rhi.NativeSwapChain, error) {
	sd, ok := d.dev.(SwapChainDevice)
	if !ok {
		return nil, fmt.Errorf("%w: device cannot create swap chains", rhi.ErrUnsupported)
	}
	format := desc.Format
	if format == gputypes.TextureFormatUndefined {
		format = gputypes.TextureFormatBGRA8Unorm
	}
	f, ok := textureFormats[format]
	if !ok || rhi.IsDepthFormat(format) || !d.dev.CheckFormat(f, UsageRenderTarget, ResourceSurface) {
		return nil, fmt.Errorf("%w: swap chain format %v", rhi.ErrUnsupported, format)
	}
	pp := PresentParameters{
		Window:           desc.Window,
		BackBufferWidth:  desc.Width,
		BackBufferHeight: desc.Height,
		BackBufferFormat: f,
		BackBufferCount:  1,
	}
	if desc.VSync {
		pp.PresentationInterval = 1
	}
	native, err := sd.CreateAdditionalSwapChain(&pp)
	if err != nil {
		return nil, fmt.Errorf("d3d9: create swap chain: %w", err)
	}
	return &swapChain{
		object: d.newObject("swap chain"),
		sc:     native,
		pp:     pp,
		vsync:  desc.VSync,
		width:  desc.Width,
		height: desc.Height,
	}, nil
}

// surface returns the back buffer, fetching it after a resize.
func (s *swapChain) surface() (Surface, error) {
	if s.back != nil {
		return s.back, nil
	}
	b, err := s.sc.BackBuffer()
	if err != nil {
		return nil, fmt.Errorf("d3d9: swap chain back buffer: %w", err)
	}
	s.back = b
	return b, nil
}

// Present ends the scene and presents. A vsync differing from the one the
// swap chain was created with is ignored.
func (s *swapChain) Present(vsync bool) error {
	if s.destroyed {
		return errDestroyed
	}
	if vsync != s.vsync {
		s.d.warnOnce("present-interval", "d3d9: presentation interval is fixed at swap chain creation", "vsync", s.vsync)
	}
	s.d.endScene()
	return s.sc.Present()
}

// Resize recreates the swap chain at the new size and rebinds it when it
// is the render target.
func (s *swapChain) Resize(width, height uint32) error {
	if s.destroyed {
		return errDestroyed
	}
	bound := s.d.bound.target == rhi.NativeObject(s)
	if bound {
		s.d.SetRenderTarget(nil)
	}
	pp := s.pp
	pp.BackBufferWidth, pp.BackBufferHeight = width, height
	native, err := s.d.dev.(SwapChainDevice).CreateAdditionalSwapChain(&pp)
	if err != nil {
		return fmt.Errorf("d3d9: resize swap chain to %dx%d: %w", width, height, err)
	}
	if s.back != nil {
		s.back.Release()
		s.back = nil
	}
	s.sc.Release()
	s.sc, s.pp = native, pp
	s.width, s.height = width, height
	if bound {
		s.d.SetRenderTarget(s)
	}
	return nil
}

func (s *swapChain) Destroy() {
	if !s.release() {
		return
	}
	if s.d.bound.target == rhi.NativeObject(s) {
		s.d.SetRenderTarget(nil)
	}
	if s.back != nil {
		s.back.Release()
	}
	s.sc.Release()
}

func (s *swapChain) SetDebugName(name string) {
	s.label = name
	s.d.name(s.sc, name)
}
