// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package d3d11

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/rhi"
)

// swapChain is a DXGI swap chain with a view of its back buffer.
type swapChain struct {
	object
	sc     SwapChain
	format Format
	rtv    View
	width  uint32
	height uint32
}

// NewSwapChain creates a swap chain for desc.Window. The device must
// implement SwapChainDevice.
func (d *Driver) NewSwapChain(desc *rhi.SwapChainDescriptor) (rhi.NativeSwapChain, error) {
	sd, ok := d.dev.(SwapChainDevice)
	if !ok {
		return nil, fmt.Errorf("%w: device cannot create swap chains", rhi.ErrUnsupported)
	}
	format := desc.Format
	if format == gputypes.TextureFormatUndefined {
		format = gputypes.TextureFormatBGRA8Unorm
	}
	tf, ok := textureFormats[format]
	if !ok || rhi.IsDepthFormat(format) || !d.dev.CheckFormatSupport(tf.view).Has(FormatSupportDisplay) {
		return nil, fmt.Errorf("%w: swap chain format %v", rhi.ErrUnsupported, format)
	}
	native, err := sd.CreateSwapChain(&SwapChainDesc{
		Window:      desc.Window,
		Width:       desc.Width,
		Height:      desc.Height,
		Format:      tf.view,
		BufferCount: 2,
	})
	if err != nil {
		return nil, fmt.Errorf("d3d11: create swap chain: %w", err)
	}
	return &swapChain{
		object: d.newObject("swap chain"),
		sc:     native,
		format: tf.view,
		width:  desc.Width,
		height: desc.Height,
	}, nil
}

// view returns the back buffer view, creating it after a resize.
func (s *swapChain) view() (View, error) {
	if s.rtv != nil {
		return s.rtv, nil
	}
	buf, err := s.sc.Buffer()
	if err != nil {
		return nil, fmt.Errorf("d3d11: swap chain buffer: %w", err)
	}
	defer buf.Release()
	rtv, err := s.d.dev.CreateRenderTargetView(buf, &RenderTargetViewDesc{Format: s.format, Dimension: ViewDimensionTexture2D})
	if err != nil {
		return nil, fmt.Errorf("d3d11: swap chain view: %w", err)
	}
	s.rtv = rtv
	return rtv, nil
}

func (s *swapChain) Present(vsync bool) error {
	if s.destroyed {
		return errDestroyed
	}
	var interval uint32
	if vsync {
		interval = 1
	}
	return s.sc.Present(interval)
}

// Resize resizes the buffers. The back buffer view is dropped first, as
// DXGI requires, and rebound when the swap chain is the render target.
func (s *swapChain) Resize(width, height uint32) error {
	if s.destroyed {
		return errDestroyed
	}
	bound := s.d.bound.target == rhi.NativeObject(s)
	if bound {
		s.d.ctx.OMSetRenderTargets(nil, nil)
	}
	if s.rtv != nil {
		s.rtv.Release()
		s.rtv = nil
	}
	if err := s.sc.ResizeBuffers(width, height, s.format); err != nil {
		return fmt.Errorf("d3d11: resize swap chain to %dx%d: %w", width, height, err)
	}
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
	if s.rtv != nil {
		s.rtv.Release()
	}
	s.sc.Release()
}

func (s *swapChain) SetDebugName(name string) {
	s.label = name
	s.d.name(s.sc, name)
}
