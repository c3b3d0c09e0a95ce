// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/rhi"
)

// swapChain is a configured hal surface. The surface texture of a frame
// is acquired by the first pass that renders to it and released by
// Present.
type swapChain struct {
	object
	surface hal.Surface
	config  hal.SurfaceConfiguration
	fmts    targetFormats

	acquired hal.SurfaceTexture
	view     hal.TextureView
}

func presentMode(vsync bool) gputypes.PresentMode {
	if vsync {
		return gputypes.PresentModeFifo
	}
	return gputypes.PresentModeImmediate
}

// NewSwapChain configures desc.Window, which must be a hal.Surface
// created on the driver's instance.
func (d *Driver) NewSwapChain(desc *rhi.SwapChainDescriptor) (rhi.NativeSwapChain, error) {
	surface, ok := desc.Window.(hal.Surface)
	if !ok {
		return nil, fmt.Errorf("%w: got %s", ErrNoSurface, typeName(desc.Window))
	}
	format := desc.Format
	if format == gputypes.TextureFormatUndefined {
		format = d.opts.ColorFormat
	}
	if format == gputypes.TextureFormatUndefined {
		format = gputypes.TextureFormatBGRA8Unorm
	}
	if rhi.IsDepthFormat(format) || rhi.IsCompressed(format) {
		return nil, fmt.Errorf("%w: swap chain format %v", rhi.ErrUnsupported, format)
	}
	s := &swapChain{
		surface: surface,
		config: hal.SurfaceConfiguration{
			Width:       desc.Width,
			Height:      desc.Height,
			Format:      format,
			Usage:       gputypes.TextureUsageRenderAttachment,
			PresentMode: presentMode(desc.VSync),
			AlphaMode:   gputypes.CompositeAlphaModeOpaque,
		},
	}
	s.fmts.colors[0], s.fmts.count = format, 1
	if err := surface.Configure(d.dev, &s.config); err != nil {
		return nil, fmt.Errorf("native: configure surface %dx%d: %w", desc.Width, desc.Height, err)
	}
	s.object = d.newObject("swap chain")
	return s, nil
}

// views acquires the frame's surface texture on first use.
func (s *swapChain) views() ([]hal.TextureView, hal.TextureView, error) {
	if s.destroyed {
		return nil, nil, errDestroyed
	}
	if s.view == nil {
		at, err := s.surface.AcquireTexture(nil)
		if err != nil {
			return nil, nil, fmt.Errorf("native: acquire surface texture: %w", err)
		}
		if at.Suboptimal {
			s.d.logger().Debug("native: surface texture is suboptimal", "name", s.label)
		}
		v, err := s.d.dev.CreateTextureView(at.Texture, &hal.TextureViewDescriptor{
			Label:           s.d.label("surface view", s.label),
			Format:          s.config.Format,
			Dimension:       gputypes.TextureViewDimension2D,
			Aspect:          gputypes.TextureAspectAll,
			MipLevelCount:   1,
			ArrayLayerCount: 1,
		})
		if err != nil {
			s.surface.DiscardTexture(at.Texture)
			return nil, nil, fmt.Errorf("native: create surface view: %w", err)
		}
		s.acquired, s.view = at.Texture, v
	}
	return []hal.TextureView{s.view}, nil, nil
}

func (s *swapChain) formats() *targetFormats { return &s.fmts }

func (s *swapChain) size() (uint32, uint32) { return s.config.Width, s.config.Height }

func (s *swapChain) textures() []*texture { return nil }

// Present submits recorded work and presents the acquired texture. A
// frame nothing rendered to presents nothing. A change of vsync
// reconfigures the surface for the next frame.
func (s *swapChain) Present(vsync bool) error {
	if s.destroyed {
		return errDestroyed
	}
	d := s.d
	d.Flush()
	var err error
	if s.acquired != nil {
		if err = d.queue.Present(s.surface, s.acquired, nil); err != nil {
			err = fmt.Errorf("native: present: %w", err)
		}
		s.releaseFrame(false)
	}
	if mode := presentMode(vsync); mode != s.config.PresentMode {
		s.config.PresentMode = mode
		if cerr := s.reconfigure(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// releaseFrame drops the acquired texture, discarding it when it was not
// presented.
func (s *swapChain) releaseFrame(discard bool) {
	if s.acquired == nil {
		return
	}
	if discard {
		s.surface.DiscardTexture(s.acquired)
	}
	d, view := s.d, s.view
	d.retire(func() { d.dev.DestroyTextureView(view) })
	s.acquired, s.view = nil, nil
}

func (s *swapChain) reconfigure() error {
	s.d.Finish()
	s.releaseFrame(true)
	s.surface.Unconfigure(s.d.dev)
	if err := s.surface.Configure(s.d.dev, &s.config); err != nil {
		return fmt.Errorf("native: configure surface %dx%d: %w", s.config.Width, s.config.Height, err)
	}
	return nil
}

// Resize reconfigures the surface. An acquired frame is discarded.
func (s *swapChain) Resize(width, height uint32) error {
	if s.destroyed {
		return errDestroyed
	}
	if s.d.bound.target == renderTarget(s) {
		s.d.endPass()
	}
	s.config.Width, s.config.Height = width, height
	return s.reconfigure()
}

func (s *swapChain) Destroy() {
	d := s.d
	if !s.destroyed && d.bound.target == renderTarget(s) {
		d.SetRenderTarget(nil)
	}
	if !s.release() {
		return
	}
	d.Finish()
	s.releaseFrame(true)
	s.surface.Unconfigure(d.dev)
}
