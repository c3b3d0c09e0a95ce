// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rhi

import (
	"errors"
	"fmt"
)

// RenderTarget is a framebuffer or a swap chain.
type RenderTarget interface {
	Resource

	// Size returns the drawable width and height in pixels.
	Size() (width, height uint32)

	nativeTarget() NativeObject
}

// FramebufferAttachment selects one mip level of one layer of a texture.
type FramebufferAttachment struct {
	Texture  *Texture
	MipLevel uint32
	Layer    uint32
}

// Framebuffer is an offscreen render target of color attachments and an
// optional depth-stencil attachment. It holds a reference to every attached
// texture and never renames them.
type Framebuffer struct {
	resource
	colors        []FramebufferAttachment
	depth         *FramebufferAttachment
	width, height uint32
	handle        NativeObject
}

// Size returns the minimum attachment size at the attached mip levels, or
// (1, 1) for a framebuffer without attachments.
func (fb *Framebuffer) Size() (width, height uint32) { return fb.width, fb.height }

// ColorAttachments returns the color attachments.
func (fb *Framebuffer) ColorAttachments() []FramebufferAttachment {
	return append([]FramebufferAttachment(nil), fb.colors...)
}

// DepthStencilAttachment returns the depth-stencil attachment, or nil.
func (fb *Framebuffer) DepthStencilAttachment() *FramebufferAttachment {
	if fb.depth == nil {
		return nil
	}
	d := *fb.depth
	return &d
}

// Native returns the wrapped driver handle.
func (fb *Framebuffer) Native() NativeObject { return fb.handle }

func (fb *Framebuffer) nativeTarget() NativeObject { return fb.handle }

// CreateFramebuffer creates a framebuffer. Attachments must be 2D textures
// created by this renderer; depth may be nil. A color attachment without a
// texture leaves its slot empty, and a depth attachment without one is the
// same as nil depth.
func (r *Renderer) CreateFramebuffer(colors []FramebufferAttachment, depth *FramebufferAttachment) (*Framebuffer, error) {
	if err := r.checkReady(); err != nil {
		return nil, err
	}
	const typ = ResourceTypeFramebuffer
	if limit := r.caps.MaxColorAttachments; limit != 0 && uint32(len(colors)) > limit {
		return nil, r.creationFailed(typ, fmt.Errorf("%w: %d color attachments exceeds %d", ErrUnsupported, len(colors), limit))
	}

	width, height := ^uint32(0), ^uint32(0)
	check := func(a *FramebufferAttachment, what string) error {
		t := a.Texture
		if !r.owns(t, "CreateFramebuffer") {
			return ErrRendererMismatch
		}
		if !t.Is2D() {
			return fmt.Errorf("%w: %s attachment is %v", ErrUnsupportedAttachment, what, t.Type())
		}
		if a.MipLevel >= t.MipLevelCount() {
			return fmt.Errorf("%w: %s attachment mip level %d of %d", ErrInvalidDescriptor, what, a.MipLevel, t.MipLevelCount())
		}
		if depthFormat := IsDepthFormat(t.Format()); depthFormat != (what == "depth-stencil") {
			return fmt.Errorf("%w: %s attachment has format %v", ErrInvalidDescriptor, what, t.Format())
		}
		width = min(width, MipSize(t.Width(), a.MipLevel))
		height = min(height, MipSize(t.Height(), a.MipLevel))
		return nil
	}

	if depth != nil && depth.Texture == nil {
		depth = nil
	}
	attached := 0
	natives := make([]NativeAttachment, len(colors))
	for i := range colors {
		if colors[i].Texture == nil {
			continue
		}
		attached++
		if err := check(&colors[i], "color"); err != nil {
			if errors.Is(err, ErrRendererMismatch) {
				return nil, err
			}
			return nil, r.creationFailed(typ, err)
		}
		natives[i] = nativeAttachment(&colors[i])
	}
	var nativeDepth *NativeAttachment
	if depth != nil {
		if err := check(depth, "depth-stencil"); err != nil {
			if errors.Is(err, ErrRendererMismatch) {
				return nil, err
			}
			return nil, r.creationFailed(typ, err)
		}
		na := nativeAttachment(depth)
		nativeDepth = &na
		attached++
	}
	if attached == 0 {
		width, height = 1, 1
	}

	defer r.debugEvent("CreateFramebuffer")()
	handle, err := r.driver.NewFramebuffer(natives, nativeDepth)
	if err != nil {
		return nil, r.creationFailed(typ, err)
	}

	fb := &Framebuffer{
		colors: append([]FramebufferAttachment(nil), colors...),
		width:  width,
		height: height,
		handle: handle,
	}
	if depth != nil {
		d := *depth
		fb.depth = &d
	}
	for i := range fb.colors {
		if t := fb.colors[i].Texture; t != nil {
			t.AddReference()
		}
	}
	if fb.depth != nil {
		fb.depth.Texture.AddReference()
	}
	fb.init(r, typ, handle, func() {
		for i := range fb.colors {
			if t := fb.colors[i].Texture; t != nil {
				t.Release()
			}
		}
		if fb.depth != nil {
			fb.depth.Texture.Release()
		}
	})
	return fb, nil
}

func nativeAttachment(a *FramebufferAttachment) NativeAttachment {
	return NativeAttachment{
		Texture:  a.Texture.handle,
		Desc:     a.Texture.desc,
		MipLevel: a.MipLevel,
		Layer:    a.Layer,
	}
}
