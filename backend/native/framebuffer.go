// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/rhi"
)

// targetFormats are the attachment formats of a render target. Pipelines
// are keyed on them; colors past count stay undefined.
type targetFormats struct {
	colors [rhi.MaxRenderTargets]gputypes.TextureFormat
	count  int
	depth  gputypes.TextureFormat
}

// renderTarget is a framebuffer or a swap chain.
type renderTarget interface {
	rhi.NativeObject

	// views returns the attachment views, acquiring a surface texture
	// when needed.
	views() (colors []hal.TextureView, depth hal.TextureView, err error)
	formats() *targetFormats
	size() (width, height uint32)

	// textures lists the attached textures.
	textures() []*texture
}

// framebuffer is a set of single-level attachment views. It owns the
// views, not the textures.
type framebuffer struct {
	object
	colors   []hal.TextureView
	depth    hal.TextureView
	attached []*texture
	fmts     targetFormats
	width    uint32
	height   uint32
}

// attachment checks a framebuffer attachment and returns its texture.
// Array and cube textures attach one layer.
func attachment(a *rhi.NativeAttachment) (*texture, error) {
	t, ok := a.Texture.(*texture)
	if !ok {
		return nil, fmt.Errorf("%w: attachment is %s", rhi.ErrUnsupportedAttachment, typeName(a.Texture))
	}
	switch t.desc.Kind {
	case rhi.ResourceTypeTexture2D, rhi.ResourceTypeTexture2DArray, rhi.ResourceTypeTextureCube:
	default:
		return nil, fmt.Errorf("%w: %v", rhi.ErrUnsupportedAttachment, t.desc.Kind)
	}
	if t.usage&gputypes.TextureUsageRenderAttachment == 0 {
		return nil, fmt.Errorf("%w: %v texture was not created as a render target", rhi.ErrUnsupportedAttachment, t.desc.Format)
	}
	if a.MipLevel >= t.desc.MipLevelCount || a.Layer >= t.desc.Layers() {
		return nil, fmt.Errorf("%w: mip %d layer %d of %dx%d", rhi.ErrUnsupportedAttachment, a.MipLevel, a.Layer, t.desc.MipLevelCount, t.desc.Layers())
	}
	return t, nil
}

func (d *Driver) NewFramebuffer(colors []rhi.NativeAttachment, depthStencil *rhi.NativeAttachment) (rhi.NativeObject, error) {
	if len(colors) > int(d.caps.MaxColorAttachments) {
		return nil, fmt.Errorf("%w: %d color attachments, limit %d", rhi.ErrUnsupported, len(colors), d.caps.MaxColorAttachments)
	}
	// The hal has no sparse color attachments: trailing empty slots are
	// dropped and empty slots before an attached one are rejected.
	for len(colors) > 0 && colors[len(colors)-1].Texture == nil {
		colors = colors[:len(colors)-1]
	}
	fb := &framebuffer{}
	fail := func(err error) (rhi.NativeObject, error) {
		fb.releaseViews(d)
		return nil, err
	}
	for i := range colors {
		a := &colors[i]
		if a.Texture == nil {
			return fail(fmt.Errorf("%w: empty color attachment %d before an attached one", rhi.ErrUnsupportedAttachment, i))
		}
		t, err := attachment(a)
		if err == nil && rhi.IsDepthFormat(t.desc.Format) {
			err = fmt.Errorf("%w: depth format %v as color", rhi.ErrUnsupportedAttachment, t.desc.Format)
		}
		if err != nil {
			return fail(fmt.Errorf("color attachment %d: %w", i, err))
		}
		v, err := d.attachmentView(t, a, gputypes.TextureAspectAll)
		if err != nil {
			return fail(err)
		}
		fb.colors = append(fb.colors, v)
		if err := fb.add(t, a.MipLevel); err != nil {
			return fail(err)
		}
		fb.fmts.colors[i] = t.desc.Format
		fb.fmts.count++
	}
	if depthStencil != nil {
		t, err := attachment(depthStencil)
		if err == nil && !rhi.IsDepthFormat(t.desc.Format) {
			err = fmt.Errorf("%w: %v is not a depth format", rhi.ErrUnsupportedAttachment, t.desc.Format)
		}
		if err != nil {
			return fail(fmt.Errorf("depth stencil attachment: %w", err))
		}
		v, err := d.attachmentView(t, depthStencil, gputypes.TextureAspectAll)
		if err != nil {
			return fail(err)
		}
		fb.depth = v
		if err := fb.add(t, depthStencil.MipLevel); err != nil {
			return fail(err)
		}
		fb.fmts.depth = t.desc.Format
	}
	fb.object = d.newObject("framebuffer")
	return fb, nil
}

func (d *Driver) attachmentView(t *texture, a *rhi.NativeAttachment, aspect gputypes.TextureAspect) (hal.TextureView, error) {
	v, err := d.dev.CreateTextureView(t.tex, &hal.TextureViewDescriptor{
		Label:           d.label("attachment view", t.label),
		Format:          t.desc.Format,
		Dimension:       gputypes.TextureViewDimension2D,
		Aspect:          aspect,
		BaseMipLevel:    a.MipLevel,
		MipLevelCount:   1,
		BaseArrayLayer:  a.Layer,
		ArrayLayerCount: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("native: create attachment view: %w", err)
	}
	return v, nil
}

// add records an attached texture. Every attachment must have the size of
// the first.
func (fb *framebuffer) add(t *texture, level uint32) error {
	w, h := rhi.MipSize(t.desc.Width, level), rhi.MipSize(t.desc.Height, level)
	if len(fb.attached) == 0 {
		fb.width, fb.height = w, h
	} else if w != fb.width || h != fb.height {
		return fmt.Errorf("%w: attachment is %dx%d, framebuffer %dx%d", rhi.ErrUnsupportedAttachment, w, h, fb.width, fb.height)
	}
	fb.attached = append(fb.attached, t)
	return nil
}

func (fb *framebuffer) views() ([]hal.TextureView, hal.TextureView, error) {
	return fb.colors, fb.depth, nil
}

func (fb *framebuffer) formats() *targetFormats { return &fb.fmts }

func (fb *framebuffer) size() (uint32, uint32) { return fb.width, fb.height }

func (fb *framebuffer) textures() []*texture { return fb.attached }

func (fb *framebuffer) releaseViews(d *Driver) {
	for _, v := range fb.colors {
		d.dev.DestroyTextureView(v)
	}
	if fb.depth != nil {
		d.dev.DestroyTextureView(fb.depth)
	}
	fb.colors, fb.depth, fb.attached = nil, nil, nil
}

func (fb *framebuffer) Destroy() {
	if !fb.release() {
		return
	}
	d := fb.d
	if d.bound.target == renderTarget(fb) {
		d.SetRenderTarget(nil)
	}
	colors, depth := fb.colors, fb.depth
	fb.colors, fb.depth, fb.attached = nil, nil, nil
	d.retire(func() {
		for _, v := range colors {
			d.dev.DestroyTextureView(v)
		}
		if depth != nil {
			d.dev.DestroyTextureView(depth)
		}
	})
}
