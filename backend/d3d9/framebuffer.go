// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package d3d9

import (
	"fmt"

	"github.com/gogpu/rhi"
)

// framebuffer holds the surfaces of its attachments; empty color slots
// hold nil. It owns the surfaces, not the textures.
type framebuffer struct {
	object
	colors   []Surface
	depth    Surface
	textures []*texture
}

// attachment checks a framebuffer attachment and returns its surface. A
// cube texture attaches the face given as the layer.
func attachment(a *rhi.NativeAttachment, usage Usage) (*texture, Surface, error) {
	t, ok := a.Texture.(*texture)
	if !ok {
		return nil, nil, fmt.Errorf("%w: attachment is %s", rhi.ErrUnsupportedAttachment, typeName(a.Texture))
	}
	switch t.desc.Kind {
	case rhi.ResourceTypeTexture2D, rhi.ResourceTypeTextureCube:
	default:
		return nil, nil, fmt.Errorf("%w: %v", rhi.ErrUnsupportedAttachment, t.desc.Kind)
	}
	if t.usage != usage {
		return nil, nil, fmt.Errorf("%w: %v texture was not created as a render target", rhi.ErrUnsupportedAttachment, t.desc.Format)
	}
	if a.MipLevel >= max(t.desc.MipLevelCount, 1) || a.Layer >= t.desc.Layers() {
		return nil, nil, fmt.Errorf("%w: mip %d layer %d of %dx%d", rhi.ErrUnsupportedAttachment, a.MipLevel, a.Layer, t.desc.MipLevelCount, t.desc.Layers())
	}
	s, err := t.res.Surface(t.face(a.Layer), a.MipLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("d3d9: attachment surface: %w", err)
	}
	return t, s, nil
}

func (d *Driver) NewFramebuffer(colors []rhi.NativeAttachment, depthStencil *rhi.NativeAttachment) (rhi.NativeObject, error) {
	if len(colors) > int(d.caps.MaxColorAttachments) {
		return nil, fmt.Errorf("%w: %d color attachments, limit %d", rhi.ErrUnsupported, len(colors), d.caps.MaxColorAttachments)
	}
	fb := &framebuffer{}
	fail := func(err error) (rhi.NativeObject, error) {
		fb.releaseSurfaces()
		return nil, err
	}
	for i := range colors {
		if colors[i].Texture == nil {
			fb.colors = append(fb.colors, nil)
			continue
		}
		t, s, err := attachment(&colors[i], UsageRenderTarget)
		if err != nil {
			return fail(fmt.Errorf("color attachment %d: %w", i, err))
		}
		fb.colors = append(fb.colors, s)
		fb.textures = append(fb.textures, t)
	}
	if depthStencil != nil {
		t, s, err := attachment(depthStencil, UsageDepthStencil)
		if err != nil {
			return fail(fmt.Errorf("depth stencil attachment: %w", err))
		}
		fb.depth = s
		fb.textures = append(fb.textures, t)
	}
	fb.object = d.newObject("framebuffer")
	return fb, nil
}

func (fb *framebuffer) releaseSurfaces() {
	for _, s := range fb.colors {
		if s != nil {
			s.Release()
		}
	}
	if fb.depth != nil {
		fb.depth.Release()
	}
	fb.colors, fb.depth, fb.textures = nil, nil, nil
}

func (fb *framebuffer) Destroy() {
	if !fb.release() {
		return
	}
	if fb.d.bound.target == rhi.NativeObject(fb) {
		fb.d.SetRenderTarget(nil)
	}
	fb.releaseSurfaces()
}

func (fb *framebuffer) SetDebugName(name string) {
	fb.label = name
	for i, s := range fb.colors {
		if s != nil {
			fb.d.name(s, fmt.Sprintf("%s color %d", name, i))
		}
	}
	if fb.depth != nil {
		fb.d.name(fb.depth, name+" depth")
	}
}
