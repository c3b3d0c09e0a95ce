// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package d3d11

import (
	"fmt"

	"github.com/gogpu/rhi"
)

// framebuffer is a set of render target views and an optional depth
// stencil view. Empty color slots hold nil views. It owns the views, not
// the textures.
type framebuffer struct {
	object
	colors   []View
	depth    View
	textures []*texture
}

// attachment checks a framebuffer attachment and returns its texture.
// Array and cube textures attach one layer.
func attachment(a *rhi.NativeAttachment, bind BindFlags) (*texture, error) {
	t, ok := a.Texture.(*texture)
	if !ok {
		return nil, fmt.Errorf("%w: attachment is %s", rhi.ErrUnsupportedAttachment, typeName(a.Texture))
	}
	switch t.desc.Kind {
	case rhi.ResourceTypeTexture2D, rhi.ResourceTypeTexture2DArray, rhi.ResourceTypeTextureCube:
	default:
		return nil, fmt.Errorf("%w: %v", rhi.ErrUnsupportedAttachment, t.desc.Kind)
	}
	if t.bind&bind == 0 {
		return nil, fmt.Errorf("%w: %v texture was not created as a render target", rhi.ErrUnsupportedAttachment, t.desc.Format)
	}
	if a.MipLevel >= t.desc.MipLevelCount || a.Layer >= t.desc.Layers() {
		return nil, fmt.Errorf("%w: mip %d layer %d of %dx%d", rhi.ErrUnsupportedAttachment, a.MipLevel, a.Layer, t.desc.MipLevelCount, t.desc.Layers())
	}
	return t, nil
}

func viewDimension(t *texture) ViewDimension {
	if t.desc.Kind == rhi.ResourceTypeTexture2D {
		return ViewDimensionTexture2D
	}
	return ViewDimensionTexture2DArray
}

func (d *Driver) NewFramebuffer(colors []rhi.NativeAttachment, depthStencil *rhi.NativeAttachment) (rhi.NativeObject, error) {
	if len(colors) > int(d.caps.MaxColorAttachments) {
		return nil, fmt.Errorf("%w: %d color attachments, limit %d", rhi.ErrUnsupported, len(colors), d.caps.MaxColorAttachments)
	}
	fb := &framebuffer{}
	fail := func(err error) (rhi.NativeObject, error) {
		fb.releaseViews()
		return nil, err
	}
	for i := range colors {
		a := &colors[i]
		if a.Texture == nil {
			fb.colors = append(fb.colors, nil)
			continue
		}
		t, err := attachment(a, BindRenderTarget)
		if err != nil {
			return fail(fmt.Errorf("color attachment %d: %w", i, err))
		}
		v, err := d.dev.CreateRenderTargetView(t.res, &RenderTargetViewDesc{
			Format:          t.format.view,
			Dimension:       viewDimension(t),
			MipSlice:        a.MipLevel,
			FirstArraySlice: a.Layer,
			ArraySize:       1,
		})
		if err != nil {
			return fail(fmt.Errorf("d3d11: create render target view: %w", err))
		}
		fb.colors = append(fb.colors, v)
		fb.textures = append(fb.textures, t)
	}
	if depthStencil != nil {
		t, err := attachment(depthStencil, BindDepthStencil)
		if err != nil {
			return fail(fmt.Errorf("depth stencil attachment: %w", err))
		}
		v, err := d.dev.CreateDepthStencilView(t.res, &DepthStencilViewDesc{
			Format:          t.format.view,
			Dimension:       viewDimension(t),
			MipSlice:        depthStencil.MipLevel,
			FirstArraySlice: depthStencil.Layer,
			ArraySize:       1,
		})
		if err != nil {
			return fail(fmt.Errorf("d3d11: create depth stencil view: %w", err))
		}
		fb.depth = v
		fb.textures = append(fb.textures, t)
	}
	fb.object = d.newObject("framebuffer")
	return fb, nil
}

func (fb *framebuffer) releaseViews() {
	for _, v := range fb.colors {
		if v != nil {
			v.Release()
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
	fb.releaseViews()
}

func (fb *framebuffer) SetDebugName(name string) {
	fb.label = name
	for i, v := range fb.colors {
		if v != nil {
			fb.d.name(v, fmt.Sprintf("%s color %d", name, i))
		}
	}
	if fb.depth != nil {
		fb.d.name(fb.depth, name+" depth")
	}
}
