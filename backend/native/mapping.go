// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import (
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/rhi"
)

// stencilOps maps gputypes stencil operations to hal ones. hal has no
// undefined value, so it reads as keep.
var stencilOps = [...]hal.StencilOperation{
	gputypes.StencilOperationUndefined:      hal.StencilOperationKeep,
	gputypes.StencilOperationKeep:           hal.StencilOperationKeep,
	gputypes.StencilOperationZero:           hal.StencilOperationZero,
	gputypes.StencilOperationReplace:        hal.StencilOperationReplace,
	gputypes.StencilOperationInvert:         hal.StencilOperationInvert,
	gputypes.StencilOperationIncrementClamp: hal.StencilOperationIncrementClamp,
	gputypes.StencilOperationDecrementClamp: hal.StencilOperationDecrementClamp,
	gputypes.StencilOperationIncrementWrap:  hal.StencilOperationIncrementWrap,
	gputypes.StencilOperationDecrementWrap:  hal.StencilOperationDecrementWrap,
}

func stencilOp(op gputypes.StencilOperation) hal.StencilOperation {
	if int(op) < len(stencilOps) {
		return stencilOps[op]
	}
	return hal.StencilOperationKeep
}

// compareFunc returns f, or def when f is undefined.
func compareFunc(f, def gputypes.CompareFunction) gputypes.CompareFunction {
	if f == gputypes.CompareFunctionUndefined {
		return def
	}
	return f
}

// samplerDesc converts a sampler description. WebGPU has no LOD bias or
// border color, and anisotropy needs linear filtering in every direction.
func samplerDesc(desc *rhi.SamplerDescriptor, label string) hal.SamplerDescriptor {
	sd := hal.SamplerDescriptor{
		Label:        label,
		AddressModeU: addressMode(desc.AddressModeU),
		AddressModeV: addressMode(desc.AddressModeV),
		AddressModeW: addressMode(desc.AddressModeW),
		MagFilter:    filterMode(desc.MagFilter),
		MinFilter:    filterMode(desc.MinFilter),
		MipmapFilter: gputypes.FilterMode(desc.MipmapFilter),
		LodMinClamp:  desc.MinLOD,
		LodMaxClamp:  desc.MaxLOD,
		Compare:      desc.Compare,
		Anisotropy:   uint16(min(max(desc.MaxAnisotropy, 1), 16)),
	}
	if sd.MipmapFilter == gputypes.FilterModeUndefined {
		sd.MipmapFilter = gputypes.FilterModeNearest
	}
	if sd.LodMaxClamp < sd.LodMinClamp {
		sd.LodMaxClamp = sd.LodMinClamp
	}
	if sd.Anisotropy > 1 && (sd.MagFilter != gputypes.FilterModeLinear ||
		sd.MinFilter != gputypes.FilterModeLinear || sd.MipmapFilter != gputypes.FilterModeLinear) {
		sd.Anisotropy = 1
	}
	return sd
}

func addressMode(m gputypes.AddressMode) gputypes.AddressMode {
	if m == gputypes.AddressModeUndefined {
		return gputypes.AddressModeClampToEdge
	}
	return m
}

func filterMode(m gputypes.FilterMode) gputypes.FilterMode {
	if m == gputypes.FilterModeUndefined {
		return gputypes.FilterModeNearest
	}
	return m
}

// rasterKey is the part of a rasterizer state that reaches a pipeline.
// Floats are kept as bits so NaN keys compare equal.
type rasterKey struct {
	fill      rhi.FillMode
	cull      gputypes.CullMode
	front     gputypes.FrontFace
	depthBias int32
	biasClamp uint32
	slopeBias uint32
	depthClip bool
	scissor   bool
}

func rasterizerKey(d *rhi.RasterizerDescriptor) rasterKey {
	return rasterKey{
		fill:      d.FillMode,
		cull:      d.CullMode,
		front:     d.FrontFace,
		depthBias: d.DepthBias,
		biasClamp: math.Float32bits(d.DepthBiasClamp),
		slopeBias: math.Float32bits(d.SlopeScaledDepthBias),
		depthClip: d.DepthClipEnable,
		scissor:   d.ScissorEnable,
	}
}

// blendKey expands shared blend state to every target, so equal blending
// gives equal keys whether or not it was declared independent.
func blendKey(d *rhi.BlendDescriptor) rhi.BlendDescriptor {
	k := rhi.BlendDescriptor{AlphaToCoverage: d.AlphaToCoverage, IndependentBlend: true}
	for i := range k.RenderTargets {
		k.RenderTargets[i] = d.Target(i)
	}
	return k
}

// halDepthStencil builds the depth stencil state of a pipeline drawing
// into a target with depth format f. A disabled depth test passes always
// and writes nothing; a disabled stencil test keeps every value.
func halDepthStencil(d *rhi.DepthStencilDescriptor, f gputypes.TextureFormat) *hal.DepthStencilState {
	ds := &hal.DepthStencilState{
		Format:       f,
		DepthCompare: gputypes.CompareFunctionAlways,
		StencilFront: hal.StencilFaceState{Compare: gputypes.CompareFunctionAlways},
		StencilBack:  hal.StencilFaceState{Compare: gputypes.CompareFunctionAlways},
	}
	if d.DepthEnable {
		ds.DepthCompare = compareFunc(d.DepthFunc, gputypes.CompareFunctionLess)
		ds.DepthWriteEnabled = d.DepthWriteEnable
	}
	if d.StencilEnable && rhi.HasStencil(f) {
		ds.StencilFront = stencilFace(&d.Front)
		ds.StencilBack = stencilFace(&d.Back)
		ds.StencilReadMask = uint32(d.StencilReadMask)
		ds.StencilWriteMask = uint32(d.StencilWriteMask)
	}
	return ds
}

func stencilFace(f *rhi.StencilFace) hal.StencilFaceState {
	return hal.StencilFaceState{
		Compare:     compareFunc(f.Func, gputypes.CompareFunctionAlways),
		FailOp:      stencilOp(f.FailOp),
		DepthFailOp: stencilOp(f.DepthFailOp),
		PassOp:      stencilOp(f.PassOp),
	}
}

// colorTargets builds the color targets of a pipeline. Disabled blending
// is a nil blend state.
func colorTargets(b *rhi.BlendDescriptor, formats *targetFormats) []gputypes.ColorTargetState {
	targets := make([]gputypes.ColorTargetState, formats.count)
	for i := range targets {
		t := b.Target(i)
		targets[i] = gputypes.ColorTargetState{Format: formats.colors[i], WriteMask: t.WriteMask}
		if t.BlendEnable {
			targets[i].Blend = &gputypes.BlendState{Color: t.Color, Alpha: t.Alpha}
		}
	}
	return targets
}

// isStrip reports whether indexed draws of t need a strip index format.
func isStrip(t gputypes.PrimitiveTopology) bool {
	return t == gputypes.PrimitiveTopologyLineStrip || t == gputypes.PrimitiveTopologyTriangleStrip
}

// textureViewDimension returns the view dimension a texture kind is
// sampled through.
func textureViewDimension(kind rhi.ResourceType) gputypes.TextureViewDimension {
	switch kind {
	case rhi.ResourceTypeTexture2DArray:
		return gputypes.TextureViewDimension2DArray
	case rhi.ResourceTypeTexture3D:
		return gputypes.TextureViewDimension3D
	case rhi.ResourceTypeTextureCube:
		return gputypes.TextureViewDimensionCube
	}
	return gputypes.TextureViewDimension2D
}

// textureDesc converts a texture description. Depth formats and render
// targets are created as render attachments.
func textureDesc(desc *rhi.TextureDescriptor, label string) hal.TextureDescriptor {
	td := hal.TextureDescriptor{
		Label: label,
		Size: hal.Extent3D{
			Width:              desc.Width,
			Height:             desc.Height,
			DepthOrArrayLayers: desc.Layers(),
		},
		MipLevelCount: max(desc.MipLevelCount, 1),
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        desc.Format,
		Usage:         gputypes.TextureUsageCopySrc | gputypes.TextureUsageCopyDst | gputypes.TextureUsageTextureBinding,
	}
	if desc.Kind == rhi.ResourceTypeTexture3D {
		td.Dimension = gputypes.TextureDimension3D
		td.Size.DepthOrArrayLayers = desc.Depth()
	}
	if desc.Flags.Has(rhi.TextureFlagRenderTarget) || rhi.IsDepthFormat(desc.Format) {
		td.Usage |= gputypes.TextureUsageRenderAttachment
	}
	return td
}

// copyExtent returns the copy size of a subresource. Compressed mips
// smaller than a block still copy a whole block.
func copyExtent(f gputypes.TextureFormat, w, h, depth uint32) hal.Extent3D {
	if dim, _ := rhi.BlockInfo(f); dim > 1 {
		w = (w + dim - 1) / dim * dim
		h = (h + dim - 1) / dim * dim
	}
	return hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: depth}
}

// bufferUsage returns the hal usage of a buffer kind. Every buffer is a
// copy destination, since its contents arrive through queue writes.
func bufferUsage(kind rhi.ResourceType) gputypes.BufferUsage {
	u := gputypes.BufferUsageCopyDst | gputypes.BufferUsageCopySrc
	switch kind {
	case rhi.ResourceTypeIndexBuffer:
		return u | gputypes.BufferUsageIndex
	case rhi.ResourceTypeUniformBuffer:
		return u | gputypes.BufferUsageUniform
	}
	return u | gputypes.BufferUsageVertex
}

func alignUp(n, a uint32) uint32 { return (n + a - 1) / a * a }
