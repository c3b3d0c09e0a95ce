// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package d3d11

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/rhi"
)

func samplerDesc(s *rhi.SamplerDescriptor) SamplerDesc {
	return SamplerDesc{
		Filter:         filter(s),
		AddressU:       addressMode(s.AddressModeU),
		AddressV:       addressMode(s.AddressModeV),
		AddressW:       addressMode(s.AddressModeW),
		MipLODBias:     s.MipLODBias,
		MaxAnisotropy:  min(max(s.MaxAnisotropy, 1), 16),
		ComparisonFunc: comparisonFunc(s.Compare),
		BorderColor:    s.BorderColor,
		MinLOD:         s.MinLOD,
		MaxLOD:         s.MaxLOD,
	}
}

// filter encodes the D3D11_FILTER of a sampler. An undefined mipmap filter
// samples with point mip selection.
func filter(s *rhi.SamplerDescriptor) Filter {
	var f Filter
	if s.MaxAnisotropy > 1 {
		f = FilterAnisotropic
	} else {
		if s.MinFilter == gputypes.FilterModeLinear {
			f |= FilterMinLinear
		}
		if s.MagFilter == gputypes.FilterModeLinear {
			f |= FilterMagLinear
		}
		if s.MipmapFilter == gputypes.MipmapFilterModeLinear {
			f |= FilterMipLinear
		}
	}
	if s.Compare != gputypes.CompareFunctionUndefined {
		f |= FilterComparison
	}
	return f
}

func addressMode(m gputypes.AddressMode) TextureAddressMode {
	switch m {
	case gputypes.AddressModeRepeat:
		return AddressWrap
	case gputypes.AddressModeMirrorRepeat:
		return AddressMirror
	}
	return AddressClamp
}

func comparisonFunc(f gputypes.CompareFunction) ComparisonFunc {
	switch f {
	case gputypes.CompareFunctionNever:
		return ComparisonNever
	case gputypes.CompareFunctionLess:
		return ComparisonLess
	case gputypes.CompareFunctionEqual:
		return ComparisonEqual
	case gputypes.CompareFunctionLessEqual:
		return ComparisonLessEqual
	case gputypes.CompareFunctionGreater:
		return ComparisonGreater
	case gputypes.CompareFunctionNotEqual:
		return ComparisonNotEqual
	case gputypes.CompareFunctionGreaterEqual:
		return ComparisonGreaterEqual
	}
	return ComparisonAlways
}

func rasterizerDesc(r *rhi.RasterizerDescriptor) RasterizerDesc {
	fill := FillSolid
	if r.FillMode == rhi.FillModeWireframe {
		fill = FillWireframe
	}
	cull := CullNone
	switch r.CullMode {
	case gputypes.CullModeFront:
		cull = CullFront
	case gputypes.CullModeBack:
		cull = CullBack
	}
	return RasterizerDesc{
		FillMode:              fill,
		CullMode:              cull,
		FrontCounterClockwise: r.FrontFace != gputypes.FrontFaceCW,
		DepthBias:             r.DepthBias,
		DepthBiasClamp:        r.DepthBiasClamp,
		SlopeScaledDepthBias:  r.SlopeScaledDepthBias,
		DepthClipEnable:       r.DepthClipEnable,
		ScissorEnable:         r.ScissorEnable,
		MultisampleEnable:     r.MultisampleEnable,
		AntialiasedLineEnable: r.AntialiasedLineEnable,
	}
}

func stencilOp(op gputypes.StencilOperation) StencilOp {
	switch op {
	case gputypes.StencilOperationZero:
		return StencilOpZero
	case gputypes.StencilOperationReplace:
		return StencilOpReplace
	case gputypes.StencilOperationInvert:
		return StencilOpInvert
	case gputypes.StencilOperationIncrementClamp:
		return StencilOpIncrSat
	case gputypes.StencilOperationDecrementClamp:
		return StencilOpDecrSat
	case gputypes.StencilOperationIncrementWrap:
		return StencilOpIncr
	case gputypes.StencilOperationDecrementWrap:
		return StencilOpDecr
	}
	return StencilOpKeep
}

func stencilFace(f rhi.StencilFace) DepthStencilOpDesc {
	return DepthStencilOpDesc{
		StencilFailOp:      stencilOp(f.FailOp),
		StencilDepthFailOp: stencilOp(f.DepthFailOp),
		StencilPassOp:      stencilOp(f.PassOp),
		StencilFunc:        comparisonFunc(f.Func),
	}
}

func depthStencilDesc(d *rhi.DepthStencilDescriptor) DepthStencilDesc {
	mask := DepthWriteMaskZero
	if d.DepthWriteEnable {
		mask = DepthWriteMaskAll
	}
	return DepthStencilDesc{
		DepthEnable:      d.DepthEnable,
		DepthWriteMask:   mask,
		DepthFunc:        comparisonFunc(d.DepthFunc),
		StencilEnable:    d.StencilEnable,
		StencilReadMask:  d.StencilReadMask,
		StencilWriteMask: d.StencilWriteMask,
		FrontFace:        stencilFace(d.Front),
		BackFace:         stencilFace(d.Back),
	}
}

// blendFactor maps f, substituting def for an undefined factor. Alpha
// factors read color factors as their alpha variants, which D3D11 requires.
func blendFactor(f gputypes.BlendFactor, def Blend, alpha bool) Blend {
	switch f {
	case gputypes.BlendFactorZero:
		return BlendZero
	case gputypes.BlendFactorOne:
		return BlendOne
	case gputypes.BlendFactorSrc:
		if alpha {
			return BlendSrcAlpha
		}
		return BlendSrcColor
	case gputypes.BlendFactorOneMinusSrc:
		if alpha {
			return BlendInvSrcAlpha
		}
		return BlendInvSrcColor
	case gputypes.BlendFactorSrcAlpha:
		return BlendSrcAlpha
	case gputypes.BlendFactorOneMinusSrcAlpha:
		return BlendInvSrcAlpha
	case gputypes.BlendFactorDst:
		if alpha {
			return BlendDestAlpha
		}
		return BlendDestColor
	case gputypes.BlendFactorOneMinusDst:
		if alpha {
			return BlendInvDestAlpha
		}
		return BlendInvDestColor
	case gputypes.BlendFactorDstAlpha:
		return BlendDestAlpha
	case gputypes.BlendFactorOneMinusDstAlpha:
		return BlendInvDestAlpha
	case gputypes.BlendFactorSrcAlphaSaturated:
		return BlendSrcAlphaSat
	case gputypes.BlendFactorConstant:
		return BlendBlendFactor
	case gputypes.BlendFactorOneMinusConstant:
		return BlendInvBlendFactor
	}
	return def
}

func blendOp(op gputypes.BlendOperation) BlendOp {
	switch op {
	case gputypes.BlendOperationSubtract:
		return BlendOpSubtract
	case gputypes.BlendOperationReverseSubtract:
		return BlendOpRevSubtract
	case gputypes.BlendOperationMin:
		return BlendOpMin
	case gputypes.BlendOperationMax:
		return BlendOpMax
	}
	return BlendOpAdd
}

func renderTargetBlend(t rhi.RenderTargetBlend) RenderTargetBlendDesc {
	return RenderTargetBlendDesc{
		BlendEnable:           t.BlendEnable,
		SrcBlend:              blendFactor(t.Color.SrcFactor, BlendOne, false),
		DestBlend:             blendFactor(t.Color.DstFactor, BlendZero, false),
		BlendOp:               blendOp(t.Color.Operation),
		SrcBlendAlpha:         blendFactor(t.Alpha.SrcFactor, BlendOne, true),
		DestBlendAlpha:        blendFactor(t.Alpha.DstFactor, BlendZero, true),
		BlendOpAlpha:          blendOp(t.Alpha.Operation),
		RenderTargetWriteMask: uint8(t.WriteMask & gputypes.ColorWriteMaskAll),
	}
}

func blendDesc(b *rhi.BlendDescriptor) BlendDesc {
	desc := BlendDesc{
		AlphaToCoverageEnable:  b.AlphaToCoverage,
		IndependentBlendEnable: b.IndependentBlend,
	}
	for i := range desc.RenderTarget {
		desc.RenderTarget[i] = renderTargetBlend(b.Target(i))
	}
	return desc
}

func primitiveTopology(t gputypes.PrimitiveTopology) PrimitiveTopology {
	switch t {
	case gputypes.PrimitiveTopologyPointList:
		return TopologyPointList
	case gputypes.PrimitiveTopologyLineList:
		return TopologyLineList
	case gputypes.PrimitiveTopologyLineStrip:
		return TopologyLineStrip
	case gputypes.PrimitiveTopologyTriangleStrip:
		return TopologyTriangleStrip
	}
	return TopologyTriangleList
}

// mapMode maps a renderer map type for a natively mappable resource.
func mapMode(m rhi.MapType) MapMode {
	switch m {
	case rhi.MapRead:
		return MapRead
	case rhi.MapReadWrite:
		return MapReadWrite
	case rhi.MapWriteDiscard:
		return MapWriteDiscard
	case rhi.MapWriteNoOverwrite:
		return MapWriteNoOverwrite
	}
	return MapWrite
}

func clearColor(c gputypes.Color) [4]float32 {
	return [4]float32{float32(c.R), float32(c.G), float32(c.B), float32(c.A)}
}
