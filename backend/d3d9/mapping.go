// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package d3d9

import (
	"math"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/rhi"
)

// renderStateValue is one SetRenderState call.
type renderStateValue struct {
	state RenderState
	value uint32
}

// samplerStateValue is one SetSamplerState call.
type samplerStateValue struct {
	typ   SamplerStateType
	value uint32
}

// depthBiasScale converts integer depth bias units to the floating point
// offset Direct3D 9 adds to depth, assuming a 24-bit depth buffer.
const depthBiasScale = 1.0 / (1<<24 - 1)

func boolValue(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

func floatValue(f float32) uint32 { return math.Float32bits(f) }

// samplerStates lists the sampler states of a sampler. Comparison
// sampling has no Direct3D 9 state and is left to the caller.
func samplerStates(s *rhi.SamplerDescriptor, maxAnisotropy uint32) []samplerStateValue {
	magFilter, minFilter, mipFilter := filterMode(s.MagFilter), filterMode(s.MinFilter), uint32(TexFilterPoint)
	if s.MipmapFilter == gputypes.MipmapFilterModeLinear {
		mipFilter = TexFilterLinear
	}
	aniso := min(max(s.MaxAnisotropy, 1), max(maxAnisotropy, 1))
	if aniso > 1 {
		minFilter = TexFilterAnisotropic
		magFilter = TexFilterLinear
	}
	// The most detailed level the sampler may use. MinLOD below zero
	// leaves every level.
	maxMip := uint32(0)
	if s.MinLOD > 0 {
		maxMip = uint32(s.MinLOD)
	}
	return []samplerStateValue{
		{SampAddressU, addressMode(s.AddressModeU)},
		{SampAddressV, addressMode(s.AddressModeV)},
		{SampAddressW, addressMode(s.AddressModeW)},
		{SampBorderColor, argb(s.BorderColor)},
		{SampMagFilter, magFilter},
		{SampMinFilter, minFilter},
		{SampMipFilter, mipFilter},
		{SampMipMapLODBias, floatValue(s.MipLODBias)},
		{SampMaxMipLevel, maxMip},
		{SampMaxAnisotropy, aniso},
	}
}

func filterMode(f gputypes.FilterMode) uint32 {
	if f == gputypes.FilterModeLinear {
		return TexFilterLinear
	}
	return TexFilterPoint
}

func addressMode(m gputypes.AddressMode) uint32 {
	switch m {
	case gputypes.AddressModeRepeat:
		return AddressWrap
	case gputypes.AddressModeMirrorRepeat:
		return AddressMirror
	}
	return AddressClamp
}

func compareFunc(f gputypes.CompareFunction) uint32 {
	switch f {
	case gputypes.CompareFunctionNever:
		return CmpNever
	case gputypes.CompareFunctionLess:
		return CmpLess
	case gputypes.CompareFunctionEqual:
		return CmpEqual
	case gputypes.CompareFunctionLessEqual:
		return CmpLessEqual
	case gputypes.CompareFunctionGreater:
		return CmpGreater
	case gputypes.CompareFunctionNotEqual:
		return CmpNotEqual
	case gputypes.CompareFunctionGreaterEqual:
		return CmpGreaterEqual
	}
	return CmpAlways
}

// cullMode returns the winding Direct3D 9 culls. It has no front face
// state: culling back faces of counter-clockwise geometry culls clockwise
// triangles.
func cullMode(cull gputypes.CullMode, front gputypes.FrontFace) uint32 {
	cw := front == gputypes.FrontFaceCW
	switch cull {
	case gputypes.CullModeBack:
		if cw {
			return CullCCW
		}
		return CullCW
	case gputypes.CullModeFront:
		if cw {
			return CullCW
		}
		return CullCCW
	}
	return CullNone
}

// rasterizerStates lists the render states of a rasterizer state.
// Depth bias clamping and depth clip control do not exist in Direct3D 9.
func rasterizerStates(r *rhi.RasterizerDescriptor) []renderStateValue {
	fill := uint32(FillSolid)
	if r.FillMode == rhi.FillModeWireframe {
		fill = FillWireframe
	}
	return []renderStateValue{
		{RSFillMode, fill},
		{RSCullMode, cullMode(r.CullMode, r.FrontFace)},
		{RSDepthBias, floatValue(float32(r.DepthBias) * depthBiasScale)},
		{RSSlopeScaleDepthBias, floatValue(r.SlopeScaledDepthBias)},
		{RSScissorTestEnable, boolValue(r.ScissorEnable)},
		{RSMultisampleAntialias, boolValue(r.MultisampleEnable)},
		{RSAntialiasedLineEnable, boolValue(r.AntialiasedLineEnable)},
	}
}

func stencilOp(op gputypes.StencilOperation) uint32 {
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

// depthStencilStates lists the render states of a depth stencil state.
// The clockwise stencil states apply to front faces and the CCW ones to
// back faces, so two-sided stencil assumes clockwise front faces like
// Direct3D 9 itself.
func depthStencilStates(d *rhi.DepthStencilDescriptor) []renderStateValue {
	return []renderStateValue{
		{RSZEnable, boolValue(d.DepthEnable)},
		{RSZWriteEnable, boolValue(d.DepthWriteEnable)},
		{RSZFunc, compareFunc(d.DepthFunc)},
		{RSStencilEnable, boolValue(d.StencilEnable)},
		{RSStencilMask, uint32(d.StencilReadMask)},
		{RSStencilWriteMask, uint32(d.StencilWriteMask)},
		{RSStencilFail, stencilOp(d.Front.FailOp)},
		{RSStencilZFail, stencilOp(d.Front.DepthFailOp)},
		{RSStencilPass, stencilOp(d.Front.PassOp)},
		{RSStencilFunc, compareFunc(d.Front.Func)},
		{RSTwoSidedStencilMode, boolValue(d.StencilEnable && d.Front != d.Back)},
		{RSCCWStencilFail, stencilOp(d.Back.FailOp)},
		{RSCCWStencilZFail, stencilOp(d.Back.DepthFailOp)},
		{RSCCWStencilPass, stencilOp(d.Back.PassOp)},
		{RSCCWStencilFunc, compareFunc(d.Back.Func)},
	}
}

// blendFactor maps f, substituting def for an undefined factor. Alpha
// factors read color factors as their alpha variants.
func blendFactor(f gputypes.BlendFactor, def uint32, alpha bool) uint32 {
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

func blendOp(op gputypes.BlendOperation) uint32 {
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

// colorWriteStates are the write mask states of render targets 0 to 3.
var colorWriteStates = [...]RenderState{RSColorWriteEnable, RSColorWriteEnable1, RSColorWriteEnable2, RSColorWriteEnable3}

// colorWriteMask converts a write mask to D3DCOLORWRITEENABLE bits, which
// share the red, green, blue, alpha bit order.
func colorWriteMask(m gputypes.ColorWriteMask) uint32 {
	return uint32(m & gputypes.ColorWriteMaskAll)
}

// blendStates lists the render states of a blend state. Direct3D 9 blends
// every target alike with the first target's equation; only the write
// masks are per target. Alpha to coverage has no portable state.
func blendStates(b *rhi.BlendDescriptor) []renderStateValue {
	t := b.Target(0)
	states := []renderStateValue{
		{RSAlphaBlendEnable, boolValue(t.BlendEnable)},
		{RSSrcBlend, blendFactor(t.Color.SrcFactor, BlendOne, false)},
		{RSDestBlend, blendFactor(t.Color.DstFactor, BlendZero, false)},
		{RSBlendOp, blendOp(t.Color.Operation)},
		{RSSeparateAlphaBlendEnable, 1},
		{RSSrcBlendAlpha, blendFactor(t.Alpha.SrcFactor, BlendOne, true)},
		{RSDestBlendAlpha, blendFactor(t.Alpha.DstFactor, BlendZero, true)},
		{RSBlendOpAlpha, blendOp(t.Alpha.Operation)},
	}
	for i, rs := range colorWriteStates {
		mask := t.WriteMask
		if b.IndependentBlend {
			mask = b.Target(i).WriteMask
		}
		states = append(states, renderStateValue{rs, colorWriteMask(mask)})
	}
	return states
}

// independentBlendDiffers reports whether targets past the first ask for
// a blend equation Direct3D 9 cannot give them.
func independentBlendDiffers(b *rhi.BlendDescriptor) bool {
	if !b.IndependentBlend {
		return false
	}
	first := b.Target(0)
	for i := 1; i < len(colorWriteStates); i++ {
		t := b.Target(i)
		if t.BlendEnable != first.BlendEnable || t.Color != first.Color || t.Alpha != first.Alpha {
			return true
		}
	}
	return false
}

func primitiveType(t gputypes.PrimitiveTopology) PrimitiveType {
	switch t {
	case gputypes.PrimitiveTopologyPointList:
		return PrimitivePointList
	case gputypes.PrimitiveTopologyLineList:
		return PrimitiveLineList
	case gputypes.PrimitiveTopologyLineStrip:
		return PrimitiveLineStrip
	case gputypes.PrimitiveTopologyTriangleStrip:
		return PrimitiveTriangleStrip
	}
	return PrimitiveTriangleList
}

// primitiveCount converts a vertex or index count to the primitive count
// the draw calls take.
func primitiveCount(t PrimitiveType, n uint32) uint32 {
	switch t {
	case PrimitivePointList:
		return n
	case PrimitiveLineList:
		return n / 2
	case PrimitiveLineStrip:
		if n < 2 {
			return 0
		}
		return n - 1
	case PrimitiveTriangleStrip:
		if n < 3 {
			return 0
		}
		return n - 2
	}
	return n / 3
}

func clampByte(f float64) uint32 {
	return uint32(math.Round(min(max(f, 0), 1) * 255))
}

// clearColor packs a color as a D3DCOLOR.
func clearColor(c gputypes.Color) uint32 {
	return clampByte(c.A)<<24 | clampByte(c.R)<<16 | clampByte(c.G)<<8 | clampByte(c.B)
}

// argb packs an RGBA float color as a D3DCOLOR.
func argb(c [4]float32) uint32 {
	return clearColor(gputypes.Color{R: float64(c[0]), G: float64(c[1]), B: float64(c[2]), A: float64(c[3])})
}
