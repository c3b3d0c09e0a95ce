// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rhi

import (
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
)

// MaxRenderTargets is the number of color targets a blend state describes.
const MaxRenderTargets = 8

// FillMode selects how polygons are rasterized.
type FillMode uint8

// Fill modes.
const (
	FillModeSolid FillMode = iota
	FillModeWireframe
)

// SamplerDescriptor describes texture sampling.
//
// MinLOD and MaxLOD clamp the sampled mip level. Direct3D 9 has a single
// most-detailed-level field and feeds it from MinLOD; MaxLOD is ignored there.
type SamplerDescriptor struct {
	MagFilter     gputypes.FilterMode
	MinFilter     gputypes.FilterMode
	MipmapFilter  gputypes.MipmapFilterMode
	AddressModeU  gputypes.AddressMode
	AddressModeV  gputypes.AddressMode
	AddressModeW  gputypes.AddressMode
	MipLODBias    float32
	MaxAnisotropy uint32
	Compare       gputypes.CompareFunction
	BorderColor   [4]float32
	MinLOD        float32
	MaxLOD        float32
}

// DefaultSamplerDescriptor returns trilinear filtering with clamped
// addressing over the full mip range.
func DefaultSamplerDescriptor() SamplerDescriptor {
	return SamplerDescriptor{
		MagFilter:     gputypes.FilterModeLinear,
		MinFilter:     gputypes.FilterModeLinear,
		MipmapFilter:  gputypes.MipmapFilterModeLinear,
		AddressModeU:  gputypes.AddressModeClampToEdge,
		AddressModeV:  gputypes.AddressModeClampToEdge,
		AddressModeW:  gputypes.AddressModeClampToEdge,
		MaxAnisotropy: 1,
		MinLOD:        -math.MaxFloat32,
		MaxLOD:        math.MaxFloat32,
	}
}

// RasterizerDescriptor describes primitive rasterization.
type RasterizerDescriptor struct {
	FillMode              FillMode
	CullMode              gputypes.CullMode
	FrontFace             gputypes.FrontFace
	DepthBias             int32
	DepthBiasClamp        float32
	SlopeScaledDepthBias  float32
	DepthClipEnable       bool
	ScissorEnable         bool
	MultisampleEnable     bool
	AntialiasedLineEnable bool
}

// DefaultRasterizerDescriptor returns solid fill, back-face culling and
// counter-clockwise front faces with depth clipping.
func DefaultRasterizerDescriptor() RasterizerDescriptor {
	return RasterizerDescriptor{
		FillMode:        FillModeSolid,
		CullMode:        gputypes.CullModeBack,
		FrontFace:       gputypes.FrontFaceCCW,
		DepthClipEnable: true,
	}
}

// StencilFace describes the stencil test of one face.
type StencilFace struct {
	FailOp      gputypes.StencilOperation
	DepthFailOp gputypes.StencilOperation
	PassOp      gputypes.StencilOperation
	Func        gputypes.CompareFunction
}

// DepthStencilDescriptor describes the depth and stencil tests.
type DepthStencilDescriptor struct {
	DepthEnable      bool
	DepthWriteEnable bool
	DepthFunc        gputypes.CompareFunction
	StencilEnable    bool
	StencilReadMask  uint8
	StencilWriteMask uint8
	Front            StencilFace
	Back             StencilFace
}

// DefaultDepthStencilDescriptor returns a less-than depth test with depth
// writes and no stencil test.
func DefaultDepthStencilDescriptor() DepthStencilDescriptor {
	face := StencilFace{
		FailOp:      gputypes.StencilOperationKeep,
		DepthFailOp: gputypes.StencilOperationKeep,
		PassOp:      gputypes.StencilOperationKeep,
		Func:        gputypes.CompareFunctionAlways,
	}
	return DepthStencilDescriptor{
		DepthEnable:      true,
		DepthWriteEnable: true,
		DepthFunc:        gputypes.CompareFunctionLess,
		StencilReadMask:  0xFF,
		StencilWriteMask: 0xFF,
		Front:            face,
		Back:             face,
	}
}

// RenderTargetBlend describes blending into one color target.
type RenderTargetBlend struct {
	BlendEnable bool
	Color       gputypes.BlendComponent
	Alpha       gputypes.BlendComponent
	WriteMask   gputypes.ColorWriteMask
}

// BlendDescriptor describes output blending. Unless IndependentBlend is set
// only RenderTargets[0] is used, for every target.
type BlendDescriptor struct {
	AlphaToCoverage  bool
	IndependentBlend bool
	RenderTargets    [MaxRenderTargets]RenderTargetBlend
}

// Target returns the blend description in effect for color target i.
func (d *BlendDescriptor) Target(i int) RenderTargetBlend {
	if !d.IndependentBlend {
		return d.RenderTargets[0]
	}
	return d.RenderTargets[i]
}

// DefaultBlendDescriptor returns blending disabled with every channel written.
func DefaultBlendDescriptor() BlendDescriptor {
	var d BlendDescriptor
	replace := gputypes.BlendComponent{
		SrcFactor: gputypes.BlendFactorOne,
		DstFactor: gputypes.BlendFactorZero,
		Operation: gputypes.BlendOperationAdd,
	}
	for i := range d.RenderTargets {
		d.RenderTargets[i] = RenderTargetBlend{Color: replace, Alpha: replace, WriteMask: gputypes.ColorWriteMaskAll}
	}
	return d
}

// AlphaBlendDescriptor returns straight-alpha "source over" blending.
func AlphaBlendDescriptor() BlendDescriptor {
	d := DefaultBlendDescriptor()
	d.RenderTargets[0].BlendEnable = true
	d.RenderTargets[0].Color = gputypes.BlendComponent{
		SrcFactor: gputypes.BlendFactorSrcAlpha,
		DstFactor: gputypes.BlendFactorOneMinusSrcAlpha,
		Operation: gputypes.BlendOperationAdd,
	}
	d.RenderTargets[0].Alpha = gputypes.BlendComponent{
		SrcFactor: gputypes.BlendFactorOne,
		DstFactor: gputypes.BlendFactorOneMinusSrcAlpha,
		Operation: gputypes.BlendOperationAdd,
	}
	return d
}

// SamplerState is an immutable sampler description bound to texture units.
type SamplerState struct {
	resource
	desc   SamplerDescriptor
	handle NativeObject
}

// Descriptor returns the sampler description.
func (s *SamplerState) Descriptor() SamplerDescriptor { return s.desc }

// Native returns the driver handle, nil where samplers are emulated.
func (s *SamplerState) Native() NativeObject { return s.handle }

// RasterizerState is an immutable rasterizer description.
type RasterizerState struct {
	resource
	desc   RasterizerDescriptor
	handle NativeObject
}

func (s *RasterizerState) Descriptor() RasterizerDescriptor { return s.desc }
func (s *RasterizerState) Native() NativeObject             { return s.handle }

// DepthStencilState is an immutable depth-stencil description.
type DepthStencilState struct {
	resource
	desc   DepthStencilDescriptor
	handle NativeObject
}

func (s *DepthStencilState) Descriptor() DepthStencilDescriptor { return s.desc }
func (s *DepthStencilState) Native() NativeObject               { return s.handle }

// BlendState is an immutable blend description.
type BlendState struct {
	resource
	desc   BlendDescriptor
	handle NativeObject
}

func (s *BlendState) Descriptor() BlendDescriptor { return s.desc }
func (s *BlendState) Native() NativeObject        { return s.handle }

// CreateSamplerState creates a sampler state.
func (r *Renderer) CreateSamplerState(desc SamplerDescriptor) (*SamplerState, error) {
	if err := r.checkReady(); err != nil {
		return nil, err
	}
	if desc.MaxAnisotropy == 0 {
		desc.MaxAnisotropy = 1
	}
	if desc.MinLOD > desc.MaxLOD {
		return nil, r.creationFailed(ResourceTypeSamplerState,
			fmt.Errorf("%w: MinLOD %v above MaxLOD %v", ErrInvalidDescriptor, desc.MinLOD, desc.MaxLOD))
	}
	native, err := r.driver.NewSamplerState(&desc)
	if err != nil {
		return nil, r.creationFailed(ResourceTypeSamplerState, err)
	}
	s := &SamplerState{desc: desc, handle: native}
	s.init(r, ResourceTypeSamplerState, native, nil)
	return s, nil
}

// CreateRasterizerState creates a rasterizer state.
func (r *Renderer) CreateRasterizerState(desc RasterizerDescriptor) (*RasterizerState, error) {
	if err := r.checkReady(); err != nil {
		return nil, err
	}
	native, err := r.driver.NewRasterizerState(&desc)
	if err != nil {
		return nil, r.creationFailed(ResourceTypeRasterizerState, err)
	}
	s := &RasterizerState{desc: desc, handle: native}
	s.init(r, ResourceTypeRasterizerState, native, nil)
	return s, nil
}

// CreateDepthStencilState creates a depth-stencil state.
func (r *Renderer) CreateDepthStencilState(desc DepthStencilDescriptor) (*DepthStencilState, error) {
	if err := r.checkReady(); err != nil {
		return nil, err
	}
	native, err := r.driver.NewDepthStencilState(&desc)
	if err != nil {
		return nil, r.creationFailed(ResourceTypeDepthStencilState, err)
	}
	s := &DepthStencilState{desc: desc, handle: native}
	s.init(r, ResourceTypeDepthStencilState, native, nil)
	return s, nil
}

// CreateBlendState creates a blend state.
func (r *Renderer) CreateBlendState(desc BlendDescriptor) (*BlendState, error) {
	if err := r.checkReady(); err != nil {
		return nil, err
	}
	native, err := r.driver.NewBlendState(&desc)
	if err != nil {
		return nil, r.creationFailed(ResourceTypeBlendState, err)
	}
	s := &BlendState{desc: desc, handle: native}
	s.init(r, ResourceTypeBlendState, native, nil)
	return s, nil
}
