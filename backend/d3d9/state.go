// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package d3d9

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/rhi"
)

// renderStateBlock is a rasterizer, depth stencil or blend state: the
// render states it sets when bound.
type renderStateBlock struct {
	object
	states []renderStateValue
}

func (s *renderStateBlock) Destroy() { s.release() }

func (s *renderStateBlock) SetDebugName(name string) { s.label = name }

// samplerBlock is a sampler state.
type samplerBlock struct {
	object
	states []samplerStateValue
}

func (s *samplerBlock) Destroy() { s.release() }

func (s *samplerBlock) SetDebugName(name string) { s.label = name }

// NewSamplerState records the sampler states of desc. Comparison samplers
// sample without comparison; Direct3D 9 only compares through
// vendor-specific depth texture formats.
func (d *Driver) NewSamplerState(desc *rhi.SamplerDescriptor) (rhi.NativeObject, error) {
	if desc.Compare != gputypes.CompareFunctionUndefined {
		d.warnOnce("compare-sampler", "d3d9: comparison samplers are not supported, sampling without comparison")
	}
	return &samplerBlock{
		object: d.newObject("sampler state"),
		states: samplerStates(desc, d.devCaps.MaxAnisotropy),
	}, nil
}

func (d *Driver) NewRasterizerState(desc *rhi.RasterizerDescriptor) (rhi.NativeObject, error) {
	return &renderStateBlock{object: d.newObject("rasterizer state"), states: rasterizerStates(desc)}, nil
}

func (d *Driver) NewDepthStencilState(desc *rhi.DepthStencilDescriptor) (rhi.NativeObject, error) {
	return &renderStateBlock{object: d.newObject("depth stencil state"), states: depthStencilStates(desc)}, nil
}

// NewBlendState records a blend state. Render targets past the first
// take the first target's equation.
func (d *Driver) NewBlendState(desc *rhi.BlendDescriptor) (rhi.NativeObject, error) {
	if independentBlendDiffers(desc) {
		d.warnOnce("independent-blend", "d3d9: independent blending is not supported, targets share the first target's equation")
	}
	if desc.AlphaToCoverage {
		d.warnOnce("alpha-to-coverage", "d3d9: alpha to coverage is not supported")
	}
	return &renderStateBlock{object: d.newObject("blend state"), states: blendStates(desc)}, nil
}

// Defaults applied when a nil state is bound.
var (
	defaultRasterizer   = rasterizerStates(ptr(rhi.DefaultRasterizerDescriptor()))
	defaultDepthStencil = depthStencilStates(ptr(rhi.DefaultDepthStencilDescriptor()))
	defaultBlend        = blendStates(ptr(rhi.DefaultBlendDescriptor()))
	defaultSampler      = samplerStates(ptr(rhi.DefaultSamplerDescriptor()), 1)
)

func ptr[T any](v T) *T { return &v }

// applyStates sets the render states of obj, or defaults for nil.
func (d *Driver) applyStates(obj rhi.NativeObject, defaults []renderStateValue) {
	states := defaults
	if s, ok := obj.(*renderStateBlock); ok && s != nil {
		states = s.states
	}
	for _, v := range states {
		d.setRenderState(v.state, v.value)
	}
}
