// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package native

import (
	"fmt"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/rhi"
)

// sampler is a handle to a shared hal sampler. Equal descriptors share one
// native sampler; the last handle releases it once the GPU is done.
type sampler struct {
	object
	key    rhi.SamplerDescriptor
	native hal.Sampler
}

func (d *Driver) NewSamplerState(desc *rhi.SamplerDescriptor) (rhi.NativeObject, error) {
	return d.newSampler(desc)
}

func (d *Driver) newSampler(desc *rhi.SamplerDescriptor) (*sampler, error) {
	if desc.MipLODBias != 0 {
		d.warnOnce("lod-bias", "native: sampler LOD bias is not supported, ignoring", "bias", desc.MipLODBias)
	}
	if desc.BorderColor != [4]float32{} {
		d.warnOnce("border-color", "native: sampler border color is not supported, ignoring")
	}
	key := *desc
	native, err := d.samplers.Acquire(key, func() (hal.Sampler, error) {
		sd := samplerDesc(desc, d.label("sampler", ""))
		return d.dev.CreateSampler(&sd)
	})
	if err != nil {
		return nil, fmt.Errorf("native: create sampler: %w", err)
	}
	return &sampler{object: d.newObject("sampler"), key: key, native: native}, nil
}

func (s *sampler) Destroy() {
	if !s.release() {
		return
	}
	d := s.d
	for stage := range d.bound.samplers {
		for unit, bs := range d.bound.samplers[stage] {
			if bs == s {
				d.bound.samplers[stage][unit] = nil
				d.bound.groups[rhi.WGSLTextureGroup].dirty = true
			}
		}
	}
	key := s.key
	d.retire(func() { d.samplers.Release(key) })
}

// descState is an immutable state object. WebGPU folds rasterizer, depth
// stencil and blend state into pipelines, so these only carry their
// description into the pipeline key.
type descState[T any] struct {
	object
	desc T
}

type (
	rasterizerState   = descState[rhi.RasterizerDescriptor]
	depthStencilState = descState[rhi.DepthStencilDescriptor]
	blendState        = descState[rhi.BlendDescriptor]
)

func (s *descState[T]) Destroy() {
	if !s.release() {
		return
	}
	b := &s.d.bound
	switch any(s).(type) {
	case *rasterizerState:
		if b.rasterizer == any(s) {
			b.rasterizer = nil
		}
	case *depthStencilState:
		if b.depthStencil == any(s) {
			b.depthStencil = nil
		}
	case *blendState:
		if b.blend == any(s) {
			b.blend = nil
		}
	}
}

// NewRasterizerState creates a rasterizer state. Wireframe fill has no
// WebGPU equivalent and draws solid.
func (d *Driver) NewRasterizerState(desc *rhi.RasterizerDescriptor) (rhi.NativeObject, error) {
	if desc.FillMode == rhi.FillModeWireframe {
		d.warnOnce("wireframe", "native: wireframe fill is not supported, drawing solid")
	}
	return &rasterizerState{object: d.newObject("rasterizer state"), desc: *desc}, nil
}

func (d *Driver) NewDepthStencilState(desc *rhi.DepthStencilDescriptor) (rhi.NativeObject, error) {
	return &depthStencilState{object: d.newObject("depth stencil state"), desc: *desc}, nil
}

// NewBlendState creates a blend state. Alpha to coverage needs
// multisampled targets, which the driver does not create, and is ignored.
func (d *Driver) NewBlendState(desc *rhi.BlendDescriptor) (rhi.NativeObject, error) {
	if desc.AlphaToCoverage {
		d.warnOnce("alpha-to-coverage", "native: alpha to coverage needs multisampling, ignoring")
	}
	return &blendState{object: d.newObject("blend state"), desc: *desc}, nil
}

// Fallbacks bound for nil states, matching the rhi defaults.
var (
	defaultRasterizer   = rhi.DefaultRasterizerDescriptor()
	defaultDepthStencil = rhi.DefaultDepthStencilDescriptor()
	defaultBlend        = rhi.DefaultBlendDescriptor()
)
