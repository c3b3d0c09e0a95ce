// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package d3d11

import (
	"fmt"

	"github.com/gogpu/rhi"
	"github.com/gogpu/rhi/internal/statecache"
)

// stateObject is a handle to a shared immutable state object. Destroy
// drops the handle's reference; the native object goes with the last one.
type stateObject[K comparable] struct {
	object
	cache *statecache.Cache[K, Object]
	key   K
	obj   Object
}

func (s *stateObject[K]) Destroy() {
	if s.release() {
		s.cache.Release(s.key)
	}
}

func (s *stateObject[K]) SetDebugName(name string) {
	s.label = name
	s.d.name(s.obj, name)
}

func newState[K comparable](d *Driver, kind string, cache *statecache.Cache[K, Object], key K, create func() (Object, error)) (rhi.NativeObject, error) {
	obj, err := cache.Acquire(key, create)
	if err != nil {
		return nil, fmt.Errorf("d3d11: create %s: %w", kind, err)
	}
	return &stateObject[K]{object: d.newObject(kind), cache: cache, key: key, obj: obj}, nil
}

func (d *Driver) NewSamplerState(desc *rhi.SamplerDescriptor) (rhi.NativeObject, error) {
	sd := samplerDesc(desc)
	if d.level < FeatureLevel9_3 {
		sd.MaxAnisotropy = min(sd.MaxAnisotropy, 2)
	}
	return newState(d, "sampler state", d.samplers, sd, func() (Object, error) {
		return d.dev.CreateSamplerState(&sd)
	})
}

func (d *Driver) NewRasterizerState(desc *rhi.RasterizerDescriptor) (rhi.NativeObject, error) {
	rd := rasterizerDesc(desc)
	return newState(d, "rasterizer state", d.rasterizers, rd, func() (Object, error) {
		return d.dev.CreateRasterizerState(&rd)
	})
}

func (d *Driver) NewDepthStencilState(desc *rhi.DepthStencilDescriptor) (rhi.NativeObject, error) {
	dd := depthStencilDesc(desc)
	return newState(d, "depth stencil state", d.depthStencils, dd, func() (Object, error) {
		return d.dev.CreateDepthStencilState(&dd)
	})
}

// NewBlendState creates a blend state. Feature level 9 has no independent
// blending, so every target takes the first target's state there.
func (d *Driver) NewBlendState(desc *rhi.BlendDescriptor) (rhi.NativeObject, error) {
	bd := blendDesc(desc)
	if bd.IndependentBlendEnable && d.level < FeatureLevel10_0 {
		d.warnOnce("independent-blend", "d3d11: independent blending needs feature level 10_0", "level", d.level.String())
		bd.IndependentBlendEnable = false
		for i := 1; i < len(bd.RenderTarget); i++ {
			bd.RenderTarget[i] = bd.RenderTarget[0]
		}
	}
	return newState(d, "blend state", d.blends, bd, func() (Object, error) {
		return d.dev.CreateBlendState(&bd)
	})
}

// nativeState returns the native object of a state handle, or nil.
func nativeState(o rhi.NativeObject) Object {
	switch s := o.(type) {
	case *stateObject[SamplerDesc]:
		return s.obj
	case *stateObject[RasterizerDesc]:
		return s.obj
	case *stateObject[DepthStencilDesc]:
		return s.obj
	case *stateObject[BlendDesc]:
		return s.obj
	}
	return nil
}
