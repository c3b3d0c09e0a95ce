// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package d3d11

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/rhi"
)

func TestStateObjectsShared(t *testing.T) {
	d, f := openDriver(t)
	rs := rhi.DefaultRasterizerDescriptor()
	a, err := d.NewRasterizerState(&rs)
	if err != nil {
		t.Fatalf("NewRasterizerState: %v", err)
	}
	b, err := d.NewRasterizerState(&rs)
	if err != nil {
		t.Fatalf("NewRasterizerState: %v", err)
	}
	created := f.created("rasterizer")
	if len(created) != 1 {
		t.Fatalf("%d native rasterizer states for equal descriptors, want 1", len(created))
	}
	if nativeState(a) != nativeState(b) {
		t.Error("handles wrap different native objects")
	}

	rs.CullMode = gputypes.CullModeNone
	c, err := d.NewRasterizerState(&rs)
	if err != nil {
		t.Fatalf("NewRasterizerState: %v", err)
	}
	if len(f.created("rasterizer")) != 2 {
		t.Error("different descriptor reused a native object")
	}

	a.Destroy()
	if created[0].released != 0 {
		t.Error("native state released while a handle remains")
	}
	b.Destroy()
	if created[0].released != 1 {
		t.Error("native state not released with its last handle")
	}
	c.Destroy()
	if d.samplers.Len()+d.rasterizers.Len() != 0 {
		t.Errorf("cache holds %d entries", d.rasterizers.Len())
	}
}

func TestStateKinds(t *testing.T) {
	d, f := openDriver(t)
	s := rhi.DefaultSamplerDescriptor()
	ds := rhi.DefaultDepthStencilDescriptor()
	bs := rhi.AlphaBlendDescriptor()
	create := []func() (rhi.NativeObject, error){
		func() (rhi.NativeObject, error) { return d.NewSamplerState(&s) },
		func() (rhi.NativeObject, error) { return d.NewDepthStencilState(&ds) },
		func() (rhi.NativeObject, error) { return d.NewBlendState(&bs) },
	}
	for i, fn := range create {
		obj, err := fn()
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
		if nativeState(obj) == nil {
			t.Errorf("create %d: no native object", i)
		}
	}
	for _, kind := range []string{"sampler", "depth stencil", "blend"} {
		if len(f.created(kind)) != 1 {
			t.Errorf("%s states created = %d, want 1", kind, len(f.created(kind)))
		}
	}
	if got := f.created("depth stencil")[0].desc.(DepthStencilDesc); got.DepthWriteMask != DepthWriteMaskAll || !got.DepthEnable {
		t.Errorf("depth stencil desc = %+v", got)
	}
	if nativeState(nil) != nil {
		t.Error("nativeState(nil) != nil")
	}
}

func TestStateCreateError(t *testing.T) {
	d, f := openDriver(t)
	f.fail["blend"] = errFake
	bs := rhi.DefaultBlendDescriptor()
	if _, err := d.NewBlendState(&bs); !errors.Is(err, errFake) {
		t.Errorf("NewBlendState err = %v, want the device error", err)
	}
	if d.Live() != 0 || d.blends.Len() != 0 {
		t.Errorf("Live %d, cache %d after a failed create", d.Live(), d.blends.Len())
	}
}

func TestIndependentBlendOnLevel9(t *testing.T) {
	d := openFake(t, newFakeDevice(FeatureLevel9_3), Options{})
	f := d.dev.(*fakeDevice)
	bs := rhi.DefaultBlendDescriptor()
	bs.IndependentBlend = true
	bs.RenderTargets[1].BlendEnable = true
	if _, err := d.NewBlendState(&bs); err != nil {
		t.Fatalf("NewBlendState: %v", err)
	}
	got := f.created("blend")[0].desc.(BlendDesc)
	if got.IndependentBlendEnable || got.RenderTarget[1].BlendEnable {
		t.Errorf("independent blending kept at level 9_3: %+v", got)
	}
}

func TestSamplerAnisotropyOnLevel9_1(t *testing.T) {
	d := openFake(t, newFakeDevice(FeatureLevel9_1), Options{})
	f := d.dev.(*fakeDevice)
	s := rhi.DefaultSamplerDescriptor()
	s.MaxAnisotropy = 16
	if _, err := d.NewSamplerState(&s); err != nil {
		t.Fatalf("NewSamplerState: %v", err)
	}
	if got := f.created("sampler")[0].desc.(SamplerDesc).MaxAnisotropy; got != 2 {
		t.Errorf("MaxAnisotropy = %d, want 2", got)
	}
}
